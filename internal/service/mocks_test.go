package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fjod/go_cart/shop-service/internal/cache"
	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/fjod/go_cart/shop-service/internal/events"
	"github.com/fjod/go_cart/shop-service/internal/repository"
	"github.com/shopspring/decimal"
)

type idGen struct {
	mu   sync.Mutex
	next int
}

func (g *idGen) id(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("%s-%d", prefix, g.next)
}

// MockLineItemRepository is an in-memory repository.LineItemRepository.
// FailCreateAt makes the n-th Create call (1-based) return CreateErr.
type MockLineItemRepository struct {
	ids          idGen
	Items        map[string]*domain.LineItem
	CreateCalls  int
	FailCreateAt int
	CreateErr    error
	DeleteErr    error
}

func NewMockLineItemRepository() *MockLineItemRepository {
	return &MockLineItemRepository{Items: map[string]*domain.LineItem{}}
}

func (m *MockLineItemRepository) Create(_ context.Context, productID string, quantity int, ownerID string) (*domain.LineItem, error) {
	m.CreateCalls++
	if m.FailCreateAt > 0 && m.CreateCalls == m.FailCreateAt {
		return nil, m.CreateErr
	}
	if quantity < 1 {
		return nil, domain.NewValidationError("Quantity must be at least 1")
	}
	item := &domain.LineItem{ID: m.ids.id("item"), ProductID: productID, Quantity: quantity, OwnerID: ownerID}
	m.Items[item.ID] = item
	return item, nil
}

func (m *MockLineItemRepository) GetByID(_ context.Context, id string) (*domain.LineItem, error) {
	it, ok := m.Items[id]
	if !ok {
		return nil, repository.ErrLineItemNotFound
	}
	cp := *it
	return &cp, nil
}

func (m *MockLineItemRepository) Update(_ context.Context, id string, patch domain.LineItemPatch) (*domain.LineItem, error) {
	it, ok := m.Items[id]
	if !ok {
		return nil, repository.ErrLineItemNotFound
	}
	if patch.Quantity != nil {
		if *patch.Quantity < 1 {
			return nil, domain.NewValidationError("Quantity must be at least 1")
		}
		it.Quantity = *patch.Quantity
	}
	if patch.ProductID != nil {
		it.ProductID = *patch.ProductID
	}
	cp := *it
	return &cp, nil
}

func (m *MockLineItemRepository) Delete(_ context.Context, id string) (*domain.LineItem, error) {
	it, ok := m.Items[id]
	if !ok {
		return nil, repository.ErrLineItemNotFound
	}
	delete(m.Items, id)
	return it, nil
}

func (m *MockLineItemRepository) Count(_ context.Context, filter domain.LineItemFilter) (int64, error) {
	var n int64
	for _, it := range m.Items {
		if filter.OwnerID == "" || it.OwnerID == filter.OwnerID {
			n++
		}
	}
	return n, nil
}

func (m *MockLineItemRepository) List(_ context.Context, filter domain.LineItemFilter) ([]*domain.LineItem, error) {
	out := []*domain.LineItem{}
	for _, it := range m.Items {
		if filter.OwnerID == "" || it.OwnerID == filter.OwnerID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockLineItemRepository) ListForOwner(ctx context.Context, ownerID string) ([]*domain.LineItem, error) {
	return m.List(ctx, domain.LineItemFilter{OwnerID: ownerID})
}

func (m *MockLineItemRepository) ListByIDs(_ context.Context, ids []string) ([]*domain.LineItem, error) {
	out := []*domain.LineItem{}
	for _, id := range ids {
		if it, ok := m.Items[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *MockLineItemRepository) DeleteMany(_ context.Context, ids []string) (int64, error) {
	if m.DeleteErr != nil {
		return 0, m.DeleteErr
	}
	var n int64
	for _, id := range ids {
		if _, ok := m.Items[id]; ok {
			delete(m.Items, id)
			n++
		}
	}
	return n, nil
}

// MockOrderRepository is an in-memory repository.OrderRepository.
type MockOrderRepository struct {
	ids       idGen
	Orders    map[string]*domain.Order
	CreateErr error
	DeleteErr error
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{Orders: map[string]*domain.Order{}}
}

func (m *MockOrderRepository) Create(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	cp := *order
	cp.ID = m.ids.id("order")
	m.Orders[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *MockOrderRepository) FindByID(_ context.Context, id string) (*domain.Order, error) {
	o, ok := m.Orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *MockOrderRepository) FindAll(_ context.Context) ([]*domain.Order, error) {
	return m.sorted(func(*domain.Order) bool { return true }), nil
}

func (m *MockOrderRepository) FindByOwner(_ context.Context, ownerID string) ([]*domain.Order, error) {
	return m.sorted(func(o *domain.Order) bool { return o.OwnerID == ownerID }), nil
}

func (m *MockOrderRepository) sorted(keep func(*domain.Order) bool) []*domain.Order {
	out := []*domain.Order{}
	for _, o := range m.Orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlacedAt.After(out[j].PlacedAt) })
	return out
}

func (m *MockOrderRepository) UpdateFields(_ context.Context, id string, patch domain.OrderPatch) (*domain.Order, error) {
	o, ok := m.Orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	apply := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	apply(&o.ShippingAddress1, patch.ShippingAddress1)
	apply(&o.ShippingAddress2, patch.ShippingAddress2)
	apply(&o.City, patch.City)
	apply(&o.Zip, patch.Zip)
	apply(&o.Country, patch.Country)
	apply(&o.Phone, patch.Phone)
	cp := *o
	return &cp, nil
}

func (m *MockOrderRepository) UpdateStatus(_ context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	o, ok := m.Orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	o.Status = status
	cp := *o
	return &cp, nil
}

func (m *MockOrderRepository) Delete(_ context.Context, id string) (*domain.Order, error) {
	if m.DeleteErr != nil {
		return nil, m.DeleteErr
	}
	o, ok := m.Orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	delete(m.Orders, id)
	return o, nil
}

func (m *MockOrderRepository) Count(_ context.Context) (int64, error) {
	return int64(len(m.Orders)), nil
}

func (m *MockOrderRepository) SumTotalPrice(_ context.Context) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, o := range m.Orders {
		sum = sum.Add(o.TotalPrice)
	}
	return sum, nil
}

// MockProductRepository serves products from a map. GetErr overrides every
// GetByID. A non-nil GetGate holds GetByID until it is closed or ctx ends.
type MockProductRepository struct {
	ids      idGen
	Products map[string]*domain.Product
	GetErr   error
	GetGate  chan struct{}
	GetCalls int
	mu       sync.Mutex
}

func NewMockProductRepository(products ...*domain.Product) *MockProductRepository {
	m := &MockProductRepository{Products: map[string]*domain.Product{}}
	for _, p := range products {
		m.Products[p.ID] = p
	}
	return m
}

func (m *MockProductRepository) Create(_ context.Context, p *domain.Product) (*domain.Product, error) {
	for _, existing := range m.Products {
		if existing.Name == p.Name {
			return nil, fmt.Errorf("failed to insert product: %w", domain.ErrConflict)
		}
	}
	cp := *p
	cp.ID = m.ids.id("product")
	m.Products[cp.ID] = &cp
	return &cp, nil
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	m.GetCalls++
	m.mu.Unlock()
	if m.GetGate != nil {
		select {
		case <-m.GetGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	p, ok := m.Products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (m *MockProductRepository) List(_ context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	out := []*domain.Product{}
	for _, p := range m.Products {
		if filter.FeaturedOnly && !p.IsFeatured {
			continue
		}
		out = append(out, p)
	}
	if filter.Limit > 0 && int64(len(out)) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *MockProductRepository) ListByIDs(_ context.Context, ids []string) ([]*domain.Product, error) {
	out := []*domain.Product{}
	for _, id := range ids {
		if p, ok := m.Products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MockProductRepository) Update(_ context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	p, ok := m.Products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.CategoryID != nil {
		p.CategoryID = *patch.CategoryID
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	return p, nil
}

func (m *MockProductRepository) Delete(_ context.Context, id string) (*domain.Product, error) {
	p, ok := m.Products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	delete(m.Products, id)
	return p, nil
}

func (m *MockProductRepository) Count(_ context.Context) (int64, error) {
	return int64(len(m.Products)), nil
}

type MockCategoryRepository struct {
	ids        idGen
	Categories map[string]*domain.Category
}

func NewMockCategoryRepository(cats ...*domain.Category) *MockCategoryRepository {
	m := &MockCategoryRepository{Categories: map[string]*domain.Category{}}
	for _, c := range cats {
		m.Categories[c.ID] = c
	}
	return m
}

func (m *MockCategoryRepository) Create(_ context.Context, c *domain.Category) (*domain.Category, error) {
	for _, existing := range m.Categories {
		if existing.Name == c.Name {
			return nil, fmt.Errorf("failed to insert category: %w", domain.ErrConflict)
		}
	}
	cp := *c
	cp.ID = m.ids.id("category")
	m.Categories[cp.ID] = &cp
	return &cp, nil
}

func (m *MockCategoryRepository) GetByID(_ context.Context, id string) (*domain.Category, error) {
	c, ok := m.Categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return c, nil
}

func (m *MockCategoryRepository) List(_ context.Context) ([]*domain.Category, error) {
	out := []*domain.Category{}
	for _, c := range m.Categories {
		out = append(out, c)
	}
	return out, nil
}

func (m *MockCategoryRepository) ListByIDs(_ context.Context, ids []string) ([]*domain.Category, error) {
	out := []*domain.Category{}
	for _, id := range ids {
		if c, ok := m.Categories[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MockCategoryRepository) Update(_ context.Context, id string, patch domain.CategoryPatch) (*domain.Category, error) {
	c, ok := m.Categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	return c, nil
}

func (m *MockCategoryRepository) Delete(_ context.Context, id string) (*domain.Category, error) {
	c, ok := m.Categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	delete(m.Categories, id)
	return c, nil
}

func (m *MockCategoryRepository) Count(_ context.Context) (int64, error) {
	return int64(len(m.Categories)), nil
}

type MockUserRepository struct {
	ids   idGen
	Users map[string]*domain.User
}

func NewMockUserRepository(users ...*domain.User) *MockUserRepository {
	m := &MockUserRepository{Users: map[string]*domain.User{}}
	for _, u := range users {
		m.Users[u.ID] = u
	}
	return m
}

func (m *MockUserRepository) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	for _, existing := range m.Users {
		if existing.Email == u.Email {
			return nil, fmt.Errorf("failed to insert user: %w", domain.ErrConflict)
		}
	}
	cp := *u
	cp.ID = m.ids.id("user")
	m.Users[cp.ID] = &cp
	return &cp, nil
}

func (m *MockUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := m.Users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

func (m *MockUserRepository) List(_ context.Context) ([]*domain.User, error) {
	out := []*domain.User{}
	for _, u := range m.Users {
		out = append(out, u)
	}
	return out, nil
}

func (m *MockUserRepository) ListByIDs(_ context.Context, ids []string) ([]*domain.User, error) {
	out := []*domain.User{}
	for _, id := range ids {
		if u, ok := m.Users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *MockUserRepository) Delete(_ context.Context, id string) (*domain.User, error) {
	u, ok := m.Users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	delete(m.Users, id)
	return u, nil
}

func (m *MockUserRepository) Count(_ context.Context) (int64, error) {
	return int64(len(m.Users)), nil
}

type MockIntentRepository struct {
	ids       idGen
	Intents   map[string]*domain.CascadeIntent
	CreateErr error
}

func NewMockIntentRepository() *MockIntentRepository {
	return &MockIntentRepository{Intents: map[string]*domain.CascadeIntent{}}
}

func (m *MockIntentRepository) Create(_ context.Context, intent *domain.CascadeIntent) (*domain.CascadeIntent, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	cp := *intent
	cp.ID = m.ids.id("intent")
	m.Intents[cp.ID] = &cp
	return &cp, nil
}

func (m *MockIntentRepository) Complete(_ context.Context, id string) error {
	if _, ok := m.Intents[id]; !ok {
		return repository.ErrIntentNotFound
	}
	delete(m.Intents, id)
	return nil
}

func (m *MockIntentRepository) ListPending(_ context.Context, olderThan time.Time, _ int64) ([]*domain.CascadeIntent, error) {
	out := []*domain.CascadeIntent{}
	for _, it := range m.Intents {
		if it.CreatedAt.Before(olderThan) {
			out = append(out, it)
		}
	}
	return out, nil
}

// MockPriceResolver returns fixed prices. Unknown products are NotFound.
type MockPriceResolver struct {
	Prices map[string]decimal.Decimal
	Err    error
	Calls  []string
}

func (m *MockPriceResolver) GetPrice(_ context.Context, productID string) (decimal.Decimal, error) {
	m.Calls = append(m.Calls, productID)
	if m.Err != nil {
		return decimal.Zero, m.Err
	}
	p, ok := m.Prices[productID]
	if !ok {
		return decimal.Zero, repository.ErrProductNotFound
	}
	return p, nil
}

// MockPriceCache is a map-backed cache.PriceCache.
type MockPriceCache struct {
	mu      sync.Mutex
	Prices  map[string]decimal.Decimal
	GetErr  error
	Deleted []string
}

func NewMockPriceCache() *MockPriceCache {
	return &MockPriceCache{Prices: map[string]decimal.Decimal{}}
}

func (m *MockPriceCache) Get(_ context.Context, productID string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return decimal.Zero, m.GetErr
	}
	p, ok := m.Prices[productID]
	if !ok {
		return decimal.Zero, cache.ErrCacheMiss
	}
	return p, nil
}

func (m *MockPriceCache) Set(_ context.Context, productID string, price decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prices[productID] = price
	return nil
}

func (m *MockPriceCache) Delete(_ context.Context, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Prices, productID)
	m.Deleted = append(m.Deleted, productID)
	return nil
}

type MockPublisher struct {
	Events []events.OrderEvent
	Err    error
}

func (m *MockPublisher) Publish(_ context.Context, ev events.OrderEvent) error {
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, ev)
	return nil
}

func (m *MockPublisher) Close() error { return nil }

type MockStockAdjuster struct {
	Reserved [][]*domain.LineItem
	Restored [][]*domain.LineItem
}

func (m *MockStockAdjuster) Reserve(_ context.Context, items []*domain.LineItem) error {
	m.Reserved = append(m.Reserved, items)
	return nil
}

func (m *MockStockAdjuster) Restore(_ context.Context, items []*domain.LineItem) error {
	m.Restored = append(m.Restored, items)
	return nil
}

type MockPriceInvalidator struct {
	Invalidated []string
}

func (m *MockPriceInvalidator) Invalidate(_ context.Context, productID string) {
	m.Invalidated = append(m.Invalidated, productID)
}

// testRepos holds the in-memory repositories behind a repository.Set.
type testRepos struct {
	orders     *MockOrderRepository
	items      *MockLineItemRepository
	products   *MockProductRepository
	categories *MockCategoryRepository
	users      *MockUserRepository
	intents    *MockIntentRepository
}

func newTestRepos() *testRepos {
	return &testRepos{
		orders:     NewMockOrderRepository(),
		items:      NewMockLineItemRepository(),
		products:   NewMockProductRepository(),
		categories: NewMockCategoryRepository(),
		users:      NewMockUserRepository(),
		intents:    NewMockIntentRepository(),
	}
}

func (r *testRepos) set() repository.Set {
	return repository.Set{
		Orders:     r.orders,
		LineItems:  r.items,
		Products:   r.products,
		Categories: r.categories,
		Users:      r.users,
		Intents:    r.intents,
	}
}
