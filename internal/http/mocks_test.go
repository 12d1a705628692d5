package http

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fjod/go_cart/shop-service/internal/auth"
	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/fjod/go_cart/shop-service/internal/repository"
	"github.com/fjod/go_cart/shop-service/internal/service"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-secret"
	aliceID    = "65a000000000000000000001"
	bobID      = "65a000000000000000000002"
	adminID    = "65a0000000000000000000ff"
	orderID    = "65b000000000000000000001"
	productA   = "65c000000000000000000001"
	productB   = "65c000000000000000000002"
	categoryID = "65d000000000000000000001"
)

func signToken(t *testing.T, userID string, role domain.Role) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		UserID: userID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	raw, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return raw
}

// MockOrderService keeps orders in a map and applies the same ownership
// rules as the real service.
type MockOrderService struct {
	orders    map[string]*domain.Order
	err       error
	lastPlace *domain.PlaceOrder
	calls     int
}

func NewMockOrderService(orders ...*domain.Order) *MockOrderService {
	m := &MockOrderService{orders: map[string]*domain.Order{}}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func (m *MockOrderService) find(id string) (*domain.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return o, nil
}

func (m *MockOrderService) CreateOrder(_ context.Context, actor domain.Principal, in domain.PlaceOrder) (*domain.Order, error) {
	m.calls++
	m.lastPlace = &in
	if m.err != nil {
		return nil, m.err
	}
	owner := in.OwnerID
	if owner == "" {
		owner = actor.UserID
	}
	if err := auth.Authorize(actor, owner); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(in.Items))
	total := decimal.Zero
	for i, it := range in.Items {
		ids = append(ids, fmt.Sprintf("65e%021d", i+1))
		total = total.Add(decimal.NewFromInt(100).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	o := &domain.Order{
		ID:               orderID,
		LineItemIDs:      ids,
		ShippingAddress1: in.Shipping.ShippingAddress1,
		City:             in.Shipping.City,
		Country:          in.Shipping.Country,
		Phone:            in.Shipping.Phone,
		Status:           domain.StatusPending,
		TotalPrice:       total,
		OwnerID:          owner,
		PlacedAt:         time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	m.orders[o.ID] = o
	return o, nil
}

func (m *MockOrderService) GetOrder(_ context.Context, id string, actor domain.Principal) (*domain.OrderDetails, error) {
	if m.err != nil {
		return nil, m.err
	}
	o, err := m.find(id)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, o.OwnerID); err != nil {
		return nil, err
	}
	return &domain.OrderDetails{
		Order: o,
		Owner: &domain.UserRef{ID: o.OwnerID, Name: "Alice"},
		Items: []domain.LineItemDetails{{
			ID:       o.LineItemIDs[0],
			Quantity: 2,
			Product: &domain.ProductDetails{
				Product:  &domain.Product{ID: productA, Name: "Keyboard", Price: decimal.RequireFromString("49.90"), CategoryID: categoryID},
				Category: &domain.Category{ID: categoryID, Name: "Peripherals"},
			},
		}},
	}, nil
}

func (m *MockOrderService) UpdateOrder(_ context.Context, id string, patch domain.OrderPatch, actor domain.Principal) (*domain.Order, error) {
	o, err := m.find(id)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, o.OwnerID); err != nil {
		return nil, err
	}
	if patch.City != nil {
		o.City = *patch.City
	}
	return o, nil
}

func (m *MockOrderService) UpdateOrderStatus(_ context.Context, id string, status domain.OrderStatus, actor domain.Principal) (*domain.Order, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	o, err := m.find(id)
	if err != nil {
		return nil, err
	}
	o.Status = status
	return o, nil
}

func (m *MockOrderService) DeleteOrder(_ context.Context, id string, actor domain.Principal) (*domain.Order, error) {
	o, err := m.find(id)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, o.OwnerID); err != nil {
		return nil, err
	}
	delete(m.orders, id)
	return o, nil
}

func (m *MockOrderService) ListOrders(_ context.Context, actor domain.Principal) ([]*domain.OrderDetails, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	out := []*domain.OrderDetails{}
	for _, o := range m.orders {
		out = append(out, &domain.OrderDetails{Order: o})
	}
	return out, nil
}

func (m *MockOrderService) ListUserOrders(_ context.Context, userID string, actor domain.Principal) ([]*domain.OrderDetails, error) {
	if err := auth.Authorize(actor, userID); err != nil {
		return nil, err
	}
	out := []*domain.OrderDetails{}
	for _, o := range m.orders {
		if o.OwnerID == userID {
			out = append(out, &domain.OrderDetails{Order: o, Items: []domain.LineItemDetails{}})
		}
	}
	return out, nil
}

func (m *MockOrderService) CountOrders(_ context.Context, actor domain.Principal) (int64, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return 0, err
	}
	return int64(len(m.orders)), nil
}

func (m *MockOrderService) TotalSales(_ context.Context, actor domain.Principal) (decimal.Decimal, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, o := range m.orders {
		sum = sum.Add(o.TotalPrice)
	}
	return sum, nil
}

// MockLineItemService resolves products from the products map, usually the
// catalog mock's.
type MockLineItemService struct {
	items    map[string]*domain.LineItem
	products map[string]*domain.Product
	err      error
}

func (m *MockLineItemService) CreateLineItem(_ context.Context, actor domain.Principal, ownerID, productID string, quantity int) (*domain.LineItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	if ownerID == "" {
		ownerID = actor.UserID
	}
	it := &domain.LineItem{ID: "65e000000000000000000009", ProductID: productID, Quantity: quantity, OwnerID: ownerID}
	m.items[it.ID] = it
	return it, nil
}

func (m *MockLineItemService) find(id string, actor domain.Principal) (*domain.LineItem, error) {
	it, ok := m.items[id]
	if !ok {
		return nil, repository.ErrLineItemNotFound
	}
	if err := auth.Authorize(actor, it.OwnerID); err != nil {
		return nil, err
	}
	return it, nil
}

func (m *MockLineItemService) details(it *domain.LineItem) domain.LineItemDetails {
	d := domain.LineItemDetails{ID: it.ID, Quantity: it.Quantity, OwnerID: it.OwnerID, ProductID: it.ProductID}
	if p, ok := m.products[it.ProductID]; ok {
		d.Product = &domain.ProductDetails{Product: p}
	}
	return d
}

func (m *MockLineItemService) GetLineItem(_ context.Context, id string, actor domain.Principal) (*domain.LineItemDetails, error) {
	it, err := m.find(id, actor)
	if err != nil {
		return nil, err
	}
	d := m.details(it)
	return &d, nil
}

func (m *MockLineItemService) UpdateLineItem(_ context.Context, id string, patch domain.LineItemPatch, actor domain.Principal) (*domain.LineItem, error) {
	it, err := m.find(id, actor)
	if err != nil {
		return nil, err
	}
	if patch.Quantity != nil {
		it.Quantity = *patch.Quantity
	}
	return it, nil
}

func (m *MockLineItemService) DeleteLineItem(_ context.Context, id string, actor domain.Principal) (*domain.LineItem, error) {
	it, err := m.find(id, actor)
	if err != nil {
		return nil, err
	}
	delete(m.items, id)
	return it, nil
}

func (m *MockLineItemService) ListLineItems(_ context.Context, actor domain.Principal) ([]domain.LineItemDetails, error) {
	var out []domain.LineItemDetails
	for _, it := range m.items {
		if actor.IsAdmin() || it.OwnerID == actor.UserID {
			out = append(out, m.details(it))
		}
	}
	return out, nil
}

func (m *MockLineItemService) CountLineItems(ctx context.Context, actor domain.Principal) (int64, error) {
	list, _ := m.ListLineItems(ctx, actor)
	return int64(len(list)), nil
}

type MockCatalogService struct {
	products   map[string]*domain.Product
	categories map[string]*domain.Category
	filter     domain.ProductFilter
	createErr  error
}

func NewMockCatalogService() *MockCatalogService {
	return &MockCatalogService{
		products: map[string]*domain.Product{
			productA: {ID: productA, Name: "Keyboard", Price: decimal.RequireFromString("49.90"), CategoryID: categoryID, IsFeatured: true},
		},
		categories: map[string]*domain.Category{
			categoryID: {ID: categoryID, Name: "Peripherals", Icon: "kbd", Color: "#333"},
		},
	}
}

func (m *MockCatalogService) CreateProduct(_ context.Context, p *domain.Product) (*domain.Product, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	cp := *p
	cp.ID = productB
	m.products[cp.ID] = &cp
	return &cp, nil
}

func (m *MockCatalogService) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (m *MockCatalogService) ListProducts(_ context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	m.filter = filter
	out := []*domain.Product{}
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *MockCatalogService) FeaturedProducts(_ context.Context, limit int64) ([]*domain.Product, error) {
	m.filter = domain.ProductFilter{FeaturedOnly: true, Limit: limit}
	out := []*domain.Product{}
	for _, p := range m.products {
		if p.IsFeatured {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MockCatalogService) CountProducts(context.Context) (int64, error) {
	return int64(len(m.products)), nil
}

func (m *MockCatalogService) UpdateProduct(_ context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	return p, nil
}

func (m *MockCatalogService) DeleteProduct(_ context.Context, id string) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	delete(m.products, id)
	return p, nil
}

func (m *MockCatalogService) CreateCategory(_ context.Context, c *domain.Category) (*domain.Category, error) {
	for _, existing := range m.categories {
		if existing.Name == c.Name {
			return nil, fmt.Errorf("category already %w", domain.ErrConflict)
		}
	}
	cp := *c
	cp.ID = "65d000000000000000000002"
	m.categories[cp.ID] = &cp
	return &cp, nil
}

func (m *MockCatalogService) GetCategory(_ context.Context, id string) (*domain.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return c, nil
}

func (m *MockCatalogService) ListCategories(context.Context) ([]*domain.Category, error) {
	out := []*domain.Category{}
	for _, c := range m.categories {
		out = append(out, c)
	}
	return out, nil
}

func (m *MockCatalogService) CountCategories(context.Context) (int64, error) {
	return int64(len(m.categories)), nil
}

func (m *MockCatalogService) UpdateCategory(_ context.Context, id string, patch domain.CategoryPatch) (*domain.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	return c, nil
}

func (m *MockCatalogService) DeleteCategory(_ context.Context, id string) (*domain.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	delete(m.categories, id)
	return c, nil
}

type MockUserService struct {
	users     map[string]*domain.User
	registers []service.RegisterUser
	err       error
}

func (m *MockUserService) Register(_ context.Context, in service.RegisterUser) (*domain.User, error) {
	m.registers = append(m.registers, in)
	if m.err != nil {
		return nil, m.err
	}
	u := &domain.User{ID: "65a000000000000000000003", Name: in.Name, Email: in.Email, PasswordHash: "hashed", Role: domain.RoleUser}
	m.users[u.ID] = u
	return u, nil
}

func (m *MockUserService) GetUser(_ context.Context, id string, actor domain.Principal) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	if err := auth.Authorize(actor, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (m *MockUserService) ListUsers(_ context.Context, actor domain.Principal) ([]*domain.User, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	out := []*domain.User{}
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *MockUserService) CountUsers(_ context.Context, actor domain.Principal) (int64, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return 0, err
	}
	return int64(len(m.users)), nil
}

func (m *MockUserService) DeleteUser(_ context.Context, id string, actor domain.Principal) (*domain.User, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	delete(m.users, id)
	return u, nil
}
