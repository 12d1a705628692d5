package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fjod/go_cart/shop-service/internal/auth"
	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/fjod/go_cart/shop-service/internal/events"
	"github.com/fjod/go_cart/shop-service/internal/repository"
	"github.com/shopspring/decimal"
)

const (
	msgNoItems        = "At least one order item is required"
	msgInvalidProduct = "invalid product in order"
	cleanupTimeout    = 5 * time.Second
)

type OrderService struct {
	repos  repository.Set
	prices PriceResolver
	stock  StockAdjuster
	events events.Publisher
	log    *slog.Logger
	now    func() time.Time
}

type OrderOption func(*OrderService)

func WithStockAdjuster(s StockAdjuster) OrderOption {
	return func(o *OrderService) { o.stock = s }
}

func WithPublisher(p events.Publisher) OrderOption {
	return func(o *OrderService) { o.events = p }
}

func WithLogger(l *slog.Logger) OrderOption {
	return func(o *OrderService) { o.log = l }
}

func WithClock(now func() time.Time) OrderOption {
	return func(o *OrderService) { o.now = now }
}

func NewOrderService(repos repository.Set, prices PriceResolver, opts ...OrderOption) *OrderService {
	s := &OrderService{
		repos:  repos,
		prices: prices,
		stock:  NoopStockAdjuster{},
		events: events.NoopPublisher{},
		log:    slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrder resolves every price before writing anything, then creates the
// line items and the order. Line items created by a failed call are removed.
// The returned total is fixed at creation and never recomputed.
func (s *OrderService) CreateOrder(ctx context.Context, actor domain.Principal, in domain.PlaceOrder) (*domain.Order, error) {
	if len(in.Items) == 0 {
		return nil, domain.NewValidationError(msgNoItems)
	}

	owner := in.OwnerID
	if owner == "" {
		owner = actor.UserID
	}
	if err := auth.Authorize(actor, owner); err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = domain.StatusPending
	}
	if status != domain.StatusPending && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins may set order status", domain.ErrForbidden)
	}

	var msgs []string
	for i, it := range in.Items {
		if it.Quantity < 1 {
			msgs = append(msgs, fmt.Sprintf("orderItem[%d]: Quantity must be at least 1", i))
		}
	}
	if len(msgs) > 0 {
		return nil, domain.NewValidationError(msgs...)
	}

	prices, err := s.resolvePrices(ctx, in.Items)
	if err != nil {
		return nil, err
	}

	created := make([]*domain.LineItem, 0, len(in.Items))
	for _, it := range in.Items {
		item, err := s.repos.LineItems.Create(ctx, it.ProductID, it.Quantity, owner)
		if err != nil {
			s.compensate(ctx, created)
			return nil, fmt.Errorf("create order item: %w", err)
		}
		created = append(created, item)
	}

	total := decimal.Zero
	ids := make([]string, 0, len(created))
	for _, item := range created {
		total = total.Add(prices[item.ProductID].Mul(decimal.NewFromInt(int64(item.Quantity))))
		ids = append(ids, item.ID)
	}

	placedAt := in.PlacedAt
	if placedAt.IsZero() {
		placedAt = s.now()
	}

	order, err := s.repos.Orders.Create(ctx, &domain.Order{
		LineItemIDs:      ids,
		ShippingAddress1: in.Shipping.ShippingAddress1,
		ShippingAddress2: in.Shipping.ShippingAddress2,
		City:             in.Shipping.City,
		Zip:              in.Shipping.Zip,
		Country:          in.Shipping.Country,
		Phone:            in.Shipping.Phone,
		Status:           status,
		TotalPrice:       total,
		OwnerID:          owner,
		PlacedAt:         placedAt,
	})
	if err != nil {
		s.compensate(ctx, created)
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.stock.Reserve(ctx, created); err != nil {
		s.log.WarnContext(ctx, "stock reserve failed", "order_id", order.ID, "error", err)
	}
	s.publish(ctx, events.OrderPlaced, order, actor)

	s.log.InfoContext(ctx, "order created", "order_id", order.ID, "user_id", owner, "items", len(ids), "total", total.String())
	return order, nil
}

func (s *OrderService) resolvePrices(ctx context.Context, items []domain.ItemRequest) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal, len(items))
	for _, it := range items {
		if _, ok := prices[it.ProductID]; ok {
			continue
		}
		price, err := s.prices.GetPrice(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.NewValidationError(msgInvalidProduct)
			}
			return nil, fmt.Errorf("resolve price of product %s: %w", it.ProductID, err)
		}
		prices[it.ProductID] = price
	}
	return prices, nil
}

// compensate removes line items written by a failed CreateOrder. It runs even
// when the request context is already done.
func (s *OrderService) compensate(ctx context.Context, created []*domain.LineItem) {
	if len(created) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	ids := make([]string, 0, len(created))
	for _, it := range created {
		ids = append(ids, it.ID)
	}
	if _, err := s.repos.LineItems.DeleteMany(ctx, ids); err != nil {
		s.log.ErrorContext(ctx, "failed to remove order items of aborted order", "order_items", ids, "error", err)
	}
}

// UpdateOrderStatus is reserved to admins, whoever owns the order.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus, actor domain.Principal) (*domain.Order, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if _, ok := domain.ParseOrderStatus(string(status)); !ok {
		return nil, domain.NewValidationError("Status must be one of Pending, Shipped or Delivered")
	}

	order, err := s.repos.Orders.UpdateStatus(ctx, orderID, status)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.OrderStatusChanged, order, actor)
	s.log.InfoContext(ctx, "order status changed", "order_id", order.ID, "status", string(status))
	return order, nil
}

// UpdateOrder changes address and contact fields. Totals and items stay as placed.
func (s *OrderService) UpdateOrder(ctx context.Context, orderID string, patch domain.OrderPatch, actor domain.Principal) (*domain.Order, error) {
	order, err := s.repos.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, order.OwnerID); err != nil {
		return nil, err
	}

	if patch.IsEmpty() {
		return order, nil
	}
	return s.repos.Orders.UpdateFields(ctx, orderID, patch)
}

// DeleteOrder removes the order and its line items. The pending cascade is
// recorded first so a crash between the two deletes is finished by the
// CascadeRecoverer.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID string, actor domain.Principal) (*domain.Order, error) {
	order, err := s.repos.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, order.OwnerID); err != nil {
		return nil, err
	}

	items, err := s.repos.LineItems.ListByIDs(ctx, order.LineItemIDs)
	if err != nil {
		s.log.WarnContext(ctx, "failed to load order items before delete", "order_id", orderID, "error", err)
	}

	intent, err := s.repos.Intents.Create(ctx, &domain.CascadeIntent{
		OrderID:     order.ID,
		LineItemIDs: order.LineItemIDs,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("record order delete: %w", err)
	}

	deleted, err := s.repos.Orders.Delete(ctx, orderID)
	if err != nil {
		s.completeIntent(ctx, intent.ID)
		return nil, err
	}

	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if _, err := s.repos.LineItems.DeleteMany(cleanupCtx, deleted.LineItemIDs); err != nil {
		s.log.WarnContext(ctx, "order items left for recovery", "order_id", orderID, "intent_id", intent.ID, "error", err)
	} else {
		s.completeIntent(cleanupCtx, intent.ID)
	}

	if err := s.stock.Restore(cleanupCtx, items); err != nil {
		s.log.WarnContext(ctx, "stock restore failed", "order_id", orderID, "error", err)
	}
	s.publish(ctx, events.OrderDeleted, deleted, actor)

	s.log.InfoContext(ctx, "order deleted", "order_id", orderID, "items", len(deleted.LineItemIDs))
	return deleted, nil
}

func (s *OrderService) completeIntent(ctx context.Context, intentID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if err := s.repos.Intents.Complete(ctx, intentID); err != nil {
		s.log.WarnContext(ctx, "failed to complete cascade intent", "intent_id", intentID, "error", err)
	}
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string, actor domain.Principal) (*domain.OrderDetails, error) {
	order, err := s.repos.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, order.OwnerID); err != nil {
		return nil, err
	}

	details, err := s.populate(ctx, []*domain.Order{order}, true)
	if err != nil {
		return nil, err
	}
	return details[0], nil
}

// ListOrders returns every order, newest first, with owner names resolved.
func (s *OrderService) ListOrders(ctx context.Context, actor domain.Principal) ([]*domain.OrderDetails, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	orders, err := s.repos.Orders.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, orders, false)
}

func (s *OrderService) ListUserOrders(ctx context.Context, userID string, actor domain.Principal) ([]*domain.OrderDetails, error) {
	if err := auth.Authorize(actor, userID); err != nil {
		return nil, err
	}
	orders, err := s.repos.Orders.FindByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, orders, true)
}

func (s *OrderService) CountOrders(ctx context.Context, actor domain.Principal) (int64, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return 0, err
	}
	return s.repos.Orders.Count(ctx)
}

func (s *OrderService) TotalSales(ctx context.Context, actor domain.Principal) (decimal.Decimal, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return decimal.Zero, err
	}
	return s.repos.Orders.SumTotalPrice(ctx)
}

// populate resolves owners and, when withItems is set, line items with their
// products and categories. Dangling references are left unresolved.
func (s *OrderService) populate(ctx context.Context, orders []*domain.Order, withItems bool) ([]*domain.OrderDetails, error) {
	ownerIDs := make([]string, 0, len(orders))
	for _, o := range orders {
		ownerIDs = append(ownerIDs, o.OwnerID)
	}
	users, err := s.repos.Users.ListByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}
	owners := make(map[string]*domain.UserRef, len(users))
	for _, u := range users {
		owners[u.ID] = &domain.UserRef{ID: u.ID, Name: u.Name}
	}

	var (
		items      map[string]*domain.LineItem
		products   map[string]*domain.Product
		categories map[string]*domain.Category
	)
	if withItems {
		items, products, categories, err = s.loadItemGraph(ctx, orders)
		if err != nil {
			return nil, err
		}
	}

	out := make([]*domain.OrderDetails, 0, len(orders))
	for _, o := range orders {
		d := &domain.OrderDetails{Order: o, Owner: owners[o.OwnerID]}
		if withItems {
			d.Items = make([]domain.LineItemDetails, 0, len(o.LineItemIDs))
			for _, id := range o.LineItemIDs {
				it, ok := items[id]
				if !ok {
					continue
				}
				d.Items = append(d.Items, lineItemDetails(it, products, categories))
			}
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *OrderService) loadItemGraph(ctx context.Context, orders []*domain.Order) (map[string]*domain.LineItem, map[string]*domain.Product, map[string]*domain.Category, error) {
	var itemIDs []string
	for _, o := range orders {
		itemIDs = append(itemIDs, o.LineItemIDs...)
	}
	itemList, err := s.repos.LineItems.ListByIDs(ctx, itemIDs)
	if err != nil {
		return nil, nil, nil, err
	}
	items := make(map[string]*domain.LineItem, len(itemList))
	for _, it := range itemList {
		items[it.ID] = it
	}

	products, err := productsByID(ctx, s.repos.Products, itemList)
	if err != nil {
		return nil, nil, nil, err
	}
	categoryIDs := make([]string, 0, len(products))
	for _, p := range products {
		categoryIDs = append(categoryIDs, p.CategoryID)
	}

	categoryList, err := s.repos.Categories.ListByIDs(ctx, categoryIDs)
	if err != nil {
		return nil, nil, nil, err
	}
	categories := make(map[string]*domain.Category, len(categoryList))
	for _, c := range categoryList {
		categories[c.ID] = c
	}
	return items, products, categories, nil
}

func (s *OrderService) publish(ctx context.Context, t events.EventType, order *domain.Order, actor domain.Principal) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if err := s.events.Publish(ctx, events.NewOrderEvent(t, order, actor)); err != nil {
		s.log.WarnContext(ctx, "failed to publish order event", "event_type", string(t), "order_id", order.ID, "error", err)
	}
}
