package repository

import (
	"context"
	"time"

	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo"
)

// OrderRepository persists orders. Line items are stored separately and
// referenced by id.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	FindAll(ctx context.Context) ([]*domain.Order, error)
	FindByOwner(ctx context.Context, ownerID string) ([]*domain.Order, error)
	UpdateFields(ctx context.Context, id string, patch domain.OrderPatch) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
	Delete(ctx context.Context, id string) (*domain.Order, error)
	Count(ctx context.Context) (int64, error)
	SumTotalPrice(ctx context.Context) (decimal.Decimal, error)
}

type LineItemRepository interface {
	Create(ctx context.Context, productID string, quantity int, ownerID string) (*domain.LineItem, error)
	GetByID(ctx context.Context, id string) (*domain.LineItem, error)
	Update(ctx context.Context, id string, patch domain.LineItemPatch) (*domain.LineItem, error)
	Delete(ctx context.Context, id string) (*domain.LineItem, error)
	Count(ctx context.Context, filter domain.LineItemFilter) (int64, error)
	List(ctx context.Context, filter domain.LineItemFilter) ([]*domain.LineItem, error)
	ListForOwner(ctx context.Context, ownerID string) ([]*domain.LineItem, error)
	ListByIDs(ctx context.Context, ids []string) ([]*domain.LineItem, error)
	DeleteMany(ctx context.Context, ids []string) (int64, error)
}

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error)
	ListByIDs(ctx context.Context, ids []string) ([]*domain.Product, error)
	Update(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error)
	Delete(ctx context.Context, id string) (*domain.Product, error)
	Count(ctx context.Context) (int64, error)
}

type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) (*domain.Category, error)
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	List(ctx context.Context) ([]*domain.Category, error)
	ListByIDs(ctx context.Context, ids []string) ([]*domain.Category, error)
	Update(ctx context.Context, id string, patch domain.CategoryPatch) (*domain.Category, error)
	Delete(ctx context.Context, id string) (*domain.Category, error)
	Count(ctx context.Context) (int64, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]*domain.User, error)
	Delete(ctx context.Context, id string) (*domain.User, error)
	Count(ctx context.Context) (int64, error)
}

// IntentRepository tracks cascade deletes that have not finished yet.
type IntentRepository interface {
	Create(ctx context.Context, intent *domain.CascadeIntent) (*domain.CascadeIntent, error)
	Complete(ctx context.Context, id string) error
	ListPending(ctx context.Context, olderThan time.Time, limit int64) ([]*domain.CascadeIntent, error)
}

// Set bundles the repositories the services depend on.
type Set struct {
	Orders     OrderRepository
	LineItems  LineItemRepository
	Products   ProductRepository
	Categories CategoryRepository
	Users      UserRepository
	Intents    IntentRepository
}

// NewMongoSet builds every repository on db. Each call to the store is
// bounded by opTimeout.
func NewMongoSet(db *mongo.Database, opTimeout time.Duration) Set {
	return Set{
		Orders:     NewOrderRepository(db, opTimeout),
		LineItems:  NewLineItemRepository(db, opTimeout),
		Products:   NewProductRepository(db, opTimeout),
		Categories: NewCategoryRepository(db, opTimeout),
		Users:      NewUserRepository(db, opTimeout),
		Intents:    NewIntentRepository(db, opTimeout),
	}
}
