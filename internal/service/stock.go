package service

import (
	"context"

	"github.com/fjod/go_cart/shop-service/internal/domain"
)

// StockAdjuster is called after an order is placed or removed. Product stock
// is not part of the order workflow today, so the wired adjuster does nothing.
type StockAdjuster interface {
	Reserve(ctx context.Context, items []*domain.LineItem) error
	Restore(ctx context.Context, items []*domain.LineItem) error
}

type NoopStockAdjuster struct{}

func (NoopStockAdjuster) Reserve(context.Context, []*domain.LineItem) error { return nil }

func (NoopStockAdjuster) Restore(context.Context, []*domain.LineItem) error { return nil }
