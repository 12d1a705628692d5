package cache

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// PriceCache keeps current unit prices keyed by product id.
type PriceCache interface {
	Get(ctx context.Context, productID string) (decimal.Decimal, error)
	Set(ctx context.Context, productID string, price decimal.Decimal) error
	Delete(ctx context.Context, productID string) error
}

var ErrCacheMiss = errors.New("cache miss")
