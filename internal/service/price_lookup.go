package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fjod/go_cart/shop-service/internal/cache"
	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/fjod/go_cart/shop-service/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"
)

// PriceResolver resolves a product to its current unit price.
type PriceResolver interface {
	GetPrice(ctx context.Context, productID string) (decimal.Decimal, error)
}

// PriceInvalidator drops a cached price after a catalog change.
type PriceInvalidator interface {
	Invalidate(ctx context.Context, productID string)
}

type BreakerSettings struct {
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

var defaultBreaker = BreakerSettings{ConsecutiveFailures: 5, OpenTimeout: 10 * time.Second}

const sharedLookupTimeout = 5 * time.Second

type PriceLookup struct {
	products repository.ProductRepository
	cache    cache.PriceCache
	breaker  *gobreaker.CircuitBreaker[decimal.Decimal]
	sfg      singleflight.Group // one store read per product under concurrent misses
	log      *slog.Logger
}

func NewPriceLookup(products repository.ProductRepository, priceCache cache.PriceCache, settings BreakerSettings, log *slog.Logger) *PriceLookup {
	if settings.ConsecutiveFailures == 0 {
		settings.ConsecutiveFailures = defaultBreaker.ConsecutiveFailures
	}
	if settings.OpenTimeout <= 0 {
		settings.OpenTimeout = defaultBreaker.OpenTimeout
	}
	if log == nil {
		log = slog.Default()
	}

	breaker := gobreaker.NewCircuitBreaker[decimal.Decimal](gobreaker.Settings{
		Name:        "product-store",
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.ConsecutiveFailures
		},
		// a missing product is an answer, not a store failure
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &PriceLookup{
		products: products,
		cache:    priceCache,
		breaker:  breaker,
		log:      log,
	}
}

// GetPrice returns the unit price of productID. A missing product yields
// ErrNotFound, an open breaker ErrUnavailable. Concurrent callers share one
// read, which outlives any single caller's cancellation.
func (l *PriceLookup) GetPrice(ctx context.Context, productID string) (decimal.Decimal, error) {
	ch := l.sfg.DoChan(productID, func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLookupTimeout)
		defer cancel()
		return l.load(shared, productID)
	})

	select {
	case <-ctx.Done():
		return decimal.Zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return decimal.Zero, res.Err
		}
		return res.Val.(decimal.Decimal), nil
	}
}

func (l *PriceLookup) load(ctx context.Context, productID string) (decimal.Decimal, error) {
	price, err := l.cache.Get(ctx, productID)
	if err == nil {
		return price, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		l.log.WarnContext(ctx, "price cache get failed", "product_id", productID, "error", err)
	}

	price, err = l.breaker.Execute(func() (decimal.Decimal, error) {
		p, err := l.products.GetByID(ctx, productID)
		if err != nil {
			return decimal.Zero, err
		}
		return p.Price, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return decimal.Zero, fmt.Errorf("product lookup: %w: %w", domain.ErrUnavailable, err)
		}
		return decimal.Zero, err
	}

	if errSet := l.cache.Set(ctx, productID, price); errSet != nil {
		l.log.WarnContext(ctx, "price cache set failed", "product_id", productID, "error", errSet)
	}
	return price, nil
}

func (l *PriceLookup) Invalidate(ctx context.Context, productID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := l.cache.Delete(ctx, productID); err != nil {
		l.log.WarnContext(ctx, "price cache invalidate failed", "product_id", productID, "error", err)
	}
}
