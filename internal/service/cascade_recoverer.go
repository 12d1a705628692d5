package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/fjod/go_cart/shop-service/internal/repository"
)

const recoveryBatch = 100

// CascadeRecoverer finishes order deletes whose line items were not removed.
type CascadeRecoverer struct {
	orders     repository.OrderRepository
	items      repository.LineItemRepository
	intents    repository.IntentRepository
	interval   time.Duration
	staleAfter time.Duration
	log        *slog.Logger
	now        func() time.Time
}

func NewCascadeRecoverer(repos repository.Set, interval, staleAfter time.Duration, log *slog.Logger) *CascadeRecoverer {
	if interval <= 0 {
		interval = time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &CascadeRecoverer{
		orders:     repos.Orders,
		items:      repos.LineItems,
		intents:    repos.Intents,
		interval:   interval,
		staleAfter: staleAfter,
		log:        log,
		now:        time.Now,
	}
}

// Run replays pending intents once at start and then on every tick until ctx is done.
func (r *CascadeRecoverer) Run(ctx context.Context) {
	r.RecoverOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.RecoverOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// RecoverOnce processes one batch and returns how many intents it closed.
// An intent whose order still exists belongs to a delete that never happened
// and is discarded without touching line items.
func (r *CascadeRecoverer) RecoverOnce(ctx context.Context) int {
	intents, err := r.intents.ListPending(ctx, r.now().Add(-r.staleAfter), recoveryBatch)
	if err != nil {
		r.log.ErrorContext(ctx, "failed to list cascade intents", "error", err)
		return 0
	}

	closed := 0
	for _, intent := range intents {
		_, err := r.orders.FindByID(ctx, intent.OrderID)
		switch {
		case err == nil:
			r.log.InfoContext(ctx, "discarding cascade intent for live order", "intent_id", intent.ID, "order_id", intent.OrderID)
		case errors.Is(err, domain.ErrNotFound):
			n, errDel := r.items.DeleteMany(ctx, intent.LineItemIDs)
			if errDel != nil {
				r.log.WarnContext(ctx, "failed to delete order items", "intent_id", intent.ID, "error", errDel)
				continue
			}
			r.log.InfoContext(ctx, "recovered order delete", "intent_id", intent.ID, "order_id", intent.OrderID, "deleted_items", n)
		default:
			r.log.WarnContext(ctx, "failed to check order of cascade intent", "intent_id", intent.ID, "error", err)
			continue
		}

		if err := r.intents.Complete(ctx, intent.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			r.log.WarnContext(ctx, "failed to complete cascade intent", "intent_id", intent.ID, "error", err)
			continue
		}
		closed++
	}
	return closed
}
