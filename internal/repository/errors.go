package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/shop-service/internal/domain"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrOrderNotFound    = fmt.Errorf("order %w", domain.ErrNotFound)
	ErrLineItemNotFound = fmt.Errorf("order item %w", domain.ErrNotFound)
	ErrProductNotFound  = fmt.Errorf("product %w", domain.ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("category %w", domain.ErrNotFound)
	ErrUserNotFound     = fmt.Errorf("user %w", domain.ErrNotFound)
	ErrIntentNotFound   = fmt.Errorf("cascade intent %w", domain.ErrNotFound)
)

// wrapErr classifies a driver error. Timeouts and network failures become
// ErrUnavailable, duplicate keys become ErrConflict.
func wrapErr(op string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded), mongo.IsTimeout(err), mongo.IsNetworkError(err):
		return fmt.Errorf("failed to %s: %w: %w", op, domain.ErrUnavailable, err)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("failed to %s: %w", op, domain.ErrConflict)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
