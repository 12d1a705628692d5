package auth

import (
	"fmt"

	"github.com/fjod/go_cart/shop-service/internal/domain"
)

// Authorize allows admins everything and other users only resources they own.
// Callers look the resource up first so a missing resource reports NotFound
// before ownership is considered.
func Authorize(actor domain.Principal, ownerID string) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.UserID == "" || actor.UserID != ownerID {
		return fmt.Errorf("%w: resource belongs to another user", domain.ErrForbidden)
	}
	return nil
}

func RequireAdmin(actor domain.Principal) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: admin role required", domain.ErrForbidden)
	}
	return nil
}
