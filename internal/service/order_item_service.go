package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/shop-service/internal/auth"
	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/fjod/go_cart/shop-service/internal/repository"
)

// LineItemService serves standalone line items. Deleting one does not touch
// orders that still reference it.
type LineItemService struct {
	items    repository.LineItemRepository
	products repository.ProductRepository
}

func NewLineItemService(items repository.LineItemRepository, products repository.ProductRepository) *LineItemService {
	return &LineItemService{items: items, products: products}
}

func (s *LineItemService) CreateLineItem(ctx context.Context, actor domain.Principal, ownerID, productID string, quantity int) (*domain.LineItem, error) {
	if ownerID == "" {
		ownerID = actor.UserID
	}
	if err := auth.Authorize(actor, ownerID); err != nil {
		return nil, err
	}
	if err := s.checkProduct(ctx, productID); err != nil {
		return nil, err
	}
	return s.items.Create(ctx, productID, quantity, ownerID)
}

// GetLineItem returns the item with its product resolved.
func (s *LineItemService) GetLineItem(ctx context.Context, id string, actor domain.Principal) (*domain.LineItemDetails, error) {
	item, err := s.owned(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	details, err := s.populate(ctx, []*domain.LineItem{item})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

func (s *LineItemService) UpdateLineItem(ctx context.Context, id string, patch domain.LineItemPatch, actor domain.Principal) (*domain.LineItem, error) {
	if _, err := s.owned(ctx, id, actor); err != nil {
		return nil, err
	}
	if patch.ProductID != nil {
		if err := s.checkProduct(ctx, *patch.ProductID); err != nil {
			return nil, err
		}
	}
	return s.items.Update(ctx, id, patch)
}

func (s *LineItemService) DeleteLineItem(ctx context.Context, id string, actor domain.Principal) (*domain.LineItem, error) {
	if _, err := s.owned(ctx, id, actor); err != nil {
		return nil, err
	}
	return s.items.Delete(ctx, id)
}

// ListLineItems returns every line item to admins and only their own to
// others, products resolved.
func (s *LineItemService) ListLineItems(ctx context.Context, actor domain.Principal) ([]domain.LineItemDetails, error) {
	var (
		items []*domain.LineItem
		err   error
	)
	if actor.IsAdmin() {
		items, err = s.items.List(ctx, domain.LineItemFilter{})
	} else {
		items, err = s.items.ListForOwner(ctx, actor.UserID)
	}
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, items)
}

func (s *LineItemService) CountLineItems(ctx context.Context, actor domain.Principal) (int64, error) {
	if actor.IsAdmin() {
		return s.items.Count(ctx, domain.LineItemFilter{})
	}
	return s.items.Count(ctx, domain.LineItemFilter{OwnerID: actor.UserID})
}

// owned looks the item up, then checks that actor may touch it.
func (s *LineItemService) owned(ctx context.Context, id string, actor domain.Principal) (*domain.LineItem, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, item.OwnerID); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *LineItemService) populate(ctx context.Context, items []*domain.LineItem) ([]domain.LineItemDetails, error) {
	products, err := productsByID(ctx, s.products, items)
	if err != nil {
		return nil, err
	}
	out := make([]domain.LineItemDetails, 0, len(items))
	for _, it := range items {
		out = append(out, lineItemDetails(it, products, nil))
	}
	return out, nil
}

func (s *LineItemService) checkProduct(ctx context.Context, productID string) error {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewValidationError("invalid product")
		}
		return fmt.Errorf("check product: %w", err)
	}
	return nil
}
