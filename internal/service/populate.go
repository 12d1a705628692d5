package service

import (
	"context"

	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/fjod/go_cart/shop-service/internal/repository"
)

// productsByID loads the products referenced by items in one query.
func productsByID(ctx context.Context, products repository.ProductRepository, items []*domain.LineItem) (map[string]*domain.Product, error) {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	list, err := products.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*domain.Product, len(list))
	for _, p := range list {
		out[p.ID] = p
	}
	return out, nil
}

// lineItemDetails resolves the product of it. A nil categories map leaves
// the category unresolved.
func lineItemDetails(it *domain.LineItem, products map[string]*domain.Product, categories map[string]*domain.Category) domain.LineItemDetails {
	d := domain.LineItemDetails{
		ID:        it.ID,
		Quantity:  it.Quantity,
		OwnerID:   it.OwnerID,
		ProductID: it.ProductID,
	}
	if p, ok := products[it.ProductID]; ok {
		d.Product = &domain.ProductDetails{Product: p, Category: categories[p.CategoryID]}
	}
	return d
}
