package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/fjod/go_cart/shop-service/internal/repository"
)

type CatalogService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	prices     PriceInvalidator
}

func NewCatalogService(products repository.ProductRepository, categories repository.CategoryRepository, prices PriceInvalidator) *CatalogService {
	return &CatalogService{products: products, categories: categories, prices: prices}
}

func (s *CatalogService) CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	if err := s.checkCategory(ctx, p.CategoryID); err != nil {
		return nil, err
	}
	created, err := s.products.Create(ctx, p)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("product %q %w", p.Name, domain.ErrConflict)
		}
		return nil, err
	}
	return created, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.products.GetByID(ctx, id)
}

func (s *CatalogService) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	return s.products.List(ctx, filter)
}

func (s *CatalogService) FeaturedProducts(ctx context.Context, limit int64) ([]*domain.Product, error) {
	return s.products.List(ctx, domain.ProductFilter{FeaturedOnly: true, Limit: limit})
}

func (s *CatalogService) CountProducts(ctx context.Context) (int64, error) {
	return s.products.Count(ctx)
}

// UpdateProduct applies patch and drops the cached price so new orders see it.
// Existing orders keep the total they were placed with.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	if patch.CategoryID != nil {
		if err := s.checkCategory(ctx, *patch.CategoryID); err != nil {
			return nil, err
		}
	}
	updated, err := s.products.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.prices.Invalidate(ctx, id)
	return updated, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) (*domain.Product, error) {
	deleted, err := s.products.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.prices.Invalidate(ctx, id)
	return deleted, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	created, err := s.categories.Create(ctx, c)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("category %w", domain.ErrConflict)
		}
		return nil, err
	}
	return created, nil
}

func (s *CatalogService) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	return s.categories.GetByID(ctx, id)
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categories.List(ctx)
}

func (s *CatalogService) CountCategories(ctx context.Context) (int64, error) {
	return s.categories.Count(ctx)
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id string, patch domain.CategoryPatch) (*domain.Category, error) {
	updated, err := s.categories.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("category %w", domain.ErrConflict)
		}
		return nil, err
	}
	return updated, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id string) (*domain.Category, error) {
	return s.categories.Delete(ctx, id)
}

func (s *CatalogService) checkCategory(ctx context.Context, id string) error {
	if _, err := s.categories.GetByID(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewValidationError("invalid category")
		}
		return fmt.Errorf("check category: %w", err)
	}
	return nil
}
