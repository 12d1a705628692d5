package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/fjod/go_cart/shop-service/internal/validation"
	"github.com/go-chi/chi/v5"
)

const maxFeatured = 100

type CatalogService interface {
	CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error)
	FeaturedProducts(ctx context.Context, limit int64) ([]*domain.Product, error)
	CountProducts(ctx context.Context) (int64, error)
	UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) (*domain.Product, error)

	CreateCategory(ctx context.Context, c *domain.Category) (*domain.Category, error)
	GetCategory(ctx context.Context, id string) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	CountCategories(ctx context.Context) (int64, error)
	UpdateCategory(ctx context.Context, id string, patch domain.CategoryPatch) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id string) (*domain.Category, error)
}

type CatalogHandler struct {
	catalog  CatalogService
	validate *validation.Validator
	timeout  time.Duration
}

func NewCatalogHandler(catalog CatalogService, validate *validation.Validator, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, validate: validate, timeout: timeout}
}

func convertProducts(list []*domain.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(list))
	for _, p := range list {
		out = append(out, convertProduct(p))
	}
	return out
}

// GET /products?categories=a,b
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var filter domain.ProductFilter
	if raw := r.URL.Query().Get("categories"); raw != "" {
		var msgs []string
		for _, id := range strings.Split(raw, ",") {
			id = strings.TrimSpace(id)
			if err := h.validate.ID("category", id); err != nil {
				msgs = append(msgs, err.Error())
				continue
			}
			filter.CategoryIDs = append(filter.CategoryIDs, id)
		}
		if len(msgs) > 0 {
			handleError(w, r, domain.NewValidationError(msgs...))
			return
		}
	}

	list, err := h.catalog.ListProducts(ctx, filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, convertProducts(list))
}

// GET /products/{id} resolves the category when it still exists.
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "id")
	if err := h.validate.ID("id", id); err != nil {
		handleError(w, r, err)
		return
	}

	p, err := h.catalog.GetProduct(ctx, id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	dto := convertProduct(p)
	if p.CategoryID != "" {
		c, err := h.catalog.GetCategory(ctx, p.CategoryID)
		switch {
		case err == nil:
			cd := convertCategory(c)
			dto.Category = &cd
		case !errors.Is(err, domain.ErrNotFound):
			handleError(w, r, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, dto)
}

// GET /products/get/featured/{count}
func (h *CatalogHandler) FeaturedProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	limit, err := strconv.ParseInt(chi.URLParam(r, "count"), 10, 64)
	if err != nil || limit < 1 || limit > maxFeatured {
		handleError(w, r, domain.NewValidationError("Count must be a number between 1 and "+strconv.Itoa(maxFeatured)))
		return
	}

	list, err := h.catalog.FeaturedProducts(ctx, limit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, convertProducts(list))
}

func (h *CatalogHandler) CountProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	n, err := h.catalog.CountProducts(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, CountResponse{Count: n})
}

func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ProductRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		handleError(w, r, err)
		return
	}

	p, err := h.catalog.CreateProduct(ctx, req.toDomain())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, convertProduct(p))
}

func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "id")
	if err := h.validate.ID("id", id); err != nil {
		handleError(w, r, err)
		return
	}

	var req UpdateProductRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		handleError(w, r, err)
		return
	}

	p, err := h.catalog.UpdateProduct(ctx, id, req.toDomain())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, convertProduct(p))
}

func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "id")
	if err := h.validate.ID("id", id); err != nil {
		handleError(w, r, err)
		return
	}

	if _, err := h.catalog.DeleteProduct(ctx, id); err != nil {
		handleError(w, r, err)
		return
	}
	respondDeleted(w, "Product")
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	list, err := h.catalog.ListCategories(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}
	out := make([]CategoryDTO, 0, len(list))
	for _, c := range list {
		out = append(out, convertCategory(c))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "id")
	if err := h.validate.ID("id", id); err != nil {
		handleError(w, r, err)
		return
	}

	c, err := h.catalog.GetCategory(ctx, id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, convertCategory(c))
}

func (h *CatalogHandler) CountCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	n, err := h.catalog.CountCategories(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, CountResponse{Count: n})
}

func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CategoryRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		handleError(w, r, err)
		return
	}

	c, err := h.catalog.CreateCategory(ctx, &domain.Category{Name: req.Name, Icon: req.Icon, Color: req.Color})
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, convertCategory(c))
}

func (h *CatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "id")
	if err := h.validate.ID("id", id); err != nil {
		handleError(w, r, err)
		return
	}

	var req UpdateCategoryRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		handleError(w, r, err)
		return
	}

	c, err := h.catalog.UpdateCategory(ctx, id, domain.CategoryPatch{Name: req.Name, Icon: req.Icon, Color: req.Color})
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, convertCategory(c))
}

func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "id")
	if err := h.validate.ID("id", id); err != nil {
		handleError(w, r, err)
		return
	}

	if _, err := h.catalog.DeleteCategory(ctx, id); err != nil {
		handleError(w, r, err)
		return
	}
	respondDeleted(w, "Category")
}
