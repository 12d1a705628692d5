package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/fjod/go_cart/shop-service/internal/validation"
	"github.com/go-chi/chi/v5"
)

type LineItemService interface {
	CreateLineItem(ctx context.Context, actor domain.Principal, ownerID, productID string, quantity int) (*domain.LineItem, error)
	GetLineItem(ctx context.Context, id string, actor domain.Principal) (*domain.LineItemDetails, error)
	UpdateLineItem(ctx context.Context, id string, patch domain.LineItemPatch, actor domain.Principal) (*domain.LineItem, error)
	DeleteLineItem(ctx context.Context, id string, actor domain.Principal) (*domain.LineItem, error)
	ListLineItems(ctx context.Context, actor domain.Principal) ([]domain.LineItemDetails, error)
	CountLineItems(ctx context.Context, actor domain.Principal) (int64, error)
}

type OrderItemsHandler struct {
	items    LineItemService
	validate *validation.Validator
	timeout  time.Duration
}

func NewOrderItemsHandler(items LineItemService, validate *validation.Validator, timeout time.Duration) *OrderItemsHandler {
	return &OrderItemsHandler{items: items, validate: validate, timeout: timeout}
}

func (h *OrderItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items, err := h.items.ListLineItems(ctx, actor(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	out := make([]LineItemDetailsDTO, 0, len(items))
	for _, it := range items {
		out = append(out, convertLineItemDetails(it))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *OrderItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "id")
	if err := h.validate.ID("id", id); err != nil {
		handleError(w, r, err)
		return
	}

	item, err := h.items.GetLineItem(ctx, id, actor(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, convertLineItemDetails(*item))
}

func (h *OrderItemsHandler) Count(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	n, err := h.items.CountLineItems(ctx, actor(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, CountResponse{Count: n})
}

func (h *OrderItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LineItemRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		handleError(w, r, err)
		return
	}

	item, err := h.items.CreateLineItem(ctx, actor(r), req.User, req.Product, req.quantity())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

func (h *OrderItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "id")
	if err := h.validate.ID("id", id); err != nil {
		handleError(w, r, err)
		return
	}

	var req UpdateLineItemRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		handleError(w, r, err)
		return
	}

	item, err := h.items.UpdateLineItem(ctx, id, domain.LineItemPatch{ProductID: req.Product, Quantity: req.Quantity}, actor(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (h *OrderItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "id")
	if err := h.validate.ID("id", id); err != nil {
		handleError(w, r, err)
		return
	}

	if _, err := h.items.DeleteLineItem(ctx, id, actor(r)); err != nil {
		handleError(w, r, err)
		return
	}
	respondDeleted(w, "Order item")
}
