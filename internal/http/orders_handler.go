package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/fjod/go_cart/shop-service/internal/validation"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type OrderService interface {
	CreateOrder(ctx context.Context, actor domain.Principal, in domain.PlaceOrder) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID string, actor domain.Principal) (*domain.OrderDetails, error)
	UpdateOrder(ctx context.Context, orderID string, patch domain.OrderPatch, actor domain.Principal) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus, actor domain.Principal) (*domain.Order, error)
	DeleteOrder(ctx context.Context, orderID string, actor domain.Principal) (*domain.Order, error)
	ListOrders(ctx context.Context, actor domain.Principal) ([]*domain.OrderDetails, error)
	ListUserOrders(ctx context.Context, userID string, actor domain.Principal) ([]*domain.OrderDetails, error)
	CountOrders(ctx context.Context, actor domain.Principal) (int64, error)
	TotalSales(ctx context.Context, actor domain.Principal) (decimal.Decimal, error)
}

type OrdersHandler struct {
	orders   OrderService
	validate *validation.Validator
	timeout  time.Duration
}

func NewOrdersHandler(orders OrderService, validate *validation.Validator, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{orders: orders, validate: validate, timeout: timeout}
}

// POST /orders
func (h *OrdersHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreateOrderRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		handleError(w, r, err)
		return
	}

	order, err := h.orders.CreateOrder(ctx, actor(r), req.toDomain())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, convertOrder(order))
}

// GET /orders/{id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID := chi.URLParam(r, "id")
	if err := h.validate.ID("id", orderID); err != nil {
		handleError(w, r, err)
		return
	}

	details, err := h.orders.GetOrder(ctx, orderID, actor(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, convertOrderDetails(details))
}

// PUT /orders/{id}
func (h *OrdersHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID := chi.URLParam(r, "id")
	if err := h.validate.ID("id", orderID); err != nil {
		handleError(w, r, err)
		return
	}

	var req UpdateOrderRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		handleError(w, r, err)
		return
	}

	order, err := h.orders.UpdateOrder(ctx, orderID, req.toDomain(), actor(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, convertOrder(order))
}

// POST /orders/{id}/status
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID := chi.URLParam(r, "id")
	if err := h.validate.ID("id", orderID); err != nil {
		handleError(w, r, err)
		return
	}

	var req UpdateStatusRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		handleError(w, r, err)
		return
	}

	order, err := h.orders.UpdateOrderStatus(ctx, orderID, domain.OrderStatus(req.Status), actor(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, convertOrder(order))
}

// DELETE /orders/{id}
func (h *OrdersHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID := chi.URLParam(r, "id")
	if err := h.validate.ID("id", orderID); err != nil {
		handleError(w, r, err)
		return
	}

	if _, err := h.orders.DeleteOrder(ctx, orderID, actor(r)); err != nil {
		handleError(w, r, err)
		return
	}
	respondDeleted(w, "Order")
}

// GET /orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	list, err := h.orders.ListOrders(ctx, actor(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, convertOrderDetailsList(list))
}

// GET /orders/get/userorders/{userId}
func (h *OrdersHandler) ListUserOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := chi.URLParam(r, "userId")
	if err := h.validate.ID("userId", userID); err != nil {
		handleError(w, r, err)
		return
	}

	list, err := h.orders.ListUserOrders(ctx, userID, actor(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, convertOrderDetailsList(list))
}

// GET /orders/get/count
func (h *OrdersHandler) CountOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	n, err := h.orders.CountOrders(ctx, actor(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, CountResponse{Count: n})
}

// GET /orders/get/totalsales
func (h *OrdersHandler) TotalSales(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	total, err := h.orders.TotalSales(ctx, actor(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, TotalSalesResponse{TotalSales: money(total)})
}
