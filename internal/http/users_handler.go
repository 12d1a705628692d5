package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/fjod/go_cart/shop-service/internal/service"
	"github.com/fjod/go_cart/shop-service/internal/validation"
	"github.com/go-chi/chi/v5"
)

type UserService interface {
	Register(ctx context.Context, in service.RegisterUser) (*domain.User, error)
	GetUser(ctx context.Context, id string, actor domain.Principal) (*domain.User, error)
	ListUsers(ctx context.Context, actor domain.Principal) ([]*domain.User, error)
	CountUsers(ctx context.Context, actor domain.Principal) (int64, error)
	DeleteUser(ctx context.Context, id string, actor domain.Principal) (*domain.User, error)
}

type UsersHandler struct {
	users    UserService
	validate *validation.Validator
	timeout  time.Duration
}

func NewUsersHandler(users UserService, validate *validation.Validator, timeout time.Duration) *UsersHandler {
	return &UsersHandler{users: users, validate: validate, timeout: timeout}
}

// POST /users/register
func (h *UsersHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req RegisterRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		handleError(w, r, err)
		return
	}

	user, err := h.users.Register(ctx, service.RegisterUser(req))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	users, err := h.users.ListUsers(ctx, actor(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	if users == nil {
		users = []*domain.User{}
	}
	respondJSON(w, http.StatusOK, users)
}

func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "id")
	if err := h.validate.ID("id", id); err != nil {
		handleError(w, r, err)
		return
	}

	user, err := h.users.GetUser(ctx, id, actor(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *UsersHandler) Count(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	n, err := h.users.CountUsers(ctx, actor(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, CountResponse{Count: n})
}

func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "id")
	if err := h.validate.ID("id", id); err != nil {
		handleError(w, r, err)
		return
	}

	if _, err := h.users.DeleteUser(ctx, id, actor(r)); err != nil {
		handleError(w, r, err)
		return
	}
	respondDeleted(w, "User")
}
