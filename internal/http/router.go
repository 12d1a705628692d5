package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/fjod/go_cart/shop-service/internal/auth"
	"github.com/fjod/go_cart/shop-service/internal/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterConfig struct {
	Prefix         string
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	CORS           cors.Options
	Logger         *slog.Logger
}

type Handlers struct {
	Orders     *OrdersHandler
	OrderItems *OrderItemsHandler
	Catalog    *CatalogHandler
	Users      *UsersHandler
}

// NewRouter wires every route under cfg.Prefix. Catalog reads, registration
// and /health are public, everything else needs a bearer token. /health
// ignores the Authorization header.
func NewRouter(cfg RouterConfig, h Handlers, verifier TokenVerifier, roles auth.RoleTable) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logger.NewLoggerMiddleware(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cfg.CORS).Handler)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	if cfg.MaxBodyBytes > 0 {
		r.Use(middleware.RequestSize(cfg.MaxBodyBytes))
	}
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	need := func(perms ...auth.Permission) func(http.Handler) http.Handler {
		return RequirePermission(roles, perms...)
	}

	r.Route(cfg.Prefix, func(r chi.Router) {
		r.Use(Authenticate(verifier))

		r.Route("/orders", func(r chi.Router) {
			r.With(need(auth.ReadAllOrders)).Get("/", h.Orders.ListOrders)
			r.With(need(auth.ManageOwnOrders)).Post("/", h.Orders.CreateOrder)
			r.With(need(auth.ReadAllOrders)).Get("/get/count", h.Orders.CountOrders)
			r.With(need(auth.ReadAllOrders)).Get("/get/totalsales", h.Orders.TotalSales)
			r.With(need(auth.ReadAllOrders)).Get("/get/userorders/{userId}", h.Orders.ListUserOrders)
			r.With(need(auth.ReadOwnOrders)).Get("/{id}", h.Orders.GetOrder)
			r.With(need(auth.ManageOwnOrders)).Put("/{id}", h.Orders.UpdateOrder)
			r.With(need(auth.ManageOwnOrders)).Post("/{id}/status", h.Orders.UpdateStatus)
			r.With(need(auth.ManageOwnOrders)).Delete("/{id}", h.Orders.DeleteOrder)
		})

		r.Route("/order-items", func(r chi.Router) {
			r.Use(need(auth.ManageOwnOrderItems))
			r.Get("/", h.OrderItems.List)
			r.Get("/get/count", h.OrderItems.Count)
			r.Get("/{id}", h.OrderItems.Get)
			r.Post("/", h.OrderItems.Create)
			r.Put("/{id}", h.OrderItems.Update)
			r.Delete("/{id}", h.OrderItems.Delete)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Catalog.ListProducts)
			r.Get("/get/count", h.Catalog.CountProducts)
			r.Get("/get/featured/{count}", h.Catalog.FeaturedProducts)
			r.Get("/{id}", h.Catalog.GetProduct)
			r.Group(func(r chi.Router) {
				r.Use(need(auth.ManageCatalog))
				r.Post("/", h.Catalog.CreateProduct)
				r.Put("/{id}", h.Catalog.UpdateProduct)
				r.Delete("/{id}", h.Catalog.DeleteProduct)
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.Catalog.ListCategories)
			r.Get("/get/count", h.Catalog.CountCategories)
			r.Get("/{id}", h.Catalog.GetCategory)
			r.Group(func(r chi.Router) {
				r.Use(need(auth.ManageCatalog))
				r.Post("/", h.Catalog.CreateCategory)
				r.Put("/{id}", h.Catalog.UpdateCategory)
				r.Delete("/{id}", h.Catalog.DeleteCategory)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/register", h.Users.Register)
			r.With(need(auth.ReadAllUsers)).Get("/", h.Users.List)
			r.With(need(auth.ReadAllUsers)).Get("/get/count", h.Users.Count)
			r.With(need()).Get("/{id}", h.Users.Get)
			r.With(need(auth.ManageUsers)).Delete("/{id}", h.Users.Delete)
		})
	})

	return otelhttp.NewHandler(r, "shop-service",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

func NewServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
