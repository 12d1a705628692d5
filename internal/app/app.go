package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fjod/go_cart/shop-service/internal/auth"
	"github.com/fjod/go_cart/shop-service/internal/cache"
	"github.com/fjod/go_cart/shop-service/internal/config"
	"github.com/fjod/go_cart/shop-service/internal/events"
	shophttp "github.com/fjod/go_cart/shop-service/internal/http"
	"github.com/fjod/go_cart/shop-service/internal/logger"
	"github.com/fjod/go_cart/shop-service/internal/repository"
	"github.com/fjod/go_cart/shop-service/internal/service"
	"github.com/fjod/go_cart/shop-service/internal/validation"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

type App struct {
	cfg       *config.Config
	log       *slog.Logger
	mongo     *mongo.Database
	redis     *redis.Client
	publisher events.Publisher
	recoverer *service.CascadeRecoverer
	server    *http.Server
}

// New connects to every backing store and wires the services.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	db, err := repository.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		return nil, err
	}
	if err := repository.CreateIndexes(ctx, db); err != nil {
		return nil, fmt.Errorf("create indexes: %w", err)
	}
	log.Info("connected to MongoDB", "database", cfg.Mongo.Database)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		// the price cache is optional, lookups fall through to MongoDB
		log.Warn("redis ping failed", "addr", cfg.Redis.Addr, "error", err)
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Topic, cfg.Kafka.Brokers...)
		log.Info("publishing order events", "topic", cfg.Kafka.Topic, "brokers", cfg.Kafka.Brokers)
	}

	repos := repository.NewMongoSet(db, cfg.Mongo.OperationTimeout)
	prices := service.NewPriceLookup(
		repos.Products,
		cache.NewRedisPriceCache(redisClient, cfg.Redis.PriceTTL),
		service.BreakerSettings{
			ConsecutiveFailures: cfg.Breaker.ConsecutiveFailures,
			OpenTimeout:         cfg.Breaker.OpenTimeout,
		},
		log,
	)

	orders := service.NewOrderService(repos, prices,
		service.WithPublisher(publisher),
		service.WithLogger(log),
	)
	validate := validation.New()
	timeout := cfg.Server.HTTP.RequestTimeout

	router := shophttp.NewRouter(shophttp.RouterConfig{
		Prefix:         cfg.API.Prefix,
		RequestTimeout: timeout,
		MaxBodyBytes:   cfg.Server.HTTP.MaxBodyBytes,
		CORS: cors.Options{
			AllowedOrigins:   cfg.Server.HTTP.CORS.AllowedOrigins,
			AllowedMethods:   cfg.Server.HTTP.CORS.AllowedMethods,
			AllowedHeaders:   cfg.Server.HTTP.CORS.AllowedHeaders,
			ExposedHeaders:   cfg.Server.HTTP.CORS.ExposedHeaders,
			AllowCredentials: cfg.Server.HTTP.CORS.AllowCredentials,
			MaxAge:           cfg.Server.HTTP.CORS.MaxAge,
		},
		Logger: log,
	}, shophttp.Handlers{
		Orders:     shophttp.NewOrdersHandler(orders, validate, timeout),
		OrderItems: shophttp.NewOrderItemsHandler(service.NewLineItemService(repos.LineItems, repos.Products), validate, timeout),
		Catalog:    shophttp.NewCatalogHandler(service.NewCatalogService(repos.Products, repos.Categories, prices), validate, timeout),
		Users:      shophttp.NewUsersHandler(service.NewUserService(repos.Users, cfg.Auth.BcryptCost), validate, timeout),
	}, auth.NewVerifier(cfg.Auth.JWTSecret), auth.DefaultRoleTable())

	return &App{
		cfg:       cfg,
		log:       log,
		mongo:     db,
		redis:     redisClient,
		publisher: publisher,
		recoverer: service.NewCascadeRecoverer(repos, cfg.Cascade.RecoveryInterval, cfg.Cascade.StaleAfter, log),
		server:    shophttp.NewServer(cfg.Server.HTTP.Port, router),
	}, nil
}

// Run serves HTTP and runs the cascade recoverer until SIGINT or SIGTERM,
// then shuts everything down.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recovererDone := make(chan struct{})
	go func() {
		defer close(recovererDone)
		a.recoverer.Run(ctx)
	}()

	serverErr := make(chan error, 1)
	go func() {
		a.log.Info("shop service listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case err := <-serverErr:
		runErr = fmt.Errorf("http server: %w", err)
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.HTTP.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.log.Error("http server shutdown failed", "error", err)
	}
	<-recovererDone

	if err := a.publisher.Close(); err != nil {
		a.log.Error("event publisher close failed", "error", err)
	}
	if err := a.redis.Close(); err != nil {
		a.log.Error("redis close failed", "error", err)
	}
	if err := a.mongo.Client().Disconnect(shutdownCtx); err != nil {
		a.log.Error("mongodb disconnect failed", "error", err)
	}

	a.log.Info("shop service stopped")
	return runErr
}
