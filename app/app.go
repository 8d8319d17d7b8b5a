package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/giftkitapp/giftkit/internal/cache"
	"github.com/giftkitapp/giftkit/internal/config"
	"github.com/giftkitapp/giftkit/internal/crypto"
	"github.com/giftkitapp/giftkit/internal/db"
	"github.com/giftkitapp/giftkit/internal/handlers"
	"github.com/giftkitapp/giftkit/internal/services"
	"github.com/giftkitapp/giftkit/internal/shopify"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	DB            *pgxpool.Pool
	CacheProvider cache.Provider
	Handlers      *handlers.Handlers
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	database, err := db.Connect(startupCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	cacheProvider, err := cache.NewProvider(cache.Config{
		Provider:              cfg.CacheProvider,
		RedisConnectionString: cfg.RedisConnectionString,
	})
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize cache provider: %w", err)
	}

	encryptor, err := crypto.NewEncryptor(cfg.EncryptionKey)
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize encryptor: %w", err)
	}

	shopStore, err := db.NewShopStore(database, encryptor)
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize shop store: %w", err)
	}

	factory := shopify.NewFactory(cfg.ShopifyAPIVersion, logger.With("component", "shopify_client"))
	clientFor := services.ClientFor(func(shopDomain, accessToken string) services.CatalogClient {
		return factory.ForShop(shopDomain, accessToken)
	})

	provisionService := services.NewProvisionService(shopStore, clientFor, logger.With("component", "provision_service"))
	settingsService := services.NewSettingsService(clientFor, logger.With("component", "settings_service"))
	orderService := services.NewOrderService(shopStore, clientFor, logger.With("component", "order_service"))
	productService := services.NewProductService(shopStore, clientFor, logger.With("component", "product_service"))
	authService, err := services.NewAuthService(cfg, shopStore, cacheProvider, clientFor, logger.With("component", "auth_service"))
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}

	webhookRouter := handlers.NewWebhookRouter(orderService, productService, authService, logger.With("component", "webhook_router"))

	h, err := handlers.New(handlers.Dependencies{
		Config:           cfg,
		DB:               database,
		ShopStore:        shopStore,
		CacheProvider:    cacheProvider,
		ProvisionService: provisionService,
		SettingsService:  settingsService,
		AuthService:      authService,
		WebhookRouter:    webhookRouter,
		Logger:           logger,
	})
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	return &App{
		Config:        cfg,
		Logger:        logger,
		DB:            database,
		CacheProvider: cacheProvider,
		Handlers:      h,
	}, nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.CacheProvider != nil {
		closeCacheProvider(a.Logger, a.CacheProvider)
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	format := strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	switch format {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	case "text", "":
		return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
			Level: cfg.LogLevel,
		}))
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: cfg.LogLevel}))
}

func closeCacheProvider(logger *slog.Logger, provider cache.Provider) {
	if provider == nil {
		return
	}
	if err := provider.Close(); err != nil && logger != nil {
		logger.Warn("failed to close cache provider", "error", err)
	}
}
