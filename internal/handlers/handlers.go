package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/giftkitapp/giftkit/internal/cache"
	"github.com/giftkitapp/giftkit/internal/config"
	"github.com/giftkitapp/giftkit/internal/db"
	"github.com/giftkitapp/giftkit/internal/logging"
	"github.com/giftkitapp/giftkit/internal/services"
)

const maxWebhookBodyBytes = 1 << 20 // 1 MB

// Handlers provides the HTTP surface: the storefront proxy endpoint, the
// webhook sink, checkout validation, OAuth, and the admin settings API.
type Handlers struct {
	config           *config.Config
	db               *pgxpool.Pool
	shopStore        *db.ShopStore
	cacheProvider    cache.Provider
	provisionService *services.ProvisionService
	settingsService  *services.SettingsService
	authService      *services.AuthService
	webhookRouter    *WebhookRouter
	logger           *slog.Logger
}

type Dependencies struct {
	Config           *config.Config
	DB               *pgxpool.Pool
	ShopStore        *db.ShopStore
	CacheProvider    cache.Provider
	ProvisionService *services.ProvisionService
	SettingsService  *services.SettingsService
	AuthService      *services.AuthService
	WebhookRouter    *WebhookRouter
	Logger           *slog.Logger
}

func New(deps Dependencies) (*Handlers, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if deps.Config == nil {
		return nil, fmt.Errorf("handlers dependencies: config is required")
	}
	if deps.DB == nil {
		return nil, fmt.Errorf("handlers dependencies: db is required")
	}
	if deps.ShopStore == nil {
		return nil, fmt.Errorf("handlers dependencies: shopStore is required")
	}
	if deps.CacheProvider == nil {
		return nil, fmt.Errorf("handlers dependencies: cacheProvider is required")
	}
	if deps.ProvisionService == nil {
		return nil, fmt.Errorf("handlers dependencies: provisionService is required")
	}
	if deps.SettingsService == nil {
		return nil, fmt.Errorf("handlers dependencies: settingsService is required")
	}
	if deps.AuthService == nil {
		return nil, fmt.Errorf("handlers dependencies: authService is required")
	}
	if deps.WebhookRouter == nil {
		return nil, fmt.Errorf("handlers dependencies: webhookRouter is required")
	}

	return &Handlers{
		config:           deps.Config,
		db:               deps.DB,
		shopStore:        deps.ShopStore,
		cacheProvider:    deps.CacheProvider,
		provisionService: deps.ProvisionService,
		settingsService:  deps.SettingsService,
		authService:      deps.AuthService,
		webhookRouter:    deps.WebhookRouter,
		logger:           logger.With("component", "handlers"),
	}, nil
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)

	if err := h.db.Ping(ctx); err != nil {
		logger.Error("database health check failed", "error", err)
		http.Error(w, "Database unhealthy", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	}); err != nil {
		logger.Error("failed to encode health response", "error", err)
	}
}

func (h *Handlers) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"app":    "giftkit",
		"status": "ok",
	})
}

func (h *Handlers) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, h.logger)
}
