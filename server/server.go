package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/giftkitapp/giftkit/internal/config"
	"github.com/giftkitapp/giftkit/internal/handlers"
)

type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	handlers   *handlers.Handlers
	httpServer *http.Server
}

func New(cfg *config.Config, logger *slog.Logger, h *handlers.Handlers) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if h == nil {
		return nil, fmt.Errorf("handlers are required")
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		handlers: h,
	}

	router := s.buildRouter()
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return s, nil
}

func (s *Server) Run() error {
	s.logger.Info("server starting", "port", s.cfg.Port)

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Close(ctx context.Context) error {
	if s == nil || s.httpServer == nil {
		return nil
	}

	s.logger.Info("server shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) buildRouter() *mux.Router {
	h := s.handlers

	r := mux.NewRouter()
	r.Use(h.RequestLogger)
	r.Use(h.MetricsContext)
	r.Use(h.SecurityHeaders)
	r.HandleFunc("/", h.Root).Methods("GET").Name("root")
	r.HandleFunc("/health", h.Health).Methods("GET").Name("health")

	// Storefront proxy endpoint. The platform forwards GET, POST and
	// preflight OPTIONS here with a signed query string.
	r.HandleFunc("/api/giftcard", h.Giftcard).Methods("GET", "POST", "OPTIONS").Name("api.giftcard")

	r.HandleFunc("/webhooks/shopify", h.ShopifyWebhook).Methods("POST").Name("webhooks.shopify")
	r.HandleFunc("/checkout/validate", h.CheckoutValidate).Methods("POST").Name("checkout.validate")

	r.HandleFunc("/auth/shopify/install", h.AuthInstall).Methods("GET").Name("auth.shopify.install")
	r.HandleFunc("/auth/shopify/callback", h.AuthCallback).Methods("GET").Name("auth.shopify.callback")

	// Embedded admin API - session token protected inside the handler
	r.HandleFunc("/admin/api/settings", h.AdminSettings).Methods("GET", "PUT").Name("admin.api.settings")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	return r
}
