package handlers

import (
	"errors"
	"net/http"

	"github.com/giftkitapp/giftkit/internal/services"
)

// AuthInstall starts the OAuth flow for a shop and redirects it to the
// platform consent screen.
func (h *Handlers) AuthInstall(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerFromContext(r.Context())

	shopDomain := r.URL.Query().Get("shop")
	redirectURL, err := h.authService.BeginInstall(r.Context(), shopDomain)
	if err != nil {
		if errors.Is(err, services.ErrAuthInvalidShop) {
			http.Error(w, "Invalid shop domain", http.StatusBadRequest)
			return
		}
		logger.Error("failed to begin install", "shop", shopDomain, "error", err)
		http.Error(w, "Failed to start installation", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, redirectURL, http.StatusFound)
}

// AuthCallback completes the OAuth flow: it verifies the callback
// signature and state nonce, exchanges the grant code for an access
// token and persists the shop.
func (h *Handlers) AuthCallback(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerFromContext(r.Context())

	shop, err := h.authService.CompleteInstall(r.Context(), r.URL.Query())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAuthInvalidShop):
			http.Error(w, "Invalid shop domain", http.StatusBadRequest)
		case errors.Is(err, services.ErrAuthInvalidHMAC), errors.Is(err, services.ErrAuthInvalidState):
			http.Error(w, "Invalid authorization callback", http.StatusForbidden)
		case errors.Is(err, services.ErrAuthCodeExchange):
			logger.Error("oauth code exchange failed", "error", err)
			http.Error(w, "Authorization failed", http.StatusBadGateway)
		default:
			logger.Error("failed to complete install", "error", err)
			http.Error(w, "Installation failed", http.StatusInternalServerError)
		}
		return
	}

	logger.Info("shop installed", "shop", shop.Domain)
	http.Redirect(w, r, "https://"+shop.Domain+"/admin/apps", http.StatusFound)
}
