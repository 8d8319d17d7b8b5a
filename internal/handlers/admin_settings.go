package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/giftkitapp/giftkit/internal/db"
	"github.com/giftkitapp/giftkit/internal/services"
	"github.com/giftkitapp/giftkit/internal/shopify"
)

// AdminSettings serves the embedded admin configuration surface. Every
// request carries an App Bridge session token in the Authorization
// header; the verified token destination identifies the shop.
func (h *Handlers) AdminSettings(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerFromContext(r.Context())

	shop, ok := h.authorizeAdmin(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		settings, err := h.settingsService.Get(r.Context(), shop.Domain, shop.AccessToken)
		if err != nil {
			logger.Error("failed to load shop settings", "shop", shop.Domain, "error", err)
			writeError(w, logger, shop.Domain, http.StatusInternalServerError, "Failed to load settings", nil)
			return
		}
		writeJSON(w, logger, shop.Domain, http.StatusOK, settings)
	case http.MethodPut:
		var settings services.ShopSettings
		if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
			writeError(w, logger, shop.Domain, http.StatusBadRequest, "Invalid settings payload", nil)
			return
		}
		if settings.MinPrice < 0 || settings.MaxPrice < settings.MinPrice {
			writeError(w, logger, shop.Domain, http.StatusBadRequest, "Invalid price range", nil)
			return
		}
		if err := h.settingsService.Update(r.Context(), shop.Domain, shop.AccessToken, settings); err != nil {
			logger.Error("failed to update shop settings", "shop", shop.Domain, "error", err)
			writeError(w, logger, shop.Domain, http.StatusInternalServerError, "Failed to update settings", nil)
			return
		}
		writeJSON(w, logger, shop.Domain, http.StatusOK, settings)
	default:
		w.Header().Set("Allow", "GET, PUT")
		writeError(w, logger, shop.Domain, http.StatusMethodNotAllowed, "Method not allowed", nil)
	}
}

// authorizeAdmin verifies the session token on an embedded admin request
// and resolves the installed shop it belongs to. It writes the error
// response itself when the request is not authorized.
func (h *Handlers) authorizeAdmin(w http.ResponseWriter, r *http.Request) (*db.Shop, bool) {
	logger := h.loggerFromContext(r.Context())

	token, ok := bearerToken(r)
	if !ok {
		writeError(w, logger, "", http.StatusUnauthorized, "Missing session token", nil)
		return nil, false
	}

	shopDomain, err := shopify.VerifySessionToken(token, h.config.ShopifyAPIKey, h.config.ShopifyAPISecret)
	if err != nil {
		writeError(w, logger, "", http.StatusUnauthorized, "Invalid session token", nil)
		return nil, false
	}

	shop, err := h.shopStore.GetByDomain(r.Context(), shopDomain)
	if err != nil {
		if errors.Is(err, db.ErrShopNotFound) {
			writeError(w, logger, "", http.StatusUnauthorized, "Shop is not installed", nil)
			return nil, false
		}
		logger.Error("failed to load shop", "shop", shopDomain, "error", err)
		writeError(w, logger, "", http.StatusInternalServerError, "Failed to load shop", nil)
		return nil, false
	}
	return shop, true
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token, token != ""
}
