package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/giftkitapp/giftkit/internal/services"
	"github.com/giftkitapp/giftkit/internal/shopify"
)

// Giftcard is the storefront app-proxy endpoint. The platform signs each
// proxied request with the app secret; everything past the signature gate
// runs the provisioning workflow.
func (h *Handlers) Giftcard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)

	query := r.URL.Query()
	storeDomain := strings.TrimSpace(query.Get("shop"))
	if storeDomain == "" {
		writeError(w, logger, storeDomain, http.StatusBadRequest, "Missing required parameters", nil)
		return
	}

	switch r.Method {
	case http.MethodOptions:
		writeJSON(w, logger, storeDomain, http.StatusOK, nil)
		return
	case http.MethodGet:
		writeJSON(w, logger, storeDomain, http.StatusOK, map[string]string{"message": "API Proxy ready for POST"})
		return
	case http.MethodPost:
	default:
		writeError(w, logger, storeDomain, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	secret := h.config.ShopifyAPISecret
	if secret == "" {
		writeError(w, logger, storeDomain, http.StatusInternalServerError, "Missing Shopify API secret", nil)
		return
	}

	if !shopify.VerifyProxySignature(query, secret) {
		logger.Warn("rejected proxy request with bad signature", "shop", storeDomain)
		writeError(w, logger, storeDomain, http.StatusForbidden, "Unauthorized request", nil)
		return
	}

	var req services.ProvisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, logger, storeDomain, http.StatusBadRequest, "Invalid gift card input", nil)
		return
	}

	result, err := h.provisionService.Provision(ctx, storeDomain, req)
	if err != nil {
		h.writeProvisionError(w, r, storeDomain, err)
		return
	}

	status := http.StatusOK
	message := "Existing gift card variant found"
	if result.Created {
		status = http.StatusCreated
		message = "Gift card variant created successfully"
	}
	writeJSON(w, logger, storeDomain, status, map[string]any{
		"variant": map[string]string{
			"id":    result.VariantID,
			"price": result.Price,
		},
		"created": result.Created,
		"message": message,
	})
}

// writeProvisionError maps workflow failure classes onto the endpoint's
// status contract.
func (h *Handlers) writeProvisionError(w http.ResponseWriter, r *http.Request, storeDomain string, err error) {
	logger := h.loggerFromContext(r.Context())

	var details any
	var stepErr *services.StepError
	if errors.As(err, &stepErr) && len(stepErr.Details) > 0 {
		details = stepErr.Details
	}

	switch {
	case errors.Is(err, services.ErrValidation):
		writeError(w, logger, storeDomain, http.StatusBadRequest, err.Error(), details)
	case errors.Is(err, services.ErrNoAccessToken):
		writeError(w, logger, storeDomain, http.StatusUnauthorized, "No access token found for this shop", nil)
	case errors.Is(err, services.ErrNotConfigured):
		writeError(w, logger, storeDomain, http.StatusInternalServerError, err.Error(), nil)
	case errors.Is(err, services.ErrUpstream):
		logger.Error("provisioning failed upstream", "error", err, "shop", storeDomain)
		writeError(w, logger, storeDomain, http.StatusInternalServerError, "Failed to provision gift card variant", details)
	default:
		logger.Error("unhandled provisioning error", "error", err, "shop", storeDomain)
		writeError(w, logger, storeDomain, http.StatusInternalServerError, "An unknown error occurred", nil)
	}
}
