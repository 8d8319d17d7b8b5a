package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// JSON envelopes for the storefront proxy endpoint. CORS is scoped to the
// requesting shop's domain when known.

func proxyHeaders(w http.ResponseWriter, storeDomain string) {
	origin := "*"
	if storeDomain != "" {
		origin = "https://" + storeDomain
	}
	headers := w.Header()
	headers.Set("Content-Type", "application/json")
	headers.Set("Access-Control-Allow-Origin", origin)
	headers.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	headers.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, storeDomain string, status int, payload any) {
	proxyHeaders(w, storeDomain)
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, storeDomain string, status int, message string, details any) {
	body := map[string]any{
		"success": false,
		"error":   message,
	}
	if details != nil {
		body["details"] = details
	}
	writeJSON(w, logger, storeDomain, status, body)
}
