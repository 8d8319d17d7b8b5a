package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/giftkitapp/giftkit/internal/checkout"
)

type checkoutValidateRequest struct {
	Lines []checkout.CartLine `json:"lines"`
}

type checkoutValidateResponse struct {
	Errors []checkout.Violation `json:"errors"`
}

// CheckoutValidate runs the cart quantity-parity rule on a cart snapshot.
// The platform calls this synchronously during cart and checkout
// evaluation, so the body is pure rule evaluation, nothing else.
func (h *Handlers) CheckoutValidate(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerFromContext(r.Context())

	var req checkoutValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid cart payload", http.StatusBadRequest)
		return
	}

	violations := checkout.Evaluate(req.Lines)
	if violations == nil {
		violations = []checkout.Violation{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(checkoutValidateResponse{Errors: violations}); err != nil {
		logger.Error("failed to encode checkout validation response", "error", err)
	}
}
