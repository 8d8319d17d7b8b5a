package shopify

// Webhook delivery validation for platform-delivered events.

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
)

// WebhookDelivery is a verified webhook with its routing headers.
type WebhookDelivery struct {
	Topic      string
	ShopDomain string
	DeliveryID string
	Payload    []byte
}

// ValidateWebhookSignature checks the base64 HMAC-SHA256 digest Shopify
// computes over the raw request body.
func ValidateWebhookSignature(payload []byte, signature, secret string) error {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("signature verification failed")
	}

	return nil
}

// ReadWebhookDelivery reads and authenticates a webhook request.
func ReadWebhookDelivery(r *http.Request, secret string) (*WebhookDelivery, error) {
	signature := r.Header.Get("X-Shopify-Hmac-Sha256")
	if signature == "" {
		return nil, fmt.Errorf("missing signature header")
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	if err := ValidateWebhookSignature(payload, signature, secret); err != nil {
		return nil, fmt.Errorf("webhook signature validation failed: %w", err)
	}

	return &WebhookDelivery{
		Topic:      r.Header.Get("X-Shopify-Topic"),
		ShopDomain: r.Header.Get("X-Shopify-Shop-Domain"),
		DeliveryID: r.Header.Get("X-Shopify-Webhook-Id"),
		Payload:    payload,
	}, nil
}
