package handlers

import (
	"net/http"
	"time"

	"github.com/giftkitapp/giftkit/internal/cache"
	"github.com/giftkitapp/giftkit/internal/shopify"
)

// webhookIdempotencyTTL is how long webhook delivery IDs are kept for
// deduplication.
const webhookIdempotencyTTL = 24 * time.Hour

// ShopifyWebhook authenticates and routes platform webhook deliveries.
// Handled processing failures still answer 200: deliveries are at-least-once
// and a permanently failing payload must not trigger a redelivery storm.
func (h *Handlers) ShopifyWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)

	delivery, err := shopify.ReadWebhookDelivery(r, h.config.ShopifyAPISecret)
	if err != nil {
		logger.Error("failed to read webhook delivery", "error", err)
		http.Error(w, "Invalid webhook", http.StatusUnauthorized)
		return
	}

	if delivery.Topic == "" || delivery.ShopDomain == "" {
		logger.Error("webhook delivery missing topic or shop domain")
		http.Error(w, "Missing webhook headers", http.StatusBadRequest)
		return
	}

	if delivery.DeliveryID != "" {
		cacheKey := cache.WebhookKey("shopify", delivery.DeliveryID)
		if _, err := h.cacheProvider.Get(ctx, cacheKey); err == nil {
			logger.Info("webhook already processed", "delivery_id", delivery.DeliveryID, "topic", delivery.Topic)
			w.WriteHeader(http.StatusOK)
			return
		}

		defer func() {
			if err := h.cacheProvider.Set(ctx, cacheKey, "processed", webhookIdempotencyTTL); err != nil {
				logger.Error("failed to mark webhook as processed in cache", "error", err)
			}
		}()
	}

	if processErr := h.webhookRouter.Handle(ctx, delivery); processErr != nil {
		// Terminal per delivery attempt; reactors are idempotent if the
		// platform redelivers anyway.
		logger.Error("webhook processing failed", "error", processErr, "topic", delivery.Topic, "shop", delivery.ShopDomain)
	}

	w.WriteHeader(http.StatusOK)
}
