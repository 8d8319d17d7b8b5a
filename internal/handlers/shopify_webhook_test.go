package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/giftkitapp/giftkit/internal/cache"
	"github.com/giftkitapp/giftkit/internal/config"
	"github.com/giftkitapp/giftkit/internal/services"
)

const webhookSecret = "shpss_webhook_secret"

func signWebhook(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func webhookHandlers(t *testing.T, catalog *stubCatalog) *Handlers {
	t.Helper()

	provider, err := cache.NewMemoryProvider()
	if err != nil {
		t.Fatalf("failed to build cache: %v", err)
	}

	clientFor := catalogClientFor(catalog)
	shops := shopDirWith("demo.myshopify.com")
	router := NewWebhookRouter(
		services.NewOrderService(shops, clientFor, testLogger()),
		services.NewProductService(shops, clientFor, testLogger()),
		nil,
		testLogger(),
	)

	return &Handlers{
		config:        &config.Config{ShopifyAPISecret: webhookSecret},
		cacheProvider: provider,
		webhookRouter: router,
		logger:        testLogger(),
	}
}

func webhookRequest(payload []byte, topic, deliveryID string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/shopify", bytes.NewReader(payload))
	req.Header.Set("X-Shopify-Hmac-Sha256", signWebhook(payload))
	req.Header.Set("X-Shopify-Topic", topic)
	req.Header.Set("X-Shopify-Shop-Domain", "demo.myshopify.com")
	if deliveryID != "" {
		req.Header.Set("X-Shopify-Webhook-Id", deliveryID)
	}
	return req
}

func TestShopifyWebhook_ProcessesOrderPaid(t *testing.T) {
	t.Parallel()

	catalog := &stubCatalog{}
	h := webhookHandlers(t, catalog)

	payload := []byte(`{
		"admin_graphql_api_id": "gid://shopify/Order/1001",
		"name": "#1001",
		"line_items": [
			{"title": "Physical Gift Card", "price": "100.00", "quantity": 1,
			 "properties": [{"name": "_type", "value": "physical"}]}
		]
	}`)

	rec := httptest.NewRecorder()
	h.ShopifyWebhook(rec, webhookRequest(payload, "orders/paid", "delivery-1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if catalog.giftCards != 1 {
		t.Fatalf("issued %d gift cards, want 1", catalog.giftCards)
	}
}

func TestShopifyWebhook_DeduplicatesByDeliveryID(t *testing.T) {
	t.Parallel()

	catalog := &stubCatalog{}
	h := webhookHandlers(t, catalog)

	payload := []byte(`{
		"admin_graphql_api_id": "gid://shopify/Order/1001",
		"name": "#1001",
		"line_items": [
			{"title": "Physical Gift Card", "price": "100.00", "quantity": 1,
			 "properties": [{"name": "_type", "value": "physical"}]}
		]
	}`)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ShopifyWebhook(rec, webhookRequest(payload, "orders/paid", "delivery-dup"))
		if rec.Code != http.StatusOK {
			t.Fatalf("attempt %d status = %d, want %d", i, rec.Code, http.StatusOK)
		}
	}

	if catalog.giftCards != 1 {
		t.Fatalf("redelivery was processed twice: %d gift cards", catalog.giftCards)
	}
}

func TestShopifyWebhook_RejectsBadSignature(t *testing.T) {
	t.Parallel()

	h := webhookHandlers(t, &stubCatalog{})

	payload := []byte(`{}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/shopify", bytes.NewReader(payload))
	req.Header.Set("X-Shopify-Hmac-Sha256", "bm90LXRoZS1zaWduYXR1cmU=")
	req.Header.Set("X-Shopify-Topic", "orders/paid")
	req.Header.Set("X-Shopify-Shop-Domain", "demo.myshopify.com")
	rec := httptest.NewRecorder()

	h.ShopifyWebhook(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestShopifyWebhook_RequiresTopicAndShop(t *testing.T) {
	t.Parallel()

	h := webhookHandlers(t, &stubCatalog{})

	payload := []byte(`{}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/shopify", bytes.NewReader(payload))
	req.Header.Set("X-Shopify-Hmac-Sha256", signWebhook(payload))
	rec := httptest.NewRecorder()

	h.ShopifyWebhook(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestShopifyWebhook_UnhandledTopicStill200(t *testing.T) {
	t.Parallel()

	h := webhookHandlers(t, &stubCatalog{})

	rec := httptest.NewRecorder()
	h.ShopifyWebhook(rec, webhookRequest([]byte(`{}`), "customers/create", "delivery-2"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestShopifyWebhook_ProcessingFailureStill200(t *testing.T) {
	t.Parallel()

	h := webhookHandlers(t, &stubCatalog{})

	rec := httptest.NewRecorder()
	// Malformed order payload fails in the reactor, not at the sink.
	h.ShopifyWebhook(rec, webhookRequest([]byte(`{"line_items": "nope"}`), "orders/paid", "delivery-3"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestShopifyWebhook_HidesHamperProduct(t *testing.T) {
	t.Parallel()

	catalog := &stubCatalog{}
	h := webhookHandlers(t, catalog)

	payload := []byte(`{
		"admin_graphql_api_id": "gid://shopify/Product/55",
		"title": "Luxury Hamper",
		"product_type": "exp gift hamper"
	}`)

	rec := httptest.NewRecorder()
	h.ShopifyWebhook(rec, webhookRequest(payload, "products/update", "delivery-4"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(catalog.metafieldSets) != 1 || catalog.metafieldSets[0].Key != "hidden" {
		t.Fatalf("expected hidden metafield write, got %+v", catalog.metafieldSets)
	}
}
