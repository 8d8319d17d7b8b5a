package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/giftkitapp/giftkit/internal/config"
)

const proxySecret = "shpss_test_secret"

func signedProxyURL(query url.Values) string {
	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var message strings.Builder
	for _, key := range keys {
		message.WriteString(key)
		message.WriteString("=")
		message.WriteString(strings.Join(query[key], ","))
	}

	mac := hmac.New(sha256.New, []byte(proxySecret))
	mac.Write([]byte(message.String()))
	query.Set("signature", hex.EncodeToString(mac.Sum(nil)))

	return "/api/giftcard?" + query.Encode()
}

func giftcardHandlers(t *testing.T, domains ...string) *Handlers {
	t.Helper()
	return &Handlers{
		config:           &config.Config{ShopifyAPISecret: proxySecret},
		provisionService: mustProvisionService(t, &stubCatalog{}, domains...),
		logger:           testLogger(),
	}
}

func provisionBody(t *testing.T) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"amount":        250,
		"type":          "digital",
		"productTitle":  "Gift Card",
		"productHandle": "gift-card",
	})
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	return bytes.NewReader(body)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v: %s", err, rec.Body.String())
	}
	return body
}

func TestGiftcard_CreatesVariant(t *testing.T) {
	t.Parallel()

	h := giftcardHandlers(t, "demo.myshopify.com")

	target := signedProxyURL(url.Values{"shop": {"demo.myshopify.com"}})
	req := httptest.NewRequest(http.MethodPost, target, provisionBody(t))
	rec := httptest.NewRecorder()

	h.Giftcard(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["created"] != true {
		t.Fatalf("created = %v, want true", body["created"])
	}
	variant, ok := body["variant"].(map[string]any)
	if !ok || variant["id"] == "" || variant["price"] != "250.00" {
		t.Fatalf("unexpected variant payload: %v", body["variant"])
	}
	if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "https://demo.myshopify.com" {
		t.Fatalf("cors origin = %q", origin)
	}
}

func TestGiftcard_MissingShopParam(t *testing.T) {
	t.Parallel()

	h := giftcardHandlers(t)

	req := httptest.NewRequest(http.MethodPost, "/api/giftcard", provisionBody(t))
	rec := httptest.NewRecorder()

	h.Giftcard(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestGiftcard_OptionsPreflight(t *testing.T) {
	t.Parallel()

	h := giftcardHandlers(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/giftcard?shop=demo.myshopify.com", nil)
	rec := httptest.NewRecorder()

	h.Giftcard(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Fatal("preflight response missing CORS headers")
	}
}

func TestGiftcard_GetIsReadyProbe(t *testing.T) {
	t.Parallel()

	h := giftcardHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/giftcard?shop=demo.myshopify.com", nil)
	rec := httptest.NewRecorder()

	h.Giftcard(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body := decodeBody(t, rec); body["message"] != "API Proxy ready for POST" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestGiftcard_RejectsBadSignature(t *testing.T) {
	t.Parallel()

	h := giftcardHandlers(t, "demo.myshopify.com")

	req := httptest.NewRequest(http.MethodPost, "/api/giftcard?shop=demo.myshopify.com&signature=deadbeef", provisionBody(t))
	rec := httptest.NewRecorder()

	h.Giftcard(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestGiftcard_RejectsTamperedQuery(t *testing.T) {
	t.Parallel()

	h := giftcardHandlers(t, "demo.myshopify.com")

	target := signedProxyURL(url.Values{"shop": {"demo.myshopify.com"}})
	target = strings.Replace(target, "demo.myshopify.com", "evil.myshopify.com", 1)
	req := httptest.NewRequest(http.MethodPost, target, provisionBody(t))
	rec := httptest.NewRecorder()

	h.Giftcard(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestGiftcard_InvalidJSONBody(t *testing.T) {
	t.Parallel()

	h := giftcardHandlers(t, "demo.myshopify.com")

	target := signedProxyURL(url.Values{"shop": {"demo.myshopify.com"}})
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader("{"))
	rec := httptest.NewRecorder()

	h.Giftcard(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestGiftcard_ValidationErrorsAre400(t *testing.T) {
	t.Parallel()

	h := giftcardHandlers(t, "demo.myshopify.com")

	body, _ := json.Marshal(map[string]any{
		"amount":        -5,
		"type":          "digital",
		"productTitle":  "Gift Card",
		"productHandle": "gift-card",
	})
	target := signedProxyURL(url.Values{"shop": {"demo.myshopify.com"}})
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Giftcard(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusBadRequest, rec.Body.String())
	}
	if decoded := decodeBody(t, rec); decoded["success"] != false {
		t.Fatalf("expected success=false envelope, got %v", decoded)
	}
}

func TestGiftcard_UninstalledShopIs401(t *testing.T) {
	t.Parallel()

	h := giftcardHandlers(t) // no shops installed

	target := signedProxyURL(url.Values{"shop": {"ghost.myshopify.com"}})
	req := httptest.NewRequest(http.MethodPost, target, provisionBody(t))
	rec := httptest.NewRecorder()

	h.Giftcard(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if decoded := decodeBody(t, rec); decoded["error"] != "No access token found for this shop" {
		t.Fatalf("unexpected error message: %v", decoded["error"])
	}
}

func TestGiftcard_MissingSecretIs500(t *testing.T) {
	t.Parallel()

	h := &Handlers{
		config:           &config.Config{},
		provisionService: mustProvisionService(t, &stubCatalog{}),
		logger:           testLogger(),
	}

	req := httptest.NewRequest(http.MethodPost, "/api/giftcard?shop=demo.myshopify.com", provisionBody(t))
	rec := httptest.NewRecorder()

	h.Giftcard(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestGiftcard_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	h := giftcardHandlers(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/giftcard?shop=demo.myshopify.com", nil)
	rec := httptest.NewRecorder()

	h.Giftcard(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}
