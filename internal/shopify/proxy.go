package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// VerifyProxySignature checks the app-proxy signature Shopify appends to
// storefront-proxied requests. The signed message is every query parameter
// except "signature", sorted by key, rendered as key=value with multi-values
// comma-joined, concatenated with no separator. Returns false on any
// malformed input; authentication failure is a normal code path here, never
// a panic.
func VerifyProxySignature(query url.Values, secret string) bool {
	if query == nil || secret == "" {
		return false
	}

	signature := query.Get("signature")
	if signature == "" {
		return false
	}

	keys := make([]string, 0, len(query))
	for key := range query {
		if key == "signature" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var message strings.Builder
	for _, key := range keys {
		message.WriteString(key)
		message.WriteString("=")
		message.WriteString(strings.Join(query[key], ","))
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message.String()))
	expected := mac.Sum(nil)

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	return hmac.Equal(expected, provided)
}
