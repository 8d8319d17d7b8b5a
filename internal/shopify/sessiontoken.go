package shopify

// App Bridge session-token verification for embedded admin requests.

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidSessionToken = errors.New("invalid session token")
	ErrTokenAudience       = errors.New("session token audience mismatch")
	ErrTokenDestination    = errors.New("session token destination missing")
)

// SessionClaims are the claims carried by an App Bridge session token.
type SessionClaims struct {
	Dest string `json:"dest"`
	jwt.RegisteredClaims
}

// VerifySessionToken validates an HS256 session token signed with the app's
// API secret and returns the shop domain it was issued for.
func VerifySessionToken(token, apiKey, apiSecret string) (string, error) {
	if token == "" {
		return "", ErrInvalidSessionToken
	}

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(apiSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSessionToken, err)
	}
	if !parsed.Valid {
		return "", ErrInvalidSessionToken
	}

	audience, err := claims.GetAudience()
	if err != nil || !containsAudience(audience, apiKey) {
		return "", ErrTokenAudience
	}

	shopDomain, err := shopDomainFromDest(claims.Dest)
	if err != nil {
		return "", err
	}

	return shopDomain, nil
}

func containsAudience(audience jwt.ClaimStrings, apiKey string) bool {
	for _, aud := range audience {
		if aud == apiKey {
			return true
		}
	}
	return false
}

func shopDomainFromDest(dest string) (string, error) {
	dest = strings.TrimSpace(dest)
	if dest == "" {
		return "", ErrTokenDestination
	}

	parsed, err := url.Parse(dest)
	if err != nil || parsed.Hostname() == "" {
		return "", ErrTokenDestination
	}

	host := strings.ToLower(parsed.Hostname())
	if !strings.HasSuffix(host, ".myshopify.com") {
		return "", ErrTokenDestination
	}

	return host, nil
}
