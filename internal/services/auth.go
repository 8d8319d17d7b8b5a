package services

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/giftkitapp/giftkit/internal/cache"
	"github.com/giftkitapp/giftkit/internal/config"
	"github.com/giftkitapp/giftkit/internal/db"
	"github.com/giftkitapp/giftkit/internal/logging"
)

var (
	ErrAuthInvalidShop  = errors.New("invalid shop domain")
	ErrAuthInvalidHMAC  = errors.New("oauth hmac verification failed")
	ErrAuthInvalidState = errors.New("invalid or expired oauth state")
	ErrAuthCodeExchange = errors.New("failed to exchange oauth code")
)

var shopDomainPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*\.myshopify\.com$`)

const oauthStateTTL = 10 * time.Minute

// Webhook topics this app subscribes every shop to after installation.
var webhookTopics = []string{
	"ORDERS_PAID",
	"PRODUCTS_CREATE",
	"PRODUCTS_UPDATE",
	"APP_UNINSTALLED",
}

// AuthService runs the OAuth install flow and shop lifecycle. Offline access
// tokens end up encrypted in the shop store; webhook subscriptions are
// registered best-effort right after installation.
type AuthService struct {
	cfg       *config.Config
	shops     *db.ShopStore
	states    cache.Provider
	clientFor ClientFor
	logger    *slog.Logger
}

func NewAuthService(cfg *config.Config, shops *db.ShopStore, states cache.Provider, clientFor ClientFor, logger *slog.Logger) (*AuthService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("auth service config is required")
	}
	if shops == nil {
		return nil, fmt.Errorf("auth service shop store is required")
	}
	if states == nil {
		return nil, fmt.Errorf("auth service state store is required")
	}

	return &AuthService{
		cfg:       cfg,
		shops:     shops,
		states:    states,
		clientFor: clientFor,
		logger:    logger,
	}, nil
}

// BeginInstall validates the shop domain, stores a state nonce, and returns
// the authorization URL to redirect the merchant to.
func (s *AuthService) BeginInstall(ctx context.Context, shopDomain string) (string, error) {
	shopDomain = strings.ToLower(strings.TrimSpace(shopDomain))
	if !shopDomainPattern.MatchString(shopDomain) {
		return "", fmt.Errorf("%w: %s", ErrAuthInvalidShop, shopDomain)
	}

	state, err := randomState(24)
	if err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	if err := s.states.Set(ctx, cache.OAuthStateKey(state), shopDomain, oauthStateTTL); err != nil {
		return "", fmt.Errorf("failed to store oauth state: %w", err)
	}

	return s.oauthConfig(shopDomain).AuthCodeURL(state), nil
}

// CompleteInstall verifies the callback (HMAC + state), exchanges the code
// for an offline access token, persists the shop, and registers webhook
// subscriptions.
func (s *AuthService) CompleteInstall(ctx context.Context, query url.Values) (*db.Shop, error) {
	logger := logging.FromContext(ctx, s.logger)

	shopDomain := strings.ToLower(strings.TrimSpace(query.Get("shop")))
	code := query.Get("code")
	state := query.Get("state")
	if !shopDomainPattern.MatchString(shopDomain) || code == "" || state == "" {
		return nil, fmt.Errorf("%w: missing required oauth params", ErrAuthInvalidShop)
	}

	if !VerifyOAuthHMAC(query, s.cfg.ShopifyAPISecret) {
		return nil, ErrAuthInvalidHMAC
	}

	stateKey := cache.OAuthStateKey(state)
	storedShop, err := s.states.Get(ctx, stateKey)
	if err != nil || storedShop != shopDomain {
		return nil, ErrAuthInvalidState
	}

	token, err := s.oauthConfig(shopDomain).Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthCodeExchange, err)
	}

	scope, _ := token.Extra("scope").(string)
	shop, err := s.shops.Upsert(ctx, shopDomain, token.AccessToken, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to persist shop: %w", err)
	}

	// One-shot nonce.
	if err := s.states.Delete(ctx, stateKey); err != nil {
		logger.Warn("failed to delete oauth state", "error", err)
	}

	s.registerWebhooks(ctx, shop)

	logger.Info("shop installed", "shop", shopDomain, "scope", scope)
	return shop, nil
}

// HandleAppUninstalled drops the shop row and its token.
func (s *AuthService) HandleAppUninstalled(ctx context.Context, shopDomain string) error {
	if err := s.shops.DeleteByDomain(ctx, shopDomain); err != nil {
		return err
	}
	logging.FromContext(ctx, s.logger).Info("shop uninstalled", "shop", shopDomain)
	return nil
}

// registerWebhooks is best-effort: a failed subscription is logged, not
// fatal to the install.
func (s *AuthService) registerWebhooks(ctx context.Context, shop *db.Shop) {
	if s.clientFor == nil || strings.TrimSpace(s.cfg.BaseURL) == "" {
		return
	}
	logger := logging.FromContext(ctx, s.logger)

	client := s.clientFor(shop.Domain, shop.AccessToken)
	callbackURL := strings.TrimRight(s.cfg.BaseURL, "/") + "/webhooks/shopify"
	for _, topic := range webhookTopics {
		userErrors, err := client.CreateWebhookSubscription(ctx, topic, callbackURL)
		if err != nil {
			logger.Warn("failed to register webhook subscription", "topic", topic, "error", err)
			continue
		}
		if len(userErrors) > 0 {
			logger.Warn("webhook subscription reported user errors", "topic", topic, "errors", userErrors)
		}
	}
}

func (s *AuthService) oauthConfig(shopDomain string) *oauth2.Config {
	redirectURL := ""
	if base := strings.TrimSpace(s.cfg.BaseURL); base != "" {
		redirectURL = strings.TrimRight(base, "/") + "/auth/shopify/callback"
	}

	return &oauth2.Config{
		ClientID:     s.cfg.ShopifyAPIKey,
		ClientSecret: s.cfg.ShopifyAPISecret,
		Scopes:       strings.Split(s.cfg.ShopifyScopes, ","),
		RedirectURL:  redirectURL,
		Endpoint: oauth2.Endpoint{
			AuthURL:   fmt.Sprintf("https://%s/admin/oauth/authorize", shopDomain),
			TokenURL:  fmt.Sprintf("https://%s/admin/oauth/access_token", shopDomain),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// VerifyOAuthHMAC checks the hex HMAC on OAuth redirect params: every param
// except hmac/signature, sorted, joined key=value with "&". This differs
// from the app-proxy signature, which concatenates without a separator.
func VerifyOAuthHMAC(query url.Values, secret string) bool {
	provided := query.Get("hmac")
	if provided == "" || secret == "" {
		return false
	}

	keys := make([]string, 0, len(query))
	for key := range query {
		if key == "hmac" || key == "signature" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", key, strings.Join(query[key], ",")))
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(parts, "&")))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(provided)))
}

func randomState(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
