package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/giftkitapp/giftkit/internal/logging"
	"github.com/giftkitapp/giftkit/internal/shopify"
)

// Shop settings live as metafields in the app's namespace on the shop
// entity, fetched fresh per request so a stale range never validates an
// amount for the wrong shop.
const (
	settingsNamespace = "giftkit_settings"

	defaultMinPrice = 1
	defaultMaxPrice = 1000
)

type ShopSettings struct {
	Enabled  bool `json:"enabled"`
	MinPrice int  `json:"minPrice"`
	MaxPrice int  `json:"maxPrice"`
}

// ParseShopSettings reads settings out of the shop's metafield map, applying
// defaults for absent keys.
func ParseShopSettings(metafields map[string]string) ShopSettings {
	settings := ShopSettings{
		Enabled:  true,
		MinPrice: defaultMinPrice,
		MaxPrice: defaultMaxPrice,
	}

	if raw, ok := metafields["enabled"]; ok {
		settings.Enabled = raw != "false" && raw != "0"
	}
	if raw, ok := metafields["min_price"]; ok {
		if parsed, err := strconv.Atoi(raw); err == nil {
			settings.MinPrice = parsed
		}
	}
	if raw, ok := metafields["max_price"]; ok {
		if parsed, err := strconv.Atoi(raw); err == nil {
			settings.MaxPrice = parsed
		}
	}

	return settings
}

// SettingsService reads and writes shop settings for the admin API.
type SettingsService struct {
	clientFor ClientFor
	logger    *slog.Logger
}

func NewSettingsService(clientFor ClientFor, logger *slog.Logger) *SettingsService {
	return &SettingsService{
		clientFor: clientFor,
		logger:    logger,
	}
}

func (s *SettingsService) Get(ctx context.Context, shopDomain, accessToken string) (ShopSettings, error) {
	client := s.clientFor(shopDomain, accessToken)

	info, err := client.GetShopInfo(ctx)
	if err != nil {
		return ShopSettings{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return ParseShopSettings(info.Metafields), nil
}

func (s *SettingsService) Update(ctx context.Context, shopDomain, accessToken string, settings ShopSettings) error {
	if settings.MinPrice < 1 || settings.MaxPrice < settings.MinPrice {
		return fmt.Errorf("%w: price range must satisfy 1 <= min <= max", ErrValidation)
	}

	client := s.clientFor(shopDomain, accessToken)

	info, err := client.GetShopInfo(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	enabled := "false"
	if settings.Enabled {
		enabled = "true"
	}
	metafields := []shopify.MetafieldSetInput{
		{OwnerID: info.ID, Namespace: settingsNamespace, Key: "enabled", Type: "boolean", Value: enabled},
		{OwnerID: info.ID, Namespace: settingsNamespace, Key: "min_price", Type: "number_integer", Value: strconv.Itoa(settings.MinPrice)},
		{OwnerID: info.ID, Namespace: settingsNamespace, Key: "max_price", Type: "number_integer", Value: strconv.Itoa(settings.MaxPrice)},
	}

	userErrors, err := client.SetMetafields(ctx, metafields)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(userErrors) > 0 {
		return stepFailed(ErrUpstream, "settings metafields write", userErrors)
	}

	logging.FromContext(ctx, s.logger).Info("shop settings updated", "shop", shopDomain,
		"enabled", settings.Enabled, "min_price", settings.MinPrice, "max_price", settings.MaxPrice)
	return nil
}
