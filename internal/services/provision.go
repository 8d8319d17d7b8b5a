package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/go-playground/validator/v10"

	"github.com/giftkitapp/giftkit/internal/db"
	"github.com/giftkitapp/giftkit/internal/giftcard"
	"github.com/giftkitapp/giftkit/internal/logging"
	"github.com/giftkitapp/giftkit/internal/observability"
	"github.com/giftkitapp/giftkit/internal/shopify"
)

// CatalogClient is the slice of the Admin API the provisioning workflow
// consumes. *shopify.Client satisfies it.
type CatalogClient interface {
	GetShopInfo(ctx context.Context) (*shopify.ShopInfo, error)
	GetProductByHandle(ctx context.Context, handle string) (*shopify.Product, error)
	CreateProduct(ctx context.Context, input shopify.ProductCreateInput) (*shopify.Product, []shopify.UserError, error)
	SetProductImage(ctx context.Context, productID, mediaID string) ([]shopify.UserError, error)
	UpdateVariants(ctx context.Context, productID string, variants []shopify.VariantBulkInput) ([]shopify.Variant, []shopify.UserError, error)
	CreateVariants(ctx context.Context, productID string, variants []shopify.VariantBulkInput) ([]shopify.Variant, []shopify.UserError, error)
	SetMetafields(ctx context.Context, metafields []shopify.MetafieldSetInput) ([]shopify.UserError, error)
	FindMetafieldDefinition(ctx context.Context, namespace, key, ownerType string) (string, error)
	CreateMetafieldDefinition(ctx context.Context, definition shopify.MetafieldDefinitionInput) (string, []shopify.UserError, error)
	PinMetafieldDefinition(ctx context.Context, definitionID string) ([]shopify.UserError, error)
	CreateGiftCard(ctx context.Context, initialValue float64, note string) (*shopify.GiftCard, []shopify.UserError, error)
	CreateWebhookSubscription(ctx context.Context, topic, callbackURL string) ([]shopify.UserError, error)
}

// ClientFor builds a catalog client bound to a shop and its token.
type ClientFor func(shopDomain, accessToken string) CatalogClient

// shopDirectory resolves installed shops. *db.ShopStore satisfies it.
type shopDirectory interface {
	GetByDomain(ctx context.Context, domain string) (*db.Shop, error)
}

const (
	giftCardProductType = "exp gift card"
	hamperProductType   = "exp gift hamper"

	denominationsOption = "Denominations"
)

// ProvisionRequest is the storefront's ask: a priced variant for a gift card
// of the given type, derived from the named base product.
type ProvisionRequest struct {
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	Type          string  `json:"type" validate:"required,oneof=digital physical"`
	ProductTitle  string  `json:"productTitle" validate:"required"`
	ProductHandle string  `json:"productHandle" validate:"required"`
}

// ProvisionResult references the variant satisfying the request. Created
// reports whether this call had to mint it.
type ProvisionResult struct {
	VariantID string
	Price     string
	Created   bool
}

// ProvisionService runs the idempotent create-or-reuse workflow. It holds no
// local state between calls: the remote catalog's uniqueness on handle/SKU
// is the only duplicate-prevention mechanism, so a concurrent-creation
// conflict surfaces as ErrUpstream and the caller retries into the
// existing-product branch.
type ProvisionService struct {
	shops     shopDirectory
	clientFor ClientFor
	validate  *validator.Validate
	logger    *slog.Logger
}

func NewProvisionService(shops shopDirectory, clientFor ClientFor, logger *slog.Logger) *ProvisionService {
	return &ProvisionService{
		shops:     shops,
		clientFor: clientFor,
		validate:  validator.New(),
		logger:    logger,
	}
}

func (s *ProvisionService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

// Provision validates the request, derives the variant key, and returns an
// existing variant or creates product/variant as needed. Safe to retry as a
// whole on failure of any step.
func (s *ProvisionService) Provision(ctx context.Context, shopDomain string, req ProvisionRequest) (*ProvisionResult, error) {
	span := sentry.StartSpan(
		ctx,
		"service.provision.provision",
		sentry.WithOpName("service.provision"),
		sentry.WithDescription("Provision"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)
	meter.SetAttributes(
		attribute.String("giftcard.type", req.Type),
		attribute.String("shop.domain", shopDomain),
	)
	meter.Count("provision.requested", 1)
	recordFailure := func(reason string) {
		meter.Count("provision.failed", 1, sentry.WithAttributes(attribute.String("reason", reason)))
	}

	if err := s.validate.Struct(req); err != nil {
		recordFailure("invalid_input")
		return nil, fmt.Errorf("%w: invalid gift card input: %v", ErrValidation, err)
	}
	if math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) {
		recordFailure("invalid_input")
		return nil, fmt.Errorf("%w: amount must be a finite number", ErrValidation)
	}

	shop, err := s.shops.GetByDomain(ctx, shopDomain)
	if err != nil {
		if errors.Is(err, db.ErrShopNotFound) {
			recordFailure("no_access_token")
			return nil, fmt.Errorf("%w: %s", ErrNoAccessToken, shopDomain)
		}
		recordFailure("shop_lookup_failed")
		return nil, fmt.Errorf("failed to look up shop: %w", err)
	}

	client := s.clientFor(shop.Domain, shop.AccessToken)

	info, err := client.GetShopInfo(ctx)
	if err != nil {
		recordFailure("settings_fetch_failed")
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	settings := ParseShopSettings(info.Metafields)
	if !settings.Enabled {
		recordFailure("disabled")
		return nil, fmt.Errorf("%w: gift cards are disabled for this shop", ErrValidation)
	}
	if req.Amount < float64(settings.MinPrice) || req.Amount > float64(settings.MaxPrice) {
		recordFailure("amount_out_of_range")
		return nil, fmt.Errorf("%w: amount must be between %d and %d", ErrValidation, settings.MinPrice, settings.MaxPrice)
	}

	bucket := giftcard.Bucket(req.Amount)
	key := giftcard.DeriveKey(req.Type, req.ProductHandle, bucket)

	product, err := client.GetProductByHandle(ctx, key.Handle)
	if err != nil {
		recordFailure("product_lookup_failed")
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if product == nil {
		result, err := s.createProduct(ctx, client, req, bucket, key)
		if err != nil {
			recordFailure("product_create_failed")
			return nil, err
		}
		meter.Count("provision.created", 1, sentry.WithAttributes(attribute.String("path", "new_product")))
		span.Status = sentry.SpanStatusOK
		logger.Info("gift card product created", "shop", shopDomain, "handle", key.Handle, "sku", key.SKU)
		return result, nil
	}

	if variant := product.VariantBySKU(key.SKU); variant != nil {
		meter.Count("provision.reused", 1)
		span.Status = sentry.SpanStatusOK
		return &ProvisionResult{VariantID: variant.ID, Price: variant.Price, Created: false}, nil
	}

	result, err := s.appendVariant(ctx, client, product, bucket, key)
	if err != nil {
		recordFailure("variant_create_failed")
		return nil, err
	}
	meter.Count("provision.created", 1, sentry.WithAttributes(attribute.String("path", "new_variant")))
	span.Status = sentry.SpanStatusOK
	logger.Info("gift card variant created", "shop", shopDomain, "handle", key.Handle, "sku", key.SKU)
	return result, nil
}

// createProduct handles the product-miss branch: create the derived product
// hidden from listings, carry over the base product's image, then price and
// SKU the auto-generated variant. Image attach is best-effort; the product
// already exists at that point, so a retry reconciles through the
// existing-product branch.
func (s *ProvisionService) createProduct(ctx context.Context, client CatalogClient, req ProvisionRequest, bucket giftcard.PriceBucket, key giftcard.VariantKey) (*ProvisionResult, error) {
	logger := s.loggerFromContext(ctx)

	baseProduct, err := client.GetProductByHandle(ctx, req.ProductHandle)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	imageID := ""
	if baseProduct != nil {
		imageID = baseProduct.FirstImageID
	}

	created, userErrors, err := client.CreateProduct(ctx, shopify.ProductCreateInput{
		Title:       req.ProductTitle,
		Handle:      key.Handle,
		ProductType: giftCardProductType,
		GiftCard:    req.Type != giftcard.TypePhysical,
		Status:      "ACTIVE",
		Published:   true,
		Metafields: []shopify.MetafieldInput{
			{Namespace: "seo", Key: "hidden", Value: "1", Type: "number_integer"},
		},
		ProductOptions: []shopify.ProductOptionInput{
			{Name: denominationsOption, Position: 1, Values: []shopify.ProductOptionValueInput{{Name: bucket.PriceStr}}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if created == nil || len(userErrors) > 0 {
		return nil, stepFailed(ErrUpstream, "product create", userErrors)
	}

	if imageID != "" {
		if imageErrors, err := client.SetProductImage(ctx, created.ID, imageID); err != nil {
			logger.Warn("failed to attach gift card image", "error", err, "product_id", created.ID)
		} else if len(imageErrors) > 0 {
			logger.Warn("gift card image attach reported user errors", "errors", shopify.JoinUserErrors(imageErrors), "product_id", created.ID)
		}
	}

	if len(created.Variants) == 0 {
		return nil, stepFailed(ErrUpstream, "product created without a default variant", nil)
	}
	variantID := created.Variants[0].ID

	_, userErrors, err = client.UpdateVariants(ctx, created.ID, []shopify.VariantBulkInput{{
		ID:            variantID,
		Price:         bucket.PriceStr,
		InventoryItem: &shopify.InventoryItemInput{SKU: key.SKU, Tracked: false},
	}})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(userErrors) > 0 {
		return nil, stepFailed(ErrUpstream, "variant price update", userErrors)
	}

	return &ProvisionResult{VariantID: variantID, Price: bucket.PriceStr, Created: true}, nil
}

// appendVariant handles the product-hit, SKU-miss branch.
func (s *ProvisionService) appendVariant(ctx context.Context, client CatalogClient, product *shopify.Product, bucket giftcard.PriceBucket, key giftcard.VariantKey) (*ProvisionResult, error) {
	if len(product.Options) == 0 {
		return nil, fmt.Errorf("%w: product has no options to assign variant", ErrValidation)
	}
	option := product.Options[0]

	variants, userErrors, err := client.CreateVariants(ctx, product.ID, []shopify.VariantBulkInput{{
		Price:         bucket.PriceStr,
		OptionValues:  []shopify.VariantOptionValueInput{{Name: bucket.PriceStr, OptionID: option.ID}},
		InventoryItem: &shopify.InventoryItemInput{SKU: key.SKU, Tracked: false},
	}})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(variants) == 0 || len(userErrors) > 0 {
		return nil, stepFailed(ErrUpstream, "variant create", userErrors)
	}

	return &ProvisionResult{VariantID: variants[0].ID, Price: bucket.PriceStr, Created: true}, nil
}
