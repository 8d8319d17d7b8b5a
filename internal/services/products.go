package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"

	"github.com/giftkitapp/giftkit/internal/db"
	"github.com/giftkitapp/giftkit/internal/logging"
	"github.com/giftkitapp/giftkit/internal/observability"
	"github.com/giftkitapp/giftkit/internal/shopify"
)

// ProductService reacts to product create/update webhooks by hiding hamper
// products from storefront listings. Reapplying the hidden flag to an
// already-hidden product has no effect, so redelivery is safe.
type ProductService struct {
	shops     shopDirectory
	clientFor ClientFor
	logger    *slog.Logger
}

func NewProductService(shops shopDirectory, clientFor ClientFor, logger *slog.Logger) *ProductService {
	return &ProductService{
		shops:     shops,
		clientFor: clientFor,
		logger:    logger,
	}
}

type productPayload struct {
	AdminGraphQLAPIID string `json:"admin_graphql_api_id"`
	Title             string `json:"title"`
	ProductType       string `json:"product_type"`
}

// HandleProductChanged hides hamper-type products. Any other product type is
// a no-op.
func (s *ProductService) HandleProductChanged(ctx context.Context, shopDomain string, payload []byte) error {
	span := sentry.StartSpan(
		ctx,
		"service.product.handle_product_changed",
		sentry.WithOpName("service.product"),
		sentry.WithDescription("HandleProductChanged"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := logging.FromContext(ctx, s.logger)
	meter := observability.MeterFromContext(ctx)
	meter.SetAttributes(attribute.String("shop.domain", shopDomain))

	var product productPayload
	if err := json.Unmarshal(payload, &product); err != nil {
		span.Status = sentry.SpanStatusInvalidArgument
		return fmt.Errorf("failed to parse product payload: %w", err)
	}

	if product.ProductType != hamperProductType {
		meter.Count("product.hide.ignored", 1, sentry.WithAttributes(attribute.String("reason", "not_hamper")))
		span.Status = sentry.SpanStatusOK
		return nil
	}
	if product.AdminGraphQLAPIID == "" {
		return fmt.Errorf("product payload missing admin_graphql_api_id")
	}

	shop, err := s.shops.GetByDomain(ctx, shopDomain)
	if err != nil {
		if errors.Is(err, db.ErrShopNotFound) {
			return fmt.Errorf("%w: %s", ErrNoAccessToken, shopDomain)
		}
		return fmt.Errorf("failed to look up shop: %w", err)
	}
	client := s.clientFor(shop.Domain, shop.AccessToken)

	userErrors, err := client.SetMetafields(ctx, []shopify.MetafieldSetInput{{
		OwnerID:   product.AdminGraphQLAPIID,
		Namespace: "seo",
		Key:       "hidden",
		Type:      "number_integer",
		Value:     "1",
	}})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(userErrors) > 0 {
		return stepFailed(ErrUpstream, "hamper hidden metafield write", userErrors)
	}

	meter.Count("product.hide.processed", 1)
	span.Status = sentry.SpanStatusOK
	logger.Info("hamper product hidden from listings", "product", product.Title, "shop", shopDomain)
	return nil
}
