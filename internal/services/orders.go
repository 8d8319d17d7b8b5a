package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"

	"github.com/giftkitapp/giftkit/internal/db"
	"github.com/giftkitapp/giftkit/internal/logging"
	"github.com/giftkitapp/giftkit/internal/observability"
	"github.com/giftkitapp/giftkit/internal/shopify"
)

// Order metadata for issued physical gift-card codes.
const (
	codesNamespace = "physical_gift_card"
	codesKey       = "codes"
	codesOwnerType = "ORDER"
	codesFieldType = "list.single_line_text_field"
)

// OrderService reacts to order-paid webhooks by minting gift-card codes for
// physical gift-card line items and recording their last characters on the
// order. Every step is check-then-act idempotent because the platform
// delivers at least once.
type OrderService struct {
	shops     shopDirectory
	clientFor ClientFor
	logger    *slog.Logger
}

func NewOrderService(shops shopDirectory, clientFor ClientFor, logger *slog.Logger) *OrderService {
	return &OrderService{
		shops:     shops,
		clientFor: clientFor,
		logger:    logger,
	}
}

type orderLineProperty struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type orderLineItem struct {
	Title      string              `json:"title"`
	Price      string              `json:"price"`
	Quantity   int                 `json:"quantity"`
	Properties []orderLineProperty `json:"properties"`
}

type orderPayload struct {
	AdminGraphQLAPIID string          `json:"admin_graphql_api_id"`
	Name              string          `json:"name"`
	LineItems         []orderLineItem `json:"line_items"`
}

func (i orderLineItem) isPhysicalGiftCard() bool {
	for _, prop := range i.Properties {
		if prop.Name == "_type" && prop.Value == "physical" {
			return true
		}
	}
	return false
}

// HandleOrderPaid issues one gift-card code per physical line item and writes
// the collected codes as a single list metafield on the order. Orders without
// physical gift-card lines are a no-op.
func (s *OrderService) HandleOrderPaid(ctx context.Context, shopDomain string, payload []byte) error {
	span := sentry.StartSpan(
		ctx,
		"service.order.handle_order_paid",
		sentry.WithOpName("service.order"),
		sentry.WithDescription("HandleOrderPaid"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)
	meter.SetAttributes(attribute.String("shop.domain", shopDomain))
	meter.Count("order.paid.received", 1)

	var order orderPayload
	if err := json.Unmarshal(payload, &order); err != nil {
		span.Status = sentry.SpanStatusInvalidArgument
		return fmt.Errorf("failed to parse order payload: %w", err)
	}

	physicalLines := make([]orderLineItem, 0, len(order.LineItems))
	for _, line := range order.LineItems {
		if line.isPhysicalGiftCard() {
			physicalLines = append(physicalLines, line)
		}
	}
	if len(physicalLines) == 0 {
		meter.Count("order.paid.ignored", 1, sentry.WithAttributes(attribute.String("reason", "no_physical_lines")))
		span.Status = sentry.SpanStatusOK
		return nil
	}

	shop, err := s.shops.GetByDomain(ctx, shopDomain)
	if err != nil {
		if errors.Is(err, db.ErrShopNotFound) {
			return fmt.Errorf("%w: %s", ErrNoAccessToken, shopDomain)
		}
		return fmt.Errorf("failed to look up shop: %w", err)
	}
	client := s.clientFor(shop.Domain, shop.AccessToken)

	if err := s.ensureCodesDefinition(ctx, client); err != nil {
		return err
	}

	codes := make([]string, 0, len(physicalLines))
	for _, line := range physicalLines {
		amount, err := strconv.ParseFloat(line.Price, 64)
		if err != nil {
			logger.Warn("skipping line with unparseable price", "price", line.Price, "order", order.Name)
			continue
		}

		card, userErrors, err := client.CreateGiftCard(ctx, amount, fmt.Sprintf("Physical gift card for order %s", order.Name))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		if card == nil || len(userErrors) > 0 {
			logger.Error("gift card creation reported user errors", "errors", shopify.JoinUserErrors(userErrors), "order", order.Name)
			continue
		}
		codes = append(codes, card.LastCharacters)
	}

	if len(codes) == 0 {
		meter.Count("order.paid.ignored", 1, sentry.WithAttributes(attribute.String("reason", "no_codes_issued")))
		span.Status = sentry.SpanStatusOK
		return nil
	}

	value, err := json.Marshal(codes)
	if err != nil {
		return fmt.Errorf("failed to encode gift card codes: %w", err)
	}

	userErrors, err := client.SetMetafields(ctx, []shopify.MetafieldSetInput{{
		OwnerID:   order.AdminGraphQLAPIID,
		Namespace: codesNamespace,
		Key:       codesKey,
		Type:      codesFieldType,
		Value:     string(value),
	}})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(userErrors) > 0 {
		return stepFailed(ErrUpstream, "order codes metafield write", userErrors)
	}

	meter.Count("order.paid.processed", 1)
	span.Status = sentry.SpanStatusOK
	logger.Info("gift card codes issued", "order", order.Name, "count", len(codes))
	return nil
}

// ensureCodesDefinition creates and pins the order metafield definition on
// first use. The existence check makes redelivery a no-op.
func (s *OrderService) ensureCodesDefinition(ctx context.Context, client CatalogClient) error {
	logger := s.loggerFromContext(ctx)

	definitionID, err := client.FindMetafieldDefinition(ctx, codesNamespace, codesKey, codesOwnerType)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if definitionID != "" {
		return nil
	}

	definitionID, userErrors, err := client.CreateMetafieldDefinition(ctx, shopify.MetafieldDefinitionInput{
		Name:        "Physical Gift Cards",
		Namespace:   codesNamespace,
		Key:         codesKey,
		Description: "List of gift card codes for physical gift cards in this order.",
		Type:        codesFieldType,
		OwnerType:   codesOwnerType,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(userErrors) > 0 {
		return stepFailed(ErrUpstream, "metafield definition create", userErrors)
	}

	if definitionID == "" {
		return nil
	}
	pinErrors, err := client.PinMetafieldDefinition(ctx, definitionID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(pinErrors) > 0 {
		logger.Warn("metafield definition pin reported user errors", "errors", shopify.JoinUserErrors(pinErrors))
	}
	return nil
}

func (s *OrderService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}
