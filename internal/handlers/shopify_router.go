package handlers

import (
	"context"
	"log/slog"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"

	"github.com/giftkitapp/giftkit/internal/logging"
	"github.com/giftkitapp/giftkit/internal/observability"
	"github.com/giftkitapp/giftkit/internal/services"
	"github.com/giftkitapp/giftkit/internal/shopify"
)

// WebhookRouter dispatches verified webhook deliveries to reactors by topic.
type WebhookRouter struct {
	orderService   *services.OrderService
	productService *services.ProductService
	authService    *services.AuthService
	logger         *slog.Logger
}

func NewWebhookRouter(orderService *services.OrderService, productService *services.ProductService, authService *services.AuthService, logger *slog.Logger) *WebhookRouter {
	return &WebhookRouter{
		orderService:   orderService,
		productService: productService,
		authService:    authService,
		logger:         logger,
	}
}

func (r *WebhookRouter) Handle(ctx context.Context, delivery *shopify.WebhookDelivery) error {
	span := sentry.StartSpan(
		ctx,
		"handler.webhook_router.handle",
		sentry.WithOpName("handler.webhook_router"),
		sentry.WithDescription("WebhookRouter.Handle"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	meter := observability.MeterFromContext(ctx)
	meter.SetAttributes(
		attribute.String("webhook.provider", "shopify"),
		attribute.String("webhook.topic", delivery.Topic),
	)
	meter.Count("webhook.router.received", 1)

	logger := logging.FromContext(ctx, r.logger)

	var err error
	switch delivery.Topic {
	case "orders/paid":
		err = r.orderService.HandleOrderPaid(ctx, delivery.ShopDomain, delivery.Payload)
	case "products/create", "products/update":
		err = r.productService.HandleProductChanged(ctx, delivery.ShopDomain, delivery.Payload)
	case "app/uninstalled":
		err = r.authService.HandleAppUninstalled(ctx, delivery.ShopDomain)
	default:
		logger.Info("unhandled webhook topic", "topic", delivery.Topic)
		meter.Count("webhook.router.unhandled", 1)
		span.Status = sentry.SpanStatusOK
		return nil
	}

	if err != nil {
		meter.Count("webhook.router.failed", 1, sentry.WithAttributes(attribute.String("topic", delivery.Topic)))
		return err
	}

	meter.Count("webhook.router.processed", 1)
	span.Status = sentry.SpanStatusOK
	return nil
}
