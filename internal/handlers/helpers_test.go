package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/giftkitapp/giftkit/internal/db"
	"github.com/giftkitapp/giftkit/internal/services"
	"github.com/giftkitapp/giftkit/internal/shopify"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeShopDir struct {
	shops map[string]*db.Shop
}

func (f *fakeShopDir) GetByDomain(_ context.Context, domain string) (*db.Shop, error) {
	shop, ok := f.shops[domain]
	if !ok {
		return nil, db.ErrShopNotFound
	}
	return shop, nil
}

func shopDirWith(domains ...string) *fakeShopDir {
	shops := make(map[string]*db.Shop, len(domains))
	for _, domain := range domains {
		shops[domain] = &db.Shop{ID: uuid.New(), Domain: domain, AccessToken: "shpat_test"}
	}
	return &fakeShopDir{shops: shops}
}

// stubCatalog returns canned results for the few Admin API calls the
// handler tests drive.
type stubCatalog struct {
	metafieldSets []shopify.MetafieldSetInput
	giftCards     int
	nextVariantID int
}

func (f *stubCatalog) GetShopInfo(context.Context) (*shopify.ShopInfo, error) {
	return &shopify.ShopInfo{ID: "gid://shopify/Shop/1", Metafields: map[string]string{}}, nil
}

func (f *stubCatalog) GetProductByHandle(context.Context, string) (*shopify.Product, error) {
	return nil, nil
}

func (f *stubCatalog) CreateProduct(_ context.Context, input shopify.ProductCreateInput) (*shopify.Product, []shopify.UserError, error) {
	f.nextVariantID++
	return &shopify.Product{
		ID:       "gid://shopify/Product/1",
		Title:    input.Title,
		Handle:   input.Handle,
		Variants: []shopify.Variant{{ID: fmt.Sprintf("gid://shopify/ProductVariant/%d", f.nextVariantID)}},
		Options:  []shopify.ProductOption{{ID: "gid://shopify/ProductOption/1", Name: "Denominations"}},
	}, nil, nil
}

func (f *stubCatalog) SetProductImage(context.Context, string, string) ([]shopify.UserError, error) {
	return nil, nil
}

func (f *stubCatalog) UpdateVariants(_ context.Context, _ string, variants []shopify.VariantBulkInput) ([]shopify.Variant, []shopify.UserError, error) {
	out := make([]shopify.Variant, 0, len(variants))
	for _, input := range variants {
		out = append(out, shopify.Variant{ID: input.ID, Price: input.Price})
	}
	return out, nil, nil
}

func (f *stubCatalog) CreateVariants(_ context.Context, _ string, variants []shopify.VariantBulkInput) ([]shopify.Variant, []shopify.UserError, error) {
	out := make([]shopify.Variant, 0, len(variants))
	for _, input := range variants {
		f.nextVariantID++
		out = append(out, shopify.Variant{ID: fmt.Sprintf("gid://shopify/ProductVariant/%d", f.nextVariantID), Price: input.Price})
	}
	return out, nil, nil
}

func (f *stubCatalog) SetMetafields(_ context.Context, metafields []shopify.MetafieldSetInput) ([]shopify.UserError, error) {
	f.metafieldSets = append(f.metafieldSets, metafields...)
	return nil, nil
}

func (f *stubCatalog) FindMetafieldDefinition(context.Context, string, string, string) (string, error) {
	return "gid://shopify/MetafieldDefinition/1", nil
}

func (f *stubCatalog) CreateMetafieldDefinition(context.Context, shopify.MetafieldDefinitionInput) (string, []shopify.UserError, error) {
	return "gid://shopify/MetafieldDefinition/1", nil, nil
}

func (f *stubCatalog) PinMetafieldDefinition(context.Context, string) ([]shopify.UserError, error) {
	return nil, nil
}

func (f *stubCatalog) CreateGiftCard(context.Context, float64, string) (*shopify.GiftCard, []shopify.UserError, error) {
	f.giftCards++
	return &shopify.GiftCard{ID: "gid://shopify/GiftCard/1", LastCharacters: "abcd"}, nil, nil
}

func (f *stubCatalog) CreateWebhookSubscription(context.Context, string, string) ([]shopify.UserError, error) {
	return nil, nil
}

func catalogClientFor(catalog *stubCatalog) services.ClientFor {
	return func(string, string) services.CatalogClient { return catalog }
}

func mustProvisionService(t *testing.T, catalog *stubCatalog, domains ...string) *services.ProvisionService {
	t.Helper()
	return services.NewProvisionService(shopDirWith(domains...), catalogClientFor(catalog), testLogger())
}
