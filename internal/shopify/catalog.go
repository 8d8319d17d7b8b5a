package shopify

import (
	"context"
	"fmt"
)

// GetProductByHandle is a point lookup against the remote catalog. A nil
// product (no error) means the handle does not exist.
func (c *Client) GetProductByHandle(ctx context.Context, handle string) (*Product, error) {
	var out struct {
		ProductByHandle *productPayload `json:"productByHandle"`
	}
	if err := c.Query(ctx, getProductWithVariantsQuery, map[string]any{"handle": handle}, &out); err != nil {
		return nil, fmt.Errorf("product lookup failed for handle %s: %w", handle, err)
	}
	return out.ProductByHandle.toProduct(), nil
}

// CreateProduct creates a product and returns it along with any user errors.
func (c *Client) CreateProduct(ctx context.Context, input ProductCreateInput) (*Product, []UserError, error) {
	var out struct {
		ProductCreate struct {
			Product    *productPayload `json:"product"`
			UserErrors []UserError     `json:"userErrors"`
		} `json:"productCreate"`
	}
	if err := c.Query(ctx, createProductMutation, map[string]any{"input": input}, &out); err != nil {
		return nil, nil, fmt.Errorf("product create failed: %w", err)
	}
	return out.ProductCreate.Product.toProduct(), out.ProductCreate.UserErrors, nil
}

// SetProductImage attaches an existing media file to a product.
func (c *Client) SetProductImage(ctx context.Context, productID, mediaID string) ([]UserError, error) {
	var out struct {
		ProductSet struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"productSet"`
	}
	variables := map[string]any{
		"input": map[string]any{
			"id":    productID,
			"files": []map[string]any{{"id": mediaID}},
		},
	}
	if err := c.Query(ctx, productImageSetMutation, variables, &out); err != nil {
		return nil, fmt.Errorf("product image set failed: %w", err)
	}
	return out.ProductSet.UserErrors, nil
}

// UpdateVariants updates existing variants in bulk.
func (c *Client) UpdateVariants(ctx context.Context, productID string, variants []VariantBulkInput) ([]Variant, []UserError, error) {
	var out struct {
		ProductVariantsBulkUpdate struct {
			ProductVariants []Variant   `json:"productVariants"`
			UserErrors      []UserError `json:"userErrors"`
		} `json:"productVariantsBulkUpdate"`
	}
	variables := map[string]any{"productId": productID, "variants": variants}
	if err := c.Query(ctx, bulkUpdateVariantsMutation, variables, &out); err != nil {
		return nil, nil, fmt.Errorf("variant bulk update failed: %w", err)
	}
	return out.ProductVariantsBulkUpdate.ProductVariants, out.ProductVariantsBulkUpdate.UserErrors, nil
}

// CreateVariants appends new variants to an existing product in bulk.
func (c *Client) CreateVariants(ctx context.Context, productID string, variants []VariantBulkInput) ([]Variant, []UserError, error) {
	var out struct {
		ProductVariantsBulkCreate struct {
			ProductVariants []Variant   `json:"productVariants"`
			UserErrors      []UserError `json:"userErrors"`
		} `json:"productVariantsBulkCreate"`
	}
	variables := map[string]any{"productId": productID, "variants": variants}
	if err := c.Query(ctx, bulkCreateVariantsMutation, variables, &out); err != nil {
		return nil, nil, fmt.Errorf("variant bulk create failed: %w", err)
	}
	return out.ProductVariantsBulkCreate.ProductVariants, out.ProductVariantsBulkCreate.UserErrors, nil
}

// GetShopInfo returns the shop identity and the app's settings metafields.
func (c *Client) GetShopInfo(ctx context.Context) (*ShopInfo, error) {
	var out struct {
		Shop struct {
			ID           string         `json:"id"`
			CurrencyCode string         `json:"currencyCode"`
			Metafields   metafieldEdges `json:"metafields"`
		} `json:"shop"`
	}
	if err := c.Query(ctx, shopSettingsQuery, nil, &out); err != nil {
		return nil, fmt.Errorf("shop settings lookup failed: %w", err)
	}

	info := &ShopInfo{
		ID:           out.Shop.ID,
		CurrencyCode: out.Shop.CurrencyCode,
		Metafields:   make(map[string]string, len(out.Shop.Metafields.Edges)),
	}
	for _, edge := range out.Shop.Metafields.Edges {
		info.Metafields[edge.Node.Key] = edge.Node.Value
	}
	return info, nil
}
