package shopify

import (
	"context"
	"fmt"
)

// FindMetafieldDefinition returns the definition ID for (namespace, key,
// ownerType), or the empty string when no definition exists.
func (c *Client) FindMetafieldDefinition(ctx context.Context, namespace, key, ownerType string) (string, error) {
	var out struct {
		MetafieldDefinitions struct {
			Nodes []struct {
				ID string `json:"id"`
			} `json:"nodes"`
		} `json:"metafieldDefinitions"`
	}
	variables := map[string]any{"namespace": namespace, "key": key, "ownerType": ownerType}
	if err := c.Query(ctx, metafieldDefinitionsQuery, variables, &out); err != nil {
		return "", fmt.Errorf("metafield definition lookup failed: %w", err)
	}
	if len(out.MetafieldDefinitions.Nodes) == 0 {
		return "", nil
	}
	return out.MetafieldDefinitions.Nodes[0].ID, nil
}

// CreateMetafieldDefinition creates a new metafield definition.
func (c *Client) CreateMetafieldDefinition(ctx context.Context, definition MetafieldDefinitionInput) (string, []UserError, error) {
	var out struct {
		MetafieldDefinitionCreate struct {
			CreatedDefinition *struct {
				ID string `json:"id"`
			} `json:"createdDefinition"`
			UserErrors []UserError `json:"userErrors"`
		} `json:"metafieldDefinitionCreate"`
	}
	if err := c.Query(ctx, metafieldDefinitionCreateMutation, map[string]any{"definition": definition}, &out); err != nil {
		return "", nil, fmt.Errorf("metafield definition create failed: %w", err)
	}

	id := ""
	if out.MetafieldDefinitionCreate.CreatedDefinition != nil {
		id = out.MetafieldDefinitionCreate.CreatedDefinition.ID
	}
	return id, out.MetafieldDefinitionCreate.UserErrors, nil
}

// PinMetafieldDefinition pins a definition so it surfaces in the admin UI.
func (c *Client) PinMetafieldDefinition(ctx context.Context, definitionID string) ([]UserError, error) {
	var out struct {
		MetafieldDefinitionPin struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"metafieldDefinitionPin"`
	}
	if err := c.Query(ctx, metafieldDefinitionPinMutation, map[string]any{"definitionId": definitionID}, &out); err != nil {
		return nil, fmt.Errorf("metafield definition pin failed: %w", err)
	}
	return out.MetafieldDefinitionPin.UserErrors, nil
}

// SetMetafields writes metafield values on their owner entities.
func (c *Client) SetMetafields(ctx context.Context, metafields []MetafieldSetInput) ([]UserError, error) {
	var out struct {
		MetafieldsSet struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"metafieldsSet"`
	}
	if err := c.Query(ctx, metafieldsSetMutation, map[string]any{"metafields": metafields}, &out); err != nil {
		return nil, fmt.Errorf("metafields set failed: %w", err)
	}
	return out.MetafieldsSet.UserErrors, nil
}

// CreateGiftCard issues a redeemable gift-card code with the given initial
// value. Only the code's last characters are returned by the platform.
func (c *Client) CreateGiftCard(ctx context.Context, initialValue float64, note string) (*GiftCard, []UserError, error) {
	var out struct {
		GiftCardCreate struct {
			GiftCard   *GiftCard   `json:"giftCard"`
			UserErrors []UserError `json:"userErrors"`
		} `json:"giftCardCreate"`
	}
	variables := map[string]any{
		"input": map[string]any{
			"initialValue": initialValue,
			"note":         note,
		},
	}
	if err := c.Query(ctx, giftCardCreateMutation, variables, &out); err != nil {
		return nil, nil, fmt.Errorf("gift card create failed: %w", err)
	}
	return out.GiftCardCreate.GiftCard, out.GiftCardCreate.UserErrors, nil
}

// CreateWebhookSubscription registers a webhook delivery for a topic.
func (c *Client) CreateWebhookSubscription(ctx context.Context, topic, callbackURL string) ([]UserError, error) {
	var out struct {
		WebhookSubscriptionCreate struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"webhookSubscriptionCreate"`
	}
	variables := map[string]any{
		"topic": topic,
		"webhookSubscription": map[string]any{
			"callbackUrl": callbackURL,
			"format":      "JSON",
		},
	}
	if err := c.Query(ctx, webhookSubscriptionCreateMutation, variables, &out); err != nil {
		return nil, fmt.Errorf("webhook subscription create failed: %w", err)
	}
	return out.WebhookSubscriptionCreate.UserErrors, nil
}
