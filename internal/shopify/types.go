package shopify

import "strings"

// UserError is a platform-reported, user-level mutation error. Mutations can
// succeed at the transport layer and still fail here, so callers must check.
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
}

// JoinUserErrors flattens user errors into one message for logs and envelopes.
func JoinUserErrors(errs []UserError) string {
	if len(errs) == 0 {
		return ""
	}
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		messages = append(messages, e.Message)
	}
	return strings.Join(messages, "; ")
}

type Variant struct {
	ID    string `json:"id"`
	SKU   string `json:"sku"`
	Price string `json:"price"`
}

type ProductOption struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// Product is the resolved remote catalog entity. FirstImageID is the media ID
// of the first image, if any.
type Product struct {
	ID           string
	Title        string
	Handle       string
	Variants     []Variant
	Options      []ProductOption
	FirstImageID string
}

// VariantBySKU scans the product's variants for an exact SKU match.
func (p *Product) VariantBySKU(sku string) *Variant {
	if p == nil {
		return nil
	}
	for i := range p.Variants {
		if p.Variants[i].SKU == sku {
			return &p.Variants[i]
		}
	}
	return nil
}

// ShopInfo carries the shop identity and its app-namespace metafields.
type ShopInfo struct {
	ID           string
	CurrencyCode string
	Metafields   map[string]string
}

type GiftCard struct {
	ID             string `json:"id"`
	LastCharacters string `json:"lastCharacters"`
}

// Input shapes for mutations. These marshal directly into GraphQL variables.

type MetafieldInput struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Type      string `json:"type"`
}

type MetafieldSetInput struct {
	OwnerID   string `json:"ownerId"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Type      string `json:"type"`
	Value     string `json:"value"`
}

type MetafieldDefinitionInput struct {
	Name        string `json:"name"`
	Namespace   string `json:"namespace"`
	Key         string `json:"key"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type"`
	OwnerType   string `json:"ownerType"`
}

type ProductOptionValueInput struct {
	Name string `json:"name"`
}

type ProductOptionInput struct {
	Name     string                    `json:"name"`
	Position int                       `json:"position"`
	Values   []ProductOptionValueInput `json:"values"`
}

type ProductCreateInput struct {
	Title          string               `json:"title"`
	Handle         string               `json:"handle"`
	ProductType    string               `json:"productType"`
	GiftCard       bool                 `json:"giftCard"`
	Status         string               `json:"status"`
	Published      bool                 `json:"published"`
	Metafields     []MetafieldInput     `json:"metafields,omitempty"`
	ProductOptions []ProductOptionInput `json:"productOptions,omitempty"`
}

type InventoryItemInput struct {
	SKU     string `json:"sku"`
	Tracked bool   `json:"tracked"`
}

type VariantOptionValueInput struct {
	Name     string `json:"name"`
	OptionID string `json:"optionId,omitempty"`
}

type VariantBulkInput struct {
	ID            string                    `json:"id,omitempty"`
	Price         string                    `json:"price"`
	OptionValues  []VariantOptionValueInput `json:"optionValues,omitempty"`
	InventoryItem *InventoryItemInput       `json:"inventoryItem,omitempty"`
}

// Wire shapes shared by the typed operations.

type metafieldEdges struct {
	Edges []struct {
		Node struct {
			Key   string `json:"key"`
			Value string `json:"value"`
		} `json:"node"`
	} `json:"edges"`
}

type variantEdges struct {
	Edges []struct {
		Node Variant `json:"node"`
	} `json:"edges"`
}

type mediaNodes struct {
	Nodes []struct {
		ID string `json:"id"`
	} `json:"nodes"`
}

type productPayload struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Handle   string          `json:"handle"`
	Variants variantEdges    `json:"variants"`
	Options  []ProductOption `json:"options"`
	Media    mediaNodes      `json:"media"`
}

func (p *productPayload) toProduct() *Product {
	if p == nil {
		return nil
	}
	product := &Product{
		ID:      p.ID,
		Title:   p.Title,
		Handle:  p.Handle,
		Options: p.Options,
	}
	for _, edge := range p.Variants.Edges {
		product.Variants = append(product.Variants, edge.Node)
	}
	if len(p.Media.Nodes) > 0 {
		product.FirstImageID = p.Media.Nodes[0].ID
	}
	return product
}
