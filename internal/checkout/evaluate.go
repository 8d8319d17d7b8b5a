package checkout

// Package checkout evaluates the cart quantity-parity rule: the quantity of
// gift hampers may not exceed the quantity of paired physical gift cards.
// Evaluate is pure and runs on every cart evaluation, so it must not touch
// the network or storage.

import "fmt"

// CartLine is one line of the cart snapshot the platform sends. Type and
// Giftbox mirror the line attributes set by the storefront.
type CartLine struct {
	Quantity     int    `json:"quantity"`
	Type         string `json:"type,omitempty"`
	Giftbox      bool   `json:"giftbox,omitempty"`
	ProductTitle string `json:"productTitle,omitempty"`
	VariantTitle string `json:"variantTitle,omitempty"`
}

// Violation is a cart-scoped rule failure in the shape the platform expects.
type Violation struct {
	LocalizedMessage string `json:"localizedMessage"`
	Target           string `json:"target"`
}

const (
	fallbackGiftcardName = "Physical Gift Card"
	fallbackGiftboxName  = "Gift Hamper"
)

// Evaluate accumulates physical gift-card and giftbox quantities in one pass
// and emits a single violation when giftboxes outnumber physical gift cards.
func Evaluate(lines []CartLine) []Violation {
	physicalGiftcardQty := 0
	giftboxQty := 0
	physicalGiftcardName := ""
	giftboxName := ""

	for _, line := range lines {
		if line.Type == "physical" {
			physicalGiftcardQty += line.Quantity
			if physicalGiftcardName == "" {
				physicalGiftcardName = displayName(line, fallbackGiftcardName)
			}
		}
		if line.Giftbox {
			giftboxQty += line.Quantity
			if giftboxName == "" {
				giftboxName = displayName(line, fallbackGiftboxName)
			}
		}
	}

	if giftboxQty <= physicalGiftcardQty {
		return nil
	}
	if physicalGiftcardName == "" {
		physicalGiftcardName = fallbackGiftcardName
	}

	return []Violation{{
		LocalizedMessage: fmt.Sprintf("The quantity of %q cannot exceed the quantity of %q", giftboxName, physicalGiftcardName),
		Target:           "cart",
	}}
}

func displayName(line CartLine, fallback string) string {
	if line.ProductTitle != "" {
		return line.ProductTitle
	}
	if line.VariantTitle != "" {
		return line.VariantTitle
	}
	return fallback
}
