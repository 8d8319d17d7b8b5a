package giftcard

// Package giftcard derives price buckets and catalog identity keys for
// gift-card variants. Amounts within the same hundred-unit range share one
// bucket, and therefore one variant.

import (
	"fmt"
	"math"
	"strings"
)

// Card types accepted from the storefront.
const (
	TypeDigital  = "digital"
	TypePhysical = "physical"
)

// PriceBucket is a hundred-unit price range. PriceStr is the requested
// amount formatted to two decimals, used as both the variant price and the
// option value.
type PriceBucket struct {
	Min      int
	Max      int
	PriceStr string
}

// VariantKey is the idempotency key for provisioning: the same card type,
// base handle, and bucket always derive the same handle/SKU pair, and the
// remote catalog's uniqueness on these prevents duplicate creation.
type VariantKey struct {
	Handle string
	SKU    string
}

// ValidType reports whether cardType is one of the accepted card types.
func ValidType(cardType string) bool {
	return cardType == TypeDigital || cardType == TypePhysical
}

// Bucket derives the canonical price bucket for an amount. Callers must
// reject negative or non-finite amounts before calling.
func Bucket(amount float64) PriceBucket {
	min := int(math.Floor(amount/100)) * 100
	return PriceBucket{
		Min:      min,
		Max:      min + 99,
		PriceStr: fmt.Sprintf("%.2f", amount),
	}
}

// DeriveKey computes the handle/SKU pair for a card type, base product
// handle, and bucket.
func DeriveKey(cardType, productHandle string, bucket PriceBucket) VariantKey {
	prefix := "exp-giftcard-digital"
	skuPrefix := "GIFT-DIGITAL"
	if cardType == TypePhysical {
		prefix = "exp-giftcard-physical"
		skuPrefix = "GIFT-PHYSICAL"
	}

	return VariantKey{
		Handle: fmt.Sprintf("%s-%s-%d-%d", prefix, productHandle, bucket.Min, bucket.Max),
		SKU:    fmt.Sprintf("%s-%s", skuPrefix, strings.ReplaceAll(bucket.PriceStr, ".", "-")),
	}
}
