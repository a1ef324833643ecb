package domain

import (
	"fmt"
	"strings"
)

// Carrier constraints on package items
const (
	MaxItemNameLength = 50
	MaxItemWeightKg   = 1000.0
	MaxDimensionCm    = 200.0
	MaxItemQuantity   = 100

	// PalletThresholdKg is the weight above which an item must travel
	// palletized, which also reclassifies the whole job.
	PalletThresholdKg = 40.0
)

// Dimensions are package dimensions in centimetres
type Dimensions struct {
	Length float64 `json:"length" bson:"length"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// PackageItem is a single line of the shipment being quoted
type PackageItem struct {
	Name       string     `json:"name" bson:"name"`
	WeightKg   float64    `json:"weight" bson:"weight"`
	Dimensions Dimensions `json:"dimensions" bson:"dimensions"`
	Quantity   int        `json:"quantity" bson:"quantity"`
}

// NeedsPallet reports whether this item must be palletized
func (p PackageItem) NeedsPallet() bool {
	return p.WeightKg > PalletThresholdKg
}

// AnyNeedsPallet reports whether any item in the set requires pallet
// handling. This is an all-or-nothing decision at the shipment level.
func AnyNeedsPallet(items []PackageItem) bool {
	for _, item := range items {
		if item.NeedsPallet() {
			return true
		}
	}
	return false
}

// TotalWeightKg is the chargeable weight across all items and quantities
func TotalWeightKg(items []PackageItem) float64 {
	var total float64
	for _, item := range items {
		total += item.WeightKg * float64(item.Quantity)
	}
	return total
}

// ValidateItems checks every item against carrier range constraints,
// collecting all failures keyed by item index and field.
func ValidateItems(items []PackageItem) FieldErrors {
	errs := FieldErrors{}
	if len(items) == 0 {
		errs["items"] = FieldError{Field: "items", Code: FieldRequired, Message: "at least one item is required"}
		return errs
	}

	for i, item := range items {
		prefix := fmt.Sprintf("items[%d].", i)
		if item.WeightKg <= 0 || item.WeightKg > MaxItemWeightKg {
			field := prefix + "weight"
			errs[field] = FieldError{
				Field:   field,
				Code:    InvalidFormat,
				Message: fmt.Sprintf("weight must be greater than 0 and at most %.0f kg", MaxItemWeightKg),
			}
		}
		for name, d := range map[string]float64{
			"length": item.Dimensions.Length,
			"width":  item.Dimensions.Width,
			"height": item.Dimensions.Height,
		} {
			if d <= 0 || d > MaxDimensionCm {
				field := prefix + name
				errs[field] = FieldError{
					Field:   field,
					Code:    InvalidFormat,
					Message: fmt.Sprintf("%s must be greater than 0 and at most %.0f cm", name, MaxDimensionCm),
				}
			}
		}
		if item.Quantity < 1 || item.Quantity > MaxItemQuantity {
			field := prefix + "quantity"
			errs[field] = FieldError{
				Field:   field,
				Code:    InvalidFormat,
				Message: fmt.Sprintf("quantity must be between 1 and %d", MaxItemQuantity),
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// NormalizeItems truncates overlong item names and returns the normalized
// items plus advisory warnings. Truncation never rejects an item; the
// warnings are an observable side channel so callers and tests can see it.
func NormalizeItems(items []PackageItem) ([]PackageItem, []string) {
	normalized := make([]PackageItem, len(items))
	var warnings []string

	for i, item := range items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			name = "Item"
		}
		if len(name) > MaxItemNameLength {
			warnings = append(warnings, fmt.Sprintf(
				"item %d name truncated to %d characters", i, MaxItemNameLength))
			name = name[:MaxItemNameLength]
		}
		item.Name = name
		normalized[i] = item
	}

	return normalized, warnings
}
