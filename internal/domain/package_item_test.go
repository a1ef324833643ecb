package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestItem(weightKg float64) PackageItem {
	return PackageItem{
		Name:       "Roof rack",
		WeightKg:   weightKg,
		Dimensions: Dimensions{Length: 30, Width: 20, Height: 10},
		Quantity:   1,
	}
}

func TestNeedsPallet(t *testing.T) {
	assert.False(t, createTestItem(40).NeedsPallet())
	assert.True(t, createTestItem(40.1).NeedsPallet())

	assert.True(t, AnyNeedsPallet([]PackageItem{createTestItem(45), createTestItem(5)}))
	assert.False(t, AnyNeedsPallet([]PackageItem{createTestItem(10), createTestItem(5)}))
}

func TestTotalWeightKg(t *testing.T) {
	item := createTestItem(2.5)
	item.Quantity = 4
	assert.InDelta(t, 15.0, TotalWeightKg([]PackageItem{item, createTestItem(5)}), 0.001)
}

func TestValidateItems(t *testing.T) {
	t.Run("empty item set rejected", func(t *testing.T) {
		errs := ValidateItems(nil)
		require.Len(t, errs, 1)
		assert.Equal(t, FieldRequired, errs["items"].Code)
	})

	t.Run("valid items pass", func(t *testing.T) {
		assert.Nil(t, ValidateItems([]PackageItem{createTestItem(5), createTestItem(999)}))
	})

	t.Run("out-of-range fields collected per item", func(t *testing.T) {
		bad := PackageItem{
			Name:       "Bad",
			WeightKg:   1001,
			Dimensions: Dimensions{Length: 0, Width: 250, Height: 10},
			Quantity:   0,
		}
		errs := ValidateItems([]PackageItem{createTestItem(5), bad})
		assert.Contains(t, errs, "items[1].weight")
		assert.Contains(t, errs, "items[1].length")
		assert.Contains(t, errs, "items[1].width")
		assert.Contains(t, errs, "items[1].quantity")
		assert.NotContains(t, errs, "items[0].weight")
	})
}

func TestNormalizeItems(t *testing.T) {
	t.Run("overlong name truncated with warning", func(t *testing.T) {
		item := createTestItem(5)
		item.Name = strings.Repeat("n", 60)

		normalized, warnings := NormalizeItems([]PackageItem{item})
		require.Len(t, normalized, 1)
		assert.Len(t, normalized[0].Name, MaxItemNameLength)
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "truncated")
	})

	t.Run("short names untouched", func(t *testing.T) {
		normalized, warnings := NormalizeItems([]PackageItem{createTestItem(5)})
		assert.Equal(t, "Roof rack", normalized[0].Name)
		assert.Empty(t, warnings)
	})

	t.Run("blank name defaulted", func(t *testing.T) {
		item := createTestItem(5)
		item.Name = "  "
		normalized, _ := NormalizeItems([]PackageItem{item})
		assert.Equal(t, "Item", normalized[0].Name)
	})
}
