package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metroDestination() NormalizedAddress {
	return NormalizedAddress{
		Street:   "1 Test St",
		Suburb:   "Melbourne",
		State:    "VIC",
		Postcode: "3000",
		Country:  "Australia",
	}
}

func quoteByService(t *testing.T, quotes []Quote, service string) *Quote {
	t.Helper()
	for i := range quotes {
		if quotes[i].Service == service {
			return &quotes[i]
		}
	}
	return nil
}

func TestZoneForState(t *testing.T) {
	e := NewFallbackEstimator(nil)

	tests := []struct {
		state string
		zone  string
	}{
		{state: "NSW", zone: "metro"},
		{state: "VIC", zone: "metro"},
		{state: "ACT", zone: "metro"},
		{state: "QLD", zone: "regional"},
		{state: "SA", zone: "regional"},
		{state: "WA", zone: "remote"},
		{state: "NT", zone: "remote"},
		{state: "TAS", zone: "remote"},
	}
	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			zone := e.ZoneForState(tt.state)
			require.NotNil(t, zone)
			assert.Equal(t, tt.zone, zone.Name)
		})
	}

	assert.Nil(t, e.ZoneForState("ZZ"))
}

func TestWeightSurcharge(t *testing.T) {
	e := NewFallbackEstimator(nil)

	tests := []struct {
		weight float64
		want   float64
	}{
		{weight: 1, want: 0},
		{weight: 5, want: 0},
		{weight: 5.1, want: 5.00},
		{weight: 10, want: 5.00},
		{weight: 15, want: 10.00},
		{weight: 25, want: 18.00},
		{weight: 30, want: 18.00},
		{weight: 31, want: 25.00},
		{weight: 500, want: 25.00},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, e.WeightSurcharge(tt.weight), 0.001, "weight %.1f", tt.weight)
	}
}

func TestEstimateDomestic(t *testing.T) {
	e := NewFallbackEstimator(nil)
	items := []PackageItem{createTestItem(5)}

	t.Run("metro base rates with no surcharge under 5kg", func(t *testing.T) {
		quotes := e.Estimate(metroDestination(), items, 100)
		require.Len(t, quotes, 2)

		standard := quoteByService(t, quotes, "Standard")
		require.NotNil(t, standard)
		assert.InDelta(t, 12.95, standard.Price, 0.001)
		assert.Equal(t, 3, standard.DeliveryDays)
		assert.Equal(t, QuoteSourceFallback, standard.Source)

		express := quoteByService(t, quotes, "Express")
		require.NotNil(t, express)
		assert.InDelta(t, 22.95, express.Price, 0.001)
		assert.Equal(t, 1, express.DeliveryDays)
	})

	t.Run("weight surcharge added to both services", func(t *testing.T) {
		heavy := []PackageItem{createTestItem(15)}
		quotes := e.Estimate(metroDestination(), heavy, 100)

		standard := quoteByService(t, quotes, "Standard")
		require.NotNil(t, standard)
		assert.InDelta(t, 12.95+10.00, standard.Price, 0.001)
	})

	t.Run("free shipping at threshold", func(t *testing.T) {
		quotes := e.Estimate(metroDestination(), items, 500)
		free := quoteByService(t, quotes, "Free Shipping")
		require.NotNil(t, free)
		assert.Zero(t, free.Price)
		assert.Equal(t, 3, free.DeliveryDays)
	})

	t.Run("no free shipping just below threshold", func(t *testing.T) {
		quotes := e.Estimate(metroDestination(), items, 499.99)
		assert.Nil(t, quoteByService(t, quotes, "Free Shipping"))
	})

	t.Run("remote zone requires higher threshold", func(t *testing.T) {
		dest := metroDestination()
		dest.State = "WA"

		quotes := e.Estimate(dest, items, 500)
		assert.Nil(t, quoteByService(t, quotes, "Free Shipping"))

		quotes = e.Estimate(dest, items, 1000)
		assert.NotNil(t, quoteByService(t, quotes, "Free Shipping"))
	})

	t.Run("unknown state yields nothing", func(t *testing.T) {
		dest := metroDestination()
		dest.State = "ZZ"
		assert.Empty(t, e.Estimate(dest, items, 100))
	})
}

func TestEstimateInternational(t *testing.T) {
	e := NewFallbackEstimator(nil)
	items := []PackageItem{createTestItem(3)}

	t.Run("flat rate within allowance", func(t *testing.T) {
		quotes := e.EstimateInternational("New Zealand", items, 100)
		require.Len(t, quotes, 1)
		assert.InDelta(t, 45.00, quotes[0].Price, 0.001)
		assert.Equal(t, 7, quotes[0].DeliveryDays)
		assert.Equal(t, QuoteSourceFallback, quotes[0].Source)
		assert.Contains(t, quotes[0].Restrictions, "Customs duties may apply")
	})

	t.Run("per-kg surcharge above allowance", func(t *testing.T) {
		heavy := []PackageItem{createTestItem(10)}
		quotes := e.EstimateInternational("New Zealand", heavy, 100)
		require.Len(t, quotes, 1)
		assert.InDelta(t, 45.00+5*8.50, quotes[0].Price, 0.001)
	})

	t.Run("value surcharge above threshold", func(t *testing.T) {
		quotes := e.EstimateInternational("new zealand", items, 2000)
		require.Len(t, quotes, 1)
		assert.InDelta(t, 45.00+2000*0.05, quotes[0].Price, 0.001)
	})

	t.Run("unknown country yields nothing", func(t *testing.T) {
		assert.Empty(t, e.EstimateInternational("Atlantis", items, 100))
	})
}

func TestRestrictionAnnotations(t *testing.T) {
	e := NewFallbackEstimator(nil)

	t.Run("signature required for high value", func(t *testing.T) {
		quotes := e.Estimate(metroDestination(), []PackageItem{createTestItem(5)}, 1500)
		standard := quoteByService(t, quotes, "Standard")
		require.NotNil(t, standard)
		assert.Contains(t, standard.Restrictions, "Signature required on delivery")
	})

	t.Run("oversized handling for large dimensions", func(t *testing.T) {
		item := createTestItem(5)
		item.Dimensions.Length = 150
		quotes := e.Estimate(metroDestination(), []PackageItem{item}, 100)
		standard := quoteByService(t, quotes, "Standard")
		require.NotNil(t, standard)
		assert.Contains(t, standard.Restrictions, "Oversized handling applies")
	})

	t.Run("pallet annotation for heavy items", func(t *testing.T) {
		quotes := e.Estimate(metroDestination(), []PackageItem{createTestItem(45)}, 100)
		standard := quoteByService(t, quotes, "Standard")
		require.NotNil(t, standard)
		assert.Contains(t, standard.Restrictions, "Palletized freight handling")
	})
}
