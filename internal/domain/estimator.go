package domain

import (
	"fmt"
	"strings"
)

// Zone groups destination states sharing a rate table. Zones are checked
// in list order and the first zone containing the state wins; the order
// below is the explicit priority, not an accident of data entry.
type Zone struct {
	Name         string
	States       []string
	BaseRate     float64
	ExpressRate  float64
	StandardDays int
	ExpressDays  int
	Remote       bool
}

// CountryRate is a flat international estimate for a destination country
type CountryRate struct {
	Rate       float64
	Days       int
	PerKgAbove float64 // surcharge per kg above the free allowance
}

// EstimatorConfig holds the tunable thresholds of the fallback estimator
type EstimatorConfig struct {
	FreeShippingThreshold       float64
	RemoteFreeShippingThreshold float64
	SignatureValueThreshold     float64
	OversizeDimensionCm         float64
	IntlFreeWeightAllowanceKg   float64
	IntlValueThreshold          float64
	IntlValueSurchargePct       float64
}

// DefaultEstimatorConfig returns the standard storefront thresholds
func DefaultEstimatorConfig() *EstimatorConfig {
	return &EstimatorConfig{
		FreeShippingThreshold:       500,
		RemoteFreeShippingThreshold: 1000,
		SignatureValueThreshold:     1000,
		OversizeDimensionCm:         120,
		IntlFreeWeightAllowanceKg:   5,
		IntlValueThreshold:          1000,
		IntlValueSurchargePct:       0.05,
	}
}

// weightStep maps a chargeable-weight ceiling to a flat surcharge
type weightStep struct {
	UpToKg    float64
	Surcharge float64
}

// Surcharge steps are cumulative weight bands with a cap beyond 30kg
var defaultWeightSteps = []weightStep{
	{UpToKg: 5, Surcharge: 0},
	{UpToKg: 10, Surcharge: 5.00},
	{UpToKg: 20, Surcharge: 10.00},
	{UpToKg: 30, Surcharge: 18.00},
}

const weightSurchargeCap = 25.00

// defaultZones is the ordered zone list. WA deliberately appears only in
// the remote zone; keep membership a strict partition so first-match-wins
// never silently shadows a rate.
var defaultZones = []Zone{
	{
		Name:         "metro",
		States:       []string{"NSW", "VIC", "ACT"},
		BaseRate:     12.95,
		ExpressRate:  22.95,
		StandardDays: 3,
		ExpressDays:  1,
	},
	{
		Name:         "regional",
		States:       []string{"QLD", "SA"},
		BaseRate:     16.95,
		ExpressRate:  28.95,
		StandardDays: 5,
		ExpressDays:  2,
	},
	{
		Name:         "remote",
		States:       []string{"WA", "NT", "TAS"},
		BaseRate:     24.95,
		ExpressRate:  39.95,
		StandardDays: 8,
		ExpressDays:  4,
		Remote:       true,
	},
}

var defaultCountryRates = map[string]CountryRate{
	"new zealand":    {Rate: 45.00, Days: 7, PerKgAbove: 8.50},
	"united states":  {Rate: 89.00, Days: 10, PerKgAbove: 12.50},
	"united kingdom": {Rate: 95.00, Days: 12, PerKgAbove: 12.50},
	"canada":         {Rate: 92.00, Days: 12, PerKgAbove: 12.50},
	"singapore":      {Rate: 55.00, Days: 8, PerKgAbove: 9.00},
	"japan":          {Rate: 68.00, Days: 9, PerKgAbove: 10.00},
}

// FallbackEstimator produces approximate quotes from local data when the
// carrier API is unavailable. It performs no network calls.
type FallbackEstimator struct {
	zones        []Zone
	countryRates map[string]CountryRate
	weightSteps  []weightStep
	config       *EstimatorConfig
}

// NewFallbackEstimator creates an estimator with the built-in zone and
// country tables
func NewFallbackEstimator(config *EstimatorConfig) *FallbackEstimator {
	if config == nil {
		config = DefaultEstimatorConfig()
	}
	return &FallbackEstimator{
		zones:        defaultZones,
		countryRates: defaultCountryRates,
		weightSteps:  defaultWeightSteps,
		config:       config,
	}
}

// ZoneForState returns the first zone whose membership contains the state
func (e *FallbackEstimator) ZoneForState(state string) *Zone {
	for i := range e.zones {
		for _, s := range e.zones[i].States {
			if s == state {
				return &e.zones[i]
			}
		}
	}
	return nil
}

// WeightSurcharge computes the flat step surcharge for a chargeable weight
func (e *FallbackEstimator) WeightSurcharge(weightKg float64) float64 {
	for _, step := range e.weightSteps {
		if weightKg <= step.UpToKg {
			return step.Surcharge
		}
	}
	return weightSurchargeCap
}

// Estimate produces fallback quotes for a validated destination. Domestic
// destinations use the zone table; anything else goes through the
// international country table. A nil/empty result means the destination
// is not serviceable from local data.
func (e *FallbackEstimator) Estimate(dest NormalizedAddress, items []PackageItem, declaredValue float64) []Quote {
	if strings.EqualFold(dest.Country, SupportedCountry) {
		return e.estimateDomestic(dest.State, items, declaredValue)
	}
	return e.EstimateInternational(dest.Country, items, declaredValue)
}

func (e *FallbackEstimator) estimateDomestic(state string, items []PackageItem, declaredValue float64) []Quote {
	zone := e.ZoneForState(state)
	if zone == nil {
		return nil
	}

	surcharge := e.WeightSurcharge(TotalWeightKg(items))
	restrictions := e.restrictions(items, declaredValue, false)

	quotes := []Quote{
		{
			Service:      "Standard",
			Description:  fmt.Sprintf("Estimated standard delivery (%s zone)", zone.Name),
			Price:        round2(zone.BaseRate + surcharge),
			DeliveryDays: zone.StandardDays,
			Restrictions: restrictions,
			Source:       QuoteSourceFallback,
		},
		{
			Service:      "Express",
			Description:  fmt.Sprintf("Estimated express delivery (%s zone)", zone.Name),
			Price:        round2(zone.ExpressRate + surcharge),
			DeliveryDays: zone.ExpressDays,
			Restrictions: restrictions,
			Source:       QuoteSourceFallback,
		},
	}

	threshold := e.config.FreeShippingThreshold
	if zone.Remote {
		threshold = e.config.RemoteFreeShippingThreshold
	}
	if declaredValue >= threshold {
		quotes = append(quotes, Quote{
			Service:      "Free Shipping",
			Description:  "Free standard delivery on qualifying orders",
			Price:        0,
			DeliveryDays: zone.StandardDays,
			Restrictions: restrictions,
			Source:       QuoteSourceFallback,
		})
	}

	return quotes
}

// EstimateInternational looks up the static country table. Rate is
// weight-adjusted above a free allowance and value-adjusted above a
// threshold to approximate customs and handling.
func (e *FallbackEstimator) EstimateInternational(country string, items []PackageItem, declaredValue float64) []Quote {
	rate, ok := e.countryRates[strings.ToLower(strings.TrimSpace(country))]
	if !ok {
		return nil
	}

	price := rate.Rate
	if excess := TotalWeightKg(items) - e.config.IntlFreeWeightAllowanceKg; excess > 0 {
		price += excess * rate.PerKgAbove
	}
	if declaredValue > e.config.IntlValueThreshold {
		price += declaredValue * e.config.IntlValueSurchargePct
	}

	restrictions := e.restrictions(items, declaredValue, true)

	return []Quote{{
		Service:      "International Economy",
		Description:  "Estimated international delivery",
		Price:        round2(price),
		DeliveryDays: rate.Days,
		Restrictions: restrictions,
		Source:       QuoteSourceFallback,
	}}
}

// restrictions builds advisory annotations; they never block a quote
func (e *FallbackEstimator) restrictions(items []PackageItem, declaredValue float64, international bool) []string {
	var out []string
	if declaredValue >= e.config.SignatureValueThreshold {
		out = append(out, "Signature required on delivery")
	}
	for _, item := range items {
		d := item.Dimensions
		if d.Length > e.config.OversizeDimensionCm || d.Width > e.config.OversizeDimensionCm || d.Height > e.config.OversizeDimensionCm {
			out = append(out, "Oversized handling applies")
			break
		}
	}
	if AnyNeedsPallet(items) {
		out = append(out, "Palletized freight handling")
	}
	if international {
		out = append(out, "Customs duties may apply")
	}
	return out
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
