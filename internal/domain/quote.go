package domain

import "sort"

// QuoteSource tags where a quote came from. Fallback quotes are
// approximations and must be visually distinguishable downstream.
type QuoteSource string

const (
	QuoteSourceCarrier  QuoteSource = "carrier"
	QuoteSourceFallback QuoteSource = "fallback"
)

// Quote is a normalized shipping option presented to the checkout flow
type Quote struct {
	Service      string      `json:"service" bson:"service"`
	Description  string      `json:"description" bson:"description"`
	Price        float64     `json:"price" bson:"price"`
	DeliveryDays int         `json:"deliveryDays" bson:"deliveryDays"`
	CarrierName  string      `json:"carrierName,omitempty" bson:"carrierName,omitempty"`
	Restrictions []string    `json:"restrictions,omitempty" bson:"restrictions,omitempty"`
	Source       QuoteSource `json:"source" bson:"source"`
}

// RankByPrice orders quotes cheapest first. Equal prices keep their
// relative order so the carrier's own ordering breaks ties.
func RankByPrice(quotes []Quote) []Quote {
	ranked := make([]Quote, len(quotes))
	copy(ranked, quotes)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Price < ranked[j].Price
	})
	return ranked
}
