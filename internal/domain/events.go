package domain

import "time"

// DomainEvent is implemented by all shipping session events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

type baseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e baseEvent) OccurredAt() time.Time { return e.Timestamp }

func newBaseEvent() baseEvent {
	return baseEvent{Timestamp: time.Now().UTC()}
}

// ShippingAddressChangedEvent is raised when a cart's destination changes,
// invalidating any previously fetched quotes
type ShippingAddressChangedEvent struct {
	baseEvent
	CartID   string `json:"cartId"`
	State    string `json:"state"`
	Postcode string `json:"postcode"`
}

func (e *ShippingAddressChangedEvent) EventType() string {
	return "com.vanfit.shipping.address.changed"
}

// ShippingQuotesReturnedEvent is raised when a quote fetch resolves.
// Source distinguishes real carrier pricing from fallback approximations.
type ShippingQuotesReturnedEvent struct {
	baseEvent
	CartID        string      `json:"cartId"`
	Source        QuoteSource `json:"source"`
	QuoteCount    int         `json:"quoteCount"`
	CheapestPrice float64     `json:"cheapestPrice"`
}

func (e *ShippingQuotesReturnedEvent) EventType() string {
	return "com.vanfit.shipping.quotes.returned"
}

// ShippingQuoteFailedEvent is raised when both carrier and fallback paths
// produced nothing usable
type ShippingQuoteFailedEvent struct {
	baseEvent
	CartID string `json:"cartId"`
	Reason string `json:"reason"`
}

func (e *ShippingQuoteFailedEvent) EventType() string {
	return "com.vanfit.shipping.quotes.failed"
}

// ShippingQuoteSelectedEvent is raised when the shopper picks an option
type ShippingQuoteSelectedEvent struct {
	baseEvent
	CartID  string  `json:"cartId"`
	Service string  `json:"service"`
	Price   float64 `json:"price"`
}

func (e *ShippingQuoteSelectedEvent) EventType() string {
	return "com.vanfit.shipping.quote.selected"
}
