package application

import (
	"github.com/vanfit-commerce/shipping-service/internal/domain"
)

// GetQuotesCommand requests shipping quotes for an ad-hoc address and item set
type GetQuotesCommand struct {
	Address       domain.Address
	Items         []domain.PackageItem
	DeclaredValue float64
}

// SetCartAddressCommand sets the delivery address on a cart's shipping session
type SetCartAddressCommand struct {
	CartID  string
	Address domain.Address
}

// RequestCartQuotesCommand starts a quote fetch for a cart
type RequestCartQuotesCommand struct {
	CartID        string
	Items         []domain.PackageItem
	DeclaredValue float64
}

// SelectCartQuoteCommand selects a quote by service name
type SelectCartQuoteCommand struct {
	CartID  string
	Service string
}

// GetCartShippingQuery retrieves a cart's shipping state
type GetCartShippingQuery struct {
	CartID string
}

// ClearCartShippingCommand removes a cart's shipping session
type ClearCartShippingCommand struct {
	CartID string
}

// SearchAddressQuery is a suburb autocomplete lookup
type SearchAddressQuery struct {
	Query string
	Type  string
	State string
}

// SearchDepotsQuery is a carrier depot lookup
type SearchDepotsQuery struct {
	Suburb   string
	Postcode string
	State    string
}

// CreateBookingCommand books a freight job for a selected service
type CreateBookingCommand struct {
	Address       domain.Address
	Items         []domain.PackageItem
	ServiceCode   string
	DeclaredValue float64
	Reference     string
	ContactName   string
	ContactPhone  string
	ContactEmail  string
}

// GetBookingStatusQuery retrieves the status of a booked job
type GetBookingStatusQuery struct {
	BookingID string
}
