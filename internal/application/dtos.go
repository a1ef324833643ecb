package application

import "time"

// QuoteDTO represents a single shipping option in responses
type QuoteDTO struct {
	Service      string   `json:"service"`
	Description  string   `json:"description,omitempty"`
	Price        float64  `json:"price"`
	DeliveryDays int      `json:"deliveryDays"`
	CarrierName  string   `json:"carrierName"`
	Restrictions []string `json:"restrictions,omitempty"`
	Source       string   `json:"source"`
}

// QuoteSetDTO is a ranked, single-source set of shipping options
type QuoteSetDTO struct {
	Quotes   []QuoteDTO `json:"quotes"`
	Source   string     `json:"source"`
	Fallback bool       `json:"fallback,omitempty"`
	Warnings []string   `json:"warnings,omitempty"`
}

// AddressDTO represents a validated delivery address
type AddressDTO struct {
	Street   string `json:"street"`
	Suburb   string `json:"suburb"`
	State    string `json:"state"`
	Postcode string `json:"postcode"`
	Country  string `json:"country"`
}

// CartShippingDTO represents a cart's shipping state in responses
type CartShippingDTO struct {
	CartID        string      `json:"cartId"`
	Status        string      `json:"status"`
	Address       *AddressDTO `json:"address,omitempty"`
	Quotes        []QuoteDTO  `json:"quotes"`
	SelectedQuote *QuoteDTO   `json:"selectedQuote,omitempty"`
	LastError     string      `json:"lastError,omitempty"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// SuburbDTO is one address autocomplete candidate
type SuburbDTO struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Suburb      string `json:"suburb"`
	Postcode    string `json:"postcode"`
	State       string `json:"state"`
	LocalityID  int    `json:"localityId,omitempty"`
}

// AddressSearchDTO is an autocomplete response; Fallback marks results that
// came from the embedded static list rather than the carrier
type AddressSearchDTO struct {
	Results  []SuburbDTO `json:"results"`
	Fallback bool        `json:"fallback,omitempty"`
}

// DepotDTO is one carrier depot location
type DepotDTO struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	Suburb   string `json:"suburb"`
	Postcode string `json:"postcode"`
	State    string `json:"state"`
	Phone    string `json:"phone,omitempty"`
}

// BookingDTO represents a booked freight job
type BookingDTO struct {
	BookingID     string  `json:"bookingId"`
	ConnoteNumber string  `json:"connoteNumber"`
	LabelURL      string  `json:"labelUrl,omitempty"`
	TotalPrice    float64 `json:"totalPrice"`
	PickupDate    string  `json:"pickupDate,omitempty"`
}

// BookingStatusDTO represents a booked job's current status
type BookingStatusDTO struct {
	BookingID   string `json:"bookingId"`
	Status      string `json:"status"`
	StatusLabel string `json:"statusLabel,omitempty"`
}
