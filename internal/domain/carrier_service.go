package domain

import (
	"context"
	"errors"
	"fmt"
)

// CarrierService is the domain port for the external carrier API.
// Implementations (adapters) translate domain models to the carrier's
// wire format and classify its failures.
type CarrierService interface {
	// GetQuotes retrieves freight quotes for a destination and item set
	GetQuotes(ctx context.Context, request CarrierQuoteRequest) ([]CarrierQuote, error)

	// CreateBooking books a freight job for a previously quoted service
	CreateBooking(ctx context.Context, request BookingRequest) (*BookingConfirmation, error)

	// SearchSuburbs performs suburb/address autocomplete against the carrier
	SearchSuburbs(ctx context.Context, query SuburbQuery) ([]SuburbResult, error)

	// SearchDepots finds carrier depots near a suburb
	SearchDepots(ctx context.Context, query DepotQuery) ([]Depot, error)

	// GetBookingStatus retrieves the status of a booked job
	GetBookingStatus(ctx context.Context, bookingID string) (*BookingStatus, error)

	// CarrierCode returns the code of the carrier this adapter talks to
	CarrierCode() string
}

// CarrierQuoteRequest is the validated input for a carrier quote lookup
type CarrierQuoteRequest struct {
	Destination   NormalizedAddress
	Items         []PackageItem
	DeclaredValue float64
}

// CarrierQuote is a single quote row as returned by the carrier,
// before normalization into a Quote
type CarrierQuote struct {
	ServiceCode  string
	ServiceName  string
	Price        float64
	DeliveryDays int
	CarrierName  string
}

// BookingRequest books a job for a selected quote
type BookingRequest struct {
	Destination   NormalizedAddress
	Items         []PackageItem
	ServiceCode   string
	DeclaredValue float64
	Reference     string
	ContactName   string
	ContactPhone  string
	ContactEmail  string
}

// BookingConfirmation is the carrier's acknowledgement of a booked job
type BookingConfirmation struct {
	BookingID     string
	ConnoteNumber string
	LabelURL      string
	TotalPrice    float64
	PickupDate    string
}

// BookingStatus describes where a booked job currently is
type BookingStatus struct {
	BookingID   string
	Status      string
	StatusLabel string
}

// SuburbQuery is an autocomplete lookup. Query must be at least 2 chars.
type SuburbQuery struct {
	Query string
	Type  string
	State string
}

// SuburbResult is one autocomplete candidate
type SuburbResult struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Suburb      string `json:"suburb"`
	Postcode    string `json:"postcode"`
	State       string `json:"state"`
	LocalityID  int    `json:"localityId,omitempty"`
}

// DepotQuery finds depots serving a suburb
type DepotQuery struct {
	Suburb   string
	Postcode string
	State    string
}

// Depot is a carrier depot location
type Depot struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	Suburb   string `json:"suburb"`
	Postcode string `json:"postcode"`
	State    string `json:"state"`
	Phone    string `json:"phone,omitempty"`
}

// CarrierErrorKind classifies a carrier API failure. Only rate-limit and
// transport failures are worth retrying; auth and validation failures are
// deterministic and short-circuit the retry loop.
type CarrierErrorKind string

const (
	CarrierErrAuth        CarrierErrorKind = "AUTHENTICATION"
	CarrierErrValidation  CarrierErrorKind = "VALIDATION"
	CarrierErrRateLimited CarrierErrorKind = "RATE_LIMITED"
	CarrierErrTransport   CarrierErrorKind = "TRANSPORT"
)

// CarrierError is a classified failure from the carrier API
type CarrierError struct {
	Kind          CarrierErrorKind
	StatusCode    int
	Message       string
	FieldMessages map[string]string
	Err           error
}

func (e *CarrierError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("carrier %s error: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("carrier %s error: %s", e.Kind, e.Message)
}

func (e *CarrierError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the retry loop should attempt this call again
func (e *CarrierError) Retryable() bool {
	return e.Kind == CarrierErrRateLimited || e.Kind == CarrierErrTransport
}

// NewCarrierError creates a classified carrier error
func NewCarrierError(kind CarrierErrorKind, statusCode int, message string, err error) *CarrierError {
	return &CarrierError{Kind: kind, StatusCode: statusCode, Message: message, Err: err}
}

// AsCarrierError unwraps err to a CarrierError if one is in the chain
func AsCarrierError(err error) (*CarrierError, bool) {
	var carrierErr *CarrierError
	if errors.As(err, &carrierErr) {
		return carrierErr, true
	}
	return nil, false
}
