package carriers

import (
	"github.com/vanfit-commerce/shipping-service/internal/domain"
)

// DirectFreight job classifications. A shipment with any palletized item is
// booked as a direct/business job with forklift handling; everything else is
// home delivery with authority-to-leave.
const (
	jobTypeDirect       = 2
	jobTypeHomeDelivery = 3

	itemTypeCarton = 0
	itemTypePallet = 2
)

// PickupLocation is the configured warehouse the carrier collects from
type PickupLocation struct {
	Name           string
	Address        string
	AddressLineTwo string
	Suburb         string
	Postcode       string
	State          string
}

// dfLocality is the carrier's suburb/postcode/state block
type dfLocality struct {
	Suburb   string `json:"Suburb"`
	Postcode string `json:"Postcode"`
	State    string `json:"State"`
}

// dfLocation is an address block in the carrier's request shape
type dfLocation struct {
	Name           string     `json:"Name"`
	Address        string     `json:"Address"`
	AddressLineTwo string     `json:"AddressLineTwo"`
	Locality       dfLocality `json:"Locality"`
}

// dfItem is a single package line in the carrier's request shape
type dfItem struct {
	ItemType       int     `json:"ItemType"`
	Description    string  `json:"Description"`
	Quantity       int     `json:"Quantity"`
	Height         float64 `json:"Height"`
	Width          float64 `json:"Width"`
	Length         float64 `json:"Length"`
	Weight         float64 `json:"Weight"`
	Consolidatable bool    `json:"Consolidatable"`
}

// dfQuoteRequest is the request body for the carrier's quote endpoint
type dfQuoteRequest struct {
	JobType                       int        `json:"JobType"`
	BuyerIsBusiness               bool       `json:"BuyerIsBusiness"`
	BuyerHasForklift              bool       `json:"BuyerHasForklift"`
	ReturnAuthorityToLeaveOptions bool       `json:"ReturnAuthorityToLeaveOptions"`
	PickupLocation                dfLocation `json:"PickupLocation"`
	BuyerLocation                 dfLocation `json:"BuyerLocation"`
	Items                         []dfItem   `json:"Items"`
	DeclaredValue                 float64    `json:"DeclaredValue,omitempty"`
}

// QuoteRequestBuilder translates validated domain input into the carrier's
// wire format. Building is pure; all inputs are assumed already validated.
type QuoteRequestBuilder struct {
	pickup PickupLocation
}

// NewQuoteRequestBuilder creates a builder with the configured pickup warehouse
func NewQuoteRequestBuilder(pickup PickupLocation) *QuoteRequestBuilder {
	return &QuoteRequestBuilder{pickup: pickup}
}

// BuildQuoteRequest maps a quote request into the carrier's shape. Job
// classification is all-or-nothing at the shipment level: one palletized
// item flips the job-level flags for the whole shipment, while each item's
// ItemType is decided per item.
func (b *QuoteRequestBuilder) BuildQuoteRequest(request domain.CarrierQuoteRequest) *dfQuoteRequest {
	needsPallet := domain.AnyNeedsPallet(request.Items)

	jobType := jobTypeHomeDelivery
	if needsPallet {
		jobType = jobTypeDirect
	}

	items := make([]dfItem, len(request.Items))
	for i, item := range request.Items {
		items[i] = b.buildItem(item)
	}

	return &dfQuoteRequest{
		JobType:                       jobType,
		BuyerIsBusiness:               needsPallet,
		BuyerHasForklift:              needsPallet,
		ReturnAuthorityToLeaveOptions: !needsPallet,
		PickupLocation:                b.pickupLocation(),
		BuyerLocation:                 buyerLocation(request.Destination),
		Items:                         items,
		DeclaredValue:                 request.DeclaredValue,
	}
}

func (b *QuoteRequestBuilder) buildItem(item domain.PackageItem) dfItem {
	itemType := itemTypeCarton
	if item.NeedsPallet() {
		itemType = itemTypePallet
	}

	return dfItem{
		ItemType:       itemType,
		Description:    truncate(item.Name, domain.MaxItemNameLength),
		Quantity:       item.Quantity,
		Height:         item.Dimensions.Height,
		Width:          item.Dimensions.Width,
		Length:         item.Dimensions.Length,
		Weight:         item.WeightKg,
		Consolidatable: !item.NeedsPallet(),
	}
}

func (b *QuoteRequestBuilder) pickupLocation() dfLocation {
	return dfLocation{
		Name:           b.pickup.Name,
		Address:        b.pickup.Address,
		AddressLineTwo: b.pickup.AddressLineTwo,
		Locality: dfLocality{
			Suburb:   b.pickup.Suburb,
			Postcode: b.pickup.Postcode,
			State:    b.pickup.State,
		},
	}
}

func buyerLocation(dest domain.NormalizedAddress) dfLocation {
	return dfLocation{
		Name:    "Delivery Address",
		Address: dest.Street,
		Locality: dfLocality{
			Suburb:   dest.Suburb,
			Postcode: dest.Postcode,
			State:    dest.State,
		},
	}
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
