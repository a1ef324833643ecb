package application

import (
	"fmt"
	"strings"

	"github.com/vanfit-commerce/shipping-service/internal/domain"
)

// FromCarrierQuote normalizes a raw carrier quote row into a domain Quote.
// Carrier service names arrive in inconsistent casing; they are normalized
// to title case so selection by service name is stable.
func FromCarrierQuote(q domain.CarrierQuote) domain.Quote {
	name := normalizeServiceName(q.ServiceName)
	if name == "" {
		name = q.ServiceCode
	}

	return domain.Quote{
		Service:      name,
		Description:  deliveryDescription(q.DeliveryDays),
		Price:        q.Price,
		DeliveryDays: q.DeliveryDays,
		CarrierName:  q.CarrierName,
		Source:       domain.QuoteSourceCarrier,
	}
}

// FromCarrierQuotes normalizes and ranks a carrier quote set
func FromCarrierQuotes(rows []domain.CarrierQuote) []domain.Quote {
	quotes := make([]domain.Quote, len(rows))
	for i, row := range rows {
		quotes[i] = FromCarrierQuote(row)
	}
	return domain.RankByPrice(quotes)
}

func normalizeServiceName(name string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(name)))
	for i, f := range fields {
		fields[i] = strings.ToUpper(f[:1]) + f[1:]
	}
	return strings.Join(fields, " ")
}

func deliveryDescription(days int) string {
	switch {
	case days <= 0:
		return ""
	case days == 1:
		return "Delivery in 1 business day"
	default:
		return fmt.Sprintf("Delivery in %d business days", days)
	}
}

// ToQuoteDTO converts a domain Quote to QuoteDTO
func ToQuoteDTO(q domain.Quote) QuoteDTO {
	return QuoteDTO{
		Service:      q.Service,
		Description:  q.Description,
		Price:        q.Price,
		DeliveryDays: q.DeliveryDays,
		CarrierName:  q.CarrierName,
		Restrictions: q.Restrictions,
		Source:       string(q.Source),
	}
}

// ToQuoteDTOs converts a slice of domain Quotes
func ToQuoteDTOs(quotes []domain.Quote) []QuoteDTO {
	dtos := make([]QuoteDTO, len(quotes))
	for i, q := range quotes {
		dtos[i] = ToQuoteDTO(q)
	}
	return dtos
}

// ToAddressDTO converts a normalized address to AddressDTO
func ToAddressDTO(addr *domain.NormalizedAddress) *AddressDTO {
	if addr == nil {
		return nil
	}
	return &AddressDTO{
		Street:   addr.Street,
		Suburb:   addr.Suburb,
		State:    addr.State,
		Postcode: addr.Postcode,
		Country:  addr.Country,
	}
}

// ToCartShippingDTO converts a session aggregate to CartShippingDTO
func ToCartShippingDTO(session *domain.CartShippingSession) *CartShippingDTO {
	if session == nil {
		return nil
	}

	dto := &CartShippingDTO{
		CartID:    session.CartID,
		Status:    string(session.Status),
		Address:   ToAddressDTO(session.Address),
		Quotes:    ToQuoteDTOs(session.Quotes),
		LastError: session.LastError,
		UpdatedAt: session.UpdatedAt,
	}

	if session.SelectedQuote != nil {
		selected := ToQuoteDTO(*session.SelectedQuote)
		dto.SelectedQuote = &selected
	}

	return dto
}

// ToSuburbDTO converts a domain suburb result
func ToSuburbDTO(r domain.SuburbResult) SuburbDTO {
	return SuburbDTO{
		Value:       r.Value,
		Label:       r.Label,
		Description: r.Description,
		Suburb:      r.Suburb,
		Postcode:    r.Postcode,
		State:       r.State,
		LocalityID:  r.LocalityID,
	}
}

// ToSuburbDTOs converts a slice of domain suburb results
func ToSuburbDTOs(results []domain.SuburbResult) []SuburbDTO {
	dtos := make([]SuburbDTO, len(results))
	for i, r := range results {
		dtos[i] = ToSuburbDTO(r)
	}
	return dtos
}

// ToDepotDTO converts a domain depot
func ToDepotDTO(d domain.Depot) DepotDTO {
	return DepotDTO{
		Name:     d.Name,
		Address:  d.Address,
		Suburb:   d.Suburb,
		Postcode: d.Postcode,
		State:    d.State,
		Phone:    d.Phone,
	}
}

// ToDepotDTOs converts a slice of domain depots
func ToDepotDTOs(depots []domain.Depot) []DepotDTO {
	dtos := make([]DepotDTO, len(depots))
	for i, d := range depots {
		dtos[i] = ToDepotDTO(d)
	}
	return dtos
}

// ToBookingDTO converts a booking confirmation
func ToBookingDTO(c *domain.BookingConfirmation) *BookingDTO {
	if c == nil {
		return nil
	}
	return &BookingDTO{
		BookingID:     c.BookingID,
		ConnoteNumber: c.ConnoteNumber,
		LabelURL:      c.LabelURL,
		TotalPrice:    c.TotalPrice,
		PickupDate:    c.PickupDate,
	}
}

// ToBookingStatusDTO converts a booking status
func ToBookingStatusDTO(s *domain.BookingStatus) *BookingStatusDTO {
	if s == nil {
		return nil
	}
	return &BookingStatusDTO{
		BookingID:   s.BookingID,
		Status:      s.Status,
		StatusLabel: s.StatusLabel,
	}
}
