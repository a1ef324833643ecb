package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/vanfit-commerce/shipping-service/internal/domain"
	"github.com/vanfit-commerce/shipping-service/pkg/errors"
	"github.com/vanfit-commerce/shipping-service/pkg/logging"
)

const (
	minSearchQueryLength = 2
	maxFallbackResults   = 10
)

// staticSuburbs is a small embedded list of major localities used when the
// carrier's autocomplete is unavailable. Checkout stays usable either way.
var staticSuburbs = []domain.SuburbResult{
	{Suburb: "Sydney", Postcode: "2000", State: "NSW"},
	{Suburb: "Newcastle", Postcode: "2300", State: "NSW"},
	{Suburb: "Wollongong", Postcode: "2500", State: "NSW"},
	{Suburb: "Wagga Wagga", Postcode: "2650", State: "NSW"},
	{Suburb: "Canberra", Postcode: "2600", State: "ACT"},
	{Suburb: "Melbourne", Postcode: "3000", State: "VIC"},
	{Suburb: "Geelong", Postcode: "3220", State: "VIC"},
	{Suburb: "Ballarat", Postcode: "3350", State: "VIC"},
	{Suburb: "Bendigo", Postcode: "3550", State: "VIC"},
	{Suburb: "Brisbane", Postcode: "4000", State: "QLD"},
	{Suburb: "Gold Coast", Postcode: "4217", State: "QLD"},
	{Suburb: "Townsville", Postcode: "4810", State: "QLD"},
	{Suburb: "Cairns", Postcode: "4870", State: "QLD"},
	{Suburb: "Toowoomba", Postcode: "4350", State: "QLD"},
	{Suburb: "Adelaide", Postcode: "5000", State: "SA"},
	{Suburb: "Mount Gambier", Postcode: "5290", State: "SA"},
	{Suburb: "Perth", Postcode: "6000", State: "WA"},
	{Suburb: "Bunbury", Postcode: "6230", State: "WA"},
	{Suburb: "Hobart", Postcode: "7000", State: "TAS"},
	{Suburb: "Launceston", Postcode: "7250", State: "TAS"},
	{Suburb: "Darwin", Postcode: "0800", State: "NT"},
	{Suburb: "Alice Springs", Postcode: "0870", State: "NT"},
}

// AddressSearchService serves suburb autocomplete, preferring the carrier's
// locality index and degrading to the embedded static list.
type AddressSearchService struct {
	carrier domain.CarrierService
	logger  *logging.Logger
}

// NewAddressSearchService creates a new AddressSearchService
func NewAddressSearchService(carrier domain.CarrierService, logger *logging.Logger) *AddressSearchService {
	return &AddressSearchService{carrier: carrier, logger: logger}
}

// Search performs a suburb lookup. Queries shorter than two characters are
// rejected rather than flooding the carrier with single-letter scans.
func (s *AddressSearchService) Search(ctx context.Context, query SearchAddressQuery) (*AddressSearchDTO, error) {
	trimmed := strings.TrimSpace(query.Query)
	if len(trimmed) < minSearchQueryLength {
		return nil, errors.ErrValidation(
			fmt.Sprintf("query must be at least %d characters", minSearchQueryLength))
	}

	results, err := s.carrier.SearchSuburbs(ctx, domain.SuburbQuery{
		Query: trimmed,
		Type:  query.Type,
		State: query.State,
	})
	if err != nil {
		s.logger.WithContext(ctx).Warn("Carrier suburb search failed, using static list",
			"query", trimmed,
			"error", err.Error(),
		)
		return &AddressSearchDTO{
			Results:  ToSuburbDTOs(searchStatic(trimmed, query.State)),
			Fallback: true,
		}, nil
	}

	return &AddressSearchDTO{Results: ToSuburbDTOs(results)}, nil
}

// SearchDepots looks up carrier depots serving a locality. Depot data only
// exists on the carrier side, so unlike suburb search there is no static
// fallback; carrier failures surface as errors.
func (s *AddressSearchService) SearchDepots(ctx context.Context, query SearchDepotsQuery) ([]DepotDTO, error) {
	suburb := strings.TrimSpace(query.Suburb)
	postcode := strings.TrimSpace(query.Postcode)
	if suburb == "" && postcode == "" {
		return nil, errors.ErrValidation("suburb or postcode is required")
	}

	depots, err := s.carrier.SearchDepots(ctx, domain.DepotQuery{
		Suburb:   suburb,
		Postcode: postcode,
		State:    query.State,
	})
	if err != nil {
		s.logger.WithContext(ctx).Warn("Carrier depot search failed",
			"suburb", suburb,
			"postcode", postcode,
			"error", err.Error(),
		)
		return nil, mapCarrierError(err)
	}

	return ToDepotDTOs(depots), nil
}

// searchStatic substring-filters the embedded locality list, capped at 10
func searchStatic(query, state string) []domain.SuburbResult {
	needle := strings.ToLower(query)

	var matches []domain.SuburbResult
	for _, s := range staticSuburbs {
		if state != "" && !strings.EqualFold(s.State, state) {
			continue
		}
		if !strings.Contains(strings.ToLower(s.Suburb), needle) &&
			!strings.HasPrefix(s.Postcode, query) {
			continue
		}

		s.Value = fmt.Sprintf("%s %s %s", s.Suburb, s.State, s.Postcode)
		s.Label = s.Value
		matches = append(matches, s)
		if len(matches) == maxFallbackResults {
			break
		}
	}
	return matches
}
