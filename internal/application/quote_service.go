package application

import (
	"context"
	"errors"

	"github.com/vanfit-commerce/shipping-service/internal/domain"
	apperrors "github.com/vanfit-commerce/shipping-service/pkg/errors"
	"github.com/vanfit-commerce/shipping-service/pkg/logging"
	"github.com/vanfit-commerce/shipping-service/pkg/metrics"
)

// QuoteService orchestrates quote acquisition: validation, the carrier as
// the primary source, and the fallback estimator when the carrier cannot
// serve. A quote set always comes from exactly one source.
type QuoteService struct {
	carrier   domain.CarrierService
	estimator *domain.FallbackEstimator
	logger    *logging.Logger
	metrics   *metrics.Metrics
}

// NewQuoteService creates a new QuoteService
func NewQuoteService(
	carrier domain.CarrierService,
	estimator *domain.FallbackEstimator,
	logger *logging.Logger,
	m *metrics.Metrics,
) *QuoteService {
	return &QuoteService{
		carrier:   carrier,
		estimator: estimator,
		logger:    logger,
		metrics:   m,
	}
}

// GetQuotes validates the address and items, then returns a ranked quote set
func (s *QuoteService) GetQuotes(ctx context.Context, cmd GetQuotesCommand) (*QuoteSetDTO, error) {
	normalized, fieldErrs := domain.ValidateAddress(cmd.Address)
	if fieldErrs != nil {
		for field := range fieldErrs {
			s.metrics.RecordAddressRejected(field)
		}
		s.logger.WithContext(ctx).Info("Delivery address rejected",
			"errorCount", len(fieldErrs),
		)
		return nil, apperrors.ErrValidationWithFields("invalid delivery address", fieldErrs.ToMessages())
	}

	if itemErrs := domain.ValidateItems(cmd.Items); itemErrs != nil {
		return nil, apperrors.ErrValidationWithFields("invalid package items", itemErrs.ToMessages())
	}

	items, warnings := domain.NormalizeItems(cmd.Items)
	for _, w := range warnings {
		s.logger.WithContext(ctx).Warn("Package item normalized", "detail", w)
	}

	quotes, err := s.fetchQuotes(ctx, *normalized, items, cmd.DeclaredValue)
	if err != nil {
		if errors.Is(err, domain.ErrNoQuotesAvailable) {
			return nil, apperrors.ErrValidation(domain.ErrNoQuotesAvailable.Error())
		}
		return nil, err
	}

	source := quotes[0].Source
	return &QuoteSetDTO{
		Quotes:   ToQuoteDTOs(quotes),
		Source:   string(source),
		Fallback: source == domain.QuoteSourceFallback,
		Warnings: warnings,
	}, nil
}

// fetchQuotes acquires quotes for an already validated destination. Every
// carrier failure, regardless of classification, falls through to the
// estimator; only an empty fallback result is a hard failure. Carrier and
// estimated quotes are never mixed in one set.
func (s *QuoteService) fetchQuotes(ctx context.Context, dest domain.NormalizedAddress, items []domain.PackageItem, declaredValue float64) ([]domain.Quote, error) {
	carrierQuotes, err := s.carrier.GetQuotes(ctx, domain.CarrierQuoteRequest{
		Destination:   dest,
		Items:         items,
		DeclaredValue: declaredValue,
	})

	if err == nil && len(carrierQuotes) > 0 {
		s.metrics.RecordQuotesServed(string(domain.QuoteSourceCarrier))
		return FromCarrierQuotes(carrierQuotes), nil
	}

	reason := "empty_result"
	if err != nil {
		reason = "carrier_error"
		if carrierErr, ok := domain.AsCarrierError(err); ok {
			reason = string(carrierErr.Kind)
			if carrierErr.Kind == domain.CarrierErrValidation {
				// The carrier rejecting a validated request means the
				// request builder and the carrier disagree on the wire
				// shape. Serve fallback rates, but make noise.
				s.logger.WithContext(ctx).Error("Carrier rejected a validated quote request",
					"fieldErrors", carrierErr.FieldMessages,
					"message", carrierErr.Message,
				)
			}
		}
		s.logger.WithContext(ctx).Warn("Carrier quote fetch failed, using fallback rates",
			"reason", reason,
			"error", err.Error(),
		)
	}
	s.metrics.RecordQuoteFallback(reason)

	quotes := s.estimator.Estimate(dest, items, declaredValue)
	if len(quotes) == 0 {
		return nil, domain.ErrNoQuotesAvailable
	}

	s.metrics.RecordQuotesServed(string(domain.QuoteSourceFallback))
	return domain.RankByPrice(quotes), nil
}
