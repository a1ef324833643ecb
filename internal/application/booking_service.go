package application

import (
	"context"
	"time"

	"github.com/vanfit-commerce/shipping-service/internal/domain"
	apperrors "github.com/vanfit-commerce/shipping-service/pkg/errors"
	"github.com/vanfit-commerce/shipping-service/pkg/kafka"
	"github.com/vanfit-commerce/shipping-service/pkg/logging"
	"github.com/vanfit-commerce/shipping-service/pkg/metrics"
)

// BookingService books freight jobs with the carrier for quoted services.
// Unlike quoting there is no fallback: a booking either succeeds with the
// carrier or fails.
type BookingService struct {
	carrier  domain.CarrierService
	producer *kafka.Producer
	logger   *logging.Logger
	metrics  *metrics.Metrics
}

// NewBookingService creates a new BookingService
func NewBookingService(
	carrier domain.CarrierService,
	producer *kafka.Producer,
	logger *logging.Logger,
	m *metrics.Metrics,
) *BookingService {
	return &BookingService{
		carrier:  carrier,
		producer: producer,
		logger:   logger,
		metrics:  m,
	}
}

// CreateBooking books a freight job for a previously quoted service
func (s *BookingService) CreateBooking(ctx context.Context, cmd CreateBookingCommand) (*BookingDTO, error) {
	normalized, fieldErrs := domain.ValidateAddress(cmd.Address)
	if fieldErrs != nil {
		return nil, apperrors.ErrValidationWithFields("invalid delivery address", fieldErrs.ToMessages())
	}
	if itemErrs := domain.ValidateItems(cmd.Items); itemErrs != nil {
		return nil, apperrors.ErrValidationWithFields("invalid package items", itemErrs.ToMessages())
	}
	if cmd.ServiceCode == "" {
		return nil, apperrors.ErrValidation("service code is required")
	}

	items, _ := domain.NormalizeItems(cmd.Items)

	confirmation, err := s.carrier.CreateBooking(ctx, domain.BookingRequest{
		Destination:   *normalized,
		Items:         items,
		ServiceCode:   cmd.ServiceCode,
		DeclaredValue: cmd.DeclaredValue,
		Reference:     cmd.Reference,
		ContactName:   cmd.ContactName,
		ContactPhone:  cmd.ContactPhone,
		ContactEmail:  cmd.ContactEmail,
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to create booking",
			"reference", cmd.Reference,
			"service", cmd.ServiceCode,
		)
		return nil, mapCarrierError(err)
	}

	s.logger.WithContext(ctx).Info("Booking created",
		"bookingId", confirmation.BookingID,
		"reference", cmd.Reference,
	)
	s.publishBookingCreated(ctx, cmd.Reference, confirmation)

	return ToBookingDTO(confirmation), nil
}

// GetBookingStatus retrieves the status of a booked job
func (s *BookingService) GetBookingStatus(ctx context.Context, query GetBookingStatusQuery) (*BookingStatusDTO, error) {
	if query.BookingID == "" {
		return nil, apperrors.ErrValidation("booking id is required")
	}

	status, err := s.carrier.GetBookingStatus(ctx, query.BookingID)
	if err != nil {
		return nil, mapCarrierError(err)
	}
	return ToBookingStatusDTO(status), nil
}

func (s *BookingService) publishBookingCreated(ctx context.Context, reference string, confirmation *domain.BookingConfirmation) {
	if s.producer == nil {
		return
	}

	envelope := kafka.NewEventEnvelopeFromContext(
		ctx,
		"com.vanfit.shipping.booking.created",
		eventSource,
		"booking/"+confirmation.BookingID,
		map[string]any{
			"bookingId":     confirmation.BookingID,
			"connoteNumber": confirmation.ConnoteNumber,
			"reference":     reference,
			"totalPrice":    confirmation.TotalPrice,
		},
	)

	start := time.Now()
	err := s.producer.PublishEvent(ctx, kafka.Topics.BookingEvents, envelope)
	s.metrics.RecordKafkaPublish(kafka.Topics.BookingEvents, envelope.Type, err == nil, time.Since(start))
	if err != nil {
		s.logger.WithError(err).Warn("Failed to publish booking event",
			"bookingId", confirmation.BookingID,
		)
	}
}

// mapCarrierError converts a classified carrier failure into the API error
// taxonomy. Validation details are passed through so the caller can see
// which fields the carrier refused.
func mapCarrierError(err error) error {
	carrierErr, ok := domain.AsCarrierError(err)
	if !ok {
		return apperrors.ErrInternal(err.Error())
	}

	switch carrierErr.Kind {
	case domain.CarrierErrValidation:
		appErr := apperrors.ErrValidation(carrierErr.Message)
		if len(carrierErr.FieldMessages) > 0 {
			appErr = appErr.WithDetails(carrierErr.FieldMessages)
		}
		return appErr
	case domain.CarrierErrAuth:
		return apperrors.ErrServiceUnavailable("carrier")
	case domain.CarrierErrRateLimited:
		return apperrors.ErrRateLimitExceeded()
	default:
		return apperrors.ErrServiceUnavailable("carrier")
	}
}
