package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vanfit-commerce/shipping-service/internal/domain"
	apperrors "github.com/vanfit-commerce/shipping-service/pkg/errors"
	"github.com/vanfit-commerce/shipping-service/pkg/kafka"
	"github.com/vanfit-commerce/shipping-service/pkg/logging"
	"github.com/vanfit-commerce/shipping-service/pkg/metrics"
)

const eventSource = "/shipping-service"

// CartShippingService manages per-cart shipping sessions: address changes,
// quote fetches with stale-result protection, and quote selection.
type CartShippingService struct {
	repo     domain.SessionRepository
	quotes   *QuoteService
	producer *kafka.Producer
	logger   *logging.Logger
	metrics  *metrics.Metrics
}

// NewCartShippingService creates a new CartShippingService
func NewCartShippingService(
	repo domain.SessionRepository,
	quotes *QuoteService,
	producer *kafka.Producer,
	logger *logging.Logger,
	m *metrics.Metrics,
) *CartShippingService {
	return &CartShippingService{
		repo:     repo,
		quotes:   quotes,
		producer: producer,
		logger:   logger,
		metrics:  m,
	}
}

// SetAddress validates and stores a delivery address on the cart's session,
// discarding any quotes computed for a previous address.
func (s *CartShippingService) SetAddress(ctx context.Context, cmd SetCartAddressCommand) (*CartShippingDTO, error) {
	normalized, fieldErrs := domain.ValidateAddress(cmd.Address)
	if fieldErrs != nil {
		for field := range fieldErrs {
			s.metrics.RecordAddressRejected(field)
		}
		return nil, apperrors.ErrValidationWithFields("invalid delivery address", fieldErrs.ToMessages())
	}

	session, err := s.loadOrCreate(ctx, cmd.CartID)
	if err != nil {
		return nil, err
	}

	session.SetAddress(*normalized)

	if err := s.repo.Save(ctx, session); err != nil {
		s.logger.WithError(err).Error("Failed to save shipping session", "cartId", cmd.CartID)
		return nil, fmt.Errorf("failed to save shipping session: %w", err)
	}
	s.publishEvents(ctx, session)

	s.logger.WithContext(ctx).Info("Delivery address set",
		"cartId", cmd.CartID,
		"state", normalized.State,
		"postcode", normalized.Postcode,
	)
	return ToCartShippingDTO(session), nil
}

// RequestQuotes fetches quotes for the cart's current address. A concurrent
// address change or a newer fetch supersedes this one; a superseded result
// is discarded and the session's current state is returned instead.
func (s *CartShippingService) RequestQuotes(ctx context.Context, cmd RequestCartQuotesCommand) (*CartShippingDTO, error) {
	session, err := s.repo.FindByCartID(ctx, cmd.CartID)
	if err != nil {
		return nil, fmt.Errorf("failed to load shipping session: %w", err)
	}
	if session == nil || session.Address == nil {
		return nil, apperrors.ErrValidation(domain.ErrNoAddress.Error())
	}

	if itemErrs := domain.ValidateItems(cmd.Items); itemErrs != nil {
		return nil, apperrors.ErrValidationWithFields("invalid package items", itemErrs.ToMessages())
	}
	items, warnings := domain.NormalizeItems(cmd.Items)
	for _, w := range warnings {
		s.logger.WithContext(ctx).Warn("Package item normalized", "cartId", cmd.CartID, "detail", w)
	}

	token, err := session.BeginQuoteFetch()
	if err != nil {
		return nil, apperrors.ErrValidation(err.Error())
	}
	destination := *session.Address

	if err := s.repo.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save shipping session: %w", err)
	}

	quotes, fetchErr := s.quotes.fetchQuotes(ctx, destination, items, cmd.DeclaredValue)

	// Reload before applying: another request may have superseded this one
	// while the carrier call was in flight.
	current, err := s.repo.FindByCartID(ctx, cmd.CartID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload shipping session: %w", err)
	}
	if current == nil {
		return nil, apperrors.ErrNotFound("shipping session")
	}

	if err := current.ResolveQuotes(token, quotes, fetchErr); err != nil {
		if errors.Is(err, domain.ErrStaleQuoteResult) {
			s.logger.WithContext(ctx).Info("Discarded superseded quote result",
				"cartId", cmd.CartID,
				"token", token,
				"currentToken", current.RequestToken,
			)
			return ToCartShippingDTO(current), nil
		}
		return nil, err
	}

	if err := s.repo.Save(ctx, current); err != nil {
		return nil, fmt.Errorf("failed to save shipping session: %w", err)
	}
	s.publishEvents(ctx, current)

	return ToCartShippingDTO(current), nil
}

// SelectQuote selects one of the current quotes by service name
func (s *CartShippingService) SelectQuote(ctx context.Context, cmd SelectCartQuoteCommand) (*CartShippingDTO, error) {
	session, err := s.repo.FindByCartID(ctx, cmd.CartID)
	if err != nil {
		return nil, fmt.Errorf("failed to load shipping session: %w", err)
	}
	if session == nil {
		return nil, apperrors.ErrNotFound("shipping session")
	}

	if err := session.SelectQuote(cmd.Service); err != nil {
		return nil, apperrors.ErrValidation(err.Error())
	}

	if err := s.repo.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save shipping session: %w", err)
	}
	s.publishEvents(ctx, session)

	s.logger.WithContext(ctx).Info("Shipping quote selected",
		"cartId", cmd.CartID,
		"service", cmd.Service,
	)
	return ToCartShippingDTO(session), nil
}

// GetShipping retrieves the cart's current shipping state
func (s *CartShippingService) GetShipping(ctx context.Context, query GetCartShippingQuery) (*CartShippingDTO, error) {
	session, err := s.repo.FindByCartID(ctx, query.CartID)
	if err != nil {
		return nil, fmt.Errorf("failed to load shipping session: %w", err)
	}
	if session == nil {
		return nil, apperrors.ErrNotFound("shipping session")
	}
	return ToCartShippingDTO(session), nil
}

// ClearShipping removes the cart's shipping session entirely
func (s *CartShippingService) ClearShipping(ctx context.Context, cmd ClearCartShippingCommand) error {
	if err := s.repo.Delete(ctx, cmd.CartID); err != nil {
		return fmt.Errorf("failed to clear shipping session: %w", err)
	}
	s.logger.WithContext(ctx).Info("Shipping session cleared", "cartId", cmd.CartID)
	return nil
}

func (s *CartShippingService) loadOrCreate(ctx context.Context, cartID string) (*domain.CartShippingSession, error) {
	session, err := s.repo.FindByCartID(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to load shipping session: %w", err)
	}
	if session == nil {
		session = domain.NewCartShippingSession(cartID)
	}
	return session, nil
}

// publishEvents publishes the session's raised domain events and clears
// them. Publishing is best-effort: the session state is already persisted,
// so a broker outage must not fail the user's request.
func (s *CartShippingService) publishEvents(ctx context.Context, session *domain.CartShippingSession) {
	events := session.GetDomainEvents()
	session.ClearDomainEvents()
	if s.producer == nil || len(events) == 0 {
		return
	}

	for _, event := range events {
		envelope := kafka.NewEventEnvelopeFromContext(ctx, event.EventType(), eventSource, "cart/"+session.CartID, event)

		start := time.Now()
		err := s.producer.PublishEvent(ctx, kafka.Topics.ShippingEvents, envelope)
		s.metrics.RecordKafkaPublish(kafka.Topics.ShippingEvents, event.EventType(), err == nil, time.Since(start))
		if err != nil {
			s.logger.WithError(err).Warn("Failed to publish shipping event",
				"cartId", session.CartID,
				"eventType", event.EventType(),
			)
		}
	}
}
