package carriers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vanfit-commerce/shipping-service/internal/domain"
	"github.com/vanfit-commerce/shipping-service/pkg/logging"
	"github.com/vanfit-commerce/shipping-service/pkg/metrics"
	"github.com/vanfit-commerce/shipping-service/pkg/resilience"
	"github.com/vanfit-commerce/shipping-service/pkg/tracing"
)

const carrierCode = "DIRECT_FREIGHT"

// Config holds the DirectFreight adapter configuration. All values come
// from the environment; none are hard-coded in call sites.
type Config struct {
	BaseURL         string
	APIKey          string
	AccountNumber   string
	RequestTimeout  time.Duration
	// MaxRetries counts retries after the first attempt.
	MaxRetries      int
	RateLimitWindow time.Duration
	RateLimitMax    int
	Pickup          PickupLocation
}

// DefaultConfig returns adapter defaults for everything but credentials
func DefaultConfig() Config {
	return Config{
		RequestTimeout:  10 * time.Second,
		MaxRetries:      2,
		RateLimitWindow: time.Minute,
		RateLimitMax:    100,
	}
}

// DirectFreightAdapter is the Anti-Corruption Layer adapter for the
// DirectFreight carrier API. It translates domain models to the carrier's
// wire format, classifies failures, and wraps every call in a local rate
// limiter, retry with backoff, and a circuit breaker.
type DirectFreightAdapter struct {
	config  Config
	client  *http.Client
	builder *QuoteRequestBuilder
	limiter *slidingWindowLimiter
	breaker *resilience.CircuitBreaker
	logger  *logging.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// NewDirectFreightAdapter creates a DirectFreight carrier adapter
func NewDirectFreightAdapter(config Config, logger *logging.Logger, m *metrics.Metrics) *DirectFreightAdapter {
	breakerLogger := logger.WithComponent("directfreight-breaker")

	breakerConfig := resilience.DefaultCircuitBreakerConfig("directfreight")
	breakerConfig.OnStateChange = func(name string, from, to gobreaker.State) {
		m.SetCircuitBreakerState(name, int(to))
		if to == gobreaker.StateOpen {
			m.RecordCircuitBreakerTrip(name)
		}
	}

	return &DirectFreightAdapter{
		config:  config,
		client:  &http.Client{Timeout: config.RequestTimeout},
		builder: NewQuoteRequestBuilder(config.Pickup),
		limiter: newSlidingWindowLimiter(config.RateLimitWindow, config.RateLimitMax),
		breaker: resilience.NewCircuitBreaker(breakerConfig, breakerLogger.Logger),
		logger:  logger.WithComponent("directfreight"),
		metrics: m,
		tracer:  otel.Tracer("infrastructure.carriers.directfreight"),
	}
}

// CarrierCode returns the code of the carrier this adapter talks to
func (a *DirectFreightAdapter) CarrierCode() string {
	return carrierCode
}

// GetQuotes retrieves freight quotes from the DirectFreight API
func (a *DirectFreightAdapter) GetQuotes(ctx context.Context, request domain.CarrierQuoteRequest) ([]domain.CarrierQuote, error) {
	ctx, span := a.tracer.Start(ctx, "DirectFreight.GetQuotes")
	defer span.End()
	span.SetAttributes(
		attribute.String("carrier.code", carrierCode),
		attribute.String("destination.state", request.Destination.State),
		attribute.String("destination.postcode", request.Destination.Postcode),
		attribute.Int("items.count", len(request.Items)),
	)

	body := a.builder.BuildQuoteRequest(request)

	var response dfQuoteResponse
	if err := a.call(ctx, http.MethodPost, "/api/quotes", "quotes", body, &response); err != nil {
		return nil, err
	}

	if !response.Success {
		return nil, domain.NewCarrierError(domain.CarrierErrValidation, http.StatusUnprocessableEntity,
			firstNonEmpty(response.Message, "carrier rejected quote request"), nil)
	}

	quotes := make([]domain.CarrierQuote, len(response.Results))
	for i, row := range response.Results {
		quotes[i] = domain.CarrierQuote{
			ServiceCode:  row.ServiceCode,
			ServiceName:  row.ServiceName,
			Price:        row.TotalPrice,
			DeliveryDays: row.EstimatedDeliveryDays,
			CarrierName:  firstNonEmpty(row.CarrierName, "Direct Freight"),
		}
	}

	a.logger.WithContext(ctx).Info("Carrier quotes retrieved",
		"quoteCount", len(quotes),
		"state", request.Destination.State,
		"postcode", request.Destination.Postcode,
	)
	return quotes, nil
}

// CreateBooking books a freight job for a previously quoted service
func (a *DirectFreightAdapter) CreateBooking(ctx context.Context, request domain.BookingRequest) (*domain.BookingConfirmation, error) {
	ctx, span := a.tracer.Start(ctx, "DirectFreight.CreateBooking")
	defer span.End()
	span.SetAttributes(
		attribute.String("carrier.code", carrierCode),
		attribute.String("booking.service", request.ServiceCode),
		attribute.String("booking.reference", request.Reference),
	)

	quoteBody := a.builder.BuildQuoteRequest(domain.CarrierQuoteRequest{
		Destination:   request.Destination,
		Items:         request.Items,
		DeclaredValue: request.DeclaredValue,
	})
	body := dfBookingRequest{
		dfQuoteRequest: *quoteBody,
		ServiceCode:    request.ServiceCode,
		Reference:      request.Reference,
		ContactName:    request.ContactName,
		ContactPhone:   request.ContactPhone,
		ContactEmail:   request.ContactEmail,
	}

	var response dfBookingResponse
	if err := a.call(ctx, http.MethodPost, "/api/bookings", "bookings", body, &response); err != nil {
		a.metrics.RecordBookingCreated(carrierCode, false)
		return nil, err
	}

	if !response.Success {
		a.metrics.RecordBookingCreated(carrierCode, false)
		return nil, domain.NewCarrierError(domain.CarrierErrValidation, http.StatusUnprocessableEntity,
			firstNonEmpty(response.Message, "carrier rejected booking"), nil)
	}

	a.metrics.RecordBookingCreated(carrierCode, true)
	a.logger.WithContext(ctx).Info("Booking created",
		"bookingId", response.BookingNumber,
		"connote", response.ConnoteNumber,
	)

	return &domain.BookingConfirmation{
		BookingID:     response.BookingNumber,
		ConnoteNumber: response.ConnoteNumber,
		LabelURL:      response.LabelURL,
		TotalPrice:    response.TotalPrice,
		PickupDate:    response.PickupDate,
	}, nil
}

// SearchSuburbs performs suburb autocomplete against the carrier
func (a *DirectFreightAdapter) SearchSuburbs(ctx context.Context, query domain.SuburbQuery) ([]domain.SuburbResult, error) {
	ctx, span := a.tracer.Start(ctx, "DirectFreight.SearchSuburbs")
	defer span.End()
	span.SetAttributes(attribute.String("search.query", query.Query))

	params := url.Values{}
	params.Set("query", query.Query)
	if query.Type != "" {
		params.Set("type", query.Type)
	}
	if query.State != "" {
		params.Set("state", query.State)
	}

	var response dfLocationResponse
	path := "/api/locations?" + params.Encode()
	if err := a.call(ctx, http.MethodGet, path, "locations", nil, &response); err != nil {
		return nil, err
	}

	results := make([]domain.SuburbResult, len(response.Locations))
	for i, loc := range response.Locations {
		value := fmt.Sprintf("%s %s %s", loc.Suburb, loc.State, loc.Postcode)
		results[i] = domain.SuburbResult{
			Value:      value,
			Label:      value,
			Suburb:     loc.Suburb,
			Postcode:   loc.Postcode,
			State:      loc.State,
			LocalityID: loc.LocalityID,
		}
	}
	return results, nil
}

// SearchDepots finds carrier depots near a suburb
func (a *DirectFreightAdapter) SearchDepots(ctx context.Context, query domain.DepotQuery) ([]domain.Depot, error) {
	ctx, span := a.tracer.Start(ctx, "DirectFreight.SearchDepots")
	defer span.End()

	params := url.Values{}
	params.Set("suburb", query.Suburb)
	params.Set("postcode", query.Postcode)
	params.Set("state", query.State)

	var response dfDepotResponse
	path := "/api/depots?" + params.Encode()
	if err := a.call(ctx, http.MethodGet, path, "depots", nil, &response); err != nil {
		return nil, err
	}

	depots := make([]domain.Depot, len(response.Depots))
	for i, d := range response.Depots {
		depots[i] = domain.Depot{
			Name:     d.Name,
			Address:  d.Address,
			Suburb:   d.Suburb,
			Postcode: d.Postcode,
			State:    d.State,
			Phone:    d.Phone,
		}
	}
	return depots, nil
}

// GetBookingStatus retrieves the status of a booked job
func (a *DirectFreightAdapter) GetBookingStatus(ctx context.Context, bookingID string) (*domain.BookingStatus, error) {
	ctx, span := a.tracer.Start(ctx, "DirectFreight.GetBookingStatus")
	defer span.End()
	span.SetAttributes(attribute.String("booking.id", bookingID))

	var response dfBookingStatusResponse
	path := "/api/bookings/" + url.PathEscape(bookingID) + "/status"
	if err := a.call(ctx, http.MethodGet, path, "booking_status", nil, &response); err != nil {
		return nil, err
	}

	return &domain.BookingStatus{
		BookingID:   bookingID,
		Status:      response.Status,
		StatusLabel: response.StatusDescription,
	}, nil
}

// call runs one carrier API operation through the rate limiter, the retry
// loop, and the circuit breaker. Retries only happen for failures classified
// as retryable; auth and validation failures short-circuit immediately.
func (a *DirectFreightAdapter) call(ctx context.Context, method, path, endpoint string, body any, out any) error {
	if !a.limiter.Allow() {
		a.metrics.RecordRateLimiterRejection(carrierCode)
		a.logger.WithContext(ctx).Warn("Carrier call rejected by local rate limit",
			"endpoint", endpoint,
			"windowUsage", a.limiter.InFlight(),
		)
		return domain.NewCarrierError(domain.CarrierErrRateLimited, 0,
			"local rate limit exceeded", nil)
	}
	a.metrics.SetRateLimiterWindowUsage(carrierCode, a.limiter.InFlight())

	retryConfig := resilience.DefaultRetryConfig()
	retryConfig.MaxAttempts = a.config.MaxRetries + 1
	retryConfig.RetryableErrors = func(err error) bool {
		carrierErr, ok := domain.AsCarrierError(err)
		return ok && carrierErr.Retryable()
	}

	attempt := 0
	err := resilience.Retry(ctx, retryConfig, func() error {
		attempt++
		if attempt > 1 {
			a.metrics.RecordCarrierRetry(carrierCode, endpoint)
			a.logger.WithContext(ctx).Warn("Retrying carrier call",
				"endpoint", endpoint,
				"attempt", attempt,
			)
		}

		_, execErr := a.breaker.Execute(ctx, func() (interface{}, error) {
			return nil, a.doRequest(ctx, method, path, endpoint, body, out)
		})
		return execErr
	})
	return err
}

// doRequest performs a single HTTP attempt against the carrier
func (a *DirectFreightAdapter) doRequest(ctx context.Context, method, path, endpoint string, body any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	defer cancel()

	trace.SpanFromContext(ctx).SetAttributes(tracing.CarrierSpanAttributes(carrierCode, endpoint)...)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal carrier request: %w", err)
		}
		reader = bytes.NewReader(payload)
		a.logger.WithContext(ctx).Debug("Carrier request payload",
			"endpoint", endpoint,
			"payload", string(payload),
		)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.config.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build carrier request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	req.Header.Set("Accept", "application/json")
	if a.config.AccountNumber != "" {
		req.Header.Set("X-Account-Number", a.config.AccountNumber)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := a.client.Do(req)
	duration := time.Since(start)
	if err != nil {
		a.metrics.RecordCarrierRequest(carrierCode, endpoint, "transport_error", duration)
		a.logger.CarrierCall(ctx, carrierCode, endpoint, 0, duration, false)
		return a.classifyTransportError(err)
	}
	defer resp.Body.Close()

	a.metrics.RecordCarrierRequest(carrierCode, endpoint, fmt.Sprintf("%d", resp.StatusCode), duration)
	a.logger.CarrierCall(ctx, carrierCode, endpoint, resp.StatusCode, duration, resp.StatusCode < http.StatusBadRequest)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.NewCarrierError(domain.CarrierErrTransport, resp.StatusCode,
			"reading carrier response", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return a.classifyHTTPError(ctx, resp.StatusCode, raw, endpoint)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return domain.NewCarrierError(domain.CarrierErrTransport, resp.StatusCode,
			"decoding carrier response", err)
	}
	return nil
}

// classifyHTTPError maps carrier HTTP failures onto the domain error
// taxonomy that drives retry decisions.
func (a *DirectFreightAdapter) classifyHTTPError(ctx context.Context, status int, raw []byte, endpoint string) error {
	var errBody dfErrorResponse
	_ = json.Unmarshal(raw, &errBody)
	message := firstNonEmpty(errBody.Message, http.StatusText(status))

	log := a.logger.WithContext(ctx)
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		log.Error("Carrier authentication failed", "endpoint", endpoint, "status", status)
		return domain.NewCarrierError(domain.CarrierErrAuth, status, message, nil)

	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		// A malformed request means the builder produced a shape the
		// carrier rejects. That is a bug signal, not a transient fault.
		fields := make(map[string]string, len(errBody.ValidationErrors))
		for _, fe := range errBody.ValidationErrors {
			fields[fe.Field] = fe.Message
		}
		log.Error("Carrier rejected request as invalid",
			"endpoint", endpoint,
			"status", status,
			"message", message,
			"fieldErrors", fields,
		)
		carrierErr := domain.NewCarrierError(domain.CarrierErrValidation, status, message, nil)
		carrierErr.FieldMessages = fields
		return carrierErr

	case http.StatusTooManyRequests:
		log.Warn("Carrier rate limited the request", "endpoint", endpoint)
		return domain.NewCarrierError(domain.CarrierErrRateLimited, status, message, nil)

	default:
		log.Warn("Carrier transport failure", "endpoint", endpoint, "status", status, "message", message)
		return domain.NewCarrierError(domain.CarrierErrTransport, status, message, nil)
	}
}

func (a *DirectFreightAdapter) classifyTransportError(err error) error {
	message := "carrier unreachable"
	if strings.Contains(err.Error(), "context deadline exceeded") {
		message = "carrier request timed out"
	}
	return domain.NewCarrierError(domain.CarrierErrTransport, 0, message, err)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// --- DirectFreight API wire models ---

type dfQuoteResponse struct {
	Success bool         `json:"Success"`
	Message string       `json:"Message,omitempty"`
	Results []dfQuoteRow `json:"Results"`
}

type dfQuoteRow struct {
	ServiceCode           string  `json:"ServiceCode"`
	ServiceName           string  `json:"ServiceName"`
	TotalPrice            float64 `json:"TotalPrice"`
	EstimatedDeliveryDays int     `json:"EstimatedDeliveryDays"`
	CarrierName           string  `json:"CarrierName,omitempty"`
}

type dfBookingRequest struct {
	dfQuoteRequest
	ServiceCode  string `json:"ServiceCode"`
	Reference    string `json:"Reference,omitempty"`
	ContactName  string `json:"ContactName,omitempty"`
	ContactPhone string `json:"ContactPhone,omitempty"`
	ContactEmail string `json:"ContactEmail,omitempty"`
}

type dfBookingResponse struct {
	Success       bool    `json:"Success"`
	Message       string  `json:"Message,omitempty"`
	BookingNumber string  `json:"BookingNumber"`
	ConnoteNumber string  `json:"ConnoteNumber"`
	LabelURL      string  `json:"LabelUrl,omitempty"`
	TotalPrice    float64 `json:"TotalPrice"`
	PickupDate    string  `json:"PickupDate,omitempty"`
}

type dfLocationResponse struct {
	Success   bool       `json:"Success"`
	Locations []dfSuburb `json:"Locations"`
}

type dfSuburb struct {
	Suburb     string `json:"Suburb"`
	Postcode   string `json:"Postcode"`
	State      string `json:"State"`
	LocalityID int    `json:"LocalityId,omitempty"`
}

type dfDepotResponse struct {
	Success bool      `json:"Success"`
	Depots  []dfDepot `json:"Depots"`
}

type dfDepot struct {
	Name     string `json:"Name"`
	Address  string `json:"Address"`
	Suburb   string `json:"Suburb"`
	Postcode string `json:"Postcode"`
	State    string `json:"State"`
	Phone    string `json:"Phone,omitempty"`
}

type dfBookingStatusResponse struct {
	Success           bool   `json:"Success"`
	Status            string `json:"Status"`
	StatusDescription string `json:"StatusDescription,omitempty"`
}

type dfErrorResponse struct {
	Message          string         `json:"Message"`
	ValidationErrors []dfFieldError `json:"ValidationErrors,omitempty"`
}

type dfFieldError struct {
	Field   string `json:"Field"`
	Message string `json:"Message"`
}
