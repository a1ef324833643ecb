package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanfit-commerce/shipping-service/internal/application"
	"github.com/vanfit-commerce/shipping-service/internal/domain"
	"github.com/vanfit-commerce/shipping-service/pkg/logging"
	"github.com/vanfit-commerce/shipping-service/pkg/metrics"
	"github.com/vanfit-commerce/shipping-service/pkg/middleware"
)

func TestMain(m *testing.M) {
	middleware.InitValidator()
	os.Exit(m.Run())
}

type fakeCarrier struct {
	getQuotesFn     func(context.Context, domain.CarrierQuoteRequest) ([]domain.CarrierQuote, error)
	createBookingFn func(context.Context, domain.BookingRequest) (*domain.BookingConfirmation, error)
	searchSuburbsFn func(context.Context, domain.SuburbQuery) ([]domain.SuburbResult, error)
	searchDepotsFn  func(context.Context, domain.DepotQuery) ([]domain.Depot, error)
	bookingStatusFn func(context.Context, string) (*domain.BookingStatus, error)
}

func (f *fakeCarrier) GetQuotes(ctx context.Context, request domain.CarrierQuoteRequest) ([]domain.CarrierQuote, error) {
	if f.getQuotesFn != nil {
		return f.getQuotesFn(ctx, request)
	}
	return []domain.CarrierQuote{
		{ServiceCode: "RDF", ServiceName: "ROAD FREIGHT", Price: 45.50, DeliveryDays: 3},
	}, nil
}

func (f *fakeCarrier) CreateBooking(ctx context.Context, request domain.BookingRequest) (*domain.BookingConfirmation, error) {
	if f.createBookingFn != nil {
		return f.createBookingFn(ctx, request)
	}
	return &domain.BookingConfirmation{BookingID: "BK-001", ConnoteNumber: "CN-001", TotalPrice: 45.50}, nil
}

func (f *fakeCarrier) SearchSuburbs(ctx context.Context, query domain.SuburbQuery) ([]domain.SuburbResult, error) {
	if f.searchSuburbsFn != nil {
		return f.searchSuburbsFn(ctx, query)
	}
	return []domain.SuburbResult{
		{Value: "Bondi NSW 2026", Label: "Bondi NSW 2026", Suburb: "Bondi", Postcode: "2026", State: "NSW"},
	}, nil
}

func (f *fakeCarrier) SearchDepots(ctx context.Context, query domain.DepotQuery) ([]domain.Depot, error) {
	if f.searchDepotsFn != nil {
		return f.searchDepotsFn(ctx, query)
	}
	return []domain.Depot{
		{Name: "Sydney Depot", Address: "5 Transport Way", Suburb: "Alexandria", Postcode: "2015", State: "NSW"},
	}, nil
}

func (f *fakeCarrier) GetBookingStatus(ctx context.Context, bookingID string) (*domain.BookingStatus, error) {
	if f.bookingStatusFn != nil {
		return f.bookingStatusFn(ctx, bookingID)
	}
	return &domain.BookingStatus{BookingID: bookingID, Status: "IN_TRANSIT", StatusLabel: "In transit"}, nil
}

func (f *fakeCarrier) CarrierCode() string { return "DIRECT_FREIGHT" }

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.CartShippingSession
	saveErr  error
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*domain.CartShippingSession)}
}

func (r *fakeSessionRepo) Save(ctx context.Context, session *domain.CartShippingSession) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *session
	copied.ClearDomainEvents()
	r.sessions[session.CartID] = &copied
	return nil
}

func (r *fakeSessionRepo) FindByCartID(ctx context.Context, cartID string) (*domain.CartShippingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[cartID]
	if !ok {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (r *fakeSessionRepo) Delete(ctx context.Context, cartID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, cartID)
	return nil
}

func testLogger() *logging.Logger {
	cfg := logging.DefaultConfig("shipping-handler-test")
	cfg.Output = io.Discard
	return logging.New(cfg)
}

func testMetrics() *metrics.Metrics {
	return metrics.New(metrics.DefaultConfig("shipping-handler-test"))
}

func makeRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func validAddressBody() map[string]interface{} {
	return map[string]interface{}{
		"street":   "12 Workshop Rd",
		"suburb":   "Bondi",
		"state":    "NSW",
		"postcode": "2026",
		"country":  "Australia",
	}
}

func validItemsBody() []map[string]interface{} {
	return []map[string]interface{}{
		{
			"name":       "Roof rack",
			"weight":     18.5,
			"dimensions": map[string]interface{}{"length": 140, "width": 30, "height": 15},
			"quantity":   1,
		},
	}
}

func newQuoteHandler(carrier domain.CarrierService) *QuoteHandler {
	service := application.NewQuoteService(carrier, domain.NewFallbackEstimator(nil), testLogger(), testMetrics())
	return NewQuoteHandler(service, testLogger())
}

func newCartHandler(carrier domain.CarrierService, repo domain.SessionRepository) *CartHandler {
	m := testMetrics()
	quotes := application.NewQuoteService(carrier, domain.NewFallbackEstimator(nil), testLogger(), m)
	service := application.NewCartShippingService(repo, quotes, nil, testLogger(), m)
	return NewCartHandler(service, testLogger())
}

func TestQuoteHandlerGetQuotes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := newQuoteHandler(&fakeCarrier{})
	router.POST("/api/v1/shipping/quote", handler.GetQuotes)

	rec := makeRequest(router, http.MethodPost, "/api/v1/shipping/quote", map[string]interface{}{
		"address": validAddressBody(),
		"items":   validItemsBody(),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Data application.QuoteSetDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response.Data.Quotes, 1)
	assert.Equal(t, "Road Freight", response.Data.Quotes[0].Service)
	assert.False(t, response.Data.Fallback)

	rec = makeRequest(router, http.MethodPost, "/api/v1/shipping/quote", map[string]interface{}{
		"address": validAddressBody(),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuoteHandlerInvalidAddress(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := newQuoteHandler(&fakeCarrier{})
	router.POST("/api/v1/shipping/quote", handler.GetQuotes)

	address := validAddressBody()
	address["postcode"] = "999"
	rec := makeRequest(router, http.MethodPost, "/api/v1/shipping/quote", map[string]interface{}{
		"address": address,
		"items":   validItemsBody(),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuoteHandlerCarrierDownServesFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	carrier := &fakeCarrier{
		getQuotesFn: func(_ context.Context, _ domain.CarrierQuoteRequest) ([]domain.CarrierQuote, error) {
			return nil, domain.NewCarrierError(domain.CarrierErrTransport, 502, "bad gateway", nil)
		},
	}
	handler := newQuoteHandler(carrier)
	router.POST("/api/v1/shipping/quote", handler.GetQuotes)

	rec := makeRequest(router, http.MethodPost, "/api/v1/shipping/quote", map[string]interface{}{
		"address": validAddressBody(),
		"items":   validItemsBody(),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Data application.QuoteSetDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.True(t, response.Data.Fallback)
	assert.NotEmpty(t, response.Data.Quotes)
}

func TestCartHandlerSetAddress(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := newCartHandler(&fakeCarrier{}, newFakeSessionRepo())
	router.PUT("/api/v1/carts/:cartId/address", handler.SetAddress)

	rec := makeRequest(router, http.MethodPut, "/api/v1/carts/cart-001/address", map[string]interface{}{
		"address": validAddressBody(),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Data application.CartShippingDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "cart-001", response.Data.CartID)
	assert.Equal(t, "address_set", response.Data.Status)

	rec = makeRequest(router, http.MethodPut, "/api/v1/carts/cart-001/address", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartHandlerQuoteFlow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	repo := newFakeSessionRepo()
	handler := newCartHandler(&fakeCarrier{}, repo)
	router.PUT("/api/v1/carts/:cartId/address", handler.SetAddress)
	router.POST("/api/v1/carts/:cartId/quotes", handler.RequestQuotes)
	router.POST("/api/v1/carts/:cartId/quotes/select", handler.SelectQuote)
	router.GET("/api/v1/carts/:cartId/shipping", handler.GetShipping)
	router.DELETE("/api/v1/carts/:cartId/shipping", handler.ClearShipping)

	rec := makeRequest(router, http.MethodPut, "/api/v1/carts/cart-002/address", map[string]interface{}{
		"address": validAddressBody(),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = makeRequest(router, http.MethodPost, "/api/v1/carts/cart-002/quotes", map[string]interface{}{
		"items": validItemsBody(),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Data application.CartShippingDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "quotes_ready", response.Data.Status)
	require.NotEmpty(t, response.Data.Quotes)

	rec = makeRequest(router, http.MethodPost, "/api/v1/carts/cart-002/quotes/select", map[string]interface{}{
		"service": response.Data.Quotes[0].Service,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = makeRequest(router, http.MethodGet, "/api/v1/carts/cart-002/shipping", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "quotes_ready", response.Data.Status)
	require.NotNil(t, response.Data.SelectedQuote)

	rec = makeRequest(router, http.MethodDelete, "/api/v1/carts/cart-002/shipping", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = makeRequest(router, http.MethodGet, "/api/v1/carts/cart-002/shipping", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartHandlerQuotesWithoutAddress(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := newCartHandler(&fakeCarrier{}, newFakeSessionRepo())
	router.POST("/api/v1/carts/:cartId/quotes", handler.RequestQuotes)

	rec := makeRequest(router, http.MethodPost, "/api/v1/carts/cart-404/quotes", map[string]interface{}{
		"items": validItemsBody(),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartHandlerRejectsMalformedCartID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := newCartHandler(&fakeCarrier{}, newFakeSessionRepo())
	router.PUT("/api/v1/carts/:cartId/address", handler.SetAddress)
	router.GET("/api/v1/carts/:cartId/shipping", handler.GetShipping)

	// Too short to be a cart identifier.
	rec := makeRequest(router, http.MethodPut, "/api/v1/carts/ab/address", map[string]interface{}{
		"address": validAddressBody(),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Disallowed character.
	rec = makeRequest(router, http.MethodGet, "/api/v1/carts/cart%21bad/shipping", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddressHandlerSearch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	service := application.NewAddressSearchService(&fakeCarrier{}, testLogger())
	handler := NewAddressHandler(service, testLogger())
	router.GET("/api/v1/address-search", handler.Search)

	rec := makeRequest(router, http.MethodGet, "/api/v1/address-search?q=bondi", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Data application.AddressSearchDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response.Data.Results, 1)
	assert.Equal(t, "Bondi NSW 2026", response.Data.Results[0].Value)

	rec = makeRequest(router, http.MethodGet, "/api/v1/address-search?q=b", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = makeRequest(router, http.MethodGet, "/api/v1/address-search?q=bondi&state=XX", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddressHandlerSearchFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	carrier := &fakeCarrier{
		searchSuburbsFn: func(_ context.Context, _ domain.SuburbQuery) ([]domain.SuburbResult, error) {
			return nil, domain.NewCarrierError(domain.CarrierErrTransport, 503, "unavailable", nil)
		},
	}
	service := application.NewAddressSearchService(carrier, testLogger())
	handler := NewAddressHandler(service, testLogger())
	router.GET("/api/v1/address-search", handler.Search)

	rec := makeRequest(router, http.MethodGet, "/api/v1/address-search?query=melbourne", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Data application.AddressSearchDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.True(t, response.Data.Fallback)
	assert.NotEmpty(t, response.Data.Results)
}

func TestAddressHandlerSearchDepots(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	var captured domain.DepotQuery
	carrier := &fakeCarrier{
		searchDepotsFn: func(_ context.Context, query domain.DepotQuery) ([]domain.Depot, error) {
			captured = query
			return []domain.Depot{
				{Name: "Sydney Depot", Address: "5 Transport Way", Suburb: "Alexandria", Postcode: "2015", State: "NSW"},
			}, nil
		},
	}
	service := application.NewAddressSearchService(carrier, testLogger())
	handler := NewAddressHandler(service, testLogger())
	router.GET("/api/v1/depots", handler.SearchDepots)

	rec := makeRequest(router, http.MethodGet, "/api/v1/depots?suburb=Alexandria&postcode=2015&state=NSW", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Data []application.DepotDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response.Data, 1)
	assert.Equal(t, "Sydney Depot", response.Data[0].Name)
	assert.Equal(t, "Alexandria", captured.Suburb)
	assert.Equal(t, "2015", captured.Postcode)

	rec = makeRequest(router, http.MethodGet, "/api/v1/depots?state=NSW", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = makeRequest(router, http.MethodGet, "/api/v1/depots?postcode=12", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingHandlerCreateBooking(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	service := application.NewBookingService(&fakeCarrier{}, nil, testLogger(), testMetrics())
	handler := NewBookingHandler(service, testLogger())
	router.POST("/api/v1/bookings", handler.CreateBooking)

	rec := makeRequest(router, http.MethodPost, "/api/v1/bookings", map[string]interface{}{
		"address":     validAddressBody(),
		"items":       validItemsBody(),
		"serviceCode": "RDF",
		"reference":   "ORDER-42",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var response struct {
		Data application.BookingDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "BK-001", response.Data.BookingID)

	rec = makeRequest(router, http.MethodPost, "/api/v1/bookings", map[string]interface{}{
		"address": validAddressBody(),
		"items":   validItemsBody(),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Control characters are rejected in the customer reference.
	rec = makeRequest(router, http.MethodPost, "/api/v1/bookings", map[string]interface{}{
		"address":     validAddressBody(),
		"items":       validItemsBody(),
		"serviceCode": "RDF",
		"reference":   "ORDER\x01-42",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingHandlerCreateBookingCarrierDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	carrier := &fakeCarrier{
		createBookingFn: func(_ context.Context, _ domain.BookingRequest) (*domain.BookingConfirmation, error) {
			return nil, domain.NewCarrierError(domain.CarrierErrTransport, 503, "unavailable", nil)
		},
	}
	service := application.NewBookingService(carrier, nil, testLogger(), testMetrics())
	handler := NewBookingHandler(service, testLogger())
	router.POST("/api/v1/bookings", handler.CreateBooking)

	rec := makeRequest(router, http.MethodPost, "/api/v1/bookings", map[string]interface{}{
		"address":     validAddressBody(),
		"items":       validItemsBody(),
		"serviceCode": "RDF",
		"reference":   "ORDER-42",
	})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestBookingHandlerGetStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	service := application.NewBookingService(&fakeCarrier{}, nil, testLogger(), testMetrics())
	handler := NewBookingHandler(service, testLogger())
	router.GET("/api/v1/bookings/:bookingId/status", handler.GetBookingStatus)

	rec := makeRequest(router, http.MethodGet, "/api/v1/bookings/BK-001/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Data application.BookingStatusDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "IN_TRANSIT", response.Data.Status)
}
