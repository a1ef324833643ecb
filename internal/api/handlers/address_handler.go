package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vanfit-commerce/shipping-service/internal/application"
	"github.com/vanfit-commerce/shipping-service/pkg/errors"
	"github.com/vanfit-commerce/shipping-service/pkg/logging"
	"github.com/vanfit-commerce/shipping-service/pkg/middleware"
)

// AddressHandler handles HTTP requests for suburb autocomplete
type AddressHandler struct {
	service *application.AddressSearchService
	logger  *logging.Logger
}

// NewAddressHandler creates a new AddressHandler
func NewAddressHandler(service *application.AddressSearchService, logger *logging.Logger) *AddressHandler {
	return &AddressHandler{
		service: service,
		logger:  logger,
	}
}

type searchAddressRequest struct {
	Q        string `form:"q"`
	AltQuery string `form:"query"`
	Type     string `form:"type"`
	State    string `form:"state" binding:"omitempty,au_state"`
}

// Search handles GET /api/v1/address-search
func (h *AddressHandler) Search(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req searchAddressRequest
	if appErr := middleware.BindQuery(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	term := req.Q
	if term == "" {
		term = req.AltQuery
	}
	searchType := req.Type
	if searchType == "" {
		searchType = "suburb"
	}
	query := application.SearchAddressQuery{
		Query: term,
		Type:  searchType,
		State: req.State,
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"search.query": query.Query,
		"search.state": query.State,
	})

	result, err := h.service.Search(c.Request.Context(), query)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

type searchDepotsRequest struct {
	Suburb   string `form:"suburb"`
	Postcode string `form:"postcode" binding:"omitempty,postcode"`
	State    string `form:"state" binding:"omitempty,au_state"`
}

// SearchDepots handles GET /api/v1/depots
func (h *AddressHandler) SearchDepots(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req searchDepotsRequest
	if appErr := middleware.BindQuery(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	query := application.SearchDepotsQuery{
		Suburb:   req.Suburb,
		Postcode: req.Postcode,
		State:    req.State,
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"depot.suburb":   query.Suburb,
		"depot.postcode": query.Postcode,
	})

	depots, err := h.service.SearchDepots(c.Request.Context(), query)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": depots})
}
