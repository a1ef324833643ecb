package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vanfit-commerce/shipping-service/internal/application"
	"github.com/vanfit-commerce/shipping-service/internal/domain"
	"github.com/vanfit-commerce/shipping-service/pkg/errors"
	"github.com/vanfit-commerce/shipping-service/pkg/logging"
	"github.com/vanfit-commerce/shipping-service/pkg/middleware"
)

// CartHandler handles HTTP requests for cart shipping state
type CartHandler struct {
	service *application.CartShippingService
	logger  *logging.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(service *application.CartShippingService, logger *logging.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger,
	}
}

type cartURI struct {
	CartID string `uri:"cartId" binding:"required,cart_id"`
}

// bindCartID validates the :cartId path parameter; malformed identifiers are
// rejected before any service call.
func bindCartID(c *gin.Context, responder *middleware.ErrorResponder) (string, bool) {
	var uri cartURI
	if appErr := middleware.BindUri(c, &uri); appErr != nil {
		responder.RespondWithAppError(appErr)
		return "", false
	}
	return uri.CartID, true
}

type setAddressRequest struct {
	Address domain.Address `json:"address" binding:"required"`
}

// SetAddress handles PUT /api/v1/carts/:cartId/address
func (h *CartHandler) SetAddress(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	cartID, ok := bindCartID(c, responder)
	if !ok {
		return
	}

	var req setAddressRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	cmd := application.SetCartAddressCommand{
		CartID:  cartID,
		Address: req.Address,
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"cart.id":           cmd.CartID,
		"shipping.postcode": cmd.Address.Postcode,
	})

	result, err := h.service.SetAddress(c.Request.Context(), cmd)
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

type requestQuotesRequest struct {
	Items         []domain.PackageItem `json:"items" binding:"required,min=1"`
	DeclaredValue float64              `json:"declaredValue" binding:"omitempty,gte=0"`
}

// RequestQuotes handles POST /api/v1/carts/:cartId/quotes
func (h *CartHandler) RequestQuotes(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	cartID, ok := bindCartID(c, responder)
	if !ok {
		return
	}

	var req requestQuotesRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	cmd := application.RequestCartQuotesCommand{
		CartID:        cartID,
		Items:         req.Items,
		DeclaredValue: req.DeclaredValue,
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"cart.id":             cmd.CartID,
		"shipping.item_count": len(cmd.Items),
	})

	result, err := h.service.RequestQuotes(c.Request.Context(), cmd)
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

type selectQuoteRequest struct {
	Service string `json:"service" binding:"required"`
}

// SelectQuote handles POST /api/v1/carts/:cartId/quotes/select
func (h *CartHandler) SelectQuote(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	cartID, ok := bindCartID(c, responder)
	if !ok {
		return
	}

	var req selectQuoteRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	cmd := application.SelectCartQuoteCommand{
		CartID:  cartID,
		Service: req.Service,
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"cart.id":          cmd.CartID,
		"shipping.service": cmd.Service,
	})

	result, err := h.service.SelectQuote(c.Request.Context(), cmd)
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

// GetShipping handles GET /api/v1/carts/:cartId/shipping
func (h *CartHandler) GetShipping(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	cartID, ok := bindCartID(c, responder)
	if !ok {
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"cart.id": cartID,
	})

	result, err := h.service.GetShipping(c.Request.Context(), application.GetCartShippingQuery{CartID: cartID})
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

// ClearShipping handles DELETE /api/v1/carts/:cartId/shipping
func (h *CartHandler) ClearShipping(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	cartID, ok := bindCartID(c, responder)
	if !ok {
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"cart.id": cartID,
	})

	if err := h.service.ClearShipping(c.Request.Context(), application.ClearCartShippingCommand{CartID: cartID}); err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
