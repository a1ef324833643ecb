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

// QuoteHandler handles HTTP requests for ad-hoc shipping quotes
type QuoteHandler struct {
	service *application.QuoteService
	logger  *logging.Logger
}

// NewQuoteHandler creates a new QuoteHandler
func NewQuoteHandler(service *application.QuoteService, logger *logging.Logger) *QuoteHandler {
	return &QuoteHandler{
		service: service,
		logger:  logger,
	}
}

type quoteRequest struct {
	Address       domain.Address       `json:"address" binding:"required"`
	Items         []domain.PackageItem `json:"items" binding:"required,min=1"`
	DeclaredValue float64              `json:"declaredValue" binding:"omitempty,gte=0"`
}

// GetQuotes handles POST /api/v1/shipping/quote
func (h *QuoteHandler) GetQuotes(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req quoteRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"shipping.postcode":   req.Address.Postcode,
		"shipping.item_count": len(req.Items),
	})

	result, err := h.service.GetQuotes(c.Request.Context(), application.GetQuotesCommand{
		Address:       req.Address,
		Items:         req.Items,
		DeclaredValue: req.DeclaredValue,
	})
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
