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

// BookingHandler handles HTTP requests for freight bookings
type BookingHandler struct {
	service *application.BookingService
	logger  *logging.Logger
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(service *application.BookingService, logger *logging.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		logger:  logger,
	}
}

type createBookingRequest struct {
	Address       domain.Address       `json:"address" binding:"required"`
	Items         []domain.PackageItem `json:"items" binding:"required,min=1"`
	ServiceCode   string               `json:"serviceCode" binding:"required,service_code"`
	DeclaredValue float64              `json:"declaredValue" binding:"omitempty,gte=0"`
	Reference     string               `json:"reference" binding:"required,safe_string"`
	ContactName   string               `json:"contactName" binding:"omitempty,safe_string"`
	ContactPhone  string               `json:"contactPhone"`
	ContactEmail  string               `json:"contactEmail" binding:"omitempty,email"`
}

// CreateBooking handles POST /api/v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req createBookingRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	cmd := application.CreateBookingCommand{
		Address:       req.Address,
		Items:         req.Items,
		ServiceCode:   req.ServiceCode,
		DeclaredValue: req.DeclaredValue,
		Reference:     req.Reference,
		ContactName:   req.ContactName,
		ContactPhone:  req.ContactPhone,
		ContactEmail:  req.ContactEmail,
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"booking.reference": cmd.Reference,
		"booking.service":   cmd.ServiceCode,
	})

	result, err := h.service.CreateBooking(c.Request.Context(), cmd)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": result})
}

// GetBookingStatus handles GET /api/v1/bookings/:bookingId/status
func (h *BookingHandler) GetBookingStatus(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	bookingID := c.Param("bookingId")

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"booking.id": bookingID,
	})

	result, err := h.service.GetBookingStatus(c.Request.Context(), application.GetBookingStatusQuery{BookingID: bookingID})
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
