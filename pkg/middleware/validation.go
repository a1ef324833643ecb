package middleware

import (
	stderrors "errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/vanfit-commerce/shipping-service/pkg/errors"
)

var validateOnce sync.Once

// InitValidator registers the domain validation tags on gin's binding
// engine. Safe to call more than once.
func InitValidator() {
	validateOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		_ = v.RegisterValidation("cart_id", validateCartID)
		_ = v.RegisterValidation("postcode", validatePostcode)
		_ = v.RegisterValidation("au_state", validateAUState)
		_ = v.RegisterValidation("service_code", validateServiceCode)
		_ = v.RegisterValidation("safe_string", validateSafeString)

		// Report field names as they appear on the wire.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return fld.Name
			}
			return name
		})
	})
}

// Custom validators

var (
	cartIDRegex      = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\-_]{3,63}$`)
	postcodeRegex    = regexp.MustCompile(`^\d{4}$`)
	auStateRegex     = regexp.MustCompile(`^(NSW|VIC|QLD|SA|WA|TAS|NT|ACT)$`)
	serviceCodeRegex = regexp.MustCompile(`^[A-Z0-9][A-Z0-9\-_]{0,31}$`)
	safeStringRegex  = regexp.MustCompile(`^[a-zA-Z0-9\s\-_.,!?@#$%&*()+=:;'"<>\/\[\]{}|\\~\x60]+$`)
)

func validateCartID(fl validator.FieldLevel) bool {
	return cartIDRegex.MatchString(fl.Field().String())
}

func validatePostcode(fl validator.FieldLevel) bool {
	return postcodeRegex.MatchString(fl.Field().String())
}

func validateAUState(fl validator.FieldLevel) bool {
	return auStateRegex.MatchString(strings.ToUpper(fl.Field().String()))
}

func validateServiceCode(fl validator.FieldLevel) bool {
	return serviceCodeRegex.MatchString(fl.Field().String())
}

func validateSafeString(fl validator.FieldLevel) bool {
	return safeStringRegex.MatchString(fl.Field().String())
}

// ValidationErrorFormatter flattens validator errors into a field->message map
func ValidationErrorFormatter(err error) map[string]string {
	fields := make(map[string]string)
	var vErrs validator.ValidationErrors
	if stderrors.As(err, &vErrs) {
		for _, e := range vErrs {
			fields[e.Field()] = formatValidationError(e)
		}
	}
	return fields
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a valid UUID"
	case "cart_id":
		return "must be a valid cart identifier"
	case "postcode":
		return "must be a 4 digit Australian postcode"
	case "au_state":
		return "must be an Australian state or territory (NSW, VIC, QLD, SA, WA, TAS, NT, ACT)"
	case "service_code":
		return "must be a valid carrier service code"
	case "safe_string":
		return "contains invalid characters"
	case "oneof":
		return "must be one of: " + e.Param()
	case "dive":
		return "contains an invalid entry"
	default:
		return "is invalid"
	}
}

// BindAndValidate decodes the JSON body into obj and runs the binding
// validators, returning a field-keyed validation error on failure
func BindAndValidate(c *gin.Context, obj interface{}) *errors.AppError {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return nil
	}
	var vErrs validator.ValidationErrors
	if stderrors.As(err, &vErrs) {
		return errors.ErrValidationWithFields("validation failed", ValidationErrorFormatter(vErrs))
	}
	return errors.ErrBadRequest("invalid request body: " + err.Error())
}

// BindUri binds path parameters into obj, mapping validation failures the
// same way BindAndValidate does for bodies
func BindUri(c *gin.Context, obj interface{}) *errors.AppError {
	err := c.ShouldBindUri(obj)
	if err == nil {
		return nil
	}
	var vErrs validator.ValidationErrors
	if stderrors.As(err, &vErrs) {
		return errors.ErrValidationWithFields("validation failed", ValidationErrorFormatter(vErrs))
	}
	return errors.ErrBadRequest("invalid path parameter: " + err.Error())
}

// BindQuery binds query parameters into obj, mapping validation failures the
// same way BindAndValidate does for bodies
func BindQuery(c *gin.Context, obj interface{}) *errors.AppError {
	err := c.ShouldBindQuery(obj)
	if err == nil {
		return nil
	}
	var vErrs validator.ValidationErrors
	if stderrors.As(err, &vErrs) {
		return errors.ErrValidationWithFields("validation failed", ValidationErrorFormatter(vErrs))
	}
	return errors.ErrBadRequest("invalid query parameter: " + err.Error())
}

// SanitizeString strips null bytes and surrounding whitespace
func SanitizeString(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
}

// InputSanitizer sanitizes every query parameter before handlers read them
func InputSanitizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		query := c.Request.URL.Query()
		for _, values := range query {
			for i, v := range values {
				values[i] = SanitizeString(v)
			}
		}
		c.Request.URL.RawQuery = query.Encode()
		c.Next()
	}
}

// ContentType rejects POST/PUT/PATCH bodies that are not application/json.
// Requests with an empty body pass through regardless of header.
func ContentType() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case "POST", "PUT", "PATCH":
			ct := c.GetHeader("Content-Type")
			if !strings.HasPrefix(ct, "application/json") && c.Request.ContentLength > 0 {
				AbortWithAppError(c, &errors.AppError{
					Code:       "INVALID_CONTENT_TYPE",
					Message:    "Content-Type must be application/json",
					HTTPStatus: 415,
				})
				return
			}
		}
		c.Next()
	}
}
