package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/retaildesk/backend/internal/domain/trade"
	"github.com/retaildesk/backend/internal/interfaces/http/dto"
)

var setupOnce sync.Once

// tagErrorCodes gives custom tags a more specific code than VALIDATION_ERROR
// when they are the only failure.
var tagErrorCodes = map[string]string{
	"payment_method": dto.ErrCodeInvalidPaymentMethod,
	"order_status":   dto.ErrCodeInvalidStatus,
}

// SetupValidator configures gin's validator: JSON (then form) tag names in
// errors, plus the payment_method and order_status tags.
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			return name
		})
		_ = v.RegisterValidation("payment_method", validatePaymentMethod)
		_ = v.RegisterValidation("order_status", validateOrderStatus)
	})
}

func validatePaymentMethod(fl validator.FieldLevel) bool {
	_, err := trade.ParsePaymentMethod(fl.Field().String())
	return err == nil
}

func validateOrderStatus(fl validator.FieldLevel) bool {
	_, err := trade.ParseOrderStatus(fl.Field().String())
	return err == nil
}

// FormatValidationErrors formats binding errors into a standard response.
// Errors that are not validator errors (malformed JSON, wrong types) are
// reported as a single message.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		resp := dto.NewValidationErrorResponse("Malformed request", requestID, nil)
		return resp
	}

	details := make([]dto.ValidationDetail, 0, len(validationErrors))
	for _, e := range validationErrors {
		details = append(details, dto.ValidationDetail{
			Field:   e.Field(),
			Message: getValidationMessage(e),
		})
	}

	resp := dto.NewValidationErrorResponse("Request validation failed", requestID, details)
	if len(validationErrors) == 1 {
		if code, ok := tagErrorCodes[validationErrors[0].Tag()]; ok {
			resp.Error.Code = code
		}
	}
	return resp
}

// HandleValidationError writes a 400 response for a binding error
func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if e.Type().Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Type().Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "payment_method":
		return "Must be one of: cash card credit"
	case "order_status":
		names := make([]string, len(trade.AllOrderStatuses))
		for i, s := range trade.AllOrderStatuses {
			names[i] = s.String()
		}
		return "Must be one of: " + strings.Join(names, " ")
	case "datetime":
		return "Must be a date in " + e.Param() + " format"
	default:
		return "Invalid value"
	}
}
