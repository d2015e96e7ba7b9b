package response

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"hotelbooking/internal/domain"

	"github.com/gin-gonic/gin"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// RetryAfter is advertised on retryable admission failures.
var RetryAfter = time.Second

// FromError writes the envelope for an error returned by a service. The
// error is also attached to the gin context so the logger middleware sees it.
func FromError(c *gin.Context, err error) {
	_ = c.Error(err)

	status, code := Classify(err)
	switch status {
	case http.StatusServiceUnavailable:
		c.Header("Retry-After", strconv.Itoa(int(RetryAfter.Seconds())))
		Error(c, status, code, "Could not reserve inventory in time, please retry")
	case http.StatusInternalServerError:
		Error(c, status, code, "Internal server error")
	default:
		Error(c, status, code, err.Error())
	}
}

// Classify maps the shared domain errors onto an HTTP status and error code.
func Classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrCapacityExceeded):
		return http.StatusConflict, "CAPACITY_EXCEEDED"
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusBadRequest, "INVALID_TRANSITION"
	case errors.Is(err, domain.ErrAdmissionTimeout):
		return http.StatusServiceUnavailable, "ADMISSION_TIMEOUT"
	case errors.Is(err, domain.ErrInvariantViolation):
		return http.StatusInternalServerError, "INVARIANT_VIOLATION"
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidStay):
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, domain.ErrConfirmationRequired):
		return http.StatusBadRequest, "CONFIRMATION_REQUIRED"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "CONFLICT"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
