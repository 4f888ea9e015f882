package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/flightsurety/internal/audit/domain"
	"github.com/smallbiznis/flightsurety/internal/callerauth"
	governancedomain "github.com/smallbiznis/flightsurety/internal/governance/domain"
	ledgerdomain "github.com/smallbiznis/flightsurety/internal/ledger/domain"
	walletdomain "github.com/smallbiznis/flightsurety/internal/wallet/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrMissingCaller  = errors.New("missing_caller")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrRateLimited    = errors.New("rate_limited")

	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if callerauth.IsAuthFailure(err) {
		return http.StatusUnauthorized, errorPayload{
			Type:    err.Error(),
			Message: authFailureMessage(err),
		}
	}

	switch {
	case errors.Is(err, ErrMissingCaller):
		return http.StatusUnauthorized, errorPayload{
			Type:    "missing_caller",
			Message: "a signed X-Caller-Address header is required",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, auditdomain.ErrInvalidPageToken),
		errors.Is(err, auditdomain.ErrInvalidTimeRange):
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	if governancedomain.IsRejection(err) {
		return rejectionStatus(err), errorPayload{
			Type:    governancedomain.Code(err),
			Message: governancedomain.Reason(err),
		}
	}

	return http.StatusInternalServerError, errorPayload{
		Type:    "internal_error",
		Message: "internal server error",
	}
}

func authFailureMessage(err error) string {
	switch {
	case errors.Is(err, callerauth.ErrMissingSignature):
		return "X-Caller-Signature and X-Caller-Timestamp headers are required"
	case errors.Is(err, callerauth.ErrStaleTimestamp):
		return "request timestamp is outside the accepted window"
	case errors.Is(err, callerauth.ErrReplayed):
		return "request signature was already used"
	default:
		return "request signature does not match X-Caller-Address"
	}
}

// rejectionStatus maps a contract rejection to its HTTP status.
func rejectionStatus(err error) int {
	switch {
	case errors.Is(err, ledgerdomain.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ledgerdomain.ErrNotOperational),
		errors.Is(err, ledgerdomain.ErrNotInitialized):
		return http.StatusServiceUnavailable
	case errors.Is(err, ledgerdomain.ErrAlreadyRegistered),
		errors.Is(err, ledgerdomain.ErrAlreadyAuthorized),
		errors.Is(err, ledgerdomain.ErrAlreadyFunded),
		errors.Is(err, governancedomain.ErrDuplicateVote):
		return http.StatusConflict
	case errors.Is(err, ledgerdomain.ErrNoSuchInsurance),
		errors.Is(err, ledgerdomain.ErrNoSuchFlight),
		errors.Is(err, ledgerdomain.ErrNoSuchAirline),
		errors.Is(err, ledgerdomain.ErrNotFunded):
		return http.StatusNotFound
	case errors.Is(err, ledgerdomain.ErrInvalidAddress),
		errors.Is(err, ledgerdomain.ErrInvalidPageToken),
		errors.Is(err, ledgerdomain.ErrInvalidTimestamp):
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}

// classifyErrorForLog returns the error type and code logged with a failed request.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	if asValidationErrors(err) != nil {
		return "validation_error", "validation_error"
	}
	if callerauth.IsAuthFailure(err) {
		return "auth_error", err.Error()
	}
	switch {
	case errors.Is(err, ErrMissingCaller):
		return "auth_error", "missing_caller"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited", "rate_limited"
	case errors.Is(err, ErrInvalidRequest):
		return "validation_error", "invalid_request"
	case errors.Is(err, walletdomain.ErrInsufficientBalance),
		errors.Is(err, walletdomain.ErrRecipientRejected):
		return "transfer_error", governancedomain.Code(err)
	}
	if governancedomain.IsRejection(err) {
		return "rejection", governancedomain.Code(err)
	}
	return "internal_error", "internal_error"
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "invalid_time_range":
		return "start must not be after end"
	case "invalid_page_token":
		return "page token is malformed"
	default:
		return "invalid value"
	}
}
