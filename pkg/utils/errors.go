package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jcorriveau23/backend-pool-nhl/internal/pool"
)

// ErrCode is a stable, machine-readable error code independent of the HTTP
// status it happens to map to.
type ErrCode string

const (
	ErrCodeValidation   ErrCode = "VALIDATION_ERROR"
	ErrCodeNotFound     ErrCode = "NOT_FOUND"
	ErrCodeUnauthorized ErrCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrCode = "FORBIDDEN"
	ErrCodeInternal     ErrCode = "INTERNAL_ERROR"
	ErrCodeConflict     ErrCode = "CONFLICT"
)

// AppError is the error payload every non-2xx JSON response carries.
type AppError struct {
	Code    ErrCode  `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return e.Message
}

// NewAppError constructs an AppError, accepting zero or more free-form
// detail strings.
func NewAppError(code ErrCode, message string, details ...string) *AppError {
	return &AppError{Code: code, Message: message, Details: details}
}

// poolKindStatus maps each domain error kind to the HTTP status and
// ErrCode the transport layer surfaces, per spec.md §7 ("transport maps
// them to 4xx/5xx").
func poolKindStatus(kind pool.Kind) (int, ErrCode) {
	switch kind {
	case pool.KindInvalidState, pool.KindInvariantViolated:
		return http.StatusBadRequest, ErrCodeValidation
	case pool.KindNotAuthorized, pool.KindNotYourTurn:
		return http.StatusForbidden, ErrCodeForbidden
	case pool.KindNotFound:
		return http.StatusNotFound, ErrCodeNotFound
	case pool.KindAlreadyExists:
		return http.StatusConflict, ErrCodeConflict
	case pool.KindTooEarly, pool.KindTooLate:
		return http.StatusConflict, ErrCodeConflict
	case pool.KindAuthFailure:
		return http.StatusUnauthorized, ErrCodeUnauthorized
	case pool.KindStorageFailure:
		return http.StatusInternalServerError, ErrCodeInternal
	default:
		return http.StatusInternalServerError, ErrCodeInternal
	}
}

// SendDomainError maps a *pool.Error onto the matching HTTP status and
// writes the standard error envelope.
func SendDomainError(c *gin.Context, err *pool.Error) {
	status, code := poolKindStatus(err.Kind)
	SendError(c, status, NewAppError(code, err.Message))
}
