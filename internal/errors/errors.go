package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation is returned when input is malformed or missing.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when an operation targets a missing id.
	ErrNotFound = errors.New("record not found")
	// ErrUnauthorized is returned when a session is required but absent.
	ErrUnauthorized = errors.New("authentication required")
	// ErrForbidden is returned when the session lacks admin rights or ownership.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidTransition is returned when a status change is not allowed from the current status.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrConflict is returned when a row changed since it was read.
	ErrConflict = errors.New("record was modified concurrently")
	// ErrUpstream is returned when a payment, storage or mail provider fails.
	ErrUpstream = errors.New("upstream provider failure")
	// ErrUserAlreadyExists is returned when registering an existing email.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidRefreshToken is returned when refresh token is invalid or expired.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	// ErrProfileRequired is returned when checkout is attempted without shipping info.
	ErrProfileRequired = errors.New("shipping profile required")
	// ErrSignatureMismatch is returned when a webhook signature does not verify.
	ErrSignatureMismatch = errors.New("webhook signature mismatch")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Wrapped errors keep
// their full message so validation details reach the client.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrValidation):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
	case errors.Is(err, ErrProfileRequired):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "PROFILE_REQUIRED")
	case errors.Is(err, ErrSignatureMismatch):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_SIGNATURE")
	case errors.Is(err, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, ErrNotFound.Error(), "NOT_FOUND")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrInvalidRefreshToken):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidRefreshToken.Error(), "INVALID_REFRESH_TOKEN")
	case errors.Is(err, ErrUnauthorized):
		return NewHTTPError(http.StatusUnauthorized, ErrUnauthorized.Error(), "UNAUTHORIZED")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, ErrForbidden.Error(), "FORBIDDEN")
	case errors.Is(err, ErrUserAlreadyExists):
		return NewHTTPError(http.StatusConflict, ErrUserAlreadyExists.Error(), "USER_ALREADY_EXISTS")
	case errors.Is(err, ErrInvalidTransition):
		return NewHTTPError(http.StatusConflict, err.Error(), "INVALID_TRANSITION")
	case errors.Is(err, ErrConflict):
		return NewHTTPError(http.StatusConflict, ErrConflict.Error(), "CONFLICT")
	case errors.Is(err, ErrUpstream):
		return NewHTTPError(http.StatusBadGateway, ErrUpstream.Error(), "UPSTREAM_ERROR")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
