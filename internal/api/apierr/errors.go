package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/redblue/internal/model"
)

// ErrorResponse is the body of every non-2xx API response. Clients display detail.
type ErrorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

// Codes for errors that do not come from the domain
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeRateLimited    = "RATE_LIMITED"
	CodeNotFound       = "NOT_FOUND"
	CodeInternalError  = "INTERNAL_ERROR"
)

// httpError carries a status the domain taxonomy does not cover
type httpError struct {
	status int
	code   string
	detail string
}

func (e *httpError) Error() string {
	return e.detail
}

// Status returns the HTTP status for err
func Status(err error) int {
	var he *httpError
	if errors.As(err, &he) {
		return he.status
	}

	switch model.KindOf(err) {
	case model.KindValidation:
		return http.StatusBadRequest
	case model.KindAuth:
		return http.StatusUnauthorized
	case model.KindForbidden:
		return http.StatusForbidden
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindConflict, model.KindState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// toResponse converts err to its wire form. Internal errors never leak their message.
func toResponse(err error) ErrorResponse {
	var he *httpError
	if errors.As(err, &he) {
		return ErrorResponse{Detail: he.detail, Code: he.code}
	}
	var de *model.Error
	if errors.As(err, &de) {
		return ErrorResponse{Detail: de.Message, Code: de.Code}
	}
	return ErrorResponse{Detail: "internal server error", Code: CodeInternalError}
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(Status(err))
	_ = json.NewEncoder(w).Encode(toResponse(err))
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &model.Error{Kind: model.KindValidation, Code: CodeInvalidRequest, Message: message}
}

// NewRateLimitedError creates a too many requests error
func NewRateLimitedError() error {
	return &httpError{http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded, try again later"}
}

// NewNotFoundError creates a not found error for unknown routes
func NewNotFoundError() error {
	return &httpError{http.StatusNotFound, CodeNotFound, "not found"}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, CodeInternalError, "internal server error"}
}
