package response

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/getevo/evo/v2/lib/outcome"
	"github.com/getevo/evo/v2/lib/text"
)

// ErrorCode represents standardized error codes
type ErrorCode string

const (
	// Authentication & Authorization errors
	ErrorCodeUnauthorized ErrorCode = "unauthorized"
	ErrorCodeForbidden    ErrorCode = "forbidden"
	ErrorCodeInvalidToken ErrorCode = "invalid_token"

	// Input validation errors
	ErrorCodeInvalidInput          ErrorCode = "invalid_input"
	ErrorCodeInvalidConversationID ErrorCode = "invalid_conversation_id"
	ErrorCodeMissingRequired       ErrorCode = "missing_required"
	ErrorCodeInvalidURL            ErrorCode = "invalid_url"

	// Resource errors
	ErrorCodeNotFound             ErrorCode = "not_found"
	ErrorCodeConversationNotFound ErrorCode = "conversation_not_found"
	ErrorCodeInsightNotFound      ErrorCode = "insight_not_found"

	// Summarization pipeline errors
	ErrorCodeFetchFailed       ErrorCode = "fetch_failed"
	ErrorCodeTimeout           ErrorCode = "timeout"
	ErrorCodeMalformedResponse ErrorCode = "malformed_response"
	ErrorCodeRoutingError      ErrorCode = "routing_error"
	ErrorCodeTotalFailure      ErrorCode = "total_failure"
	ErrorCodeReduceFailure     ErrorCode = "reduce_failure"

	// Policy errors
	ErrorCodeRateLimited      ErrorCode = "rate_limited"
	ErrorCodeTermsNotAccepted ErrorCode = "terms_not_accepted"

	// Internal errors
	ErrorCodeInternalError   ErrorCode = "internal_error"
	ErrorCodeDatabaseError   ErrorCode = "database_error"
	ErrorCodeValidationError ErrorCode = "validation_error"
)

// AppError represents a structured application error
type AppError struct {
	Code       ErrorCode `json:"error"`
	Message    string    `json:"message"`
	StatusCode int       `json:"-"`
	Details    string    `json:"details,omitempty"`
}

// Error implements the error interface
func (e AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Response returns an outcome.Response for the error
func (e AppError) Response() outcome.Response {
	return outcome.Response{
		StatusCode: e.StatusCode,
		Data: text.ToJSON(map[string]interface{}{
			"error":   string(e.Code),
			"message": e.Message,
		}),
	}
}

// NewError creates a new AppError
func NewError(code ErrorCode, message string, statusCode int) AppError {
	return AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewErrorWithDetails creates a new AppError with additional details
func NewErrorWithDetails(code ErrorCode, message string, statusCode int, details string) AppError {
	return AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    details,
	}
}

// Predefined common errors
var (
	ErrUnauthorized = AppError{
		Code:       ErrorCodeUnauthorized,
		Message:    "Authentication required",
		StatusCode: http.StatusUnauthorized,
	}

	ErrForbidden = AppError{
		Code:       ErrorCodeForbidden,
		Message:    "You do not have permission to perform this action",
		StatusCode: http.StatusForbidden,
	}

	ErrInvalidToken = AppError{
		Code:       ErrorCodeInvalidToken,
		Message:    "Invalid or expired installation token",
		StatusCode: http.StatusUnauthorized,
	}

	ErrInvalidInput = AppError{
		Code:       ErrorCodeInvalidInput,
		Message:    "Invalid request data",
		StatusCode: http.StatusBadRequest,
	}

	ErrInvalidConversationID = AppError{
		Code:       ErrorCodeInvalidConversationID,
		Message:    "Invalid conversation ID",
		StatusCode: http.StatusBadRequest,
	}

	ErrConversationNotFound = AppError{
		Code:       ErrorCodeConversationNotFound,
		Message:    "Conversation not found",
		StatusCode: http.StatusNotFound,
	}

	ErrInsightNotFound = AppError{
		Code:       ErrorCodeInsightNotFound,
		Message:    "Insight not found",
		StatusCode: http.StatusNotFound,
	}

	ErrNotFound = AppError{
		Code:       ErrorCodeNotFound,
		Message:    "Resource not found",
		StatusCode: http.StatusNotFound,
	}

	ErrRateLimited = AppError{
		Code:       ErrorCodeRateLimited,
		Message:    "Request limit reached. Please try again later.",
		StatusCode: http.StatusTooManyRequests,
	}

	ErrTermsNotAccepted = AppError{
		Code:       ErrorCodeTermsNotAccepted,
		Message:    "Terms of use must be accepted before requesting insights",
		StatusCode: http.StatusForbidden,
	}

	ErrInternalError = AppError{
		Code:       ErrorCodeInternalError,
		Message:    "Internal server error",
		StatusCode: http.StatusInternalServerError,
	}

	ErrDatabaseError = AppError{
		Code:       ErrorCodeDatabaseError,
		Message:    "Database operation failed",
		StatusCode: http.StatusInternalServerError,
	}
)

// ErrFetchFailed builds a transcript fetch failure with a human readable reason
func ErrFetchFailed(reason string) AppError {
	return NewErrorWithDetails(ErrorCodeFetchFailed, "Could not get the transcript, check the url is correct", http.StatusBadGateway, reason)
}

// ErrSummarizationUnreachable is returned when the LLM cannot be reached on a fatal path
func ErrSummarizationUnreachable() AppError {
	return NewError(ErrorCodeInternalError, "The summarization service could not be reached, check the API key is correct", http.StatusBadGateway)
}

// Helper function to create outcome.Response from AppError
func Error(err AppError) outcome.Response {
	return err.Response()
}

// =====================================================
// STANDARDIZED SUCCESS RESPONSE SYSTEM
// =====================================================

// APIResponse represents a standardized API response structure
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
	Message string      `json:"message,omitempty"`
}

func (r APIResponse) ToJSON() []byte {
	b, _ := json.Marshal(r)
	return b
}

// Meta contains metadata for API responses
type Meta struct {
	Page       int   `json:"page,omitempty"`
	Limit      int   `json:"limit,omitempty"`
	Total      int64 `json:"total,omitempty"`
	TotalPages int   `json:"total_pages,omitempty"`

	Count  int `json:"count,omitempty"`
	Offset int `json:"offset,omitempty"`

	Extra map[string]interface{} `json:"extra,omitempty"`
}

// OK creates a standardized success response
func OK(data interface{}) outcome.Response {
	return outcome.Response{
		ContentType: "application/json",
		StatusCode:  http.StatusOK,
		Data: APIResponse{
			Success: true,
			Data:    data,
		}.ToJSON(),
	}
}

// OKWithMessage creates a success response with a message
func OKWithMessage(data interface{}, message string) outcome.Response {
	return outcome.Response{
		StatusCode: http.StatusOK,
		Data: APIResponse{
			Success: true,
			Data:    data,
			Message: message,
		}.ToJSON(),
	}
}

// OKWithMeta creates a success response with metadata
func OKWithMeta(data interface{}, meta *Meta) outcome.Response {
	return outcome.Response{
		StatusCode: http.StatusOK,
		Data: APIResponse{
			Success: true,
			Data:    data,
			Meta:    meta,
		}.ToJSON(),
	}
}

// Created creates a 201 Created response
func Created(data interface{}) outcome.Response {
	return outcome.Response{
		StatusCode: http.StatusCreated,
		Data: APIResponse{
			Success: true,
			Data:    data,
		}.ToJSON(),
	}
}

// List creates a response for lists/collections with count
func List(data interface{}, count int) outcome.Response {
	meta := &Meta{
		Count: count,
	}

	return OKWithMeta(data, meta)
}

// Message creates a response with only a success message
func Message(message string) outcome.Response {
	return outcome.Response{
		StatusCode: http.StatusOK,
		Data: APIResponse{
			Success: true,
			Message: message,
		}.ToJSON(),
	}
}

// Unauthorized creates a 401 Unauthorized response
func Unauthorized(c interface{}, message string) outcome.Response {
	return Error(NewError(ErrorCodeUnauthorized, message, http.StatusUnauthorized))
}

// BadRequest creates a 400 Bad Request response
func BadRequest(c interface{}, message string) outcome.Response {
	return Error(NewError(ErrorCodeInvalidInput, message, http.StatusBadRequest))
}

// NotFound creates a 404 Not Found response
func NotFound(c interface{}, message string) outcome.Response {
	return Error(NewError(ErrorCodeNotFound, message, http.StatusNotFound))
}

// InternalError creates a 500 Internal Server Error response
func InternalError(c interface{}, message string) outcome.Response {
	return Error(NewError(ErrorCodeInternalError, message, http.StatusInternalServerError))
}
