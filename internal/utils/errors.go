package utils

import (
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrorCodeNoAPIKeys         ErrorCode = "NO_API_KEYS_CONFIGURED"
	ErrorCodeAllKeysExhausted  ErrorCode = "ALL_KEYS_EXHAUSTED"
	ErrorCodeYouTubeAPIError   ErrorCode = "YOUTUBE_API_ERROR"
	ErrorCodeChannelNotFound   ErrorCode = "CHANNEL_NOT_FOUND"
	ErrorCodeMovieNotFound     ErrorCode = "MOVIE_NOT_FOUND"
	ErrorCodeDatabaseError     ErrorCode = "DATABASE_ERROR"
	ErrorCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrorCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrorCodeInternalError     ErrorCode = "INTERNAL_ERROR"
	ErrorCodeValidationError   ErrorCode = "VALIDATION_ERROR"
)

type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	StatusCode int                    `json:"-"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func NewError(code ErrorCode, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    make(map[string]interface{}),
	}
}

func NewErrorWithDetails(code ErrorCode, message string, statusCode int, details map[string]interface{}) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    details,
	}
}

// Common error constructors
func NewValidationError(message string, details map[string]interface{}) *AppError {
	return NewErrorWithDetails(ErrorCodeValidationError, message, http.StatusBadRequest, details)
}

func NewNoAPIKeysError() *AppError {
	return NewError(
		ErrorCodeNoAPIKeys,
		"No API keys configured. Add at least one YouTube Data API key in settings.",
		http.StatusPreconditionFailed,
	)
}

func NewAllKeysExhaustedError(lastErr string) *AppError {
	return NewErrorWithDetails(
		ErrorCodeAllKeysExhausted,
		fmt.Sprintf("All API keys failed or exhausted. Last error: %s", lastErr),
		http.StatusServiceUnavailable,
		map[string]interface{}{
			"last_error": lastErr,
		},
	)
}

func NewYouTubeAPIError(httpStatus int, message string) *AppError {
	return NewErrorWithDetails(
		ErrorCodeYouTubeAPIError,
		message,
		http.StatusBadGateway,
		map[string]interface{}{
			"upstream_status": httpStatus,
		},
	)
}

func NewChannelNotFoundError(channelID string) *AppError {
	return NewError(
		ErrorCodeChannelNotFound,
		fmt.Sprintf("Channel with ID %s not found", channelID),
		http.StatusNotFound,
	)
}

func NewMovieNotFoundError(movieID string) *AppError {
	return NewError(
		ErrorCodeMovieNotFound,
		fmt.Sprintf("Movie with ID %s not found", movieID),
		http.StatusNotFound,
	)
}

func NewDatabaseError(err error) *AppError {
	return NewError(
		ErrorCodeDatabaseError,
		"Database operation failed",
		http.StatusInternalServerError,
	)
}

func NewUnauthorizedError() *AppError {
	return NewError(
		ErrorCodeUnauthorized,
		"Invalid or missing authentication",
		http.StatusUnauthorized,
	)
}

func NewRateLimitError() *AppError {
	return NewError(
		ErrorCodeRateLimitExceeded,
		"Too many requests",
		http.StatusTooManyRequests,
	)
}

func NewInternalError() *AppError {
	return NewError(
		ErrorCodeInternalError,
		"An unexpected error occurred",
		http.StatusInternalServerError,
	)
}
