package utils

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
)

type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

func NewBadRequestError(message string, details any) *APIError {
	return &APIError{
		StatusCode: fiber.StatusBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
		Details:    details,
	}
}

func NewUnauthorizedError(message string) *APIError {
	return &APIError{
		StatusCode: fiber.StatusUnauthorized,
		Code:       "UNAUTHORIZED",
		Message:    message,
	}
}

func NewForbiddenError(message string) *APIError {
	return &APIError{
		StatusCode: fiber.StatusForbidden,
		Code:       "FORBIDDEN",
		Message:    message,
	}
}

func NewNotFoundError(resource string) *APIError {
	return &APIError{
		StatusCode: fiber.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
	}
}

// NewConflictError reports a request that is valid but not allowed in the
// resource's current state, e.g. running a finalized reconciliation.
func NewConflictError(message string) *APIError {
	return &APIError{
		StatusCode: fiber.StatusConflict,
		Code:       "CONFLICT",
		Message:    message,
	}
}

func NewTooManyRequestsError() *APIError {
	return &APIError{
		StatusCode: fiber.StatusTooManyRequests,
		Code:       "RATE_LIMITED",
		Message:    "Too many requests",
	}
}

func NewInternalError(err error) *APIError {
	return &APIError{
		StatusCode: fiber.StatusInternalServerError,
		Code:       "INTERNAL_ERROR",
		Message:    "An internal error occurred",
		Details:    err.Error(),
	}
}

// AsAPIError converts any handler error to an APIError. Fiber's own errors keep
// their status code; everything else is an internal error.
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return &APIError{
			StatusCode: fiberErr.Code,
			Code:       "HTTP_ERROR",
			Message:    fiberErr.Message,
		}
	}
	return NewInternalError(err)
}

// ErrorHandler renders handler errors as APIError JSON
func ErrorHandler(c fiber.Ctx, err error) error {
	apiErr := AsAPIError(err)
	return c.Status(apiErr.StatusCode).JSON(apiErr)
}

// NewErrorHandler logs server errors and, outside development, strips internal
// details from the response.
func NewErrorHandler(log zerolog.Logger, exposeDetails bool) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		apiErr := AsAPIError(err)
		if apiErr.StatusCode >= fiber.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Msg("request failed")
			if !exposeDetails {
				apiErr = &APIError{
					StatusCode: apiErr.StatusCode,
					Code:       apiErr.Code,
					Message:    apiErr.Message,
				}
			}
		}
		return c.Status(apiErr.StatusCode).JSON(apiErr)
	}
}
