package client

import (
	"errors"
	"fmt"
)

// ErrRetryExhausted is wrapped into the APIError returned when all retry
// attempts are exhausted.
var ErrRetryExhausted = errors.New("retry attempts exhausted")

// errNotFound is the internal sentinel for a 404 on get_guild. It never
// escapes the package; GetGuild maps it to a nil record.
var errNotFound = errors.New("guild not found")

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors. The API has
	// permanently rejected the request; repeating it cannot succeed.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors, presumed transient.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents connect/timeout faults where no
	// response was received, presumed transient.
	ErrorClassNetwork ErrorClass = "network"
)

// classifyStatus categorizes a non-2xx HTTP status code.
func classifyStatus(status int) ErrorClass {
	switch {
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// shouldRetry determines if a failure should be retried based on its
// classification.
func shouldRetry(class ErrorClass) bool {
	switch class {
	case ErrorClassClient:
		return false
	case ErrorClassServer:
		return true
	case ErrorClassNetwork:
		return true
	default:
		return false
	}
}

// APIError is the single error type surfaced by all client operations.
type APIError struct {
	// Message is the operation-prefixed description,
	// e.g. "Failed to create guild".
	Message string

	// StatusCode is the HTTP status of the last attempt, or 0 when no
	// response was received (transport fault).
	StatusCode int

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s (status %d): %v", e.Message, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	default:
		return e.Message
	}
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}
