package client

import (
	"errors"
	"fmt"
	"time"
)

// ErrorClass represents a classification of call failures.
type ErrorClass string

const (
	// ErrorClassTimeout represents an attempt that ran past its timeout.
	ErrorClassTimeout ErrorClass = "timeout"

	// ErrorClassNetwork represents transport failures (DNS, refused, reset).
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassClient represents 4xx responses.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx responses.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassProtocol represents response bodies that are not JSON.
	ErrorClassProtocol ErrorClass = "protocol"

	// ErrorClassApplication represents success:false envelopes.
	ErrorClassApplication ErrorClass = "application"

	// ErrorClassUnknown is used for errors outside the taxonomy.
	ErrorClassUnknown ErrorClass = "unknown"
)

// TimeoutError is returned when the webhook did not answer within the
// per-attempt timeout.
type TimeoutError struct {
	Webhook string
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timeout after %s", e.Webhook, e.Timeout)
}

// Class returns ErrorClassTimeout.
func (e *TimeoutError) Class() ErrorClass { return ErrorClassTimeout }

// NetworkError wraps a transport failure.
type NetworkError struct {
	Webhook string
	Err     error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Webhook, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *NetworkError) Unwrap() error { return e.Err }

// Class returns ErrorClassNetwork.
func (e *NetworkError) Class() ErrorClass { return ErrorClassNetwork }

// HTTPError is returned for non-2xx responses.
type HTTPError struct {
	Webhook string
	Status  int
	Body    string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Webhook, e.Status, e.Body)
	}
	return fmt.Sprintf("%s: HTTP %d", e.Webhook, e.Status)
}

// Class returns ErrorClassServer for 5xx and ErrorClassClient otherwise.
func (e *HTTPError) Class() ErrorClass {
	if e.Status >= 500 {
		return ErrorClassServer
	}
	return ErrorClassClient
}

// ProtocolError is returned when a 2xx response body is not valid JSON.
type ProtocolError struct {
	Webhook string
	Err     error
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: bad response: %v", e.Webhook, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ProtocolError) Unwrap() error { return e.Err }

// Class returns ErrorClassProtocol.
func (e *ProtocolError) Class() ErrorClass { return ErrorClassProtocol }

// ApplicationError carries the message of a success:false envelope.
// Message is meant to be shown to the user verbatim.
type ApplicationError struct {
	Webhook string
	Message string
}

// Error implements the error interface.
func (e *ApplicationError) Error() string {
	return e.Message
}

// Class returns ErrorClassApplication.
func (e *ApplicationError) Class() ErrorClass { return ErrorClassApplication }

// ClassOf returns the class of err, or ErrorClassUnknown.
func ClassOf(err error) ErrorClass {
	var c interface{ Class() ErrorClass }
	if errors.As(err, &c) {
		return c.Class()
	}
	return ErrorClassUnknown
}

// IsRetryable reports whether err may succeed on another attempt:
// timeouts, transport failures and 5xx responses.
func IsRetryable(err error) bool {
	switch ClassOf(err) {
	case ErrorClassTimeout, ErrorClassNetwork, ErrorClassServer:
		return true
	default:
		return false
	}
}
