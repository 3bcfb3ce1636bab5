package client

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestClassOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"timeout", &TimeoutError{Webhook: "w", Timeout: time.Second}, ErrorClassTimeout},
		{"network", &NetworkError{Webhook: "w", Err: errors.New("refused")}, ErrorClassNetwork},
		{"server", &HTTPError{Webhook: "w", Status: 502}, ErrorClassServer},
		{"client", &HTTPError{Webhook: "w", Status: 404}, ErrorClassClient},
		{"protocol", &ProtocolError{Webhook: "w", Err: errors.New("bad json")}, ErrorClassProtocol},
		{"application", &ApplicationError{Webhook: "w", Message: "nope"}, ErrorClassApplication},
		{"wrapped", fmt.Errorf("search: %w", &HTTPError{Webhook: "w", Status: 500}), ErrorClassServer},
		{"plain", errors.New("boom"), ErrorClassUnknown},
		{"nil", nil, ErrorClassUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassOf(tt.err); got != tt.want {
				t.Errorf("ClassOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"timeout", &TimeoutError{Webhook: "w"}, true},
		{"network", &NetworkError{Webhook: "w", Err: errors.New("reset")}, true},
		{"503", &HTTPError{Webhook: "w", Status: 503}, true},
		{"400", &HTTPError{Webhook: "w", Status: 400}, false},
		{"protocol", &ProtocolError{Webhook: "w", Err: errors.New("x")}, false},
		{"application", &ApplicationError{Webhook: "w", Message: "x"}, false},
		{"cancelled", context.Canceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNetworkError_Unwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := &NetworkError{Webhook: "w", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("errors.Is(NetworkError, inner) = false, want true")
	}
}

func TestApplicationError_Message(t *testing.T) {
	err := &ApplicationError{Webhook: "w", Message: "Entreprise déjà existante"}
	if err.Error() != "Entreprise déjà existante" {
		t.Errorf("Error() = %q, want the backend message", err.Error())
	}
}
