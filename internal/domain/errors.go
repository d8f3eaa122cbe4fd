package domain

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration    = errors.New("invalid configuration")
	ErrAuthentication   = errors.New("authentication rejected")
	ErrInvalidAction    = errors.New("invalid action")
	ErrInvalidBatchSize = errors.New("invalid batch size")
	ErrTransport        = errors.New("transport failure")
	ErrProtocol         = errors.New("protocol violation")
	ErrEpisodeEnded     = errors.New("episode ended")
	ErrSession          = errors.New("no active episode")
	ErrSessionNotFound  = errors.New("session not found")
)

// TransportError is returned once a call has failed permanently or exhausted its retries.
type TransportError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport failed after %d attempt(s): %v", e.Op, e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// APIError is a non-success HTTP status returned by the simulation service.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("simulation api error (status %d, request_id: %s): %s", e.StatusCode, e.RequestID, e.Message)
	}
	return fmt.Sprintf("simulation api error (status %d): %s", e.StatusCode, e.Message)
}

type ProtocolError struct {
	Field  string
	Reason string
}

func (e *ProtocolError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrProtocol, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrProtocol, e.Field, e.Reason)
}

func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocol
}

func NewProtocolError(field, format string, args ...any) error {
	return &ProtocolError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
