package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies an API failure for the presentation layer.
type ErrorKind string

const (
	// KindNotFound: unknown user or request id.
	KindNotFound ErrorKind = "not_found"
	// KindConflict: duplicate active request, or self-request.
	KindConflict ErrorKind = "conflict"
	// KindForbidden: wrong actor for the attempted transition, or
	// missing/invalid credentials.
	KindForbidden ErrorKind = "forbidden"
	// KindInvalidState: transition attempted on a non-pending request.
	KindInvalidState ErrorKind = "invalid_state"
	// KindNetworkOrServer: transport failure or 5xx catch-all.
	KindNetworkOrServer ErrorKind = "network_or_server"
)

// APIError is the failure signal for every client operation. Message is
// the server-provided message when one was present, otherwise a generic
// fallback suitable for direct display.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("api: %s (%d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api: %s: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// Is allows errors.Is comparisons against kind sentinels built with
// &APIError{Kind: ...}.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindNetworkOrServer
}

func IsNotFound(err error) bool     { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool     { return KindOf(err) == KindConflict }
func IsForbidden(err error) bool    { return KindOf(err) == KindForbidden }
func IsInvalidState(err error) bool { return KindOf(err) == KindInvalidState }

// UserMessage extracts a message safe to surface in a notification,
// preferring whatever the server said.
func UserMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Something went wrong. Please try again."
}

// mutation hints at what the failed call was doing, so ambiguous status
// codes can be classified. A 409 on creation is a duplicate (Conflict);
// a 409 on a transition means the request already left pending
// (InvalidState).
type mutation int

const (
	opRead mutation = iota
	opCreate
	opTransition
)

func classify(status int, op mutation) ErrorKind {
	switch status {
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindForbidden
	case http.StatusConflict:
		if op == opTransition {
			return KindInvalidState
		}
		return KindConflict
	case http.StatusUnprocessableEntity:
		if op == opCreate {
			return KindConflict
		}
		return KindInvalidState
	}
	return KindNetworkOrServer
}
