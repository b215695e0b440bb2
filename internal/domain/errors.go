package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrConfiguration indicates required settings are missing or invalid.
	ErrConfiguration = errors.New("configuration error")
	// ErrBusy is returned when a cart mutation is already in flight for the profile.
	ErrBusy = errors.New("cart operation in progress")
)

// TransportError reports a failed round trip: network failure, non-2xx
// status or a response body that could not be decoded.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
	// Malformed marks a response that arrived but could not be decoded.
	Malformed bool
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("storefront %s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("storefront %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Retryable reports whether repeating the same request may succeed.
func (e *TransportError) Retryable() bool {
	if e.Malformed {
		return false
	}
	if e.StatusCode == 0 {
		return true
	}
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// RemoteError carries the errors the storefront reported for a request it processed.
type RemoteError struct {
	Op       string
	Messages []string
}

func (e *RemoteError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("storefront %s: remote error", e.Op)
	}
	msg := fmt.Sprintf("storefront %s: %s", e.Op, e.Messages[0])
	if extra := len(e.Messages) - 1; extra > 0 {
		msg += fmt.Sprintf(" (and %d more: %s)", extra, strings.Join(e.Messages[1:], "; "))
	}
	return msg
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsRemote reports whether err is (or wraps) a RemoteError.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}
