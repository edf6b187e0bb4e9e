package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/skycast/skycast/internal/provider/resilience"
)

// ErrNotCached is returned by stores when no record exists for a key.
var ErrNotCached = errors.New("weather not cached")

// Kind classifies a weather error.
type Kind int

const (
	// KindNetwork covers connectivity and low-level I/O failures.
	KindNetwork Kind = iota + 1
	// KindAPI covers non-2xx upstream responses.
	KindAPI
	// KindCache covers local store failures.
	KindCache
	// KindLocation covers invalid coordinates and search queries.
	KindLocation
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAPI:
		return "api"
	case KindCache:
		return "cache"
	case KindLocation:
		return "location"
	default:
		return "unknown"
	}
}

// Error is the error type surfaced by the weather layer.
// Code is the upstream HTTP status for KindAPI and zero otherwise.
type Error struct {
	Kind    Kind
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a KindNetwork error.
func NewNetworkError(message string, err error) *Error {
	return &Error{Kind: KindNetwork, Message: message, Err: err}
}

// NewAPIError creates a KindAPI error for the given status code.
func NewAPIError(code int, message string) *Error {
	return &Error{Kind: KindAPI, Code: code, Message: message}
}

// NewCacheError creates a KindCache error.
func NewCacheError(message string, err error) *Error {
	return &Error{Kind: KindCache, Message: message, Err: err}
}

// NewLocationError creates a KindLocation error.
func NewLocationError(message string) *Error {
	return &Error{Kind: KindLocation, Message: message}
}

// APIErrorFromStatus translates an upstream status code.
func APIErrorFromStatus(code int) *Error {
	switch {
	case code == http.StatusBadRequest:
		return NewAPIError(code, "invalid request parameters")
	case code == http.StatusUnauthorized:
		return NewAPIError(code, "invalid or expired API key")
	case code == http.StatusNotFound:
		return NewAPIError(code, "location not found")
	case code == http.StatusTooManyRequests:
		return NewAPIError(code, "too many requests, try again later")
	case code >= 500 && code < 600:
		return NewAPIError(code, "weather server error")
	default:
		return NewAPIError(code, fmt.Sprintf("request failed with status %d", code))
	}
}

// Translate maps any error into the weather taxonomy.
// Errors already in the taxonomy pass through; anything unrecognized becomes KindNetwork.
func Translate(err error) error {
	if err == nil {
		return nil
	}

	var werr *Error
	if errors.As(err, &werr) {
		return werr
	}

	var (
		netErr    net.Error
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		return NewNetworkError("weather service temporarily unavailable", err)
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return NewNetworkError("invalid response from weather service", err)
	case errors.Is(err, context.DeadlineExceeded):
		return NewNetworkError("request timed out", err)
	case errors.Is(err, context.Canceled):
		return NewNetworkError("request canceled", err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return NewNetworkError("connection timed out", err)
	case errors.As(err, &netErr):
		return NewNetworkError("unable to reach weather service", err)
	default:
		return NewNetworkError("unknown error", err)
	}
}

// KindOf reports the kind of err, or zero if err is not a weather error.
func KindOf(err error) Kind {
	var werr *Error
	if errors.As(err, &werr) {
		return werr.Kind
	}
	return 0
}

// IsKind reports whether err is a weather error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// DisplayMessage returns the text shown to end users for err.
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}

	var werr *Error
	if !errors.As(err, &werr) {
		return "Unexpected error: " + err.Error()
	}

	switch werr.Kind {
	case KindNetwork:
		return "Network error: " + werr.Message
	case KindAPI:
		return "Weather service error: " + werr.Message
	case KindCache:
		return "Storage error: " + werr.Message
	case KindLocation:
		return "Location error: " + werr.Message
	default:
		return werr.Message
	}
}
