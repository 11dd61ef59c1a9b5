package adsearch

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery is returned before any network call when the query is blank.
	ErrEmptyQuery = errors.New("empty search query")
	// ErrUnknownContract is returned for a contract value other than post or legacy.
	ErrUnknownContract = errors.New("unknown search contract")
)

// ServerError is a non-2xx answer from the backend.
type ServerError struct {
	StatusCode int
	Detail     string
}

func (e *ServerError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

// TransportError wraps network and decoding failures. Its message is the
// underlying error text so it can be shown to the user verbatim.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return e.Op + " failed"
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Kind names the error class for logs and metrics labels.
func Kind(err error) string {
	var serverErr *ServerError
	var transportErr *TransportError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyQuery):
		return "validation"
	case errors.As(err, &serverErr):
		return "server"
	case errors.As(err, &transportErr):
		return "transport"
	default:
		return "unknown"
	}
}
