package api

import (
	"errors"
	"fmt"
)

// ErrNoGame is returned by game-scoped calls made without a game id.
var ErrNoGame = errors.New("game id must be set")

// NetworkError reports that the game server could not be reached.
type NetworkError struct {
	Endpoint string
	BaseURL  string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: unable to connect to server at %s (%s)", e.BaseURL, e.Endpoint)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is a non-2xx response from the game server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// DecodeError reports a response body that is not the expected shape.
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}
