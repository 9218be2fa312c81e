package core

import (
	"errors"
	"fmt"

	"github.com/vovakirdan/tombola-client/internal/api"
)

// User-facing messages recorded in State.Error.
const (
	GameChangedMessage = "New game started. Please register again to continue playing."

	msgConnectFailed  = "Failed to connect"
	msgRegisterFailed = "Registration failed"
	msgLoadCards      = "Failed to load cards"
	msgGenerateCards  = "Failed to generate cards"
	msgRefreshFailed  = "Failed to refresh game state"
	msgBadResponse    = "Unexpected response from server"
)

var (
	// ErrNoGame is returned when an operation needs a selected game.
	ErrNoGame = api.ErrNoGame
	// ErrNotConnected is returned when an operation needs a connected store.
	ErrNotConnected = errors.New("not connected to a game")
	// ErrNotRegistered is returned when an operation needs a registered player.
	ErrNotRegistered = errors.New("not registered in this game")
	// ErrStale is returned when a result arrived for a superseded game selection.
	ErrStale = errors.New("result discarded: game selection changed")
)

// PreconditionError reports an operation invoked before its required state.
type PreconditionError struct {
	Op  string
	Err error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PreconditionError) Unwrap() error { return e.Err }

func precondition(op string, err error) *PreconditionError {
	return &PreconditionError{Op: op, Err: err}
}

// userMessage converts err into the text shown to the player. Transport
// internals stay in the logs.
func userMessage(err error, fallback string) string {
	var (
		apiErr *api.APIError
		netErr *api.NetworkError
		decErr *api.DecodeError
		preErr *PreconditionError
	)
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.As(err, &netErr):
		return fmt.Sprintf("Network error: Unable to connect to server. Make sure the Tombola API server is running on %s", netErr.BaseURL)
	case errors.As(err, &decErr):
		return msgBadResponse
	case errors.As(err, &preErr):
		return preErr.Err.Error()
	default:
		return fallback
	}
}
