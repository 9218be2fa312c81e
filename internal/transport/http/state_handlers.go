package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/tombola-client/internal/core"
	"github.com/vovakirdan/tombola-client/internal/score"
)

// StateResponse is a store snapshot with its derived view.
type StateResponse struct {
	State core.State     `json:"state"`
	View  score.Rendered `json:"view"`
}

func newStateResponse(st core.State) StateResponse {
	return StateResponse{State: st, View: score.Render(st.View())}
}

// StateHandlers serves the current game state.
type StateHandlers struct {
	games *core.Store
	log   *zerolog.Logger
}

// NewStateHandlers creates a new state handlers instance.
func NewStateHandlers(games *core.Store, logger *zerolog.Logger) *StateHandlers {
	return &StateHandlers{games: games, log: logger}
}

// State returns the current snapshot.
// GET /api/state
func (h *StateHandlers) State(c *gin.Context) {
	c.JSON(http.StatusOK, newStateResponse(h.games.Snapshot()))
}
