package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/tombola-client/internal/core"
	"github.com/vovakirdan/tombola-client/internal/proto"
)

// WSHandler upgrades HTTP connections and streams store snapshots to them.
type WSHandler struct {
	games *core.Store
	log   *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(games *core.Store, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{games: games, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	feedID := uuid.NewString()
	states, unsubscribe := h.games.Subscribe()
	defer unsubscribe()
	h.log.Debug().Str("feed_id", feedID).Msg("state feed opened")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := wsjson.Write(ctx, conn, proto.Outbound{Type: proto.OutboundTypeHello, Protocol: proto.ProtocolVersion}); err != nil {
		h.log.Warn().Err(err).Str("feed_id", feedID).Msg("write ws hello")
		return
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, feedID, states)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("feed_id", feedID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// readLoop answers anything a client sends with an error; the feed is
// push only. It returns when the peer goes away.
func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		var inbound map[string]any
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}
		if err := wsjson.Write(ctx, conn, proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: "read_only", Msg: "state feed does not accept messages"},
		}); err != nil {
			return err
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, feedID string, states <-chan core.State) error {
	for {
		select {
		case st, ok := <-states:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, proto.Outbound{Type: proto.OutboundTypeState, Data: newStateResponse(st)}); err != nil {
				h.log.Error().Err(err).Str("feed_id", feedID).Msg("write ws state")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
