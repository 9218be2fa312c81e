package http

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/tombola-client/internal/auth/authtest"
	"github.com/vovakirdan/tombola-client/internal/proto"
)

type outboundFrame struct {
	Type     string          `json:"type"`
	Protocol int             `json:"protocol,omitempty"`
	Data     json.RawMessage `json:"data"`
	Error    *proto.Error    `json:"error,omitempty"`
}

func readState(t *testing.T, ctx context.Context, conn *websocket.Conn, match func(StateResponse) bool) StateResponse {
	t.Helper()

	for {
		var frame outboundFrame
		require.NoError(t, wsjson.Read(ctx, conn, &frame), "read outbound")
		if frame.Type != proto.OutboundTypeState {
			continue
		}
		var st StateResponse
		require.NoError(t, json.Unmarshal(frame.Data, &st), "unmarshal state")
		if match(st) {
			return st
		}
	}
}

func TestWebSocketHelloAndStateFeed(t *testing.T) {
	gw := startTestGateway(t, gatewayOptions{})
	gw.upstream.AddGame("g1")

	wsURL := strings.Replace(gw.ts.URL, "http", "ws", 1) + "/ws"
	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err, "dial")
	defer conn.Close(websocket.StatusNormalClosure, "done")

	var hello outboundFrame
	require.NoError(t, wsjson.Read(ctx, conn, &hello), "read hello")
	require.Equal(t, proto.OutboundTypeHello, hello.Type)
	require.Equal(t, proto.ProtocolVersion, hello.Protocol)

	initial := readState(t, ctx, conn, func(StateResponse) bool { return true })
	require.False(t, initial.State.IsConnected, "initial state is disconnected")

	require.NoError(t, gw.games.SetGame(ctx, "g1"))
	require.NoError(t, gw.games.Connect(ctx))
	require.NoError(t, gw.games.Register(ctx, "alice", 1))

	st := readState(t, ctx, conn, func(s StateResponse) bool { return s.State.IsRegistered && len(s.View.Cards) == 1 })
	assert.Equal(t, "alice", st.State.PlayerName)
}

func TestWebSocketRejectsInboundMessages(t *testing.T) {
	gw := startTestGateway(t, gatewayOptions{})

	wsURL := strings.Replace(gw.ts.URL, "http", "ws", 1) + "/ws"
	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err, "dial")
	defer conn.Close(websocket.StatusNormalClosure, "done")

	require.NoError(t, wsjson.Write(ctx, conn, map[string]string{"type": "msg"}))

	for {
		var frame outboundFrame
		require.NoError(t, wsjson.Read(ctx, conn, &frame), "read outbound")
		if frame.Type != proto.OutboundTypeError {
			continue
		}
		require.NotNil(t, frame.Error)
		assert.Equal(t, "read_only", frame.Error.Code)
		return
	}
}

func TestWebSocketRequiresTokenWhenAuthEnabled(t *testing.T) {
	gw := startTestGateway(t, gatewayOptions{authEnabled: true})
	wsURL := strings.Replace(gw.ts.URL, "http", "ws", 1) + "/ws"
	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	_, _, err := websocket.Dial(ctx, wsURL, nil)
	require.Error(t, err, "dial without token")

	token := authtest.MintToken("alice@example.com", "u-1", time.Hour)
	conn, _, err := websocket.Dial(ctx, wsURL+"?access_token="+token, nil)
	require.NoError(t, err, "dial with token")
	conn.Close(websocket.StatusNormalClosure, "done")
}
