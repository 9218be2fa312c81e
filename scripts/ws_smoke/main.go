package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/tombola-client/internal/core"
	"github.com/vovakirdan/tombola-client/internal/proto"
	"github.com/vovakirdan/tombola-client/internal/score"
)

// feedFrame mirrors the gateway state payload.
type feedFrame struct {
	State core.State     `json:"state"`
	View  score.Rendered `json:"view"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "gateway state feed address")
	token := flag.String("token", "", "access token, required when the gateway has auth enabled")
	frames := flag.Int("frames", 1, "number of state frames to read before exiting")
	timeout := flag.Duration("timeout", 10*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	target, err := url.Parse(*addr)
	if err != nil {
		return fmt.Errorf("parse addr: %w", err)
	}
	if *token != "" {
		q := target.Query()
		q.Set("access_token", *token)
		target.RawQuery = q.Encode()
	}

	conn, _, err := websocket.Dial(ctx, target.String(), nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	var hello proto.Outbound
	if err := wsjson.Read(ctx, conn, &hello); err != nil {
		return fmt.Errorf("read hello: %w", err)
	}
	if hello.Type != proto.OutboundTypeHello {
		return fmt.Errorf("expected hello, got %q", hello.Type)
	}
	if hello.Protocol != proto.ProtocolVersion {
		return fmt.Errorf("protocol mismatch: gateway=%d client=%d", hello.Protocol, proto.ProtocolVersion)
	}
	fmt.Printf("Connected: protocol=%d\n", hello.Protocol)

	for seen := 0; seen < *frames; {
		var outbound proto.Outbound
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		switch outbound.Type {
		case proto.OutboundTypeError:
			if outbound.Error != nil {
				fmt.Printf("Error: %s (%s)\n", outbound.Error.Msg, outbound.Error.Code)
			}
		case proto.OutboundTypeState:
			raw, err := json.Marshal(outbound.Data)
			if err != nil {
				return fmt.Errorf("marshal outbound data: %w", err)
			}
			var frame feedFrame
			if err := json.Unmarshal(raw, &frame); err != nil {
				fmt.Printf("Raw data: %s\n", string(raw))
				return fmt.Errorf("unmarshal state: %w", err)
			}
			st := frame.State
			fmt.Printf("State: game=%s connected=%t registered=%t player=%q cards=%d extracted=%d score=%d\n",
				st.GameID, st.IsConnected, st.IsRegistered, st.PlayerName, len(st.Cards),
				frame.View.Extracted, frame.View.Player.Score)
			if st.Error != "" {
				fmt.Printf("Store error: %s\n", st.Error)
			}
			seen++
		default:
			fmt.Printf("Received outbound: type=%s\n", outbound.Type)
		}
	}
	return nil
}
