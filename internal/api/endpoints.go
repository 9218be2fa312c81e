package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/vovakirdan/tombola-client/internal/proto"
)

func gamePath(gameID, suffix string) (string, error) {
	if gameID == "" {
		return "", ErrNoGame
	}
	return "/" + url.PathEscape(gameID) + suffix, nil
}

func (c *Client) gameCall(ctx context.Context, method, gameID, suffix string, body, out any, opts ...CallOption) error {
	endpoint, err := gamePath(gameID, suffix)
	if err != nil {
		return err
	}
	return c.Call(ctx, method, endpoint, body, out, opts...)
}

// NewGame creates a game instance. It is a bootstrap call and carries no identity.
func (c *Client) NewGame(ctx context.Context) (*proto.NewGameResponse, error) {
	var out proto.NewGameResponse
	if err := c.Call(ctx, http.MethodPost, "/newgame", nil, &out, WithoutIdentity()); err != nil {
		return nil, err
	}
	return &out, nil
}

// GamesList lists the games known to the server.
func (c *Client) GamesList(ctx context.Context) (*proto.GameList, error) {
	var out proto.GameList
	if err := c.Call(ctx, http.MethodGet, "/gameslist", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Join registers a client in the given game.
func (c *Client) Join(ctx context.Context, gameID string, req proto.RegisterRequest) (*proto.RegistrationResponse, error) {
	if req.ClientType == "" {
		req.ClientType = proto.ClientTypePlayer
	}
	var out proto.RegistrationResponse
	if err := c.gameCall(ctx, http.MethodPost, gameID, "/join", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateCards asks the server to assign count new cards to the caller.
func (c *Client) GenerateCards(ctx context.Context, gameID string, count int) (*proto.GenerateCardsResponse, error) {
	var out proto.GenerateCardsResponse
	if err := c.gameCall(ctx, http.MethodPost, gameID, "/generatecards", proto.GenerateCardsRequest{Count: count}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAssignedCards lists the card ids assigned to the caller.
func (c *Client) ListAssignedCards(ctx context.Context, gameID string) (*proto.CardAssignments, error) {
	var out proto.CardAssignments
	if err := c.gameCall(ctx, http.MethodGet, gameID, "/listassignedcards", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAssignedCard fetches one assigned card.
func (c *Client) GetAssignedCard(ctx context.Context, gameID, cardID string) (*proto.Card, error) {
	var out proto.Card
	if err := c.gameCall(ctx, http.MethodGet, gameID, "/getassignedcard/"+url.PathEscape(cardID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Board fetches the extracted numbers.
func (c *Client) Board(ctx context.Context, gameID string) (*proto.Board, error) {
	var out proto.Board
	if err := c.gameCall(ctx, http.MethodGet, gameID, "/board", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Pouch fetches the numbers still to be drawn.
func (c *Client) Pouch(ctx context.Context, gameID string) (*proto.Pouch, error) {
	var out proto.Pouch
	if err := c.gameCall(ctx, http.MethodGet, gameID, "/pouch", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ScoreMap fetches the score card.
func (c *Client) ScoreMap(ctx context.Context, gameID string) (*proto.ScoreCard, error) {
	var out proto.ScoreCard
	if err := c.gameCall(ctx, http.MethodGet, gameID, "/scoremap", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status fetches the game status.
func (c *Client) Status(ctx context.Context, gameID string) (*proto.GameStatus, error) {
	var out proto.GameStatus
	if err := c.gameCall(ctx, http.MethodGet, gameID, "/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Players lists the clients registered in the game.
func (c *Client) Players(ctx context.Context, gameID string) (*proto.Players, error) {
	var out proto.Players
	if err := c.gameCall(ctx, http.MethodGet, gameID, "/players", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Extract draws the next number. The server only accepts it from the game owner.
func (c *Client) Extract(ctx context.Context, gameID string) (*proto.ExtractionResponse, error) {
	var out proto.ExtractionResponse
	if err := c.gameCall(ctx, http.MethodPost, gameID, "/extract", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DumpGame asks the server to dump the game state. Owner only.
func (c *Client) DumpGame(ctx context.Context, gameID string) (map[string]any, error) {
	out := map[string]any{}
	if err := c.gameCall(ctx, http.MethodPost, gameID, "/dumpgame", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ClientByID looks a client up by id.
func (c *Client) ClientByID(ctx context.Context, clientID string) (*proto.ClientInfo, error) {
	var out proto.ClientInfo
	if err := c.Call(ctx, http.MethodGet, "/clientinfo/"+url.PathEscape(clientID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClientByName looks a client up by name.
func (c *Client) ClientByName(ctx context.Context, name string) (*proto.ClientInfo, error) {
	var out proto.ClientInfo
	if err := c.Call(ctx, http.MethodGet, "/clientinfo?name="+url.QueryEscape(name), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
