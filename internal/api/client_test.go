package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/tombola-client/internal/api/apitest"
	"github.com/vovakirdan/tombola-client/internal/proto"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	logger := zerolog.Nop()
	return New(baseURL, 2*time.Second, nil, &logger)
}

func TestJoinAttachesIdentityAfterwards(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.AddGame("g1")
	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	cards := 2
	reg, err := c.Join(ctx, "g1", proto.RegisterRequest{Name: "alice", NoCard: &cards})
	require.NoError(t, err)
	c.SetClientID(reg.ClientID)
	c.SetAuthToken("session-token")

	list, err := c.ListAssignedCards(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, list.Cards, 2)

	reqs := srv.Requests()
	require.Len(t, reqs, 2)
	join, list0 := reqs[0], reqs[1]
	assert.Empty(t, join.ClientID, "join should carry no identity")
	assert.Contains(t, string(join.Body), `"client_type":"player"`)
	assert.Equal(t, reg.ClientID, list0.ClientID)
	assert.Equal(t, "Bearer session-token", list0.Auth)
}

func TestListAssignedCardsRejectsUnknownClient(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.AddGame("g1")
	c := newTestClient(t, srv.URL)
	c.SetClientID("stranger")

	_, err := c.ListAssignedCards(context.Background(), "g1")
	assert.True(t, IsStatus(err, http.StatusUnauthorized), "got %v", err)
}

func TestNewGameCarriesNoIdentity(t *testing.T) {
	srv := apitest.NewServer(t)
	c := newTestClient(t, srv.URL)
	c.SetClientID("someone")

	resp, err := c.NewGame(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.GameID)
	assert.Empty(t, srv.Requests()[0].ClientID, "newgame should not send identity")
}

func TestAPIErrorUsesServerMessage(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.AddGame("g1")
	c := newTestClient(t, srv.URL)

	_, err := c.Extract(context.Background(), "g1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %T %v", err, err)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "Only the game owner can extract numbers", apiErr.Message)
	assert.True(t, IsStatus(err, http.StatusForbidden))
}

func TestAPIErrorFallsBackToStatusText(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	_, err := c.Status(context.Background(), "g1")
	assert.EqualError(t, err, "HTTP 502: Bad Gateway")
}

func TestNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := newTestClient(t, url)
	_, err := c.Board(context.Background(), "g1")
	assert.True(t, IsNetwork(err), "expected network error, got %T %v", err, err)
}

func TestDecodeErrorOnInvalidRecord(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"card_id":"c1","card_data":[[1,2,3,4,5],[6,7,8,9,10]]}`))
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	_, err := c.GetAssignedCard(context.Background(), "g1", "c1")
	var decErr *DecodeError
	require.True(t, errors.As(err, &decErr), "expected DecodeError, got %T %v", err, err)
	assert.ErrorIs(t, err, proto.ErrInvalidRecord)
}

func TestGameScopedCallsRequireGameID(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1")
	_, err := c.Status(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoGame)
}

func TestOwnerCanExtract(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.AddGame("g1")
	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	reg, err := c.Join(ctx, "g1", proto.RegisterRequest{Name: "host"})
	require.NoError(t, err)
	c.SetClientID(reg.ClientID)

	resp, err := c.Extract(ctx, "g1")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.TotalExtracted)

	board, err := c.Board(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, []int{resp.ExtractedNumber}, board.Numbers)

	info, err := c.ClientByID(ctx, reg.ClientID)
	require.NoError(t, err)
	assert.Equal(t, "host", info.Name)
}

func TestClientLookups(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.AddGame("g1")
	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	reg, err := c.Join(ctx, "g1", proto.RegisterRequest{Name: "grace hopper"})
	require.NoError(t, err)

	byName, err := c.ClientByName(ctx, "grace hopper")
	require.NoError(t, err)
	assert.Equal(t, reg.ClientID, byName.ClientID)

	byID, err := c.ClientByID(ctx, reg.ClientID)
	require.NoError(t, err)
	assert.Equal(t, "grace hopper", byID.Name)

	_, err = c.ClientByName(ctx, "nobody")
	assert.True(t, IsStatus(err, http.StatusNotFound), "expected 404 APIError, got %v", err)
}
