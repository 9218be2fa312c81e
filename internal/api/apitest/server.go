// Package apitest provides an in-memory stand-in for the Tombola game server.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/tombola-client/internal/proto"
)

// Game is the server-side state of one game instance.
type Game struct {
	Status proto.GameStatus
	Board  proto.Board
	Pouch  proto.Pouch
	Score  proto.ScoreCard
	Cards  map[string][]proto.Card
}

// Request records a call received by the server.
type Request struct {
	Method   string
	Path     string
	ClientID string
	Auth     string
	Body     []byte
}

// Server is a fake game server backed by httptest.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	games    map[string]*Game
	clients  map[string]proto.ClientInfo
	nextID   int
	failures map[string]int
	requests []Request

	// Hook, when set, runs before every request is handled, outside the lock.
	Hook func(r *http.Request)

	assignCount int
}

// NewServer starts a fake server closed at test cleanup.
func NewServer(t *testing.T) *Server {
	t.Helper()

	s := &Server{
		games:    make(map[string]*Game),
		clients:  make(map[string]proto.ClientInfo),
		failures: make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// AddGame registers a fresh game with a full pouch.
func (s *Server) AddGame(gameID string) *Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addGameLocked(gameID)
}

func (s *Server) addGameLocked(gameID string) *Game {
	pouch := make([]int, 0, 90)
	for n := 1; n <= 90; n++ {
		pouch = append(pouch, n)
	}
	g := &Game{
		Status: proto.GameStatus{Status: "new", GameID: gameID, CreatedAt: time.Now().UTC().Format(time.RFC3339), Server: "apitest"},
		Board:  proto.Board{Numbers: []int{}, MarkedNumbers: []int{}},
		Pouch:  proto.Pouch{Numbers: pouch},
		Score:  proto.ScoreCard{ScoreMap: map[string][]proto.Achievement{}},
		Cards:  make(map[string][]proto.Card),
	}
	s.games[gameID] = g
	return g
}

// Update runs fn on the named game under the server lock.
func (s *Server) Update(gameID string, fn func(g *Game)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.games[gameID])
}

// Draw moves numbers from the pouch to the board.
func (s *Server) Draw(gameID string, numbers ...int) {
	s.Update(gameID, func(g *Game) {
		for _, n := range numbers {
			drawLocked(g, n)
		}
	})
}

// SetScore replaces the score card of a game.
func (s *Server) SetScore(gameID string, sc proto.ScoreCard) {
	s.Update(gameID, func(g *Game) {
		g.Score = sc
		g.Status.Scorecard = sc.PublishedScore
	})
}

// Rollover makes the endpoints of oldID report newID as their game id.
func (s *Server) Rollover(oldID, newID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[newID]; !ok {
		s.addGameLocked(newID)
	}
	s.games[oldID].Status.GameID = newID
}

// AssignCount makes join hand out n cards whatever the client asked for.
// Zero restores the requested count.
func (s *Server) AssignCount(n int) {
	s.mu.Lock()
	s.assignCount = n
	s.mu.Unlock()
}

// Fail makes every request whose path ends with suffix answer with status.
func (s *Server) Fail(suffix string, status int) {
	s.mu.Lock()
	s.failures[suffix] = status
	s.mu.Unlock()
}

// ClearFailures removes all injected failures.
func (s *Server) ClearFailures() {
	s.mu.Lock()
	s.failures = make(map[string]int)
	s.mu.Unlock()
}

// Requests returns a copy of the recorded requests.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// CardsOf returns the cards assigned to clientID in gameID.
func (s *Server) CardsOf(gameID, clientID string) []proto.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]proto.Card(nil), s.games[gameID].Cards[clientID]...)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	if s.Hook != nil {
		s.Hook(r)
	}

	var body []byte
	if r.Body != nil {
		var raw json.RawMessage
		_ = json.NewDecoder(r.Body).Decode(&raw)
		body = raw
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, Request{
		Method:   r.Method,
		Path:     r.URL.Path,
		ClientID: r.Header.Get("X-Client-ID"),
		Auth:     r.Header.Get("Authorization"),
		Body:     body,
	})

	for suffix, status := range s.failures {
		if strings.HasSuffix(r.URL.Path, suffix) {
			writeJSON(w, status, proto.ErrorBody{Error: fmt.Sprintf("injected failure on %s", suffix)})
			return
		}
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/newgame":
		s.nextID++
		id := fmt.Sprintf("game-%04d", s.nextID)
		g := s.addGameLocked(id)
		writeJSON(w, http.StatusOK, proto.NewGameResponse{Message: "New game created", GameID: id, CreatedAt: g.Status.CreatedAt})
	case r.Method == http.MethodGet && r.URL.Path == "/gameslist":
		s.gamesList(w)
	case r.Method == http.MethodGet && parts[0] == "clientinfo":
		s.clientInfo(w, r, parts)
	default:
		s.gameRoute(w, r, parts, body)
	}
}

func (s *Server) gamesList(w http.ResponseWriter) {
	ids := make([]string, 0, len(s.games))
	for id := range s.games {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := proto.GameList{Success: true, TotalGames: len(ids)}
	for _, id := range ids {
		g := s.games[id]
		out.Games = append(out.Games, proto.GameInfo{GameID: id, Status: g.Status.Status, StartDate: g.Status.CreatedAt})
		switch g.Status.Status {
		case "new":
			out.Statistics.NewGames++
		case "closed":
			out.Statistics.ClosedGames++
		default:
			out.Statistics.ActiveGames++
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) clientInfo(w http.ResponseWriter, r *http.Request, parts []string) {
	if len(parts) == 2 {
		if info, ok := s.clients[parts[1]]; ok {
			writeJSON(w, http.StatusOK, info)
			return
		}
	}
	if name := r.URL.Query().Get("name"); name != "" {
		for _, info := range s.clients {
			if info.Name == name {
				writeJSON(w, http.StatusOK, info)
				return
			}
		}
	}
	writeJSON(w, http.StatusNotFound, proto.ErrorBody{Error: "Client not found"})
}

func (s *Server) gameRoute(w http.ResponseWriter, r *http.Request, parts []string, body []byte) {
	if len(parts) < 2 {
		writeJSON(w, http.StatusNotFound, proto.ErrorBody{Error: "Not found"})
		return
	}
	g, ok := s.games[parts[0]]
	if !ok {
		writeJSON(w, http.StatusNotFound, proto.ErrorBody{Error: "Game not found"})
		return
	}
	caller := r.Header.Get("X-Client-ID")

	switch {
	case r.Method == http.MethodGet && parts[1] == "status":
		writeJSON(w, http.StatusOK, g.Status)
	case r.Method == http.MethodGet && parts[1] == "board":
		writeJSON(w, http.StatusOK, g.Board)
	case r.Method == http.MethodGet && parts[1] == "pouch":
		writeJSON(w, http.StatusOK, g.Pouch)
	case r.Method == http.MethodGet && parts[1] == "scoremap":
		writeJSON(w, http.StatusOK, g.Score)
	case r.Method == http.MethodGet && parts[1] == "players":
		s.players(w, parts[0], g)
	case r.Method == http.MethodPost && (parts[1] == "join" || parts[1] == "register"):
		s.join(w, g, body)
	case r.Method == http.MethodPost && parts[1] == "generatecards":
		s.generate(w, g, caller, body)
	case r.Method == http.MethodGet && parts[1] == "listassignedcards":
		if _, ok := g.Cards[caller]; !ok {
			writeJSON(w, http.StatusUnauthorized, proto.ErrorBody{Error: "Client not registered"})
			return
		}
		out := proto.CardAssignments{Cards: []proto.CardAssignment{}}
		for _, c := range g.Cards[caller] {
			out.Cards = append(out.Cards, proto.CardAssignment{CardID: c.CardID, AssignedTo: caller})
		}
		writeJSON(w, http.StatusOK, out)
	case r.Method == http.MethodGet && parts[1] == "getassignedcard" && len(parts) == 3:
		for _, c := range g.Cards[caller] {
			if c.CardID == parts[2] {
				writeJSON(w, http.StatusOK, c)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, proto.ErrorBody{Error: "Card not assigned to client"})
	case r.Method == http.MethodPost && parts[1] == "extract":
		if caller == "" || caller != g.Status.Owner {
			writeJSON(w, http.StatusForbidden, proto.ErrorBody{Error: "Only the game owner can extract numbers"})
			return
		}
		if len(g.Pouch.Numbers) == 0 {
			writeJSON(w, http.StatusConflict, proto.ErrorBody{Error: "Pouch is empty"})
			return
		}
		n := g.Pouch.Numbers[0]
		drawLocked(g, n)
		writeJSON(w, http.StatusOK, proto.ExtractionResponse{
			Success: true, ExtractedNumber: n, NumbersRemaining: len(g.Pouch.Numbers),
			TotalExtracted: len(g.Board.Numbers), Message: "Number extracted",
		})
	case r.Method == http.MethodPost && parts[1] == "dumpgame":
		if caller == "" || caller != g.Status.Owner {
			writeJSON(w, http.StatusForbidden, proto.ErrorBody{Error: "Only the game owner can dump the game"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Game dumped", "game_id": g.Status.GameID})
	default:
		writeJSON(w, http.StatusNotFound, proto.ErrorBody{Error: "Not found"})
	}
}

func (s *Server) players(w http.ResponseWriter, gameID string, g *Game) {
	out := proto.Players{GameID: gameID, Players: []proto.PlayerInfo{}}
	ids := make([]string, 0, len(g.Cards))
	for id := range g.Cards {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		info := s.clients[id]
		out.Players = append(out.Players, proto.PlayerInfo{ClientID: id, ClientType: info.ClientType, CardCount: len(g.Cards[id])})
		out.TotalCards += len(g.Cards[id])
	}
	out.TotalPlayers = len(out.Players)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) join(w http.ResponseWriter, g *Game, body []byte) {
	var req proto.RegisterRequest
	if err := json.Unmarshal(body, &req); err != nil || strings.TrimSpace(req.Name) == "" {
		writeJSON(w, http.StatusBadRequest, proto.ErrorBody{Error: "Name is required"})
		return
	}
	s.nextID++
	id := fmt.Sprintf("%016x", s.nextID)
	s.clients[id] = proto.ClientInfo{ClientID: id, Name: req.Name, ClientType: req.ClientType, RegisteredAt: time.Now().UTC().Format(time.RFC3339)}
	if g.Status.Owner == "" {
		g.Status.Owner = id
	}
	count := proto.DefaultCardSize
	if req.NoCard != nil {
		count = *req.NoCard
	}
	if s.assignCount > 0 {
		count = s.assignCount
	}
	g.Cards[id] = s.newCardsLocked(count)
	writeJSON(w, http.StatusOK, proto.RegistrationResponse{ClientID: id, Message: "Client registered successfully"})
}

func (s *Server) generate(w http.ResponseWriter, g *Game, caller string, body []byte) {
	if _, ok := g.Cards[caller]; !ok {
		writeJSON(w, http.StatusUnauthorized, proto.ErrorBody{Error: "Client not registered"})
		return
	}
	var req proto.GenerateCardsRequest
	if err := json.Unmarshal(body, &req); err != nil || req.Count <= 0 {
		writeJSON(w, http.StatusBadRequest, proto.ErrorBody{Error: "Invalid count"})
		return
	}
	cards := s.newCardsLocked(req.Count)
	g.Cards[caller] = cards
	writeJSON(w, http.StatusOK, proto.GenerateCardsResponse{Cards: cards, Message: "Cards generated"})
}

func (s *Server) newCardsLocked(count int) []proto.Card {
	cards := make([]proto.Card, 0, count)
	for i := 0; i < count; i++ {
		s.nextID++
		cards = append(cards, SequentialCard("card-"+strconv.Itoa(s.nextID), i))
	}
	return cards
}

func drawLocked(g *Game, n int) {
	for i, v := range g.Pouch.Numbers {
		if v == n {
			g.Pouch.Numbers = append(g.Pouch.Numbers[:i], g.Pouch.Numbers[i+1:]...)
			break
		}
	}
	g.Board.Numbers = append(g.Board.Numbers, n)
	g.Status.NumbersExtracted = len(g.Board.Numbers)
	if g.Status.Status == "new" {
		g.Status.Status = "active"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
