package proto

import (
	"errors"
	"fmt"
	"strconv"
)

// Card layout invariants enforced on every card received from the server.
const (
	CardRows        = 3
	NumbersPerRow   = 5
	NumbersPerCard  = CardRows * NumbersPerRow
	BingoLevel      = NumbersPerCard
	DefaultCardSize = 6
)

// Client types accepted by the join endpoint.
const (
	ClientTypePlayer = "player"
	ClientTypeAdmin  = "admin"
	ClientTypeViewer = "viewer"
)

// ErrInvalidRecord is wrapped by every validation failure.
var ErrInvalidRecord = errors.New("invalid record")

// Validator is implemented by records that check their own shape after decoding.
type Validator interface {
	Validate() error
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRecord, fmt.Sprintf(format, args...))
}

// Card is a 3-row grid with 5 numbers per row; blank cells are nil.
type Card struct {
	CardID   string   `json:"card_id"`
	CardData [][]*int `json:"card_data"`
}

// Validate checks the 3x5 layout with uniform null padding.
func (c Card) Validate() error {
	if c.CardID == "" {
		return invalid("card without card_id")
	}
	if len(c.CardData) != CardRows {
		return invalid("card %s has %d rows, want %d", c.CardID, len(c.CardData), CardRows)
	}
	width := len(c.CardData[0])
	for i, row := range c.CardData {
		if len(row) != width {
			return invalid("card %s row %d has width %d, want %d", c.CardID, i+1, len(row), width)
		}
		filled := 0
		for _, cell := range row {
			if cell != nil {
				filled++
			}
		}
		if filled != NumbersPerRow {
			return invalid("card %s row %d has %d numbers, want %d", c.CardID, i+1, filled, NumbersPerRow)
		}
	}
	return nil
}

// Numbers returns the non-null cells in row-major order.
func (c Card) Numbers() []int {
	out := make([]int, 0, NumbersPerCard)
	for _, row := range c.CardData {
		for _, cell := range row {
			if cell != nil {
				out = append(out, *cell)
			}
		}
	}
	return out
}

// Clone returns a deep copy of the card.
func (c Card) Clone() Card {
	rows := make([][]*int, len(c.CardData))
	for i, row := range c.CardData {
		rows[i] = make([]*int, len(row))
		for j, cell := range row {
			if cell != nil {
				v := *cell
				rows[i][j] = &v
			}
		}
	}
	return Card{CardID: c.CardID, CardData: rows}
}

// CardAssignment links a card to the client holding it.
type CardAssignment struct {
	CardID     string `json:"card_id"`
	AssignedTo string `json:"assigned_to"`
}

// CardAssignments is the listassignedcards response.
type CardAssignments struct {
	Cards []CardAssignment `json:"cards"`
}

// Validate rejects assignments without a card id.
func (a CardAssignments) Validate() error {
	for i, c := range a.Cards {
		if c.CardID == "" {
			return invalid("assignment %d without card_id", i)
		}
	}
	return nil
}

// Board holds the extracted numbers in draw order plus the marked subset.
type Board struct {
	Numbers       []int `json:"numbers"`
	MarkedNumbers []int `json:"marked_numbers"`
}

// Clone returns a deep copy of the board.
func (b Board) Clone() Board {
	return Board{Numbers: cloneInts(b.Numbers), MarkedNumbers: cloneInts(b.MarkedNumbers)}
}

// Pouch holds the numbers not drawn yet.
type Pouch struct {
	Numbers []int `json:"numbers"`
}

// Clone returns a deep copy of the pouch.
func (p Pouch) Clone() Pouch {
	return Pouch{Numbers: cloneInts(p.Numbers)}
}

// Achievement records which numbers of a card satisfied a level.
type Achievement struct {
	ClientID string `json:"client_id"`
	CardID   string `json:"card_id"`
	Numbers  []int  `json:"numbers"`
}

// ScoreCard is the server's score map keyed by level ("2", "3", "4", "5", "15").
type ScoreCard struct {
	PublishedScore int                      `json:"published_score"`
	ScoreMap       map[string][]Achievement `json:"score_map"`
}

// IsLevel reports whether n is one of the recognised achievement levels.
func IsLevel(n int) bool {
	switch n {
	case 2, 3, 4, 5, BingoLevel:
		return true
	}
	return false
}

// Validate checks level keys and the published score.
func (s ScoreCard) Validate() error {
	if s.PublishedScore != 0 && !IsLevel(s.PublishedScore) {
		return invalid("published_score %d is not a known level", s.PublishedScore)
	}
	for key := range s.ScoreMap {
		level, err := strconv.Atoi(key)
		if err != nil {
			return invalid("score_map key %q is not a number", key)
		}
		if !IsLevel(level) {
			return invalid("score_map key %d is not a known level", level)
		}
	}
	return nil
}

// Level returns achievements recorded under the given level.
func (s ScoreCard) Level(level int) []Achievement {
	return s.ScoreMap[strconv.Itoa(level)]
}

// Clone returns a deep copy of the score card.
func (s ScoreCard) Clone() ScoreCard {
	out := ScoreCard{PublishedScore: s.PublishedScore, ScoreMap: make(map[string][]Achievement, len(s.ScoreMap))}
	for k, list := range s.ScoreMap {
		cp := make([]Achievement, len(list))
		for i, a := range list {
			cp[i] = Achievement{ClientID: a.ClientID, CardID: a.CardID, Numbers: cloneInts(a.Numbers)}
		}
		out.ScoreMap[k] = cp
	}
	return out
}

// GameStatus is the status endpoint response.
type GameStatus struct {
	Status           string `json:"status"`
	GameID           string `json:"game_id"`
	CreatedAt        string `json:"created_at"`
	Owner            string `json:"owner,omitempty"`
	NumbersExtracted int    `json:"numbers_extracted"`
	Scorecard        int    `json:"scorecard"`
	Server           string `json:"server,omitempty"`
}

// Validate requires a game id.
func (s GameStatus) Validate() error {
	if s.GameID == "" {
		return invalid("status without game_id")
	}
	return nil
}

// PlayerInfo is one entry of the players endpoint.
type PlayerInfo struct {
	ClientID   string `json:"client_id"`
	ClientType string `json:"client_type"`
	CardCount  int    `json:"card_count"`
}

// Players is the players endpoint response.
type Players struct {
	GameID       string       `json:"game_id"`
	TotalPlayers int          `json:"total_players"`
	TotalCards   int          `json:"total_cards"`
	Players      []PlayerInfo `json:"players"`
}

// RegisterRequest is the join body.
type RegisterRequest struct {
	Name       string `json:"name"`
	ClientType string `json:"client_type"`
	NoCard     *int   `json:"nocard,omitempty"`
	Email      string `json:"email,omitempty"`
}

// RegistrationResponse carries the server-issued client id.
type RegistrationResponse struct {
	ClientID string `json:"client_id"`
	Message  string `json:"message"`
}

// Validate requires a client id.
func (r RegistrationResponse) Validate() error {
	if r.ClientID == "" {
		return invalid("registration without client_id")
	}
	return nil
}

// GenerateCardsRequest asks the server for count new cards.
type GenerateCardsRequest struct {
	Count int `json:"count"`
}

// GenerateCardsResponse returns the freshly assigned cards.
type GenerateCardsResponse struct {
	Cards   []Card `json:"cards"`
	Message string `json:"message"`
}

// Validate validates every card.
func (r GenerateCardsResponse) Validate() error {
	for _, c := range r.Cards {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ExtractionResponse is returned by the board-only extract call.
type ExtractionResponse struct {
	Success          bool   `json:"success"`
	ExtractedNumber  int    `json:"extracted_number"`
	NumbersRemaining int    `json:"numbers_remaining"`
	TotalExtracted   int    `json:"total_extracted"`
	Message          string `json:"message"`
}

// NewGameResponse is returned when a game is created.
type NewGameResponse struct {
	Message   string `json:"message"`
	GameID    string `json:"game_id"`
	CreatedAt string `json:"created_at"`
}

// Validate requires a game id.
func (r NewGameResponse) Validate() error {
	if r.GameID == "" {
		return invalid("newgame without game_id")
	}
	return nil
}

// GameInfo is one entry of the games list.
type GameInfo struct {
	GameID    string  `json:"game_id"`
	Status    string  `json:"status"`
	StartDate string  `json:"start_date"`
	CloseDate *string `json:"close_date"`
}

// GameStatistics summarises the games list.
type GameStatistics struct {
	ActiveGames int `json:"active_games"`
	ClosedGames int `json:"closed_games"`
	NewGames    int `json:"new_games"`
}

// GameList is the gameslist response.
type GameList struct {
	Games      []GameInfo     `json:"games"`
	Statistics GameStatistics `json:"statistics"`
	Success    bool           `json:"success"`
	TotalGames int            `json:"total_games"`
}

// ClientInfo describes a registered client.
type ClientInfo struct {
	ClientID     string `json:"client_id"`
	Name         string `json:"name"`
	ClientType   string `json:"client_type"`
	RegisteredAt string `json:"registered_at"`
}

// ErrorBody is the error shape used by the game server and the gateway.
type ErrorBody struct {
	Error string `json:"error"`
}

func cloneInts(in []int) []int {
	if in == nil {
		return []int{}
	}
	out := make([]int, len(in))
	copy(out, in)
	return out
}
