package core

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/tombola-client/internal/api"
	"github.com/vovakirdan/tombola-client/internal/proto"
	"github.com/vovakirdan/tombola-client/internal/score"
	"github.com/vovakirdan/tombola-client/internal/store"
)

// GameAPI is the subset of the game server client the store depends on.
type GameAPI interface {
	SetClientID(id string)
	Status(ctx context.Context, gameID string) (*proto.GameStatus, error)
	Board(ctx context.Context, gameID string) (*proto.Board, error)
	Pouch(ctx context.Context, gameID string) (*proto.Pouch, error)
	ScoreMap(ctx context.Context, gameID string) (*proto.ScoreCard, error)
	Join(ctx context.Context, gameID string, req proto.RegisterRequest) (*proto.RegistrationResponse, error)
	GenerateCards(ctx context.Context, gameID string, count int) (*proto.GenerateCardsResponse, error)
	ListAssignedCards(ctx context.Context, gameID string) (*proto.CardAssignments, error)
	GetAssignedCard(ctx context.Context, gameID, cardID string) (*proto.Card, error)
	ClientByID(ctx context.Context, clientID string) (*proto.ClientInfo, error)
}

// State is the reconciled view of one game as seen by this client.
type State struct {
	IsConnected  bool              `json:"is_connected"`
	IsRegistered bool              `json:"is_registered"`
	ClientID     string            `json:"client_id,omitempty"`
	PlayerName   string            `json:"player_name"`
	GameID       string            `json:"game_id,omitempty"`
	Cards        []proto.Card      `json:"cards"`
	Board        proto.Board       `json:"board"`
	Pouch        proto.Pouch       `json:"pouch"`
	ScoreCard    proto.ScoreCard   `json:"score_card"`
	GameStatus   *proto.GameStatus `json:"game_status,omitempty"`
	Error        string            `json:"error,omitempty"`
}

func emptyState() State {
	return State{
		Cards:     []proto.Card{},
		Board:     proto.Board{Numbers: []int{}, MarkedNumbers: []int{}},
		Pouch:     proto.Pouch{Numbers: []int{}},
		ScoreCard: proto.ScoreCard{ScoreMap: map[string][]proto.Achievement{}},
	}
}

func (s State) clone() State {
	out := s
	out.Cards = make([]proto.Card, len(s.Cards))
	for i, c := range s.Cards {
		out.Cards[i] = c.Clone()
	}
	out.Board = s.Board.Clone()
	out.Pouch = s.Pouch.Clone()
	out.ScoreCard = s.ScoreCard.Clone()
	if s.GameStatus != nil {
		st := *s.GameStatus
		out.GameStatus = &st
	}
	return out
}

// View returns the derivation input for this state.
func (s State) View() score.View {
	return score.NewView(s.Cards, s.Board, s.ScoreCard)
}

// Store owns the reconciled game state. It is mutated only by its own
// methods, and its lock is never held across network I/O.
type Store struct {
	api      GameAPI
	sessions store.SessionStore
	log      *zerolog.Logger

	mu           sync.Mutex
	state        State
	epoch        uint64
	previousName string
	email        string
	names        *nameCache
	subs         map[int]chan State
	nextSub      int
}

// NewStore creates an empty store.
func NewStore(gameAPI GameAPI, sessions store.SessionStore, logger *zerolog.Logger) *Store {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Store{
		api:      gameAPI,
		sessions: sessions,
		log:      logger,
		state:    emptyState(),
		names:    newNameCache(),
		subs:     make(map[int]chan State),
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Connected reports whether the store is connected to a game.
func (s *Store) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsConnected
}

// PreviousPlayerName returns the last name used for a successful registration.
func (s *Store) PreviousPlayerName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previousName
}

// SetPlayerEmail sets the email sent along with the next registration.
func (s *Store) SetPlayerEmail(email string) {
	s.mu.Lock()
	s.email = email
	s.mu.Unlock()
}

// ClearError drops the user-facing error.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Error = ""
	s.publishLocked()
}

// Restore loads the cached game selection and identity. The identity is
// confirmed against the server on the next Connect.
func (s *Store) Restore(ctx context.Context) error {
	gameID, err := s.sessions.LoadGameID(ctx)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	id, err := s.sessions.LoadIdentity(ctx)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}

	s.mu.Lock()
	s.state.GameID = gameID
	if id.ClientID != "" {
		s.state.ClientID = id.ClientID
		s.state.PlayerName = id.Name
		s.previousName = id.Name
		s.names.learn(id.ClientID, id.Name)
	}
	s.publishLocked()
	s.mu.Unlock()

	if id.ClientID != "" {
		s.api.SetClientID(id.ClientID)
	}
	s.log.Debug().Str("game_id", gameID).Str("client_id", id.ClientID).Msg("session restored")
	return nil
}

// SetGame selects gameID and drops everything cached for the previous game.
// The session identity is kept but unconfirmed until the next Connect.
func (s *Store) SetGame(ctx context.Context, gameID string) error {
	s.mu.Lock()
	s.epoch++
	s.state.GameID = gameID
	s.state.IsConnected = false
	s.state.IsRegistered = false
	s.state.GameStatus = nil
	s.state.Cards = []proto.Card{}
	s.state.Board = proto.Board{Numbers: []int{}, MarkedNumbers: []int{}}
	s.state.Pouch = proto.Pouch{Numbers: []int{}}
	s.state.ScoreCard = proto.ScoreCard{ScoreMap: map[string][]proto.Achievement{}}
	s.names.reset()
	s.publishLocked()
	s.mu.Unlock()

	s.log.Info().Str("game_id", gameID).Msg("game selected")
	return s.sessions.SaveGameID(ctx, gameID)
}

// Connect fetches the status of the selected game and marks the store connected.
func (s *Store) Connect(ctx context.Context) error {
	s.mu.Lock()
	gameID, epoch := s.state.GameID, s.epoch
	hasIdentity := s.state.ClientID != "" && !s.state.IsRegistered
	if gameID == "" {
		err := precondition("connect", ErrNoGame)
		s.state.Error = userMessage(err, msgConnectFailed)
		s.publishLocked()
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	status, err := s.api.Status(ctx, gameID)

	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		return ErrStale
	}
	if err != nil {
		s.state.IsConnected = false
		s.state.Error = userMessage(err, msgConnectFailed)
		s.publishLocked()
		s.mu.Unlock()
		s.log.Warn().Err(err).Str("game_id", gameID).Msg("connect failed")
		return err
	}
	s.state.GameStatus = status
	s.state.IsConnected = true
	s.state.Error = ""
	s.publishLocked()
	s.mu.Unlock()

	s.log.Info().Str("game_id", gameID).Str("status", status.Status).Msg("connected")

	if hasIdentity {
		s.resume(ctx)
	}
	return nil
}

// resume re-attaches a kept identity by loading its cards. Failure leaves
// the store connected but unregistered. An identity the server rejects is
// dropped; a transport failure keeps it for the next Connect.
func (s *Store) resume(ctx context.Context) {
	s.mu.Lock()
	gameID, epoch, clientID := s.state.GameID, s.epoch, s.state.ClientID
	s.mu.Unlock()

	cards, err := s.fetchCards(ctx, gameID)
	if err != nil {
		var apiErr *api.APIError
		if !errors.As(err, &apiErr) {
			s.log.Warn().Err(err).Msg("could not confirm cached identity")
			return
		}
		s.log.Warn().Err(err).Str("client_id", clientID).Msg("cached identity not accepted by game, registration required")
		s.dropIdentity(ctx, epoch, clientID)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return
	}
	s.state.IsRegistered = true
	s.state.Cards = cards
	s.publishLocked()
}

// dropIdentity forgets clientID unless the store moved on since epoch.
func (s *Store) dropIdentity(ctx context.Context, epoch uint64, clientID string) {
	s.mu.Lock()
	if epoch != s.epoch || s.state.ClientID != clientID {
		s.mu.Unlock()
		return
	}
	s.state.ClientID = ""
	s.publishLocked()
	s.mu.Unlock()

	s.api.SetClientID("")
	if err := s.sessions.ClearIdentity(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to clear cached identity")
	}
}

// Register joins the selected game as name with cardCount cards and loads
// the cards assigned by the server.
func (s *Store) Register(ctx context.Context, name string, cardCount int) error {
	s.mu.Lock()
	gameID, epoch, email := s.state.GameID, s.epoch, s.email
	if !s.state.IsConnected {
		err := precondition("register", ErrNotConnected)
		s.state.Error = userMessage(err, msgRegisterFailed)
		s.publishLocked()
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	resp, err := s.api.Join(ctx, gameID, proto.RegisterRequest{
		Name:       name,
		ClientType: proto.ClientTypePlayer,
		NoCard:     &cardCount,
		Email:      email,
	})

	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		return ErrStale
	}
	if err != nil {
		s.state.Error = userMessage(err, msgRegisterFailed)
		s.publishLocked()
		s.mu.Unlock()
		s.log.Warn().Err(err).Str("name", name).Msg("registration failed")
		return err
	}
	s.state.ClientID = resp.ClientID
	s.state.PlayerName = name
	s.state.IsRegistered = true
	s.state.Error = ""
	s.previousName = name
	s.names.learn(resp.ClientID, name)
	s.publishLocked()
	s.mu.Unlock()

	s.api.SetClientID(resp.ClientID)
	if err := s.sessions.SaveIdentity(ctx, store.Identity{ClientID: resp.ClientID, Name: name}); err != nil {
		s.log.Warn().Err(err).Msg("failed to persist identity")
	}
	s.log.Info().Str("client_id", resp.ClientID).Str("name", name).Msg("registered")

	return s.LoadCards(ctx)
}

// LoadCards replaces the held cards with the server's assignments. On any
// failure the previously held cards are kept.
func (s *Store) LoadCards(ctx context.Context) error {
	s.mu.Lock()
	gameID, epoch := s.state.GameID, s.epoch
	registered := s.state.IsRegistered
	s.mu.Unlock()
	if !registered {
		return nil
	}

	cards, err := s.fetchCards(ctx, gameID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return ErrStale
	}
	if err != nil {
		s.state.Error = userMessage(err, msgLoadCards)
		s.publishLocked()
		return err
	}
	s.state.Cards = cards
	s.state.Error = ""
	s.publishLocked()
	return nil
}

// fetchCards lists assignments and then fetches each card in turn.
func (s *Store) fetchCards(ctx context.Context, gameID string) ([]proto.Card, error) {
	assignments, err := s.api.ListAssignedCards(ctx, gameID)
	if err != nil {
		return nil, err
	}
	cards := make([]proto.Card, 0, len(assignments.Cards))
	for _, a := range assignments.Cards {
		card, err := s.api.GetAssignedCard(ctx, gameID, a.CardID)
		if err != nil {
			return nil, err
		}
		cards = append(cards, *card)
	}
	return cards, nil
}

// GenerateCards asks the server for count new cards and holds the result.
func (s *Store) GenerateCards(ctx context.Context, count int) error {
	s.mu.Lock()
	gameID, epoch := s.state.GameID, s.epoch
	if !s.state.IsRegistered {
		err := precondition("generate cards", ErrNotRegistered)
		s.state.Error = userMessage(err, msgGenerateCards)
		s.publishLocked()
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	resp, err := s.api.GenerateCards(ctx, gameID, count)

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return ErrStale
	}
	if err != nil {
		s.state.Error = userMessage(err, msgGenerateCards)
		s.publishLocked()
		return err
	}
	s.state.Cards = resp.Cards
	s.state.Error = ""
	s.publishLocked()
	return nil
}

// Refresh polls status, board, pouch and score map concurrently and applies
// them together. A status reporting another game id resets the
// registration instead. Results for a superseded selection are dropped.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	gameID, epoch := s.state.GameID, s.epoch
	if !s.state.IsConnected || gameID == "" {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	var (
		status *proto.GameStatus
		board  *proto.Board
		pouch  *proto.Pouch
		sc     *proto.ScoreCard
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { status, err = s.api.Status(gctx, gameID); return err })
	g.Go(func() (err error) { board, err = s.api.Board(gctx, gameID); return err })
	g.Go(func() (err error) { pouch, err = s.api.Pouch(gctx, gameID); return err })
	g.Go(func() (err error) { sc, err = s.api.ScoreMap(gctx, gameID); return err })
	err := g.Wait()

	s.mu.Lock()
	if epoch != s.epoch || gameID != s.state.GameID {
		s.mu.Unlock()
		s.log.Debug().Str("game_id", gameID).Msg("dropping refresh for superseded game")
		return nil
	}
	if err != nil {
		s.state.Error = userMessage(err, msgRefreshFailed)
		s.publishLocked()
		s.mu.Unlock()
		return err
	}
	if status.GameID != gameID {
		s.gameChangedLocked(*status)
		s.mu.Unlock()
		s.afterGameChange(ctx, gameID, status.GameID)
		return nil
	}
	s.state.GameStatus = status
	s.state.Board = *board
	s.state.Pouch = *pouch
	s.state.ScoreCard = *sc
	s.state.Error = ""
	s.publishLocked()
	s.mu.Unlock()
	return nil
}

func (s *Store) gameChangedLocked(status proto.GameStatus) {
	s.epoch++
	s.state.IsRegistered = false
	s.state.ClientID = ""
	s.state.Cards = []proto.Card{}
	s.state.Board = proto.Board{Numbers: []int{}, MarkedNumbers: []int{}}
	s.state.Pouch = proto.Pouch{Numbers: []int{}}
	s.state.ScoreCard = proto.ScoreCard{ScoreMap: map[string][]proto.Achievement{}}
	s.state.GameStatus = &status
	s.state.GameID = status.GameID
	s.state.Error = GameChangedMessage
	s.names.reset()
	s.publishLocked()
}

func (s *Store) afterGameChange(ctx context.Context, oldID, newID string) {
	s.api.SetClientID("")
	if err := s.sessions.ClearIdentity(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to clear identity after game change")
	}
	if err := s.sessions.SaveGameID(ctx, newID); err != nil {
		s.log.Warn().Err(err).Msg("failed to persist new game id")
	}
	s.log.Warn().Str("old_game_id", oldID).Str("new_game_id", newID).Msg("game changed, registration reset")
}

// Reset logs out: the cached identity is removed and the in-memory state
// returns to empty. Auth and the persisted game selection are untouched.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.epoch++
	s.state = emptyState()
	s.previousName = ""
	s.names.reset()
	s.publishLocked()
	s.mu.Unlock()

	s.api.SetClientID("")
	if err := s.sessions.ClearIdentity(ctx); err != nil {
		return err
	}
	s.log.Info().Msg("session reset")
	return nil
}
