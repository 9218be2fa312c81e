// Package score derives per-card progress and highlighting from a polled
// game snapshot. Everything here is a pure function of its inputs.
package score

import (
	"sort"

	"github.com/vovakirdan/tombola-client/internal/proto"
)

// Highlight classifies how a number on a card should be shown.
type Highlight int

const (
	HighlightNone Highlight = iota
	HighlightExtracted
	HighlightAchievement
	HighlightLatest
	HighlightAchievementLatest
)

var highlightNames = [...]string{"none", "extracted", "achievement", "latest", "achievement+latest"}

func (h Highlight) String() string {
	if int(h) < 0 || int(h) >= len(highlightNames) {
		return "unknown"
	}
	return highlightNames[h]
}

// MarshalText encodes the highlight by name.
func (h Highlight) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// Achievement is a card's achievement at the published level.
type Achievement struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// PlayerSummary aggregates all cards held by the session.
type PlayerSummary struct {
	Score int   `json:"score"`
	Lines []int `json:"lines"`
	Bingo bool  `json:"bingo"`
}

// View is the input to every derivation: the session's cards plus the
// latest board and score card.
type View struct {
	Cards     []proto.Card
	Board     proto.Board
	ScoreCard proto.ScoreCard

	extracted map[int]struct{}
	marked    map[int]struct{}
}

// NewView indexes board numbers for membership tests.
func NewView(cards []proto.Card, board proto.Board, sc proto.ScoreCard) View {
	v := View{
		Cards:     cards,
		Board:     board,
		ScoreCard: sc,
		extracted: make(map[int]struct{}, len(board.Numbers)),
		marked:    make(map[int]struct{}, len(board.MarkedNumbers)),
	}
	for _, n := range board.Numbers {
		v.extracted[n] = struct{}{}
	}
	for _, n := range board.MarkedNumbers {
		v.marked[n] = struct{}{}
	}
	return v
}

// IsExtracted reports whether n has been drawn.
func (v View) IsExtracted(n int) bool {
	_, ok := v.extracted[n]
	return ok
}

// IsMarked reports whether the operator marked n.
func (v View) IsMarked(n int) bool {
	_, ok := v.marked[n]
	return ok
}

// Latest returns the most recently drawn number.
func (v View) Latest() (int, bool) {
	if len(v.Board.Numbers) == 0 {
		return 0, false
	}
	return v.Board.Numbers[len(v.Board.Numbers)-1], true
}

// CardScore counts the card's numbers that have been drawn.
func (v View) CardScore(c proto.Card) int {
	score := 0
	for _, n := range c.Numbers() {
		if v.IsExtracted(n) {
			score++
		}
	}
	return score
}

// CardLines returns the 1-based rows whose numbers have all been drawn.
func (v View) CardLines(c proto.Card) []int {
	lines := []int{}
	for i, row := range c.CardData {
		if v.complete(row) {
			lines = append(lines, i+1)
		}
	}
	return lines
}

// CardColumns returns the 1-based columns holding at least one number,
// all of them drawn.
func (v View) CardColumns(c proto.Card) []int {
	cols := []int{}
	if len(c.CardData) == 0 {
		return cols
	}
	for col := range c.CardData[0] {
		cells := make([]*int, 0, len(c.CardData))
		for _, row := range c.CardData {
			if col < len(row) {
				cells = append(cells, row[col])
			}
		}
		if v.complete(cells) {
			cols = append(cols, col+1)
		}
	}
	return cols
}

func (v View) complete(cells []*int) bool {
	total := 0
	for _, cell := range cells {
		if cell == nil {
			continue
		}
		total++
		if !v.IsExtracted(*cell) {
			return false
		}
	}
	return total > 0
}

// IsBingo reports whether all 15 numbers of the card have been drawn.
func (v View) IsBingo(c proto.Card) bool {
	nums := c.Numbers()
	if len(nums) != proto.NumbersPerCard {
		return false
	}
	return v.CardScore(c) == proto.NumbersPerCard
}

func (v View) publishedAchievement(cardID string) (proto.Achievement, bool) {
	level := v.ScoreCard.PublishedScore
	if level == 0 {
		return proto.Achievement{}, false
	}
	for _, a := range v.ScoreCard.Level(level) {
		if a.CardID == cardID {
			return a, true
		}
	}
	return proto.Achievement{}, false
}

// HighestScoreNumbers returns the numbers recorded for cardID at the
// published level. Achievements at lower levels are not consulted.
func (v View) HighestScoreNumbers(cardID string) []int {
	a, ok := v.publishedAchievement(cardID)
	if !ok {
		return []int{}
	}
	out := make([]int, len(a.Numbers))
	copy(out, a.Numbers)
	return out
}

// CardAchievement returns the label of cardID's achievement at the
// published level.
func (v View) CardAchievement(cardID string) (Achievement, bool) {
	if _, ok := v.publishedAchievement(cardID); !ok {
		return Achievement{}, false
	}
	level := v.ScoreCard.PublishedScore
	return Achievement{Level: level, Text: AchievementLabel(level)}, true
}

// NumberHighlight classifies n as shown on cardID.
func (v View) NumberHighlight(n int, cardID string) Highlight {
	if !v.IsExtracted(n) {
		return HighlightNone
	}
	achieved := false
	for _, a := range v.HighestScoreNumbers(cardID) {
		if a == n {
			achieved = true
			break
		}
	}
	latest, ok := v.Latest()
	isLatest := ok && latest == n

	switch {
	case achieved && isLatest:
		return HighlightAchievementLatest
	case achieved:
		return HighlightAchievement
	case isLatest:
		return HighlightLatest
	default:
		return HighlightExtracted
	}
}

// PlayerAchievements aggregates best score, completed rows and bingo over all cards.
func (v View) PlayerAchievements() PlayerSummary {
	summary := PlayerSummary{Lines: []int{}}
	seen := map[int]struct{}{}
	for _, c := range v.Cards {
		if s := v.CardScore(c); s > summary.Score {
			summary.Score = s
		}
		for _, l := range v.CardLines(c) {
			if _, ok := seen[l]; !ok {
				seen[l] = struct{}{}
				summary.Lines = append(summary.Lines, l)
			}
		}
		if v.IsBingo(c) {
			summary.Bingo = true
		}
	}
	sort.Ints(summary.Lines)
	return summary
}
