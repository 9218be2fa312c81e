package score

import "github.com/vovakirdan/tombola-client/internal/proto"

// Cell is one grid position as shown on a card.
type Cell struct {
	Number    *int      `json:"number"`
	Highlight Highlight `json:"highlight"`
	Marked    bool      `json:"marked,omitempty"`
}

// CardView is the fully derived presentation of a card.
type CardView struct {
	CardID      string       `json:"card_id"`
	Score       int          `json:"score"`
	Lines       []int        `json:"lines"`
	Columns     []int        `json:"columns"`
	Bingo       bool         `json:"bingo"`
	Achievement *Achievement `json:"achievement,omitempty"`
	Cells       [][]Cell     `json:"cells"`
}

// Rendered is everything a view needs for one tick.
type Rendered struct {
	Cards          []CardView    `json:"cards"`
	Player         PlayerSummary `json:"player"`
	PublishedScore int           `json:"published_score"`
	PublishedText  string        `json:"published_text,omitempty"`
	PublishedLevel *Info         `json:"published_level,omitempty"`
	GameOver       bool          `json:"game_over"`
	NextLevel      int           `json:"next_level,omitempty"`
	Latest         *int          `json:"latest,omitempty"`
	Extracted      int           `json:"extracted"`
}

// Render derives the presentation of every card in v.
func Render(v View) Rendered {
	out := Rendered{
		Cards:          make([]CardView, 0, len(v.Cards)),
		Player:         v.PlayerAchievements(),
		PublishedScore: v.ScoreCard.PublishedScore,
		Extracted:      len(v.Board.Numbers),
	}
	if out.PublishedScore > 0 {
		out.PublishedText = Text(out.PublishedScore)
		if info, ok := LevelInfo(out.PublishedScore); ok {
			out.PublishedLevel = &info
		}
		out.GameOver = IsBingoLevel(out.PublishedScore)
	}
	if next, ok := NextLevel(out.PublishedScore); ok {
		out.NextLevel = next
	}
	if latest, ok := v.Latest(); ok {
		out.Latest = &latest
	}
	for _, c := range v.Cards {
		out.Cards = append(out.Cards, renderCard(v, c))
	}
	return out
}

func renderCard(v View, c proto.Card) CardView {
	cv := CardView{
		CardID:  c.CardID,
		Score:   v.CardScore(c),
		Lines:   v.CardLines(c),
		Columns: v.CardColumns(c),
		Bingo:   v.IsBingo(c),
		Cells:   make([][]Cell, len(c.CardData)),
	}
	if a, ok := v.CardAchievement(c.CardID); ok {
		cv.Achievement = &a
	}
	for i, row := range c.CardData {
		cv.Cells[i] = make([]Cell, len(row))
		for j, n := range row {
			if n == nil {
				continue
			}
			num := *n
			cv.Cells[i][j] = Cell{
				Number:    &num,
				Highlight: v.NumberHighlight(num, c.CardID),
				Marked:    v.IsMarked(num),
			}
		}
	}
	return cv
}
