package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/vovakirdan/tombola-client/internal/core"
	"github.com/vovakirdan/tombola-client/internal/score"
)

func cellText(cell score.Cell) string {
	if cell.Number == nil {
		return "  .  "
	}
	n := *cell.Number
	switch cell.Highlight {
	case score.HighlightAchievementLatest:
		return fmt.Sprintf("<*%2d>", n)
	case score.HighlightLatest:
		return fmt.Sprintf(" <%2d>", n)
	case score.HighlightAchievement:
		return fmt.Sprintf(" *%2d*", n)
	case score.HighlightExtracted:
		return fmt.Sprintf(" [%2d]", n)
	default:
		return fmt.Sprintf("  %2d ", n)
	}
}

func printRendered(w io.Writer, st core.State, r score.Rendered) {
	header := fmt.Sprintf("game %s", st.GameID)
	if st.GameStatus != nil {
		header += fmt.Sprintf(" (%s)", st.GameStatus.Status)
	}
	if st.PlayerName != "" {
		header += fmt.Sprintf(" - %s", st.PlayerName)
	}
	fmt.Fprintln(w, header)
	if st.Error != "" {
		fmt.Fprintf(w, "! %s\n", st.Error)
	}

	latest := "-"
	if r.Latest != nil {
		latest = fmt.Sprint(*r.Latest)
	}
	fmt.Fprintf(w, "extracted %d/90, latest %s\n", r.Extracted, latest)
	if r.PublishedText != "" {
		fmt.Fprintf(w, "score: %s", r.PublishedText)
		if r.NextLevel != 0 {
			fmt.Fprintf(w, " (next: %s)", score.Text(r.NextLevel))
		}
		fmt.Fprintln(w)
	}
	if r.GameOver {
		fmt.Fprintln(w, "game over: a card reached bingo")
	}

	for _, card := range r.Cards {
		fmt.Fprintf(w, "\ncard %s  score %d", card.CardID, card.Score)
		if card.Achievement != nil {
			fmt.Fprintf(w, "  %s", card.Achievement.Text)
		}
		fmt.Fprintln(w)
		for _, row := range card.Cells {
			parts := make([]string, len(row))
			for i, cell := range row {
				parts[i] = cellText(cell)
			}
			fmt.Fprintln(w, strings.Join(parts, ""))
		}
	}

	p := r.Player
	if p.Score > 0 || p.Bingo {
		fmt.Fprintf(w, "\nbest %d in line, lines %v", p.Score, p.Lines)
		if p.Bingo {
			fmt.Fprint(w, ", BINGO")
		}
		fmt.Fprintln(w)
	}
}
