package score

import (
	"fmt"
	"sort"

	"github.com/vovakirdan/tombola-client/internal/proto"
)

// Info describes an achievement level for display.
type Info struct {
	Level       int    `json:"level"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Emoji       string `json:"emoji"`
	Color       string `json:"color"`
}

const defaultColor = "#6c757d"

var levels = map[int]Info{
	2:                {Level: 2, Label: "2 in Line", Description: "2 numbers in a line", Emoji: "📏", Color: "#17a2b8"},
	3:                {Level: 3, Label: "3 in Line", Description: "3 numbers in a line", Emoji: "📌", Color: "#28a745"},
	4:                {Level: 4, Label: "4 in Line", Description: "4 numbers in a line", Emoji: "🎯", Color: "#ffc107"},
	5:                {Level: 5, Label: "5 in Line", Description: "5 numbers in a line (Full Line)", Emoji: "🏆", Color: "#fd7e14"},
	proto.BingoLevel: {Level: proto.BingoLevel, Label: "BINGO!!!", Description: "Full card completion", Emoji: "🎉", Color: "#dc3545"},
}

// Levels returns the achievement levels in ascending order.
func Levels() []int {
	out := make([]int, 0, len(levels))
	for l := range levels {
		out = append(out, l)
	}
	sort.Ints(out)
	return out
}

// LevelInfo returns display info for a known level.
func LevelInfo(level int) (Info, bool) {
	info, ok := levels[level]
	return info, ok
}

// Text returns "<emoji> <label>" or "Score <n>" for unknown levels.
func Text(level int) string {
	info, ok := LevelInfo(level)
	if !ok {
		return fmt.Sprintf("Score %d", level)
	}
	return info.Emoji + " " + info.Label
}

// Description returns the long description of a level.
func Description(level int) string {
	info, ok := LevelInfo(level)
	if !ok {
		return fmt.Sprintf("Achievement level %d", level)
	}
	return info.Description
}

// Color returns the display color of a level.
func Color(level int) string {
	if info, ok := LevelInfo(level); ok {
		return info.Color
	}
	return defaultColor
}

// IsMajor reports 5 in line and bingo.
func IsMajor(level int) bool {
	return level == 5 || IsBingoLevel(level)
}

// IsBingoLevel reports whether level denotes a full card.
func IsBingoLevel(level int) bool {
	return level == proto.BingoLevel
}

// NextLevel returns the first level above current.
func NextLevel(current int) (int, bool) {
	for _, l := range Levels() {
		if l > current {
			return l, true
		}
	}
	return 0, false
}

// AchievementLabel is the per-card label for a level.
func AchievementLabel(level int) string {
	if IsBingoLevel(level) {
		return "BINGO"
	}
	return fmt.Sprintf("%d in line", level)
}
