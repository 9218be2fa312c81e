package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/tombola-client/internal/api/apitest"
	"github.com/vovakirdan/tombola-client/internal/proto"
)

var (
	row1 = []int{1, 21, 41, 61, 81}
	row2 = []int{14, 34, 44, 54, 74}
	row3 = []int{7, 17, 67, 77, 87}
)

func testCard(id string) proto.Card {
	return apitest.SequentialCard(id, 0)
}

func allNumbers() []int {
	out := append([]int{}, row1...)
	out = append(out, row2...)
	return append(out, row3...)
}

func view(cards []proto.Card, drawn []int, sc proto.ScoreCard) View {
	return NewView(cards, proto.Board{Numbers: drawn}, sc)
}

func TestFixtureCardLayout(t *testing.T) {
	c := testCard("c1")
	require.NoError(t, c.Validate())
	assert.ElementsMatch(t, allNumbers(), c.Numbers())
}

func TestIsBingo(t *testing.T) {
	c := testCard("c1")
	all := allNumbers()

	assert.True(t, view(nil, all, proto.ScoreCard{}).IsBingo(c))
	assert.False(t, view(nil, all[:14], proto.ScoreCard{}).IsBingo(c), "14 of 15 is not bingo")
	assert.True(t, view(nil, append([]int{90, 2, 3}, all...), proto.ScoreCard{}).IsBingo(c), "extra numbers do not matter")
}

func TestCardScoreIsSetMembership(t *testing.T) {
	c := testCard("c1")

	assert.Equal(t, 0, view(nil, nil, proto.ScoreCard{}).CardScore(c))
	assert.Equal(t, 3, view(nil, []int{1, 90, 14, 2, 87}, proto.ScoreCard{}).CardScore(c))

	drawn := []int{}
	prev := 0
	for _, n := range append(allNumbers(), 1, 14) {
		drawn = append(drawn, n)
		s := view(nil, drawn, proto.ScoreCard{}).CardScore(c)
		assert.GreaterOrEqual(t, s, prev)
		prev = s
	}
	assert.Equal(t, proto.NumbersPerCard, prev, "re-drawing a number does not double count")
}

func TestCardLinesSecondRow(t *testing.T) {
	c := testCard("c1")
	drawn := append([]int{1, 21}, row2...)

	assert.Equal(t, []int{2}, view(nil, drawn, proto.ScoreCard{}).CardLines(c))
	assert.Empty(t, view(nil, row2[:4], proto.ScoreCard{}).CardLines(c))
}

func TestCardColumns(t *testing.T) {
	c := testCard("c1")
	// column 1 holds 1 and 7, column 5 holds 41 and 44.
	cols := view(nil, []int{1, 7, 41, 44, 21}, proto.ScoreCard{}).CardColumns(c)
	assert.Contains(t, cols, 1)
	assert.Contains(t, cols, 5)
	assert.NotContains(t, cols, 2)
}

func TestHighestScoreNumbers(t *testing.T) {
	v := view(nil, nil, proto.ScoreCard{})
	assert.Empty(t, v.HighestScoreNumbers("X"), "no published score yet")

	sc := proto.ScoreCard{
		PublishedScore: 3,
		ScoreMap: map[string][]proto.Achievement{
			"2": {{ClientID: "a", CardID: "X", Numbers: []int{4, 17}}},
			"3": {{ClientID: "a", CardID: "X", Numbers: []int{4, 17, 22}}},
		},
	}
	v = view(nil, nil, sc)
	assert.Equal(t, []int{4, 17, 22}, v.HighestScoreNumbers("X"))
	assert.Empty(t, v.HighestScoreNumbers("Y"))
}

func TestCardAchievementSupersededLevels(t *testing.T) {
	scoreMap := map[string][]proto.Achievement{
		"2": {{CardID: "low", Numbers: []int{1, 21}}},
		"5": {{CardID: "high", Numbers: row1}},
	}

	_, ok := view(nil, nil, proto.ScoreCard{ScoreMap: scoreMap}).CardAchievement("low")
	assert.False(t, ok, "nothing published yet")

	v := view(nil, nil, proto.ScoreCard{PublishedScore: 2, ScoreMap: scoreMap})
	a, ok := v.CardAchievement("low")
	require.True(t, ok)
	assert.Equal(t, Achievement{Level: 2, Text: "2 in line"}, a)

	v = view(nil, nil, proto.ScoreCard{PublishedScore: 5, ScoreMap: scoreMap})
	_, ok = v.CardAchievement("low")
	assert.False(t, ok, "level 2 is superseded once 5 is published")
	a, ok = v.CardAchievement("high")
	require.True(t, ok)
	assert.Equal(t, "5 in line", a.Text)
}

func TestAchievementLabels(t *testing.T) {
	assert.Equal(t, "BINGO", AchievementLabel(15))
	assert.Equal(t, "4 in line", AchievementLabel(4))
	assert.Equal(t, "7 in line", AchievementLabel(7))
}

func TestNumberHighlight(t *testing.T) {
	sc := proto.ScoreCard{
		PublishedScore: 2,
		ScoreMap:       map[string][]proto.Achievement{"2": {{CardID: "c1", Numbers: []int{1, 21}}}},
	}
	v := view(nil, []int{1, 14, 21}, sc)

	assert.Equal(t, HighlightNone, v.NumberHighlight(41, "c1"))
	assert.Equal(t, HighlightAchievement, v.NumberHighlight(1, "c1"))
	assert.Equal(t, HighlightExtracted, v.NumberHighlight(14, "c1"))
	assert.Equal(t, HighlightAchievementLatest, v.NumberHighlight(21, "c1"))
	assert.Equal(t, HighlightLatest, v.NumberHighlight(21, "other"))

	text, err := HighlightAchievementLatest.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "achievement+latest", string(text))
}

func TestPlayerAchievements(t *testing.T) {
	a := testCard("a")
	b := apitest.SequentialCard("b", 1)

	empty := view(nil, allNumbers(), proto.ScoreCard{})
	assert.Equal(t, PlayerSummary{Lines: []int{}}, empty.PlayerAchievements())

	summary := view([]proto.Card{a, b}, append(append([]int{}, row1...), row3...), proto.ScoreCard{}).PlayerAchievements()
	assert.Equal(t, 10, summary.Score)
	assert.Equal(t, []int{1, 3}, summary.Lines)
	assert.False(t, summary.Bingo)

	summary = view([]proto.Card{a, b}, allNumbers(), proto.ScoreCard{}).PlayerAchievements()
	assert.True(t, summary.Bingo)
	assert.Equal(t, []int{1, 2, 3}, summary.Lines)
}

func TestLevelsAndNext(t *testing.T) {
	assert.Equal(t, []int{2, 3, 4, 5, 15}, Levels())

	next, ok := NextLevel(0)
	assert.True(t, ok)
	assert.Equal(t, 2, next)
	next, ok = NextLevel(5)
	assert.True(t, ok)
	assert.Equal(t, 15, next)
	_, ok = NextLevel(15)
	assert.False(t, ok)

	assert.True(t, IsMajor(5))
	assert.False(t, IsMajor(4))
	assert.Equal(t, "Score 9", Text(9))
	assert.Equal(t, defaultColor, Color(9))
	assert.Equal(t, "Full card completion", Description(15))
	assert.True(t, IsBingoLevel(15))
	assert.False(t, IsBingoLevel(5))
	info, ok := LevelInfo(3)
	require.True(t, ok)
	assert.Equal(t, "#28a745", info.Color)
	_, ok = LevelInfo(7)
	assert.False(t, ok)
}

func TestRender(t *testing.T) {
	c := testCard("c1")
	sc := proto.ScoreCard{
		PublishedScore: 5,
		ScoreMap:       map[string][]proto.Achievement{"5": {{CardID: "c1", Numbers: row1}}},
	}
	r := Render(NewView([]proto.Card{c}, proto.Board{Numbers: row1, MarkedNumbers: []int{21}}, sc))

	require.Len(t, r.Cards, 1)
	cv := r.Cards[0]
	assert.Equal(t, 5, cv.Score)
	assert.Equal(t, []int{1}, cv.Lines)
	require.NotNil(t, cv.Achievement)
	assert.Equal(t, "5 in line", cv.Achievement.Text)
	require.NotNil(t, r.Latest)
	assert.Equal(t, 81, *r.Latest)
	assert.Equal(t, 15, r.NextLevel)
	require.NotNil(t, r.PublishedLevel)
	assert.Equal(t, "5 in Line", r.PublishedLevel.Label)
	assert.False(t, r.GameOver)

	highlights := map[Highlight]int{}
	marked := 0
	for _, row := range cv.Cells {
		for _, cell := range row {
			if cell.Number == nil {
				continue
			}
			highlights[cell.Highlight]++
			if cell.Marked {
				marked++
			}
		}
	}
	assert.Equal(t, 4, highlights[HighlightAchievement])
	assert.Equal(t, 1, highlights[HighlightAchievementLatest])
	assert.Equal(t, 10, highlights[HighlightNone])
	assert.Equal(t, 1, marked)
}

func TestRenderBingoEndsGame(t *testing.T) {
	r := Render(NewView(nil, proto.Board{Numbers: []int{}}, proto.ScoreCard{PublishedScore: proto.BingoLevel}))

	assert.True(t, r.GameOver)
	assert.Zero(t, r.NextLevel)
	require.NotNil(t, r.PublishedLevel)
	assert.Equal(t, proto.BingoLevel, r.PublishedLevel.Level)
	assert.Equal(t, Text(proto.BingoLevel), r.PublishedText)
}
