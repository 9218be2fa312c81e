package proto

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validCardJSON = `{
	"card_id": "c1",
	"card_data": [
		[1, null, 21, null, 41, 51, null, 71, null],
		[null, 12, 22, 32, null, null, 62, null, 82],
		[3, null, null, 33, 43, 53, null, 73, null]
	]
}`

func TestCardDecodeAndValidate(t *testing.T) {
	var c Card
	require.NoError(t, json.Unmarshal([]byte(validCardJSON), &c))
	require.NoError(t, c.Validate())

	nums := c.Numbers()
	assert.Len(t, nums, NumbersPerCard)
	assert.Equal(t, []int{1, 21, 41, 51, 71}, nums[:5])
}

func TestCardValidateRejectsBadShapes(t *testing.T) {
	n := func(v int) *int { return &v }
	row := func(vals ...int) []*int {
		out := make([]*int, 0, len(vals))
		for _, v := range vals {
			if v == 0 {
				out = append(out, nil)
				continue
			}
			out = append(out, n(v))
		}
		return out
	}

	cases := []struct {
		name string
		card Card
	}{
		{
			name: "missing id",
			card: Card{CardData: [][]*int{row(1, 2, 3, 4, 5), row(6, 7, 8, 9, 10), row(11, 12, 13, 14, 15)}},
		},
		{
			name: "two rows",
			card: Card{CardID: "x", CardData: [][]*int{row(1, 2, 3, 4, 5), row(6, 7, 8, 9, 10)}},
		},
		{
			name: "ragged rows",
			card: Card{CardID: "x", CardData: [][]*int{row(1, 2, 3, 4, 5, 0), row(6, 7, 8, 9, 10), row(11, 12, 13, 14, 15)}},
		},
		{
			name: "four numbers in a row",
			card: Card{CardID: "x", CardData: [][]*int{row(1, 2, 3, 4, 0), row(6, 7, 8, 9, 10), row(11, 12, 13, 14, 15)}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.card.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRecord))
		})
	}
}

func TestScoreCardValidate(t *testing.T) {
	var sc ScoreCard
	require.NoError(t, json.Unmarshal([]byte(`{"published_score":3,"score_map":{"3":[{"client_id":"a","card_id":"X","numbers":[4,17,22]}]}}`), &sc))
	require.NoError(t, sc.Validate())
	assert.Equal(t, []int{4, 17, 22}, sc.Level(3)[0].Numbers)

	assert.Error(t, ScoreCard{PublishedScore: 7}.Validate())
	assert.Error(t, ScoreCard{ScoreMap: map[string][]Achievement{"two": nil}}.Validate())
	assert.Error(t, ScoreCard{ScoreMap: map[string][]Achievement{"6": nil}}.Validate())
	assert.NoError(t, ScoreCard{}.Validate())
}

func TestScoreCardCloneIsDeep(t *testing.T) {
	orig := ScoreCard{PublishedScore: 2, ScoreMap: map[string][]Achievement{"2": {{CardID: "a", Numbers: []int{1, 2}}}}}
	cp := orig.Clone()
	cp.ScoreMap["2"][0].Numbers[0] = 99

	assert.Equal(t, 1, orig.ScoreMap["2"][0].Numbers[0])
}

func TestGameStatusRequiresGameID(t *testing.T) {
	assert.Error(t, GameStatus{Status: "active"}.Validate())
	assert.NoError(t, GameStatus{GameID: "g1"}.Validate())
}
