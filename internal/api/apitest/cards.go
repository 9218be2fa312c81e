package apitest

import "github.com/vovakirdan/tombola-client/internal/proto"

const cardWidth = 9

// MakeCard lays out rows on a 9-column grid, each number in its tens column
// (90 shares the last column), shifting right on collision.
func MakeCard(id string, rows [proto.CardRows][proto.NumbersPerRow]int) proto.Card {
	data := make([][]*int, proto.CardRows)
	for r, row := range rows {
		data[r] = make([]*int, cardWidth)
		for _, n := range row {
			col := n / 10
			if col >= cardWidth {
				col = cardWidth - 1
			}
			for data[r][col] != nil {
				col = (col + 1) % cardWidth
			}
			v := n
			data[r][col] = &v
		}
	}
	return proto.Card{CardID: id, CardData: data}
}

// SequentialCard builds a deterministic valid card; offset varies the numbers.
func SequentialCard(id string, offset int) proto.Card {
	var rows [proto.CardRows][proto.NumbersPerRow]int
	cols := [proto.CardRows][proto.NumbersPerRow]int{
		{0, 2, 4, 6, 8},
		{1, 3, 4, 5, 7},
		{0, 1, 6, 7, 8},
	}
	for r := range rows {
		for i, c := range cols[r] {
			rows[r][i] = c*10 + r*3 + offset%3 + 1
		}
	}
	return MakeCard(id, rows)
}
