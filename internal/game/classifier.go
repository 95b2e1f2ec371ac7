package game

import (
	"github.com/bigtwo-arena/bigtwo-server/internal/models"
)

// Classify maps a card set to its combination. Only sets of size 1, 2, 3 and 5
// are classifiable; everything else is rejected outright.
func Classify(cards []models.Card) (models.Combination, bool) {
	sorted := make([]models.Card, len(cards))
	copy(sorted, cards)
	models.SortCards(sorted)

	switch len(sorted) {
	case 1:
		return models.Combination{Kind: models.ComboSingle, Strength: sorted[0].CompareValue()}, true
	case 2:
		if sorted[0].Rank == sorted[1].Rank {
			return models.Combination{Kind: models.ComboPair, Strength: sorted[1].CompareValue()}, true
		}
	case 3:
		if sorted[0].Rank == sorted[1].Rank && sorted[1].Rank == sorted[2].Rank {
			return models.Combination{Kind: models.ComboTriple, Strength: sorted[2].CompareValue()}, true
		}
	case 5:
		return classifyFive(sorted)
	}
	return models.Combination{}, false
}

// classifyFive checks straight-flush, four-of-a-kind, full-house, flush and
// straight, in that precedence order. Input must be sorted by compare value.
func classifyFive(sorted []models.Card) (models.Combination, bool) {
	values := make([]int, 5)
	rankCounts := make(map[int]int)
	isFlush := true
	for i, c := range sorted {
		values[i] = c.Rank.Value()
		rankCounts[values[i]]++
		if c.Suit != sorted[0].Suit {
			isFlush = false
		}
	}

	isStraight, straightHigh := straightHighValue(values)

	if isStraight && isFlush {
		return combo(models.ComboStraightFlush, straightHigh*10+sorted[4].Suit.Order()), true
	}
	for v, n := range rankCounts {
		if n == 4 {
			return combo(models.ComboFourOfAKind, v*10), true
		}
	}
	if len(rankCounts) == 2 {
		for v, n := range rankCounts {
			if n == 3 {
				return combo(models.ComboFullHouse, v*10), true
			}
		}
	}
	if isFlush {
		return combo(models.ComboFlush, sorted[4].CompareValue()), true
	}
	if isStraight {
		return combo(models.ComboStraight, straightHigh*10+sorted[4].Suit.Order()), true
	}
	return models.Combination{}, false
}

// straightHighValue recognizes five-in-a-row runs plus the two wrap cases:
// 3-4-5-A-2 counts as a 5-high straight and 10-J-Q-K-A as an Ace-high one.
func straightHighValue(values []int) (bool, int) {
	if values[0] == 3 && values[1] == 4 && values[2] == 5 && values[3] == 14 && values[4] == 15 {
		return true, 5
	}
	if values[0] == 10 && values[4] == 14 {
		run := true
		for i := 1; i < 5; i++ {
			if values[i] != values[i-1]+1 {
				run = false
				break
			}
		}
		if run {
			return true, 14
		}
	}
	distinct := true
	for i := 1; i < 5; i++ {
		if values[i] == values[i-1] {
			distinct = false
			break
		}
	}
	if distinct && values[4]-values[0] == 4 {
		return true, values[4]
	}
	return false, 0
}

func combo(kind models.CombinationKind, strength int) models.Combination {
	return models.Combination{Kind: kind, Strength: strength, TypeRank: kind.TypeRank()}
}
