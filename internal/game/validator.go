package game

import (
	"github.com/bigtwo-arena/bigtwo-server/internal/models"
)

// ValidatePlay decides whether a proposed card set may be played over the
// current table state. Returns the classified combination on success.
//
// opensTrick means the actor holds the trick-opening obligation (no play on
// the table); firstPlayOfGame means no card has been played yet this game, in
// which case the set must contain the 3 of diamonds.
func ValidatePlay(cards []models.Card, last *models.Combination, lastLen int, opensTrick, firstPlayOfGame bool) (models.Combination, bool) {
	if len(cards) == 0 {
		return models.Combination{}, false
	}
	played, ok := Classify(cards)
	if !ok {
		return models.Combination{}, false
	}

	if opensTrick && firstPlayOfGame {
		if !models.ContainsCard(cards, models.ThreeOfDiamonds()) {
			return models.Combination{}, false
		}
		return played, true
	}

	if last == nil {
		return played, true
	}

	if len(cards) != lastLen {
		return models.Combination{}, false
	}
	if !played.Beats(*last) {
		return models.Combination{}, false
	}
	return played, true
}

// OwnsCards checks that every played card exists in the hand, respecting
// multiplicity.
func OwnsCards(hand, played []models.Card) bool {
	counts := make(map[int]int)
	for _, c := range hand {
		counts[c.CompareValue()]++
	}
	for _, c := range played {
		v := c.CompareValue()
		if counts[v] <= 0 {
			return false
		}
		counts[v]--
	}
	return true
}
