package game

import (
	"github.com/bigtwo-arena/bigtwo-server/internal/models"
)

// Deal shuffles a fresh 52-card deck and returns four sorted 13-card hands.
func Deal() [models.MaxPlayers][]models.Card {
	deck := models.NewDeck()
	models.ShuffleDeck(deck)

	var hands [models.MaxPlayers][]models.Card
	for i := 0; i < models.MaxPlayers; i++ {
		hands[i] = make([]models.Card, models.HandSize)
		copy(hands[i], deck[i*models.HandSize:(i+1)*models.HandSize])
		models.SortCards(hands[i])
	}
	return hands
}

// FindStartPlayer returns the position holding the 3 of diamonds. Used for
// round one only; later rounds are opened by the previous round's winner.
func FindStartPlayer(hands [models.MaxPlayers][]models.Card) int {
	target := models.ThreeOfDiamonds()
	for pos, hand := range hands {
		if models.ContainsCard(hand, target) {
			return pos
		}
	}
	return 0
}
