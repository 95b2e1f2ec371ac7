package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigtwo-arena/bigtwo-server/internal/models"
)

func TestDealConservesDeck(t *testing.T) {
	hands := Deal()

	seen := make(map[int]bool)
	for pos, hand := range hands {
		require.Len(t, hand, models.HandSize, "hand %d", pos)
		for _, c := range hand {
			assert.False(t, seen[c.CompareValue()], "card %v dealt twice", c)
			seen[c.CompareValue()] = true
		}
	}
	assert.Len(t, seen, 52)
}

func TestDealHandsAreSorted(t *testing.T) {
	hands := Deal()
	for pos, hand := range hands {
		for i := 1; i < len(hand); i++ {
			assert.Less(t, hand[i-1].CompareValue(), hand[i].CompareValue(), "hand %d not sorted", pos)
		}
	}
}

func TestFindStartPlayerHoldsThreeOfDiamonds(t *testing.T) {
	hands := Deal()
	start := FindStartPlayer(hands)
	assert.True(t, models.ContainsCard(hands[start], models.ThreeOfDiamonds()))
}
