package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigtwo-arena/bigtwo-server/internal/models"
)

// card parses shorthand like "3D", "10H", "AS".
func card(t *testing.T, s string) models.Card {
	t.Helper()
	rank, err := models.ParseRank(s[:len(s)-1])
	require.NoError(t, err, "bad rank in %q", s)
	suit, err := models.ParseSuit(s[len(s)-1:])
	require.NoError(t, err, "bad suit in %q", s)
	return models.Card{Rank: rank, Suit: suit}
}

func cards(t *testing.T, specs ...string) []models.Card {
	t.Helper()
	out := make([]models.Card, len(specs))
	for i, s := range specs {
		out[i] = card(t, s)
	}
	return out
}

func TestClassifySingle(t *testing.T) {
	combo, ok := Classify(cards(t, "5C"))
	require.True(t, ok)
	assert.Equal(t, models.ComboSingle, combo.Kind)
	assert.Equal(t, 52, combo.Strength)
	assert.Equal(t, 0, combo.TypeRank)
}

func TestClassifyPair(t *testing.T) {
	// Pair strength is its highest card, so suit matters.
	combo, ok := Classify(cards(t, "5D", "5C"))
	require.True(t, ok)
	assert.Equal(t, models.ComboPair, combo.Kind)
	assert.Equal(t, 52, combo.Strength)

	stronger, ok := Classify(cards(t, "5D", "5H"))
	require.True(t, ok)
	assert.Equal(t, 53, stronger.Strength)
	assert.True(t, stronger.Beats(combo))

	_, ok = Classify(cards(t, "5D", "6C"))
	assert.False(t, ok)
}

func TestClassifyTriple(t *testing.T) {
	combo, ok := Classify(cards(t, "9H", "9D", "9C"))
	require.True(t, ok)
	assert.Equal(t, models.ComboTriple, combo.Kind)
	assert.Equal(t, card(t, "9H").CompareValue(), combo.Strength)

	_, ok = Classify(cards(t, "9H", "9D", "8C"))
	assert.False(t, ok)
}

func TestClassifyRejectsBadSizes(t *testing.T) {
	_, ok := Classify(nil)
	assert.False(t, ok)
	_, ok = Classify(cards(t, "3D", "4D", "5D", "6D"))
	assert.False(t, ok)
	_, ok = Classify(cards(t, "3D", "4D", "5D", "6D", "7D", "8D"))
	assert.False(t, ok)
}

func TestClassifyStraight(t *testing.T) {
	combo, ok := Classify(cards(t, "4C", "5D", "6H", "7S", "8D"))
	require.True(t, ok)
	assert.Equal(t, models.ComboStraight, combo.Kind)
	assert.Equal(t, 1, combo.TypeRank)
	// High card is the 8D: 8*10 + diamond order 1.
	assert.Equal(t, 81, combo.Strength)
}

func TestClassifyStraightOrderInsensitive(t *testing.T) {
	a, ok := Classify(cards(t, "8D", "4C", "7S", "5D", "6H"))
	require.True(t, ok)
	b, ok := Classify(cards(t, "4C", "5D", "6H", "7S", "8D"))
	require.True(t, ok)
	assert.Equal(t, b, a)
}

func TestClassifyWrapStraights(t *testing.T) {
	// 3-4-5-A-2 counts as a five-high straight.
	low, ok := Classify(cards(t, "3C", "4D", "5H", "AS", "2S"))
	require.True(t, ok)
	assert.Equal(t, models.ComboStraight, low.Kind)
	// Tiebreak suit comes from the highest compare-value card, the 2S.
	assert.Equal(t, 54, low.Strength)

	// 10-J-Q-K-A is Ace high; the 2 plays no part.
	high, ok := Classify(cards(t, "10C", "JD", "QH", "KS", "AD"))
	require.True(t, ok)
	assert.Equal(t, models.ComboStraight, high.Kind)
	assert.Equal(t, 141, high.Strength)
	assert.True(t, high.Beats(low))

	// J-Q-K-A-2 runs consecutively in deck values and is the top straight.
	top, ok := Classify(cards(t, "JC", "QD", "KH", "AS", "2D"))
	require.True(t, ok)
	assert.Equal(t, 151, top.Strength)
	assert.True(t, top.Beats(high))

	// 2-3-4-5-6 is no straight at all.
	_, ok = Classify(cards(t, "2C", "3D", "4H", "5S", "6D"))
	assert.False(t, ok)
}

func TestClassifyFlush(t *testing.T) {
	combo, ok := Classify(cards(t, "3H", "7H", "9H", "JH", "KH"))
	require.True(t, ok)
	assert.Equal(t, models.ComboFlush, combo.Kind)
	assert.Equal(t, 2, combo.TypeRank)
	assert.Equal(t, card(t, "KH").CompareValue(), combo.Strength)
}

func TestClassifyFullHouse(t *testing.T) {
	combo, ok := Classify(cards(t, "8C", "8D", "8H", "KC", "KD"))
	require.True(t, ok)
	assert.Equal(t, models.ComboFullHouse, combo.Kind)
	assert.Equal(t, 3, combo.TypeRank)
	// Strength follows the triple's rank, not the pair's.
	assert.Equal(t, 80, combo.Strength)
}

func TestClassifyFourOfAKind(t *testing.T) {
	combo, ok := Classify(cards(t, "JC", "JD", "JH", "JS", "3D"))
	require.True(t, ok)
	assert.Equal(t, models.ComboFourOfAKind, combo.Kind)
	assert.Equal(t, 4, combo.TypeRank)
	assert.Equal(t, 110, combo.Strength)
}

func TestClassifyStraightFlushBeatsEverything(t *testing.T) {
	sf, ok := Classify(cards(t, "4H", "5H", "6H", "7H", "8H"))
	require.True(t, ok)
	assert.Equal(t, models.ComboStraightFlush, sf.Kind)
	assert.Equal(t, 5, sf.TypeRank)

	four, ok := Classify(cards(t, "AC", "AD", "AH", "AS", "2S"))
	require.True(t, ok)
	assert.True(t, sf.Beats(four))
	assert.False(t, four.Beats(sf))
}

func TestClassifyRejectsJunkFive(t *testing.T) {
	_, ok := Classify(cards(t, "3C", "5D", "9H", "JS", "KD"))
	assert.False(t, ok)
}

// Beats must impose a strict total order within a kind: irreflexive,
// antisymmetric, and transitive over every single and pair in the deck.
func TestBeatsIsStrictOrder(t *testing.T) {
	var combos []models.Combination
	for _, c := range models.NewDeck() {
		combo, ok := Classify([]models.Card{c})
		require.True(t, ok)
		combos = append(combos, combo)
	}
	for r := models.Three; r <= models.Two; r++ {
		for s1 := models.Diamonds; s1 <= models.Spades; s1++ {
			for s2 := s1 + 1; s2 <= models.Spades; s2++ {
				combo, ok := Classify([]models.Card{{Rank: r, Suit: s1}, {Rank: r, Suit: s2}})
				require.True(t, ok)
				combos = append(combos, combo)
			}
		}
	}

	for i, a := range combos {
		assert.False(t, a.Beats(a), "combo %d beats itself", i)
		for _, b := range combos {
			if a.Kind != b.Kind {
				continue
			}
			if a.Beats(b) {
				assert.False(t, b.Beats(a), "antisymmetry violated for %+v vs %+v", a, b)
			}
			for _, c := range combos {
				if c.Kind != a.Kind {
					continue
				}
				if a.Beats(b) && b.Beats(c) {
					assert.True(t, a.Beats(c), "transitivity violated")
				}
			}
		}
	}
}
