package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigtwo-arena/bigtwo-server/internal/models"
)

func TestValidatePlayFirstPlayNeedsThreeOfDiamonds(t *testing.T) {
	_, ok := ValidatePlay(cards(t, "4D"), nil, 0, true, true)
	assert.False(t, ok)

	combo, ok := ValidatePlay(cards(t, "3D"), nil, 0, true, true)
	require.True(t, ok)
	assert.Equal(t, models.ComboSingle, combo.Kind)

	// Any combination containing the 3D satisfies the opening rule.
	combo, ok = ValidatePlay(cards(t, "3D", "3C"), nil, 0, true, true)
	require.True(t, ok)
	assert.Equal(t, models.ComboPair, combo.Kind)
}

func TestValidatePlayLaterTrickOpensFreely(t *testing.T) {
	// Once a play has occurred in the game, opening a trick has no 3D rule.
	combo, ok := ValidatePlay(cards(t, "KS"), nil, 0, true, false)
	require.True(t, ok)
	assert.Equal(t, models.ComboSingle, combo.Kind)

	combo, ok = ValidatePlay(cards(t, "9C", "9D", "9S"), nil, 0, true, false)
	require.True(t, ok)
	assert.Equal(t, models.ComboTriple, combo.Kind)
}

func TestValidatePlayLengthMustMatch(t *testing.T) {
	last, ok := Classify(cards(t, "5D", "5C"))
	require.True(t, ok)

	_, ok = ValidatePlay(cards(t, "KS"), &last, 2, false, false)
	assert.False(t, ok)
	_, ok = ValidatePlay(cards(t, "KS", "KH", "KD"), &last, 2, false, false)
	assert.False(t, ok)
}

func TestValidatePlaySingleSuitTiebreak(t *testing.T) {
	last, ok := Classify(cards(t, "5C"))
	require.True(t, ok)
	require.Equal(t, 52, last.Strength)

	_, ok = ValidatePlay(cards(t, "5D"), &last, 1, false, false)
	assert.False(t, ok, "5D (51) must not beat 5C (52)")

	combo, ok := ValidatePlay(cards(t, "5H"), &last, 1, false, false)
	require.True(t, ok, "5H (53) beats 5C (52)")
	assert.Equal(t, 53, combo.Strength)
}

func TestValidatePlayMustBeat(t *testing.T) {
	last, ok := Classify(cards(t, "5D", "5C"))
	require.True(t, ok)

	// Same pair rank with higher suit on top wins.
	combo, ok := ValidatePlay(cards(t, "5H", "5S"), &last, 2, false, false)
	require.True(t, ok)
	assert.True(t, combo.Beats(last))

	// An equal or weaker pair is rejected.
	_, ok = ValidatePlay(cards(t, "4H", "4S"), &last, 2, false, false)
	assert.False(t, ok)
}

func TestValidatePlayFiveCardTypeRank(t *testing.T) {
	straight, ok := Classify(cards(t, "9C", "10D", "JH", "QS", "KD"))
	require.True(t, ok)

	// Any flush beats any straight, even a weaker-looking one.
	combo, ok := ValidatePlay(cards(t, "3H", "5H", "7H", "9H", "JH"), &straight, 5, false, false)
	require.True(t, ok)
	assert.Equal(t, models.ComboFlush, combo.Kind)

	// A weaker straight does not beat a stronger straight.
	_, ok = ValidatePlay(cards(t, "4C", "5D", "6H", "7S", "8D"), &straight, 5, false, false)
	assert.False(t, ok)

	flush, ok := Classify(cards(t, "3H", "5H", "7H", "9H", "JH"))
	require.True(t, ok)
	_, ok = ValidatePlay(cards(t, "9C", "10D", "JH", "QS", "KD"), &flush, 5, false, false)
	assert.False(t, ok)
}

func TestValidatePlayRejectsEmptyAndJunk(t *testing.T) {
	_, ok := ValidatePlay(nil, nil, 0, true, false)
	assert.False(t, ok)
	_, ok = ValidatePlay(cards(t, "3C", "7D", "JH"), nil, 0, true, false)
	assert.False(t, ok)
}

func TestOwnsCards(t *testing.T) {
	hand := cards(t, "3D", "5C", "5H", "KS")

	assert.True(t, OwnsCards(hand, cards(t, "5C", "5H")))
	assert.False(t, OwnsCards(hand, cards(t, "5C", "5D")))
	// The same card cannot be played twice.
	assert.False(t, OwnsCards(hand, cards(t, "5C", "5C")))
	assert.True(t, OwnsCards(hand, nil))
}
