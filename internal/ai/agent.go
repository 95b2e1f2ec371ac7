package ai

import (
	"sort"

	"github.com/bigtwo-arena/bigtwo-server/internal/game"
	"github.com/bigtwo-arena/bigtwo-server/internal/models"
)

// maxWindowStarts caps the five-card search to a sliding window over the
// sorted hand instead of enumerating all C(13,5) subsets. The agent may miss
// a legal beat because of this; raising the cap trades CPU for completeness.
const maxWindowStarts = 5

// Agent satisfies the engine's agent contract.
type Agent struct{}

func (Agent) ChoosePlay(hand []models.Card, toBeat *models.Combination, beatLen int, firstPlay bool) []models.Card {
	return ChoosePlay(hand, toBeat, beatLen, firstPlay)
}

type candidate struct {
	cards []models.Card
	combo models.Combination
}

// ChoosePlay picks the cards an AI seat should play, or nil to pass.
//
// With an open table it leads with its lowest pair if it has one, otherwise
// its single lowest card. firstPlay marks the game's opening play, which must
// contain the 3 of diamonds: the pair lead is only kept if it includes that
// card, and the single fallback is the 3 of diamonds itself since the opener
// always holds it. Against a live combination it plays the weakest legal
// beat, never overspending a stronger combination than needed.
func ChoosePlay(hand []models.Card, toBeat *models.Combination, beatLen int, firstPlay bool) []models.Card {
	if len(hand) == 0 {
		return nil
	}
	sorted := make([]models.Card, len(hand))
	copy(sorted, hand)
	models.SortCards(sorted)

	if toBeat == nil {
		pair := lowestPair(sorted)
		if pair != nil && (!firstPlay || models.ContainsCard(pair, models.ThreeOfDiamonds())) {
			return pair
		}
		return sorted[:1]
	}

	candidates := findBeats(sorted, *toBeat, beatLen)
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i].combo, candidates[j].combo
		if a.TypeRank != b.TypeRank {
			return a.TypeRank < b.TypeRank
		}
		return a.Strength < b.Strength
	})
	return candidates[0].cards
}

func findBeats(sorted []models.Card, toBeat models.Combination, beatLen int) []candidate {
	var out []candidate
	add := func(cards []models.Card) {
		if combo, ok := game.ValidatePlay(cards, &toBeat, beatLen, false, false); ok {
			out = append(out, candidate{cards: cards, combo: combo})
		}
	}

	switch beatLen {
	case 1:
		for i := range sorted {
			add(sorted[i : i+1])
		}
	case 2:
		for _, group := range rankGroups(sorted) {
			for i := 0; i < len(group); i++ {
				for j := i + 1; j < len(group); j++ {
					add([]models.Card{group[i], group[j]})
				}
			}
		}
	case 3:
		for _, group := range rankGroups(sorted) {
			for i := 0; i < len(group); i++ {
				for j := i + 1; j < len(group); j++ {
					for k := j + 1; k < len(group); k++ {
						add([]models.Card{group[i], group[j], group[k]})
					}
				}
			}
		}
	case 5:
		starts := len(sorted) - 4
		if starts > maxWindowStarts {
			starts = maxWindowStarts
		}
		for i := 0; i < starts; i++ {
			add(sorted[i : i+5])
		}
	}
	return out
}

func lowestPair(sorted []models.Card) []models.Card {
	for i := 0; i+1 < len(sorted); i++ {
		if sorted[i].Rank == sorted[i+1].Rank {
			return sorted[i : i+2]
		}
	}
	return nil
}

// rankGroups returns same-rank runs in ascending rank order.
func rankGroups(sorted []models.Card) [][]models.Card {
	var groups [][]models.Card
	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i == len(sorted) || sorted[i].Rank != sorted[start].Rank {
			groups = append(groups, sorted[start:i])
			start = i
		}
	}
	return groups
}
