package game

import (
	"github.com/bigtwo-arena/bigtwo-server/internal/models"
)

// DefaultEndScore ends the game once any cumulative score reaches it.
const DefaultEndScore = 100

// RoundScores charges each loser for their remaining cards: face value up to
// four cards, doubled for five to nine, tripled for ten or more. The round
// winner scores zero.
func RoundScores(handSizes [models.MaxPlayers]int, winner int) [models.MaxPlayers]int {
	var scores [models.MaxPlayers]int
	for p, n := range handSizes {
		if p == winner {
			continue
		}
		switch {
		case n <= 4:
			scores[p] = n
		case n <= 9:
			scores[p] = n * 2
		default:
			scores[p] = n * 3
		}
	}
	return scores
}

// GameOver reports whether any cumulative score reached the threshold.
func GameOver(scores [models.MaxPlayers]int, threshold int) bool {
	for _, s := range scores {
		if s >= threshold {
			return true
		}
	}
	return false
}

// GameWinner is the position with the lowest cumulative score, not the last
// round's winner.
func GameWinner(scores [models.MaxPlayers]int) int {
	winner := 0
	for p := 1; p < models.MaxPlayers; p++ {
		if scores[p] < scores[winner] {
			winner = p
		}
	}
	return winner
}
