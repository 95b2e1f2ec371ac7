package models

import (
	"encoding/json"
	"fmt"
)

type CombinationKind int

const (
	ComboSingle CombinationKind = iota
	ComboPair
	ComboTriple
	ComboStraight
	ComboFlush
	ComboFullHouse
	ComboFourOfAKind
	ComboStraightFlush
)

func (k CombinationKind) String() string {
	return [...]string{
		"single", "pair", "triple",
		"straight", "flush", "full-house", "four-kind", "straight-flush",
	}[k]
}

func ParseCombinationKind(s string) (CombinationKind, error) {
	for k := ComboSingle; k <= ComboStraightFlush; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("invalid combination kind: %s", s)
}

func (k CombinationKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *CombinationKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseCombinationKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// TypeRank orders the five-card kinds against each other; zero for the rest.
func (k CombinationKind) TypeRank() int {
	switch k {
	case ComboStraight:
		return 1
	case ComboFlush:
		return 2
	case ComboFullHouse:
		return 3
	case ComboFourOfAKind:
		return 4
	case ComboStraightFlush:
		return 5
	}
	return 0
}

func (k CombinationKind) IsFiveCard() bool {
	return k.TypeRank() > 0
}

// Combination is a classified, ranked card grouping. Strength totally orders
// combinations of the same kind; TypeRank orders five-card kinds cross-kind.
type Combination struct {
	Kind     CombinationKind `json:"kind"`
	Strength int             `json:"strength"`
	TypeRank int             `json:"type_rank,omitempty"`
}

// Beats reports whether c outranks other when both cover the same card count.
func (c Combination) Beats(other Combination) bool {
	if c.Kind.IsFiveCard() && other.Kind.IsFiveCard() {
		if c.TypeRank != other.TypeRank {
			return c.TypeRank > other.TypeRank
		}
		return c.Strength > other.Strength
	}
	return c.Kind == other.Kind && c.Strength > other.Strength
}
