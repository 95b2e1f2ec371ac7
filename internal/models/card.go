package models

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
)

type Suit int

const (
	Diamonds Suit = iota // lowest
	Clubs
	Hearts
	Spades // highest
)

func (s Suit) String() string {
	return [...]string{"D", "C", "H", "S"}[s]
}

func (s Suit) Name() string {
	return [...]string{"Diamonds", "Clubs", "Hearts", "Spades"}[s]
}

// Order is the suit tiebreak within equal rank: D=1, C=2, H=3, S=4.
func (s Suit) Order() int {
	return int(s) + 1
}

func ParseSuit(s string) (Suit, error) {
	switch s {
	case "D":
		return Diamonds, nil
	case "C":
		return Clubs, nil
	case "H":
		return Hearts, nil
	case "S":
		return Spades, nil
	}
	return 0, fmt.Errorf("invalid suit: %s", s)
}

type Rank int

const (
	Three Rank = iota
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
	Two // highest
)

func (r Rank) String() string {
	return [...]string{"3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A", "2"}[r]
}

// Value maps 3..2 onto 3..15, so a 2 outranks an Ace.
func (r Rank) Value() int {
	return int(r) + 3
}

func ParseRank(s string) (Rank, error) {
	switch s {
	case "3":
		return Three, nil
	case "4":
		return Four, nil
	case "5":
		return Five, nil
	case "6":
		return Six, nil
	case "7":
		return Seven, nil
	case "8":
		return Eight, nil
	case "9":
		return Nine, nil
	case "10":
		return Ten, nil
	case "J":
		return Jack, nil
	case "Q":
		return Queen, nil
	case "K":
		return King, nil
	case "A":
		return Ace, nil
	case "2":
		return Two, nil
	}
	return 0, fmt.Errorf("invalid rank: %s", s)
}

type Card struct {
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit"`
}

type cardJSON struct {
	Rank string `json:"rank"`
	Suit string `json:"suit"`
}

func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(cardJSON{Rank: c.Rank.String(), Suit: c.Suit.String()})
}

func (c *Card) UnmarshalJSON(data []byte) error {
	var raw cardJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var err error
	c.Rank, err = ParseRank(raw.Rank)
	if err != nil {
		return err
	}
	c.Suit, err = ParseSuit(raw.Suit)
	return err
}

// CompareValue totally orders the deck: rank value times ten plus suit order.
func (c Card) CompareValue() int {
	return c.Rank.Value()*10 + c.Suit.Order()
}

func SortCards(cards []Card) {
	sort.Slice(cards, func(i, j int) bool {
		return cards[i].CompareValue() < cards[j].CompareValue()
	})
}

func NewDeck() []Card {
	deck := make([]Card, 0, 52)
	for r := Three; r <= Two; r++ {
		for s := Diamonds; s <= Spades; s++ {
			deck = append(deck, Card{Rank: r, Suit: s})
		}
	}
	return deck
}

func ShuffleDeck(deck []Card) {
	n := len(deck)
	for i := n - 1; i > 0; i-- {
		jBig, _ := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		j := jBig.Int64()
		deck[i], deck[j] = deck[j], deck[i]
	}
}

func ThreeOfDiamonds() Card {
	return Card{Rank: Three, Suit: Diamonds}
}

func ContainsCard(hand []Card, card Card) bool {
	for _, c := range hand {
		if c.Rank == card.Rank && c.Suit == card.Suit {
			return true
		}
	}
	return false
}

func RemoveCards(hand []Card, cards []Card) []Card {
	result := make([]Card, 0, len(hand))
	remove := make(map[int]bool)
	for _, c := range cards {
		remove[c.CompareValue()] = true
	}
	for _, c := range hand {
		if !remove[c.CompareValue()] {
			result = append(result, c)
		} else {
			delete(remove, c.CompareValue())
		}
	}
	return result
}
