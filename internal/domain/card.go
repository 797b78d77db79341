package domain

import (
	"fmt"
	"strconv"
)

// Suits in dealing order.
const (
	SuitSpades   = "S"
	SuitHearts   = "H"
	SuitDiamonds = "D"
	SuitClubs    = "C"
)

// Ranks are face values: 2..10, then J=11, Q=12, K=13, A=14.
const (
	RankJack  = 11
	RankQueen = 12
	RankKing  = 13
	RankAce   = 14
)

// Suits lists the four suits in dealing order.
var Suits = []string{SuitSpades, SuitHearts, SuitDiamonds, SuitClubs}

// Card is a single playing card.
type Card struct {
	Suit string `json:"suit"` // "S","H","D","C"
	Rank int    `json:"rank"` // 6..14 for a 36-card deck
}

var rankLabels = map[int]string{
	RankJack:  "J",
	RankQueen: "Q",
	RankKing:  "K",
	RankAce:   "A",
}

// String renders the card id used on the wire, e.g. "QS" or "10H".
func (c Card) String() string {
	if label, ok := rankLabels[c.Rank]; ok {
		return label + c.Suit
	}
	return strconv.Itoa(c.Rank) + c.Suit
}

// ParseCard converts a wire card id back into a Card. It does not check
// that the card belongs to the configured deck; callers validate against
// the actor's hand.
func ParseCard(id string) (Card, error) {
	if len(id) < 2 {
		return Card{}, fmt.Errorf("invalid card id %q", id)
	}
	suit := id[len(id)-1:]
	switch suit {
	case SuitSpades, SuitHearts, SuitDiamonds, SuitClubs:
	default:
		return Card{}, fmt.Errorf("invalid card suit in %q", id)
	}

	rankStr := id[:len(id)-1]
	for rank, label := range rankLabels {
		if rankStr == label {
			return Card{Suit: suit, Rank: rank}, nil
		}
	}
	rank, err := strconv.Atoi(rankStr)
	if err != nil || rank < 2 || rank > 10 {
		return Card{}, fmt.Errorf("invalid card rank in %q", id)
	}
	return Card{Suit: suit, Rank: rank}, nil
}

// Beats reports whether c defeats other under the given trump suit:
// same suit and higher rank, or c is trump and other is not. Two
// non-trump cards of different suits never beat each other.
func (c Card) Beats(other Card, trumpSuit string) bool {
	if c.Suit == other.Suit {
		return c.Rank > other.Rank
	}
	return c.Suit == trumpSuit
}

// IsTrump reports whether the card belongs to the trump suit.
func (c Card) IsTrump(trumpSuit string) bool {
	return c.Suit == trumpSuit
}
