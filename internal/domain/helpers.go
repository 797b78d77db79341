package domain

import (
	"fmt"
	"sort"
)

// RemoveCards removes the provided cards from a hand, one occurrence per
// listed card, and returns the updated hand.
func RemoveCards(hand []Card, toRemove []Card) []Card {
	if len(toRemove) == 0 || len(hand) == 0 {
		return hand
	}

	removeCounts := make(map[Card]int, len(toRemove))
	for _, card := range toRemove {
		removeCounts[card]++
	}

	updated := make([]Card, 0, len(hand))
	for _, card := range hand {
		if count, ok := removeCounts[card]; ok && count > 0 {
			removeCounts[card] = count - 1
			continue
		}
		updated = append(updated, card)
	}
	return updated
}

// holdsAll verifies that every listed card (counting duplicates) sits in
// the hand.
func holdsAll(hand []Card, cards []Card) error {
	need := make(map[Card]int, len(cards))
	for _, c := range cards {
		need[c]++
	}
	for _, c := range hand {
		if need[c] > 0 {
			need[c]--
		}
	}
	for c, n := range need {
		if n > 0 {
			return fmt.Errorf("%w: %s", ErrUnknownCard, c)
		}
	}
	return nil
}

// CardPower orders cards for display and bot play: within a suit by
// rank, with every trump above every non-trump.
func CardPower(c Card, trumpSuit string) int {
	power := c.Rank
	if c.IsTrump(trumpSuit) {
		power += 100
	}
	return power
}

// SortHand orders a hand by ascending power under the given trump suit.
func SortHand(cards []Card, trumpSuit string) {
	sort.Slice(cards, func(i, j int) bool {
		pi, pj := CardPower(cards[i], trumpSuit), CardPower(cards[j], trumpSuit)
		if pi != pj {
			return pi < pj
		}
		return cards[i].Suit < cards[j].Suit
	})
}

// LabelPayload is the match label advertised for quick-match queries.
type LabelPayload struct {
	Open  bool   `json:"open"`
	Game  string `json:"game"`
	Phase string `json:"phase"`
}

// ComputeLabel derives the advertised label from session phase and
// seating.
func ComputeLabel(phase Phase, seated, maxSeats int) LabelPayload {
	open := phase == PhaseLobby && seated < maxSeats
	return LabelPayload{Open: open, Game: "durak", Phase: string(phase)}
}
