package domain

import "fmt"

// Standard deck sizes supported by the engine. The low rank decides the
// deck: 2 gives the full 52-card deck, 6 the Russian 36-card deck, 9 a
// short 24-card deck.
const (
	LowRank52 = 2
	LowRank36 = 6
	LowRank24 = 9
)

// NewDeck returns an unshuffled deck holding every rank from lowRank up
// to Ace in all four suits.
func NewDeck(lowRank int) ([]Card, error) {
	if lowRank < LowRank52 || lowRank > LowRank24 {
		return nil, fmt.Errorf("unsupported low rank %d", lowRank)
	}
	deck := make([]Card, 0, (RankAce-lowRank+1)*len(Suits))
	for rank := lowRank; rank <= RankAce; rank++ {
		for _, suit := range Suits {
			deck = append(deck, Card{Suit: suit, Rank: rank})
		}
	}
	return deck, nil
}

// Draw removes and returns up to n cards from the top of the deck. A
// short (or empty) result means the deck is exhausted; it is not an
// error. The last card drawn is always the face-up trump card.
func (g *Game) Draw(n int) []Card {
	if n > len(g.Deck) {
		n = len(g.Deck)
	}
	drawn := g.Deck[:n:n]
	g.Deck = g.Deck[n:]
	for _, c := range drawn {
		if c == g.TrumpCard {
			g.TrumpTaken = true
		}
	}
	return drawn
}
