package domain

import (
	"errors"
	"testing"
)

// buildGame wires a mid-game state directly so individual rules can be
// probed without scripting a full deal. Seats follow the order of ids.
func buildGame(ids []string, hands map[string][]Card, deck []Card, trump Card) *Game {
	g := &Game{
		Phase:     PhasePlaying,
		Seats:     append([]string(nil), ids...),
		Players:   make(map[string]*Player, len(ids)),
		Deck:      deck,
		TrumpCard: trump,
		HandSize:  6,
		LowRank:   LowRank36,
	}
	for seat, id := range ids {
		g.Players[id] = &Player{UserID: id, Seat: seat, Hand: append([]Card(nil), hands[id]...)}
	}
	g.AttackerSeat = 0
	g.DefenderSeat = 1
	return g
}

func c(id string) Card {
	card, err := ParseCard(id)
	if err != nil {
		panic(err)
	}
	return card
}

func cards(ids ...string) []Card {
	out := make([]Card, len(ids))
	for i, id := range ids {
		out[i] = c(id)
	}
	return out
}

func TestNewGameDealsInSeatOrder(t *testing.T) {
	deck, err := NewDeck(LowRank36)
	if err != nil {
		t.Fatalf("NewDeck error: %v", err)
	}

	g, err := NewGame([]string{"a", "b"}, deck, LowRank36, 6)
	if err != nil {
		t.Fatalf("NewGame error: %v", err)
	}

	if g.TrumpCard != (Card{Suit: SuitClubs, Rank: RankAce}) {
		t.Fatalf("trump card = %s, want bottom card AC", g.TrumpCard)
	}
	if g.TrumpSuit() != SuitClubs {
		t.Fatalf("trump suit = %s, want C", g.TrumpSuit())
	}

	wantA := cards("6S", "6H", "6D", "6C", "7S", "7H")
	for i, want := range wantA {
		if g.Players["a"].Hand[i] != want {
			t.Fatalf("a's card %d = %s, want %s", i, g.Players["a"].Hand[i], want)
		}
	}
	if len(g.Players["b"].Hand) != 6 {
		t.Fatalf("b's hand size = %d, want 6", len(g.Players["b"].Hand))
	}
	if len(g.Deck) != 36-12 {
		t.Fatalf("deck size after deal = %d, want 24", len(g.Deck))
	}

	// a holds 6C, the lowest trump dealt, so a opens.
	if g.AttackerSeat != 0 || g.DefenderSeat != 1 {
		t.Fatalf("attacker/defender = %d/%d, want 0/1", g.AttackerSeat, g.DefenderSeat)
	}

	if err := g.VerifyConservation(); err != nil {
		t.Fatalf("conservation after deal: %v", err)
	}
}

func TestNewGameRejectsBadPlayerCounts(t *testing.T) {
	deck36, _ := NewDeck(LowRank36)
	deck24, _ := NewDeck(LowRank24)

	tests := []struct {
		name  string
		seats []string
		deck  []Card
	}{
		{"one player", []string{"a"}, deck36},
		{"seven players", []string{"a", "b", "c", "d", "e", "f", "g"}, deck36},
		{"five players on short deck", []string{"a", "b", "c", "d", "e"}, deck24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewGame(tt.seats, tt.deck, LowRank36, 6); !errors.Is(err, ErrInvalidPlayerCount) {
				t.Errorf("error = %v, want ErrInvalidPlayerCount", err)
			}
		})
	}
}

func TestPlayAttackLegality(t *testing.T) {
	newGame := func() *Game {
		return buildGame(
			[]string{"a", "b"},
			map[string][]Card{
				"a": cards("6H", "6D", "9S"),
				"b": cards("7H", "8H", "10S", "10H"),
			},
			nil,
			Card{Suit: SuitClubs, Rank: RankAce},
		)
	}

	t.Run("defender cannot attack", func(t *testing.T) {
		g := newGame()
		if err := g.PlayAttack("b", cards("7H")); !errors.Is(err, ErrWrongRole) {
			t.Errorf("error = %v, want ErrWrongRole", err)
		}
	})

	t.Run("unknown card rejected", func(t *testing.T) {
		g := newGame()
		if err := g.PlayAttack("a", cards("AS")); !errors.Is(err, ErrUnknownCard) {
			t.Errorf("error = %v, want ErrUnknownCard", err)
		}
	})

	t.Run("opening batch must share a rank", func(t *testing.T) {
		g := newGame()
		if err := g.PlayAttack("a", cards("6H", "9S")); !errors.Is(err, ErrIllegalCardPlay) {
			t.Errorf("error = %v, want ErrIllegalCardPlay", err)
		}
		if len(g.Table) != 0 || len(g.Players["a"].Hand) != 3 {
			t.Errorf("rejected attack mutated state")
		}
	})

	t.Run("follow-up must match a table rank", func(t *testing.T) {
		g := newGame()
		if err := g.PlayAttack("a", cards("6H", "6D")); err != nil {
			t.Fatalf("opening pair: %v", err)
		}
		if err := g.PlayAttack("a", cards("9S")); !errors.Is(err, ErrIllegalCardPlay) {
			t.Errorf("error = %v, want ErrIllegalCardPlay", err)
		}
		if len(g.Table) != 2 {
			t.Errorf("table size = %d, want 2", len(g.Table))
		}
	})

	t.Run("rank from a defense card is attackable", func(t *testing.T) {
		g := buildGame(
			[]string{"a", "b"},
			map[string][]Card{
				"a": cards("6H", "7D", "9S"),
				"b": cards("7H", "8H", "10S", "10H"),
			},
			nil,
			Card{Suit: SuitClubs, Rank: RankAce},
		)
		if err := g.PlayAttack("a", cards("6H")); err != nil {
			t.Fatalf("open: %v", err)
		}
		if err := g.PlayDefense("b", []DefensePair{{Attack: c("6H"), Defense: c("7H")}}); err != nil {
			t.Fatalf("defend: %v", err)
		}
		if err := g.PlayAttack("a", cards("7D")); err != nil {
			t.Errorf("attacking the defense card's rank: %v", err)
		}
	})
}

func TestAttackCeilingIsDefenderHandSize(t *testing.T) {
	g := buildGame(
		[]string{"a", "b"},
		map[string][]Card{
			"a": cards("6H", "6D", "6S"),
			"b": cards("10H", "10S"),
		},
		nil,
		Card{Suit: SuitClubs, Rank: RankAce},
	)

	if err := g.PlayAttack("a", cards("6H", "6D", "6S")); !errors.Is(err, ErrIllegalCardPlay) {
		t.Fatalf("three attacks against a two-card hand: error = %v, want ErrIllegalCardPlay", err)
	}
	if err := g.PlayAttack("a", cards("6H", "6D")); err != nil {
		t.Fatalf("two attacks against a two-card hand: %v", err)
	}
	if err := g.PlayAttack("a", cards("6S")); !errors.Is(err, ErrIllegalCardPlay) {
		t.Errorf("exceeding the ceiling after defense started: error = %v, want ErrIllegalCardPlay", err)
	}
}

func TestHelperJoinsAfterOpening(t *testing.T) {
	g := buildGame(
		[]string{"a", "b", "h"},
		map[string][]Card{
			"a": cards("6H", "9S"),
			"b": cards("10H", "10S", "QH"),
			"h": cards("6D", "8C"),
		},
		nil,
		Card{Suit: SuitClubs, Rank: RankAce},
	)

	if err := g.PlayAttack("h", cards("6D")); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("helper opening a fresh round: error = %v, want ErrNotYourTurn", err)
	}
	if err := g.PlayAttack("a", cards("6H")); err != nil {
		t.Fatalf("attacker opens: %v", err)
	}
	if err := g.PlayAttack("h", cards("8C")); !errors.Is(err, ErrIllegalCardPlay) {
		t.Fatalf("helper with unmatched rank: error = %v, want ErrIllegalCardPlay", err)
	}
	if err := g.PlayAttack("h", cards("6D")); err != nil {
		t.Errorf("helper matching a table rank: %v", err)
	}
	if len(g.Table) != 2 {
		t.Errorf("table size = %d, want 2", len(g.Table))
	}
}

func TestPlayDefenseLegality(t *testing.T) {
	newGame := func() *Game {
		g := buildGame(
			[]string{"a", "b"},
			map[string][]Card{
				"a": cards("9H", "9D"),
				"b": cards("10H", "6C", "7S"),
			},
			nil,
			Card{Suit: SuitClubs, Rank: RankAce},
		)
		if err := g.PlayAttack("a", cards("9H", "9D")); err != nil {
			panic(err)
		}
		return g
	}

	t.Run("attacker cannot defend", func(t *testing.T) {
		g := newGame()
		if err := g.PlayDefense("a", []DefensePair{{Attack: c("9H"), Defense: c("9D")}}); !errors.Is(err, ErrWrongRole) {
			t.Errorf("error = %v, want ErrWrongRole", err)
		}
	})

	t.Run("non-beating card rejected without mutation", func(t *testing.T) {
		g := newGame()
		err := g.PlayDefense("b", []DefensePair{
			{Attack: c("9H"), Defense: c("10H")}, // legal
			{Attack: c("9D"), Defense: c("7S")},  // off-suit non-trump
		})
		if !errors.Is(err, ErrIllegalCardPlay) {
			t.Fatalf("error = %v, want ErrIllegalCardPlay", err)
		}
		if len(g.Players["b"].Hand) != 3 {
			t.Errorf("rejected batch removed cards from hand")
		}
		for _, slot := range g.Table {
			if slot.Defended() {
				t.Errorf("rejected batch filled a slot")
			}
		}
	})

	t.Run("trump beats off-suit attack", func(t *testing.T) {
		g := newGame()
		err := g.PlayDefense("b", []DefensePair{
			{Attack: c("9H"), Defense: c("10H")},
			{Attack: c("9D"), Defense: c("6C")},
		})
		if err != nil {
			t.Fatalf("defense error: %v", err)
		}
		if n := g.undefendedCount(); n != 0 {
			t.Errorf("undefended = %d, want 0", n)
		}
		if len(g.Players["b"].Hand) != 1 {
			t.Errorf("defender hand size = %d, want 1", len(g.Players["b"].Hand))
		}
	})

	t.Run("defending an already beaten slot rejected", func(t *testing.T) {
		g := newGame()
		if err := g.PlayDefense("b", []DefensePair{{Attack: c("9H"), Defense: c("10H")}}); err != nil {
			t.Fatalf("first defense: %v", err)
		}
		if err := g.PlayDefense("b", []DefensePair{{Attack: c("9H"), Defense: c("6C")}}); !errors.Is(err, ErrIllegalCardPlay) {
			t.Errorf("error = %v, want ErrIllegalCardPlay", err)
		}
	})
}

func TestTakeMovesTableAndSkipsDefender(t *testing.T) {
	g := buildGame(
		[]string{"a", "b", "c"},
		map[string][]Card{
			"a": cards("6H", "8S"),
			"b": cards("10H", "7C"),
			"c": cards("JD", "QD"),
		},
		nil,
		Card{Suit: SuitClubs, Rank: RankAce},
	)

	if err := g.Take("b"); !errors.Is(err, ErrIllegalTake) {
		t.Fatalf("take with empty table: error = %v, want ErrIllegalTake", err)
	}

	if err := g.PlayAttack("a", cards("6H")); err != nil {
		t.Fatalf("attack: %v", err)
	}
	if err := g.Take("a"); !errors.Is(err, ErrWrongRole) {
		t.Fatalf("attacker taking: error = %v, want ErrWrongRole", err)
	}
	if err := g.Take("b"); err != nil {
		t.Fatalf("take: %v", err)
	}

	if len(g.Players["b"].Hand) != 3 {
		t.Errorf("defender hand size = %d, want 3 after take", len(g.Players["b"].Hand))
	}
	if len(g.Table) != 0 {
		t.Errorf("table not cleared after take")
	}
	// The taker is skipped: seat after b attacks, a defends.
	if g.AttackerSeat != 2 || g.DefenderSeat != 0 {
		t.Errorf("attacker/defender = %d/%d, want 2/0", g.AttackerSeat, g.DefenderSeat)
	}
}

func TestTakeRejectedWhenFullyDefended(t *testing.T) {
	g := buildGame(
		[]string{"a", "b"},
		map[string][]Card{
			"a": cards("6H", "8S"),
			"b": cards("7H", "7C"),
		},
		nil,
		Card{Suit: SuitClubs, Rank: RankAce},
	)
	if err := g.PlayAttack("a", cards("6H")); err != nil {
		t.Fatalf("attack: %v", err)
	}
	if err := g.PlayDefense("b", []DefensePair{{Attack: c("6H"), Defense: c("7H")}}); err != nil {
		t.Fatalf("defend: %v", err)
	}
	if err := g.Take("b"); !errors.Is(err, ErrIllegalTake) {
		t.Errorf("take after full defense: error = %v, want ErrIllegalTake", err)
	}
}

func TestEndAttackDiscardsAndRotates(t *testing.T) {
	g := buildGame(
		[]string{"a", "b", "c"},
		map[string][]Card{
			"a": cards("6H", "8S"),
			"b": cards("7H", "7C"),
			"c": cards("JD", "QD"),
		},
		nil,
		Card{Suit: SuitClubs, Rank: RankAce},
	)

	if err := g.EndAttack("a"); !errors.Is(err, ErrIllegalGiveUp) {
		t.Fatalf("give up on empty table: error = %v, want ErrIllegalGiveUp", err)
	}

	if err := g.PlayAttack("a", cards("6H")); err != nil {
		t.Fatalf("attack: %v", err)
	}
	if err := g.EndAttack("a"); !errors.Is(err, ErrIllegalGiveUp) {
		t.Fatalf("give up with open attack: error = %v, want ErrIllegalGiveUp", err)
	}
	if err := g.PlayDefense("b", []DefensePair{{Attack: c("6H"), Defense: c("7H")}}); err != nil {
		t.Fatalf("defend: %v", err)
	}
	if err := g.EndAttack("b"); !errors.Is(err, ErrWrongRole) {
		t.Fatalf("defender closing the round: error = %v, want ErrWrongRole", err)
	}
	if err := g.EndAttack("a"); err != nil {
		t.Fatalf("give up: %v", err)
	}

	if len(g.Discard) != 2 {
		t.Errorf("discard size = %d, want 2", len(g.Discard))
	}
	// Successful defense: former defender attacks next.
	if g.AttackerSeat != 1 || g.DefenderSeat != 2 {
		t.Errorf("attacker/defender = %d/%d, want 1/2", g.AttackerSeat, g.DefenderSeat)
	}
}

func TestReplenishDrawsInSeatOrderFromNewAttacker(t *testing.T) {
	// After b's successful defense, b draws first, then c, then a.
	// The deck holds 3 cards, so a (drawing last) comes up short.
	g := buildGame(
		[]string{"a", "b", "c"},
		map[string][]Card{
			"a": cards("6H", "8S", "9S", "9H", "9D"),
			"b": cards("7H", "10C", "JC", "QC", "KC"),
			"c": cards("JD", "QD", "KD", "AD", "JH"),
		},
		cards("2S", "2H", "2D"),
		Card{Suit: SuitClubs, Rank: RankAce},
	)

	if err := g.PlayAttack("a", cards("6H")); err != nil {
		t.Fatalf("attack: %v", err)
	}
	if err := g.PlayDefense("b", []DefensePair{{Attack: c("6H"), Defense: c("7H")}}); err != nil {
		t.Fatalf("defend: %v", err)
	}
	if err := g.EndAttack("a"); err != nil {
		t.Fatalf("give up: %v", err)
	}

	// b was at 4 cards and needed 2, leaving one for c and none for a.
	wantB := cards("10C", "JC", "QC", "KC", "2S", "2H")
	if len(g.Players["b"].Hand) != len(wantB) {
		t.Fatalf("b hand size = %d, want %d", len(g.Players["b"].Hand), len(wantB))
	}
	for i, want := range wantB {
		if g.Players["b"].Hand[i] != want {
			t.Fatalf("b card %d = %s, want %s", i, g.Players["b"].Hand[i], want)
		}
	}
	if got := g.Players["c"].Hand[len(g.Players["c"].Hand)-1]; got != c("2D") {
		t.Errorf("c's drawn card = %s, want 2D", got)
	}
	if len(g.Players["a"].Hand) != 4 {
		t.Errorf("a hand size = %d, want 4 (deck exhausted)", len(g.Players["a"].Hand))
	}
	if len(g.Deck) != 0 {
		t.Errorf("deck size = %d, want 0", len(g.Deck))
	}
}

func TestWinNamesTheDurak(t *testing.T) {
	g := buildGame(
		[]string{"a", "b"},
		map[string][]Card{
			"a": cards("6H"),
			"b": cards("8S", "6D"),
		},
		nil,
		Card{Suit: SuitClubs, Rank: RankAce},
	)

	if err := g.PlayAttack("a", cards("6H")); err != nil {
		t.Fatalf("attack: %v", err)
	}
	if err := g.Take("b"); err != nil {
		t.Fatalf("take: %v", err)
	}

	if g.Phase != PhaseEnded {
		t.Fatalf("phase = %s, want ended", g.Phase)
	}
	if g.DurakID != "b" {
		t.Errorf("durak = %q, want b", g.DurakID)
	}
	if !g.Players["a"].Out || len(g.FinishOrder) != 1 || g.FinishOrder[0] != "a" {
		t.Errorf("a should be the only finished player, got %v", g.FinishOrder)
	}

	if err := g.PlayAttack("b", cards("8S")); !errors.Is(err, ErrGameAlreadyTerminal) {
		t.Errorf("action after terminal: error = %v, want ErrGameAlreadyTerminal", err)
	}
}

func TestSimultaneousExitIsADraw(t *testing.T) {
	g := buildGame(
		[]string{"a", "b"},
		map[string][]Card{
			"a": cards("6H"),
			"b": cards("7H"),
		},
		nil,
		Card{Suit: SuitClubs, Rank: RankAce},
	)

	if err := g.PlayAttack("a", cards("6H")); err != nil {
		t.Fatalf("attack: %v", err)
	}
	if err := g.PlayDefense("b", []DefensePair{{Attack: c("6H"), Defense: c("7H")}}); err != nil {
		t.Fatalf("defend: %v", err)
	}
	if err := g.EndAttack("a"); err != nil {
		t.Fatalf("give up: %v", err)
	}

	if g.Phase != PhaseEnded {
		t.Fatalf("phase = %s, want ended", g.Phase)
	}
	if g.DurakID != "" {
		t.Errorf("durak = %q, want empty for the all-out draw", g.DurakID)
	}
	if len(g.FinishOrder) != 2 {
		t.Errorf("finish order = %v, want both players", g.FinishOrder)
	}
}

func TestRoleDerivation(t *testing.T) {
	g := buildGame(
		[]string{"a", "b", "h"},
		map[string][]Card{
			"a": cards("6H"),
			"b": cards("7H"),
			"h": cards("8H"),
		},
		nil,
		Card{Suit: SuitClubs, Rank: RankAce},
	)
	g.Players["h"].Out = false

	if role := g.RoleOf("a"); role != RoleAttacker {
		t.Errorf("a role = %s, want attacker", role)
	}
	if role := g.RoleOf("b"); role != RoleDefender {
		t.Errorf("b role = %s, want defender", role)
	}
	if role := g.RoleOf("h"); role != RoleHelper {
		t.Errorf("h role = %s, want helper", role)
	}
	g.Players["h"].Out = true
	if role := g.RoleOf("h"); role != RoleBystander {
		t.Errorf("out player role = %s, want bystander", role)
	}
	if role := g.RoleOf("stranger"); role != RoleBystander {
		t.Errorf("unknown player role = %s, want bystander", role)
	}
}

func TestConservationHoldsThroughARound(t *testing.T) {
	deck, _ := NewDeck(LowRank36)
	g, err := NewGame([]string{"a", "b", "c"}, deck, LowRank36, 6)
	if err != nil {
		t.Fatalf("NewGame error: %v", err)
	}

	attacker := g.Seats[g.AttackerSeat]
	card := g.Players[attacker].Hand[0]
	if err := g.PlayAttack(attacker, []Card{card}); err != nil {
		t.Fatalf("attack: %v", err)
	}
	if err := g.VerifyConservation(); err != nil {
		t.Fatalf("conservation after attack: %v", err)
	}

	defender := g.Seats[g.DefenderSeat]
	if err := g.Take(defender); err != nil {
		t.Fatalf("take: %v", err)
	}
	if err := g.VerifyConservation(); err != nil {
		t.Fatalf("conservation after take + replenish: %v", err)
	}
}

func TestConservationDetectsDuplicates(t *testing.T) {
	deck, _ := NewDeck(LowRank36)
	g, err := NewGame([]string{"a", "b"}, deck, LowRank36, 6)
	if err != nil {
		t.Fatalf("NewGame error: %v", err)
	}

	g.Players["a"].Hand[0] = g.Players["b"].Hand[0]
	if err := g.VerifyConservation(); !errors.Is(err, ErrCardConservation) {
		t.Errorf("error = %v, want ErrCardConservation", err)
	}
}

func TestTwoPlayerForcedTakeScenario(t *testing.T) {
	// The 24-card example: a opens with a spade; b holds neither spades
	// nor trumps, must take, and a stays attacker for the next round.
	deck := cards(
		// a's deal
		"9S", "10S", "JS", "QS", "KS", "9C",
		// b's deal: no spades, no clubs (trump)
		"9H", "10H", "JH", "QH", "KH", "AH",
		// remaining draw pile, bottom card fixes clubs as trump
		"9D", "10D", "JD", "QD", "KD", "AD",
		"10C", "JC", "QC", "KC", "AS", "AC",
	)
	g, err := NewGame([]string{"a", "b"}, deck, LowRank24, 6)
	if err != nil {
		t.Fatalf("NewGame error: %v", err)
	}
	if g.TrumpSuit() != SuitClubs {
		t.Fatalf("trump suit = %s, want C", g.TrumpSuit())
	}
	// a holds 9C, the only dealt trump.
	if g.AttackerSeat != 0 {
		t.Fatalf("attacker seat = %d, want 0", g.AttackerSeat)
	}

	if err := g.PlayAttack("a", cards("9S")); err != nil {
		t.Fatalf("attack: %v", err)
	}
	// No hearts card in b's hand beats a spade without trumps.
	for _, d := range g.Players["b"].Hand {
		err := g.PlayDefense("b", []DefensePair{{Attack: c("9S"), Defense: d}})
		if !errors.Is(err, ErrIllegalCardPlay) {
			t.Fatalf("defense with %s: error = %v, want ErrIllegalCardPlay", d, err)
		}
	}

	if err := g.Take("b"); err != nil {
		t.Fatalf("take: %v", err)
	}
	if err := holdsAll(g.Players["b"].Hand, cards("9S")); err != nil {
		t.Errorf("taken card missing from b's hand: %v", err)
	}
	if len(g.Players["a"].Hand) != 6 {
		t.Errorf("a hand size = %d, want 6 after redraw", len(g.Players["a"].Hand))
	}
	if len(g.Players["b"].Hand) != 7 {
		t.Errorf("b hand size = %d, want 7 (took one, already full)", len(g.Players["b"].Hand))
	}
	if len(g.Deck) != 11 {
		t.Errorf("deck size = %d, want 11", len(g.Deck))
	}
	// With two players, skipping the taker lands back on a.
	if g.AttackerSeat != 0 || g.DefenderSeat != 1 {
		t.Errorf("attacker/defender = %d/%d, want 0/1", g.AttackerSeat, g.DefenderSeat)
	}
	if err := g.VerifyConservation(); err != nil {
		t.Errorf("conservation: %v", err)
	}
}
