package domain

import "fmt"

// MaxPlayers bounds a session by the smallest supported deck: six
// players at six cards each plus the trump card still fits in 52, and
// smaller decks reject oversized sessions in NewGame.
const MaxPlayers = 6

// DefensePair maps one attack card on the table to the card answering it.
type DefensePair struct {
	Attack  Card
	Defense Card
}

// NewGame deals a fresh session over a pre-shuffled deck. Seats are the
// fixed seating order; the bottom deck card fixes the trump suit before
// any card is dealt, and the first attacker is whoever holds the lowest
// trump.
func NewGame(seats []string, deck []Card, lowRank, handSize int) (*Game, error) {
	if len(seats) < 2 || len(seats) > MaxPlayers {
		return nil, fmt.Errorf("%w: got %d, want 2..%d", ErrInvalidPlayerCount, len(seats), MaxPlayers)
	}
	if len(seats)*handSize+1 > len(deck) {
		return nil, fmt.Errorf("%w: %d players do not fit a %d-card deck", ErrInvalidPlayerCount, len(seats), len(deck))
	}

	g := &Game{
		Phase:    PhasePlaying,
		Seats:    append([]string(nil), seats...),
		Players:  make(map[string]*Player, len(seats)),
		Deck:     append([]Card(nil), deck...),
		HandSize: handSize,
		LowRank:  lowRank,
		DurakID:  "",
	}
	g.TrumpCard = g.Deck[len(g.Deck)-1]

	for seat, uid := range g.Seats {
		g.Players[uid] = &Player{UserID: uid, Seat: seat}
	}
	for _, uid := range g.Seats {
		p := g.Players[uid]
		p.Hand = g.Draw(handSize)
	}

	g.AttackerSeat = g.firstAttackerSeat()
	g.DefenderSeat = g.nextActiveSeat(g.AttackerSeat)
	return g, nil
}

// firstAttackerSeat finds the holder of the lowest trump card. If no
// dealt hand holds a trump (possible after the trump suit was fixed but
// all dealt trumps sit in the deck), the first seat opens.
func (g *Game) firstAttackerSeat() int {
	seat := 0
	lowest := 0
	found := false
	for s := range g.Seats {
		for _, c := range g.playerAtSeat(s).Hand {
			if !c.IsTrump(g.TrumpSuit()) {
				continue
			}
			if !found || c.Rank < lowest {
				found = true
				lowest = c.Rank
				seat = s
			}
		}
	}
	return seat
}

// PlayAttack puts cards from the actor's hand onto the table as new
// attack slots. The opening play belongs to the attacker and may be any
// rank (all cards of one batch must share it); afterwards the attacker
// and helpers may add cards whose rank already appears on the table.
// The table may never hold more attack cards than the defender holds in
// hand. Rejections leave the state untouched.
func (g *Game) PlayAttack(userID string, cards []Card) error {
	if err := g.checkActionable(userID); err != nil {
		return err
	}
	role := g.RoleOf(userID)
	if role == RoleDefender || role == RoleBystander {
		return fmt.Errorf("%w: %s cannot attack", ErrWrongRole, role)
	}
	if len(cards) == 0 {
		return fmt.Errorf("%w: no cards given", ErrIllegalCardPlay)
	}
	if len(g.Table) == 0 && role != RoleAttacker {
		return fmt.Errorf("%w: only the attacker opens a round", ErrNotYourTurn)
	}

	actor := g.Players[userID]
	if err := holdsAll(actor.Hand, cards); err != nil {
		return err
	}

	if len(g.Table) == 0 {
		for _, c := range cards[1:] {
			if c.Rank != cards[0].Rank {
				return fmt.Errorf("%w: opening cards must share one rank", ErrIllegalCardPlay)
			}
		}
	} else {
		ranks := g.tableRanks()
		for _, c := range cards {
			if !ranks[c.Rank] {
				return fmt.Errorf("%w: rank %d not on the table", ErrIllegalCardPlay, c.Rank)
			}
		}
	}

	defender := g.playerAtSeat(g.DefenderSeat)
	if len(g.Table)+len(cards) > len(defender.Hand) {
		return fmt.Errorf("%w: defender holds only %d cards", ErrIllegalCardPlay, len(defender.Hand))
	}

	actor.Hand = RemoveCards(actor.Hand, cards)
	for _, c := range cards {
		g.Table = append(g.Table, TableSlot{Attack: c})
	}
	return nil
}

// PlayDefense answers undefended table slots with cards from the
// defender's hand. Every pairing must name an undefended attack card and
// beat it under the trump rules; the whole batch is validated before any
// card moves, so a rejected defense mutates nothing.
func (g *Game) PlayDefense(userID string, pairings []DefensePair) error {
	if err := g.checkActionable(userID); err != nil {
		return err
	}
	if g.RoleOf(userID) != RoleDefender {
		return fmt.Errorf("%w: only the defender defends", ErrWrongRole)
	}
	if len(pairings) == 0 {
		return fmt.Errorf("%w: no pairings given", ErrIllegalCardPlay)
	}
	if len(g.Table) == 0 {
		return fmt.Errorf("%w: nothing to defend against", ErrIllegalCardPlay)
	}

	defender := g.Players[userID]
	used := make([]Card, 0, len(pairings))
	for _, pr := range pairings {
		used = append(used, pr.Defense)
	}
	if err := holdsAll(defender.Hand, used); err != nil {
		return err
	}

	// Resolve every pairing to a distinct undefended slot first.
	slots := make([]int, len(pairings))
	claimed := make(map[int]bool, len(pairings))
	for i, pr := range pairings {
		idx := -1
		for s, slot := range g.Table {
			if slot.Attack == pr.Attack && !slot.Defended() && !claimed[s] {
				idx = s
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: %s is not an open attack", ErrIllegalCardPlay, pr.Attack)
		}
		if !pr.Defense.Beats(pr.Attack, g.TrumpSuit()) {
			return fmt.Errorf("%w: %s does not beat %s", ErrIllegalCardPlay, pr.Defense, pr.Attack)
		}
		claimed[idx] = true
		slots[i] = idx
	}

	defender.Hand = RemoveCards(defender.Hand, used)
	for i, pr := range pairings {
		d := pr.Defense
		g.Table[slots[i]].Defense = &d
	}
	return nil
}

// Take ends the round with the defender accepting every card on the
// table into hand. It is rejected when the table is empty or already
// fully defended (a defender who beat everything cannot back out).
func (g *Game) Take(userID string) error {
	if err := g.checkActionable(userID); err != nil {
		return err
	}
	if g.RoleOf(userID) != RoleDefender {
		return fmt.Errorf("%w: only the defender takes", ErrWrongRole)
	}
	if len(g.Table) == 0 {
		return fmt.Errorf("%w: nothing on the table", ErrIllegalTake)
	}
	if g.undefendedCount() == 0 {
		return fmt.Errorf("%w: every attack is already beaten", ErrIllegalTake)
	}

	defender := g.Players[userID]
	for _, slot := range g.Table {
		defender.Hand = append(defender.Hand, slot.Attack)
		if slot.Defense != nil {
			defender.Hand = append(defender.Hand, *slot.Defense)
		}
	}
	g.Table = nil
	g.resolveRound(true)
	return nil
}

// EndAttack is the attacker's give-up signal closing the round. It is
// only legal once every table slot is defended; the table cards leave
// play for good.
func (g *Game) EndAttack(userID string) error {
	if err := g.checkActionable(userID); err != nil {
		return err
	}
	if g.RoleOf(userID) != RoleAttacker {
		return fmt.Errorf("%w: only the attacker closes the round", ErrWrongRole)
	}
	if len(g.Table) == 0 {
		return fmt.Errorf("%w: play at least one card first", ErrIllegalGiveUp)
	}
	if n := g.undefendedCount(); n > 0 {
		return fmt.Errorf("%w: %d attacks still undefended", ErrIllegalGiveUp, n)
	}

	for _, slot := range g.Table {
		g.Discard = append(g.Discard, slot.Attack, *slot.Defense)
	}
	g.Table = nil
	g.resolveRound(false)
	return nil
}

// resolveRound rotates roles, replenishes hands and runs the win check.
// taken reports whether the defender took the table (which costs them
// their next attack: the seat after them opens instead).
func (g *Game) resolveRound(taken bool) {
	if taken {
		g.AttackerSeat = g.nextSeatIn(g.DefenderSeat)
	} else {
		g.AttackerSeat = g.DefenderSeat
	}

	g.replenish(g.AttackerSeat)

	for _, uid := range g.Seats {
		p := g.Players[uid]
		if !p.Out && len(p.Hand) == 0 {
			p.Out = true
			g.FinishOrder = append(g.FinishOrder, uid)
		}
	}

	if g.ActiveCount() <= 1 {
		g.Phase = PhaseEnded
		for _, p := range g.Players {
			if !p.Out && len(p.Hand) > 0 {
				g.DurakID = p.UserID
			}
		}
		return
	}

	if g.playerAtSeat(g.AttackerSeat).Out {
		g.AttackerSeat = g.nextActiveSeat(g.AttackerSeat)
	}
	g.DefenderSeat = g.nextActiveSeat(g.AttackerSeat)
}

// replenish draws every remaining player back up to the hand size, in
// seat order starting with the new attacker. Short draws mean the deck
// ran dry; players over the hand size draw nothing.
func (g *Game) replenish(fromSeat int) {
	n := len(g.Seats)
	for i := 0; i < n; i++ {
		p := g.playerAtSeat((fromSeat + i) % n)
		if p == nil || p.Out {
			continue
		}
		if need := g.HandSize - len(p.Hand); need > 0 {
			p.Hand = append(p.Hand, g.Draw(need)...)
		}
	}
}

// nextSeatIn walks the ring to the next seat still in the rotation,
// ignoring current hand sizes (a temporarily empty hand may refill).
func (g *Game) nextSeatIn(from int) int {
	n := len(g.Seats)
	for i := 1; i <= n; i++ {
		seat := (from + i) % n
		if p := g.playerAtSeat(seat); p != nil && !p.Out {
			return seat
		}
	}
	return from
}

func (g *Game) checkActionable(userID string) error {
	if g.Phase == PhaseEnded {
		return ErrGameAlreadyTerminal
	}
	p, ok := g.Players[userID]
	if !ok {
		return fmt.Errorf("%w: unknown player %s", ErrWrongRole, userID)
	}
	if p.Out {
		return fmt.Errorf("%w: player already out", ErrWrongRole)
	}
	return nil
}

func (g *Game) undefendedCount() int {
	n := 0
	for _, slot := range g.Table {
		if !slot.Defended() {
			n++
		}
	}
	return n
}

func (g *Game) tableRanks() map[int]bool {
	ranks := make(map[int]bool, len(g.Table)*2)
	for _, slot := range g.Table {
		ranks[slot.Attack.Rank] = true
		if slot.Defense != nil {
			ranks[slot.Defense.Rank] = true
		}
	}
	return ranks
}

// VerifyConservation checks that the deck, all hands, the table and the
// discard pile together hold the original card set exactly once. A
// failure means the session state is corrupt and must be aborted.
func (g *Game) VerifyConservation() error {
	want, err := NewDeck(g.LowRank)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCardConservation, err)
	}

	seen := make(map[Card]int, len(want))
	count := func(cards []Card) {
		for _, c := range cards {
			seen[c]++
		}
	}
	count(g.Deck)
	count(g.Discard)
	for _, p := range g.Players {
		count(p.Hand)
	}
	for _, slot := range g.Table {
		seen[slot.Attack]++
		if slot.Defense != nil {
			seen[*slot.Defense]++
		}
	}

	if len(seen) != len(want) {
		return fmt.Errorf("%w: %d distinct cards in play, want %d", ErrCardConservation, len(seen), len(want))
	}
	for _, c := range want {
		if seen[c] != 1 {
			return fmt.Errorf("%w: card %s appears %d times", ErrCardConservation, c, seen[c])
		}
	}
	return nil
}
