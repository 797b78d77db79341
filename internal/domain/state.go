package domain

// Phase represents the lifecycle stage of a Durak session.
type Phase string

const (
	// PhaseLobby is the pre-game state where players can join.
	PhaseLobby Phase = "lobby"
	// PhasePlaying is the active game state.
	PhasePlaying Phase = "playing"
	// PhaseEnded is the terminal state after the durak is decided.
	PhaseEnded Phase = "ended"
)

// Role is a player's function in the current round. Roles are derived
// from the seat pointers on every query and never stored per player, so
// they cannot desynchronize from the rotation.
type Role string

const (
	RoleAttacker  Role = "attacker"
	RoleDefender  Role = "defender"
	RoleHelper    Role = "helper"
	RoleBystander Role = "bystander"
)

// Player holds the state for one participant.
type Player struct {
	UserID string
	Seat   int // index into Game.Seats
	Hand   []Card
	Out    bool // emptied hand with the deck exhausted; exited the rotation
}

// TableSlot is one attack card and its (possibly missing) answer.
type TableSlot struct {
	Attack  Card  `json:"attack"`
	Defense *Card `json:"defense,omitempty"`
}

// Defended reports whether the slot has been answered.
func (s TableSlot) Defended() bool {
	return s.Defense != nil
}

// Game captures the authoritative state of a single Durak session. All
// mutation goes through the action methods in game.go; each action
// either validates fully and applies, or rejects leaving the state
// untouched.
type Game struct {
	Phase Phase

	Seats   []string // userIDs in fixed seat order
	Players map[string]*Player

	Deck       []Card // draw from the front; the last card is the trump card
	TrumpCard  Card
	TrumpTaken bool // the face-up trump card has been drawn into a hand

	Table   []TableSlot
	Discard []Card // beaten cards, permanently out of play

	AttackerSeat int
	DefenderSeat int

	HandSize int
	LowRank  int // lowest rank of the configured deck (see deck.go)

	FinishOrder []string // userIDs in the order they went out
	DurakID     string   // loser; empty in the all-out tie case
}

// TrumpSuit returns the suit fixed at deal time for the whole session.
func (g *Game) TrumpSuit() string {
	return g.TrumpCard.Suit
}

// RoleOf derives the current round role for a user.
func (g *Game) RoleOf(userID string) Role {
	p, ok := g.Players[userID]
	if !ok || p.Out {
		return RoleBystander
	}
	switch p.Seat {
	case g.AttackerSeat:
		return RoleAttacker
	case g.DefenderSeat:
		return RoleDefender
	default:
		return RoleHelper
	}
}

// ActiveCount returns the number of players still holding cards.
func (g *Game) ActiveCount() int {
	n := 0
	for _, p := range g.Players {
		if !p.Out && len(p.Hand) > 0 {
			n++
		}
	}
	return n
}

func (g *Game) playerAtSeat(seat int) *Player {
	uid := g.Seats[seat]
	return g.Players[uid]
}

// nextActiveSeat walks the seat ring from the seat after `from`,
// returning the first seat whose player is still in the rotation.
// Returns -1 if nobody else holds cards.
func (g *Game) nextActiveSeat(from int) int {
	n := len(g.Seats)
	for i := 1; i <= n; i++ {
		seat := (from + i) % n
		p := g.playerAtSeat(seat)
		if p != nil && !p.Out && len(p.Hand) > 0 {
			return seat
		}
	}
	return -1
}
