package app

import "durak/internal/domain"

// EventKind identifies emitted game events for adapter dispatch.
type EventKind string

const (
	EventGameStarted EventKind = "game_started"
	EventHandDealt   EventKind = "hand_dealt"
	EventAttacked    EventKind = "attacked"
	EventDefended    EventKind = "defended"
	EventRoundClosed EventKind = "round_closed"
	EventHandUpdated EventKind = "hand_updated"
	EventPlayerOut   EventKind = "player_out"
	EventGameEnded   EventKind = "game_ended"
)

// Event is a game event with optional targeted recipients. Events
// without recipients are public; hand payloads always name exactly one
// recipient so the adapter can never leak hidden cards.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

type GameStartedPayload struct {
	TrumpCard    domain.Card `json:"trump_card"`
	DeckCount    int         `json:"deck_count"`
	AttackerSeat int         `json:"attacker_seat"`
	DefenderSeat int         `json:"defender_seat"`
	Seats        []string    `json:"seats"`
}

type HandDealtPayload struct {
	UserID string        `json:"user_id"`
	Hand   []domain.Card `json:"hand"`
}

type AttackedPayload struct {
	UserID string             `json:"user_id"`
	Seat   int                `json:"seat"`
	Cards  []domain.Card      `json:"cards"`
	Table  []domain.TableSlot `json:"table"`
}

type DefendedPayload struct {
	UserID string             `json:"user_id"`
	Seat   int                `json:"seat"`
	Table  []domain.TableSlot `json:"table"`
}

// RoundClosedPayload announces the rotation after a take or give-up.
type RoundClosedPayload struct {
	Taken        bool `json:"taken"` // defender took the table
	AttackerSeat int  `json:"attacker_seat"`
	DefenderSeat int  `json:"defender_seat"`
	DeckCount    int  `json:"deck_count"`
	TrumpTaken   bool `json:"trump_taken"` // face-up trump card has left the deck
}

// HandUpdatedPayload re-sends a player's full hand after replenishment.
type HandUpdatedPayload struct {
	UserID string        `json:"user_id"`
	Hand   []domain.Card `json:"hand"`
}

type PlayerOutPayload struct {
	UserID string `json:"user_id"`
}

type GameEndedPayload struct {
	DurakID     string   `json:"durak_id"` // empty when everyone went out together
	FinishOrder []string `json:"finish_order"`
}
