package app

import "durak/internal/domain"

// SeatInfo is the public view of one seated player.
type SeatInfo struct {
	UserID         string      `json:"user_id"`
	Seat           int         `json:"seat"`
	CardsRemaining int         `json:"cards_remaining"`
	Role           domain.Role `json:"role"`
	Out            bool        `json:"out"`
}

// PlayerView is the per-player projection of a session: the viewer's own
// hand in full, everyone else as card counts and roles, plus the public
// table, trump and deck information.
type PlayerView struct {
	Phase        domain.Phase       `json:"phase"`
	YourSeat     int                `json:"your_seat"` // -1 for spectators
	Hand         []domain.Card      `json:"hand,omitempty"`
	Players      []SeatInfo         `json:"players"`
	Table        []domain.TableSlot `json:"table"`
	TrumpSuit    string             `json:"trump_suit"`
	TrumpCard    *domain.Card       `json:"trump_card,omitempty"` // face-up card; hidden once drawn
	DeckCount    int                `json:"deck_count"`
	AttackerSeat int                `json:"attacker_seat"`
	DefenderSeat int                `json:"defender_seat"`
	FinishOrder  []string           `json:"finish_order,omitempty"`
	DurakID      string             `json:"durak_id,omitempty"`
}

// Snapshot projects the canonical game state into what viewerID may see.
// It is a pure function of the game: no per-player state is kept
// anywhere, so views cannot drift from the authoritative session.
func Snapshot(game *domain.Game, viewerID string) PlayerView {
	view := PlayerView{
		Phase:        game.Phase,
		YourSeat:     -1,
		Table:        tableCopy(game),
		TrumpSuit:    game.TrumpSuit(),
		DeckCount:    len(game.Deck),
		AttackerSeat: game.AttackerSeat,
		DefenderSeat: game.DefenderSeat,
		FinishOrder:  append([]string(nil), game.FinishOrder...),
		DurakID:      game.DurakID,
	}

	if !game.TrumpTaken {
		trump := game.TrumpCard
		view.TrumpCard = &trump
	}

	if viewer, ok := game.Players[viewerID]; ok {
		view.YourSeat = viewer.Seat
		view.Hand = sortedHand(game, viewerID)
	}

	for _, uid := range game.Seats {
		p := game.Players[uid]
		view.Players = append(view.Players, SeatInfo{
			UserID:         uid,
			Seat:           p.Seat,
			CardsRemaining: len(p.Hand),
			Role:           game.RoleOf(uid),
			Out:            p.Out,
		})
	}
	return view
}
