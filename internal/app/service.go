package app

import (
	"fmt"
	"math/rand"
	"time"

	"durak/internal/domain"
)

// Service contains the Durak use-cases operating on domain state. It
// translates wire-level card ids into domain cards, applies one action
// at a time and reports what happened as events; callers (the match
// handler, bots, tests) never touch the game state directly.
type Service struct {
	rng *rand.Rand
}

// NewService constructs a Service with the provided rng or a time-seeded
// default. Tests inject a seeded rng for deterministic deals.
func NewService(rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{rng: rng}
}

// StartGame shuffles a fresh deck, deals every seat and reports the
// opening state. seatIDs is the fixed seating order.
func (s *Service) StartGame(seatIDs []string, lowRank, handSize int) (*domain.Game, []Event, error) {
	deck, err := domain.NewDeck(lowRank)
	if err != nil {
		return nil, nil, err
	}
	s.rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })

	game, err := domain.NewGame(seatIDs, deck, lowRank, handSize)
	if err != nil {
		return nil, nil, err
	}

	events := make([]Event, 0, len(seatIDs)+1)
	for _, uid := range game.Seats {
		events = append(events, Event{
			Kind:       EventHandDealt,
			Payload:    HandDealtPayload{UserID: uid, Hand: sortedHand(game, uid)},
			Recipients: []string{uid},
		})
	}
	events = append(events, Event{
		Kind: EventGameStarted,
		Payload: GameStartedPayload{
			TrumpCard:    game.TrumpCard,
			DeckCount:    len(game.Deck),
			AttackerSeat: game.AttackerSeat,
			DefenderSeat: game.DefenderSeat,
			Seats:        game.Seats,
		},
	})
	return game, events, nil
}

// Attack plays the named cards from the actor's hand as attack slots.
func (s *Service) Attack(game *domain.Game, userID string, cardIDs []string) ([]Event, error) {
	cards, err := parseCards(cardIDs)
	if err != nil {
		return nil, err
	}
	if err := game.PlayAttack(userID, cards); err != nil {
		return nil, err
	}
	if err := game.VerifyConservation(); err != nil {
		return nil, err
	}

	events := []Event{{
		Kind: EventAttacked,
		Payload: AttackedPayload{
			UserID: userID,
			Seat:   game.Players[userID].Seat,
			Cards:  cards,
			Table:  tableCopy(game),
		},
	}}
	return events, nil
}

// Defend answers attack cards with cards from the defender's hand.
// pairings maps attack card id to the defending card id.
func (s *Service) Defend(game *domain.Game, userID string, pairings map[string]string) ([]Event, error) {
	if len(pairings) == 0 {
		return nil, fmt.Errorf("%w: no pairings given", domain.ErrIllegalCardPlay)
	}
	pairs := make([]domain.DefensePair, 0, len(pairings))
	for attackID, defenseID := range pairings {
		attack, err := domain.ParseCard(attackID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUnknownCard, err)
		}
		defense, err := domain.ParseCard(defenseID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUnknownCard, err)
		}
		pairs = append(pairs, domain.DefensePair{Attack: attack, Defense: defense})
	}

	if err := game.PlayDefense(userID, pairs); err != nil {
		return nil, err
	}
	if err := game.VerifyConservation(); err != nil {
		return nil, err
	}

	events := []Event{{
		Kind: EventDefended,
		Payload: DefendedPayload{
			UserID: userID,
			Seat:   game.Players[userID].Seat,
			Table:  tableCopy(game),
		},
	}}
	return events, nil
}

// Take ends the round with the defender accepting the table.
func (s *Service) Take(game *domain.Game, userID string) ([]Event, error) {
	outBefore := len(game.FinishOrder)
	if err := game.Take(userID); err != nil {
		return nil, err
	}
	if err := game.VerifyConservation(); err != nil {
		return nil, err
	}
	return s.roundClosedEvents(game, true, outBefore), nil
}

// EndAttack is the attacker's give-up signal discarding a fully
// defended table.
func (s *Service) EndAttack(game *domain.Game, userID string) ([]Event, error) {
	outBefore := len(game.FinishOrder)
	if err := game.EndAttack(userID); err != nil {
		return nil, err
	}
	if err := game.VerifyConservation(); err != nil {
		return nil, err
	}
	return s.roundClosedEvents(game, false, outBefore), nil
}

// roundClosedEvents reports the rotation, refreshed hands, newly
// finished players and, when the session is decided, the terminal event.
func (s *Service) roundClosedEvents(game *domain.Game, taken bool, outBefore int) []Event {
	events := []Event{{
		Kind: EventRoundClosed,
		Payload: RoundClosedPayload{
			Taken:        taken,
			AttackerSeat: game.AttackerSeat,
			DefenderSeat: game.DefenderSeat,
			DeckCount:    len(game.Deck),
			TrumpTaken:   game.TrumpTaken,
		},
	}}

	for _, uid := range game.Seats {
		p := game.Players[uid]
		if p.Out && len(p.Hand) == 0 {
			continue
		}
		events = append(events, Event{
			Kind:       EventHandUpdated,
			Payload:    HandUpdatedPayload{UserID: uid, Hand: sortedHand(game, uid)},
			Recipients: []string{uid},
		})
	}

	for _, uid := range game.FinishOrder[outBefore:] {
		events = append(events, Event{
			Kind:    EventPlayerOut,
			Payload: PlayerOutPayload{UserID: uid},
		})
	}

	if game.Phase == domain.PhaseEnded {
		events = append(events, Event{
			Kind: EventGameEnded,
			Payload: GameEndedPayload{
				DurakID:     game.DurakID,
				FinishOrder: append([]string(nil), game.FinishOrder...),
			},
		})
	}
	return events
}

func parseCards(ids []string) ([]domain.Card, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no cards given", domain.ErrIllegalCardPlay)
	}
	cards := make([]domain.Card, len(ids))
	for i, id := range ids {
		c, err := domain.ParseCard(id)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUnknownCard, err)
		}
		cards[i] = c
	}
	return cards, nil
}

func sortedHand(game *domain.Game, userID string) []domain.Card {
	hand := append([]domain.Card(nil), game.Players[userID].Hand...)
	domain.SortHand(hand, game.TrumpSuit())
	return hand
}

func tableCopy(game *domain.Game) []domain.TableSlot {
	return append([]domain.TableSlot(nil), game.Table...)
}
