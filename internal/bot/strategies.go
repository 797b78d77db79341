package bot

import (
	"sort"

	"durak/internal/domain"
)

// BasicBot plays the cheapest legal card for its role and takes whenever
// it cannot cover the whole table.
type BasicBot struct{}

func (b *BasicBot) Decide(game *domain.Game, player *domain.Player) (Move, error) {
	return decide(game, player, false)
}

// CarefulBot plays like BasicBot but hoards trumps while the deck lasts:
// it neither opens nor piles on with a trump unless the hand holds
// nothing else.
type CarefulBot struct{}

func (b *CarefulBot) Decide(game *domain.Game, player *domain.Player) (Move, error) {
	return decide(game, player, len(game.Deck) > 0)
}

func decide(game *domain.Game, player *domain.Player, hoardTrumps bool) (Move, error) {
	if game.Phase != domain.PhasePlaying || len(player.Hand) == 0 {
		return Move{Action: ActionWait}, nil
	}

	trump := game.TrumpSuit()
	hand := append([]domain.Card(nil), player.Hand...)
	domain.SortHand(hand, trump)

	switch game.RoleOf(player.UserID) {
	case domain.RoleDefender:
		return decideDefense(game, hand, trump), nil
	case domain.RoleAttacker:
		return decideAttack(game, hand, trump, hoardTrumps, true), nil
	case domain.RoleHelper:
		return decideAttack(game, hand, trump, hoardTrumps, false), nil
	default:
		return Move{Action: ActionWait}, nil
	}
}

func decideDefense(game *domain.Game, hand []domain.Card, trump string) Move {
	undefended := make([]domain.Card, 0, len(game.Table))
	for _, slot := range game.Table {
		if !slot.Defended() {
			undefended = append(undefended, slot.Attack)
		}
	}
	if len(undefended) == 0 {
		return Move{Action: ActionWait}
	}

	// Cover the strongest attacks first so the cheap beaters are not
	// wasted on weak cards.
	sort.Slice(undefended, func(i, j int) bool {
		return domain.CardPower(undefended[i], trump) > domain.CardPower(undefended[j], trump)
	})

	used := make(map[domain.Card]bool, len(hand))
	pairings := make([]domain.DefensePair, 0, len(undefended))
	for _, attack := range undefended {
		covered := false
		for _, c := range hand {
			if used[c] || !c.Beats(attack, trump) {
				continue
			}
			used[c] = true
			pairings = append(pairings, domain.DefensePair{Attack: attack, Defense: c})
			covered = true
			break
		}
		if !covered {
			return Move{Action: ActionTake}
		}
	}
	return Move{Action: ActionDefend, Pairings: pairings}
}

func decideAttack(game *domain.Game, hand []domain.Card, trump string, hoardTrumps, isAttacker bool) Move {
	defender := game.Players[game.Seats[game.DefenderSeat]]

	if len(game.Table) == 0 {
		if !isAttacker {
			// Helpers may only pile on, never open.
			return Move{Action: ActionWait}
		}
		opening := hand[0]
		if hoardTrumps && opening.IsTrump(trump) {
			for _, c := range hand {
				if !c.IsTrump(trump) {
					opening = c
					break
				}
			}
		}
		cards := []domain.Card{opening}
		for _, c := range hand {
			if c != opening && c.Rank == opening.Rank && !c.IsTrump(trump) && len(cards) < len(defender.Hand) {
				cards = append(cards, c)
			}
		}
		return Move{Action: ActionAttack, Cards: cards}
	}

	if undefendedCount(game) > 0 {
		// The defender still has work to do.
		return Move{Action: ActionWait}
	}

	// Table fully covered: pile on a matching card or close the round.
	if len(game.Table) < len(defender.Hand) {
		ranks := tableRanks(game)
		for _, c := range hand {
			if !ranks[c.Rank] {
				continue
			}
			if hoardTrumps && c.IsTrump(trump) {
				continue
			}
			return Move{Action: ActionAttack, Cards: []domain.Card{c}}
		}
	}
	if isAttacker {
		return Move{Action: ActionEndAttack}
	}
	return Move{Action: ActionWait}
}

func undefendedCount(game *domain.Game) int {
	count := 0
	for _, slot := range game.Table {
		if !slot.Defended() {
			count++
		}
	}
	return count
}

func tableRanks(game *domain.Game) map[int]bool {
	ranks := make(map[int]bool, len(game.Table)*2)
	for _, slot := range game.Table {
		ranks[slot.Attack.Rank] = true
		if slot.Defense != nil {
			ranks[slot.Defense.Rank] = true
		}
	}
	return ranks
}
