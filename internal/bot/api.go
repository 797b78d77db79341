package bot

import (
	"durak/internal/domain"
)

// Action names what a bot wants to do with its current role.
type Action string

const (
	// ActionWait means the bot has nothing legal or useful to do right now.
	ActionWait      Action = "wait"
	ActionAttack    Action = "attack"
	ActionDefend    Action = "defend"
	ActionTake      Action = "take"
	ActionEndAttack Action = "end_attack"
)

// Move represents the decision made by the AI.
type Move struct {
	Action   Action
	Cards    []domain.Card       // attack cards, for ActionAttack
	Pairings []domain.DefensePair // attack/defense pairs, for ActionDefend
}

// Brain is the interface that all bot strategies must implement.
type Brain interface {
	Decide(game *domain.Game, player *domain.Player) (Move, error)
}
