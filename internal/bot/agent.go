package bot

import (
	"durak/internal/domain"
)

// Agent represents an autonomous bot player.
type Agent struct {
	ID       string
	Name     string
	Strategy Brain
}

// Act asks the agent to pick its next move for the current game state.
func (a *Agent) Act(game *domain.Game) (Move, error) {
	player, ok := game.Players[a.ID]
	if !ok || player.Out {
		// Agent is not part of this game or already finished.
		return Move{Action: ActionWait}, nil
	}

	move, err := a.Strategy.Decide(game, player)
	if err != nil {
		return Move{Action: ActionWait}, err
	}
	return move, nil
}
