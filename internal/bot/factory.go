package bot

import (
	"fmt"
)

// NewAgent creates a bot agent for a provisioned identity, picking the
// strategy from the identity's configured difficulty.
func NewAgent(userID string) (*Agent, error) {
	name := userID
	difficulty := ""
	if identity, ok := GetBotConfig(userID); ok {
		name = identity.DisplayName
		difficulty = identity.Difficulty
	}

	brain, err := NewBrain(difficulty)
	if err != nil {
		return nil, err
	}
	return &Agent{ID: userID, Name: name, Strategy: brain}, nil
}

// NewBrain creates a new AI brain based on the specified difficulty.
func NewBrain(difficulty string) (Brain, error) {
	switch difficulty {
	case "", "easy":
		return &BasicBot{}, nil
	case "medium", "hard":
		return &CarefulBot{}, nil
	default:
		return nil, fmt.Errorf("unknown bot difficulty: %s", difficulty)
	}
}
