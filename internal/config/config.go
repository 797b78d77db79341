package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

type GameConfig struct {
	// DeckLowRank selects the deck variant: 2 for the full 52-card deck,
	// 6 for the standard 36-card deck, 9 for the short 24-card deck.
	DeckLowRank         int `json:"deck_low_rank"`
	HandSize            int `json:"hand_size"`
	MaxPlayers          int `json:"max_players"`
	TurnDurationSeconds int `json:"turn_duration_seconds"`
	// BotAutoFillDelaySeconds configures how many seconds to wait before adding a bot to a solo human lobby.
	BotAutoFillDelaySeconds int `json:"bot_auto_fill_delay_seconds"`
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		var c GameConfig
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal game config: %w", err)
			return
		}
		cfg = &c
	})
	return loadErr
}

// GetGameConfig returns the global game configuration.
func GetGameConfig() *GameConfig {
	return cfg
}

// GetDeckLowRank returns the configured deck variant, defaulting to the
// standard 36-card deck.
func GetDeckLowRank() int {
	if cfg == nil || cfg.DeckLowRank == 0 {
		return 6
	}
	return cfg.DeckLowRank
}

// GetHandSize returns the configured replenish target, defaulting to 6.
func GetHandSize() int {
	if cfg == nil || cfg.HandSize == 0 {
		return 6
	}
	return cfg.HandSize
}

// GetMaxPlayers returns the configured table capacity, defaulting to 6.
func GetMaxPlayers() int {
	if cfg == nil || cfg.MaxPlayers == 0 {
		return 6
	}
	return cfg.MaxPlayers
}

// GetTurnDurationSeconds returns the per-turn timeout, defaulting to 30.
func GetTurnDurationSeconds() int {
	if cfg == nil || cfg.TurnDurationSeconds == 0 {
		return 30
	}
	return cfg.TurnDurationSeconds
}
