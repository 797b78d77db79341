package ports

import "context"

// PlayerStats is the persistent per-user record of finished games.
type PlayerStats struct {
	GamesPlayed int64 `json:"games_played"`
	Escapes     int64 `json:"escapes"`
	DurakCount  int64 `json:"durak_count"`
}

// GameResult is one player's outcome in a finished session.
type GameResult struct {
	UserID string
	// Durak marks the player left holding cards when everyone else got out.
	Durak bool
}

// StatsPort defines the interface for persisting player statistics.
type StatsPort interface {
	// InitStatsOnce creates a zeroed stats record for a new user.
	// Returns created=false when the record already exists.
	InitStatsOnce(ctx context.Context, userID string) (bool, error)

	// RecordResults applies the outcome of one finished game to every
	// listed player's record. This is used when a session reaches its
	// terminal state.
	RecordResults(ctx context.Context, results []GameResult) error

	// GetStats retrieves the current stats for a user.
	GetStats(ctx context.Context, userID string) (PlayerStats, error)
}
