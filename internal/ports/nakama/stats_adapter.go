package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"durak/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	statsCollection = "stats"
	statsKey        = "durak_v1"
)

// NakamaStatsAdapter implements ports.StatsPort on Nakama's storage engine.
type NakamaStatsAdapter struct {
	nk runtime.NakamaModule
}

// NewNakamaStatsAdapter creates a new stats adapter.
func NewNakamaStatsAdapter(nk runtime.NakamaModule) *NakamaStatsAdapter {
	return &NakamaStatsAdapter{nk: nk}
}

// InitStatsOnce writes a zeroed stats record with a create-only version,
// so repeated onboarding of the same user is a no-op.
func (a *NakamaStatsAdapter) InitStatsOnce(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, fmt.Errorf("userID is required")
	}

	value, err := json.Marshal(ports.PlayerStats{})
	if err != nil {
		return false, fmt.Errorf("failed to marshal stats record: %w", err)
	}

	writes := []*runtime.StorageWrite{
		{
			Collection:      statsCollection,
			Key:             statsKey,
			UserID:          userID,
			Value:           string(value),
			Version:         "*",
			PermissionRead:  runtime.STORAGE_PERMISSION_OWNER_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		},
	}

	if _, err := a.nk.StorageWrite(ctx, writes); err != nil {
		if errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return false, nil
		}
		return false, fmt.Errorf("failed to init stats: %w", err)
	}
	return true, nil
}

// RecordResults applies one finished game to every listed player's record.
func (a *NakamaStatsAdapter) RecordResults(ctx context.Context, results []ports.GameResult) error {
	for _, result := range results {
		stats, version, err := a.readStats(ctx, result.UserID)
		if err != nil {
			return err
		}

		stats.GamesPlayed++
		if result.Durak {
			stats.DurakCount++
		} else {
			stats.Escapes++
		}

		value, err := json.Marshal(stats)
		if err != nil {
			return fmt.Errorf("failed to marshal stats record: %w", err)
		}

		writes := []*runtime.StorageWrite{
			{
				Collection:      statsCollection,
				Key:             statsKey,
				UserID:          result.UserID,
				Value:           string(value),
				Version:         version,
				PermissionRead:  runtime.STORAGE_PERMISSION_OWNER_READ,
				PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
			},
		}
		if _, err := a.nk.StorageWrite(ctx, writes); err != nil {
			return fmt.Errorf("failed to record result for user %s: %w", result.UserID, err)
		}
	}
	return nil
}

// GetStats retrieves the current stats for a user. A missing record reads
// as all zeroes.
func (a *NakamaStatsAdapter) GetStats(ctx context.Context, userID string) (ports.PlayerStats, error) {
	stats, _, err := a.readStats(ctx, userID)
	return stats, err
}

func (a *NakamaStatsAdapter) readStats(ctx context.Context, userID string) (ports.PlayerStats, string, error) {
	reads := []*runtime.StorageRead{
		{
			Collection: statsCollection,
			Key:        statsKey,
			UserID:     userID,
		},
	}

	objects, err := a.nk.StorageRead(ctx, reads)
	if err != nil {
		return ports.PlayerStats{}, "", fmt.Errorf("failed to read stats for user %s: %w", userID, err)
	}
	if len(objects) == 0 {
		return ports.PlayerStats{}, "", nil
	}

	var stats ports.PlayerStats
	if err := json.Unmarshal([]byte(objects[0].Value), &stats); err != nil {
		return ports.PlayerStats{}, "", fmt.Errorf("failed to unmarshal stats for user %s: %w", userID, err)
	}
	return stats, objects[0].Version, nil
}

var _ ports.StatsPort = (*NakamaStatsAdapter)(nil)
