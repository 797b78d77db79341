package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/heroiclabs/nakama-common/runtime"
)

// RpcPlayerStatsHandler returns the calling user's game record.
func RpcPlayerStatsHandler(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", runtime.NewError("Unauthenticated", 16) // UNAUTHENTICATED
	}

	stats, err := NewNakamaStatsAdapter(nk).GetStats(ctx, userID)
	if err != nil {
		logger.Error("RpcPlayerStats: Failed to read stats for %s: %v", userID, err)
		return "", runtime.NewError("Failed to read stats", 13) // INTERNAL
	}

	b, err := json.Marshal(stats)
	if err != nil {
		return "", runtime.NewError("Failed to encode stats", 13)
	}
	return string(b), nil
}
