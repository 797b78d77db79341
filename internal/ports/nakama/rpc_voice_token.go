package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"durak/internal/app"

	"github.com/heroiclabs/nakama-common/runtime"
)

// voiceService is configured once from the runtime environment in InitModule.
var voiceService *app.VoiceService

// RpcGetVoiceToken signs a voice channel access token for the calling
// user. Payload: {"action": "login" | "join", "channel": "<match id>"}.
func RpcGetVoiceToken(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", runtime.NewError("Unauthenticated", 16) // UNAUTHENTICATED
	}
	if voiceService == nil {
		return "", runtime.NewError("Voice service not configured", 12) // UNIMPLEMENTED
	}

	var req struct {
		Action  string `json:"action"`
		Channel string `json:"channel"`
	}
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", runtime.NewError("Invalid payload", 3) // INVALID_ARGUMENT
	}

	token, err := voiceService.GenerateToken(userID, req.Action, req.Channel)
	if err != nil {
		logger.Warn("RpcGetVoiceToken: Failed to generate token for %s: %v", userID, err)
		return "", runtime.NewError("Failed to generate token", 3)
	}

	res := map[string]string{"token": token}
	resBytes, _ := json.Marshal(res)
	return string(resBytes), nil
}
