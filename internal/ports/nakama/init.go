package nakama

import (
	"context"
	"database/sql"

	"durak/internal/app"
	"durak/internal/bot"

	"github.com/heroiclabs/nakama-common/runtime"
)

// InitModule wires RPCs, hooks and the match handler for the Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	if err := initializer.RegisterRpc(RpcQuickMatch, rpcQuickMatch); err != nil {
		return err
	}
	if err := initializer.RegisterRpc(RpcVoiceToken, RpcGetVoiceToken); err != nil {
		return err
	}
	if err := initializer.RegisterRpc(RpcPlayerStats, RpcPlayerStatsHandler); err != nil {
		return err
	}

	if err := initializer.RegisterAfterAuthenticateDevice(AfterAuthenticateDevice); err != nil {
		return err
	}

	if err := initializer.RegisterMatch(MatchNameDurak, NewMatch); err != nil {
		return err
	}

	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	if env["voice_secret"] != "" && env["voice_issuer"] != "" && env["voice_domain"] != "" {
		voiceService = app.NewVoiceService(env["voice_secret"], env["voice_issuer"], env["voice_domain"])
	} else {
		logger.Warn("InitModule: Voice credentials missing from env, voice token RPC disabled.")
	}

	if err := bot.LoadIdentities("data/bot_identities.json"); err != nil {
		logger.Warn("InitModule: Could not load bot identities: %v", err)
	} else if err := bot.ProvisionBots(ctx, nk, logger); err != nil {
		logger.Warn("InitModule: Could not provision bots: %v", err)
	}

	logger.Info("Durak Go module loaded.")
	return nil
}
