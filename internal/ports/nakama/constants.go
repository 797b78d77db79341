package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a lobby-capable match.
	RpcQuickMatch = "quick_match"

	// RpcVoiceToken is the Nakama RPC id clients call to sign voice channel tokens.
	RpcVoiceToken = "voice_token"

	// RpcPlayerStats is the Nakama RPC id clients call to read their game record.
	RpcPlayerStats = "player_stats"

	// MatchNameDurak is the authoritative match handler name registered with Nakama.
	MatchNameDurak = "durak_match"
)

// Op codes for client messages and server events. Payloads are JSON.
const (
	// Client -> Server
	OpStartGame int64 = 1
	OpAttack    int64 = 2
	OpDefend    int64 = 3
	OpTake      int64 = 4
	OpEndAttack int64 = 5

	// Server -> Client events
	OpMatchState  int64 = 101
	OpGameStarted int64 = 103
	OpHandDealt   int64 = 104 // send privately
	OpAttacked    int64 = 105
	OpDefended    int64 = 106
	OpRoundClosed int64 = 107
	OpHandUpdated int64 = 108 // send privately
	OpPlayerOut   int64 = 109
	OpGameEnded   int64 = 110
	OpGameError   int64 = 111 // send privately
)
