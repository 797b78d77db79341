package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math/rand"
	"strconv"
	"time"

	"durak/internal/app"
	"durak/internal/bot"
	"durak/internal/config"
	"durak/internal/domain"
	"durak/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// Number of players a solo lobby is filled up to when bots are enabled.
const botAutoFillTarget = 3

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	Seats     []string                    `json:"seats"`      // User IDs in seat order, empty string means the seat is free
	OwnerSeat int                         `json:"owner_seat"` // Seat index of the match owner
	Tick      int64                       `json:"tick"`
	Presences map[string]runtime.Presence `json:"-"` // Map UserId -> Presence for targeted messaging
	App       *app.Service                `json:"-"` // Durak app service with game logic
	Game      *domain.Game                `json:"-"` // Current active game state (nil if in lobby)

	DeckLowRank int `json:"deck_low_rank"`
	HandSize    int `json:"hand_size"`

	TurnDurationTicks int64 `json:"turn_duration_ticks"`
	TurnDeadline      int64 `json:"turn_deadline"` // Tick when the blocking player is played for

	BotsEnabled          bool                  `json:"bots_enabled"`
	BotMinDelay          int                   `json:"bot_min_delay"`
	BotMaxDelay          int                   `json:"bot_max_delay"`
	BotAutoFillDelay     int                   `json:"bot_auto_fill_delay"`
	BotWaitUntil         int64                 `json:"bot_wait_until"`
	LastSinglePlayerTick int64                 `json:"last_single_player_tick"`
	Bots                 map[string]*bot.Agent `json:"-"`

	Stats ports.StatsPort `json:"-"`
}

func (ms *MatchState) GetOpenSeatsCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat == "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) GetOccupiedSeatCount() int {
	return len(ms.Seats) - ms.GetOpenSeatsCount()
}

func (ms *MatchState) GetHumanPlayerCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat != "" && !isBotUserId(seat) {
			count++
		}
	}
	return count
}

// isBotUserId reports whether the given user id represents a bot seat.
func isBotUserId(userId string) bool {
	return bot.IsBot(userId)
}

// isHumanSeat reports whether the seat index belongs to a human player.
func isHumanSeat(seats []string, seatIndex int) bool {
	if seatIndex < 0 || seatIndex >= len(seats) {
		return false
	}
	userId := seats[seatIndex]
	return userId != "" && !isBotUserId(userId)
}

// findFirstHumanSeat returns the first seat index with a human occupant or -1 if none exist.
func findFirstHumanSeat(seats []string) int {
	for i, userId := range seats {
		if userId != "" && !isBotUserId(userId) {
			return i
		}
	}
	return -1
}

// shouldTerminateNoHumans returns true when there are no humans in the match.
func shouldTerminateNoHumans(seats []string) bool {
	return findFirstHumanSeat(seats) == -1
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return &matchHandler{}, nil
}

type matchHandler struct{}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	if err := bot.LoadIdentities("data/bot_identities.json"); err != nil {
		logger.Warn("MatchInit: Could not load bot identities: %v", err)
	}
	if err := config.LoadGameConfig("data/game_config.json"); err != nil {
		logger.Warn("MatchInit: Could not load game config: %v", err)
	}

	state := &MatchState{
		Seats:             make([]string, config.GetMaxPlayers()),
		OwnerSeat:         -1,
		Tick:              time.Now().Unix(),
		Presences:         make(map[string]runtime.Presence),
		App:               app.NewService(nil),
		DeckLowRank:       config.GetDeckLowRank(),
		HandSize:          config.GetHandSize(),
		TurnDurationTicks: int64(config.GetTurnDurationSeconds()),
		Bots:              make(map[string]*bot.Agent),
		Stats:             NewNakamaStatsAdapter(nk),
	}

	// Environment overrides for bot behaviour.
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	if val, ok := env["durak_bots_enabled"]; ok {
		state.BotsEnabled = val == "true"
	}
	if val, ok := env["durak_bot_min_delay_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil {
			state.BotMinDelay = i
		}
	}
	if val, ok := env["durak_bot_max_delay_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil {
			state.BotMaxDelay = i
		}
	}
	if val, ok := env["durak_bot_auto_fill_delay_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil {
			state.BotAutoFillDelay = i
		}
	}

	if state.BotMinDelay == 0 {
		state.BotMinDelay = 1
	}
	if state.BotMaxDelay == 0 {
		state.BotMaxDelay = 3
	}
	if state.BotAutoFillDelay == 0 {
		if cfg := config.GetGameConfig(); cfg != nil && cfg.BotAutoFillDelaySeconds > 0 {
			state.BotAutoFillDelay = cfg.BotAutoFillDelaySeconds
		} else {
			state.BotAutoFillDelay = 5
		}
	}

	labelBytes, err := json.Marshal(domain.ComputeLabel(domain.PhaseLobby, 0, len(state.Seats)))
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	tickRate := 1
	return state, tickRate, string(labelBytes)
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	// Allow join if there is an empty seat OR a bot to replace (if game hasn't started)
	if matchState.GetOpenSeatsCount() <= 0 {
		hasBot := false
		if matchState.Game == nil {
			for _, seat := range matchState.Seats {
				if isBotUserId(seat) {
					hasBot = true
					break
				}
			}
		}
		if !hasBot {
			return state, false, "Match full"
		}
	}

	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		matchState.Presences[p.GetUserId()] = p

		// Assign seat: try empty seats first, then bots (if lobby)
		assigned := false
		for i, seatUserId := range matchState.Seats {
			if seatUserId == "" {
				matchState.Seats[i] = p.GetUserId()
				assigned = true
				break
			}
		}

		if !assigned && matchState.Game == nil {
			for i, seatUserId := range matchState.Seats {
				if isBotUserId(seatUserId) {
					logger.Info("MatchJoin: Replacing bot %s with human %s in seat %d", seatUserId, p.GetUserId(), i)
					delete(matchState.Bots, seatUserId)
					matchState.Seats[i] = p.GetUserId()
					assigned = true
					break
				}
			}
		}

		if !assigned {
			logger.Warn("MatchJoin: User %s joined but no seat (empty or bot) was available.", p.GetUserId())
			continue
		}
	}

	// Ensure owner seat is assigned to a human player only.
	if !isHumanSeat(matchState.Seats, matchState.OwnerSeat) {
		matchState.OwnerSeat = findFirstHumanSeat(matchState.Seats)
		if matchState.OwnerSeat >= 0 {
			logger.Debug("MatchJoin: Owner set to human seat %d.", matchState.OwnerSeat)
		}
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastMatchState(matchState, dispatcher, logger)

	// A game in progress is re-sent to late joiners as their own view.
	if matchState.Game != nil {
		mh.sendViews(matchState, dispatcher, logger, presences)
	}

	return matchState
}

// MatchLeave is called when one or more players leave the match.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(matchState.Presences, p.GetUserId())

		for i, seatUserId := range matchState.Seats {
			if seatUserId == p.GetUserId() {
				matchState.Seats[i] = ""
				logger.Debug("MatchLeave: User %s left, seat %d freed.", p.GetUserId(), i)
				break
			}
		}

		// A deserter forfeits any game in progress.
		if matchState.Game != nil && matchState.Game.Phase == domain.PhasePlaying {
			if player, seated := matchState.Game.Players[p.GetUserId()]; seated && !player.Out {
				mh.abandonGame(ctx, matchState, dispatcher, logger, p.GetUserId())
			}
		}
	}

	newOwnerSeat := findFirstHumanSeat(matchState.Seats)
	if newOwnerSeat != matchState.OwnerSeat {
		matchState.OwnerSeat = newOwnerSeat
		if newOwnerSeat >= 0 {
			logger.Debug("MatchLeave: Owner set to human seat %d.", newOwnerSeat)
		}
	}

	if shouldTerminateNoHumans(matchState.Seats) {
		logger.Info("MatchLeave: Terminating match with no humans.")
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)

	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpStartGame:
			mh.handleStartGame(ctx, matchState, dispatcher, logger, msg)
		case OpAttack:
			mh.handleAttack(ctx, matchState, dispatcher, logger, msg)
		case OpDefend:
			mh.handleDefend(ctx, matchState, dispatcher, logger, msg)
		case OpTake:
			mh.handleTake(ctx, matchState, dispatcher, logger, msg)
		case OpEndAttack:
			mh.handleEndAttack(ctx, matchState, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	if matchState.BotsEnabled {
		mh.processBots(ctx, matchState, dispatcher, logger)
	}

	mh.enforceTurnDeadline(ctx, matchState, dispatcher, logger)

	return matchState
}

// processBots fills lonely lobbies and lets seated bot agents act.
func (mh *matchHandler) processBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	// 1. Auto-fill lobby with bots if there's only one human player after delay
	if state.Game == nil {
		humanCount := state.GetHumanPlayerCount()
		if humanCount == 1 && state.GetOccupiedSeatCount() < botAutoFillTarget {
			if state.LastSinglePlayerTick == 0 {
				state.LastSinglePlayerTick = state.Tick
				logger.Debug("processBots: Single player detected, starting auto-fill timer.")
			}

			if state.Tick-state.LastSinglePlayerTick >= int64(state.BotAutoFillDelay) {
				added := false
				for i, seat := range state.Seats {
					if state.GetOccupiedSeatCount() >= botAutoFillTarget {
						break
					}
					if seat != "" {
						continue
					}

					identity := bot.GetBotIdentity(i)
					botID := identity.UserID
					state.Seats[i] = botID

					agent, err := bot.NewAgent(botID)
					if err != nil {
						logger.Error("Failed to create bot agent for %s: %v", botID, err)
						state.Seats[i] = ""
						continue
					}
					state.Bots[botID] = agent

					logger.Info("processBots: Added bot %s (%s) to seat %d", identity.Username, botID, i)
					added = true
				}
				if added {
					mh.updateLabel(state, dispatcher, logger)
					mh.broadcastMatchState(state, dispatcher, logger)
				}
				state.LastSinglePlayerTick = 0
			}
		} else {
			state.LastSinglePlayerTick = 0
		}
		return
	}

	// 2. Handle bot actions in-game. One bot action per delay window keeps
	// the pace human-readable.
	if state.Game.Phase != domain.PhasePlaying {
		return
	}

	if state.BotWaitUntil == 0 {
		delay := rand.Intn(state.BotMaxDelay-state.BotMinDelay+1) + state.BotMinDelay
		state.BotWaitUntil = state.Tick + int64(delay)
		return
	}
	if state.Tick < state.BotWaitUntil {
		return
	}
	state.BotWaitUntil = 0

	for _, userID := range state.Game.Seats {
		if !isBotUserId(userID) {
			continue
		}
		agent, exists := state.Bots[userID]
		if !exists {
			var err error
			agent, err = bot.NewAgent(userID)
			if err != nil {
				logger.Error("processBots: Failed to create fallback agent: %v", err)
				continue
			}
			state.Bots[userID] = agent
		}

		move, err := agent.Act(state.Game)
		if err != nil {
			logger.Error("processBots: Bot %s failed to calculate move: %v", userID, err)
			continue
		}
		if move.Action == bot.ActionWait {
			continue
		}

		if mh.applyMove(ctx, state, dispatcher, logger, userID, move) {
			return
		}
	}
}

// applyMove executes a bot (or timeout) decision through the app service.
func (mh *matchHandler) applyMove(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, move bot.Move) bool {
	var events []app.Event
	var err error

	switch move.Action {
	case bot.ActionAttack:
		ids := make([]string, len(move.Cards))
		for i, c := range move.Cards {
			ids[i] = c.String()
		}
		events, err = state.App.Attack(state.Game, userID, ids)
	case bot.ActionDefend:
		pairings := make(map[string]string, len(move.Pairings))
		for _, pair := range move.Pairings {
			pairings[pair.Attack.String()] = pair.Defense.String()
		}
		events, err = state.App.Defend(state.Game, userID, pairings)
	case bot.ActionTake:
		events, err = state.App.Take(state.Game, userID)
	case bot.ActionEndAttack:
		events, err = state.App.EndAttack(state.Game, userID)
	default:
		return false
	}

	if err != nil {
		logger.Warn("applyMove: %s move %s rejected: %v", userID, move.Action, err)
		return false
	}

	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
	mh.resetTurnDeadline(state)
	return true
}

// enforceTurnDeadline plays for the blocking seat once its time runs out,
// so one absent player cannot stall the table.
func (mh *matchHandler) enforceTurnDeadline(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.Game == nil || state.Game.Phase != domain.PhasePlaying || state.TurnDurationTicks <= 0 {
		return
	}
	if state.TurnDeadline == 0 {
		state.TurnDeadline = state.Tick + state.TurnDurationTicks
		return
	}
	if state.Tick < state.TurnDeadline {
		return
	}

	userID := blockingUserID(state.Game)
	if userID == "" {
		mh.resetTurnDeadline(state)
		return
	}

	player := state.Game.Players[userID]
	move, err := (&bot.BasicBot{}).Decide(state.Game, player)
	if err != nil || move.Action == bot.ActionWait {
		mh.resetTurnDeadline(state)
		return
	}

	logger.Info("enforceTurnDeadline: Playing %s for idle user %s", move.Action, userID)
	if !mh.applyMove(ctx, state, dispatcher, logger, userID, move) {
		mh.resetTurnDeadline(state)
	}
}

func (mh *matchHandler) resetTurnDeadline(state *MatchState) {
	state.TurnDeadline = 0
	state.BotWaitUntil = 0
}

// blockingUserID names the player the round is waiting on.
func blockingUserID(game *domain.Game) string {
	undefended := 0
	for _, slot := range game.Table {
		if !slot.Defended() {
			undefended++
		}
	}
	if undefended > 0 {
		return game.Seats[game.DefenderSeat]
	}
	return game.Seats[game.AttackerSeat]
}

// abandonGame resolves a match where an active player deserted. The
// deserter is recorded as the durak and the table returns to the lobby.
func (mh *matchHandler) abandonGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, deserterID string) {
	game := state.Game
	logger.Info("abandonGame: User %s deserted an active game.", deserterID)

	results := make([]ports.GameResult, 0, len(game.Seats))
	finishOrder := append([]string(nil), game.FinishOrder...)
	for _, uid := range game.Seats {
		if uid != deserterID && !game.Players[uid].Out {
			finishOrder = append(finishOrder, uid)
		}
		if !isBotUserId(uid) {
			results = append(results, ports.GameResult{UserID: uid, Durak: uid == deserterID})
		}
	}

	if state.Stats != nil {
		if err := state.Stats.RecordResults(ctx, results); err != nil {
			logger.Error("abandonGame: Failed to record results: %v", err)
		}
	}

	payload := app.GameEndedPayload{DurakID: deserterID, FinishOrder: finishOrder}
	mh.sendJSON(state, dispatcher, logger, OpGameEnded, payload, nil)

	state.Game = nil
	mh.resetTurnDeadline(state)
	mh.updateLabel(state, dispatcher, logger)
}

func (mh *matchHandler) seatOf(state *MatchState, userID string) int {
	for i, seatUserId := range state.Seats {
		if seatUserId == userID {
			return i
		}
	}
	return -1
}

func (mh *matchHandler) handleStartGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	senderSeat := mh.seatOf(state, senderID)

	logger.Info("StartGame: Request received from %s (seat=%d, owner_seat=%d, occupied=%d)", senderID, senderSeat, state.OwnerSeat, state.GetOccupiedSeatCount())

	if state.Game != nil {
		logger.Warn("StartGame: Game already in progress.")
		return
	}
	if senderSeat != state.OwnerSeat {
		logger.Warn("StartGame: User %s tried to start game but is not owner (owner_seat=%d)", senderID, state.OwnerSeat)
		return
	}

	activeCount := state.GetOccupiedSeatCount()
	if activeCount < app.MinPlayersToStartGame {
		logger.Warn("StartGame: Cannot start with %d players. Need at least %d.", activeCount, app.MinPlayersToStartGame)
		return
	}

	// Compact seating so lobby seats and game seats line up.
	seatIDs := make([]string, 0, activeCount)
	for _, uid := range state.Seats {
		if uid != "" {
			seatIDs = append(seatIDs, uid)
		}
	}
	compacted := make([]string, len(state.Seats))
	copy(compacted, seatIDs)
	state.Seats = compacted
	if state.OwnerSeat >= 0 {
		state.OwnerSeat = mh.seatOf(state, senderID)
	}

	game, events, err := state.App.StartGame(seatIDs, state.DeckLowRank, state.HandSize)
	if err != nil {
		logger.Error("StartGame: Failed to start game: %v", err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}

	state.Game = game
	mh.resetTurnDeadline(state)
	mh.updateLabel(state, dispatcher, logger)
	mh.broadcastMatchState(state, dispatcher, logger)
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)

	logger.Info("StartGame: Game started with %d players.", activeCount)
}

func (mh *matchHandler) handleAttack(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if state.Game == nil {
		logger.Warn("handleAttack: Game not started.")
		return
	}

	var request struct {
		Cards []string `json:"cards"`
	}
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		logger.Warn("handleAttack: Invalid payload from %s: %v", senderID, err)
		return
	}

	events, err := state.App.Attack(state.Game, senderID, request.Cards)
	if err != nil {
		logger.Warn("handleAttack: User %s failed to attack with %v: %v", senderID, request.Cards, err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}

	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
	mh.resetTurnDeadline(state)
}

func (mh *matchHandler) handleDefend(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if state.Game == nil {
		logger.Warn("handleDefend: Game not started.")
		return
	}

	var request struct {
		Pairings map[string]string `json:"pairings"`
	}
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		logger.Warn("handleDefend: Invalid payload from %s: %v", senderID, err)
		return
	}

	events, err := state.App.Defend(state.Game, senderID, request.Pairings)
	if err != nil {
		logger.Warn("handleDefend: User %s failed to defend with %v: %v", senderID, request.Pairings, err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}

	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
	mh.resetTurnDeadline(state)
}

func (mh *matchHandler) handleTake(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if state.Game == nil {
		logger.Warn("handleTake: Game not started.")
		return
	}

	events, err := state.App.Take(state.Game, senderID)
	if err != nil {
		logger.Warn("handleTake: User %s failed to take: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}

	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
	mh.resetTurnDeadline(state)
}

func (mh *matchHandler) handleEndAttack(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if state.Game == nil {
		logger.Warn("handleEndAttack: Game not started.")
		return
	}

	events, err := state.App.EndAttack(state.Game, senderID)
	if err != nil {
		logger.Warn("handleEndAttack: User %s failed to end attack: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}

	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
	mh.resetTurnDeadline(state)
}

// dispatchEvents converts app events to opcode messages. Targeted events
// reach only connected recipients; hand payloads never go wide.
func (mh *matchHandler) dispatchEvents(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	for _, ev := range events {
		opCode, ok := opCodeFor(ev.Kind)
		if !ok {
			logger.Warn("dispatchEvents: Unknown event kind: %v", ev.Kind)
			continue
		}

		if ev.Kind == app.EventGameEnded {
			mh.finishGame(ctx, state, dispatcher, logger, ev.Payload.(app.GameEndedPayload))
		}

		mh.sendJSON(state, dispatcher, logger, opCode, ev.Payload, ev.Recipients)
	}
}

func opCodeFor(kind app.EventKind) (int64, bool) {
	switch kind {
	case app.EventGameStarted:
		return OpGameStarted, true
	case app.EventHandDealt:
		return OpHandDealt, true
	case app.EventAttacked:
		return OpAttacked, true
	case app.EventDefended:
		return OpDefended, true
	case app.EventRoundClosed:
		return OpRoundClosed, true
	case app.EventHandUpdated:
		return OpHandUpdated, true
	case app.EventPlayerOut:
		return OpPlayerOut, true
	case app.EventGameEnded:
		return OpGameEnded, true
	}
	return 0, false
}

// finishGame records results for the terminal session and returns the
// table to the lobby.
func (mh *matchHandler) finishGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, payload app.GameEndedPayload) {
	if state.Game == nil {
		return
	}

	results := make([]ports.GameResult, 0, len(state.Game.Seats))
	for _, uid := range state.Game.Seats {
		if isBotUserId(uid) {
			continue
		}
		results = append(results, ports.GameResult{UserID: uid, Durak: uid == payload.DurakID})
	}
	if state.Stats != nil && len(results) > 0 {
		if err := state.Stats.RecordResults(ctx, results); err != nil {
			logger.Error("finishGame: Failed to record results: %v", err)
		}
	}

	state.Game = nil
	mh.resetTurnDeadline(state)
	mh.updateLabel(state, dispatcher, logger)
}

// sendJSON marshals payload and broadcasts it, honoring targeted
// recipients. Events aimed only at disconnected users (bots) are dropped
// rather than widened.
func (mh *matchHandler) sendJSON(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, opCode int64, payload interface{}, recipientIDs []string) {
	bytes, err := json.Marshal(payload)
	if err != nil {
		logger.Error("sendJSON: Failed to marshal payload for opcode %d: %v", opCode, err)
		return
	}

	var recipients []runtime.Presence
	if len(recipientIDs) > 0 {
		for _, uid := range recipientIDs {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}
		if len(recipients) == 0 {
			return
		}
	}

	dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true)
}

// errorReason maps domain sentinels to stable client-facing codes.
func errorReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, domain.ErrWrongRole):
		return "wrong_role"
	case errors.Is(err, domain.ErrIllegalCardPlay):
		return "illegal_card_play"
	case errors.Is(err, domain.ErrIllegalTake):
		return "illegal_take"
	case errors.Is(err, domain.ErrIllegalGiveUp):
		return "illegal_give_up"
	case errors.Is(err, domain.ErrUnknownCard):
		return "unknown_card"
	case errors.Is(err, domain.ErrGameAlreadyTerminal):
		return "game_over"
	case errors.Is(err, domain.ErrInvalidPlayerCount):
		return "invalid_player_count"
	default:
		return "internal"
	}
}

// sendError sends a game error to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, cause error) {
	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}

	payload := struct {
		Reason  string `json:"reason"`
		Message string `json:"message"`
	}{
		Reason:  errorReason(cause),
		Message: cause.Error(),
	}
	bytes, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal game error: %v", err)
		return
	}

	dispatcher.BroadcastMessage(OpGameError, bytes, []runtime.Presence{presence}, nil, true)
}

// matchStatePayload is the public lobby/table summary broadcast on joins
// and seat changes.
type matchStatePayload struct {
	Seats     []string          `json:"seats"`
	OwnerSeat int               `json:"owner_seat"`
	Tick      int64             `json:"tick"`
	Players   []matchPlayerInfo `json:"players"`
}

type matchPlayerInfo struct {
	UserID         string `json:"user_id"`
	Seat           int    `json:"seat"`
	IsOwner        bool   `json:"is_owner"`
	DisplayName    string `json:"display_name"`
	CardsRemaining int    `json:"cards_remaining"`
}

func (mh *matchHandler) broadcastMatchState(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	var players []matchPlayerInfo
	for i, userId := range state.Seats {
		if userId == "" {
			continue
		}

		displayName := userId
		if p, exists := state.Presences[userId]; exists {
			displayName = p.GetUsername()
		} else if name := bot.GetBotDisplayName(userId); name != "" {
			displayName = name
		}

		cardsRemaining := 0
		if state.Game != nil {
			if p, seated := state.Game.Players[userId]; seated {
				cardsRemaining = len(p.Hand)
			}
		}

		players = append(players, matchPlayerInfo{
			UserID:         userId,
			Seat:           i,
			IsOwner:        i == state.OwnerSeat,
			DisplayName:    displayName,
			CardsRemaining: cardsRemaining,
		})
	}

	payload := matchStatePayload{
		Seats:     state.Seats,
		OwnerSeat: state.OwnerSeat,
		Tick:      state.Tick,
		Players:   players,
	}
	mh.sendJSON(state, dispatcher, logger, OpMatchState, payload, nil)
}

// sendViews sends each listed presence its own projection of the game.
func (mh *matchHandler) sendViews(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, presences []runtime.Presence) {
	for _, p := range presences {
		view := app.Snapshot(state.Game, p.GetUserId())
		mh.sendJSON(state, dispatcher, logger, OpMatchState, view, []string{p.GetUserId()})
	}
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	phase := domain.PhaseLobby
	if state.Game != nil {
		phase = state.Game.Phase
	}

	labelBytes, err := json.Marshal(domain.ComputeLabel(phase, state.GetOccupiedSeatCount(), len(state.Seats)))
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(string(labelBytes)); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, reason int) interface{} {
	logger.Debug("MatchTerminate: Match terminated for reason %d", reason)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
