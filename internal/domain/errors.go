package domain

import "errors"

// Action rejection reasons. Every illegal action is rejected with one of
// these sentinels (possibly wrapped with detail) and leaves the game
// state untouched; all are recoverable by resubmitting a corrected
// action. ErrCardConservation is the exception: it signals a corrupted
// session that must be aborted, not retried.
var (
	ErrInvalidPlayerCount  = errors.New("invalid player count")
	ErrNotYourTurn         = errors.New("not your turn")
	ErrWrongRole           = errors.New("wrong role for this action")
	ErrIllegalCardPlay     = errors.New("illegal card play")
	ErrIllegalTake         = errors.New("illegal take")
	ErrIllegalGiveUp       = errors.New("illegal give up")
	ErrUnknownCard         = errors.New("card not in hand")
	ErrGameAlreadyTerminal = errors.New("game already over")

	ErrCardConservation = errors.New("card conservation violated")
)
