package game

import "errors"

var (
	ErrNotYourTurn     = errors.New("not_your_turn")
	ErrInvalidPhase    = errors.New("invalid_phase")
	ErrCategoryScored  = errors.New("category_scored")
	ErrUnknownCategory = errors.New("unknown_category")
	ErrNoRollsLeft     = errors.New("no_rolls_left")
	ErrUnknownPlayer   = errors.New("unknown_player")
	ErrBadKeepIndex    = errors.New("bad_keep_index")
)
