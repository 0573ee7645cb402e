package room

import (
	"errors"

	"dicee-server/internal/game"
)

var (
	ErrRoomFull      = errors.New("room_full")
	ErrRoomNotFound  = errors.New("room_not_found")
	ErrSeatExpired   = errors.New("seat_expired")
	ErrRoomClosed    = errors.New("room_closed")
	ErrStorageFailed = errors.New("storage_failed")
	ErrBadRequest    = errors.New("bad_request")
)

// ErrorCode maps an error to its wire code. Unknown errors are reported as
// bad_request rather than leaking internals.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrRoomFull):
		return "room_full"
	case errors.Is(err, ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, ErrSeatExpired):
		return "seat_expired"
	case errors.Is(err, ErrRoomClosed):
		return "room_closed"
	case errors.Is(err, ErrStorageFailed):
		return "storage_failed"
	case errors.Is(err, game.ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, game.ErrCategoryScored):
		return "category_scored"
	case errors.Is(err, game.ErrInvalidPhase), errors.Is(err, game.ErrNoRollsLeft):
		return "invalid_phase"
	case errors.Is(err, game.ErrUnknownCategory), errors.Is(err, game.ErrBadKeepIndex):
		return "bad_request"
	default:
		return "bad_request"
	}
}
