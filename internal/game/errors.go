package game

import "errors"

// Rejections. The message of each error is the code sent to clients.
var (
	ErrRoomNotFound       = errors.New("RoomNotFound")
	ErrRoomAlreadyStarted = errors.New("RoomAlreadyStarted")
	ErrRoomFull           = errors.New("RoomFull")
	ErrNotEnoughPlayers   = errors.New("NotEnoughPlayers")
	ErrInvalidPhase       = errors.New("InvalidPhase")
	ErrNotYourTurn        = errors.New("NotYourTurn")
	ErrIllegalMove        = errors.New("IllegalMove")
	ErrUnknownCard        = errors.New("UnknownCard")
	ErrUnknownPlayer      = errors.New("UnknownPlayer")
	ErrInvalidColorChoice = errors.New("InvalidColorChoice")
	ErrDeckExhausted      = errors.New("DeckExhausted")
)

var codes = []error{
	ErrRoomNotFound, ErrRoomAlreadyStarted, ErrRoomFull, ErrNotEnoughPlayers,
	ErrInvalidPhase, ErrNotYourTurn, ErrIllegalMove, ErrUnknownCard,
	ErrUnknownPlayer, ErrInvalidColorChoice, ErrDeckExhausted,
}

// Code maps err to its wire code. Errors outside the taxonomy map to
// "Internal".
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c) {
			return c.Error()
		}
	}
	return "Internal"
}
