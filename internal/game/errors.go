package game

import "errors"

// Every entry point returns one of these; callers match with errors.Is. A
// rejected call leaves engine state untouched.
var (
	ErrHandInProgress      = errors.New("hand already in progress")
	ErrInsufficientPlayers = errors.New("need at least 2 eligible players")
	ErrBlindsNotMet        = errors.New("blind seats cannot post")
	ErrNoCurrentActor      = errors.New("no seat is on turn")
	ErrActorCannotAct      = errors.New("seat cannot act")
	ErrInvalidAction       = errors.New("invalid action for current state")
	ErrTableFull           = errors.New("table is full")
	ErrSeatOccupied        = errors.New("seat is already occupied")
	ErrInvalidSeat         = errors.New("seat index out of range")
	ErrUnknownPlayer       = errors.New("no such player")
	ErrInvalidBlinds       = errors.New("invalid blind levels")
)
