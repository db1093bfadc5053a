package server

import "errors"

var (
	ErrTableNotFound    = errors.New("table not found")
	ErrTableNameTaken   = errors.New("table name already in use")
	ErrAlreadySeated    = errors.New("player already seated")
	ErrPlayerNotSeated  = errors.New("player not seated at table")
	ErrInvalidBuyIn     = errors.New("buy-in outside table limits")
	ErrConnectionClosed = errors.New("connection closed")
)
