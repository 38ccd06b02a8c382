package websocket

import "errors"

var (
	ErrUpgradeFailed = errors.New("websocket: upgrade failed")
	ErrInvalidFrame  = errors.New("websocket: invalid frame")
)
