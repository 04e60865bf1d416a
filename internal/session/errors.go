package session

import "errors"

var (
	errSessionTerminal   = errors.New("session is in a terminal state")
	errInvalidTransition = errors.New("invalid state transition")
)
