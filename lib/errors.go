package lib

import "errors"

var (
	ErrSessionClosed       = errors.New("session already closed")
	ErrCheckpointNotFound  = errors.New("checkpoint not found")
	ErrAccountNotFound     = errors.New("account not found")
	ErrUnsupportedPlatform = errors.New("not supported on this platform")
)
