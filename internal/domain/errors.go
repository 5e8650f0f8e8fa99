package domain

import "errors"

// Sentinel errors used across layers.
var (
	ErrNotFound         = errors.New("not found")
	ErrNoMoreSteps      = errors.New("no more steps in that direction")
	ErrInvalidDuration  = errors.New("timer duration must be greater than zero")
	ErrInvalidRecipe    = errors.New("invalid recipe")
	ErrNotConnected     = errors.New("agent channel is not connected")
	ErrClosed           = errors.New("already closed")
	ErrUnknownTool      = errors.New("unknown tool")
	ErrInvalidArguments = errors.New("invalid tool arguments")
)
