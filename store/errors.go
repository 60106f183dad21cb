package store

import "errors"

var (
	ErrNotFound           = errors.New("record not found")
	ErrAlreadyExists      = errors.New("record already exists")
	ErrNotOwner           = errors.New("record belongs to another seller")
	ErrServerLimitReached = errors.New("monetized server limit reached")
)
