package repo

import (
	"errors"
	"time"
)

var (
	ErrValidation   = errors.New("validation failed: missing or invalid field")
	ErrNotFound     = errors.New("document not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrInvalidID    = errors.New("invalid id: not a hex object id")
)

const (
	defaultWriteTimeout = 5 * time.Second
	defaultReadTimeout  = 30 * time.Second
)
