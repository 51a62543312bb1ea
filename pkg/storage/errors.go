package storage

import "errors"

var (
	// ErrReplayNotFound is returned when no replay is stored under an id
	ErrReplayNotFound = errors.New("replay not found")
	// ErrInvalidID is returned when a string is not a valid replay id
	ErrInvalidID = errors.New("invalid replay id")
	// ErrClosed is returned by operations on a closed archive
	ErrClosed = errors.New("archive is closed")
)
