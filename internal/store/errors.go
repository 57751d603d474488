package store

import "errors"

var (
	// ErrNotFound is returned when a room, operator or subscription does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when an operation would break the room/turnover invariants,
	// such as starting a second turnover on a room.
	ErrConflict = errors.New("conflict")
	// ErrStageMismatch is returned when the caller's expected stage is not the stored stage.
	ErrStageMismatch = errors.New("stage mismatch")
	// ErrInvalidStage is returned when the given stage has no successor.
	ErrInvalidStage = errors.New("invalid stage")
)
