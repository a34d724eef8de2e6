package apperror

import "errors"

var (
	ErrInvalidCell    = errors.New("invalid cell index")
	ErrCellOccupied   = errors.New("cell is already occupied")
	ErrGameFinished   = errors.New("game is already finished")
	ErrCorruptedState = errors.New("corrupted game state")
	ErrNotFound       = errors.New("not found")
)
