package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/apperror"
)

// Mark is the content of a single board cell.
type Mark string

const (
	PlayerX   Mark = "X"
	PlayerO   Mark = "O"
	EmptyCell Mark = ""
)

const BoardSize = 9

const (
	StatusInProgress = "in_progress"
	StatusWon        = "won"
	StatusDraw       = "draw"
)

// Board is the 3x3 grid in row-major order.
type Board [BoardSize]Mark

// Game is a serialisable snapshot of an engine: the board and whose mark goes next.
type Game struct {
	ID    string `json:"id"`
	Board Board  `json:"board"`
	Turn  Mark   `json:"turn"`
}

// GameStatus is derived from a board, never stored.
type GameStatus struct {
	State  string `json:"state"`
	Winner Mark   `json:"winner,omitempty"`
}

func NewGame(id string) *Game {
	return &Game{
		ID:   id,
		Turn: PlayerX,
	}
}

func InProgress() GameStatus {
	return GameStatus{State: StatusInProgress}
}

func Won(mark Mark) GameStatus {
	return GameStatus{State: StatusWon, Winner: mark}
}

func Draw() GameStatus {
	return GameStatus{State: StatusDraw}
}

func (that GameStatus) IsInProgress() bool {
	return that.State == StatusInProgress
}

func (that GameStatus) IsWon() bool {
	return that.State == StatusWon
}

func (that GameStatus) IsDraw() bool {
	return that.State == StatusDraw
}

// IsTerminal - reports whether only a reset can leave this status.
func (that GameStatus) IsTerminal() bool {
	return that.IsWon() || that.IsDraw()
}

func (that GameStatus) String() string {
	if that.IsWon() {
		return fmt.Sprintf("%s(%s)", that.State, that.Winner)
	}
	return that.State
}

// Opponent - returns the other player's mark.
func (that Mark) Opponent() Mark {
	if that == PlayerX {
		return PlayerO
	}
	return PlayerX
}

func (that Mark) IsPlayer() bool {
	return that == PlayerX || that == PlayerO
}

func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}
	return true
}

// Count - returns how many cells hold the given mark.
func (that Board) Count(mark Mark) int {
	n := 0
	for _, cell := range that {
		if cell == mark {
			n++
		}
	}
	return n
}

// Clone - returns a copy the caller may change freely.
func (that *Game) Clone() *Game {
	clone := *that
	return &clone
}

// Validate - checks that a snapshot received from outside could have been produced by legal play.
func (that *Game) Validate() error {
	for i, cell := range that.Board {
		if cell != EmptyCell && !cell.IsPlayer() {
			return fmt.Errorf("%w: cell %d holds %q", apperror.ErrCorruptedState, i, cell)
		}
	}

	if !that.Turn.IsPlayer() {
		return fmt.Errorf("%w: turn %q", apperror.ErrCorruptedState, that.Turn)
	}

	crosses, noughts := that.Board.Count(PlayerX), that.Board.Count(PlayerO)
	switch {
	case crosses == noughts && that.Turn == PlayerX:
	case crosses == noughts+1 && that.Turn == PlayerO:
	default:
		return fmt.Errorf("%w: %d X, %d O with turn %s", apperror.ErrCorruptedState, crosses, noughts, that.Turn)
	}

	return nil
}
