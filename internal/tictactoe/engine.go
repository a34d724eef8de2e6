// Package tictactoe holds the game rules: board state, turn order and the
// win/draw check. It knows nothing about how the board is drawn.
package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
)

// WinCombos are checked in this order; the first complete triple decides the winner.
var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Engine owns one board and its turn. It is not safe for concurrent use.
type Engine struct {
	game *entity.Game
}

func NewEngine() *Engine {
	return &Engine{game: entity.NewGame("")}
}

// Restore - builds an engine from a stored snapshot.
func Restore(game *entity.Game) (*Engine, error) {
	if err := game.Validate(); err != nil {
		return nil, fmt.Errorf("failed to restore game %s: %w", game.ID, err)
	}

	return &Engine{game: game.Clone()}, nil
}

// MakeMove - places the current turn's mark on cell and passes the turn.
// A rejected move leaves board and turn untouched.
func (that *Engine) MakeMove(cell int) error {
	if err := that.validateMove(cell); err != nil {
		return err
	}

	that.game.Board[cell] = that.game.Turn
	that.game.Turn = that.game.Turn.Opponent()

	return nil
}

// ApplyMove - same as MakeMove, reporting only whether the move was taken.
func (that *Engine) ApplyMove(cell int) bool {
	return that.MakeMove(cell) == nil
}

// validateMove - checks if the move is valid.
func (that *Engine) validateMove(cell int) error {
	if cell < 0 || cell >= entity.BoardSize {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if status := CheckWinner(that.game.Board); status.IsTerminal() {
		return fmt.Errorf("%w: %s", apperror.ErrGameFinished, status)
	}

	if that.game.Board[cell] != entity.EmptyCell {
		return fmt.Errorf("%w: cell %d", apperror.ErrCellOccupied, cell)
	}

	return nil
}

func (that *Engine) CurrentStatus() entity.GameStatus {
	return CheckWinner(that.game.Board)
}

// Reset - clears the board and gives the first move back to X.
func (that *Engine) Reset() {
	that.game.Board = entity.Board{}
	that.game.Turn = entity.PlayerX
}

func (that *Engine) Turn() entity.Mark {
	return that.game.Turn
}

// Snapshot - returns a copy of the engine state tagged with id.
func (that *Engine) Snapshot(id string) *entity.Game {
	snapshot := that.game.Clone()
	snapshot.ID = id
	return snapshot
}

// CheckWinner - classifies a board as won, drawn or still in progress.
func CheckWinner(board entity.Board) entity.GameStatus {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != entity.EmptyCell && a == b && b == c {
			return entity.Won(a)
		}
	}

	// the game continues until all the squares are full
	if !board.IsFull() {
		return entity.InProgress()
	}

	return entity.Draw()
}
