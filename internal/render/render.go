// Package render turns engine snapshots into frames for a presentation layer.
//
// Two renderers exist. The full renderer redraws the whole board on every
// frame. The memo renderer keeps the last board it drew and only emits the
// squares whose value changed, so a presentation layer can skip redraws that
// would not change anything on screen.
package render

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
)

const (
	KindFull = "full"
	KindMemo = "memo"
)

var ErrUnknownRenderer = errors.New("unknown renderer")

// Cell is one square to (re)draw.
type Cell struct {
	Index int         `json:"index"`
	Value entity.Mark `json:"value"`
}

// Frame is everything a presentation layer needs for one redraw.
type Frame struct {
	Cells   []Cell            `json:"cells"`
	Full    bool              `json:"full"`
	Turn    entity.Mark       `json:"turn"`
	Status  entity.GameStatus `json:"status"`
	Message string            `json:"message"`

	// MessageChanged is false when the memo renderer already showed Message.
	MessageChanged bool `json:"message_changed"`
}

// Empty - reports whether the frame has nothing new to draw.
func (that Frame) Empty() bool {
	return len(that.Cells) == 0 && !that.MessageChanged
}

type Renderer interface {
	Render(game *entity.Game, status entity.GameStatus) Frame
	// Invalidate forgets what was drawn; the next frame is full.
	Invalidate()
}

// New - builds a renderer by kind name.
func New(kind string) (Renderer, error) {
	switch kind {
	case KindFull, "":
		return NewFullRenderer(), nil
	case KindMemo:
		return NewMemoRenderer(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRenderer, kind)
	}
}

// Message - returns the status line shown under the board.
func Message(status entity.GameStatus, turn entity.Mark) string {
	switch {
	case status.IsWon():
		return fmt.Sprintf("Winner: %s", status.Winner)
	case status.IsDraw():
		return "Draw"
	default:
		return fmt.Sprintf("Next player: %s", turn)
	}
}

type fullRenderer struct{}

func NewFullRenderer() Renderer {
	return &fullRenderer{}
}

func (that *fullRenderer) Render(game *entity.Game, status entity.GameStatus) Frame {
	return fullFrame(game, status)
}

func (that *fullRenderer) Invalidate() {}

func fullFrame(game *entity.Game, status entity.GameStatus) Frame {
	cells := make([]Cell, 0, entity.BoardSize)
	for i, value := range game.Board {
		cells = append(cells, Cell{Index: i, Value: value})
	}

	return Frame{
		Cells:          cells,
		Full:           true,
		Turn:           game.Turn,
		Status:         status,
		Message:        Message(status, game.Turn),
		MessageChanged: true,
	}
}

type memoRenderer struct {
	drawn       bool
	lastBoard   entity.Board
	lastMessage string
}

func NewMemoRenderer() Renderer {
	return &memoRenderer{}
}

func (that *memoRenderer) Render(game *entity.Game, status entity.GameStatus) Frame {
	if !that.drawn {
		frame := fullFrame(game, status)
		that.remember(game.Board, frame.Message)
		return frame
	}

	message := Message(status, game.Turn)
	frame := Frame{
		Turn:           game.Turn,
		Status:         status,
		Message:        message,
		MessageChanged: message != that.lastMessage,
	}

	for i, value := range game.Board {
		if value != that.lastBoard[i] {
			frame.Cells = append(frame.Cells, Cell{Index: i, Value: value})
		}
	}

	that.remember(game.Board, message)

	return frame
}

func (that *memoRenderer) remember(board entity.Board, message string) {
	that.drawn = true
	that.lastBoard = board
	that.lastMessage = message
}

func (that *memoRenderer) Invalidate() {
	that.drawn = false
}
