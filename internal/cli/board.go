package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/muesli/termenv"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/render"
)

const (
	colorX     = "#f472b6"
	colorO     = "#818cf8"
	colorHint  = "#6b7280"
	colorError = "#ef4444"
)

// boardView is what the terminal currently shows. Frames are applied to it,
// so a memo frame only has to carry the squares that changed.
type boardView struct {
	output      *termenv.Output
	interactive bool

	cells   entity.Board
	message string
}

func newBoardView(out io.Writer, interactive bool) *boardView {
	profile := termenv.Ascii
	if interactive {
		profile = termenv.EnvColorProfile()
	}

	return &boardView{
		output:      termenv.NewOutput(out, termenv.WithProfile(profile)),
		interactive: interactive,
	}
}

// apply - updates the view with frame; returns false when there is nothing to redraw.
func (that *boardView) apply(frame render.Frame) bool {
	if frame.Empty() {
		return false
	}

	if frame.Full {
		that.cells = entity.Board{}
	}

	for _, cell := range frame.Cells {
		that.cells[cell.Index] = cell.Value
	}

	that.message = frame.Message

	return true
}

func (that *boardView) draw() {
	if that.interactive {
		that.output.ClearScreen()
	}

	var b strings.Builder
	for row := 0; row < 3; row++ {
		if row > 0 {
			b.WriteString("\n---+---+---\n")
		}
		for col := 0; col < 3; col++ {
			if col > 0 {
				b.WriteString("|")
			}
			b.WriteString(" " + that.cell(row*3+col) + " ")
		}
	}

	fmt.Fprintf(that.output, "%s\n\n%s\n", b.String(), that.message)
}

func (that *boardView) cell(index int) string {
	switch that.cells[index] {
	case entity.PlayerX:
		return that.output.String(string(entity.PlayerX)).Foreground(that.output.Color(colorX)).Bold().String()
	case entity.PlayerO:
		return that.output.String(string(entity.PlayerO)).Foreground(that.output.Color(colorO)).Bold().String()
	default:
		return that.output.String(strconv.Itoa(index + 1)).Foreground(that.output.Color(colorHint)).Faint().String()
	}
}

func (that *boardView) warn(message string) {
	fmt.Fprintln(that.output, that.output.String(message).Foreground(that.output.Color(colorError)).String())
}

func (that *boardView) prompt() {
	fmt.Fprint(that.output, "> ")
}
