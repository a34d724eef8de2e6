package cli

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/render"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/tictactoe"
)

const (
	commandReset = "r"
	commandQuit  = "q"
)

func newPlayCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play on this terminal, two players taking turns",
		Long: "Enter 1-9 to place the current mark on that square, " +
			commandReset + " to start over and " + commandQuit + " to quit.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			renderer, err := render.New(opts.conf.Renderer)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			return newHotSeat(opts.logger, renderer, out, isTerminal(out)).run(cmd.InOrStdin())
		},
	}
}

// hotSeat runs one game on a terminal.
type hotSeat struct {
	logger   *slog.Logger
	engine   *tictactoe.Engine
	renderer render.Renderer
	view     *boardView

	// one handler per square, built once and reused for every key press
	cellHandlers [entity.BoardSize]func() error
}

func newHotSeat(logger *slog.Logger, renderer render.Renderer, out io.Writer, interactive bool) *hotSeat {
	seat := &hotSeat{
		logger:   logger.With("component", "play"),
		engine:   tictactoe.NewEngine(),
		renderer: renderer,
		view:     newBoardView(out, interactive),
	}

	for i := range seat.cellHandlers {
		cell := i
		seat.cellHandlers[i] = func() error {
			return seat.engine.MakeMove(cell)
		}
	}

	return seat
}

func (that *hotSeat) run(in io.Reader) error {
	that.redraw()

	scanner := bufio.NewScanner(in)
	for {
		that.view.prompt()

		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case commandQuit:
			return nil
		case commandReset:
			that.engine.Reset()
			that.logger.Debug("board reset")
		default:
			if err := that.press(input); err != nil {
				that.view.warn(err.Error())
				continue
			}
		}

		that.redraw()
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	return nil
}

// press - handles a square number from 1 to 9.
func (that *hotSeat) press(input string) error {
	square, err := strconv.Atoi(input)
	if err != nil {
		return fmt.Errorf("unknown command %q", input)
	}

	if square < 1 || square > entity.BoardSize {
		return fmt.Errorf("square %d is not on the board", square)
	}

	if err = that.cellHandlers[square-1](); err != nil {
		that.logger.Debug("move rejected", "square", square, "error", err)
		return err
	}

	return nil
}

func (that *hotSeat) redraw() {
	frame := that.renderer.Render(that.engine.Snapshot(""), that.engine.CurrentStatus())
	if that.view.apply(frame) {
		that.view.draw()
	}
}
