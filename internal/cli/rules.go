package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const rulesWordWrap = 80

var rulesMarkdown = heredoc.Doc(`
	# Tic-Tac-Toe

	Two players share one board of nine squares, numbered like a phone keypad:

	    1 | 2 | 3
	    4 | 5 | 6
	    7 | 8 | 9

	- **X** always moves first, then the players take turns.
	- A move places your mark on an empty square.
	- Three marks in a row, column or diagonal win the game.
	- A full board with no line is a **draw**.
	- Once the game is over no more moves are accepted; press **r** to start again.
`)

func newRulesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Show how the game is played",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printRules(cmd.OutOrStdout())
		},
	}
}

func printRules(out io.Writer) error {
	style := glamour.WithStandardStyle("notty")
	if isTerminal(out) {
		style = glamour.WithAutoStyle()
	}

	renderer, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(rulesWordWrap))
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	rendered, err := renderer.Render(rulesMarkdown)
	if err != nil {
		return fmt.Errorf("failed to render rules: %w", err)
	}

	_, err = fmt.Fprint(out, rendered)
	return err
}

// isTerminal - reports whether out is an interactive terminal.
func isTerminal(out io.Writer) bool {
	file, ok := out.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}
