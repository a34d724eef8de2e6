// Package cli wires the tictactoe commands: a terminal hot-seat game, the
// rules page and the game servers.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/config"
)

const defaultConfigPath = "./config.yml"

// Setup loads the configuration and builds the logger for a command run.
type Setup func(configPath string) (*config.Config, *slog.Logger)

type options struct {
	configPath string
	renderer   string

	conf   *config.Config
	logger *slog.Logger
}

// NewRootCommand - builds the tictactoe command tree.
func NewRootCommand(setup Setup) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "tictactoe",
		Short: "Two players, one board, one screen",
		Long: "Hot-seat Tic-Tac-Toe. Play it in the terminal, or serve it over\n" +
			"HTTP and WebSocket so a browser can draw the board.\n\n" +
			"Environment:\n" + config.Usage(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			opts.conf, opts.logger = setup(opts.configPath)
			if cmd.Flags().Changed("renderer") {
				opts.conf.Renderer = opts.renderer
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath, "path to the YAML config, optional")
	rootCmd.PersistentFlags().StringVar(&opts.renderer, "renderer", "", "board renderer: full or memo")

	rootCmd.AddCommand(
		newPlayCommand(opts),
		newRulesCommand(),
		newServeCommand(opts),
	)

	return rootCmd
}
