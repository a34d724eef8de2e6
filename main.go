package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/cli"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/config"
)

// main - is the entry point of the application. It builds the command tree; every command
// initializes the configuration and logger before it runs.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	if err := cli.NewRootCommand(setup).Execute(); err != nil {
		panic(fmt.Errorf("app run failed: %w", err))
	}
}

func setup(configPath string) (*config.Config, *slog.Logger) {
	conf := initConfig(configPath)
	return conf, initLogger(conf, os.Stderr)
}

// initialize config.
func initConfig(configPath string) *config.Config {
	if !filepath.IsAbs(configPath) {
		baseDir, err := os.Getwd()
		if err != nil {
			panic(fmt.Errorf("failed to get current directory: %w", err))
		}

		configPath = filepath.Join(baseDir, configPath)
	}

	return config.MustLoad(configPath)
}

// initialize logger. Logs go to w, never to stdout, which belongs to the board.
func initLogger(conf *config.Config, w io.Writer) *slog.Logger {
	var level slog.Level

	switch conf.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
