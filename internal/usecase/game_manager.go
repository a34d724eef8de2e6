package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/repository"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/tictactoe"
)

var ErrEmptySessionID = errors.New("session id is empty")

type sessionRepo interface {
	Save(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
}

// GameManager runs one engine per viewer session on top of the session store.
type GameManager struct {
	logger      *slog.Logger
	sessionRepo sessionRepo
	recorder    *metrics.Recorder
}

func NewGameManager(logger *slog.Logger, sessionRepo sessionRepo, recorder *metrics.Recorder) *GameManager {
	return &GameManager{
		logger: logger.With("component", "game_manager"),

		sessionRepo: sessionRepo,
		recorder:    recorder,
	}
}

// GetOrCreateGame - returns the live board of the session, starting a new one when
// the session is unknown. An empty id gets a freshly generated session ID.
func (that *GameManager) GetOrCreateGame(ctx context.Context, id string) (*entity.Game, error) {
	if id == "" {
		id = pkg.GenerateNewSessionID()
	}

	existingGame, err := that.sessionRepo.GetByID(ctx, id)
	if err == nil {
		return existingGame, nil
	}

	if !errors.Is(err, repository.ErrSessionNotFound) {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	newGame := tictactoe.NewEngine().Snapshot(id)
	if err = that.sessionRepo.Save(ctx, newGame); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	that.logger.Debug("game created", "session", id)

	return newGame, nil
}

// MakeMove - applies cell to the session's board. A rejected move returns the
// unchanged board together with the rejection error and stores nothing.
func (that *GameManager) MakeMove(ctx context.Context, id string, cell int) (*entity.Game, entity.GameStatus, error) {
	log := that.logger.With("method", "MakeMove", "session", id, "cell", cell)

	engine, err := that.restore(ctx, id)
	if err != nil {
		return nil, entity.GameStatus{}, err
	}

	if err = engine.MakeMove(cell); err != nil {
		that.recorder.Move(err)
		log.Info("move rejected", "reason", metrics.MoveResult(err))

		return engine.Snapshot(id), engine.CurrentStatus(), fmt.Errorf("failed make move: %w", err)
	}

	game := engine.Snapshot(id)
	if err = that.updateGame(ctx, game); err != nil {
		return nil, entity.GameStatus{}, err
	}

	status := engine.CurrentStatus()

	that.recorder.Move(nil)
	log.Debug("move accepted", "status", status.String())

	if status.IsTerminal() {
		that.recorder.GameFinished(status)
		log.Info("game finished", "status", status.String())
	}

	return game, status, nil
}

// Reset - replaces the session's board with an empty one, X to move. The stored
// board is not read, so a corrupted session can always be reset.
func (that *GameManager) Reset(ctx context.Context, id string) (*entity.Game, error) {
	if id == "" {
		return nil, ErrEmptySessionID
	}

	engine := tictactoe.NewEngine()
	engine.Reset()

	game := engine.Snapshot(id)
	if err := that.updateGame(ctx, game); err != nil {
		return nil, err
	}

	that.recorder.Reset()
	that.logger.Info("game reset", "session", id)

	return game, nil
}

// EndSession - drops the session's board; an unknown session is not an error.
func (that *GameManager) EndSession(ctx context.Context, id string) error {
	if err := that.sessionRepo.DeleteByID(ctx, id); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		return fmt.Errorf("failed to end session: %w", err)
	}

	that.logger.Debug("session ended", "session", id)

	return nil
}

// Status - derived status of a stored board.
func (that *GameManager) Status(game *entity.Game) entity.GameStatus {
	return tictactoe.CheckWinner(game.Board)
}

func (that *GameManager) restore(ctx context.Context, id string) (*tictactoe.Engine, error) {
	if id == "" {
		return nil, ErrEmptySessionID
	}

	game, err := that.GetOrCreateGame(ctx, id)
	if err != nil {
		return nil, err
	}

	engine, err := tictactoe.Restore(game)
	if err != nil {
		return nil, fmt.Errorf("failed to restore game: %w", err)
	}

	return engine, nil
}

func (that *GameManager) updateGame(ctx context.Context, game *entity.Game) error {
	if err := that.sessionRepo.Save(ctx, game); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}

	return nil
}
