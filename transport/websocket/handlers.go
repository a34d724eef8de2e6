package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
)

const (
	actionConnect   = "connect"
	actionGameState = "game:state"
	actionGameMove  = "game:move"
	actionGameReset = "game:reset"
)

// handleConnect - binds the connection to a session and sends its board.
// Without a session in the payload the cookie session is kept.
func (that *Server) handleConnect(ctx context.Context, conn *connection, msg *Message) error {
	log := that.logger.With("method", "handleConnect")

	var payloadReq Payload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
			return that.sendError(conn, msg.Action, "invalid payload", err)
		}
	}

	if payloadReq.Session != nil && payloadReq.Session.ID != "" {
		conn.session = payloadReq.Session.ID
	}

	game, err := that.game.GetOrCreateGame(ctx, conn.session)
	if err != nil {
		return that.sendError(conn, msg.Action, "failed to get the game", err)
	}

	// a new session sees the whole board
	conn.renderer.Invalidate()

	log.Info("successfully connected", "session", conn.session)

	return that.sendGame(conn, msg.Action, game, that.game.Status(game), "")
}

func (that *Server) handleGameState(ctx context.Context, conn *connection, msg *Message) error {
	game, err := that.game.GetOrCreateGame(ctx, conn.session)
	if err != nil {
		return that.sendError(conn, msg.Action, "failed to get the game", err)
	}

	return that.sendGame(conn, msg.Action, game, that.game.Status(game), "")
}

func (that *Server) handleGameMove(ctx context.Context, conn *connection, msg *Message) error {
	var payloadReq Payload
	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return that.sendError(conn, msg.Action, "invalid payload", err)
	}

	if payloadReq.Cell == nil {
		return that.sendError(conn, msg.Action, "cell is required", nil)
	}

	game, status, err := that.game.MakeMove(ctx, conn.session, *payloadReq.Cell)
	switch {
	case err == nil:
		return that.sendGame(conn, msg.Action, game, status, "")
	case errors.Is(err, apperror.ErrInvalidCell):
		return that.sendGame(conn, msg.Action, game, status, apperror.ErrInvalidCell.Error())
	case errors.Is(err, apperror.ErrCellOccupied):
		return that.sendGame(conn, msg.Action, game, status, apperror.ErrCellOccupied.Error())
	case errors.Is(err, apperror.ErrGameFinished):
		return that.sendGame(conn, msg.Action, game, status, apperror.ErrGameFinished.Error())
	default:
		return that.sendError(conn, msg.Action, "failed to make move", err)
	}
}

func (that *Server) handleGameReset(ctx context.Context, conn *connection, msg *Message) error {
	game, err := that.game.Reset(ctx, conn.session)
	if err != nil {
		return that.sendError(conn, msg.Action, "failed to reset the game", err)
	}

	return that.sendGame(conn, msg.Action, game, that.game.Status(game), "")
}

// sendGame - sends the board through the connection's renderer.
func (that *Server) sendGame(conn *connection, action string, game *entity.Game, status entity.GameStatus, message string) error {
	frame := conn.renderer.Render(game, status)

	return sendMessage(conn.writer, action, Payload{
		Session: &Session{ID: conn.session},
		Game:    game,
		Frame:   &frame,
		Error:   message,
	})
}

// sendError - reports a failure to the client and returns cause for logging.
func (that *Server) sendError(conn *connection, action, message string, cause error) error {
	if err := sendMessage(conn.writer, action, Payload{Error: message}); err != nil {
		return err
	}

	if cause != nil {
		return fmt.Errorf("%s: %w", message, cause)
	}

	return nil
}
