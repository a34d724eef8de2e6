package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/render"
)

const (
	SessionCookie = "user_session"
	sessionMaxAge = 24 * time.Hour
)

type sessionKey struct{}

type gameManager interface {
	GetOrCreateGame(ctx context.Context, id string) (*entity.Game, error)
	MakeMove(ctx context.Context, id string, cell int) (*entity.Game, entity.GameStatus, error)
	Reset(ctx context.Context, id string) (*entity.Game, error)
	EndSession(ctx context.Context, id string) error
	Status(game *entity.Game) entity.GameStatus
}

type GameHandler interface {
	GetGame(w http.ResponseWriter, r *http.Request)
	MakeMove(w http.ResponseWriter, r *http.Request)
	Reset(w http.ResponseWriter, r *http.Request)
	EndSession(w http.ResponseWriter, r *http.Request)
}

type moveRequest struct {
	Cell *int `json:"cell"`
}

type gameResponse struct {
	Game  *entity.Game  `json:"game,omitempty"`
	Frame *render.Frame `json:"frame,omitempty"`
	Error string        `json:"error,omitempty"`
}

type gameHandler struct {
	logger *slog.Logger
	game   gameManager
}

func NewGameHandler(logger *slog.Logger, game gameManager) GameHandler {
	return &gameHandler{
		logger: logger.With("component", "rest"),
		game:   game,
	}
}

// withSession - makes sure the request carries a session cookie.
func withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
			id = cookie.Value
		} else {
			id = pkg.GenerateNewSessionID()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				Expires:  time.Now().Add(sessionMaxAge),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, id)))
	})
}

func sessionID(r *http.Request) string {
	id, _ := r.Context().Value(sessionKey{}).(string)
	return id
}

func (that *gameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	game, err := that.game.GetOrCreateGame(r.Context(), sessionID(r))
	if err != nil {
		that.internalError(w, "failed to get game", err)
		return
	}

	that.writeGame(w, http.StatusOK, game, that.game.Status(game), "")
}

func (that *gameHandler) MakeMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Cell == nil {
		writeJSON(w, http.StatusBadRequest, gameResponse{Error: "request body must be {\"cell\": n}"})
		return
	}

	game, status, err := that.game.MakeMove(r.Context(), sessionID(r), *req.Cell)
	switch {
	case err == nil:
		that.writeGame(w, http.StatusOK, game, status, "")
	case errors.Is(err, apperror.ErrInvalidCell):
		that.writeGame(w, http.StatusBadRequest, game, status, apperror.ErrInvalidCell.Error())
	case errors.Is(err, apperror.ErrCellOccupied):
		that.writeGame(w, http.StatusConflict, game, status, apperror.ErrCellOccupied.Error())
	case errors.Is(err, apperror.ErrGameFinished):
		that.writeGame(w, http.StatusConflict, game, status, apperror.ErrGameFinished.Error())
	default:
		that.internalError(w, "failed to make move", err)
	}
}

func (that *gameHandler) Reset(w http.ResponseWriter, r *http.Request) {
	game, err := that.game.Reset(r.Context(), sessionID(r))
	if err != nil {
		that.internalError(w, "failed to reset game", err)
		return
	}

	that.writeGame(w, http.StatusOK, game, that.game.Status(game), "")
}

func (that *gameHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	if err := that.game.EndSession(r.Context(), sessionID(r)); err != nil {
		that.internalError(w, "failed to end session", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (that *gameHandler) writeGame(w http.ResponseWriter, code int, game *entity.Game, status entity.GameStatus, message string) {
	frame := render.NewFullRenderer().Render(game, status)

	writeJSON(w, code, gameResponse{
		Game:  game,
		Frame: &frame,
		Error: message,
	})
}

func (that *gameHandler) internalError(w http.ResponseWriter, message string, err error) {
	that.logger.Error(message, "error", err)
	writeJSON(w, http.StatusInternalServerError, gameResponse{Error: "Internal Server Error"})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func writeText(w http.ResponseWriter, code int, body string) error {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)

	if _, err := io.WriteString(w, body); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}

	return nil
}
