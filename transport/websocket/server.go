package websocket

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/render"
)

const (
	SessionCookie   = "user_session"
	sessionMaxAge   = 24 * time.Hour
	shutdownTimeout = 5 * time.Second
)

type gameManager interface {
	GetOrCreateGame(ctx context.Context, id string) (*entity.Game, error)
	MakeMove(ctx context.Context, id string, cell int) (*entity.Game, entity.GameStatus, error)
	Reset(ctx context.Context, id string) (*entity.Game, error)
	Status(game *entity.Game) entity.GameStatus
}

type handlerFunc func(ctx context.Context, conn *connection, msg *Message) error

// connection is the state of one upgraded client.
type connection struct {
	session  string
	renderer render.Renderer
	reader   *bufio.Reader
	writer   *bufio.Writer
}

type Server struct {
	logger       *slog.Logger
	game         gameManager
	rendererKind string

	handlers map[string]handlerFunc
}

// New - builds the server; every connection gets its own renderer of rendererKind.
func New(logger *slog.Logger, game gameManager, rendererKind string) (*Server, error) {
	if _, err := render.New(rendererKind); err != nil {
		return nil, fmt.Errorf("failed to create websocket server: %w", err)
	}

	server := &Server{
		logger:       logger.With("component", "websocket"),
		game:         game,
		rendererKind: rendererKind,

		handlers: make(map[string]handlerFunc),
	}

	server.handlers[actionConnect] = server.handleConnect
	server.handlers[actionGameState] = server.handleGameState
	server.handlers[actionGameMove] = server.handleGameMove
	server.handlers[actionGameReset] = server.handleGameReset

	return server, nil
}

func (that *Server) Router(ctx context.Context) http.Handler {
	router := chi.NewRouter()
	router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	return router
}

// Start - starts WebSocket server and stops it when ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Router(ctx),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
		that.logger.Info("shutting down WebSocket server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
		return nil
	}
}

// upgradeToWebSocket - upgrades the connection to WebSocket.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeConnection")

	if !strings.EqualFold(req.Header.Get("Upgrade"), "websocket") {
		http.Error(writer, "not a websocket upgrade", http.StatusBadRequest)
		return
	}

	key := req.Header.Get("Sec-WebSocket-Key")
	if key == "" {
		http.Error(writer, "missing Sec-WebSocket-Key", http.StatusBadRequest)
		return
	}

	session := that.sessionCookie(writer, req)

	hijacker, ok := writer.(http.Hijacker)
	if !ok {
		log.Error("web server does not support hijacking")
		http.Error(writer, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writer.Header().Set("Upgrade", "websocket")
	writer.Header().Set("Connection", "Upgrade")
	writer.Header().Set("Sec-WebSocket-Accept", pkg.GenerateAcceptKey(key))
	writer.WriteHeader(http.StatusSwitchingProtocols)

	conn, bufrw, err := hijacker.Hijack()
	if err != nil {
		log.Error("failed to hijack connection", "error", err)
		return
	}

	defer conn.Close()

	// hijacked connections outlive http.Server.Shutdown, so close them on cancel
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	log.Info("WebSocket connection established", "session", session)

	renderer, _ := render.New(that.rendererKind)
	client := &connection{
		session:  session,
		renderer: renderer,
		reader:   bufrw.Reader,
		writer:   bufrw.Writer,
	}

	if err = that.handleMessages(ctx, client); err != nil {
		log.Error("error handling messages", "error", err)
	}

	log.Info("WebSocket connection closed", "session", client.session)
}

// handleMessages - processes messages from the client until it closes the connection.
func (that *Server) handleMessages(ctx context.Context, conn *connection) error {
	log := that.logger.With("method", "handleMessages")

	for {
		if ctx.Err() != nil {
			return nil
		}

		request, err := readFrame(conn.reader)
		if errors.Is(err, io.EOF) || ctx.Err() != nil {
			return nil
		}

		if err != nil {
			return err
		}

		switch request.opCode {
		case opClose:
			return writeFrame(conn.writer, frame{isFin: true, opCode: opClose, payload: request.payload})
		case opPing:
			if err = writeFrame(conn.writer, frame{isFin: true, opCode: opPong, payload: request.payload}); err != nil {
				return err
			}
			continue
		case opText:
		default:
			continue
		}

		var message Message
		if err = json.Unmarshal(request.payload, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			if err = sendMessage(conn.writer, message.Action, Payload{Error: "unknown action"}); err != nil {
				return err
			}
			continue
		}

		if err = handler(ctx, conn, &message); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

// sessionCookie - returns the user session, setting a new cookie when there is none.
func (that *Server) sessionCookie(writer http.ResponseWriter, req *http.Request) string {
	log := that.logger.With("method", "sessionCookie")

	cookie, err := req.Cookie(SessionCookie)
	if err == nil && cookie.Value != "" {
		log.Debug("session cookie found", "cookie", cookie.Value)
		return cookie.Value
	}

	cookie = &http.Cookie{
		Name:     SessionCookie,
		Value:    pkg.GenerateNewSessionID(),
		Expires:  time.Now().Add(sessionMaxAge),
		Path:     "/",
		HttpOnly: true,
	}
	http.SetCookie(writer, cookie)
	log.Debug("session cookie not found, new one created", "cookie", cookie.Value)

	return cookie.Value
}
