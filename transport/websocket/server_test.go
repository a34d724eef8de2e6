package websocket

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/render"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/repository"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/usecase"
)

type reply struct {
	Action  string
	Payload Payload
}

func newServer(t *testing.T, kind string) *Server {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	manager := usecase.NewGameManager(logger, repository.NewMemorySessionRepository(), metrics.New(prometheus.NewRegistry()))

	server, err := New(logger, manager, kind)
	require.NoError(t, err)

	return server
}

func textFrame(t *testing.T, action string, payload any) []byte {
	t.Helper()

	msg := Message{Action: action}
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		msg.Payload = raw
	}

	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	return clientFrame(opText, raw)
}

// exchange - feeds the client frames to one connection and returns what the server sent.
func exchange(t *testing.T, server *Server, kind string, frames ...[]byte) ([]reply, []frame) {
	t.Helper()

	renderer, err := render.New(kind)
	require.NoError(t, err)

	var out bytes.Buffer
	conn := &connection{
		session:  "cookie-session",
		renderer: renderer,
		reader:   bufio.NewReader(bytes.NewReader(bytes.Join(frames, nil))),
		writer:   bufio.NewWriter(&out),
	}

	require.NoError(t, server.handleMessages(context.Background(), conn))

	var (
		replies []reply
		control []frame
	)

	reader := bufio.NewReader(&out)
	for {
		f, err := readFrame(reader)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)

		if f.opCode != opText {
			control = append(control, f)
			continue
		}

		var msg Message
		require.NoError(t, json.Unmarshal(f.payload, &msg))

		var payload Payload
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))

		replies = append(replies, reply{Action: msg.Action, Payload: payload})
	}

	return replies, control
}

func cell(n int) map[string]int {
	return map[string]int{"cell": n}
}

func TestNew_UnknownRenderer(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	// When: the server is built with a renderer that does not exist
	server, err := New(logger, nil, "fancy")

	// Then: ErrUnknownRenderer is returned
	require.ErrorIs(t, err, render.ErrUnknownRenderer)
	assert.Nil(t, server)
}

func TestHandleConnect(t *testing.T) {
	t.Run("Uses the session from the payload", func(t *testing.T) {
		server := newServer(t, render.KindFull)

		// When: the client connects with its own session
		replies, _ := exchange(t, server, render.KindFull,
			textFrame(t, actionConnect, Payload{Session: &Session{ID: "abc"}}),
		)

		// Then: the empty board of that session is sent in full
		require.Len(t, replies, 1)
		assert.Equal(t, actionConnect, replies[0].Action)
		assert.Equal(t, "abc", replies[0].Payload.Session.ID)
		assert.Equal(t, entity.Board{}, replies[0].Payload.Game.Board)
		assert.Len(t, replies[0].Payload.Frame.Cells, entity.BoardSize)
		assert.Equal(t, "Next player: X", replies[0].Payload.Frame.Message)
	})

	t.Run("Keeps the cookie session without a payload", func(t *testing.T) {
		server := newServer(t, render.KindFull)

		// When: the client connects with no payload
		replies, _ := exchange(t, server, render.KindFull, textFrame(t, actionConnect, nil))

		// Then: the cookie session is used
		require.Len(t, replies, 1)
		assert.Equal(t, "cookie-session", replies[0].Payload.Session.ID)
	})
}

func TestHandleGameMove_Memo(t *testing.T) {
	server := newServer(t, render.KindMemo)

	// When: X plays 4, then 4 is played again, then O plays 0
	replies, _ := exchange(t, server, render.KindMemo,
		textFrame(t, actionConnect, Payload{Session: &Session{ID: "memo"}}),
		textFrame(t, actionGameMove, cell(4)),
		textFrame(t, actionGameMove, cell(4)),
		textFrame(t, actionGameMove, cell(0)),
	)

	require.Len(t, replies, 4)

	// Then: connect draws the whole board
	assert.True(t, replies[0].Payload.Frame.Full)

	// And: the first move only sends the changed cell
	assert.Equal(t, []render.Cell{{Index: 4, Value: entity.PlayerX}}, replies[1].Payload.Frame.Cells)
	assert.Empty(t, replies[1].Payload.Error)

	// And: the rejected move changes nothing
	assert.Equal(t, "cell is already occupied", replies[2].Payload.Error)
	assert.True(t, replies[2].Payload.Frame.Empty())
	assert.Equal(t, entity.PlayerO, replies[2].Payload.Game.Turn)

	// And: O's move sends only cell 0
	assert.Equal(t, []render.Cell{{Index: 0, Value: entity.PlayerO}}, replies[3].Payload.Frame.Cells)
}

func TestHandleGameMove_Full(t *testing.T) {
	server := newServer(t, render.KindFull)

	// When: X wins the top row
	frames := [][]byte{textFrame(t, actionConnect, Payload{Session: &Session{ID: "full"}})}
	for _, n := range []int{0, 3, 1, 4, 2, 8} {
		frames = append(frames, textFrame(t, actionGameMove, cell(n)))
	}
	replies, _ := exchange(t, server, render.KindFull, frames...)

	// Then: every frame carries the whole board
	require.Len(t, replies, 7)
	for _, r := range replies {
		assert.Len(t, r.Payload.Frame.Cells, entity.BoardSize)
	}

	// And: the winning move reports the winner
	assert.Equal(t, "Winner: X", replies[5].Payload.Frame.Message)

	// And: the move after the win is refused
	assert.Equal(t, "game is already finished", replies[6].Payload.Error)
	assert.Equal(t, entity.EmptyCell, replies[6].Payload.Game.Board[8])
}

func TestHandleGameMove_BadRequests(t *testing.T) {
	server := newServer(t, render.KindFull)

	// When: a move without a cell and a move off the board are sent
	replies, _ := exchange(t, server, render.KindFull,
		textFrame(t, actionGameMove, map[string]string{}),
		textFrame(t, actionGameMove, cell(42)),
	)

	// Then: both are refused
	require.Len(t, replies, 2)
	assert.Equal(t, "cell is required", replies[0].Payload.Error)
	assert.Equal(t, "invalid cell index", replies[1].Payload.Error)
	assert.Equal(t, entity.Board{}, replies[1].Payload.Game.Board)
}

func TestHandleGameReset(t *testing.T) {
	server := newServer(t, render.KindFull)

	// When: a move is made, the game is reset and its state is requested
	replies, _ := exchange(t, server, render.KindFull,
		textFrame(t, actionGameMove, cell(0)),
		textFrame(t, actionGameReset, nil),
		textFrame(t, actionGameState, nil),
	)

	// Then: the board is empty after the reset
	require.Len(t, replies, 3)
	assert.Equal(t, entity.PlayerX, replies[0].Payload.Game.Board[0])
	assert.Equal(t, entity.Board{}, replies[1].Payload.Game.Board)
	assert.Equal(t, entity.Board{}, replies[2].Payload.Game.Board)
	assert.Equal(t, entity.PlayerX, replies[2].Payload.Game.Turn)
}

func TestHandleMessages_Control(t *testing.T) {
	server := newServer(t, render.KindFull)

	// When: an unknown action, a ping and a close are sent, then more data
	replies, control := exchange(t, server, render.KindFull,
		textFrame(t, "game:fly", nil),
		clientFrame(opPing, []byte("hi")),
		clientFrame(opClose, []byte{0x03, 0xe8}),
		textFrame(t, actionGameState, nil),
	)

	// Then: the unknown action is reported
	require.Len(t, replies, 1)
	assert.Equal(t, "unknown action", replies[0].Payload.Error)

	// And: the ping is answered and the close is echoed, nothing after it is read
	require.Len(t, control, 2)
	assert.Equal(t, opPong, control[0].opCode)
	assert.Equal(t, []byte("hi"), control[0].payload)
	assert.Equal(t, opClose, control[1].opCode)
}

func TestUpgrade(t *testing.T) {
	server := newServer(t, render.KindFull)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	httpServer := httptest.NewServer(server.Router(ctx))
	t.Cleanup(httpServer.Close)

	t.Run("Plain requests are refused", func(t *testing.T) {
		// When: /ws is requested without an upgrade
		resp, err := http.Get(httpServer.URL + "/ws")
		require.NoError(t, err)
		defer resp.Body.Close()

		// Then: 400 is returned
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Handshake and one move", func(t *testing.T) {
		// When: the upgrade request is sent over a raw TCP connection
		conn, reader, resp := handshake(t, httpServer.URL)
		defer conn.Close()

		// Then: the server switches protocols with the RFC accept key and a session cookie
		assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
		assert.Equal(t, "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=", resp.Header.Get("Sec-WebSocket-Accept"))
		assert.NotEmpty(t, resp.Cookies())

		// And: a move is answered over the socket
		_, err := conn.Write(textFrame(t, actionGameMove, cell(4)))
		require.NoError(t, err)

		f, err := readFrame(reader)
		require.NoError(t, err)

		var msg Message
		require.NoError(t, json.Unmarshal(f.payload, &msg))
		assert.Equal(t, actionGameMove, msg.Action)

		var payload Payload
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))
		assert.Equal(t, entity.PlayerX, payload.Game.Board[4])

		_, err = conn.Write(clientFrame(opClose, nil))
		require.NoError(t, err)
	})
}

// handshake - dials url and upgrades the connection to WebSocket.
func handshake(t *testing.T, url string) (net.Conn, *bufio.Reader, *http.Response) {
	t.Helper()

	conn, err := net.Dial("tcp", strings.TrimPrefix(url, "http://"))
	require.NoError(t, err)

	_, err = conn.Write([]byte("GET /ws HTTP/1.1\r\n" +
		"Host: localhost\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n" +
		"Sec-WebSocket-Version: 13\r\n\r\n"))
	require.NoError(t, err)

	reader := bufio.NewReader(conn)
	resp, err := http.ReadResponse(reader, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	return conn, reader, resp
}

func TestUpgrade_ClosedOnShutdown(t *testing.T) {
	server := newServer(t, render.KindFull)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	httpServer := httptest.NewServer(server.Router(ctx))
	t.Cleanup(httpServer.Close)

	// Given: a client connected and idle
	conn, reader, _ := handshake(t, httpServer.URL)
	defer conn.Close()

	_, err := conn.Write(textFrame(t, actionGameState, nil))
	require.NoError(t, err)
	_, err = readFrame(reader)
	require.NoError(t, err)

	// When: the server is shutting down
	cancel()

	// Then: the server drops the connection instead of waiting for the client
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, err = readFrame(reader)
	require.ErrorIs(t, err, io.EOF)
}
