package websocket

import (
	"bufio"
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/render"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Session struct {
	ID string `json:"id"`
}

type Payload struct {
	Session *Session      `json:"session,omitempty"`
	Game    *entity.Game  `json:"game,omitempty"`
	Frame   *render.Frame `json:"frame,omitempty"`
	Cell    *int          `json:"cell,omitempty"`
	Error   string        `json:"error,omitempty"`
}

func sendMessage(writer *bufio.Writer, action string, payload Payload) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	response, err := json.Marshal(Message{
		Action:  action,
		Payload: payloadBytes,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	if err = writeFrame(writer, frame{isFin: true, opCode: opText, payload: response}); err != nil {
		return fmt.Errorf("failed to send %s: %w", action, err)
	}

	return nil
}
