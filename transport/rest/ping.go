package rest

import (
	"log/slog"
	"net/http"
)

const pong = "pong"

// pingHandler answers liveness checks; it never touches the session store.
type pingHandler struct {
	logger *slog.Logger
}

func newPingHandler(logger *slog.Logger) *pingHandler {
	return &pingHandler{logger: logger.With("component", "rest", "method", "ping")}
}

func (that *pingHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-store")

	if err := writeText(w, http.StatusOK, pong); err != nil {
		that.logger.Error("failed to write pong", "error", err)
	}
}
