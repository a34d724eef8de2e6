package metrics

import (
	"errors"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
)

const namespace = "tictactoe"

const (
	ResultAccepted     = "accepted"
	ResultInvalidCell  = "invalid_cell"
	ResultCellOccupied = "cell_occupied"
	ResultGameFinished = "game_finished"
	ResultOther        = "other"

	OutcomeDraw = "draw"
)

// Recorder counts what happens to games.
type Recorder struct {
	moves         *prometheus.CounterVec
	gamesFinished *prometheus.CounterVec
	resets        prometheus.Counter
}

// New - creates the counters and registers them with reg.
func New(reg prometheus.Registerer) *Recorder {
	recorder := &Recorder{
		moves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moves_total",
			Help:      "Moves received, by result.",
		}, []string{"result"}),
		gamesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Games that reached a terminal status, by outcome.",
		}, []string{"outcome"}),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resets_total",
			Help:      "Board resets.",
		}),
	}

	reg.MustRegister(recorder.moves, recorder.gamesFinished, recorder.resets)

	return recorder
}

// Move - counts a move; err is the rejection reason or nil.
func (that *Recorder) Move(err error) {
	that.moves.WithLabelValues(MoveResult(err)).Inc()
}

func (that *Recorder) GameFinished(status entity.GameStatus) {
	if !status.IsTerminal() {
		return
	}

	outcome := OutcomeDraw
	if status.IsWon() {
		outcome = strings.ToLower(string(status.Winner))
	}

	that.gamesFinished.WithLabelValues(outcome).Inc()
}

func (that *Recorder) Reset() {
	that.resets.Inc()
}

// MoveResult - maps a move error to its label value.
func MoveResult(err error) string {
	switch {
	case err == nil:
		return ResultAccepted
	case errors.Is(err, apperror.ErrInvalidCell):
		return ResultInvalidCell
	case errors.Is(err, apperror.ErrCellOccupied):
		return ResultCellOccupied
	case errors.Is(err, apperror.ErrGameFinished):
		return ResultGameFinished
	default:
		return ResultOther
	}
}
