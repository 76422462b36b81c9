package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/winforge/fived-engine/internal/delivery"
	"github.com/winforge/fived-engine/internal/period"
	"github.com/winforge/fived-engine/pkg/common/logger"
	"github.com/winforge/fived-engine/pkg/events"
)

const tickInterval = 250 * time.Millisecond

// Worker drives one game/duration/timeline through the period lifecycle:
// it triggers pre-calculation at the freeze instant and delivery at period
// end. One worker runs per configured duration.
type Worker struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	precalc  *PreCalculator
	delivery *delivery.Delivery
	emitter  events.Emitter

	gameType     string
	timeline     string
	duration     int
	freezeOffset time.Duration

	triggered string // period ID whose precalc already fired
	current   period.Window
	haveCur   bool
}

func NewWorker(
	ctx context.Context,
	precalc *PreCalculator,
	deliv *delivery.Delivery,
	emitter events.Emitter,
	gameType string,
	timeline string,
	duration int,
	freezeOffset time.Duration,
) *Worker {
	ctx, cancel := context.WithCancel(ctx)
	log := logger.With(
		slog.String("game", gameType),
		slog.Int("duration", duration),
		slog.String("timeline", timeline),
	)
	return &Worker{
		ctx:          ctx,
		cancel:       cancel,
		logger:       log,
		precalc:      precalc,
		delivery:     deliv,
		emitter:      emitter,
		gameType:     gameType,
		timeline:     timeline,
		duration:     duration,
		freezeOffset: freezeOffset,
	}
}

func (w *Worker) Start() {
	w.logger.Info("Starting period scheduler worker")
	go w.run()
}

func (w *Worker) Stop() {
	w.cancel()
	w.logger.Info("Period scheduler worker stopped")
}

func (w *Worker) run() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Info("Context done, stopping scheduler loop")
			return
		case <-ticker.C:
			w.tick(time.Now())
		}
	}
}

func (w *Worker) tick(now time.Time) {
	win := period.Current(w.gameType, w.duration, w.timeline, w.freezeOffset, now)

	// Period rolled over: the previous window just ended, deliver it.
	if w.haveCur && w.current.Key.PeriodID != win.Key.PeriodID {
		ended := w.current
		go w.deliver(ended)
	}
	w.current = win
	w.haveCur = true

	if !now.Before(win.FreezeAt) && w.triggered != win.Key.PeriodID {
		w.triggered = win.Key.PeriodID
		go w.runPrecalc(win)
	}
}

func (w *Worker) runPrecalc(win period.Window) {
	_, err := w.precalc.Precalculate(w.ctx, win)
	switch {
	case err == nil:
	case errors.Is(err, ErrComputationOwned):
		w.logger.Debug("Precalc owned by another instance", "period", win.Key.PeriodID)
	default:
		w.logger.Error("Pre-calculation failed, delivery will compute on demand",
			"period", win.Key.PeriodID, "err", err)
		if emitErr := w.emitter.EmitError(win.Key.String(), err); emitErr != nil {
			w.logger.Warn("Failed to emit precalc error event", "period", win.Key.PeriodID, "err", emitErr)
		}
	}
}

func (w *Worker) deliver(win period.Window) {
	// Delivery has its own fallback path; a hard deadline here only bounds
	// how long the fallback scan may run.
	ctx, cancel := context.WithTimeout(w.ctx, time.Duration(w.duration)*time.Second/2)
	defer cancel()

	rec, err := w.delivery.GetResult(ctx, win.Key)
	if err != nil {
		w.logger.Error("Result delivery failed", "period", win.Key.PeriodID, "err", err)
		if emitErr := w.emitter.EmitError(win.Key.String(), err); emitErr != nil {
			w.logger.Warn("Failed to emit delivery error event", "period", win.Key.PeriodID, "err", emitErr)
		}
		return
	}
	w.logger.Info("Result delivered",
		"period", win.Key.PeriodID,
		"result", rec.Combination,
		"mode", rec.Mode,
	)
}
