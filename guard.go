package migration

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

type cancelFunc func(ctx context.Context, pid int32) error

// timeoutGuard races one timer against the whole batch. When it fires it
// cancels whatever the migration backend is running; Disarm must be called on
// every exit path.
type timeoutGuard struct {
	timer *time.Timer
	fired atomic.Bool
	done  chan struct{}
	once  sync.Once
}

func armTimeout(d time.Duration, pid int32, cancel cancelFunc, log logrus.FieldLogger) *timeoutGuard {
	g := &timeoutGuard{done: make(chan struct{})}
	g.timer = time.AfterFunc(d, func() {
		defer close(g.done)
		g.fired.Store(true)

		log := log.WithField("pid", pid)
		log.Warn("cancelling migration connection")
		if err := cancel(context.Background(), pid); err != nil {
			log.WithError(err).Error("failed to cancel migration connection")
		}
	})
	return g
}

// Fired reports whether the budget ran out.
func (g *timeoutGuard) Fired() bool {
	return g.fired.Load()
}

// Disarm stops the timer. If it already fired, Disarm waits for the
// cancellation connection to finish so nothing outlives the run.
func (g *timeoutGuard) Disarm() {
	g.once.Do(func() {
		if !g.timer.Stop() {
			<-g.done
		}
	})
}
