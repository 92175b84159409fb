package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Loop runs the dispatcher on a fixed interval. A batch still running when
// the next one is due is not overlapped; the late tick is dropped.
type Loop struct {
	d        *Dispatcher
	interval time.Duration
	log      *zap.Logger

	mu     sync.Mutex
	c      *cron.Cron
	cancel context.CancelFunc
}

func NewLoop(d *Dispatcher, interval time.Duration, log *zap.Logger) *Loop {
	return &Loop{d: d, interval: interval, log: log.Named("dispatch.loop")}
}

// Start schedules batches. Batches run on a context detached from ctx's
// cancellation; only Stop cancels it, after the running batch has finished.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.c != nil {
		return errors.New("dispatch loop already started")
	}
	if l.interval <= 0 {
		return fmt.Errorf("invalid dispatch interval %s", l.interval)
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	cl := cronLogger{l.log.Sugar()}
	c := cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)), cron.WithLogger(cl))
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", l.interval), func() { l.tick(ctx) }); err != nil {
		cancel()
		return fmt.Errorf("schedule dispatch: %w", err)
	}
	l.c = c
	l.cancel = cancel
	c.Start()
	l.log.Info("dispatch loop started", zap.Duration("interval", l.interval))
	return nil
}

// Stop waits for an in-flight batch to finish. In-flight claims are never
// interrupted, so the batch context is cancelled only after cron drains.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.c == nil {
		return
	}
	<-l.c.Stop().Done()
	l.cancel()
	l.c = nil
	l.log.Info("dispatch loop stopped")
}

func (l *Loop) tick(ctx context.Context) {
	if _, err := l.d.RunBatch(ctx); err != nil {
		l.log.Error("dispatch batch failed", zap.Error(err))
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.s.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
