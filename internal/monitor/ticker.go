package monitor

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrAlreadyArmed is returned by Arm when the ticker is already armed.
var ErrAlreadyArmed = errors.New("monitor: ticker already armed")

// Ticker drives recurring cycles. Implementations call fn once per period
// until Cancel; the first call happens one full period after Arm.
type Ticker interface {
	Arm(fn func()) error
	Cancel()
	Armed() bool
}

// CronTicker is a Ticker backed by a robfig/cron scheduler with a constant
// delay schedule. A tick that arrives while the previous call is still
// running is skipped.
type CronTicker struct {
	mu       sync.Mutex
	interval time.Duration
	logger   *slog.Logger
	cron     *cron.Cron
}

// NewCronTicker creates a ticker firing every interval. Cron schedules have
// a resolution of one second.
func NewCronTicker(interval time.Duration, logger *slog.Logger) *CronTicker {
	if logger == nil {
		logger = slog.Default()
	}
	return &CronTicker{
		interval: interval,
		logger:   logger.With("component", "ticker"),
	}
}

// Arm implements Ticker.
func (t *CronTicker) Arm(fn func()) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cron != nil {
		return ErrAlreadyArmed
	}

	cl := cronLogger{logger: t.logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	c.Schedule(cron.Every(t.interval), cron.FuncJob(fn))
	c.Start()
	t.cron = c

	t.logger.Info("ticker: armed", "interval", t.interval.String())
	return nil
}

// Cancel implements Ticker. A call in progress is left to finish.
func (t *CronTicker) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cron == nil {
		return
	}
	t.cron.Stop()
	t.cron = nil
	t.logger.Info("ticker: cancelled")
}

// Armed implements Ticker.
func (t *CronTicker) Armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cron != nil
}

// cronLogger routes cron's internal logging to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
