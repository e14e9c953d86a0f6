package session

import (
	"context"
	"time"

	"github.com/MichaelAJay/go-config"
	"github.com/MichaelAJay/go-logger"
	"github.com/MichaelAJay/go-metrics"
)

const (
	// DefaultPollInterval is how often the Watcher samples the Monitor.
	DefaultPollInterval = 1 * time.Second

	// DefaultWarningThreshold is the remaining-idle window inside which
	// OnWarning fires.
	DefaultWarningThreshold = 10 * time.Second
)

// WatcherCallbacks are invoked from the Watcher's goroutine.
type WatcherCallbacks struct {
	// OnWarning fires once per approach to expiry, when the remaining
	// idle time first drops inside the warning threshold.
	OnWarning func(remainingSeconds int)

	// OnExpired fires once when the idle timeout elapses, after the
	// session has been expired and its persisted keys cleared.
	OnExpired func()
}

// Watcher polls a Monitor and drives the warning and expiry callbacks.
//
// The poll loop owns expiry: when the idle timeout elapses it calls
// Monitor.Expire before invoking OnExpired, so callbacks always observe the
// session already gone.
type Watcher struct {
	monitor   *Monitor
	logger    logger.Logger
	metrics   metrics.Registry
	callbacks WatcherCallbacks

	pollInterval     time.Duration
	warningThreshold time.Duration
}

// NewWatcher creates a Watcher over the given Monitor.
func NewWatcher(
	monitor *Monitor,
	logger logger.Logger,
	cfg config.Config,
	metrics metrics.Registry,
	callbacks WatcherCallbacks,
) *Watcher {
	pollInterval := DefaultPollInterval
	if value, ok := cfg.GetString("client_auth.session.poll_interval"); ok {
		if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
			pollInterval = parsed
		}
	}

	warningThreshold := DefaultWarningThreshold
	if value, ok := cfg.GetString("client_auth.session.warning_threshold"); ok {
		if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
			warningThreshold = parsed
		}
	}

	return &Watcher{
		monitor:          monitor,
		logger:           logger,
		metrics:          metrics,
		callbacks:        callbacks,
		pollInterval:     pollInterval,
		warningThreshold: warningThreshold,
	}
}

// Run polls until ctx is cancelled. It is intended to run in its own
// goroutine for the lifetime of the application.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	warned := false

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("Session watcher stopped")
			return
		case <-ticker.C:
			warned = w.poll(ctx, warned)
		}
	}
}

// poll runs one sample of the Monitor. The returned flag carries the
// "warning already fired" state between ticks; it resets whenever activity
// pushes the session back out of the warning window or the session ends.
func (w *Watcher) poll(ctx context.Context, warned bool) bool {
	if w.monitor.Current() == nil {
		return false
	}

	if w.monitor.IsExpired() {
		if err := w.monitor.Expire(ctx); err != nil {
			w.logger.Error("Failed to expire idle session",
				logger.Field{Key: "error", Value: err.Error()})
		}

		w.logger.Info("Session expired after idle timeout")
		counter := w.metrics.Counter(metrics.Options{
			Name: "session_watcher.expired",
		})
		counter.Inc()

		if w.callbacks.OnExpired != nil {
			w.callbacks.OnExpired()
		}
		return false
	}

	remaining := w.monitor.RemainingIdleSeconds()
	inWarningWindow := time.Duration(remaining)*time.Second <= w.warningThreshold

	if inWarningWindow && !warned {
		w.logger.Debug("Session nearing idle timeout",
			logger.Field{Key: "remaining_seconds", Value: remaining})
		counter := w.metrics.Counter(metrics.Options{
			Name: "session_watcher.warning",
		})
		counter.Inc()

		if w.callbacks.OnWarning != nil {
			w.callbacks.OnWarning(remaining)
		}
		return true
	}

	if !inWarningWindow {
		return false
	}
	return warned
}
