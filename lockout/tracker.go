package lockout

import (
	"context"
	"time"

	"github.com/MichaelAJay/go-config"
	"github.com/MichaelAJay/go-logger"
	"github.com/MichaelAJay/go-metrics"
	"github.com/MichaelAJay/go-serializer"

	"github.com/MichaelAJay/go-client-auth/errors"
	"github.com/MichaelAJay/go-client-auth/store"
	"github.com/MichaelAJay/go-client-auth/validation"
)

// LockoutStatus is the answer to "may this email attempt a login right now".
type LockoutStatus struct {
	// Locked is true while an unexpired lockout is in effect.
	Locked bool `json:"locked"`

	// RemainingSeconds is the whole seconds left on the lockout, rounded
	// up. Zero when not locked.
	RemainingSeconds int `json:"remaining_seconds"`
}

// Tracker maintains per-email failed attempt records and lockout state.
//
// Expired lockouts are cleaned up lazily: the next CheckLockout after expiry
// removes the record, which also resets the failure count.
type Tracker interface {
	// CheckLockout reports whether the email is currently locked out
	CheckLockout(ctx context.Context, email string) (*LockoutStatus, error)

	// RecordFailure registers a failed attempt and returns the updated record
	RecordFailure(ctx context.Context, email string) (*AttemptRecord, error)

	// ResetOnSuccess clears the attempt record after a successful login
	ResetOnSuccess(ctx context.Context, email string) error

	// GetRecord returns the current attempt record, or nil when none exists
	GetRecord(ctx context.Context, email string) (*AttemptRecord, error)

	// MaxFailedAttempts returns the configured lockout threshold
	MaxFailedAttempts() int
}

// TrackerConfig contains configuration for the Tracker.
type TrackerConfig struct {
	// MaxFailedAttempts is the failure count that triggers a lockout.
	MaxFailedAttempts int `json:"max_failed_attempts" default:"5"`

	// LockoutDuration is how long a triggered lockout lasts.
	LockoutDuration time.Duration `json:"lockout_duration" default:"30s"`
}

// DefaultTrackerConfig returns the stock lockout policy.
func DefaultTrackerConfig() *TrackerConfig {
	return &TrackerConfig{
		MaxFailedAttempts: 5,
		LockoutDuration:   30 * time.Second,
	}
}

type tracker struct {
	store         store.Store
	serializer    serializer.Serializer
	logger        logger.Logger
	metrics       metrics.Registry
	trackerConfig *TrackerConfig

	// now is swappable for tests
	now func() time.Time
}

// NewTracker creates a Tracker with the provided dependencies.
func NewTracker(
	kv store.Store,
	logger logger.Logger,
	cfg config.Config,
	metrics metrics.Registry,
) Tracker {
	trackerConfig := DefaultTrackerConfig()

	if maxAttempts, ok := cfg.GetInt("client_auth.lockout.max_failed_attempts"); ok && maxAttempts > 0 {
		trackerConfig.MaxFailedAttempts = maxAttempts
	}
	if duration, ok := cfg.GetString("client_auth.lockout.duration"); ok {
		if parsed, err := time.ParseDuration(duration); err == nil && parsed > 0 {
			trackerConfig.LockoutDuration = parsed
		}
	}

	jsonSerializer, err := serializer.DefaultRegistry.New(serializer.JSON)
	if err != nil {
		jsonSerializer = serializer.NewJSONSerializer()
	}

	return &tracker{
		store:         kv,
		serializer:    jsonSerializer,
		logger:        logger,
		metrics:       metrics,
		trackerConfig: trackerConfig,
		now:           time.Now,
	}
}

// CheckLockout reports whether the email is currently locked out. An expired
// lockout is removed here, which also resets the failure count to zero.
func (t *tracker) CheckLockout(ctx context.Context, email string) (*LockoutStatus, error) {
	startTime := time.Now()
	defer func() {
		timer := t.metrics.Timer(metrics.Options{
			Name: "lockout_tracker.check_lockout",
		})
		timer.RecordSince(startTime)
	}()

	normalizedEmail := validation.NormalizeEmail(email)
	records := t.loadRecords(ctx)

	record, exists := records[normalizedEmail]
	if !exists {
		return &LockoutStatus{}, nil
	}

	now := t.now()
	if record.IsLocked(now) {
		counter := t.metrics.Counter(metrics.Options{
			Name: "lockout_tracker.check_lockout.locked",
		})
		counter.Inc()
		return &LockoutStatus{
			Locked:           true,
			RemainingSeconds: record.RemainingSeconds(now),
		}, nil
	}

	// Lazy expiry: a record whose lockout has elapsed is dropped so the
	// next failure starts counting from one again.
	if record.LockedUntil != nil {
		delete(records, normalizedEmail)
		if err := t.saveRecords(ctx, records); err != nil {
			return nil, err
		}
		t.logger.Debug("Expired lockout cleared",
			logger.Field{Key: "email", Value: normalizedEmail})
		counter := t.metrics.Counter(metrics.Options{
			Name: "lockout_tracker.lockout_expired",
		})
		counter.Inc()
	}

	return &LockoutStatus{}, nil
}

// RecordFailure registers a failed attempt and returns the updated record so
// the caller can report remaining attempts from a single consistent read.
func (t *tracker) RecordFailure(ctx context.Context, email string) (*AttemptRecord, error) {
	startTime := time.Now()
	defer func() {
		timer := t.metrics.Timer(metrics.Options{
			Name: "lockout_tracker.record_failure",
		})
		timer.RecordSince(startTime)
	}()

	normalizedEmail := validation.NormalizeEmail(email)
	records := t.loadRecords(ctx)

	record, exists := records[normalizedEmail]
	if !exists {
		record = NewAttemptRecord(normalizedEmail)
		records[normalizedEmail] = record
	}

	record.RecordFailure(t.trackerConfig.MaxFailedAttempts, t.trackerConfig.LockoutDuration)

	if err := t.saveRecords(ctx, records); err != nil {
		return nil, err
	}

	if record.LockedUntil != nil {
		t.logger.Warn("Account locked after repeated failures",
			logger.Field{Key: "email", Value: normalizedEmail},
			logger.Field{Key: "failed_attempts", Value: record.FailedAttempts},
			logger.Field{Key: "locked_until", Value: record.LockedUntil.Format(time.RFC3339)})
		counter := t.metrics.Counter(metrics.Options{
			Name: "lockout_tracker.lockout_triggered",
		})
		counter.Inc()
	} else {
		t.logger.Debug("Failed attempt recorded",
			logger.Field{Key: "email", Value: normalizedEmail},
			logger.Field{Key: "failed_attempts", Value: record.FailedAttempts})
	}

	counter := t.metrics.Counter(metrics.Options{
		Name: "lockout_tracker.failure_recorded",
	})
	counter.Inc()

	return record.Clone(), nil
}

// ResetOnSuccess clears the attempt record after a successful login.
// Absent records are a no-op.
func (t *tracker) ResetOnSuccess(ctx context.Context, email string) error {
	normalizedEmail := validation.NormalizeEmail(email)
	records := t.loadRecords(ctx)

	if _, exists := records[normalizedEmail]; !exists {
		return nil
	}

	delete(records, normalizedEmail)
	if err := t.saveRecords(ctx, records); err != nil {
		return err
	}

	t.logger.Debug("Attempt record reset after successful login",
		logger.Field{Key: "email", Value: normalizedEmail})
	counter := t.metrics.Counter(metrics.Options{
		Name: "lockout_tracker.reset_on_success",
	})
	counter.Inc()

	return nil
}

// GetRecord returns the current attempt record, or nil when none exists.
func (t *tracker) GetRecord(ctx context.Context, email string) (*AttemptRecord, error) {
	normalizedEmail := validation.NormalizeEmail(email)
	records := t.loadRecords(ctx)

	record, exists := records[normalizedEmail]
	if !exists {
		return nil, nil
	}
	return record.Clone(), nil
}

// MaxFailedAttempts exposes the configured threshold so callers can compute
// remaining attempts from a record.
func (t *tracker) MaxFailedAttempts() int {
	return t.trackerConfig.MaxFailedAttempts
}

// loadRecords reads the persisted attempt map. Missing keys and failed reads
// both degrade to an empty map so login availability never hinges on this
// bookkeeping being readable.
func (t *tracker) loadRecords(ctx context.Context) map[string]*AttemptRecord {
	records := make(map[string]*AttemptRecord)

	data, err := t.store.Get(ctx, store.KeyLoginAttempts)
	if err != nil {
		if !errors.IsErrorType(err, errors.ErrKeyNotFound) {
			t.logger.Warn("Failed to read attempt records, degrading to empty",
				logger.Field{Key: "error", Value: err.Error()})
			counter := t.metrics.Counter(metrics.Options{
				Name: "lockout_tracker.load.storage_error",
			})
			counter.Inc()
		}
		return records
	}

	if err := t.serializer.Deserialize(data, &records); err != nil {
		t.logger.Warn("Failed to decode attempt records, degrading to empty",
			logger.Field{Key: "error", Value: err.Error()})
		return make(map[string]*AttemptRecord)
	}
	return records
}

// saveRecords persists the attempt map. An empty map removes the key.
func (t *tracker) saveRecords(ctx context.Context, records map[string]*AttemptRecord) error {
	if len(records) == 0 {
		if err := t.store.Delete(ctx, store.KeyLoginAttempts); err != nil {
			t.logger.Error("Failed to remove attempt records",
				logger.Field{Key: "error", Value: err.Error()})
			return errors.NewStorageError("delete attempt records", err)
		}
		return nil
	}

	data, err := t.serializer.Serialize(records)
	if err != nil {
		t.logger.Error("Failed to encode attempt records",
			logger.Field{Key: "error", Value: err.Error()})
		return errors.NewAppError(errors.CodeInternalError, "Failed to encode attempt records")
	}

	if err := t.store.Set(ctx, store.KeyLoginAttempts, data); err != nil {
		t.logger.Error("Failed to persist attempt records",
			logger.Field{Key: "error", Value: err.Error()})
		return errors.NewStorageError("save attempt records", err)
	}
	return nil
}
