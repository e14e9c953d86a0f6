package lockout

import (
	"testing"
	"time"
)

func TestRecordFailureBelowThreshold(t *testing.T) {
	record := NewAttemptRecord("user@example.com")

	for i := 1; i <= 4; i++ {
		record.RecordFailure(5, 30*time.Second)
		if record.FailedAttempts != i {
			t.Errorf("after %d failures, count = %d", i, record.FailedAttempts)
		}
		if record.LockedUntil != nil {
			t.Errorf("locked after only %d failures", i)
		}
	}
}

func TestRecordFailureTriggersLockout(t *testing.T) {
	record := NewAttemptRecord("user@example.com")

	for i := 0; i < 5; i++ {
		record.RecordFailure(5, 30*time.Second)
	}

	if record.LockedUntil == nil {
		t.Fatal("expected lockout after 5 failures")
	}

	now := time.Now()
	if !record.IsLocked(now) {
		t.Error("expected record to be locked")
	}

	remaining := record.RemainingSeconds(now)
	if remaining <= 0 || remaining > 30 {
		t.Errorf("remaining seconds = %d, want in (0, 30]", remaining)
	}
}

func TestIsLockedAfterExpiry(t *testing.T) {
	record := NewAttemptRecord("user@example.com")
	past := time.Now().Add(-1 * time.Second)
	record.FailedAttempts = 5
	record.LockedUntil = &past

	if record.IsLocked(time.Now()) {
		t.Error("expected expired lockout to report unlocked")
	}
	if got := record.RemainingSeconds(time.Now()); got != 0 {
		t.Errorf("RemainingSeconds = %d, want 0", got)
	}
}

func TestRemainingSecondsRoundsUp(t *testing.T) {
	record := NewAttemptRecord("user@example.com")
	now := time.Now()
	lockedUntil := now.Add(500 * time.Millisecond)
	record.FailedAttempts = 5
	record.LockedUntil = &lockedUntil

	if got := record.RemainingSeconds(now); got != 1 {
		t.Errorf("RemainingSeconds = %d, want 1 for a sub-second remainder", got)
	}

	lockedUntil = now.Add(29*time.Second + 500*time.Millisecond)
	if got := record.RemainingSeconds(now); got != 30 {
		t.Errorf("RemainingSeconds = %d, want 30", got)
	}
}

func TestRecordClone(t *testing.T) {
	lockedUntil := time.Now().Add(30 * time.Second)
	record := &AttemptRecord{
		Email:          "user@example.com",
		FailedAttempts: 5,
		LockedUntil:    &lockedUntil,
	}

	clone := record.Clone()
	*clone.LockedUntil = time.Time{}

	if record.LockedUntil.IsZero() {
		t.Error("mutating clone affected original")
	}
}
