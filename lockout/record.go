package lockout

import (
	"time"
)

// AttemptRecord tracks failed login attempts for one email address.
// Records exist only while there is something to track; a successful login
// or an expired lockout removes the record entirely.
type AttemptRecord struct {
	// Email is the normalized email the attempts were made against.
	Email string `json:"email"`

	// FailedAttempts is the consecutive failure count.
	FailedAttempts int `json:"failed_attempts"`

	// LastFailedAttempt is when the most recent failure happened.
	LastFailedAttempt time.Time `json:"last_failed_attempt"`

	// LockedUntil is the lockout expiry, nil when not locked.
	LockedUntil *time.Time `json:"locked_until,omitempty"`
}

// NewAttemptRecord creates an empty record for an email.
func NewAttemptRecord(email string) *AttemptRecord {
	return &AttemptRecord{Email: email}
}

// RecordFailure increments the failure count and, once the count reaches
// maxAttempts, starts a lockout of the given duration.
func (r *AttemptRecord) RecordFailure(maxAttempts int, lockoutDuration time.Duration) {
	now := time.Now()
	r.FailedAttempts++
	r.LastFailedAttempt = now

	if r.FailedAttempts >= maxAttempts {
		lockedUntil := now.Add(lockoutDuration)
		r.LockedUntil = &lockedUntil
	}
}

// IsLocked reports whether the record holds an unexpired lockout at the
// given instant.
func (r *AttemptRecord) IsLocked(now time.Time) bool {
	return r.LockedUntil != nil && now.Before(*r.LockedUntil)
}

// RemainingSeconds returns the whole seconds left on the lockout, rounded
// up so a lockout with any time left never reports zero. Returns 0 when
// not locked.
func (r *AttemptRecord) RemainingSeconds(now time.Time) int {
	if !r.IsLocked(now) {
		return 0
	}
	remaining := r.LockedUntil.Sub(now)
	seconds := int((remaining + time.Second - 1) / time.Second)
	return seconds
}

// Clone creates a deep copy of the record.
func (r *AttemptRecord) Clone() *AttemptRecord {
	clone := *r
	if r.LockedUntil != nil {
		lockedUntil := *r.LockedUntil
		clone.LockedUntil = &lockedUntil
	}
	return &clone
}
