// Package auth implements the login and logout flows on top of the account
// directory, the lockout tracker, and the session monitor.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/MichaelAJay/go-config"
	"github.com/MichaelAJay/go-logger"
	"github.com/MichaelAJay/go-metrics"
	"github.com/MichaelAJay/go-serializer"

	"github.com/MichaelAJay/go-client-auth/account"
	"github.com/MichaelAJay/go-client-auth/errors"
	"github.com/MichaelAJay/go-client-auth/lockout"
	"github.com/MichaelAJay/go-client-auth/session"
	"github.com/MichaelAJay/go-client-auth/store"
	"github.com/MichaelAJay/go-client-auth/validation"
)

// LoginOutcome classifies the result of a login call. Rejections are
// outcomes, not errors; errors are reserved for infrastructure failures.
type LoginOutcome string

const (
	// LoginOutcomeSuccess means the credentials matched and a session began.
	LoginOutcomeSuccess LoginOutcome = "success"

	// LoginOutcomeInvalidCredentials means the email or password was wrong.
	LoginOutcomeInvalidCredentials LoginOutcome = "invalid_credentials"

	// LoginOutcomeLocked means the email was already locked out; the
	// credentials were never checked.
	LoginOutcomeLocked LoginOutcome = "locked"

	// LoginOutcomeNowLocked means this failure was the one that triggered
	// the lockout.
	LoginOutcomeNowLocked LoginOutcome = "now_locked"
)

// LoginRequest carries the credentials for a login attempt.
type LoginRequest struct {
	// Email is the login identifier, any casing.
	Email string `json:"email"`

	// Password is the plaintext credential.
	Password string `json:"password"`
}

// LoginResult describes what happened to a login attempt.
type LoginResult struct {
	// Outcome classifies the attempt.
	Outcome LoginOutcome `json:"outcome"`

	// Account is the signed-in account on success, nil otherwise.
	// Credential material is stripped.
	Account *account.Account `json:"account,omitempty"`

	// Token is the issued auth token on success.
	Token string `json:"token,omitempty"`

	// RemainingAttempts is how many more failures are allowed before
	// lockout. Set on invalid_credentials.
	RemainingAttempts int `json:"remaining_attempts,omitempty"`

	// LockoutSeconds is the whole seconds left on the lockout. Set on
	// locked and now_locked.
	LockoutSeconds int `json:"lockout_seconds,omitempty"`
}

// Service orchestrates authentication.
//
// Login applies the lockout check strictly before the credential check, so
// a locked-out email learns nothing about whether its password was right.
type Service interface {
	// Login attempts to authenticate and start a session
	Login(ctx context.Context, req *LoginRequest) (*LoginResult, error)

	// Logout ends the active session and clears persisted session state
	Logout(ctx context.Context) error

	// CurrentAccount returns the signed-in account, or nil when none
	CurrentAccount(ctx context.Context) (*account.Account, error)

	// Token returns the persisted auth token, or "" when absent
	Token(ctx context.Context) (string, error)

	// Restore rebuilds the in-memory session from persisted state
	Restore(ctx context.Context) (*account.Account, error)
}

type service struct {
	store      store.Store
	serializer serializer.Serializer
	directory  account.Directory
	tracker    lockout.Tracker
	monitor    *session.Monitor
	logger     logger.Logger
	metrics    metrics.Registry
}

// NewService creates an authentication Service wired to its collaborators.
func NewService(
	kv store.Store,
	directory account.Directory,
	tracker lockout.Tracker,
	monitor *session.Monitor,
	logger logger.Logger,
	cfg config.Config,
	metrics metrics.Registry,
) Service {
	jsonSerializer, err := serializer.DefaultRegistry.New(serializer.JSON)
	if err != nil {
		jsonSerializer = serializer.NewJSONSerializer()
	}

	return &service{
		store:      kv,
		serializer: jsonSerializer,
		directory:  directory,
		tracker:    tracker,
		monitor:    monitor,
		logger:     logger,
		metrics:    metrics,
	}
}

// Login attempts to authenticate with the given credentials.
func (s *service) Login(ctx context.Context, req *LoginRequest) (*LoginResult, error) {
	startTime := time.Now()
	defer func() {
		timer := s.metrics.Timer(metrics.Options{
			Name: "auth_service.login",
		})
		timer.RecordSince(startTime)
	}()

	if req == nil || req.Email == "" || req.Password == "" {
		return nil, errors.NewValidationError("credentials", "email and password are required")
	}

	normalizedEmail := validation.NormalizeEmail(req.Email)
	s.logger.Info("Login attempt", logger.Field{Key: "email", Value: normalizedEmail})

	// Lockout gate comes first. A locked email gets the same answer
	// whether or not its password is correct.
	status, err := s.tracker.CheckLockout(ctx, normalizedEmail)
	if err != nil {
		return nil, err
	}
	if status.Locked {
		s.logger.Warn("Login rejected, account locked",
			logger.Field{Key: "email", Value: normalizedEmail},
			logger.Field{Key: "remaining_seconds", Value: status.RemainingSeconds})
		counter := s.metrics.Counter(metrics.Options{
			Name: "auth_service.login.locked",
		})
		counter.Inc()
		return &LoginResult{
			Outcome:        LoginOutcomeLocked,
			LockoutSeconds: status.RemainingSeconds,
		}, nil
	}

	acct, verifyErr := s.verifyCredentials(ctx, normalizedEmail, req.Password)
	if verifyErr != nil {
		return nil, verifyErr
	}

	if acct == nil {
		return s.handleFailedAttempt(ctx, normalizedEmail)
	}

	if err := s.tracker.ResetOnSuccess(ctx, normalizedEmail); err != nil {
		s.logger.Warn("Failed to reset attempt record",
			logger.Field{Key: "email", Value: normalizedEmail},
			logger.Field{Key: "error", Value: err.Error()})
	}

	token := fmt.Sprintf("token-%s", acct.ID)
	if err := s.persistSession(ctx, acct, token); err != nil {
		return nil, err
	}

	s.monitor.Begin(acct, token)

	safe := acct.Clone()
	safe.PasswordHash = nil

	s.logger.Info("Login successful",
		logger.Field{Key: "account_id", Value: acct.ID},
		logger.Field{Key: "role", Value: acct.Role.String()})
	counter := s.metrics.Counter(metrics.Options{
		Name: "auth_service.login.success",
	})
	counter.Inc()

	return &LoginResult{
		Outcome: LoginOutcomeSuccess,
		Account: safe,
		Token:   token,
	}, nil
}

// verifyCredentials resolves the account and checks the password. A wrong
// email and a wrong password are indistinguishable to the caller: both
// return a nil account.
func (s *service) verifyCredentials(ctx context.Context, normalizedEmail, password string) (*account.Account, error) {
	acct, err := s.directory.FindByEmail(ctx, normalizedEmail)
	if err != nil {
		if errors.GetErrorCode(err) == errors.CodeAccountNotFound {
			return nil, nil
		}
		return nil, err
	}

	valid, err := s.directory.VerifyPassword(ctx, acct, password)
	if err != nil {
		return nil, err
	}
	if !valid {
		return nil, nil
	}
	return acct, nil
}

// handleFailedAttempt records the failure and reports remaining attempts or
// a freshly triggered lockout, both derived from the single updated record.
func (s *service) handleFailedAttempt(ctx context.Context, normalizedEmail string) (*LoginResult, error) {
	record, err := s.tracker.RecordFailure(ctx, normalizedEmail)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if record.IsLocked(now) {
		s.logger.Warn("Login failure triggered lockout",
			logger.Field{Key: "email", Value: normalizedEmail},
			logger.Field{Key: "failed_attempts", Value: record.FailedAttempts})
		counter := s.metrics.Counter(metrics.Options{
			Name: "auth_service.login.now_locked",
		})
		counter.Inc()
		return &LoginResult{
			Outcome:        LoginOutcomeNowLocked,
			LockoutSeconds: record.RemainingSeconds(now),
		}, nil
	}

	remaining := s.tracker.MaxFailedAttempts() - record.FailedAttempts
	if remaining < 0 {
		remaining = 0
	}

	s.logger.Info("Login failed, invalid credentials",
		logger.Field{Key: "email", Value: normalizedEmail},
		logger.Field{Key: "remaining_attempts", Value: remaining})
	counter := s.metrics.Counter(metrics.Options{
		Name: "auth_service.login.invalid_credentials",
	})
	counter.Inc()

	return &LoginResult{
		Outcome:           LoginOutcomeInvalidCredentials,
		RemainingAttempts: remaining,
	}, nil
}

// persistSession writes the session keys so the login survives a restart.
func (s *service) persistSession(ctx context.Context, acct *account.Account, token string) error {
	safe := acct.Clone()
	safe.PasswordHash = nil

	encoded, err := s.serializer.Serialize(safe)
	if err != nil {
		s.logger.Error("Failed to encode session account",
			logger.Field{Key: "error", Value: err.Error()})
		return errors.NewAppError(errors.CodeInternalError, "Failed to encode session account")
	}

	writes := []struct {
		key   string
		value []byte
	}{
		{store.KeyCurrentUser, encoded},
		{store.KeyAuthToken, []byte(token)},
		{store.KeyUserRole, []byte(acct.Role.String())},
		{store.KeyUserName, []byte(acct.Name)},
	}
	for _, write := range writes {
		if err := s.store.Set(ctx, write.key, write.value); err != nil {
			s.logger.Error("Failed to persist session key",
				logger.Field{Key: "key", Value: write.key},
				logger.Field{Key: "error", Value: err.Error()})
			return errors.NewStorageError("persist session", err)
		}
	}
	return nil
}

// Logout ends the active session. It is idempotent: logging out with no
// active session still clears any stale persisted keys.
func (s *service) Logout(ctx context.Context) error {
	startTime := time.Now()
	defer func() {
		timer := s.metrics.Timer(metrics.Options{
			Name: "auth_service.logout",
		})
		timer.RecordSince(startTime)
	}()

	if err := s.monitor.Expire(ctx); err != nil {
		return err
	}

	s.logger.Info("Logout completed")
	counter := s.metrics.Counter(metrics.Options{
		Name: "auth_service.logout.success",
	})
	counter.Inc()

	return nil
}

// CurrentAccount returns the signed-in account from the in-memory session,
// falling back to persisted state. A failed storage read degrades to "no
// session" rather than an error.
func (s *service) CurrentAccount(ctx context.Context) (*account.Account, error) {
	if active := s.monitor.Current(); active != nil {
		return active.Account.Clone(), nil
	}

	data, err := s.store.Get(ctx, store.KeyCurrentUser)
	if err != nil {
		if !errors.IsErrorType(err, errors.ErrKeyNotFound) {
			s.logger.Warn("Failed to read persisted session, treating as absent",
				logger.Field{Key: "error", Value: err.Error()})
		}
		return nil, nil
	}

	var acct account.Account
	if err := s.serializer.Deserialize(data, &acct); err != nil {
		s.logger.Warn("Failed to decode persisted session, treating as absent",
			logger.Field{Key: "error", Value: err.Error()})
		return nil, nil
	}
	return &acct, nil
}

// Token returns the persisted auth token, or "" when absent. A failed
// storage read degrades to absent.
func (s *service) Token(ctx context.Context) (string, error) {
	data, err := s.store.Get(ctx, store.KeyAuthToken)
	if err != nil {
		if !errors.IsErrorType(err, errors.ErrKeyNotFound) {
			s.logger.Warn("Failed to read auth token, treating as absent",
				logger.Field{Key: "error", Value: err.Error()})
		}
		return "", nil
	}
	return string(data), nil
}

// Restore rebuilds the in-memory session from persisted state, for process
// restarts. Returns the restored account, or nil when nothing was persisted.
func (s *service) Restore(ctx context.Context) (*account.Account, error) {
	if active := s.monitor.Current(); active != nil {
		return active.Account.Clone(), nil
	}

	acct, err := s.CurrentAccount(ctx)
	if err != nil || acct == nil {
		return nil, err
	}

	token, err := s.Token(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		token = fmt.Sprintf("token-%s", acct.ID)
	}

	s.monitor.Begin(acct, token)

	s.logger.Info("Session restored from persisted state",
		logger.Field{Key: "account_id", Value: acct.ID})
	counter := s.metrics.Counter(metrics.Options{
		Name: "auth_service.session_restored",
	})
	counter.Inc()

	return acct.Clone(), nil
}
