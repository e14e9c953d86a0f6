package account

import (
	"context"
	"fmt"
	"time"

	"github.com/MichaelAJay/go-cache"
	"github.com/MichaelAJay/go-config"
	"github.com/MichaelAJay/go-encrypter"
	"github.com/MichaelAJay/go-logger"
	"github.com/MichaelAJay/go-metrics"
	"github.com/MichaelAJay/go-serializer"

	"github.com/MichaelAJay/go-client-auth/errors"
	"github.com/MichaelAJay/go-client-auth/store"
	"github.com/MichaelAJay/go-client-auth/validation"
)

// Directory provides the business logic for the local account collection.
// It orchestrates validation, credential hashing, persistence, and caching.
type Directory interface {
	// Bootstrap seeds the default accounts when no collection is persisted
	Bootstrap(ctx context.Context) error

	// CreateAccount registers a new account
	CreateAccount(ctx context.Context, req *CreateAccountRequest) (*Account, error)

	// FindByEmail retrieves an account by email, case-insensitively
	FindByEmail(ctx context.Context, email string) (*Account, error)

	// GetByID retrieves an account by its ID
	GetByID(ctx context.Context, id string) (*Account, error)

	// UpdateAccount applies a partial update to an account
	UpdateAccount(ctx context.Context, id string, req *UpdateAccountRequest) (*Account, error)

	// DeleteAccount removes an account; removing an absent ID is a no-op
	DeleteAccount(ctx context.Context, id string) error

	// ListAccounts returns all accounts in load order
	ListAccounts(ctx context.Context) ([]*Account, error)

	// VerifyPassword checks a plaintext password against an account's hash
	VerifyPassword(ctx context.Context, acct *Account, password string) (bool, error)

	// SetSessionRefresher attaches the session collaboration after construction
	SetSessionRefresher(refresher SessionRefresher)
}

// SessionRefresher is notified when the account behind the active session
// changes, so the session's cached identity stays consistent.
type SessionRefresher interface {
	// ActiveAccountID returns the ID of the signed-in account, or "" when
	// no session is active.
	ActiveAccountID() string

	// RefreshIdentity replaces the session's cached account copy.
	RefreshIdentity(ctx context.Context, acct *Account) error
}

// DirectoryConfig contains configuration for the Directory.
type DirectoryConfig struct {
	// CacheTTL bounds how long account lookups are served from cache.
	CacheTTL time.Duration `json:"cache_ttl" default:"15m"`

	// SeedDefaults controls whether Bootstrap seeds the well-known
	// default accounts into an empty store.
	SeedDefaults bool `json:"seed_defaults" default:"true"`
}

// seedAccount describes one of the default accounts created on first run so
// the application is usable without a registration step.
type seedAccount struct {
	id       string
	name     string
	email    string
	password string
	role     Role
}

var defaultSeeds = []seedAccount{
	{id: "1", name: "Admin User", email: "admin@example.com", password: "admin123", role: RoleAdmin},
	{id: "2", name: "Regular User", email: "user@example.com", password: "user123", role: RoleUser},
}

// directory implements the Directory interface.
type directory struct {
	store             store.Store
	serializer        serializer.Serializer
	encrypter         encrypter.Encrypter
	logger            logger.Logger
	cache             cache.Cache
	metrics           metrics.Registry
	emailValidator    *validation.EmailValidator
	passwordValidator *validation.PasswordValidator
	directoryConfig   *DirectoryConfig
	refresher         SessionRefresher
}

// NewDirectory creates a new Directory instance with the provided dependencies.
func NewDirectory(
	kv store.Store,
	encrypter encrypter.Encrypter,
	logger logger.Logger,
	cache cache.Cache,
	cfg config.Config,
	metrics metrics.Registry,
) Directory {
	directoryConfig := &DirectoryConfig{
		CacheTTL:     15 * time.Minute,
		SeedDefaults: true,
	}

	if ttl, ok := cfg.GetString("client_auth.directory.cache_ttl"); ok {
		if parsed, err := time.ParseDuration(ttl); err == nil {
			directoryConfig.CacheTTL = parsed
		}
	}
	if seed, ok := cfg.GetBool("client_auth.directory.seed_defaults"); ok {
		directoryConfig.SeedDefaults = seed
	}

	jsonSerializer, err := serializer.DefaultRegistry.New(serializer.JSON)
	if err != nil {
		jsonSerializer = serializer.NewJSONSerializer()
	}

	return &directory{
		store:             kv,
		serializer:        jsonSerializer,
		encrypter:         encrypter,
		logger:            logger,
		cache:             cache,
		metrics:           metrics,
		emailValidator:    validation.NewEmailValidator(),
		passwordValidator: validation.NewPasswordValidator(),
		directoryConfig:   directoryConfig,
	}
}

// SetSessionRefresher wires the session collaboration after construction.
// The Directory and the session monitor reference each other, so one side
// has to be attached late.
func (d *directory) SetSessionRefresher(refresher SessionRefresher) {
	d.refresher = refresher
}

// Bootstrap seeds the default accounts when no collection is persisted.
func (d *directory) Bootstrap(ctx context.Context) error {
	if !d.directoryConfig.SeedDefaults {
		return nil
	}

	if _, err := d.store.Get(ctx, store.KeyAccounts); err == nil {
		return nil
	} else if !errors.IsErrorType(err, errors.ErrKeyNotFound) {
		// Degrade: a failed read must not make the app unusable. Seeding
		// over an unreadable collection is the lesser harm here.
		d.logger.Warn("Failed to read account collection during bootstrap",
			logger.Field{Key: "error", Value: err.Error()})
	}

	seeds := make([]*Account, 0, len(defaultSeeds))
	for _, seed := range defaultSeeds {
		hash, err := d.encrypter.HashPassword([]byte(seed.password))
		if err != nil {
			d.logger.Error("Failed to hash seed password",
				logger.Field{Key: "email", Value: seed.email},
				logger.Field{Key: "error", Value: err.Error()})
			return errors.NewAppError(errors.CodeInternalError, "Failed to seed default accounts")
		}
		seeds = append(seeds, &Account{
			ID:           seed.id,
			Name:         seed.name,
			Email:        seed.email,
			PasswordHash: hash,
			Role:         seed.role,
			CreatedAt:    time.Now(),
		})
	}

	if err := d.saveCollection(ctx, seeds); err != nil {
		return err
	}

	d.logger.Info("Seeded default accounts", logger.Field{Key: "count", Value: len(seeds)})
	counter := d.metrics.Counter(metrics.Options{
		Name: "account_directory.bootstrap.seeded",
	})
	counter.Inc()

	return nil
}

// CreateAccount registers a new account with validation and credential hashing.
func (d *directory) CreateAccount(ctx context.Context, req *CreateAccountRequest) (*Account, error) {
	startTime := time.Now()
	defer func() {
		timer := d.metrics.Timer(metrics.Options{
			Name: "account_directory.create_account",
		})
		timer.RecordSince(startTime)
	}()

	if err := d.validateCreateRequest(req); err != nil {
		counter := d.metrics.Counter(metrics.Options{
			Name: "account_directory.create_account.validation_error",
		})
		counter.Inc()
		return nil, err
	}

	d.logger.Info("Creating new account", logger.Field{Key: "email", Value: req.Email})

	normalizedEmail := d.emailValidator.NormalizeEmail(req.Email)

	accounts, err := d.loadCollection(ctx)
	if err != nil {
		return nil, err
	}

	if findByEmail(accounts, normalizedEmail) != nil {
		counter := d.metrics.Counter(metrics.Options{
			Name: "account_directory.create_account.duplicate_email",
		})
		counter.Inc()
		return nil, errors.NewDuplicateAccountError(req.Email)
	}

	hash, err := d.encrypter.HashPassword([]byte(req.Password))
	if err != nil {
		d.logger.Error("Failed to hash password", logger.Field{Key: "error", Value: err.Error()})
		return nil, errors.NewAppError(errors.CodeInternalError, "Failed to process credentials")
	}

	acct := NewAccount(req.Name, normalizedEmail, hash, req.Role)
	accounts = append(accounts, acct)

	if err := d.saveCollection(ctx, accounts); err != nil {
		counter := d.metrics.Counter(metrics.Options{
			Name: "account_directory.create_account.storage_error",
		})
		counter.Inc()
		return nil, err
	}

	d.cacheAccount(ctx, acct)

	d.logger.Info("Account created successfully",
		logger.Field{Key: "account_id", Value: acct.ID},
		logger.Field{Key: "email", Value: normalizedEmail},
		logger.Field{Key: "role", Value: acct.Role.String()})
	counter := d.metrics.Counter(metrics.Options{
		Name: "account_directory.create_account.success",
	})
	counter.Inc()

	return acct.Clone(), nil
}

// FindByEmail retrieves an account by email, case-insensitively.
func (d *directory) FindByEmail(ctx context.Context, email string) (*Account, error) {
	startTime := time.Now()
	defer func() {
		timer := d.metrics.Timer(metrics.Options{
			Name: "account_directory.find_by_email",
		})
		timer.RecordSince(startTime)
	}()

	if email == "" {
		return nil, errors.NewValidationError("email", "email is required")
	}

	normalizedEmail := d.emailValidator.NormalizeEmail(email)

	if acct := d.getCachedAccount(ctx, emailCacheKey(normalizedEmail)); acct != nil {
		counter := d.metrics.Counter(metrics.Options{
			Name: "account_directory.find_by_email.cache_hit",
		})
		counter.Inc()
		return acct.Clone(), nil
	}

	accounts, err := d.loadCollection(ctx)
	if err != nil {
		return nil, err
	}

	acct := findByEmail(accounts, normalizedEmail)
	if acct == nil {
		counter := d.metrics.Counter(metrics.Options{
			Name: "account_directory.find_by_email.not_found",
		})
		counter.Inc()
		return nil, errors.NewAccountNotFoundError(normalizedEmail)
	}

	d.cacheAccount(ctx, acct)
	return acct.Clone(), nil
}

// GetByID retrieves an account by its ID.
func (d *directory) GetByID(ctx context.Context, id string) (*Account, error) {
	if id == "" {
		return nil, errors.NewValidationError("id", "account ID is required")
	}

	if acct := d.getCachedAccount(ctx, idCacheKey(id)); acct != nil {
		counter := d.metrics.Counter(metrics.Options{
			Name: "account_directory.get_by_id.cache_hit",
		})
		counter.Inc()
		return acct.Clone(), nil
	}

	accounts, err := d.loadCollection(ctx)
	if err != nil {
		return nil, err
	}

	acct := findByID(accounts, id)
	if acct == nil {
		return nil, errors.NewAccountNotFoundError(id)
	}

	d.cacheAccount(ctx, acct)
	return acct.Clone(), nil
}

// UpdateAccount applies a partial update to an account.
func (d *directory) UpdateAccount(ctx context.Context, id string, req *UpdateAccountRequest) (*Account, error) {
	startTime := time.Now()
	defer func() {
		timer := d.metrics.Timer(metrics.Options{
			Name: "account_directory.update_account",
		})
		timer.RecordSince(startTime)
	}()

	d.logger.Info("Updating account", logger.Field{Key: "account_id", Value: id})

	if id == "" {
		return nil, errors.NewValidationError("id", "account ID is required")
	}
	if req == nil || req.IsEmpty() {
		return nil, errors.NewValidationError("request", "no fields to update")
	}

	accounts, err := d.loadCollection(ctx)
	if err != nil {
		return nil, err
	}

	acct := findByID(accounts, id)
	if acct == nil {
		counter := d.metrics.Counter(metrics.Options{
			Name: "account_directory.update_account.not_found",
		})
		counter.Inc()
		return nil, errors.NewAccountNotFoundError(id)
	}

	previousEmail := acct.Email

	if req.Name != nil {
		acct.Name = *req.Name
	}

	if req.Email != nil {
		if err := d.emailValidator.ValidateEmail(*req.Email); err != nil {
			return nil, err
		}
		normalizedEmail := d.emailValidator.NormalizeEmail(*req.Email)
		if existing := findByEmail(accounts, normalizedEmail); existing != nil && existing.ID != id {
			counter := d.metrics.Counter(metrics.Options{
				Name: "account_directory.update_account.duplicate_email",
			})
			counter.Inc()
			return nil, errors.NewDuplicateAccountError(*req.Email)
		}
		acct.Email = normalizedEmail
	}

	if req.Password != nil {
		if err := d.passwordValidator.ValidatePassword(*req.Password); err != nil {
			return nil, err
		}
		hash, err := d.encrypter.HashPassword([]byte(*req.Password))
		if err != nil {
			d.logger.Error("Failed to hash password", logger.Field{Key: "error", Value: err.Error()})
			return nil, errors.NewAppError(errors.CodeInternalError, "Failed to process credentials")
		}
		acct.PasswordHash = hash
	}

	if req.Role != nil {
		if !req.Role.IsValid() {
			return nil, errors.NewValidationError("role", fmt.Sprintf("unknown role: %s", *req.Role))
		}
		acct.Role = *req.Role
	}

	if err := d.saveCollection(ctx, accounts); err != nil {
		counter := d.metrics.Counter(metrics.Options{
			Name: "account_directory.update_account.storage_error",
		})
		counter.Inc()
		return nil, err
	}

	d.invalidateAccount(ctx, id, previousEmail)
	d.cacheAccount(ctx, acct)

	// Keep the active session's cached identity in sync with the directory.
	if d.refresher != nil && d.refresher.ActiveAccountID() == id {
		if err := d.refresher.RefreshIdentity(ctx, acct.Clone()); err != nil {
			d.logger.Warn("Failed to refresh session identity",
				logger.Field{Key: "account_id", Value: id},
				logger.Field{Key: "error", Value: err.Error()})
		}
	}

	d.logger.Info("Account updated successfully", logger.Field{Key: "account_id", Value: id})
	counter := d.metrics.Counter(metrics.Options{
		Name: "account_directory.update_account.success",
	})
	counter.Inc()

	return acct.Clone(), nil
}

// DeleteAccount removes an account. Removing an absent ID is a no-op.
func (d *directory) DeleteAccount(ctx context.Context, id string) error {
	startTime := time.Now()
	defer func() {
		timer := d.metrics.Timer(metrics.Options{
			Name: "account_directory.delete_account",
		})
		timer.RecordSince(startTime)
	}()

	if id == "" {
		return errors.NewValidationError("id", "account ID is required")
	}

	accounts, err := d.loadCollection(ctx)
	if err != nil {
		return err
	}

	kept := make([]*Account, 0, len(accounts))
	var removed *Account
	for _, acct := range accounts {
		if acct.ID == id {
			removed = acct
			continue
		}
		kept = append(kept, acct)
	}

	if removed == nil {
		return nil
	}

	if err := d.saveCollection(ctx, kept); err != nil {
		return err
	}

	d.invalidateAccount(ctx, removed.ID, removed.Email)

	d.logger.Info("Account deleted",
		logger.Field{Key: "account_id", Value: id},
		logger.Field{Key: "email", Value: removed.Email})
	counter := d.metrics.Counter(metrics.Options{
		Name: "account_directory.delete_account.success",
	})
	counter.Inc()

	return nil
}

// ListAccounts returns all accounts in load order.
func (d *directory) ListAccounts(ctx context.Context) ([]*Account, error) {
	accounts, err := d.loadCollection(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*Account, len(accounts))
	for i, acct := range accounts {
		out[i] = acct.Clone()
	}
	return out, nil
}

// VerifyPassword checks a plaintext password against an account's hash.
func (d *directory) VerifyPassword(ctx context.Context, acct *Account, password string) (bool, error) {
	valid, err := d.encrypter.VerifyPassword(acct.PasswordHash, []byte(password))
	if err != nil {
		d.logger.Error("Failed to verify password",
			logger.Field{Key: "account_id", Value: acct.ID},
			logger.Field{Key: "error", Value: err.Error()})
		return false, err
	}
	return valid, nil
}

// validateCreateRequest validates the create account request.
func (d *directory) validateCreateRequest(req *CreateAccountRequest) error {
	if req == nil {
		return errors.NewValidationError("request", "request is required")
	}

	if req.Name == "" {
		return errors.NewValidationError("name", "name is required")
	}

	if err := d.emailValidator.ValidateEmail(req.Email); err != nil {
		return err
	}

	if err := d.passwordValidator.ValidatePassword(req.Password); err != nil {
		return err
	}

	if !req.Role.IsValid() {
		return errors.NewValidationError("role", fmt.Sprintf("unknown role: %s", req.Role))
	}

	return nil
}

// loadCollection reads the persisted account collection. A missing key is an
// empty collection; a failed read degrades to empty with a logged warning
// rather than failing the caller.
func (d *directory) loadCollection(ctx context.Context) ([]*Account, error) {
	data, err := d.store.Get(ctx, store.KeyAccounts)
	if err != nil {
		if errors.IsErrorType(err, errors.ErrKeyNotFound) {
			return []*Account{}, nil
		}
		d.logger.Warn("Failed to read account collection, degrading to empty",
			logger.Field{Key: "error", Value: err.Error()})
		counter := d.metrics.Counter(metrics.Options{
			Name: "account_directory.load.storage_error",
		})
		counter.Inc()
		return []*Account{}, nil
	}

	var accounts []*Account
	if err := d.serializer.Deserialize(data, &accounts); err != nil {
		d.logger.Error("Failed to decode account collection",
			logger.Field{Key: "error", Value: err.Error()})
		return nil, errors.NewAppError(errors.CodeInternalError, "Failed to decode account collection")
	}
	return accounts, nil
}

// saveCollection persists the full account collection.
func (d *directory) saveCollection(ctx context.Context, accounts []*Account) error {
	data, err := d.serializer.Serialize(accounts)
	if err != nil {
		d.logger.Error("Failed to encode account collection",
			logger.Field{Key: "error", Value: err.Error()})
		return errors.NewAppError(errors.CodeInternalError, "Failed to encode account collection")
	}

	if err := d.store.Set(ctx, store.KeyAccounts, data); err != nil {
		d.logger.Error("Failed to persist account collection",
			logger.Field{Key: "error", Value: err.Error()})
		return errors.NewStorageError("save accounts", err)
	}
	return nil
}

// cacheAccount stores an account under both its lookup keys.
func (d *directory) cacheAccount(ctx context.Context, acct *Account) {
	clone := acct.Clone()
	if err := d.cache.Set(ctx, idCacheKey(acct.ID), clone, d.directoryConfig.CacheTTL); err != nil {
		d.logger.Warn("Failed to cache account",
			logger.Field{Key: "account_id", Value: acct.ID},
			logger.Field{Key: "error", Value: err.Error()})
	}
	if err := d.cache.Set(ctx, emailCacheKey(acct.Email), clone, d.directoryConfig.CacheTTL); err != nil {
		d.logger.Warn("Failed to cache account by email",
			logger.Field{Key: "account_id", Value: acct.ID},
			logger.Field{Key: "error", Value: err.Error()})
	}
}

// getCachedAccount retrieves an account from cache.
func (d *directory) getCachedAccount(ctx context.Context, key string) *Account {
	cached, _, err := d.cache.Get(ctx, key)
	if err != nil {
		return nil
	}
	if acct, ok := cached.(*Account); ok {
		return acct
	}
	return nil
}

// invalidateAccount drops both cache entries for an account.
func (d *directory) invalidateAccount(ctx context.Context, id, email string) {
	if err := d.cache.Delete(ctx, idCacheKey(id)); err != nil {
		d.logger.Warn("Failed to invalidate account cache",
			logger.Field{Key: "account_id", Value: id},
			logger.Field{Key: "error", Value: err.Error()})
	}
	if err := d.cache.Delete(ctx, emailCacheKey(email)); err != nil {
		d.logger.Warn("Failed to invalidate account email cache",
			logger.Field{Key: "account_id", Value: id},
			logger.Field{Key: "error", Value: err.Error()})
	}
}

func idCacheKey(id string) string {
	return fmt.Sprintf("account:%s", id)
}

func emailCacheKey(email string) string {
	return fmt.Sprintf("account:email:%s", email)
}

func findByEmail(accounts []*Account, normalizedEmail string) *Account {
	for _, acct := range accounts {
		if validation.NormalizeEmail(acct.Email) == normalizedEmail {
			return acct
		}
	}
	return nil
}

func findByID(accounts []*Account, id string) *Account {
	for _, acct := range accounts {
		if acct.ID == id {
			return acct
		}
	}
	return nil
}
