package errors

import (
	"errors"
	"fmt"
)

// Core error definitions for the client auth package
// These errors provide specific context for different failure scenarios

// Account-related errors
var (
	// ErrAccountNotFound indicates the requested account was not found
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidAccountID indicates the provided account ID is invalid
	ErrInvalidAccountID = errors.New("invalid account ID")

	// ErrInvalidEmail indicates the provided email is invalid
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrInvalidRole indicates the account role is invalid
	ErrInvalidRole = errors.New("invalid account role")

	// ErrDuplicateAccount indicates an attempt to create an account with an existing email
	ErrDuplicateAccount = errors.New("account with this email already exists")

	// ErrWeakPassword indicates the password does not meet strength requirements
	ErrWeakPassword = errors.New("password does not meet strength requirements")
)

// Authentication-related errors
var (
	// ErrInvalidCredentials indicates the provided credentials are invalid
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountLocked indicates the account is locked due to failed login attempts
	ErrAccountLocked = errors.New("account locked due to too many failed attempts")

	// ErrAuthenticationFailed indicates authentication failed for an unspecified reason
	ErrAuthenticationFailed = errors.New("authentication failed")
)

// Session-related errors
var (
	// ErrNoActiveSession indicates there is no active session
	ErrNoActiveSession = errors.New("no active session")

	// ErrSessionExpired indicates the session has expired
	ErrSessionExpired = errors.New("session has expired")
)

// Validation-related errors
var (
	// ErrValidationFailed indicates general validation failure
	ErrValidationFailed = errors.New("validation failed")

	// ErrRequiredFieldMissing indicates a required field is missing
	ErrRequiredFieldMissing = errors.New("required field is missing")
)

// Storage errors
var (
	// ErrKeyNotFound indicates the requested key is not present in the store
	ErrKeyNotFound = errors.New("key not found")

	// ErrStorageFailure indicates a store read or write failed
	ErrStorageFailure = errors.New("storage operation failed")

	// ErrStoreClosed indicates the store has already been closed
	ErrStoreClosed = errors.New("store is closed")

	// ErrCacheMiss indicates a cache miss occurred
	ErrCacheMiss = errors.New("cache miss")
)

// ErrorCode represents standardized error codes for caller-facing results
type ErrorCode string

const (
	// Account error codes
	CodeAccountNotFound  ErrorCode = "ACCOUNT_NOT_FOUND"
	CodeDuplicateAccount ErrorCode = "DUPLICATE_ACCOUNT"
	CodeInvalidRole      ErrorCode = "INVALID_ROLE"
	CodeWeakPassword     ErrorCode = "WEAK_PASSWORD"

	// Authentication error codes
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeAccountLocked      ErrorCode = "ACCOUNT_LOCKED"

	// Session error codes
	CodeNoActiveSession ErrorCode = "NO_ACTIVE_SESSION"
	CodeSessionExpired  ErrorCode = "SESSION_EXPIRED"

	// Validation error codes
	CodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	CodeInvalidEmailFormat ErrorCode = "INVALID_EMAIL_FORMAT"

	// System error codes
	CodeStorageFailure ErrorCode = "STORAGE_FAILURE"
	CodeInternalError  ErrorCode = "INTERNAL_ERROR"
)

// AppError represents a structured application error with context
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"` // Don't serialize the underlying error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error wrapping
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new AppError with the given code and message
func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// NewAppErrorWithCause creates a new AppError with an underlying cause
func NewAppErrorWithCause(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewAppErrorWithDetails creates a new AppError with additional details
func NewAppErrorWithDetails(code ErrorCode, message, details string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Helper functions to create common errors with proper codes

// NewAccountNotFoundError creates an account not found error
func NewAccountNotFoundError(id string) *AppError {
	return NewAppErrorWithDetails(CodeAccountNotFound, "Account not found", fmt.Sprintf("Account ID: %s", id))
}

// NewDuplicateAccountError creates a duplicate account error
func NewDuplicateAccountError(email string) *AppError {
	return NewAppErrorWithDetails(CodeDuplicateAccount, "Account with this email already exists", fmt.Sprintf("Email: %s", email))
}

// NewInvalidCredentialsError creates an invalid credentials error
func NewInvalidCredentialsError() *AppError {
	return NewAppError(CodeInvalidCredentials, "Invalid email or password")
}

// NewAccountLockedError creates an account locked error
func NewAccountLockedError(remainingSeconds int) *AppError {
	return NewAppErrorWithDetails(CodeAccountLocked, "Account temporarily locked",
		fmt.Sprintf("Try again in %d seconds", remainingSeconds))
}

// NewWeakPasswordError creates a weak password error
func NewWeakPasswordError(requirements string) *AppError {
	return NewAppErrorWithDetails(CodeWeakPassword, "Password does not meet requirements", requirements)
}

// NewInvalidEmailFormatError creates an invalid email format error
func NewInvalidEmailFormatError(email string) *AppError {
	return NewAppErrorWithDetails(CodeInvalidEmailFormat, "Invalid email format", fmt.Sprintf("Email: %s", email))
}

// NewValidationError creates a validation error
func NewValidationError(field, reason string) *AppError {
	return NewAppErrorWithDetails(CodeValidationFailed, "Validation failed", fmt.Sprintf("Field: %s, Reason: %s", field, reason))
}

// NewStorageError wraps a store failure
func NewStorageError(operation string, cause error) *AppError {
	return &AppError{
		Code:    CodeStorageFailure,
		Message: "Storage operation failed",
		Details: fmt.Sprintf("Operation: %s", operation),
		Cause:   cause,
	}
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, target error) bool {
	return errors.Is(err, target)
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternalError
}
