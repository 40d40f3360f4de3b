package service

import "errors"

// Service errors
var (
	// ErrInvalidCode covers both malformed input and no-match; the
	// distinction is logged for telemetry but never shown to the user
	ErrInvalidCode = errors.New("invalid code")
	// ErrLockedOut means the attempt threshold for the factor was reached;
	// callers must route to the lockout flow, not offer a retry
	ErrLockedOut = errors.New("second factor attempts exceeded")
	// ErrPolicyRefused means a state transition was refused by policy,
	// such as disabling a user's only enabled factor. It is a silent no-op
	// for the user.
	ErrPolicyRefused = errors.New("refused by policy")
	// ErrAlreadyEnrolled means the factor is already configured
	ErrAlreadyEnrolled = errors.New("factor already enrolled")
	// ErrNotEnrolled means the factor is not configured
	ErrNotEnrolled = errors.New("factor not enrolled")
	// ErrNoBackupCodes means the user has no unused backup codes left
	ErrNoBackupCodes = errors.New("no backup codes remaining")
	// ErrNoPendingSecret means confirm was called without a generated secret
	ErrNoPendingSecret = errors.New("no pending authenticator secret in session")
)
