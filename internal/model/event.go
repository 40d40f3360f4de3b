package model

import "time"

// UserEvent records a security-relevant action on a user account
type UserEvent struct {
	ID        string                 `json:"id"`
	UserID    *string                `json:"userId,omitempty"`
	Action    string                 `json:"action"`
	IPAddress *string                `json:"ipAddress,omitempty"`
	UserAgent *string                `json:"userAgent,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

// User event action constants
const (
	EventAuthenticatorEnabled   = "mfa.authenticator_enabled"
	EventAuthenticatorDisabled  = "mfa.authenticator_disabled"
	EventBackupCodeUsed         = "mfa.backup_code_used"
	EventBackupCodesRegenerated = "mfa.backup_codes_regenerated"
	EventBackupCodesExhausted   = "mfa.backup_codes_exhausted"
	EventWebauthnRegistered     = "mfa.webauthn_registered"
	EventPersonalKeyIssued      = "account.personal_key_issued"
	EventSecondFactorLockout    = "mfa.second_factor_lockout"
	EventIdvPhoneStepSubmitted  = "idv.phone_step_submitted"
)
