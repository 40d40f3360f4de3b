package model

import (
	"encoding/json"
	"time"
)

// FactorKind identifies a type of second factor
type FactorKind string

const (
	FactorPhone       FactorKind = "phone"
	FactorAuthApp     FactorKind = "auth_app"
	FactorPivCac      FactorKind = "piv_cac"
	FactorWebauthn    FactorKind = "webauthn"
	FactorBackupCode  FactorKind = "backup_code"
	FactorPersonalKey FactorKind = "personal_key"
)

// PhoneConfiguration is a phone enrolled as a second factor
type PhoneConfiguration struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Phone       string     `json:"phone"`
	ConfirmedAt *time.Time `json:"confirmedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// AuthAppConfiguration is a confirmed authenticator-app (TOTP) enrollment.
// At most one exists per user.
type AuthAppConfiguration struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Secret    []byte    `json:"-"` // never expose
	CreatedAt time.Time `json:"createdAt"`
}

// PivCacConfiguration is a PIV/CAC smartcard enrollment. At most one per user.
type PivCacConfiguration struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	X509DN    string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// WebauthnConfiguration is a single registered WebAuthn credential
type WebauthnConfiguration struct {
	ID             string          `json:"id"`
	UserID         string          `json:"userId"`
	Name           string          `json:"name"`
	CredentialID   string          `json:"credentialId"` // base64url-encoded raw credential ID
	CredentialData json.RawMessage `json:"-"`            // serialized webauthn.Credential
	LastUsed       *time.Time      `json:"lastUsed,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// BackupCodeConfiguration is a single one-time-use backup code
type BackupCodeConfiguration struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	CodeHash  string     `json:"-"` // hashed code, never expose
	UsedAt    *time.Time `json:"usedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// IsUsed checks if the backup code has already been consumed
func (b *BackupCodeConfiguration) IsUsed() bool {
	return b.UsedAt != nil
}

// TOTPSetupResponse is returned when initiating authenticator-app enrollment
type TOTPSetupResponse struct {
	Secret     string `json:"secret"`
	OtpauthURL string `json:"otpauthUrl"`
	QRCode     string `json:"qrCode"` // base64-encoded PNG
	Issuer     string `json:"issuer"`
	AccountID  string `json:"accountId"`
}

// BackupCodesResponse is returned when generating backup codes
type BackupCodesResponse struct {
	Codes []string `json:"codes"`
	Count int      `json:"count"`
}

// MFAStatusResponse reports a user's factor enrollment state
type MFAStatusResponse struct {
	MFAEnabled           bool               `json:"mfaEnabled"`
	FactorCounts         map[FactorKind]int `json:"factorCounts"`
	BackupCodesRemaining int                `json:"backupCodesRemaining"`
	PersonalKeyIssued    bool               `json:"personalKeyIssued"`
}
