package model

import (
	"time"
)

// User represents the core user entity
type User struct {
	ID                  string     `json:"id"`
	Email               string     `json:"email"`
	Phone               string     `json:"phone,omitempty"` // on-file primary phone
	OTPSecret           []byte     `json:"-"`               // confirmed authenticator-app secret, never expose
	PersonalKeyDigest   *string    `json:"-"`               // argon2id digest of the recovery key
	PersonalKeyIssuedAt *time.Time `json:"personalKeyIssuedAt,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`

	// Loaded factor configurations. Repositories populate these on demand;
	// the MFA context reads them and never writes.
	PhoneConfigurations      []PhoneConfiguration      `json:"-"`
	AuthAppConfig            *AuthAppConfiguration     `json:"-"`
	PivCacConfig             *PivCacConfiguration      `json:"-"`
	WebauthnConfigurations   []WebauthnConfiguration   `json:"-"`
	BackupCodeConfigurations []BackupCodeConfiguration `json:"-"`
}

// TOTPEnabled checks whether the user has a confirmed authenticator app
func (u *User) TOTPEnabled() bool {
	return u != nil && len(u.OTPSecret) > 0
}

// HasPersonalKey checks whether a recovery key has been issued to the user
func (u *User) HasPersonalKey() bool {
	return u != nil && u.PersonalKeyDigest != nil
}
