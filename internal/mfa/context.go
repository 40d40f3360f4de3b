// Package mfa provides a read-only view over a user's second-factor
// configurations. A Context is always recomputed from the user's current
// configuration state and never mutated.
package mfa

import (
	"github.com/proofid/proofid/internal/model"
)

// Context aggregates which factor kinds a user has configured and in what
// counts. The user may be nil; all accessors then report empty results.
type Context struct {
	user *model.User
}

// NewContext creates a Context for the given user, which may be nil
func NewContext(user *model.User) Context {
	return Context{user: user}
}

// AuthAppConfiguration returns the user's authenticator-app enrollment, if any
func (c Context) AuthAppConfiguration() *model.AuthAppConfiguration {
	if c.user == nil {
		return nil
	}
	return c.user.AuthAppConfig
}

// PivCacConfiguration returns the user's PIV/CAC enrollment, if any
func (c Context) PivCacConfiguration() *model.PivCacConfiguration {
	if c.user == nil {
		return nil
	}
	return c.user.PivCacConfig
}

// PhoneConfigurations returns the user's enrolled phones, oldest first
func (c Context) PhoneConfigurations() []model.PhoneConfiguration {
	if c.user == nil {
		return nil
	}
	return c.user.PhoneConfigurations
}

// WebauthnConfigurations returns the user's registered WebAuthn credentials
func (c Context) WebauthnConfigurations() []model.WebauthnConfiguration {
	if c.user == nil {
		return nil
	}
	return c.user.WebauthnConfigurations
}

// BackupCodeConfigurations returns the user's unused backup codes
func (c Context) BackupCodeConfigurations() []model.BackupCodeConfiguration {
	if c.user == nil {
		return nil
	}
	return c.user.BackupCodeConfigurations
}

// EnabledFactorCounts maps each configured factor kind to its count.
// Kinds with zero configured instances are omitted entirely, so a nil user
// or a user with no configurations yields an empty map.
func (c Context) EnabledFactorCounts() map[model.FactorKind]int {
	counts := make(map[model.FactorKind]int)
	if c.user == nil {
		return counts
	}
	if n := len(c.user.PhoneConfigurations); n > 0 {
		counts[model.FactorPhone] = n
	}
	if c.user.AuthAppConfig != nil {
		counts[model.FactorAuthApp] = 1
	}
	if c.user.PivCacConfig != nil {
		counts[model.FactorPivCac] = 1
	}
	if n := len(c.user.WebauthnConfigurations); n > 0 {
		counts[model.FactorWebauthn] = n
	}
	// A backup code batch counts as one factor, not one per code
	if len(c.user.BackupCodeConfigurations) > 0 {
		counts[model.FactorBackupCode] = 1
	}
	return counts
}

// TwoFactorEnabled reports whether the user has at least one enabled factor
func (c Context) TwoFactorEnabled() bool {
	return len(c.EnabledFactorCounts()) > 0
}

// MultipleFactorsEnabled reports whether the user has two or more enabled
// factors. Disabling a factor is only allowed while this holds.
func (c Context) MultipleFactorsEnabled() bool {
	total := 0
	for _, n := range c.EnabledFactorCounts() {
		total += n
	}
	return total >= 2
}
