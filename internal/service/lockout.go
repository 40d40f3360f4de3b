package service

import (
	"github.com/proofid/proofid/internal/config"
	"github.com/proofid/proofid/internal/model"
)

// LockoutMaximums builds the per-factor attempt ceilings injected into an
// AttemptTracker from configuration.
func LockoutMaximums(cfg *config.Config) map[model.FactorKind]int {
	return map[model.FactorKind]int{
		model.FactorBackupCode: cfg.MFA.Lockout.MaxBackupCodeAttempts,
		model.FactorAuthApp:    cfg.MFA.Lockout.MaxTOTPAttempts,
		model.FactorPhone:      cfg.Idv.MaxAttempts,
	}
}
