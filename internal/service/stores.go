package service

import (
	"context"

	"github.com/proofid/proofid/internal/model"
)

// BackupCodeStore is the persistence surface the backup code flows need.
// *repository.MFARepository satisfies it.
type BackupCodeStore interface {
	CreateBackupCodes(ctx context.Context, codes []*model.BackupCodeConfiguration) error
	GetUnusedBackupCodes(ctx context.Context, userID string) ([]*model.BackupCodeConfiguration, error)
	MarkBackupCodeUsed(ctx context.Context, id string) (int, error)
	CountUsedBackupCodes(ctx context.Context, userID string) (int, error)
	CountUnusedBackupCodes(ctx context.Context, userID string) (int, error)
	DeleteAllBackupCodes(ctx context.Context, userID string) error
	DeleteBatchIfNearlyExhausted(ctx context.Context, userID string, usedThreshold int) (bool, error)
}

// AuthAppStore is the persistence surface the TOTP enrollment flow needs.
// *repository.MFARepository satisfies it.
type AuthAppStore interface {
	CreateAuthAppConfiguration(ctx context.Context, cfg *model.AuthAppConfiguration) error
	GetAuthAppConfiguration(ctx context.Context, userID string) (*model.AuthAppConfiguration, error)
	DeleteAuthAppConfiguration(ctx context.Context, userID string) error
}

// UserStore is the persistence surface for user secrets and recovery keys.
// *repository.UserRepository satisfies it.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	SetOTPSecret(ctx context.Context, userID string, secret []byte) error
	ClearOTPSecret(ctx context.Context, userID string) error
	SetPersonalKeyDigest(ctx context.Context, userID, digest string) error
}

// WebauthnStore is the persistence surface for WebAuthn credentials.
// *repository.MFARepository satisfies it.
type WebauthnStore interface {
	CreateWebauthnConfiguration(ctx context.Context, cfg *model.WebauthnConfiguration) error
	GetWebauthnConfigurations(ctx context.Context, userID string) ([]model.WebauthnConfiguration, error)
	UpdateWebauthnLastUsed(ctx context.Context, id string) error
}

// EventStore records security-relevant user events.
// *repository.EventRepository satisfies it.
type EventStore interface {
	Create(ctx context.Context, event *model.UserEvent) error
}
