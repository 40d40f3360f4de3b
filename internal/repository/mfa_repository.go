package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/proofid/proofid/internal/database"
	"github.com/proofid/proofid/internal/model"
)

// MFARepository handles second-factor configuration persistence
type MFARepository struct {
	db *database.Postgres
}

// NewMFARepository creates a new MFARepository
func NewMFARepository(db *database.Postgres) *MFARepository {
	return &MFARepository{db: db}
}

// --- Backup codes ---

// CreateBackupCodes inserts a batch of backup codes in one transaction
func (r *MFARepository) CreateBackupCodes(ctx context.Context, codes []*model.BackupCodeConfiguration) error {
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO backup_code_configurations (id, user_id, code_hash, created_at) VALUES ($1, $2, $3, $4)`
	for _, code := range codes {
		if _, err := tx.ExecContext(ctx, query, code.ID, code.UserID, code.CodeHash, code.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert backup code: %w", err)
		}
	}

	return tx.Commit()
}

// GetUnusedBackupCodes retrieves all unused backup codes for a user
func (r *MFARepository) GetUnusedBackupCodes(ctx context.Context, userID string) ([]*model.BackupCodeConfiguration, error) {
	query := `
		SELECT id, user_id, code_hash, used_at, created_at
		FROM backup_code_configurations
		WHERE user_id = $1 AND used_at IS NULL
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query backup codes: %w", err)
	}
	defer rows.Close()

	var codes []*model.BackupCodeConfiguration
	for rows.Next() {
		var c model.BackupCodeConfiguration
		if err := rows.Scan(&c.ID, &c.UserID, &c.CodeHash, &c.UsedAt, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan backup code: %w", err)
		}
		codes = append(codes, &c)
	}
	return codes, rows.Err()
}

// MarkBackupCodeUsed marks a backup code as used and returns the user's new
// used-code count. Both happen inside one transaction so concurrent
// verifications cannot skip the near-exhaustion checkpoint.
func (r *MFARepository) MarkBackupCodeUsed(ctx context.Context, id string) (int, error) {
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var userID string
	query := `UPDATE backup_code_configurations SET used_at = $1 WHERE id = $2 AND used_at IS NULL RETURNING user_id`
	err = tx.QueryRowContext(ctx, query, time.Now(), id).Scan(&userID)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to mark backup code as used: %w", err)
	}

	var usedCount int
	query = `SELECT COUNT(*) FROM backup_code_configurations WHERE user_id = $1 AND used_at IS NOT NULL`
	if err := tx.QueryRowContext(ctx, query, userID).Scan(&usedCount); err != nil {
		return 0, fmt.Errorf("failed to count used backup codes: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return usedCount, nil
}

// CountUsedBackupCodes returns how many codes in the current batch are spent
func (r *MFARepository) CountUsedBackupCodes(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM backup_code_configurations WHERE user_id = $1 AND used_at IS NOT NULL`
	var count int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count used backup codes: %w", err)
	}
	return count, nil
}

// CountUnusedBackupCodes returns the count of remaining unused backup codes
func (r *MFARepository) CountUnusedBackupCodes(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM backup_code_configurations WHERE user_id = $1 AND used_at IS NULL`
	var count int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count backup codes: %w", err)
	}
	return count, nil
}

// DeleteAllBackupCodes removes all backup codes for a user (used before regeneration)
func (r *MFARepository) DeleteAllBackupCodes(ctx context.Context, userID string) error {
	query := `DELETE FROM backup_code_configurations WHERE user_id = $1`
	_, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to delete backup codes: %w", err)
	}
	return nil
}

// DeleteBatchIfNearlyExhausted deletes the user's entire code batch once the
// used-code count has reached the given threshold. The guard and the delete
// run as a single statement, so two near-simultaneous verifications cannot
// double-delete or leave a lone valid code behind. Deleting an already-deleted
// batch is a no-op.
func (r *MFARepository) DeleteBatchIfNearlyExhausted(ctx context.Context, userID string, usedThreshold int) (bool, error) {
	query := `
		DELETE FROM backup_code_configurations
		WHERE user_id = $1
		AND (SELECT COUNT(*) FROM backup_code_configurations WHERE user_id = $1 AND used_at IS NOT NULL) >= $2
	`
	result, err := r.db.ExecContext(ctx, query, userID, usedThreshold)
	if err != nil {
		return false, fmt.Errorf("failed to delete exhausted backup code batch: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	return rowsAffected > 0, nil
}

// --- Authenticator app ---

// CreateAuthAppConfiguration records a confirmed authenticator-app enrollment
func (r *MFARepository) CreateAuthAppConfiguration(ctx context.Context, cfg *model.AuthAppConfiguration) error {
	query := `INSERT INTO auth_app_configurations (id, user_id, secret, created_at) VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, cfg.ID, cfg.UserID, cfg.Secret, cfg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create auth app configuration: %w", err)
	}
	return nil
}

// GetAuthAppConfiguration retrieves the user's authenticator-app enrollment
func (r *MFARepository) GetAuthAppConfiguration(ctx context.Context, userID string) (*model.AuthAppConfiguration, error) {
	query := `SELECT id, user_id, secret, created_at FROM auth_app_configurations WHERE user_id = $1`
	var c model.AuthAppConfiguration
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&c.ID, &c.UserID, &c.Secret, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get auth app configuration: %w", err)
	}
	return &c, nil
}

// DeleteAuthAppConfiguration removes the user's authenticator-app enrollment
func (r *MFARepository) DeleteAuthAppConfiguration(ctx context.Context, userID string) error {
	query := `DELETE FROM auth_app_configurations WHERE user_id = $1`
	_, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to delete auth app configuration: %w", err)
	}
	return nil
}

// --- Phone / PIV-CAC / WebAuthn configurations ---

// GetPhoneConfigurations retrieves the user's enrolled phones, oldest first
func (r *MFARepository) GetPhoneConfigurations(ctx context.Context, userID string) ([]model.PhoneConfiguration, error) {
	query := `
		SELECT id, user_id, phone, confirmed_at, created_at
		FROM phone_configurations
		WHERE user_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query phone configurations: %w", err)
	}
	defer rows.Close()

	var configs []model.PhoneConfiguration
	for rows.Next() {
		var c model.PhoneConfiguration
		if err := rows.Scan(&c.ID, &c.UserID, &c.Phone, &c.ConfirmedAt, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan phone configuration: %w", err)
		}
		configs = append(configs, c)
	}
	return configs, rows.Err()
}

// GetPivCacConfiguration retrieves the user's PIV/CAC enrollment
func (r *MFARepository) GetPivCacConfiguration(ctx context.Context, userID string) (*model.PivCacConfiguration, error) {
	query := `SELECT id, user_id, x509_dn, created_at FROM piv_cac_configurations WHERE user_id = $1`
	var c model.PivCacConfiguration
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&c.ID, &c.UserID, &c.X509DN, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get piv/cac configuration: %w", err)
	}
	return &c, nil
}

// CreateWebauthnConfiguration records a registered WebAuthn credential
func (r *MFARepository) CreateWebauthnConfiguration(ctx context.Context, cfg *model.WebauthnConfiguration) error {
	query := `
		INSERT INTO webauthn_configurations (id, user_id, name, credential_id, credential_data, last_used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		cfg.ID, cfg.UserID, cfg.Name, cfg.CredentialID, cfg.CredentialData, cfg.LastUsed, cfg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create webauthn configuration: %w", err)
	}
	return nil
}

// GetWebauthnConfigurations retrieves the user's registered WebAuthn credentials
func (r *MFARepository) GetWebauthnConfigurations(ctx context.Context, userID string) ([]model.WebauthnConfiguration, error) {
	query := `
		SELECT id, user_id, name, credential_id, credential_data, last_used, created_at
		FROM webauthn_configurations
		WHERE user_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query webauthn configurations: %w", err)
	}
	defer rows.Close()

	var configs []model.WebauthnConfiguration
	for rows.Next() {
		var c model.WebauthnConfiguration
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.CredentialID, &c.CredentialData, &c.LastUsed, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan webauthn configuration: %w", err)
		}
		configs = append(configs, c)
	}
	return configs, rows.Err()
}

// UpdateWebauthnLastUsed updates the last_used timestamp for a credential
func (r *MFARepository) UpdateWebauthnLastUsed(ctx context.Context, id string) error {
	query := `UPDATE webauthn_configurations SET last_used = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update webauthn last_used: %w", err)
	}
	return nil
}

// LoadConfigurations populates the user's factor configuration fields
func (r *MFARepository) LoadConfigurations(ctx context.Context, user *model.User) error {
	phones, err := r.GetPhoneConfigurations(ctx, user.ID)
	if err != nil {
		return err
	}
	user.PhoneConfigurations = phones

	authApp, err := r.GetAuthAppConfiguration(ctx, user.ID)
	if err != nil && err != ErrNotFound {
		return err
	}
	user.AuthAppConfig = authApp

	pivCac, err := r.GetPivCacConfiguration(ctx, user.ID)
	if err != nil && err != ErrNotFound {
		return err
	}
	user.PivCacConfig = pivCac

	webauthn, err := r.GetWebauthnConfigurations(ctx, user.ID)
	if err != nil {
		return err
	}
	user.WebauthnConfigurations = webauthn

	unused, err := r.GetUnusedBackupCodes(ctx, user.ID)
	if err != nil {
		return err
	}
	codes := make([]model.BackupCodeConfiguration, 0, len(unused))
	for _, c := range unused {
		codes = append(codes, *c)
	}
	user.BackupCodeConfigurations = codes

	return nil
}
