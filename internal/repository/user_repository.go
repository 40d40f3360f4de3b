package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/proofid/proofid/internal/database"
	"github.com/proofid/proofid/internal/model"
)

// UserRepository handles user data persistence
type UserRepository struct {
	db *database.Postgres
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *database.Postgres) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, email, phone, otp_secret, personal_key_digest, personal_key_issued_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Phone,
		user.OTPSecret,
		user.PersonalKeyDigest,
		user.PersonalKeyIssuedAt,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := `
		SELECT id, email, phone, otp_secret, personal_key_digest, personal_key_issued_at, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
		SELECT id, email, phone, otp_secret, personal_key_digest, personal_key_issued_at, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	var phone sql.NullString
	err := row.Scan(
		&u.ID,
		&u.Email,
		&phone,
		&u.OTPSecret,
		&u.PersonalKeyDigest,
		&u.PersonalKeyIssuedAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.Phone = phone.String
	return &u, nil
}

// SetOTPSecret persists the confirmed authenticator-app secret for a user
func (r *UserRepository) SetOTPSecret(ctx context.Context, userID string, secret []byte) error {
	query := `UPDATE users SET otp_secret = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, secret, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to set OTP secret: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearOTPSecret removes the persisted authenticator-app secret for a user
func (r *UserRepository) ClearOTPSecret(ctx context.Context, userID string) error {
	query := `UPDATE users SET otp_secret = NULL, updated_at = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to clear OTP secret: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPersonalKeyDigest records the digest of a newly issued recovery key
func (r *UserRepository) SetPersonalKeyDigest(ctx context.Context, userID, digest string) error {
	query := `UPDATE users SET personal_key_digest = $1, personal_key_issued_at = $2, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, digest, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to set personal key digest: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
