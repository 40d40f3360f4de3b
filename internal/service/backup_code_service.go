package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/proofid/proofid/internal/config"
	"github.com/proofid/proofid/internal/logger"
	"github.com/proofid/proofid/internal/model"
	"github.com/proofid/proofid/internal/session"
)

const backupCodeLength = 8 // characters per code

// BackupCodeService generates and verifies single-use backup codes
type BackupCodeService struct {
	codes  BackupCodeStore
	events EventStore
	cfg    *config.Config
	log    *logger.Logger
}

// NewBackupCodeService creates a new BackupCodeService
func NewBackupCodeService(codes BackupCodeStore, events EventStore, cfg *config.Config, log *logger.Logger) *BackupCodeService {
	return &BackupCodeService{
		codes:  codes,
		events: events,
		cfg:    cfg,
		log:    log.WithComponent("backup_code_service"),
	}
}

// Generate replaces the user's backup code batch with a fresh one and
// returns the plaintext codes. Only the hashes are stored.
func (s *BackupCodeService) Generate(ctx context.Context, userID string) (*model.BackupCodesResponse, error) {
	if err := s.codes.DeleteAllBackupCodes(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to delete existing backup codes: %w", err)
	}

	batchSize := s.cfg.MFA.BackupCodes.BatchSize
	now := time.Now()
	plainCodes := make([]string, batchSize)
	dbCodes := make([]*model.BackupCodeConfiguration, batchSize)

	for i := 0; i < batchSize; i++ {
		code := generateBackupCode()
		plainCodes[i] = code

		hash := sha256.Sum256([]byte(normalizeBackupCode(code)))
		dbCodes[i] = &model.BackupCodeConfiguration{
			ID:        generateID("bkp"),
			UserID:    userID,
			CodeHash:  hex.EncodeToString(hash[:]),
			CreatedAt: now,
		}
	}

	if err := s.codes.CreateBackupCodes(ctx, dbCodes); err != nil {
		return nil, fmt.Errorf("failed to store backup codes: %w", err)
	}

	s.recordEvent(ctx, userID, model.EventBackupCodesRegenerated, nil)
	s.log.Info().Str("user_id", userID).Int("count", batchSize).Msg("backup codes generated")

	return &model.BackupCodesResponse{
		Codes: plainCodes,
		Count: batchSize,
	}, nil
}

// Verify checks a submitted candidate code against the user's unused codes,
// consuming the matched code. The lockout check runs first: once the factor's
// attempt ceiling is reached the caller gets ErrLockedOut, never another
// retry. A failed attempt is recorded on the tracker whatever the cause.
func (s *BackupCodeService) Verify(ctx context.Context, tracker *session.AttemptTracker, userID, candidate string) (model.FormResponse, error) {
	if tracker.Exceeded(model.FactorBackupCode) {
		return invalidCodeResponse(), ErrLockedOut
	}

	normalized := normalizeBackupCode(candidate)
	if normalized == "" || len(normalized) != backupCodeLength {
		// Malformed input looks identical to a no-match for the caller.
		// The telemetry distinction lives here only.
		s.log.Telemetry("backup_code_verification", map[string]interface{}{
			"user_id": userID,
			"success": false,
			"reason":  "malformed_input",
		})
		return s.recordFailure(ctx, tracker, userID)
	}

	unused, err := s.codes.GetUnusedBackupCodes(ctx, userID)
	if err != nil {
		return invalidCodeResponse(), fmt.Errorf("failed to get backup codes: %w", err)
	}
	if len(unused) == 0 {
		return invalidCodeResponse(), ErrNoBackupCodes
	}

	inputHash := sha256.Sum256([]byte(normalized))
	inputHashStr := hex.EncodeToString(inputHash[:])

	for _, c := range unused {
		if subtle.ConstantTimeCompare([]byte(c.CodeHash), []byte(inputHashStr)) == 1 {
			usedCount, err := s.codes.MarkBackupCodeUsed(ctx, c.ID)
			if err != nil {
				return invalidCodeResponse(), fmt.Errorf("failed to mark backup code as used: %w", err)
			}
			s.recordEvent(ctx, userID, model.EventBackupCodeUsed, map[string]interface{}{"used_count": usedCount})
			s.log.Telemetry("backup_code_verification", map[string]interface{}{
				"user_id": userID,
				"success": true,
			})
			return model.SuccessResponse(map[string]interface{}{
				"multi_factor_auth_method": string(model.FactorBackupCode),
			}), nil
		}
	}

	s.log.Telemetry("backup_code_verification", map[string]interface{}{
		"user_id": userID,
		"success": false,
		"reason":  "no_match",
	})
	return s.recordFailure(ctx, tracker, userID)
}

func (s *BackupCodeService) recordFailure(ctx context.Context, tracker *session.AttemptTracker, userID string) (model.FormResponse, error) {
	tracker.Increment(model.FactorBackupCode)
	if tracker.Exceeded(model.FactorBackupCode) {
		s.recordEvent(ctx, userID, model.EventSecondFactorLockout, map[string]interface{}{
			"factor": string(model.FactorBackupCode),
		})
		return invalidCodeResponse(), ErrLockedOut
	}
	return invalidCodeResponse(), ErrInvalidCode
}

// HandleIfAllCodesUsed enforces the near-exhaustion policy: when all but one
// code of the batch is spent, the whole batch is invalidated and the user is
// forced to regenerate, so a single valid code never lingers outstanding.
// Runs before showing the entry form and again after each verification
// attempt; both calls are idempotent.
func (s *BackupCodeService) HandleIfAllCodesUsed(ctx context.Context, userID string) (bool, error) {
	threshold := s.cfg.MFA.BackupCodes.BatchSize - 1
	deleted, err := s.codes.DeleteBatchIfNearlyExhausted(ctx, userID, threshold)
	if err != nil {
		return false, err
	}
	if deleted {
		s.recordEvent(ctx, userID, model.EventBackupCodesExhausted, nil)
		s.log.Info().Str("user_id", userID).Msg("backup code batch exhausted, forcing regeneration")
	}
	return deleted, nil
}

// RemainingCodes reports how many unused codes the user has left
func (s *BackupCodeService) RemainingCodes(ctx context.Context, userID string) (int, error) {
	return s.codes.CountUnusedBackupCodes(ctx, userID)
}

// EntryStatus runs the near-exhaustion policy before the entry form is
// presented. When the batch was just invalidated the caller routes to
// regeneration; otherwise remaining carries the unused count.
func (s *BackupCodeService) EntryStatus(ctx context.Context, userID string) (deleted bool, remaining int, err error) {
	deleted, err = s.HandleIfAllCodesUsed(ctx, userID)
	if err != nil || deleted {
		return deleted, 0, err
	}
	remaining, err = s.RemainingCodes(ctx, userID)
	return false, remaining, err
}

// SubmitCode runs a code submission end to end: the near-exhaustion policy
// before the attempt, verification with lockout, then the policy again after
// the attempt. When the precheck invalidates the batch the candidate is never
// checked and the caller gets ErrNoBackupCodes.
func (s *BackupCodeService) SubmitCode(ctx context.Context, tracker *session.AttemptTracker, userID, candidate string) (model.FormResponse, error) {
	deleted, err := s.HandleIfAllCodesUsed(ctx, userID)
	if err != nil {
		return invalidCodeResponse(), fmt.Errorf("failed to check backup codes: %w", err)
	}
	if deleted {
		return invalidCodeResponse(), ErrNoBackupCodes
	}

	result, verifyErr := s.Verify(ctx, tracker, userID, candidate)

	if _, err := s.HandleIfAllCodesUsed(ctx, userID); err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("backup code exhaustion check failed")
	}

	return result, verifyErr
}

func (s *BackupCodeService) recordEvent(ctx context.Context, userID, action string, metadata map[string]interface{}) {
	event := &model.UserEvent{
		ID:        generateID("evt"),
		UserID:    &userID,
		Action:    action,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
	if err := s.events.Create(ctx, event); err != nil {
		s.log.Error().Err(err).Str("action", action).Msg("failed to record user event")
	}
}

func invalidCodeResponse() model.FormResponse {
	return model.FailureResponse(map[string][]string{
		"code": {"invalid code"},
	}, nil)
}

func generateBackupCode() string {
	const charset = "0123456789abcdefghjkmnpqrstuvwxyz" // no i, l, o to avoid confusion
	b := make([]byte, backupCodeLength)
	if _, err := rand.Read(b); err != nil {
		panic("failed to generate random bytes for backup code")
	}
	code := make([]byte, backupCodeLength)
	for i := range code {
		code[i] = charset[int(b[i])%len(charset)]
	}
	// Format as xxxx-xxxx
	return string(code[:4]) + "-" + string(code[4:])
}

func normalizeBackupCode(code string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(code), "-", ""))
}
