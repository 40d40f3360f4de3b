package service

import (
	"context"
	"encoding/base32"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/proofid/proofid/internal/config"
	"github.com/proofid/proofid/internal/logger"
	"github.com/proofid/proofid/internal/mfa"
	"github.com/proofid/proofid/internal/model"
	"github.com/proofid/proofid/internal/session"
)

// TOTPService manages the authenticator-app enrollment lifecycle: a pending
// secret is generated into the verification session, confirmed against a
// submitted code, and only then persisted on the user. Disabling requires
// the user to keep at least one other enabled factor.
type TOTPService struct {
	users    UserStore
	authApps AuthAppStore
	events   EventStore
	cfg      *config.Config
	log      *logger.Logger
}

// NewTOTPService creates a new TOTPService
func NewTOTPService(users UserStore, authApps AuthAppStore, events EventStore, cfg *config.Config, log *logger.Logger) *TOTPService {
	return &TOTPService{
		users:    users,
		authApps: authApps,
		events:   events,
		cfg:      cfg,
		log:      log.WithComponent("totp_service"),
	}
}

// GenerateSecret produces the pending enrollment secret for the session.
// Idempotent within a session: an existing pending secret is reused so a
// page refresh shows the same QR code. The secret lives only in the session
// until Confirm succeeds.
func (s *TOTPService) GenerateSecret(ctx context.Context, sess *session.VerificationSession, user *model.User) (*model.TOTPSetupResponse, error) {
	if user.TOTPEnabled() {
		return nil, ErrAlreadyEnrolled
	}

	issuer := s.cfg.MFA.TOTP.Issuer
	if issuer == "" {
		issuer = "ProofID"
	}

	opts := totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: user.Email,
		Period:      uint(s.cfg.MFA.TOTP.Period),
		Digits:      otp.Digits(s.cfg.MFA.TOTP.Digits),
		Algorithm:   otp.AlgorithmSHA1,
	}

	if sess.NewTOTPSecret != "" {
		// Rebuild the provisioning key around the pending secret instead of
		// minting a new one
		raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.ToUpper(sess.NewTOTPSecret))
		if err != nil {
			return nil, fmt.Errorf("failed to decode pending secret: %w", err)
		}
		opts.Secret = raw
	}

	key, err := totp.Generate(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate TOTP key: %w", err)
	}
	sess.NewTOTPSecret = key.Secret()

	qrPNG, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("authenticator enrollment initiated")

	return &model.TOTPSetupResponse{
		Secret:     key.Secret(),
		OtpauthURL: key.URL(),
		QRCode:     base64.StdEncoding.EncodeToString(qrPNG),
		Issuer:     issuer,
		AccountID:  user.Email,
	}, nil
}

// Confirm validates the submitted one-time code against the pending session
// secret within the configured time-step tolerance. On success the secret is
// persisted on the user, removed from the session, and the session becomes
// fully authenticated. On an invalid code the pending secret is kept so the
// user can retry against the same QR code.
func (s *TOTPService) Confirm(ctx context.Context, tracker *session.AttemptTracker, sess *session.VerificationSession, user *model.User, code string) (model.FormResponse, error) {
	if tracker.Exceeded(model.FactorAuthApp) {
		return invalidCodeResponse(), ErrLockedOut
	}
	if sess.NewTOTPSecret == "" {
		return invalidCodeResponse(), ErrNoPendingSecret
	}

	valid, err := totp.ValidateCustom(strings.TrimSpace(code), sess.NewTOTPSecret, time.Now().UTC(), totp.ValidateOpts{
		Period:    uint(s.cfg.MFA.TOTP.Period),
		Skew:      s.cfg.MFA.TOTP.Skew,
		Digits:    otp.Digits(s.cfg.MFA.TOTP.Digits),
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil || !valid {
		tracker.Increment(model.FactorAuthApp)
		s.log.Telemetry("totp_setup_confirmation", map[string]interface{}{
			"user_id": user.ID,
			"success": false,
		})
		if tracker.Exceeded(model.FactorAuthApp) {
			return invalidCodeResponse(), ErrLockedOut
		}
		return invalidCodeResponse(), ErrInvalidCode
	}

	if err := s.users.SetOTPSecret(ctx, user.ID, []byte(sess.NewTOTPSecret)); err != nil {
		return invalidCodeResponse(), fmt.Errorf("failed to persist OTP secret: %w", err)
	}
	authApp := &model.AuthAppConfiguration{
		ID:        generateID("app"),
		UserID:    user.ID,
		Secret:    []byte(sess.NewTOTPSecret),
		CreatedAt: time.Now(),
	}
	if err := s.authApps.CreateAuthAppConfiguration(ctx, authApp); err != nil {
		// Roll the secret back so the user is never left enabled without
		// a matching configuration row.
		if clearErr := s.users.ClearOTPSecret(ctx, user.ID); clearErr != nil {
			s.log.Error().Err(clearErr).Str("user_id", user.ID).Msg("failed to roll back OTP secret")
		}
		return invalidCodeResponse(), fmt.Errorf("failed to record auth app configuration: %w", err)
	}

	user.OTPSecret = []byte(sess.NewTOTPSecret)
	user.AuthAppConfig = authApp
	sess.ClearPendingTOTPSecret()
	sess.MarkFullyAuthenticated()

	s.recordEvent(ctx, user.ID, model.EventAuthenticatorEnabled)
	s.log.Info().Str("user_id", user.ID).Msg("authenticator app confirmed")

	return model.SuccessResponse(map[string]interface{}{
		"multi_factor_auth_method": string(model.FactorAuthApp),
	}), nil
}

// Disable removes the user's confirmed authenticator app. The transition is
// refused while the authenticator is the user's only enabled factor; that
// refusal is a silent no-op from the user's perspective.
func (s *TOTPService) Disable(ctx context.Context, user *model.User) error {
	if !user.TOTPEnabled() {
		return ErrNotEnrolled
	}
	if !mfa.NewContext(user).MultipleFactorsEnabled() {
		s.log.Info().Str("user_id", user.ID).Msg("refused disabling sole second factor")
		return ErrPolicyRefused
	}

	if err := s.users.ClearOTPSecret(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to clear OTP secret: %w", err)
	}
	if err := s.authApps.DeleteAuthAppConfiguration(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to delete auth app configuration: %w", err)
	}

	user.OTPSecret = nil
	user.AuthAppConfig = nil

	s.recordEvent(ctx, user.ID, model.EventAuthenticatorDisabled)
	s.log.Info().Str("user_id", user.ID).Msg("authenticator app disabled")
	return nil
}

// RouteAfterConfirmation decides where a first-time confirmation leads.
// Pure function of the two inputs so routing policy is testable in isolation.
func RouteAfterConfirmation(hasPersonalKey, offerPersonalKey bool) model.Route {
	if hasPersonalKey {
		return model.RouteAccountHome
	}
	if offerPersonalKey {
		return model.RoutePersonalKeySetup
	}
	return model.RouteIdvFunnel
}

func (s *TOTPService) recordEvent(ctx context.Context, userID, action string) {
	event := &model.UserEvent{
		ID:        generateID("evt"),
		UserID:    &userID,
		Action:    action,
		CreatedAt: time.Now(),
	}
	if err := s.events.Create(ctx, event); err != nil {
		s.log.Error().Err(err).Str("action", action).Msg("failed to record user event")
	}
}
