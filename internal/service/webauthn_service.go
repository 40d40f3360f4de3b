package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/redis/go-redis/v9"

	"github.com/proofid/proofid/internal/config"
	"github.com/proofid/proofid/internal/database"
	"github.com/proofid/proofid/internal/logger"
	"github.com/proofid/proofid/internal/model"
)

// WebAuthn service errors
var (
	ErrWebAuthnUnsupported    = errors.New("WebAuthn is not configured")
	ErrWebAuthnSessionExpired = errors.New("WebAuthn ceremony session expired")
)

const (
	webauthnSessionPrefix = "proofid:webauthn_session:"
	webauthnSessionTTL    = 5 * time.Minute
)

// WebauthnService handles WebAuthn credential registration. Each registered
// credential is stored as its own configuration row, and ceremony state is
// kept in Redis between the begin and finish calls.
type WebauthnService struct {
	creds  WebauthnStore
	events EventStore
	rdb    *database.Redis
	web    *webauthn.WebAuthn
	log    *logger.Logger
}

// NewWebauthnService creates a new WebauthnService. The WebAuthn relying
// party is only initialized when an RP ID is configured.
func NewWebauthnService(creds WebauthnStore, events EventStore, rdb *database.Redis, cfg *config.Config, log *logger.Logger) (*WebauthnService, error) {
	svc := &WebauthnService{
		creds:  creds,
		events: events,
		rdb:    rdb,
		log:    log.WithComponent("webauthn_service"),
	}

	if cfg.MFA.WebAuthn.RPID != "" {
		wconfig := &webauthn.Config{
			RPID:                  cfg.MFA.WebAuthn.RPID,
			RPDisplayName:         cfg.MFA.WebAuthn.RPName,
			RPOrigins:             cfg.MFA.WebAuthn.RPOrigins,
			AttestationPreference: protocol.PreferNoAttestation,
			AuthenticatorSelection: protocol.AuthenticatorSelection{
				UserVerification: protocol.VerificationPreferred,
			},
		}

		var err error
		svc.web, err = webauthn.New(wconfig)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize WebAuthn: %w", err)
		}
	}

	return svc, nil
}

// webauthnUser adapts a model.User with loaded credentials to webauthn.User
type webauthnUser struct {
	id          []byte
	name        string
	credentials []webauthn.Credential
}

func (u *webauthnUser) WebAuthnID() []byte                         { return u.id }
func (u *webauthnUser) WebAuthnName() string                       { return u.name }
func (u *webauthnUser) WebAuthnDisplayName() string                { return u.name }
func (u *webauthnUser) WebAuthnCredentials() []webauthn.Credential { return u.credentials }

func (s *WebauthnService) relyingPartyUser(ctx context.Context, user *model.User) (*webauthnUser, error) {
	configs, err := s.creds.GetWebauthnConfigurations(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load webauthn configurations: %w", err)
	}

	creds := make([]webauthn.Credential, 0, len(configs))
	for _, c := range configs {
		var cred webauthn.Credential
		if err := json.Unmarshal(c.CredentialData, &cred); err != nil {
			return nil, fmt.Errorf("failed to unmarshal webauthn credential: %w", err)
		}
		creds = append(creds, cred)
	}

	return &webauthnUser{
		id:          []byte(user.ID),
		name:        user.Email,
		credentials: creds,
	}, nil
}

// BeginRegistration starts the registration ceremony for a new credential
// and returns the creation options plus an opaque ceremony session key.
func (s *WebauthnService) BeginRegistration(ctx context.Context, user *model.User) (*protocol.CredentialCreation, string, error) {
	if s.web == nil {
		return nil, "", ErrWebAuthnUnsupported
	}

	wUser, err := s.relyingPartyUser(ctx, user)
	if err != nil {
		return nil, "", err
	}

	creation, sessionData, err := s.web.BeginRegistration(wUser)
	if err != nil {
		return nil, "", fmt.Errorf("failed to begin WebAuthn registration: %w", err)
	}

	sessionKey := generateID("wan")
	data, err := json.Marshal(sessionData)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal ceremony session: %w", err)
	}
	if err := s.rdb.SetWithTTL(ctx, webauthnSessionPrefix+sessionKey, data, webauthnSessionTTL); err != nil {
		return nil, "", fmt.Errorf("failed to store ceremony session: %w", err)
	}

	return creation, sessionKey, nil
}

// FinishRegistration completes the ceremony and stores the new credential as
// a configuration row belonging to the user.
func (s *WebauthnService) FinishRegistration(ctx context.Context, user *model.User, sessionKey, credentialName string, body *protocol.ParsedCredentialCreationData) error {
	if s.web == nil {
		return ErrWebAuthnUnsupported
	}

	raw, err := s.rdb.GetString(ctx, webauthnSessionPrefix+sessionKey)
	if err == redis.Nil {
		return ErrWebAuthnSessionExpired
	}
	if err != nil {
		return fmt.Errorf("failed to load ceremony session: %w", err)
	}
	defer s.rdb.Delete(ctx, webauthnSessionPrefix+sessionKey)

	var sessionData webauthn.SessionData
	if err := json.Unmarshal([]byte(raw), &sessionData); err != nil {
		return fmt.Errorf("failed to unmarshal ceremony session: %w", err)
	}

	wUser, err := s.relyingPartyUser(ctx, user)
	if err != nil {
		return err
	}

	credential, err := s.web.CreateCredential(wUser, sessionData, body)
	if err != nil {
		return fmt.Errorf("WebAuthn registration failed: %w", err)
	}

	credJSON, err := json.Marshal(credential)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	cfg := &model.WebauthnConfiguration{
		ID:             generateID("wac"),
		UserID:         user.ID,
		Name:           credentialName,
		CredentialID:   base64.RawURLEncoding.EncodeToString(credential.ID),
		CredentialData: credJSON,
		CreatedAt:      time.Now(),
	}
	if err := s.creds.CreateWebauthnConfiguration(ctx, cfg); err != nil {
		return fmt.Errorf("failed to store webauthn configuration: %w", err)
	}

	user.WebauthnConfigurations = append(user.WebauthnConfigurations, *cfg)

	event := &model.UserEvent{
		ID:        generateID("evt"),
		UserID:    &user.ID,
		Action:    model.EventWebauthnRegistered,
		Metadata:  map[string]interface{}{"credential_name": credentialName},
		CreatedAt: time.Now(),
	}
	if err := s.events.Create(ctx, event); err != nil {
		s.log.Error().Err(err).Msg("failed to record user event")
	}

	s.log.Info().Str("user_id", user.ID).Str("credential_name", credentialName).Msg("WebAuthn credential registered")
	return nil
}
