package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/argon2"

	"github.com/proofid/proofid/internal/config"
	"github.com/proofid/proofid/internal/logger"
	"github.com/proofid/proofid/internal/model"
)

const (
	personalKeyGroupLength = 4
	argonTime              = 3
	argonMemory            = 64 * 1024
	argonThreads           = 4
	argonKeyLength         = 32
)

// PersonalKeyService issues and checks account recovery keys. The plaintext
// key is shown to the user exactly once; only an argon2id digest is stored.
type PersonalKeyService struct {
	users  UserStore
	events EventStore
	cfg    *config.Config
	log    *logger.Logger
}

// NewPersonalKeyService creates a new PersonalKeyService
func NewPersonalKeyService(users UserStore, events EventStore, cfg *config.Config, log *logger.Logger) *PersonalKeyService {
	return &PersonalKeyService{
		users:  users,
		events: events,
		cfg:    cfg,
		log:    log.WithComponent("personal_key_service"),
	}
}

// Issue generates a fresh personal key for the user, stores its digest, and
// returns the plaintext. Reissuing replaces any previous key.
func (s *PersonalKeyService) Issue(ctx context.Context, user *model.User) (string, error) {
	key := generatePersonalKey(s.cfg.MFA.PersonalKey.WordCount)

	digest, err := digestPersonalKey(key)
	if err != nil {
		return "", err
	}
	if err := s.users.SetPersonalKeyDigest(ctx, user.ID, digest); err != nil {
		return "", fmt.Errorf("failed to store personal key digest: %w", err)
	}

	now := time.Now()
	user.PersonalKeyDigest = &digest
	user.PersonalKeyIssuedAt = &now

	s.recordEvent(ctx, user.ID, model.EventPersonalKeyIssued)
	s.log.Info().Str("user_id", user.ID).Msg("personal key issued")
	return key, nil
}

// Configured reports whether the user already holds a personal key
func (s *PersonalKeyService) Configured(user *model.User) bool {
	return user.HasPersonalKey()
}

// Check verifies a submitted personal key against the stored digest
func (s *PersonalKeyService) Check(user *model.User, candidate string) bool {
	if !user.HasPersonalKey() {
		return false
	}
	return verifyPersonalKey(*user.PersonalKeyDigest, candidate)
}

func (s *PersonalKeyService) recordEvent(ctx context.Context, userID, action string) {
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

// generatePersonalKey builds a key of hyphen-separated character groups,
// such as "tk3h-2an9-p7xz-m4rc"
func generatePersonalKey(groups int) string {
	const charset = "0123456789abcdefghjkmnpqrstuvwxyz" // no i, l, o to avoid confusion
	if groups <= 0 {
		groups = 4
	}
	b := make([]byte, groups*personalKeyGroupLength)
	if _, err := rand.Read(b); err != nil {
		panic("failed to generate random bytes for personal key")
	}

	parts := make([]string, groups)
	for g := 0; g < groups; g++ {
		group := make([]byte, personalKeyGroupLength)
		for i := range group {
			group[i] = charset[int(b[g*personalKeyGroupLength+i])%len(charset)]
		}
		parts[g] = string(group)
	}
	return strings.Join(parts, "-")
}

func normalizePersonalKey(key string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(key), "-", ""))
}

func digestPersonalKey(key string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	hash := argon2.IDKey([]byte(normalizePersonalKey(key)), salt, argonTime, argonMemory, argonThreads, argonKeyLength)
	return fmt.Sprintf("argon2id$%s$%s",
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

func verifyPersonalKey(digest, candidate string) bool {
	parts := strings.Split(digest, "$")
	if len(parts) != 3 || parts[0] != "argon2id" {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(normalizePersonalKey(candidate)), salt, argonTime, argonMemory, argonThreads, argonKeyLength)
	return subtle.ConstantTimeCompare(want, got) == 1
}
