package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/proofid/proofid/internal/database"
)

// Store errors
var (
	ErrSessionNotFound = errors.New("verification session not found")
)

const keyPrefix = "proofid:idv_session:"

// Store persists verification sessions in Redis as JSON with a TTL.
// There is no atomicity beyond single-writer-per-session.
type Store struct {
	rdb *database.Redis
	ttl time.Duration
}

// NewStore creates a session Store with the given session lifetime
func NewStore(rdb *database.Redis, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// Get retrieves a verification session by ID
func (s *Store) Get(ctx context.Context, id string) (*VerificationSession, error) {
	data, err := s.rdb.GetString(ctx, keyPrefix+id)
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get verification session: %w", err)
	}

	var sess VerificationSession
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal verification session: %w", err)
	}
	return &sess, nil
}

// Save writes a verification session back to Redis, refreshing its TTL
func (s *Store) Save(ctx context.Context, sess *VerificationSession) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal verification session: %w", err)
	}
	if err := s.rdb.SetWithTTL(ctx, keyPrefix+sess.ID, data, s.ttl); err != nil {
		return fmt.Errorf("failed to save verification session: %w", err)
	}
	return nil
}

// Delete removes a verification session
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Delete(ctx, keyPrefix+id); err != nil {
		return fmt.Errorf("failed to delete verification session: %w", err)
	}
	return nil
}
