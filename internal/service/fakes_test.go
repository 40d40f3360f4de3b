package service

import (
	"context"
	"sync"
	"time"

	"github.com/proofid/proofid/internal/config"
	"github.com/proofid/proofid/internal/logger"
	"github.com/proofid/proofid/internal/model"
	"github.com/proofid/proofid/internal/repository"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.MFA.TOTP = config.TOTPConfig{Issuer: "ProofID", Digits: 6, Period: 30, Skew: 1}
	cfg.MFA.BackupCodes.BatchSize = 10
	cfg.MFA.Lockout.MaxBackupCodeAttempts = 3
	cfg.MFA.Lockout.MaxTOTPAttempts = 3
	cfg.MFA.PersonalKey.WordCount = 4
	cfg.Idv.MaxAttempts = 3
	return cfg
}

func testLogger() *logger.Logger {
	return logger.New("error", "json")
}

// fakeBackupCodeStore is an in-memory BackupCodeStore
type fakeBackupCodeStore struct {
	mu    sync.Mutex
	codes []*model.BackupCodeConfiguration
}

func (f *fakeBackupCodeStore) CreateBackupCodes(_ context.Context, codes []*model.BackupCodeConfiguration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range codes {
		cp := *c
		f.codes = append(f.codes, &cp)
	}
	return nil
}

func (f *fakeBackupCodeStore) GetUnusedBackupCodes(_ context.Context, userID string) ([]*model.BackupCodeConfiguration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.BackupCodeConfiguration
	for _, c := range f.codes {
		if c.UserID == userID && !c.IsUsed() {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeBackupCodeStore) MarkBackupCodeUsed(_ context.Context, id string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var userID string
	for _, c := range f.codes {
		if c.ID == id {
			if c.IsUsed() {
				return 0, repository.ErrNotFound
			}
			now := time.Now()
			c.UsedAt = &now
			userID = c.UserID
			break
		}
	}
	if userID == "" {
		return 0, repository.ErrNotFound
	}
	used := 0
	for _, c := range f.codes {
		if c.UserID == userID && c.IsUsed() {
			used++
		}
	}
	return used, nil
}

func (f *fakeBackupCodeStore) CountUsedBackupCodes(_ context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, c := range f.codes {
		if c.UserID == userID && c.IsUsed() {
			count++
		}
	}
	return count, nil
}

func (f *fakeBackupCodeStore) CountUnusedBackupCodes(_ context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, c := range f.codes {
		if c.UserID == userID && !c.IsUsed() {
			count++
		}
	}
	return count, nil
}

func (f *fakeBackupCodeStore) DeleteAllBackupCodes(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []*model.BackupCodeConfiguration
	for _, c := range f.codes {
		if c.UserID != userID {
			kept = append(kept, c)
		}
	}
	f.codes = kept
	return nil
}

func (f *fakeBackupCodeStore) DeleteBatchIfNearlyExhausted(_ context.Context, userID string, usedThreshold int) (bool, error) {
	f.mu.Lock()
	used := 0
	for _, c := range f.codes {
		if c.UserID == userID && c.IsUsed() {
			used++
		}
	}
	f.mu.Unlock()
	if used < usedThreshold {
		return false, nil
	}
	return true, f.DeleteAllBackupCodes(context.Background(), userID)
}

// fakeUserStore is an in-memory UserStore
type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserStore(users ...*model.User) *fakeUserStore {
	f := &fakeUserStore{users: make(map[string]*model.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) SetOTPSecret(_ context.Context, userID string, secret []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.OTPSecret = secret
	return nil
}

func (f *fakeUserStore) ClearOTPSecret(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.OTPSecret = nil
	return nil
}

func (f *fakeUserStore) SetPersonalKeyDigest(_ context.Context, userID, digest string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	d := digest
	u.PersonalKeyDigest = &d
	return nil
}

// fakeAuthAppStore is an in-memory AuthAppStore
type fakeAuthAppStore struct {
	mu      sync.Mutex
	configs map[string]*model.AuthAppConfiguration
}

func newFakeAuthAppStore() *fakeAuthAppStore {
	return &fakeAuthAppStore{configs: make(map[string]*model.AuthAppConfiguration)}
}

func (f *fakeAuthAppStore) CreateAuthAppConfiguration(_ context.Context, cfg *model.AuthAppConfiguration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.configs[cfg.UserID]; ok {
		return repository.ErrDuplicate
	}
	cp := *cfg
	f.configs[cfg.UserID] = &cp
	return nil
}

func (f *fakeAuthAppStore) GetAuthAppConfiguration(_ context.Context, userID string) (*model.AuthAppConfiguration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.configs[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

func (f *fakeAuthAppStore) DeleteAuthAppConfiguration(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.configs, userID)
	return nil
}

// fakeEventStore records events for assertion
type fakeEventStore struct {
	mu     sync.Mutex
	events []*model.UserEvent
}

func (f *fakeEventStore) Create(_ context.Context, event *model.UserEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEventStore) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i] = e.Action
	}
	return out
}
