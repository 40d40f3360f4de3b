package proofid

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Config holds the configuration for the ProofID client.
type Config struct {
	// BaseURL is the root URL of the ProofID server.
	// Examples: "https://idp.example.com" or "https://idp.example.com/api/v1"
	// The "/api/v1" suffix is appended automatically if missing.
	BaseURL string

	// CacheTTL controls how long MFA status lookups are cached in memory
	// to reduce calls to the ProofID server. Set to 0 to disable caching.
	// Default: 2 minutes
	CacheTTL time.Duration

	// HTTPClient is an optional custom HTTP client.
	// If nil, a default client with 10s timeout is used.
	HTTPClient *http.Client
}

func (c *Config) defaults() {
	if c.CacheTTL == 0 {
		c.CacheTTL = 2 * time.Minute
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")
	if !strings.HasSuffix(c.BaseURL, "/api/v1") {
		c.BaseURL = c.BaseURL + "/api/v1"
	}
}

// Client is the ProofID SDK client for relying-party services. A verification
// session ID, obtained from StartVerification, accompanies every in-funnel
// call via the X-Verification-Session header.
type Client struct {
	cfg   Config
	cache *statusCache
}

// NewClient creates a new ProofID client with the given configuration.
func NewClient(cfg Config) *Client {
	cfg.defaults()
	return &Client{
		cfg:   cfg,
		cache: newStatusCache(),
	}
}

// MFAStatus reports which second factors the token's user has configured.
// Results are cached according to CacheTTL to reduce network calls.
func (c *Client) MFAStatus(ctx context.Context, token string) (*MFAStatus, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	if c.cfg.CacheTTL > 0 {
		if status, ok := c.cache.get(token); ok {
			return status, nil
		}
	}

	var status MFAStatus
	if err := c.do(ctx, http.MethodGet, "/mfa", token, "", nil, &status); err != nil {
		return nil, err
	}

	if c.cfg.CacheTTL > 0 {
		c.cache.set(token, &status, c.cfg.CacheTTL)
	}
	return &status, nil
}

// InvalidateStatus removes a token's cached MFA status. Call this after any
// enrollment change so stale factor counts are not served from cache.
func (c *Client) InvalidateStatus(token string) {
	c.cache.delete(token)
}

// StartVerification opens a fresh verification session and returns its ID.
// Attempt counters reset only by starting a new session.
func (c *Client) StartVerification(ctx context.Context, token string) (string, error) {
	var resp struct {
		SessionID string `json:"sessionId"`
	}
	if err := c.do(ctx, http.MethodPost, "/idv/sessions", token, "", nil, &resp); err != nil {
		return "", err
	}
	return resp.SessionID, nil
}

// EndVerification discards a verification session and any pending
// enrollment secret it holds.
func (c *Client) EndVerification(ctx context.Context, token, sessionID string) error {
	return c.do(ctx, http.MethodDelete, "/idv/sessions", token, sessionID, nil, nil)
}

// VerifyBackupCode submits a backup code for verification. On lockout the
// outcome is returned together with ErrLockedOut.
func (c *Client) VerifyBackupCode(ctx context.Context, token, sessionID, code string) (*StepOutcome, error) {
	outcome := &StepOutcome{}
	err := c.do(ctx, http.MethodPost, "/mfa/backup-codes/verify", token, sessionID, map[string]string{
		"backupCode": code,
	}, outcome)
	if err != nil {
		return c.lockoutOutcome(token, err)
	}
	c.cache.delete(token)
	return outcome, nil
}

// RegenerateBackupCodes replaces the user's backup code batch and returns
// the new plaintext codes.
func (c *Client) RegenerateBackupCodes(ctx context.Context, token string) (*BackupCodes, error) {
	var codes BackupCodes
	if err := c.do(ctx, http.MethodPost, "/mfa/backup-codes/regenerate", token, "", nil, &codes); err != nil {
		return nil, err
	}
	c.cache.delete(token)
	return &codes, nil
}

// SetupAuthenticator begins authenticator-app enrollment. Calling it again
// within the same verification session returns the same secret and QR code.
func (c *Client) SetupAuthenticator(ctx context.Context, token, sessionID string) (*AuthenticatorSetup, error) {
	var setup AuthenticatorSetup
	if err := c.do(ctx, http.MethodGet, "/mfa/totp/setup", token, sessionID, nil, &setup); err != nil {
		return nil, err
	}
	return &setup, nil
}

// ConfirmAuthenticator submits the one-time code that completes enrollment.
// On lockout the outcome is returned together with ErrLockedOut.
func (c *Client) ConfirmAuthenticator(ctx context.Context, token, sessionID, code string) (*StepOutcome, error) {
	outcome := &StepOutcome{}
	err := c.do(ctx, http.MethodPost, "/mfa/totp/confirm", token, sessionID, map[string]string{
		"code": code,
	}, outcome)
	if err != nil {
		return c.lockoutOutcome(token, err)
	}
	c.cache.delete(token)
	return outcome, nil
}

// DisableAuthenticator removes the user's authenticator app. A policy
// refusal, such as disabling the only enabled factor, is not an error; the
// returned redirect leads back to the account overview either way.
func (c *Client) DisableAuthenticator(ctx context.Context, token string) (*StepOutcome, error) {
	outcome := &StepOutcome{}
	if err := c.do(ctx, http.MethodDelete, "/mfa/totp", token, "", nil, outcome); err != nil {
		return nil, err
	}
	c.cache.delete(token)
	return outcome, nil
}

// SubmitPhoneStep runs the phone identity-proofing step for the applicant.
func (c *Client) SubmitPhoneStep(ctx context.Context, token, sessionID string, req PhoneStepRequest) (*PhoneStepResult, error) {
	var result PhoneStepResult
	if err := c.do(ctx, http.MethodPost, "/idv/phone", token, sessionID, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// IssuePersonalKey generates a recovery key for the user and returns the
// plaintext. The key is shown exactly once.
func (c *Client) IssuePersonalKey(ctx context.Context, token string) (string, error) {
	var resp struct {
		PersonalKey string `json:"personalKey"`
	}
	if err := c.do(ctx, http.MethodPost, "/account/personal-key", token, "", nil, &resp); err != nil {
		return "", err
	}
	c.cache.delete(token)
	return resp.PersonalKey, nil
}

// lockoutOutcome maps a 403 lockout rejection to a StepOutcome plus
// ErrLockedOut so callers can route without parsing the APIError.
func (c *Client) lockoutOutcome(token string, err error) (*StepOutcome, error) {
	if apiErr, ok := IsAPIError(err); ok && apiErr.StatusCode == http.StatusForbidden {
		c.cache.delete(token)
		return &StepOutcome{Success: false, Redirect: RouteLockedOut}, ErrLockedOut
	}
	return nil, err
}

// do sends a request to the ProofID API and decodes the response into out.
func (c *Client) do(ctx context.Context, method, path, token, sessionID string, payload, out interface{}) error {
	if token == "" {
		return ErrNoToken
	}

	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("proofid: failed to marshal request: %w", err)
		}
		bodyReader = strings.NewReader(string(data))
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("proofid: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.Header.Set("X-Verification-Session", sessionID)
	}

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("proofid: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("proofid: failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode >= 400 {
		return parseAPIError(resp.StatusCode, body)
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("proofid: failed to parse response: %w", err)
		}
	}
	return nil
}

// statusCache provides in-memory caching for MFA status lookups.
type statusCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	status    *MFAStatus
	expiresAt time.Time
}

func newStatusCache() *statusCache {
	return &statusCache{
		entries: make(map[string]*cacheEntry),
	}
}

func (sc *statusCache) get(token string) (*MFAStatus, bool) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	entry, ok := sc.entries[token]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.status, true
}

func (sc *statusCache) set(token string, status *MFAStatus, ttl time.Duration) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	// Opportunistically drop expired entries to bound growth
	now := time.Now()
	for k, v := range sc.entries {
		if now.After(v.expiresAt) {
			delete(sc.entries, k)
		}
	}
	sc.entries[token] = &cacheEntry{
		status:    status,
		expiresAt: now.Add(ttl),
	}
}

func (sc *statusCache) delete(token string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	delete(sc.entries, token)
}
