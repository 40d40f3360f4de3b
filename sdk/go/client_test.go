package proofid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	t.Run("api suffix appended", func(t *testing.T) {
		t.Parallel()
		cfg := Config{BaseURL: "https://idp.example.com/"}
		cfg.defaults()
		require.Equal(t, "https://idp.example.com/api/v1", cfg.BaseURL)
	})

	t.Run("existing suffix kept", func(t *testing.T) {
		t.Parallel()
		cfg := Config{BaseURL: "https://idp.example.com/api/v1"}
		cfg.defaults()
		require.Equal(t, "https://idp.example.com/api/v1", cfg.BaseURL)
	})
}

func TestMFAStatus(t *testing.T) {
	t.Parallel()

	t.Run("fetches and caches per token", func(t *testing.T) {
		t.Parallel()

		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			require.Equal(t, "/api/v1/mfa", r.URL.Path)
			require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(MFAStatus{
				MFAEnabled:           true,
				FactorCounts:         map[string]int{"auth_app": 1},
				BackupCodesRemaining: 7,
			})
		}))
		defer srv.Close()

		client := NewClient(Config{BaseURL: srv.URL, CacheTTL: time.Minute})

		status, err := client.MFAStatus(context.Background(), "tok-1")
		require.NoError(t, err)
		require.True(t, status.MFAEnabled)
		require.Equal(t, 7, status.BackupCodesRemaining)

		_, err = client.MFAStatus(context.Background(), "tok-1")
		require.NoError(t, err)
		require.Equal(t, 1, calls, "second lookup must be served from cache")

		client.InvalidateStatus("tok-1")
		_, err = client.MFAStatus(context.Background(), "tok-1")
		require.NoError(t, err)
		require.Equal(t, 2, calls)
	})

	t.Run("empty token", func(t *testing.T) {
		t.Parallel()

		client := NewClient(Config{BaseURL: "http://localhost:0"})
		_, err := client.MFAStatus(context.Background(), "")
		require.ErrorIs(t, err, ErrNoToken)
	})

	t.Run("unauthorized", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		client := NewClient(Config{BaseURL: srv.URL})
		_, err := client.MFAStatus(context.Background(), "bad-token")
		require.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestVerificationSessionLifecycle(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/idv/sessions":
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]string{"sessionId": "vs_123"})
		case r.Method == http.MethodDelete && r.URL.Path == "/api/v1/idv/sessions":
			require.Equal(t, "vs_123", r.Header.Get("X-Verification-Session"))
			json.NewEncoder(w).Encode(map[string]string{"message": "Verification session ended"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})

	sessionID, err := client.StartVerification(context.Background(), "tok-1")
	require.NoError(t, err)
	require.Equal(t, "vs_123", sessionID)

	require.NoError(t, client.EndVerification(context.Background(), "tok-1", sessionID))
}

func TestVerifyBackupCode(t *testing.T) {
	t.Parallel()

	t.Run("success outcome", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/api/v1/mfa/backup-codes/verify", r.URL.Path)
			require.Equal(t, "vs_123", r.Header.Get("X-Verification-Session"))

			var req map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(t, "abcd-1234", req["backupCode"])

			json.NewEncoder(w).Encode(StepOutcome{Success: true, Redirect: RoutePersonalKeyRotation})
		}))
		defer srv.Close()

		client := NewClient(Config{BaseURL: srv.URL})
		outcome, err := client.VerifyBackupCode(context.Background(), "tok-1", "vs_123", "abcd-1234")

		require.NoError(t, err)
		require.True(t, outcome.Success)
		require.Equal(t, RoutePersonalKeyRotation, outcome.Redirect)
	})

	t.Run("lockout maps to ErrLockedOut", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(StepOutcome{Success: false, Redirect: RouteLockedOut})
		}))
		defer srv.Close()

		client := NewClient(Config{BaseURL: srv.URL})
		outcome, err := client.VerifyBackupCode(context.Background(), "tok-1", "vs_123", "zzzz-zzzz")

		require.ErrorIs(t, err, ErrLockedOut)
		require.NotNil(t, outcome)
		require.Equal(t, RouteLockedOut, outcome.Redirect)
	})

	t.Run("invalid code is a non-error outcome", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(StepOutcome{Success: false, Redirect: RouteRetry})
		}))
		defer srv.Close()

		client := NewClient(Config{BaseURL: srv.URL})
		outcome, err := client.VerifyBackupCode(context.Background(), "tok-1", "vs_123", "zzzz-zzzz")

		require.NoError(t, err)
		require.False(t, outcome.Success)
		require.Equal(t, RouteRetry, outcome.Redirect)
	})
}

func TestAuthenticatorEnrollment(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/mfa/totp/setup":
			json.NewEncoder(w).Encode(AuthenticatorSetup{
				Secret:     "JBSWY3DPEHPK3PXP",
				OtpauthURL: "otpauth://totp/ProofID:ada%40example.com?secret=JBSWY3DPEHPK3PXP",
				Issuer:     "ProofID",
			})
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/mfa/totp/confirm":
			json.NewEncoder(w).Encode(StepOutcome{Success: true, Redirect: RoutePersonalKeySetup})
		case r.Method == http.MethodDelete && r.URL.Path == "/api/v1/mfa/totp":
			json.NewEncoder(w).Encode(map[string]string{"redirect": RouteAccountHome})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	ctx := context.Background()

	setup, err := client.SetupAuthenticator(ctx, "tok-1", "vs_123")
	require.NoError(t, err)
	require.Equal(t, "JBSWY3DPEHPK3PXP", setup.Secret)

	outcome, err := client.ConfirmAuthenticator(ctx, "tok-1", "vs_123", "123456")
	require.NoError(t, err)
	require.True(t, outcome.Success)
	require.Equal(t, RoutePersonalKeySetup, outcome.Redirect)

	disabled, err := client.DisableAuthenticator(ctx, "tok-1")
	require.NoError(t, err)
	require.Equal(t, RouteAccountHome, disabled.Redirect)
}

func TestSubmitPhoneStep(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/idv/phone", r.URL.Path)

		var req PhoneStepRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "7035551213", req.Phone)

		json.NewEncoder(w).Encode(PhoneStepResult{
			Success:  false,
			Errors:   map[string][]string{"phone": {"record not found"}},
			Redirect: RouteRetry,
		})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	result, err := client.SubmitPhoneStep(context.Background(), "tok-1", "vs_123", PhoneStepRequest{
		Phone:    "7035551213",
		Address1: "1 Main St",
	})

	require.NoError(t, err)
	require.False(t, result.Success)
	require.Equal(t, map[string][]string{"phone": {"record not found"}}, result.Errors)
	require.Equal(t, RouteRetry, result.Redirect)
}

func TestIssuePersonalKey(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/account/personal-key", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"personalKey": "tk3h-2an9-p7xz-m4rc"})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	key, err := client.IssuePersonalKey(context.Background(), "tok-1")

	require.NoError(t, err)
	require.Equal(t, "tk3h-2an9-p7xz-m4rc", key)
}

func TestAPIErrorParsing(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "no_session",
			"message": "No active verification session",
		})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	_, err := client.SubmitPhoneStep(context.Background(), "tok-1", "", PhoneStepRequest{Phone: "x"})

	apiErr, ok := IsAPIError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Equal(t, "no_session", apiErr.Code)
	require.Equal(t, "No active verification session", apiErr.Message)
}
