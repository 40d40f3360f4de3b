package router

import (
	"net/http"
	"time"

	"github.com/proofid/proofid/internal/handler"
	"github.com/proofid/proofid/internal/middleware"
)

// New creates and configures the HTTP router
func New(h *handler.Handler, mw *middleware.Middleware) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoints (no auth required)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ready", h.Ready)

	authMw := mw.Auth()

	// Code submission endpoints share a per-user rate limit on top of the
	// in-session attempt tracking
	verifyRateLimit := mw.RateLimit(middleware.RateLimitConfig{
		Limit:  10,
		Window: 15 * time.Minute,
		KeyFn:  middleware.UserKey,
	})
	proofingRateLimit := mw.RateLimit(middleware.RateLimitConfig{
		Limit:  5,
		Window: 15 * time.Minute,
		KeyFn:  middleware.UserKey,
	})

	// Verification session lifecycle
	mux.Handle("POST /api/v1/idv/sessions", authMw(http.HandlerFunc(h.StartVerificationSession)))
	mux.Handle("DELETE /api/v1/idv/sessions", authMw(http.HandlerFunc(h.EndVerificationSession)))

	// Identity proofing
	mux.Handle("POST /api/v1/idv/phone", authMw(proofingRateLimit(http.HandlerFunc(h.SubmitPhoneStep))))

	// MFA status
	mux.Handle("GET /api/v1/mfa", authMw(http.HandlerFunc(h.GetMFAStatus)))

	// Backup codes
	mux.Handle("GET /api/v1/mfa/backup-codes", authMw(http.HandlerFunc(h.ShowBackupCodeEntry)))
	mux.Handle("POST /api/v1/mfa/backup-codes/verify", authMw(verifyRateLimit(http.HandlerFunc(h.VerifyBackupCode))))
	mux.Handle("POST /api/v1/mfa/backup-codes/regenerate", authMw(http.HandlerFunc(h.RegenerateBackupCodes)))

	// Authenticator app enrollment
	mux.Handle("GET /api/v1/mfa/totp/setup", authMw(http.HandlerFunc(h.TOTPSetup)))
	mux.Handle("POST /api/v1/mfa/totp/confirm", authMw(verifyRateLimit(http.HandlerFunc(h.TOTPConfirm))))
	mux.Handle("DELETE /api/v1/mfa/totp", authMw(http.HandlerFunc(h.TOTPDisable)))

	// WebAuthn registration
	mux.Handle("POST /api/v1/mfa/webauthn/register/begin", authMw(http.HandlerFunc(h.WebauthnRegisterBegin)))
	mux.Handle("POST /api/v1/mfa/webauthn/register/finish", authMw(http.HandlerFunc(h.WebauthnRegisterFinish)))

	// Personal key
	mux.Handle("POST /api/v1/account/personal-key", authMw(http.HandlerFunc(h.IssuePersonalKey)))

	// Apply global middleware (order: outermost first)
	var root http.Handler = mux
	root = mw.Logger(root)
	root = mw.Recover(root)
	root = mw.RequestID(root)

	return root
}
