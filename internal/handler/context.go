package handler

import (
	"net/http"

	"github.com/proofid/proofid/internal/middleware"
	"github.com/proofid/proofid/internal/model"
	"github.com/proofid/proofid/internal/session"
)

// currentUser loads the authenticated user with factor configurations attached
func (h *Handler) currentUser(r *http.Request) (*model.User, error) {
	userID := middleware.GetUserID(r.Context())
	user, err := h.userRepo.GetByID(r.Context(), userID)
	if err != nil {
		return nil, err
	}
	if err := h.mfaRepo.LoadConfigurations(r.Context(), user); err != nil {
		return nil, err
	}
	return user, nil
}

// currentVerificationSession resolves the request's verification session.
// The session ID comes from the X-Verification-Session header or, failing
// that, from the session token's sid claim.
func (h *Handler) currentVerificationSession(r *http.Request) (*session.VerificationSession, error) {
	id := r.Header.Get("X-Verification-Session")
	if id == "" {
		id = middleware.GetSessionID(r.Context())
	}
	if id == "" {
		return nil, session.ErrSessionNotFound
	}
	return h.sessions.Get(r.Context(), id)
}
