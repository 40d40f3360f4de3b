package handler

import (
	"errors"
	"net/http"

	"github.com/proofid/proofid/internal/middleware"
	"github.com/proofid/proofid/internal/repository"
	"github.com/proofid/proofid/internal/session"
)

// StartVerificationSession creates a fresh verification session for the
// authenticated user. Attempt counters reset only by starting a new session.
func (h *Handler) StartVerificationSession(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}
	if _, err := h.userRepo.GetByID(r.Context(), userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "User not found")
			return
		}
		h.log.Error().Err(err).Msg("failed to load user")
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to start verification session")
		return
	}

	sess := session.New(userID)
	if err := h.sessions.Save(r.Context(), sess); err != nil {
		h.log.Error().Err(err).Msg("failed to save verification session")
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to start verification session")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"sessionId": sess.ID})
}

// EndVerificationSession discards the verification session and any pending
// enrollment secret it holds.
func (h *Handler) EndVerificationSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.currentVerificationSession(r)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			writeJSON(w, http.StatusOK, map[string]string{"message": "No active verification session"})
			return
		}
		h.log.Error().Err(err).Msg("failed to load verification session")
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to end verification session")
		return
	}

	if err := h.sessions.Delete(r.Context(), sess.ID); err != nil {
		h.log.Error().Err(err).Msg("failed to delete verification session")
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to end verification session")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Verification session ended"})
}
