package handler

import (
	"errors"
	"net/http"

	"github.com/proofid/proofid/internal/model"
	"github.com/proofid/proofid/internal/repository"
	"github.com/proofid/proofid/internal/service"
	"github.com/proofid/proofid/internal/session"
)

type backupCodeVerifyRequest struct {
	BackupCode string `json:"backupCode"`
}

type backupCodeVerifyResponse struct {
	Success  bool        `json:"success"`
	Redirect model.Route `json:"redirect"`
}

// ShowBackupCodeEntry is the precondition check run before the entry form is
// presented: a nearly exhausted batch is deleted here and the user sent to
// regeneration instead of the form.
func (h *Handler) ShowBackupCodeEntry(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		h.handleUserLoadError(w, err)
		return
	}

	deleted, remaining, err := h.backupCodes.EntryStatus(r.Context(), user.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("backup code entry check failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to check backup codes")
		return
	}
	if deleted {
		writeJSON(w, http.StatusOK, backupCodeVerifyResponse{Success: false, Redirect: model.RouteBackupCodeSetup})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"codesRemaining": remaining,
	})
}

// VerifyBackupCode verifies a submitted backup code via SubmitCode, which
// runs the exhaustion precheck, verification with lockout, and the exhaustion
// check again after the attempt.
func (h *Handler) VerifyBackupCode(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		h.handleUserLoadError(w, err)
		return
	}

	sess, err := h.currentVerificationSession(r)
	if err != nil {
		h.handleSessionLoadError(w, err)
		return
	}

	var req backupCodeVerifyRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "Invalid request body")
		return
	}

	tracker := session.NewAttemptTracker(sess, service.LockoutMaximums(h.cfg))
	result, verifyErr := h.backupCodes.SubmitCode(r.Context(), tracker, user.ID, req.BackupCode)

	if result.Success {
		// A consumed backup code compromises the printed sheet; route the
		// user to rotate their personal key and drop device remembering
		sess.MarkFullyAuthenticated()
		sess.MFADeviceRemembered = false
	}
	if err := h.sessions.Save(r.Context(), sess); err != nil {
		h.log.Error().Err(err).Msg("failed to save verification session")
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to verify backup code")
		return
	}

	switch {
	case verifyErr == nil:
		writeJSON(w, http.StatusOK, backupCodeVerifyResponse{Success: true, Redirect: model.RoutePersonalKeyRotation})
	case errors.Is(verifyErr, service.ErrLockedOut):
		writeJSON(w, http.StatusForbidden, backupCodeVerifyResponse{Success: false, Redirect: model.RouteLockedOut})
	case errors.Is(verifyErr, service.ErrNoBackupCodes):
		writeJSON(w, http.StatusOK, backupCodeVerifyResponse{Success: false, Redirect: model.RouteBackupCodeSetup})
	case errors.Is(verifyErr, service.ErrInvalidCode):
		writeJSON(w, http.StatusOK, backupCodeVerifyResponse{Success: false, Redirect: model.RouteRetry})
	default:
		h.log.Error().Err(verifyErr).Msg("backup code verification failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to verify backup code")
	}
}

// RegenerateBackupCodes replaces the user's batch and returns the new codes
func (h *Handler) RegenerateBackupCodes(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		h.handleUserLoadError(w, err)
		return
	}

	resp, err := h.backupCodes.Generate(r.Context(), user.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("backup code generation failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to generate backup codes")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleUserLoadError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "User not found")
		return
	}
	h.log.Error().Err(err).Msg("failed to load user")
	writeError(w, http.StatusInternalServerError, "internal_error", "Failed to load user")
}

func (h *Handler) handleSessionLoadError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrSessionNotFound) {
		writeError(w, http.StatusBadRequest, "no_session", "No active verification session")
		return
	}
	h.log.Error().Err(err).Msg("failed to load verification session")
	writeError(w, http.StatusInternalServerError, "internal_error", "Failed to load verification session")
}
