package handler

import (
	"errors"
	"net/http"

	"github.com/proofid/proofid/internal/mfa"
	"github.com/proofid/proofid/internal/model"
	"github.com/proofid/proofid/internal/repository"
)

// GetMFAStatus reports which factor kinds the authenticated user has
// configured and in what counts.
func (h *Handler) GetMFAStatus(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "User not found")
			return
		}
		h.log.Error().Err(err).Msg("failed to load user configurations")
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to get MFA status")
		return
	}

	ctx := mfa.NewContext(user)
	counts := ctx.EnabledFactorCounts()

	remaining, err := h.backupCodes.RemainingCodes(r.Context(), user.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to count backup codes")
	}

	writeJSON(w, http.StatusOK, model.MFAStatusResponse{
		MFAEnabled:           ctx.TwoFactorEnabled(),
		FactorCounts:         counts,
		BackupCodesRemaining: remaining,
		PersonalKeyIssued:    user.HasPersonalKey(),
	})
}
