package handler

import (
	"errors"
	"net/http"

	"github.com/proofid/proofid/internal/model"
	"github.com/proofid/proofid/internal/service"
	"github.com/proofid/proofid/internal/session"
)

type totpConfirmRequest struct {
	Code string `json:"code"`
}

type totpConfirmResponse struct {
	Success  bool        `json:"success"`
	Redirect model.Route `json:"redirect"`
}

// TOTPSetup initiates authenticator-app enrollment. Refreshing the page
// returns the same pending secret and QR code.
func (h *Handler) TOTPSetup(w http.ResponseWriter, r *http.Request) {
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

	resp, err := h.totpSvc.GenerateSecret(r.Context(), sess, user)
	if err != nil {
		if errors.Is(err, service.ErrAlreadyEnrolled) {
			writeJSON(w, http.StatusOK, map[string]interface{}{"redirect": model.RouteAccountHome})
			return
		}
		h.log.Error().Err(err).Msg("TOTP setup failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to set up authenticator app")
		return
	}

	if err := h.sessions.Save(r.Context(), sess); err != nil {
		h.log.Error().Err(err).Msg("failed to save verification session")
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to set up authenticator app")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// TOTPConfirm verifies the submitted one-time code against the pending
// session secret and activates the authenticator on success.
func (h *Handler) TOTPConfirm(w http.ResponseWriter, r *http.Request) {
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

	var req totpConfirmRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "Invalid request body")
		return
	}

	tracker := session.NewAttemptTracker(sess, service.LockoutMaximums(h.cfg))
	_, confirmErr := h.totpSvc.Confirm(r.Context(), tracker, sess, user, req.Code)

	if err := h.sessions.Save(r.Context(), sess); err != nil {
		h.log.Error().Err(err).Msg("failed to save verification session")
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to confirm authenticator app")
		return
	}

	switch {
	case confirmErr == nil:
		redirect := service.RouteAfterConfirmation(
			user.HasPersonalKey(),
			h.cfg.MFA.PersonalKey.OfferAfterTOTPSetup,
		)
		writeJSON(w, http.StatusOK, totpConfirmResponse{Success: true, Redirect: redirect})
	case errors.Is(confirmErr, service.ErrLockedOut):
		writeJSON(w, http.StatusForbidden, totpConfirmResponse{Success: false, Redirect: model.RouteLockedOut})
	case errors.Is(confirmErr, service.ErrNoPendingSecret):
		writeJSON(w, http.StatusOK, totpConfirmResponse{Success: false, Redirect: model.RouteAuthenticatorSetup})
	case errors.Is(confirmErr, service.ErrInvalidCode):
		writeJSON(w, http.StatusOK, totpConfirmResponse{Success: false, Redirect: model.RouteAuthenticatorSetup})
	default:
		h.log.Error().Err(confirmErr).Msg("TOTP confirmation failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to confirm authenticator app")
	}
}

// TOTPDisable removes the confirmed authenticator app. A policy refusal,
// including disabling the user's only factor, silently returns the user to
// the account overview.
func (h *Handler) TOTPDisable(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		h.handleUserLoadError(w, err)
		return
	}

	err = h.totpSvc.Disable(r.Context(), user)
	if err != nil && !errors.Is(err, service.ErrPolicyRefused) && !errors.Is(err, service.ErrNotEnrolled) {
		h.log.Error().Err(err).Msg("TOTP disable failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to disable authenticator app")
		return
	}

	// Refused or not, the user lands back on the account overview
	writeJSON(w, http.StatusOK, map[string]interface{}{"redirect": model.RouteAccountHome})
}
