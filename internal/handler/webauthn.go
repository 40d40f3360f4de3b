package handler

import (
	"errors"
	"net/http"

	"github.com/go-webauthn/webauthn/protocol"

	"github.com/proofid/proofid/internal/service"
)

// WebauthnRegisterBegin starts the registration ceremony for a new credential
func (h *Handler) WebauthnRegisterBegin(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		h.handleUserLoadError(w, err)
		return
	}

	creation, sessionKey, err := h.webauthnSvc.BeginRegistration(r.Context(), user)
	if err != nil {
		if errors.Is(err, service.ErrWebAuthnUnsupported) {
			writeError(w, http.StatusNotImplemented, "webauthn_unsupported", "WebAuthn is not configured")
			return
		}
		h.log.Error().Err(err).Msg("WebAuthn registration begin failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to begin WebAuthn registration")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"publicKey":  creation,
		"sessionKey": sessionKey,
	})
}

// WebauthnRegisterFinish completes the ceremony and stores the credential
func (h *Handler) WebauthnRegisterFinish(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		h.handleUserLoadError(w, err)
		return
	}

	sessionKey := r.Header.Get("X-WebAuthn-Session")
	credentialName := r.URL.Query().Get("name")
	if credentialName == "" {
		credentialName = "Security key"
	}
	if sessionKey == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "Missing ceremony session key")
		return
	}

	body, err := protocol.ParseCredentialCreationResponseBody(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "Invalid credential creation response")
		return
	}

	err = h.webauthnSvc.FinishRegistration(r.Context(), user, sessionKey, credentialName, body)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWebAuthnUnsupported):
			writeError(w, http.StatusNotImplemented, "webauthn_unsupported", "WebAuthn is not configured")
		case errors.Is(err, service.ErrWebAuthnSessionExpired):
			writeError(w, http.StatusBadRequest, "session_expired", "WebAuthn ceremony expired. Please start again.")
		default:
			h.log.Error().Err(err).Msg("WebAuthn registration finish failed")
			writeError(w, http.StatusInternalServerError, "internal_error", "Failed to complete WebAuthn registration")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "WebAuthn credential registered"})
}
