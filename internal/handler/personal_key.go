package handler

import (
	"net/http"
)

// IssuePersonalKey generates a recovery key for the user and returns the
// plaintext. The key is shown exactly once; only a digest is stored.
func (h *Handler) IssuePersonalKey(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		h.handleUserLoadError(w, err)
		return
	}

	key, err := h.personalKey.Issue(r.Context(), user)
	if err != nil {
		h.log.Error().Err(err).Msg("personal key issuance failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to issue personal key")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"personalKey": key})
}
