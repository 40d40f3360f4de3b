package handler

import (
	"net/http"

	"github.com/proofid/proofid/internal/idv"
	"github.com/proofid/proofid/internal/model"
	"github.com/proofid/proofid/internal/service"
	"github.com/proofid/proofid/internal/session"
)

type phoneStepRequest struct {
	Phone    string `json:"phone"`
	Address1 string `json:"address1,omitempty"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	Zipcode  string `json:"zipcode,omitempty"`
}

type phoneStepResponse struct {
	model.FormResponse
	FailureReason idv.FailureReason `json:"failureReason,omitempty"`
	Redirect      model.Route       `json:"redirect,omitempty"`
}

// SubmitPhoneStep runs the phone identity-proofing step: the applicant claim
// is merged with the submitted params, proofed with the vendor, and the
// outcome recorded on the verification session.
func (h *Handler) SubmitPhoneStep(w http.ResponseWriter, r *http.Request) {
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

	var req phoneStepRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "Invalid request body")
		return
	}

	tracker := session.NewAttemptTracker(sess, service.LockoutMaximums(h.cfg))
	step := idv.NewPhoneStep(sess, tracker, h.agent, h.eventRepo, user, h.cfg.Idv, h.log)

	result := step.Submit(r.Context(), session.Applicant{
		Phone:    req.Phone,
		Address1: req.Address1,
		Address2: req.Address2,
		City:     req.City,
		State:    req.State,
		Zipcode:  req.Zipcode,
	})

	if err := h.sessions.Save(r.Context(), sess); err != nil {
		h.log.Error().Err(err).Msg("failed to save verification session")
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to submit phone step")
		return
	}

	resp := phoneStepResponse{FormResponse: result}
	switch step.FailureReason() {
	case idv.FailureNone:
		resp.Redirect = model.RouteIdvFunnel
	case idv.FailureExceeded:
		resp.FailureReason = idv.FailureExceeded
		resp.Redirect = model.RouteLockedOut
	case idv.FailureVendorError:
		resp.FailureReason = idv.FailureVendorError
		resp.Redirect = model.RouteRetry
	case idv.FailureRejected:
		resp.FailureReason = idv.FailureRejected
		resp.Redirect = model.RouteRetry
	}

	writeJSON(w, http.StatusOK, resp)
}
