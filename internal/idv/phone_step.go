package idv

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/proofid/proofid/internal/config"
	"github.com/proofid/proofid/internal/logger"
	"github.com/proofid/proofid/internal/model"
	"github.com/proofid/proofid/internal/session"
)

// EventRecorder persists user events emitted by proofing steps.
// *repository.EventRepository satisfies it.
type EventRecorder interface {
	Create(ctx context.Context, event *model.UserEvent) error
}

// FailureReason classifies the terminal outcome of a proofing step
type FailureReason string

const (
	// FailureNone means the step succeeded and the caller should proceed
	FailureNone FailureReason = ""
	// FailureExceeded means the attempt ceiling for the factor was reached
	FailureExceeded FailureReason = "exceeded"
	// FailureVendorError means the vendor call raised or returned an
	// internal exception payload
	FailureVendorError FailureReason = "vendor_error"
	// FailureRejected means the vendor completed but did not confirm the claim
	FailureRejected FailureReason = "rejected"
)

// PhoneStep submits an applicant's phone-linked identity claim to the
// proofing agent and records the outcome on the verification session.
// A PhoneStep instance serves a single submit; construct a new one per request.
type PhoneStep struct {
	sess    *session.VerificationSession
	tracker *session.AttemptTracker
	agent   Agent
	events  EventRecorder
	user    *model.User
	cfg     config.IdvConfig
	log     *logger.Logger

	applicant session.Applicant
	result    *Result
}

// NewPhoneStep builds a phone proofing step bound to a verification session
func NewPhoneStep(
	sess *session.VerificationSession,
	tracker *session.AttemptTracker,
	agent Agent,
	events EventRecorder,
	user *model.User,
	cfg config.IdvConfig,
	log *logger.Logger,
) *PhoneStep {
	return &PhoneStep{
		sess:    sess,
		tracker: tracker,
		agent:   agent,
		events:  events,
		user:    user,
		cfg:     cfg,
		log:     log.WithComponent("idv_phone_step"),
	}
}

// Submit merges the step params into the session's applicant claim, proofs
// the merged applicant with the vendor, and updates the session on success.
// One attempt is consumed per call regardless of outcome.
func (s *PhoneStep) Submit(ctx context.Context, params session.Applicant) model.FormResponse {
	s.applicant = s.sess.Applicant.Merge(params)

	result, err := s.agent.Proof(ctx, ProofKindAddress, s.applicant)
	if err != nil {
		result = &Result{Success: false, Exception: err.Error()}
	}
	s.result = result

	s.tracker.Increment(model.FactorPhone)

	if result.Success {
		s.updateSession()
	}

	s.log.Info().
		Str("user_id", s.sess.UserID).
		Bool("success", result.Success).
		Int("attempts", s.tracker.Attempts(model.FactorPhone)).
		Msg("phone proofing step submitted")
	s.recordSubmission(ctx, result)

	return model.FormResponse{
		Success: result.Success,
		Errors:  result.Errors,
		Extra:   result.ExtraAttributes(),
	}
}

// FailureReason classifies the outcome for caller routing. The max-attempts
// check always wins over a vendor error, which wins over a plain rejection.
func (s *PhoneStep) FailureReason() FailureReason {
	if s.tracker.Attempts(model.FactorPhone) >= s.cfg.MaxAttempts {
		return FailureExceeded
	}
	if s.result != nil && s.result.Exception != "" {
		return FailureVendorError
	}
	if s.result == nil || !s.result.Success {
		return FailureRejected
	}
	return FailureNone
}

func (s *PhoneStep) recordSubmission(ctx context.Context, result *Result) {
	userID := s.sess.UserID
	event := &model.UserEvent{
		ID:     "evt_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:26],
		UserID: &userID,
		Action: model.EventIdvPhoneStepSubmitted,
		Metadata: map[string]interface{}{
			"success":  result.Success,
			"attempts": s.tracker.Attempts(model.FactorPhone),
		},
		CreatedAt: time.Now(),
	}
	if err := s.events.Create(ctx, event); err != nil {
		s.log.Error().Err(err).Msg("failed to record user event")
	}
}

func (s *PhoneStep) updateSession() {
	s.sess.AddressVerificationMechanism = session.MechanismPhone
	s.sess.Applicant = s.applicant
	s.sess.VendorPhoneConfirmation = true
	s.sess.UserPhoneConfirmation = s.phoneMatchesUserPhone()
}

func (s *PhoneStep) phoneMatchesUserPhone() bool {
	if s.user == nil {
		return false
	}
	return PhonesMatch(s.applicant.Phone, s.user.Phone, s.cfg.DefaultRegion)
}
