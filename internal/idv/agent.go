// Package idv implements the identity-verification proofing steps.
package idv

import (
	"context"

	"github.com/proofid/proofid/internal/session"
)

// ProofKind names a proofing capability of the vendor
type ProofKind string

const (
	// ProofKindAddress verifies the applicant's address claim, which for the
	// phone step means proofing the claim against phone carrier records
	ProofKindAddress ProofKind = "address"
	// ProofKindResolution verifies the applicant's core identity attributes
	ProofKindResolution ProofKind = "resolution"
)

// Result is the structured outcome of a single vendor proofing call
type Result struct {
	Success bool                `json:"success"`
	Errors  map[string][]string `json:"errors,omitempty"`
	// Exception carries the vendor's internal error payload when the call
	// raised rather than completing. Empty on clean outcomes.
	Exception string `json:"exception,omitempty"`
	// Attributes holds any additional vendor diagnostic fields
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// ExtraAttributes returns the result's diagnostic payload for analytics:
// everything except the success flag and the errors mapping.
func (r *Result) ExtraAttributes() map[string]interface{} {
	extra := make(map[string]interface{}, len(r.Attributes)+1)
	for k, v := range r.Attributes {
		// Never let a vendor field duplicate the response's own keys
		if k == "success" || k == "errors" {
			continue
		}
		extra[k] = v
	}
	if r.Exception != "" {
		extra["exception"] = r.Exception
	}
	return extra
}

// Agent is the external proofing collaborator. Proof is a blocking,
// potentially long-latency network call; implementations must honor
// context cancellation and deadlines.
type Agent interface {
	Proof(ctx context.Context, kind ProofKind, applicant session.Applicant) (*Result, error)
}
