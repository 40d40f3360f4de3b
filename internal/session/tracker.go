package session

import "github.com/proofid/proofid/internal/model"

// AttemptTracker counts verification attempts per factor within one
// verification session and enforces externally configured maximums.
// It has no side effects beyond mutating the session's counters.
type AttemptTracker struct {
	sess *VerificationSession
	max  map[model.FactorKind]int
}

// NewAttemptTracker binds a tracker to a session with injected per-factor
// maximums. A factor with no configured maximum never locks out.
func NewAttemptTracker(sess *VerificationSession, max map[model.FactorKind]int) *AttemptTracker {
	return &AttemptTracker{sess: sess, max: max}
}

// Increment adds one attempt for the given factor
func (t *AttemptTracker) Increment(factor model.FactorKind) {
	if t.sess.StepAttempts == nil {
		t.sess.StepAttempts = make(map[model.FactorKind]int)
	}
	t.sess.StepAttempts[factor]++
}

// Attempts returns the current attempt count for the given factor
func (t *AttemptTracker) Attempts(factor model.FactorKind) int {
	return t.sess.StepAttempts[factor]
}

// Exceeded reports whether the factor's attempt count has reached its maximum
func (t *AttemptTracker) Exceeded(factor model.FactorKind) bool {
	max, ok := t.max[factor]
	if !ok || max <= 0 {
		return false
	}
	return t.sess.StepAttempts[factor] >= max
}
