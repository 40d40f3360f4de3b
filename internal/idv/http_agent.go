package idv

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/proofid/proofid/internal/config"
	"github.com/proofid/proofid/internal/logger"
	"github.com/proofid/proofid/internal/session"
)

// HTTPAgent proofs applicants against an external vendor over HTTP.
// A timed-out or failed call is mapped to a Result carrying the exception
// payload rather than surfaced as a transport error, so callers always get
// a structured outcome.
type HTTPAgent struct {
	cfg    config.VendorConfig
	client *http.Client
	log    *logger.Logger
}

// NewHTTPAgent creates an HTTPAgent from vendor configuration
func NewHTTPAgent(cfg config.VendorConfig, log *logger.Logger) *HTTPAgent {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPAgent{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		log:    log.WithComponent("proofing_agent"),
	}
}

type proofRequest struct {
	Kind      ProofKind         `json:"kind"`
	Applicant session.Applicant `json:"applicant"`
}

// Proof submits the applicant to the vendor and interprets the response.
// The call is bounded by the configured timeout on top of any deadline
// already on ctx.
func (a *HTTPAgent) Proof(ctx context.Context, kind ProofKind, applicant session.Applicant) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, a.client.Timeout)
	defer cancel()

	body, err := json.Marshal(proofRequest{Kind: kind, Applicant: applicant})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal proofing request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build proofing request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		// Timeouts and transport failures become an exception payload so the
		// caller classifies them as a vendor error, not an invalid claim
		reason := err.Error()
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			reason = "vendor request timed out"
		}
		a.log.Error().Err(err).Str("kind", string(kind)).Msg("proofing call failed")
		return &Result{Success: false, Exception: reason}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		a.log.Error().Int("status", resp.StatusCode).Str("kind", string(kind)).Msg("proofing call returned error status")
		return &Result{Success: false, Exception: fmt.Sprintf("vendor returned status %d", resp.StatusCode)}, nil
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return &Result{Success: false, Exception: "vendor response could not be decoded"}, nil
	}
	return &result, nil
}
