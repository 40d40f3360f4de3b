package proofid

import (
	"encoding/json"
	"fmt"
)

// Sentinel errors returned by the SDK.
var (
	// ErrNoToken is returned when no session token is provided.
	ErrNoToken = fmt.Errorf("proofid: no session token provided")

	// ErrUnauthorized is returned when the session token is invalid or expired.
	ErrUnauthorized = fmt.Errorf("proofid: token is invalid or expired")

	// ErrLockedOut is returned when the user's second-factor attempts are
	// exhausted. The user must be routed to the lockout flow, not retried.
	ErrLockedOut = fmt.Errorf("proofid: second factor attempts exceeded")
)

// APIError represents an error response from the ProofID API.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"error"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("proofid: API error %d [%s]: %s", e.StatusCode, e.Code, e.Message)
}

func parseAPIError(statusCode int, body []byte) error {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != "" {
		apiErr.StatusCode = statusCode
		return &apiErr
	}

	return &APIError{
		StatusCode: statusCode,
		Code:       "unknown",
		Message:    string(body),
	}
}

// IsAPIError checks whether err is an APIError and returns it.
func IsAPIError(err error) (*APIError, bool) {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr, true
	}
	return nil, false
}
