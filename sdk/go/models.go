package proofid

// MFAStatus reports a user's factor enrollment state.
type MFAStatus struct {
	MFAEnabled           bool           `json:"mfaEnabled"`
	FactorCounts         map[string]int `json:"factorCounts"`
	BackupCodesRemaining int            `json:"backupCodesRemaining"`
	PersonalKeyIssued    bool           `json:"personalKeyIssued"`
}

// BackupCodes is returned when a backup code batch is (re)generated. The
// plaintext codes are shown exactly once; store them safely.
type BackupCodes struct {
	Codes []string `json:"codes"`
	Count int      `json:"count"`
}

// StepOutcome is the uniform result of a submit-style verification call.
// Redirect names the route the user should be sent to next.
type StepOutcome struct {
	Success  bool   `json:"success"`
	Redirect string `json:"redirect"`
}

// AuthenticatorSetup contains everything a client needs to render
// enrollment for an authenticator app.
type AuthenticatorSetup struct {
	Secret     string `json:"secret"`
	OtpauthURL string `json:"otpauthUrl"`
	QRCode     string `json:"qrCode"` // base64-encoded PNG
	Issuer     string `json:"issuer"`
	AccountID  string `json:"accountId"`

	// Redirect is set instead of the secret fields when the user is
	// already enrolled.
	Redirect string `json:"redirect,omitempty"`
}

// PhoneStepRequest carries the applicant data for the phone proofing step.
type PhoneStepRequest struct {
	Phone    string `json:"phone"`
	Address1 string `json:"address1,omitempty"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	Zipcode  string `json:"zipcode,omitempty"`
}

// PhoneStepResult is the outcome of a phone proofing submission.
type PhoneStepResult struct {
	Success       bool                   `json:"success"`
	Errors        map[string][]string    `json:"errors,omitempty"`
	Extra         map[string]interface{} `json:"extra,omitempty"`
	FailureReason string                 `json:"failureReason,omitempty"`
	Redirect      string                 `json:"redirect,omitempty"`
}

// Routes returned in StepOutcome.Redirect and PhoneStepResult.Redirect.
const (
	RouteAccountHome         = "account_home"
	RoutePersonalKeySetup    = "personal_key_setup"
	RoutePersonalKeyRotation = "personal_key_rotation"
	RouteIdvFunnel           = "idv_funnel"
	RouteLockedOut           = "locked_out"
	RouteBackupCodeSetup     = "backup_code_setup"
	RouteAuthenticatorSetup  = "authenticator_setup"
	RouteRetry               = "retry"
)
