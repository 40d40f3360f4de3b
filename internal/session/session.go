package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/proofid/proofid/internal/model"
)

// VerificationMechanism names how an applicant's address claim was verified
type VerificationMechanism string

const (
	// MechanismPhone means the address claim was proofed against phone records
	MechanismPhone VerificationMechanism = "phone"
)

// Applicant holds the identity claim data carried through a verification
// session. Fields submitted later in the funnel override earlier values.
type Applicant struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Dob       string `json:"dob,omitempty"`
	SSN       string `json:"ssn,omitempty"`
	Address1  string `json:"address1,omitempty"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Zipcode   string `json:"zipcode,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Merge returns a copy of the applicant with non-empty fields of other
// overriding the receiver's values. Neither input is modified.
func (a Applicant) Merge(other Applicant) Applicant {
	merged := a
	if other.FirstName != "" {
		merged.FirstName = other.FirstName
	}
	if other.LastName != "" {
		merged.LastName = other.LastName
	}
	if other.Dob != "" {
		merged.Dob = other.Dob
	}
	if other.SSN != "" {
		merged.SSN = other.SSN
	}
	if other.Address1 != "" {
		merged.Address1 = other.Address1
	}
	if other.Address2 != "" {
		merged.Address2 = other.Address2
	}
	if other.City != "" {
		merged.City = other.City
	}
	if other.State != "" {
		merged.State = other.State
	}
	if other.Zipcode != "" {
		merged.Zipcode = other.Zipcode
	}
	if other.Phone != "" {
		merged.Phone = other.Phone
	}
	return merged
}

// VerificationSession is the per-verification-attempt state for one user.
// It replaces an open-ended string-keyed session hash with named, typed
// fields. Sessions are single-writer; concurrent writes are last-write-wins.
type VerificationSession struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`

	Applicant    Applicant                `json:"applicant"`
	StepAttempts map[model.FactorKind]int `json:"stepAttempts"`

	AddressVerificationMechanism VerificationMechanism `json:"addressVerificationMechanism,omitempty"`
	VendorPhoneConfirmation      bool                  `json:"vendorPhoneConfirmation"`
	UserPhoneConfirmation        bool                  `json:"userPhoneConfirmation"`

	// NewTOTPSecret is the pending authenticator-app secret. It lives only
	// here between generation and confirmation and is never persisted.
	NewTOTPSecret string `json:"newTotpSecret,omitempty"`

	MFADeviceRemembered bool       `json:"mfaDeviceRemembered"`
	FullyAuthenticated  bool       `json:"fullyAuthenticated"`
	AuthenticatedAt     *time.Time `json:"authenticatedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// New creates a fresh verification session for a user. Attempt counters
// start at zero; they reset only by starting a new session.
func New(userID string) *VerificationSession {
	return &VerificationSession{
		ID:           uuid.New().String(),
		UserID:       userID,
		StepAttempts: make(map[model.FactorKind]int),
		CreatedAt:    time.Now(),
	}
}

// MarkFullyAuthenticated records that the user completed a second factor
func (s *VerificationSession) MarkFullyAuthenticated() {
	now := time.Now()
	s.FullyAuthenticated = true
	s.AuthenticatedAt = &now
}

// ClearPendingTOTPSecret discards the pending authenticator-app secret
func (s *VerificationSession) ClearPendingTOTPSecret() {
	s.NewTOTPSecret = ""
}
