package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	sess := New("usr_1")

	require.NotEmpty(t, sess.ID)
	require.Equal(t, "usr_1", sess.UserID)
	require.NotNil(t, sess.StepAttempts)
	require.Empty(t, sess.StepAttempts)
	require.False(t, sess.FullyAuthenticated)
	require.Nil(t, sess.AuthenticatedAt)
	require.False(t, sess.CreatedAt.IsZero())
}

func TestMarkFullyAuthenticated(t *testing.T) {
	t.Parallel()

	sess := New("usr_1")
	sess.MarkFullyAuthenticated()

	require.True(t, sess.FullyAuthenticated)
	require.NotNil(t, sess.AuthenticatedAt)
}

func TestClearPendingTOTPSecret(t *testing.T) {
	t.Parallel()

	sess := New("usr_1")
	sess.NewTOTPSecret = "JBSWY3DPEHPK3PXP"
	sess.ClearPendingTOTPSecret()

	require.Empty(t, sess.NewTOTPSecret)
}

func TestApplicantMerge(t *testing.T) {
	t.Parallel()

	t.Run("non-empty fields override", func(t *testing.T) {
		t.Parallel()

		base := Applicant{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Address1:  "1 Old St",
			City:      "Arlington",
			State:     "VA",
			Zipcode:   "22201",
		}
		merged := base.Merge(Applicant{
			Address1: "9 New Ave",
			Phone:    "7035551213",
		})

		require.Equal(t, "Ada", merged.FirstName)
		require.Equal(t, "Lovelace", merged.LastName)
		require.Equal(t, "9 New Ave", merged.Address1)
		require.Equal(t, "Arlington", merged.City)
		require.Equal(t, "7035551213", merged.Phone)
	})

	t.Run("empty fields do not clobber", func(t *testing.T) {
		t.Parallel()

		base := Applicant{FirstName: "Ada", Phone: "7035551213"}
		merged := base.Merge(Applicant{LastName: "Lovelace"})

		require.Equal(t, "Ada", merged.FirstName)
		require.Equal(t, "Lovelace", merged.LastName)
		require.Equal(t, "7035551213", merged.Phone)
	})

	t.Run("inputs are not mutated", func(t *testing.T) {
		t.Parallel()

		base := Applicant{City: "Arlington"}
		other := Applicant{City: "Reston"}
		_ = base.Merge(other)

		require.Equal(t, "Arlington", base.City)
		require.Equal(t, "Reston", other.City)
	})
}
