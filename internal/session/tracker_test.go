package session

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/proofid/proofid/internal/model"
)

func TestAttemptTracker(t *testing.T) {
	t.Parallel()

	maximums := map[model.FactorKind]int{
		model.FactorBackupCode: 3,
		model.FactorPhone:      3,
	}

	t.Run("counts start at zero", func(t *testing.T) {
		t.Parallel()

		tracker := NewAttemptTracker(New("usr_1"), maximums)

		require.Equal(t, 0, tracker.Attempts(model.FactorBackupCode))
		require.False(t, tracker.Exceeded(model.FactorBackupCode))
	})

	t.Run("increment is per factor", func(t *testing.T) {
		t.Parallel()

		tracker := NewAttemptTracker(New("usr_1"), maximums)
		tracker.Increment(model.FactorBackupCode)
		tracker.Increment(model.FactorBackupCode)
		tracker.Increment(model.FactorPhone)

		require.Equal(t, 2, tracker.Attempts(model.FactorBackupCode))
		require.Equal(t, 1, tracker.Attempts(model.FactorPhone))
		require.Equal(t, 0, tracker.Attempts(model.FactorAuthApp))
	})

	t.Run("failures on one factor never lock out another", func(t *testing.T) {
		t.Parallel()

		tracker := NewAttemptTracker(New("usr_1"), maximums)
		for i := 0; i < 3; i++ {
			tracker.Increment(model.FactorBackupCode)
		}

		require.True(t, tracker.Exceeded(model.FactorBackupCode))
		require.False(t, tracker.Exceeded(model.FactorPhone))
	})

	t.Run("exceeded at exactly the maximum", func(t *testing.T) {
		t.Parallel()

		tracker := NewAttemptTracker(New("usr_1"), maximums)
		tracker.Increment(model.FactorPhone)
		tracker.Increment(model.FactorPhone)
		require.False(t, tracker.Exceeded(model.FactorPhone))

		tracker.Increment(model.FactorPhone)
		require.True(t, tracker.Exceeded(model.FactorPhone))
	})

	t.Run("factor without a configured maximum never locks", func(t *testing.T) {
		t.Parallel()

		tracker := NewAttemptTracker(New("usr_1"), maximums)
		for i := 0; i < 100; i++ {
			tracker.Increment(model.FactorWebauthn)
		}

		require.False(t, tracker.Exceeded(model.FactorWebauthn))
	})

	t.Run("zero maximum never locks", func(t *testing.T) {
		t.Parallel()

		tracker := NewAttemptTracker(New("usr_1"), map[model.FactorKind]int{
			model.FactorPhone: 0,
		})
		tracker.Increment(model.FactorPhone)

		require.False(t, tracker.Exceeded(model.FactorPhone))
	})

	t.Run("counters survive tracker reconstruction", func(t *testing.T) {
		t.Parallel()

		sess := New("usr_1")
		NewAttemptTracker(sess, maximums).Increment(model.FactorBackupCode)
		rebuilt := NewAttemptTracker(sess, maximums)

		require.Equal(t, 1, rebuilt.Attempts(model.FactorBackupCode))
	})

	t.Run("nil attempts map is initialized on first increment", func(t *testing.T) {
		t.Parallel()

		sess := &VerificationSession{ID: "vs_1", UserID: "usr_1"}
		tracker := NewAttemptTracker(sess, maximums)
		tracker.Increment(model.FactorBackupCode)

		require.Equal(t, 1, tracker.Attempts(model.FactorBackupCode))
	})
}
