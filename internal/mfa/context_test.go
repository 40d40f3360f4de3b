package mfa

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/proofid/proofid/internal/model"
)

func TestEnabledFactorCounts(t *testing.T) {
	t.Parallel()

	t.Run("nil user yields empty map", func(t *testing.T) {
		t.Parallel()

		counts := NewContext(nil).EnabledFactorCounts()
		require.Empty(t, counts)
	})

	t.Run("user with no configurations yields empty map", func(t *testing.T) {
		t.Parallel()

		counts := NewContext(&model.User{ID: "usr_1"}).EnabledFactorCounts()
		require.Empty(t, counts)
	})

	t.Run("configured kinds only, zero kinds omitted", func(t *testing.T) {
		t.Parallel()

		user := &model.User{
			ID: "usr_1",
			PhoneConfigurations: []model.PhoneConfiguration{
				{ID: "ph_1", UserID: "usr_1"},
			},
			WebauthnConfigurations: []model.WebauthnConfiguration{
				{ID: "wan_1", UserID: "usr_1"},
				{ID: "wan_2", UserID: "usr_1"},
			},
		}

		counts := NewContext(user).EnabledFactorCounts()

		require.Equal(t, map[model.FactorKind]int{
			model.FactorPhone:    1,
			model.FactorWebauthn: 2,
		}, counts)
	})

	t.Run("backup code batch counts as one factor", func(t *testing.T) {
		t.Parallel()

		user := &model.User{
			ID: "usr_1",
			BackupCodeConfigurations: []model.BackupCodeConfiguration{
				{ID: "bkp_1"}, {ID: "bkp_2"}, {ID: "bkp_3"},
			},
		}

		counts := NewContext(user).EnabledFactorCounts()

		require.Equal(t, 1, counts[model.FactorBackupCode])
	})

	t.Run("auth app and piv cac count once each", func(t *testing.T) {
		t.Parallel()

		user := &model.User{
			ID:           "usr_1",
			AuthAppConfig: &model.AuthAppConfiguration{ID: "app_1"},
			PivCacConfig:  &model.PivCacConfiguration{ID: "piv_1"},
		}

		counts := NewContext(user).EnabledFactorCounts()

		require.Equal(t, map[model.FactorKind]int{
			model.FactorAuthApp: 1,
			model.FactorPivCac:  1,
		}, counts)
	})
}

func TestTwoFactorEnabled(t *testing.T) {
	t.Parallel()

	require.False(t, NewContext(nil).TwoFactorEnabled())
	require.False(t, NewContext(&model.User{ID: "usr_1"}).TwoFactorEnabled())

	user := &model.User{
		ID:            "usr_1",
		AuthAppConfig: &model.AuthAppConfiguration{ID: "app_1"},
	}
	require.True(t, NewContext(user).TwoFactorEnabled())
}

func TestMultipleFactorsEnabled(t *testing.T) {
	t.Parallel()

	t.Run("single factor is not multiple", func(t *testing.T) {
		t.Parallel()

		user := &model.User{
			ID:            "usr_1",
			AuthAppConfig: &model.AuthAppConfiguration{ID: "app_1"},
		}
		require.False(t, NewContext(user).MultipleFactorsEnabled())
	})

	t.Run("two distinct kinds", func(t *testing.T) {
		t.Parallel()

		user := &model.User{
			ID:            "usr_1",
			AuthAppConfig: &model.AuthAppConfiguration{ID: "app_1"},
			PhoneConfigurations: []model.PhoneConfiguration{
				{ID: "ph_1", UserID: "usr_1"},
			},
		}
		require.True(t, NewContext(user).MultipleFactorsEnabled())
	})

	t.Run("two instances of the same kind", func(t *testing.T) {
		t.Parallel()

		user := &model.User{
			ID: "usr_1",
			WebauthnConfigurations: []model.WebauthnConfiguration{
				{ID: "wan_1"}, {ID: "wan_2"},
			},
		}
		require.True(t, NewContext(user).MultipleFactorsEnabled())
	})

	t.Run("many backup codes alone are still one factor", func(t *testing.T) {
		t.Parallel()

		user := &model.User{
			ID: "usr_1",
			BackupCodeConfigurations: []model.BackupCodeConfiguration{
				{ID: "bkp_1"}, {ID: "bkp_2"}, {ID: "bkp_3"}, {ID: "bkp_4"},
			},
		}
		require.False(t, NewContext(user).MultipleFactorsEnabled())
	})
}

func TestAccessorsNilSafe(t *testing.T) {
	t.Parallel()

	c := NewContext(nil)

	require.Nil(t, c.AuthAppConfiguration())
	require.Nil(t, c.PivCacConfiguration())
	require.Nil(t, c.PhoneConfigurations())
	require.Nil(t, c.WebauthnConfigurations())
	require.Nil(t, c.BackupCodeConfigurations())
}
