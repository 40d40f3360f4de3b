package service

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/proofid/proofid/internal/model"
)

func newPersonalKeyFixture(user *model.User) (*PersonalKeyService, *fakeEventStore) {
	events := &fakeEventStore{}
	svc := NewPersonalKeyService(newFakeUserStore(user), events, testConfig(), testLogger())
	return svc, events
}

func TestPersonalKeyIssue(t *testing.T) {
	t.Parallel()

	t.Run("issues a formatted key and stores only a digest", func(t *testing.T) {
		t.Parallel()

		user := &model.User{ID: "usr_1"}
		svc, events := newPersonalKeyFixture(user)

		key, err := svc.Issue(context.Background(), user)

		require.NoError(t, err)
		require.Regexp(t, regexp.MustCompile(`^([0-9a-hj-km-np-z]{4}-){3}[0-9a-hj-km-np-z]{4}$`), key)
		require.True(t, user.HasPersonalKey())
		require.NotNil(t, user.PersonalKeyIssuedAt)
		require.True(t, strings.HasPrefix(*user.PersonalKeyDigest, "argon2id$"))
		require.NotContains(t, *user.PersonalKeyDigest, key)
		require.Contains(t, events.actions(), model.EventPersonalKeyIssued)
	})

	t.Run("reissue replaces the previous key", func(t *testing.T) {
		t.Parallel()

		user := &model.User{ID: "usr_1"}
		svc, _ := newPersonalKeyFixture(user)

		first, err := svc.Issue(context.Background(), user)
		require.NoError(t, err)
		second, err := svc.Issue(context.Background(), user)
		require.NoError(t, err)

		require.NotEqual(t, first, second)
		require.False(t, svc.Check(user, first))
		require.True(t, svc.Check(user, second))
	})
}

func TestPersonalKeyCheck(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		user := &model.User{ID: "usr_1"}
		svc, _ := newPersonalKeyFixture(user)
		key, err := svc.Issue(context.Background(), user)
		require.NoError(t, err)

		require.True(t, svc.Check(user, key))
		require.False(t, svc.Check(user, "aaaa-bbbb-cccc-dddd"))
	})

	t.Run("hyphens case and whitespace are ignored", func(t *testing.T) {
		t.Parallel()

		user := &model.User{ID: "usr_1"}
		svc, _ := newPersonalKeyFixture(user)
		key, err := svc.Issue(context.Background(), user)
		require.NoError(t, err)

		submitted := "  " + strings.ToUpper(strings.ReplaceAll(key, "-", "")) + " "
		require.True(t, svc.Check(user, submitted))
	})

	t.Run("no key on file", func(t *testing.T) {
		t.Parallel()

		user := &model.User{ID: "usr_1"}
		svc, _ := newPersonalKeyFixture(user)

		require.False(t, svc.Configured(user))
		require.False(t, svc.Check(user, "aaaa-bbbb-cccc-dddd"))
	})
}
