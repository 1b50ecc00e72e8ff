package store

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func newUserStore(t *testing.T) *UserStore {
	t.Helper()
	s, err := NewUserStore(t.TempDir(), logrus.New())
	require.NoError(t, err)
	return s
}

func TestUserCreateAndList(t *testing.T) {
	s := newUserStore(t)

	require.NoError(t, s.Create("alice", "secret", "admin"))
	require.NoError(t, s.Create("bob", "hunter2", "viewer"))

	users, err := s.List()
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, UserRecord{Username: "alice", Password: "secret", Role: "admin"}, users[0])
}

func TestUserCreateDuplicateConflictLeavesOriginal(t *testing.T) {
	s := newUserStore(t)

	require.NoError(t, s.Create("alice", "secret", "admin"))
	require.ErrorIs(t, s.Create("alice", "other", "viewer"), ErrUserExists)

	users, err := s.List()
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, "secret", users[0].Password)
	require.Equal(t, "admin", users[0].Role)
}

func TestUserUpdate(t *testing.T) {
	s := newUserStore(t)

	require.NoError(t, s.Create("alice", "secret", "admin"))
	require.NoError(t, s.Update("alice", "changed", "viewer"))

	users, err := s.List()
	require.NoError(t, err)
	require.Equal(t, "changed", users[0].Password)
	require.Equal(t, "viewer", users[0].Role)
}

func TestUserUpdateMissingNotFound(t *testing.T) {
	s := newUserStore(t)
	require.ErrorIs(t, s.Update("ghost", "x", "y"), ErrUserNotFound)
}

func TestUserDeleteIsIdempotent(t *testing.T) {
	s := newUserStore(t)

	require.NoError(t, s.Create("alice", "secret", "admin"))
	require.NoError(t, s.Delete("alice"))
	require.NoError(t, s.Delete("alice"))
	require.NoError(t, s.Delete("never-existed"))

	users, err := s.List()
	require.NoError(t, err)
	require.Empty(t, users)
}
