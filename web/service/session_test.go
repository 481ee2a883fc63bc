package service

import (
	"context"
	"testing"
	"time"

	"github.com/seatbook/seatbook/database"
	"github.com/seatbook/seatbook/util/crypto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenIsUnique(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		token, err := NewToken()
		require.NoError(t, err)
		require.Len(t, token, crypto.DigestSize)
		_, dup := seen[token]
		require.False(t, dup, "token collision after %d tokens", i)
		seen[token] = struct{}{}
	}
}

func TestIssueResolveRevoke(t *testing.T) {
	db := setup(t)
	svc := NewSessionService(db)
	u := createUser(t, db, "ivan", "password1")

	s, err := svc.Issue(u.Id, 0)
	require.NoError(t, err)
	assert.Equal(t, u.Id, s.UserId)
	assert.Nil(t, s.ExpiresAt)

	resolved, err := svc.Resolve(s.Token)
	require.NoError(t, err)
	assert.Equal(t, u.Id, resolved.Id)

	require.NoError(t, svc.Revoke(s.Token))
	_, err = svc.Resolve(s.Token)
	assert.ErrorIs(t, err, database.ErrNotFound)

	// revoking again, or revoking garbage, is a no-op
	assert.NoError(t, svc.Revoke(s.Token))
	assert.NoError(t, svc.Revoke("unknown"))
	assert.NoError(t, svc.Revoke(""))
}

func TestIssueIsUniqueAcrossCalls(t *testing.T) {
	db := setup(t)
	svc := NewSessionService(db)
	u := createUser(t, db, "ivan", "password1")

	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		s, err := svc.Issue(u.Id, 0)
		require.NoError(t, err)
		_, dup := seen[s.Token]
		require.False(t, dup)
		seen[s.Token] = struct{}{}
	}

	sessions, err := svc.GetUserSessions(u.Id)
	require.NoError(t, err)
	assert.Len(t, sessions, 200)
}

func TestIssueForMissingUser(t *testing.T) {
	db := setup(t)
	_, err := NewSessionService(db).Issue(42, 0)
	assert.ErrorIs(t, err, database.ErrNotFound)

	var n int64
	require.NoError(t, db.Table("sessions").Count(&n).Error)
	assert.Zero(t, n)
}

func TestIssueRejectsInvalidLifetime(t *testing.T) {
	db := setup(t)
	u := createUser(t, db, "ivan", "password1")
	svc := NewSessionService(db)

	_, err := svc.Issue(u.Id, -time.Minute)
	assert.Error(t, err)
	_, err = svc.Issue(u.Id, 500*time.Millisecond)
	assert.Error(t, err)

	s, err := svc.Issue(u.Id, time.Second)
	require.NoError(t, err)
	resolved, err := svc.Resolve(s.Token)
	require.NoError(t, err)
	assert.Equal(t, u.Id, resolved.Id)
}

func TestResolveRejectsExpiredSession(t *testing.T) {
	db := setup(t)
	svc := NewSessionService(db)
	u := createUser(t, db, "ivan", "password1")

	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issuedAt }
	s, err := svc.Issue(u.Id, time.Hour)
	require.NoError(t, err)
	require.NotNil(t, s.ExpiresAt)
	assert.Equal(t, issuedAt.Add(time.Hour).Unix(), *s.ExpiresAt)

	svc.now = func() time.Time { return issuedAt.Add(59 * time.Minute) }
	_, err = svc.Resolve(s.Token)
	assert.NoError(t, err)

	// expiry is enforced on resolve, a present but expired row is not a session
	svc.now = func() time.Time { return issuedAt.Add(time.Hour) }
	_, err = svc.Resolve(s.Token)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestPurgeRemovesOnlyExpired(t *testing.T) {
	db := setup(t)
	svc := NewSessionService(db)
	u := createUser(t, db, "ivan", "password1")

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	_, err := svc.Issue(u.Id, time.Minute)
	require.NoError(t, err)
	forever, err := svc.Issue(u.Id, 0)
	require.NoError(t, err)
	long, err := svc.Issue(u.Id, 24*time.Hour)
	require.NoError(t, err)

	svc.now = func() time.Time { return now.Add(time.Hour) }
	n, err := svc.Purge()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	for _, token := range []string{forever.Token, long.Token} {
		_, err := svc.Resolve(token)
		assert.NoError(t, err)
	}
}

func TestRevokeAll(t *testing.T) {
	db := setup(t)
	svc := NewSessionService(db)
	ivan := createUser(t, db, "ivan", "password1")
	petr := createUser(t, db, "petr", "password1")

	a, _ := svc.Issue(ivan.Id, 0)
	b, _ := svc.Issue(ivan.Id, time.Hour)
	c, err := svc.Issue(petr.Id, 0)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeAll(ivan.Id))
	require.NoError(t, svc.RevokeAll(ivan.Id))

	for _, token := range []string{a.Token, b.Token} {
		_, err := svc.Resolve(token)
		assert.ErrorIs(t, err, database.ErrNotFound)
	}
	_, err = svc.Resolve(c.Token)
	assert.NoError(t, err)
}

func TestSessionServiceOnPooledConnection(t *testing.T) {
	db := setup(t)
	u := createUser(t, db, "ivan", "password1")

	pool, err := database.NewPool(db, time.Second)
	require.NoError(t, err)
	conn, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	defer conn.Release()

	svc := NewSessionService(conn.DB())
	s, err := svc.Issue(u.Id, 0)
	require.NoError(t, err)
	resolved, err := svc.Resolve(s.Token)
	require.NoError(t, err)
	assert.Equal(t, "ivan", resolved.Login)
}
