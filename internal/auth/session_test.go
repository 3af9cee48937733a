package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessions(t *testing.T) *Sessions {
	t.Helper()
	hash, err := HashPassword("operator-pass")
	require.NoError(t, err)
	return NewSessions("lab-console", hash, testSecret, 10*time.Minute)
}

func TestSessions_LoginVerify(t *testing.T) {
	s := newTestSessions(t)

	token, claims, err := s.Login("operator-pass")
	require.NoError(t, err)
	assert.Equal(t, "lab-console", claims.ConsoleID)

	got, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, claims.ID, got.ID)
	assert.Equal(t, 10*time.Minute, s.TTL())
}

func TestSessions_WrongPassword(t *testing.T) {
	s := newTestSessions(t)
	_, _, err := s.Login("nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSessions_BadHash(t *testing.T) {
	s := NewSessions("c", "plaintext", testSecret, 0)
	_, _, err := s.Login("anything")
	assert.ErrorIs(t, err, ErrInvalidHash)
	assert.Equal(t, DefaultSessionTTL, s.TTL())
}

func TestSessions_Logout(t *testing.T) {
	s := newTestSessions(t)
	token, _, err := s.Login("operator-pass")
	require.NoError(t, err)

	other, _, err := s.Login("operator-pass")
	require.NoError(t, err)

	require.NoError(t, s.Logout(token))
	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	_, err = s.Verify(other)
	assert.NoError(t, err, "other sessions stay valid")

	assert.NoError(t, s.Logout(token), "double logout")
	assert.NoError(t, s.Logout("garbage"))
}

func TestSessions_PruneExpiredRevocations(t *testing.T) {
	s := newTestSessions(t)
	token, _, err := s.Login("operator-pass")
	require.NoError(t, err)
	require.NoError(t, s.Logout(token))
	require.Len(t, s.revoked, 1)

	s.now = func() time.Time { return time.Now().Add(time.Hour) }
	s.mu.Lock()
	s.pruneLocked()
	s.mu.Unlock()
	assert.Empty(t, s.revoked)
}
