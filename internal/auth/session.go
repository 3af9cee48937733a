package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Sessions issues and checks console sessions for the single operator.
// Logged-out sessions are remembered until their natural expiry.
type Sessions struct {
	consoleID    string
	passwordHash string
	secret       string
	ttl          time.Duration

	mu      sync.Mutex
	revoked map[string]time.Time // jti -> expiry

	now func() time.Time
}

// NewSessions creates a session manager. ttl <= 0 selects DefaultSessionTTL.
func NewSessions(consoleID, passwordHash, secret string, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{
		consoleID:    consoleID,
		passwordHash: passwordHash,
		secret:       secret,
		ttl:          ttl,
		revoked:      make(map[string]time.Time),
		now:          time.Now,
	}
}

// TTL returns the lifetime of issued sessions.
func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

// Login verifies the operator password and returns a signed session token.
func (s *Sessions) Login(password string) (string, *SessionClaims, error) {
	ok, err := VerifyPassword(password, s.passwordHash)
	if err != nil {
		return "", nil, fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		return "", nil, ErrInvalidCredentials
	}
	return GenerateSessionToken(s.consoleID, s.secret, s.ttl, s.now())
}

// Verify parses token and rejects revoked sessions.
func (s *Sessions) Verify(token string) (*SessionClaims, error) {
	claims, err := ParseSessionToken(token, s.secret)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, gone := s.revoked[claims.ID]; gone {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Logout revokes the session carried by token. Invalid or already revoked
// tokens are not an error.
func (s *Sessions) Logout(token string) error {
	claims, err := ParseSessionToken(token, s.secret)
	if errors.Is(err, ErrTokenInvalid) {
		return nil
	}
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	s.revoked[claims.ID] = claims.ExpiresAt.Time
	return nil
}

// pruneLocked drops revocations whose tokens have expired anyway.
func (s *Sessions) pruneLocked() {
	now := s.now()
	for jti, exp := range s.revoked {
		if now.After(exp) {
			delete(s.revoked, jti)
		}
	}
}
