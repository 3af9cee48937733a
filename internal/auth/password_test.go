package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/argon2"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("correct-horse-battery-staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := VerifyPassword("correct-horse-battery-staple", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong-password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	hash1, err := HashPassword("same-password")
	require.NoError(t, err)
	hash2, err := HashPassword("same-password")
	require.NoError(t, err)
	assert.NotEqual(t, hash1, hash2)
}

func TestHashPassword_PHCFormat(t *testing.T) {
	hash, err := HashPassword("test")
	require.NoError(t, err)

	parts := strings.Split(hash, "$")
	require.Len(t, parts, 6)
	assert.Equal(t, "argon2id", parts[1])
	assert.Equal(t, "v=19", parts[2])
	assert.Equal(t, "m=65536,t=3,p=1", parts[3])
}

func TestVerifyPassword_InvalidFormat(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"not PHC", "plaintext"},
		{"wrong algorithm", "$bcrypt$v=19$m=65536,t=3,p=1$salt$hash"},
		{"too few parts", "$argon2id$v=19$m=65536,t=3,p=1"},
		{"bad salt", "$argon2id$v=19$m=65536,t=3,p=1$!!!$aGFzaA"},
		{"old version", "$argon2id$v=16$m=65536,t=3,p=1$c2FsdA$aGFzaA"},
		{"leading text", "x$argon2id$v=19$m=65536,t=3,p=1$c2FsdA$aGFzaA"},
		{"unknown parameter", "$argon2id$v=19$m=65536,t=3,q=1$c2FsdA$aGFzaA"},
		{"memory too large", "$argon2id$v=19$m=4194304,t=3,p=1$c2FsdA$aGFzaA"},
		{"zero time", "$argon2id$v=19$m=65536,t=0,p=1$c2FsdA$aGFzaA"},
		{"empty hash", "$argon2id$v=19$m=65536,t=3,p=1$c2FsdA$"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := VerifyPassword("password", tt.hash)
			assert.ErrorIs(t, err, ErrInvalidHash)
		})
	}
}

func TestVerifyPassword_HonoursEncodedParameters(t *testing.T) {
	p := phc{time: 1, memory: 8 * 1024, threads: 2, salt: []byte("0123456789abcdef")}
	p.hash = argon2.IDKey([]byte("pw"), p.salt, p.time, p.memory, p.threads, 16)

	ok, err := VerifyPassword("pw", p.String())
	require.NoError(t, err)
	assert.True(t, ok)
}
