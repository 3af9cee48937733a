package onenet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectHeaders(t *testing.T) {
	h, err := SelectHeaders(VersionV1, "key-123")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"api-key": "key-123"}, h)

	h, err = SelectHeaders(VersionV2, "version=2022-05-01&res=x")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Authorization": "version=2022-05-01&res=x"}, h)

	_, err = SelectHeaders("v3", "x")
	assert.ErrorIs(t, err, ErrUnknownVersion)

	_, err = SelectHeaders(VersionV1, "")
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion(" V2 ")
	require.NoError(t, err)
	assert.Equal(t, VersionV2, v)

	_, err = ParseVersion("v9")
	assert.ErrorIs(t, err, ErrUnknownVersion)
}

func TestAuthContext(t *testing.T) {
	tests := []struct {
		name    string
		auth    AuthContext
		want    map[string]string
		wantErr error
	}{
		{"v1 key", AuthContext{Version: VersionV1, APIKey: "k"}, map[string]string{"api-key": "k"}, nil},
		{"v2 token", AuthContext{Version: VersionV2, Token: "t"}, map[string]string{"Authorization": "t"}, nil},
		{"v1 ignores token", AuthContext{Version: VersionV1, Token: "t"}, nil, ErrMissingCredential},
		{"v2 ignores key", AuthContext{Version: VersionV2, APIKey: "k"}, nil, ErrMissingCredential},
		{"no version", AuthContext{APIKey: "k"}, nil, ErrUnknownVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.auth.Headers()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAuthContext_StringRedacts(t *testing.T) {
	s := AuthContext{Version: VersionV1, APIKey: "supersecretkey"}.String()
	assert.Equal(t, "v1:supe...", s)
	assert.NotContains(t, s, "secretkey")
}
