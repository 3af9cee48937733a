package onenet

import (
	"fmt"
	"strings"
)

// Version tags an API generation.
type Version string

// API generations.
const (
	VersionV1 Version = "v1"
	VersionV2 Version = "v2"
)

// Credential header names.
const (
	HeaderAPIKey        = "api-key"
	HeaderAuthorization = "Authorization"
)

// ParseVersion accepts "v1" or "v2", case-insensitively.
func ParseVersion(s string) (Version, error) {
	switch Version(strings.ToLower(strings.TrimSpace(s))) {
	case VersionV1:
		return VersionV1, nil
	case VersionV2:
		return VersionV2, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownVersion, s)
	}
}

// Valid reports whether v is a known generation.
func (v Version) Valid() bool {
	return v == VersionV1 || v == VersionV2
}

// HeaderName returns the credential header for v.
func (v Version) HeaderName() (string, error) {
	switch v {
	case VersionV1:
		return HeaderAPIKey, nil
	case VersionV2:
		return HeaderAuthorization, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownVersion, string(v))
	}
}

// SelectHeaders returns the outbound headers carrying credential for v.
func SelectHeaders(v Version, credential string) (map[string]string, error) {
	name, err := v.HeaderName()
	if err != nil {
		return nil, err
	}
	if credential == "" {
		return nil, fmt.Errorf("%w: %s header is empty", ErrMissingCredential, name)
	}
	return map[string]string{name: credential}, nil
}

// AuthContext is the credential for one outbound call: a version tag and
// the matching api-key (v1) or bearer token (v2).
type AuthContext struct {
	Version Version
	APIKey  string
	Token   string
}

// Credential returns the credential that belongs to the context's version.
func (a AuthContext) Credential() string {
	if a.Version == VersionV2 {
		return a.Token
	}
	return a.APIKey
}

// Validate checks the version tag and that its credential is present.
func (a AuthContext) Validate() error {
	if !a.Version.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownVersion, string(a.Version))
	}
	if a.Credential() == "" {
		return fmt.Errorf("%w for %s", ErrMissingCredential, a.Version)
	}
	return nil
}

// Headers returns the outbound credential headers.
func (a AuthContext) Headers() (map[string]string, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return SelectHeaders(a.Version, a.Credential())
}

// String redacts the credential.
func (a AuthContext) String() string {
	return fmt.Sprintf("%s:%s", a.Version, redact(a.Credential()))
}

// redact keeps a short prefix of a credential for logs.
func redact(s string) string {
	const keep = 4
	if len(s) <= keep {
		return strings.Repeat("*", len(s))
	}
	return s[:keep] + "..."
}
