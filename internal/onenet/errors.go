package onenet

import (
	"errors"
	"fmt"
)

// Domain errors for the onenet package.
var (
	// ErrMissingCredential is returned before any network call when no
	// api-key or token is available for the request's version.
	ErrMissingCredential = errors.New("onenet: missing credential")

	// ErrUnknownVersion is returned for a version tag other than v1 or v2.
	ErrUnknownVersion = errors.New("onenet: unknown api version")

	// ErrVersionMismatch is returned when an operation is called with an
	// AuthContext of the other API generation.
	ErrVersionMismatch = errors.New("onenet: operation not available for this api version")

	// ErrUnsupportedMethod is returned for a signing method other than md5, sha1 or sha256.
	ErrUnsupportedMethod = errors.New("onenet: unsupported signing method")

	// ErrInvalidSecret is returned when the signing secret is not valid base64.
	ErrInvalidSecret = errors.New("onenet: secret is not valid base64")

	// ErrMalformedCapability is returned when a token does not parse as a
	// capability string.
	ErrMalformedCapability = errors.New("onenet: malformed capability")

	// ErrSignatureMismatch is returned when a capability's signature does not
	// match its fields.
	ErrSignatureMismatch = errors.New("onenet: signature mismatch")

	// ErrCapabilityExpired is returned when a capability's et is in the past.
	ErrCapabilityExpired = errors.New("onenet: capability expired")

	// ErrInvalidResponse is returned when the remote body is not a JSON
	// envelope of either generation.
	ErrInvalidResponse = errors.New("onenet: invalid response from OneNET")

	// ErrTransport wraps network failures talking to OneNET or the token service.
	ErrTransport = errors.New("onenet: transport failure")

	// ErrMissingParameter is returned when a required request field is empty.
	ErrMissingParameter = errors.New("onenet: missing required parameter")
)

// IntegrationError carries an application-level failure reported by OneNET
// or the token service. Code and Message come from the remote when present.
type IntegrationError struct {
	Version   Version
	Status    int
	Code      int
	Message   string
	RequestID string
}

func (e *IntegrationError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("onenet %s: code %d (http %d): %s [request %s]", e.Version, e.Code, e.Status, e.Message, e.RequestID)
	}
	return fmt.Sprintf("onenet %s: code %d (http %d): %s", e.Version, e.Code, e.Status, e.Message)
}
