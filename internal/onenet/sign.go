package onenet

import (
	"crypto/hmac"
	"crypto/md5"  //nolint:gosec // Required by the OneNET signing scheme
	"crypto/sha1" //nolint:gosec // Required by the OneNET signing scheme
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"hash"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// CapabilityVersion is the signing scheme revision OneNET expects.
const CapabilityVersion = "2022-05-01"

// SignMethod is an HMAC digest accepted by OneNET.
type SignMethod string

// Signing methods.
const (
	SignMD5    SignMethod = "md5"
	SignSHA1   SignMethod = "sha1"
	SignSHA256 SignMethod = "sha256"
)

// ParseSignMethod accepts md5, sha1 or sha256, case-insensitively.
func ParseSignMethod(s string) (SignMethod, error) {
	m := SignMethod(strings.ToLower(strings.TrimSpace(s)))
	if _, err := m.hash(); err != nil {
		return "", err
	}
	return m, nil
}

func (m SignMethod) hash() (func() hash.Hash, error) {
	switch m {
	case SignMD5:
		return md5.New, nil
	case SignSHA1:
		return sha1.New, nil
	case SignSHA256:
		return sha256.New, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, string(m))
	}
}

// Capability is a parsed signed capability string.
type Capability struct {
	Version   string
	Resource  string
	ExpiresAt int64 // unix seconds
	Method    SignMethod
	Signature string // base64, not percent-encoded
}

// Expiry returns ExpiresAt as a time.
func (c Capability) Expiry() time.Time {
	return time.Unix(c.ExpiresAt, 0)
}

// String renders the capability in wire form.
func (c Capability) String() string {
	return "version=" + c.Version +
		"&res=" + encodeComponent(c.Resource) +
		"&et=" + strconv.FormatInt(c.ExpiresAt, 10) +
		"&method=" + string(c.Method) +
		"&sign=" + encodeComponent(c.Signature)
}

// SignCapability signs access to resource for ttl from now.
func SignCapability(method SignMethod, resource, secretBase64 string, ttl time.Duration) (string, error) {
	return SignCapabilityAt(time.Now(), method, resource, secretBase64, ttl)
}

// SignCapabilityAt is SignCapability with an explicit clock. The expiry is
// ceil((now + ttl) / 1s) in unix seconds, so equal inputs give equal output.
func SignCapabilityAt(now time.Time, method SignMethod, resource, secretBase64 string, ttl time.Duration) (string, error) {
	expiresMs := now.UnixMilli() + ttl.Milliseconds()
	et := expiresMs / 1000
	if expiresMs%1000 > 0 {
		et++
	}

	sig, err := digest(method, resource, secretBase64, et, CapabilityVersion)
	if err != nil {
		return "", err
	}

	return Capability{
		Version:   CapabilityVersion,
		Resource:  resource,
		ExpiresAt: et,
		Method:    method,
		Signature: sig,
	}.String(), nil
}

// digest computes base64(HMAC(secret, et\nmethod\nres\nversion)).
func digest(method SignMethod, resource, secretBase64 string, et int64, version string) (string, error) {
	newHash, err := method.hash()
	if err != nil {
		return "", err
	}
	key, err := base64.StdEncoding.DecodeString(secretBase64)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}

	mac := hmac.New(newHash, key)
	mac.Write([]byte(strconv.FormatInt(et, 10) + "\n" + string(method) + "\n" + resource + "\n" + version))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// ParseCapability parses a wire-form capability string.
func ParseCapability(token string) (Capability, error) {
	fields := make(map[string]string, 5)
	for _, pair := range strings.Split(token, "&") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return Capability{}, fmt.Errorf("%w: %q has no value", ErrMalformedCapability, pair)
		}
		dv, err := url.PathUnescape(v)
		if err != nil {
			return Capability{}, fmt.Errorf("%w: %s: %v", ErrMalformedCapability, k, err)
		}
		fields[k] = dv
	}

	for _, k := range []string{"version", "res", "et", "method", "sign"} {
		if fields[k] == "" {
			return Capability{}, fmt.Errorf("%w: missing %s", ErrMalformedCapability, k)
		}
	}
	et, err := strconv.ParseInt(fields["et"], 10, 64)
	if err != nil {
		return Capability{}, fmt.Errorf("%w: et: %v", ErrMalformedCapability, err)
	}

	return Capability{
		Version:   fields["version"],
		Resource:  fields["res"],
		ExpiresAt: et,
		Method:    SignMethod(fields["method"]),
		Signature: fields["sign"],
	}, nil
}

// VerifyCapability checks token's signature against secretBase64 the way
// OneNET does, and that it has not expired at now.
func VerifyCapability(token, secretBase64 string, now time.Time) (Capability, error) {
	c, err := ParseCapability(token)
	if err != nil {
		return Capability{}, err
	}

	want, err := digest(c.Method, c.Resource, secretBase64, c.ExpiresAt, c.Version)
	if err != nil {
		return c, err
	}
	if !hmac.Equal([]byte(want), []byte(c.Signature)) {
		return c, ErrSignatureMismatch
	}
	if now.Unix() >= c.ExpiresAt {
		return c, fmt.Errorf("%w at %s", ErrCapabilityExpired, c.Expiry().UTC().Format(time.RFC3339))
	}
	return c, nil
}

// encodeComponent percent-encodes everything outside the RFC 3986
// unreserved set, with space as %20.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
