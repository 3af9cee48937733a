package onenet

import (
	"crypto/hmac"
	"crypto/md5"
	"encoding/base64"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "Y29uc29sZS10ZXN0LXNlY3JldC0wMTIzNDU2Nzg5" // base64("console-test-secret-0123456789")

func TestSignCapabilityAt_KnownVectors(t *testing.T) {
	now := time.UnixMilli(1700000000500)

	tests := []struct {
		method SignMethod
		want   string
	}{
		{SignMD5, "version=2022-05-01&res=userid%2F292608&et=1700003601&method=md5&sign=7b7HKi5KZ3n2NOlkEYtfcQ%3D%3D"},
		{SignSHA1, "version=2022-05-01&res=userid%2F292608&et=1700003601&method=sha1&sign=6XHo9DJPjt3T2MDQgIChEayj%2BPk%3D"},
		{SignSHA256, "version=2022-05-01&res=userid%2F292608&et=1700003601&method=sha256&sign=NxGfRukyxvF7rRNSvrDEiw6K%2FtExTL7ePlEvXcWxYBc%3D"},
	}

	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			got, err := SignCapabilityAt(now, tt.method, "userid/292608", testSecret, time.Hour)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// OneNET's published example: user 292608 signing with sha1 for et=1739941828.
func TestSignCapabilityAt_OneNETReferenceVector(t *testing.T) {
	const accessKey = "84/fp/v9n4XNT48ndy1DU6HveauHJaltgf/TgU8Nocs="
	now := time.Unix(1739941828, 0).Add(-time.Hour)

	got, err := SignCapabilityAt(now, SignSHA1, "userid/292608", accessKey, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "version=2022-05-01&res=userid%2F292608&et=1739941828&method=sha1&sign=UXtAHJHCuyyio3SjvgFsNa%2FGAwQ%3D", got)
}

func TestSignCapabilityAt_ExpiryRoundsUp(t *testing.T) {
	exact, err := SignCapabilityAt(time.UnixMilli(1700000000000), SignMD5, "userid/292608", testSecret, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "version=2022-05-01&res=userid%2F292608&et=1700003600&method=md5&sign=5%2BPW4b86L9w5lwuMDaKZuA%3D%3D", exact)

	partial, err := SignCapabilityAt(time.UnixMilli(1700000000001), SignMD5, "userid/292608", testSecret, time.Hour)
	require.NoError(t, err)
	assert.Contains(t, partial, "&et=1700003601&")
}

func TestSignCapabilityAt_EncodesReservedCharacters(t *testing.T) {
	got, err := SignCapabilityAt(time.UnixMilli(1700000000000), SignMD5, "products/abc/devices/x y", testSecret, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "version=2022-05-01&res=products%2Fabc%2Fdevices%2Fx%20y&et=1700003600&method=md5&sign=Gfauq3%2BDVXLnNObTbB7Mqw%3D%3D", got)
}

func TestSignCapabilityAt_Deterministic(t *testing.T) {
	now := time.Unix(1700000000, 0)
	a, err := SignCapabilityAt(now, SignSHA1, "userid/1", testSecret, time.Minute)
	require.NoError(t, err)
	b, err := SignCapabilityAt(now, SignSHA1, "userid/1", testSecret, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSignCapabilityAt_Sensitivity(t *testing.T) {
	now := time.Unix(1700000000, 0)
	sig := func(t *testing.T, m SignMethod, res, secret string) string {
		t.Helper()
		tok, err := SignCapabilityAt(now, m, res, secret, time.Hour)
		require.NoError(t, err)
		c, err := ParseCapability(tok)
		require.NoError(t, err)
		return c.Signature
	}

	base := sig(t, SignMD5, "userid/1", testSecret)
	assert.NotEqual(t, base, sig(t, SignSHA1, "userid/1", testSecret), "method")
	assert.NotEqual(t, base, sig(t, SignMD5, "userid/2", testSecret), "resource")
	assert.NotEqual(t, base, sig(t, SignMD5, "userid/1", "b3RoZXItc2VjcmV0"), "secret")

	// Swapping the canonical order must not verify.
	c, err := ParseCapability(mustSign(t, now, SignMD5, "userid/1"))
	require.NoError(t, err)
	swapped, err := digestInOrder(c, testSecret)
	require.NoError(t, err)
	assert.NotEqual(t, c.Signature, swapped)
}

func mustSign(t *testing.T, now time.Time, m SignMethod, res string) string {
	t.Helper()
	tok, err := SignCapabilityAt(now, m, res, testSecret, time.Hour)
	require.NoError(t, err)
	return tok
}

// digestInOrder signs et\nres\nmethod\nversion, the canonical fields out of order.
func digestInOrder(c Capability, secret string) (string, error) {
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return "", err
	}
	mac := hmac.New(md5.New, key)
	mac.Write([]byte(strconv.FormatInt(c.ExpiresAt, 10) + "\n" + c.Resource + "\n" + string(c.Method) + "\n" + c.Version))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

func TestSignCapability_Errors(t *testing.T) {
	_, err := SignCapability("crc32", "userid/1", testSecret, time.Hour)
	assert.ErrorIs(t, err, ErrUnsupportedMethod)

	_, err = SignCapability(SignMD5, "userid/1", "not base64!", time.Hour)
	assert.ErrorIs(t, err, ErrInvalidSecret)
}

func TestParseSignMethod(t *testing.T) {
	m, err := ParseSignMethod(" SHA256 ")
	require.NoError(t, err)
	assert.Equal(t, SignSHA256, m)

	_, err = ParseSignMethod("sha512")
	assert.ErrorIs(t, err, ErrUnsupportedMethod)
}

func TestParseCapability(t *testing.T) {
	c, err := ParseCapability("version=2022-05-01&res=userid%2F292608&et=1700003600&method=md5&sign=5%2BPW4b86L9w5lwuMDaKZuA%3D%3D")
	require.NoError(t, err)
	assert.Equal(t, Capability{
		Version:   CapabilityVersion,
		Resource:  "userid/292608",
		ExpiresAt: 1700003600,
		Method:    SignMD5,
		Signature: "5+PW4b86L9w5lwuMDaKZuA==",
	}, c)
	assert.Equal(t, "version=2022-05-01&res=userid%2F292608&et=1700003600&method=md5&sign=5%2BPW4b86L9w5lwuMDaKZuA%3D%3D", c.String())

	for _, bad := range []string{"", "version=2022-05-01", "version=x&res=y&et=soon&method=md5&sign=z", "novalue&res=1"} {
		_, err := ParseCapability(bad)
		assert.ErrorIs(t, err, ErrMalformedCapability, bad)
	}
}

func TestVerifyCapability(t *testing.T) {
	now := time.Unix(1700000000, 0)
	tok := mustSign(t, now, SignSHA256, "userid/7")

	c, err := VerifyCapability(tok, testSecret, now)
	require.NoError(t, err)
	assert.Equal(t, "userid/7", c.Resource)

	_, err = VerifyCapability(tok, "b3RoZXItc2VjcmV0", now)
	assert.ErrorIs(t, err, ErrSignatureMismatch)

	_, err = VerifyCapability(tok, testSecret, now.Add(2*time.Hour))
	assert.ErrorIs(t, err, ErrCapabilityExpired)

	tampered := strings.Replace(tok, "userid%2F7", "userid%2F8", 1)
	_, err = VerifyCapability(tampered, testSecret, now)
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}
