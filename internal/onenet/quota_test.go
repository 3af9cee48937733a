package onenet

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeQuota_V2Bytes(t *testing.T) {
	q, err := DecodeQuota(json.RawMessage(`{"use_size":1048576,"has_size":3145728,"total_size":4194304}`))
	require.NoError(t, err)
	require.IsType(t, &V2Quota{}, q)

	d := DisplayQuota(q)
	assert.Equal(t, "1.00 MB", d.Used)
	assert.Equal(t, "3.00 MB", d.Available)
	assert.Equal(t, "4.00 MB", d.Total)
	assert.InDelta(t, 25.0, d.UsedPercent, 0.001)
}

func TestDecodeQuota_V1Megabytes(t *testing.T) {
	q, err := DecodeQuota(json.RawMessage(`{"useSize":1.5,"hasSize":18.5,"totalSize":20}`))
	require.NoError(t, err)
	require.IsType(t, &V1Quota{}, q)

	d := DisplayQuota(q)
	assert.Equal(t, "1.50 MB", d.Used)
	assert.Equal(t, "20.00 MB", d.Total)
}

func TestDecodeQuota_Unknown(t *testing.T) {
	_, err := DecodeQuota(json.RawMessage(`{"used":1}`))
	assert.ErrorIs(t, err, ErrInvalidResponse)

	_, err = DecodeQuota(json.RawMessage(`null`))
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestDisplayQuota_ZeroTotal(t *testing.T) {
	d := DisplayQuota(&V2Quota{})
	assert.Equal(t, "0.00 MB", d.Total)
	assert.Zero(t, d.UsedPercent)
}
