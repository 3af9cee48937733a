package onenet

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeResponse(t *testing.T) {
	v1, err := DecodeResponse([]byte(`{"errno":0,"error":"succ","data":{"device_id":"42"}}`))
	require.NoError(t, err)
	require.IsType(t, &V1Response{}, v1)
	assert.Equal(t, VersionV1, v1.APIVersion())
	assert.True(t, v1.OK())

	created, err := DecodeData[CreatedDevice](v1)
	require.NoError(t, err)
	assert.Equal(t, "42", created.DeviceID)

	v2, err := DecodeResponse([]byte(`{"code":10403,"msg":"forbidden","request_id":"abc","data":null}`))
	require.NoError(t, err)
	resp, ok := v2.(*V2Response)
	require.True(t, ok)
	assert.False(t, resp.OK())
	assert.Equal(t, "abc", resp.RequestID)

	_, err = DecodeResponse([]byte(`<html>bad gateway</html>`))
	assert.ErrorIs(t, err, ErrInvalidResponse)

	_, err = DecodeResponse([]byte(`{"status":"ok"}`))
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestDecodeData_NullIsZero(t *testing.T) {
	got, err := DecodeData[CreatedDevice](&V2Response{Data: json.RawMessage("null")})
	require.NoError(t, err)
	assert.Equal(t, CreatedDevice{}, got)
}

func TestNewErrorResponse(t *testing.T) {
	v1, err := json.Marshal(NewErrorResponse(VersionV1, 400, "API key is required"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"errno":-1,"error":"API key is required"}`, string(v1))

	v2, err := json.Marshal(NewErrorResponse(VersionV2, 401, "Authentication required"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":401,"msg":"Authentication required","request_id":"","data":null}`, string(v2))
}

func TestResponseError(t *testing.T) {
	assert.NoError(t, ResponseError(&V1Response{Errno: 0}, 200, "x"))

	err := ResponseError(&V1Response{Errno: 3, Message: ""}, 200, "fallback")
	var ie *IntegrationError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 3, ie.Code)
	assert.Equal(t, "fallback", ie.Message)

	err = ResponseError(&V2Response{Code: 0, Msg: ""}, 503, "Service Unavailable")
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 503, ie.Code)
	assert.Equal(t, VersionV2, ie.Version)
}
