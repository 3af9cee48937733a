package device

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevice_DecodesV1ListEntry(t *testing.T) {
	raw := `{
		"id": "503459",
		"title": "boiler",
		"online": true,
		"create_time": "2024-01-01 08:00:00",
		"tags": ["plant"],
		"location": {"lon": 114.17, "lat": null},
		"other": {"room": "B1"},
		"protocol": "HTTP",
		"auth_info": {"sn": "x"},
		"private": false,
		"unknown": 1
	}`

	var d Device
	require.NoError(t, json.Unmarshal([]byte(raw), &d))

	assert.Equal(t, "503459", d.ID)
	assert.True(t, d.Online)
	assert.Equal(t, []string{"plant"}, d.Tags)
	require.NotNil(t, d.Location)
	assert.Equal(t, 114.17, *d.Location.Lon)
	assert.Nil(t, d.Location.Lat)
	assert.JSONEq(t, `"B1"`, string(d.Other["room"]))
	assert.JSONEq(t, `{"sn":"x"}`, string(d.AuthInfo))
	require.NotNil(t, d.Private)
	assert.False(t, *d.Private)
}

func TestDevice_DeepCopy(t *testing.T) {
	lon := 1.0
	orig := &Device{
		ID:       "1",
		Tags:     []string{"a"},
		Other:    map[string]json.RawMessage{"k": json.RawMessage(`{"v":1}`)},
		Location: &Location{Lon: &lon},
		AuthInfo: json.RawMessage(`"abc"`),
	}

	cpy := orig.DeepCopy()
	cpy.Tags[0] = "b"
	cpy.Other["k"][2] = 'w'
	cpy.Other["added"] = json.RawMessage(`true`)
	*cpy.Location.Lon = 2
	cpy.AuthInfo[1] = 'z'

	assert.Equal(t, "a", orig.Tags[0])
	assert.Equal(t, `{"v":1}`, string(orig.Other["k"]))
	assert.NotContains(t, orig.Other, "added")
	assert.Equal(t, 1.0, *orig.Location.Lon)
	assert.Equal(t, `"abc"`, string(orig.AuthInfo))

	var nilDev *Device
	assert.Nil(t, nilDev.DeepCopy())
}
