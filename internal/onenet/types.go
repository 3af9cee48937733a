package onenet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/nerrad567/onenet-console/internal/device"
)

// FlexInt decodes a JSON number or a numeric string. OneNET sends counts
// both ways.
type FlexInt int64

// UnmarshalJSON implements json.Unmarshaler.
func (n *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*n = 0
			return nil
		}
		b = []byte(s)
	}
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("flexint: %w", err)
	}
	*n = FlexInt(v)
	return nil
}

// DeviceList is the v1 device-query payload.
type DeviceList struct {
	TotalCount FlexInt         `json:"total_count"`
	Page       FlexInt         `json:"page"`
	PerPage    FlexInt         `json:"per_page"`
	Devices    []device.Device `json:"devices"`
}

// NewDeviceV1 is the v1 create body.
type NewDeviceV1 struct {
	Title    string           `json:"title"`
	Desc     string           `json:"desc,omitempty"`
	Tags     []string         `json:"tags,omitempty"`
	Location *device.Location `json:"location,omitempty"`
	Private  *bool            `json:"private,omitempty"`
	AuthInfo json.RawMessage  `json:"auth_info,omitempty"`
	Other    map[string]any   `json:"other,omitempty"`
}

// UpdateDeviceV1 is the v1 update body. Absent fields are left unchanged.
type UpdateDeviceV1 struct {
	Title    string           `json:"title,omitempty"`
	Desc     *string          `json:"desc,omitempty"`
	Tags     []string         `json:"tags,omitempty"`
	Location *device.Location `json:"location,omitempty"`
	Private  *bool            `json:"private,omitempty"`
	AuthInfo json.RawMessage  `json:"auth_info,omitempty"`
	Other    map[string]any   `json:"other,omitempty"`
}

// CreatedDevice is the payload of a successful create.
type CreatedDevice struct {
	DeviceID string `json:"device_id"`
}

// Datastream is one entry of a v1 datastream listing.
type Datastream struct {
	ID           string          `json:"id"`
	CreateTime   string          `json:"create_time,omitempty"`
	UpdateAt     string          `json:"update_at,omitempty"`
	CurrentValue json.RawMessage `json:"current_value,omitempty"`
	Unit         string          `json:"unit,omitempty"`
	UnitSymbol   string          `json:"unit_symbol,omitempty"`
	UUID         string          `json:"uuid,omitempty"`
}

// Datapoint is one timestamped value. Value is a JSON string or number.
type Datapoint struct {
	At    string          `json:"at"`
	Value json.RawMessage `json:"value"`
}

// Float returns Value as a number when it is one, or a string holding one.
func (p Datapoint) Float() (float64, bool) {
	var f float64
	if err := json.Unmarshal(p.Value, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(p.Value, &s); err == nil {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// DatastreamPoints groups datapoints under their stream.
type DatastreamPoints struct {
	ID         string      `json:"id"`
	Datapoints []Datapoint `json:"datapoints"`
}

// DatapointSet is the datapoint payload shared by both generations.
type DatapointSet struct {
	Count       FlexInt            `json:"count"`
	Cursor      string             `json:"cursor,omitempty"`
	Datastreams []DatastreamPoints `json:"datastreams"`
}

// DeviceV2 is the v2 create/update body and detail payload.
type DeviceV2 struct {
	ProductID  string `json:"product_id"`
	DeviceName string `json:"device_name,omitempty"`
	IMEI       string `json:"imei,omitempty"`
	IMSI       string `json:"imsi,omitempty"`
	PSK        string `json:"psk,omitempty"`
	AuthCode   string `json:"auth_code,omitempty"`
	Desc       string `json:"desc,omitempty"`
	Lat        string `json:"lat,omitempty"`
	Lon        string `json:"lon,omitempty"`
}

// DeviceRefV2 identifies a device in v2 responses.
type DeviceRefV2 struct {
	DID        json.RawMessage `json:"did,omitempty"`
	PID        string          `json:"pid,omitempty"`
	DeviceName string          `json:"device_name,omitempty"`
	IMEI       string          `json:"imei,omitempty"`
}

// UploadedFile is the payload of a successful file upload.
type UploadedFile struct {
	FID string `json:"fid"`
}
