package onenet

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/nerrad567/onenet-console/internal/device"
)

// DeviceQuery filters a v1 device listing. Zero fields are omitted.
type DeviceQuery struct {
	KeyWords  string
	AuthInfo  string
	Tags      []string
	Online    *bool
	Private   *bool
	Page      int
	PerPage   int
	DeviceIDs []string
	Begin     string
	End       string
}

// Values encodes the query the way the v1 API expects; tags and device
// ids are comma-joined.
func (q DeviceQuery) Values() url.Values {
	v := url.Values{}
	setIf(v, "key_words", q.KeyWords)
	setIf(v, "auth_info", q.AuthInfo)
	if len(q.Tags) > 0 {
		v.Set("tag", strings.Join(q.Tags, ","))
	}
	if q.Online != nil {
		v.Set("online", strconv.FormatBool(*q.Online))
	}
	if q.Private != nil {
		v.Set("private", strconv.FormatBool(*q.Private))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if len(q.DeviceIDs) > 0 {
		v.Set("device_id", strings.Join(q.DeviceIDs, ","))
	}
	setIf(v, "begin", q.Begin)
	setIf(v, "end", q.End)
	return v
}

// QueryDevices lists devices matching q.
func (c *Client) QueryDevices(ctx context.Context, auth AuthContext, q DeviceQuery) (*DeviceList, *Result, error) {
	if err := requireVersion(auth, VersionV1); err != nil {
		return nil, nil, err
	}
	list, res, err := call[DeviceList](ctx, c, auth, Request{Path: "/devices", Query: q.Values()})
	if err != nil {
		return nil, res, err
	}
	return &list, res, nil
}

// CreateDeviceV1 registers a device.
func (c *Client) CreateDeviceV1(ctx context.Context, auth AuthContext, d NewDeviceV1) (*CreatedDevice, *Result, error) {
	if err := requireVersion(auth, VersionV1); err != nil {
		return nil, nil, err
	}
	if d.Title == "" {
		return nil, nil, fmt.Errorf("%w: title", ErrMissingParameter)
	}
	created, res, err := call[CreatedDevice](ctx, c, auth, Request{Method: http.MethodPost, Path: "/devices", JSON: d})
	if err != nil {
		return nil, res, err
	}
	return &created, res, nil
}

// UpdateDeviceV1 changes the fields set in d.
func (c *Client) UpdateDeviceV1(ctx context.Context, auth AuthContext, id string, d UpdateDeviceV1) (*Result, error) {
	if err := requireVersion(auth, VersionV1); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, fmt.Errorf("%w: device id", ErrMissingParameter)
	}
	_, res, err := call[struct{}](ctx, c, auth, Request{Method: http.MethodPut, Path: devicePath(id), JSON: d})
	return res, err
}

// GetDeviceV1 fetches one device.
func (c *Client) GetDeviceV1(ctx context.Context, auth AuthContext, id string) (*device.Device, *Result, error) {
	if err := requireVersion(auth, VersionV1); err != nil {
		return nil, nil, err
	}
	if id == "" {
		return nil, nil, fmt.Errorf("%w: device id", ErrMissingParameter)
	}
	d, res, err := call[device.Device](ctx, c, auth, Request{Path: devicePath(id)})
	if err != nil {
		return nil, res, err
	}
	return &d, res, nil
}

// ListDatastreams lists a device's datastreams. ids narrows the listing.
func (c *Client) ListDatastreams(ctx context.Context, auth AuthContext, id string, ids ...string) ([]Datastream, *Result, error) {
	if err := requireVersion(auth, VersionV1); err != nil {
		return nil, nil, err
	}
	if id == "" {
		return nil, nil, fmt.Errorf("%w: device id", ErrMissingParameter)
	}
	q := url.Values{}
	if len(ids) > 0 {
		q.Set("datastream_ids", strings.Join(ids, ","))
	}
	streams, res, err := call[[]Datastream](ctx, c, auth, Request{Path: devicePath(id) + "/datastreams", Query: q})
	return streams, res, err
}

// DatapointQuery filters a datapoint query. Start and End are normalised
// with NormalizeTimestamp; unparseable values are dropped.
type DatapointQuery struct {
	DatastreamID string
	Start        string
	End          string
	Duration     int
	Limit        int
	Cursor       string
	Sort         string
}

func (q DatapointQuery) apply(v url.Values) {
	setIf(v, "datastream_id", q.DatastreamID)
	if s, ok := NormalizeTimestamp(q.Start); ok {
		v.Set("start", s)
	}
	if s, ok := NormalizeTimestamp(q.End); ok {
		v.Set("end", s)
	}
	if q.Duration > 0 {
		v.Set("duration", strconv.Itoa(q.Duration))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	setIf(v, "cursor", q.Cursor)
	if s := strings.ToUpper(q.Sort); s == "ASC" || s == "DESC" {
		v.Set("sort", s)
	}
}

// QueryDatapoints fetches a v1 device's datapoints.
func (c *Client) QueryDatapoints(ctx context.Context, auth AuthContext, id string, q DatapointQuery) (*DatapointSet, *Result, error) {
	if err := requireVersion(auth, VersionV1); err != nil {
		return nil, nil, err
	}
	if id == "" {
		return nil, nil, fmt.Errorf("%w: device id", ErrMissingParameter)
	}
	v := url.Values{}
	q.apply(v)
	set, res, err := call[DatapointSet](ctx, c, auth, Request{Path: devicePath(id) + "/datapoints", Query: v})
	if err != nil {
		return nil, res, err
	}
	return &set, res, nil
}

func devicePath(id string) string {
	return "/devices/" + url.PathEscape(id)
}

func setIf(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}
