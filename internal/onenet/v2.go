package onenet

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// CreateDeviceV2 registers a device under a product.
func (c *Client) CreateDeviceV2(ctx context.Context, auth AuthContext, d DeviceV2) (*DeviceRefV2, *Result, error) {
	if err := requireVersion(auth, VersionV2); err != nil {
		return nil, nil, err
	}
	if d.ProductID == "" || d.DeviceName == "" {
		return nil, nil, fmt.Errorf("%w: product_id and device_name", ErrMissingParameter)
	}
	ref, res, err := call[DeviceRefV2](ctx, c, auth, Request{Method: http.MethodPost, Path: "/device/create", JSON: d})
	if err != nil {
		return nil, res, err
	}
	return &ref, res, nil
}

// UpdateDeviceV2 changes the non-empty fields of d.
func (c *Client) UpdateDeviceV2(ctx context.Context, auth AuthContext, d DeviceV2) (*DeviceRefV2, *Result, error) {
	if err := requireVersion(auth, VersionV2); err != nil {
		return nil, nil, err
	}
	if d.ProductID == "" {
		return nil, nil, fmt.Errorf("%w: product_id", ErrMissingParameter)
	}
	if d.DeviceName == "" && d.IMEI == "" {
		return nil, nil, fmt.Errorf("%w: device_name or imei", ErrMissingParameter)
	}
	ref, res, err := call[DeviceRefV2](ctx, c, auth, Request{Method: http.MethodPost, Path: "/device/update", JSON: d})
	if err != nil {
		return nil, res, err
	}
	return &ref, res, nil
}

// GetDeviceV2 fetches one device by product and name.
func (c *Client) GetDeviceV2(ctx context.Context, auth AuthContext, productID, deviceName string) (*DeviceV2, *Result, error) {
	if err := requireVersion(auth, VersionV2); err != nil {
		return nil, nil, err
	}
	if productID == "" || deviceName == "" {
		return nil, nil, fmt.Errorf("%w: product_id and device_name", ErrMissingParameter)
	}
	q := url.Values{"product_id": {productID}, "device_name": {deviceName}}
	d, res, err := call[DeviceV2](ctx, c, auth, Request{Path: "/device/detail", Query: q})
	if err != nil {
		return nil, res, err
	}
	return &d, res, nil
}

// HistoryQuery selects a v2 device's datapoint history.
type HistoryQuery struct {
	ProductID  string
	DeviceName string
	IMEI       string
	DatapointQuery
}

// Values encodes the query. Timestamps are re-emitted in UTC without a zone
// designator.
func (q HistoryQuery) Values() url.Values {
	v := url.Values{}
	v.Set("product_id", q.ProductID)
	v.Set("device_name", q.DeviceName)
	setIf(v, "imei", q.IMEI)
	q.DatapointQuery.apply(v)
	return v
}

// HistoryDatapoints fetches datapoint history.
func (c *Client) HistoryDatapoints(ctx context.Context, auth AuthContext, q HistoryQuery) (*DatapointSet, *Result, error) {
	if err := requireVersion(auth, VersionV2); err != nil {
		return nil, nil, err
	}
	if q.ProductID == "" || q.DeviceName == "" {
		return nil, nil, fmt.Errorf("%w: product_id and device_name are required", ErrMissingParameter)
	}
	set, res, err := call[DatapointSet](ctx, c, auth, Request{Path: "/datapoint/history-datapoints", Query: q.Values()})
	if err != nil {
		return nil, res, err
	}
	return &set, res, nil
}
