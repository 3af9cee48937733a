package onenet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

// MaxUploadBytes is the largest file OneNET accepts.
const MaxUploadBytes = 20 << 20

// ErrFileTooLarge is returned for uploads over MaxUploadBytes.
var ErrFileTooLarge = errors.New("onenet: file exceeds 20MB")

// FileTarget identifies the device a file belongs to: a device id, a
// product and device name, or an IMEI.
type FileTarget struct {
	DeviceID   string
	ProductID  string
	DeviceName string
	IMEI       string
}

// String names the target the way the console logs it.
func (t FileTarget) String() string {
	switch {
	case t.DeviceID != "":
		return t.DeviceID
	case t.ProductID != "" && t.DeviceName != "":
		return t.ProductID + "/" + t.DeviceName
	default:
		return t.IMEI
	}
}

func (t FileTarget) fields() (map[string]string, error) {
	f := map[string]string{}
	switch {
	case t.DeviceID != "":
		f["did"] = t.DeviceID
	case t.ProductID != "" && t.DeviceName != "":
		f["product_id"] = t.ProductID
		f["device_name"] = t.DeviceName
	case t.IMEI != "":
		f["imei"] = t.IMEI
	default:
		return nil, fmt.Errorf("%w: did, product_id+device_name or imei", ErrMissingParameter)
	}
	return f, nil
}

// UploadFile sends a file to the device file service. The service lives on
// the v2 host and accepts either credential.
func (c *Client) UploadFile(ctx context.Context, auth AuthContext, target FileTarget, filename string, content io.Reader) (*UploadedFile, *Result, error) {
	fields, err := target.fields()
	if err != nil {
		return nil, nil, err
	}
	if filename == "" {
		return nil, nil, fmt.Errorf("%w: file", ErrMissingParameter)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, nil, fmt.Errorf("writing form field %s: %w", k, err)
		}
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, nil, fmt.Errorf("creating form file: %w", err)
	}
	n, err := io.Copy(part, io.LimitReader(content, MaxUploadBytes+1))
	if err != nil {
		return nil, nil, fmt.Errorf("reading upload: %w", err)
	}
	if n > MaxUploadBytes {
		return nil, nil, ErrFileTooLarge
	}
	if err := w.Close(); err != nil {
		return nil, nil, fmt.Errorf("closing form: %w", err)
	}

	up, res, err := call[UploadedFile](ctx, c, auth, Request{
		Method:      http.MethodPost,
		Path:        "/device/file-upload",
		Body:        &buf,
		ContentType: w.FormDataContentType(),
		Service:     VersionV2,
	})
	if err != nil {
		return nil, res, err
	}
	return &up, res, nil
}

// FileSpace reports the account's device file quota.
func (c *Client) FileSpace(ctx context.Context, auth AuthContext, target FileTarget) (StorageQuota, *Result, error) {
	q := url.Values{}
	if fields, err := target.fields(); err == nil {
		for k, v := range fields {
			q.Set(k, v)
		}
	}

	res, err := c.Do(ctx, auth, Request{Path: "/device/file-space", Query: q, Service: VersionV2})
	if err != nil {
		return nil, nil, err
	}
	if err := res.Err(); err != nil {
		return nil, res, err
	}
	quota, err := DecodeQuota(res.Response.Payload())
	if err != nil {
		return nil, res, err
	}
	return quota, res, nil
}
