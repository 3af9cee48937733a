package onenet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// Response is a decoded OneNET envelope: *V1Response or *V2Response.
type Response interface {
	// APIVersion reports which generation produced the envelope.
	APIVersion() Version
	// OK reports an application-level success (errno 0 or code 0).
	OK() bool
	// Payload is the raw data member, or nil when absent.
	Payload() json.RawMessage

	isResponse()
}

// V1Response is the legacy {errno, error, data} envelope.
type V1Response struct {
	Errno   int             `json:"errno"`
	Message string          `json:"error"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// APIVersion implements Response.
func (*V1Response) APIVersion() Version { return VersionV1 }

// OK implements Response.
func (r *V1Response) OK() bool { return r.Errno == 0 }

// Payload implements Response.
func (r *V1Response) Payload() json.RawMessage { return r.Data }

func (*V1Response) isResponse() {}

// V2Response is the {code, msg, request_id, data} envelope.
type V2Response struct {
	Code      int             `json:"code"`
	Msg       string          `json:"msg"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
}

// APIVersion implements Response.
func (*V2Response) APIVersion() Version { return VersionV2 }

// OK implements Response.
func (r *V2Response) OK() bool { return r.Code == 0 }

// Payload implements Response.
func (r *V2Response) Payload() json.RawMessage { return r.Data }

func (*V2Response) isResponse() {}

// DecodeResponse decodes body as whichever envelope it is, told apart by
// the presence of "errno" (v1) or "code" (v2).
func DecodeResponse(body []byte) (Response, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(body, &keys); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	var r Response
	switch {
	case keys["errno"] != nil:
		r = &V1Response{}
	case keys["code"] != nil:
		r = &V2Response{}
	default:
		return nil, fmt.Errorf("%w: neither errno nor code present", ErrInvalidResponse)
	}
	if err := json.Unmarshal(body, r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return r, nil
}

// DecodeData decodes the response's data member into T.
// An absent or null data member yields T's zero value.
func DecodeData[T any](r Response) (T, error) {
	var out T
	data := r.Payload()
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("%w: data: %v", ErrInvalidResponse, err)
	}
	return out, nil
}

// NewErrorResponse builds a locally generated failure envelope in v's shape.
// v1 failures use errno -1; v2 failures carry code and an empty request id.
func NewErrorResponse(v Version, code int, msg string) Response {
	if v == VersionV2 {
		return &V2Response{Code: code, Msg: msg, RequestID: "", Data: json.RawMessage("null")}
	}
	return &V1Response{Errno: -1, Message: msg}
}

// ResponseError converts a failed envelope into *IntegrationError.
// fallback replaces an empty remote message. Returns nil for successes.
func ResponseError(r Response, httpStatus int, fallback string) error {
	if r == nil {
		return nil
	}
	switch resp := r.(type) {
	case *V1Response:
		if resp.OK() && httpStatus < http.StatusBadRequest {
			return nil
		}
		return &IntegrationError{Version: VersionV1, Status: httpStatus, Code: resp.Errno, Message: firstNonEmpty(resp.Message, fallback)}
	case *V2Response:
		if resp.OK() && httpStatus < http.StatusBadRequest {
			return nil
		}
		code := resp.Code
		if code == 0 {
			code = httpStatus
		}
		return &IntegrationError{Version: VersionV2, Status: httpStatus, Code: code, Message: firstNonEmpty(resp.Msg, fallback), RequestID: resp.RequestID}
	}
	return nil
}
