package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/onenet-console/internal/audit"
	"github.com/nerrad567/onenet-console/internal/device"
	"github.com/nerrad567/onenet-console/internal/onenet"
)

// Cache modes for device queries, selected with ?cache=.
const (
	cacheModeMerge   = "merge"
	cacheModeReplace = "replace"
	cacheModeNone    = "none"
)

// deviceQueryRequest is the body of POST /api/v1/devices/query.
type deviceQueryRequest struct {
	KeyWords  string   `json:"key_words"`
	AuthInfo  string   `json:"auth_info"`
	Tag       []string `json:"tag"`
	Online    *bool    `json:"online"`
	Private   *bool    `json:"private"`
	Page      int      `json:"page"`
	PerPage   int      `json:"per_page"`
	DeviceIDs idList   `json:"device_id"`
	Begin     string   `json:"begin"`
	End       string   `json:"end"`
}

// idList decodes device ids sent either as an array or as one string,
// which may itself be a comma-separated list.
type idList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *idList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s = strings.TrimSpace(s); s == "" {
			*l = nil
		} else {
			*l = idList{s}
		}
		return nil
	}
	var ids []string
	if err := json.Unmarshal(b, &ids); err != nil {
		return err
	}
	*l = ids
	return nil
}

func (q deviceQueryRequest) toQuery() onenet.DeviceQuery {
	return onenet.DeviceQuery{
		KeyWords:  q.KeyWords,
		AuthInfo:  q.AuthInfo,
		Tags:      q.Tag,
		Online:    q.Online,
		Private:   q.Private,
		Page:      q.Page,
		PerPage:   q.PerPage,
		DeviceIDs: q.DeviceIDs,
		Begin:     q.Begin,
		End:       q.End,
	}
}

// handleQueryDevicesV1 lists devices and folds the result into the cache.
//
// Query parameters:
//   - cache: merge (default), replace, or none
func (s *Server) handleQueryDevicesV1(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("cache")
	if mode == "" {
		mode = cacheModeMerge
	}
	if mode != cacheModeMerge && mode != cacheModeReplace && mode != cacheModeNone {
		writeLocalEnvelope(w, onenet.VersionV1, http.StatusBadRequest, "cache must be merge, replace or none")
		return
	}

	var req deviceQueryRequest
	if err := decodeBody(r, &req); err != nil {
		writeLocalEnvelope(w, onenet.VersionV1, http.StatusBadRequest, err.Error())
		return
	}

	authCtx, err := s.resolveAuth(r, onenet.VersionV1)
	if err != nil {
		s.writeOneNETError(w, r, onenet.VersionV1, nil, err)
		return
	}

	list, res, err := s.onenet.QueryDevices(r.Context(), authCtx, req.toQuery())
	if err != nil {
		s.writeOneNETError(w, r, onenet.VersionV1, res, err)
		return
	}

	s.updateCache(r.Context(), mode, list.Devices)
	writeEnvelope(w, res)
}

// updateCache applies a successful listing to the cache. Cache failures
// are logged; the operator still sees OneNET's answer.
func (s *Server) updateCache(ctx context.Context, mode string, devices []device.Device) {
	var err error
	switch mode {
	case cacheModeReplace:
		err = s.cache.Replace(ctx, devices)
	case cacheModeMerge:
		err = s.cache.Merge(ctx, devices)
	default:
		return
	}
	if err != nil {
		s.logger.Warn("updating device cache failed", "mode", mode, "devices", len(devices), "error", err)
	}
}

// handleCreateDeviceV1 registers a device.
func (s *Server) handleCreateDeviceV1(w http.ResponseWriter, r *http.Request) {
	var req onenet.NewDeviceV1
	if err := decodeBody(r, &req); err != nil {
		writeLocalEnvelope(w, onenet.VersionV1, http.StatusBadRequest, err.Error())
		return
	}
	if err := device.Check(
		device.ValidateDescription(req.Desc),
		device.ValidateLocation(req.Location),
	); err != nil {
		writeLocalEnvelope(w, onenet.VersionV1, http.StatusBadRequest, err.Error())
		return
	}

	authCtx, err := s.resolveAuth(r, onenet.VersionV1)
	if err != nil {
		s.writeOneNETError(w, r, onenet.VersionV1, nil, err)
		return
	}

	created, res, err := s.onenet.CreateDeviceV1(r.Context(), authCtx, req)
	if err != nil {
		if res != nil {
			s.recordActivity(r, audit.ActionDeviceCreate, "", onenet.VersionV1, resultStatus(res), map[string]any{"title": req.Title})
		}
		s.writeOneNETError(w, r, onenet.VersionV1, res, err)
		return
	}
	s.recordActivity(r, audit.ActionDeviceCreate, created.DeviceID, onenet.VersionV1, resultStatus(res), map[string]any{"title": req.Title})
	writeEnvelope(w, res)
}

// handleGetDeviceV1 fetches one device and refreshes its cache entry.
func (s *Server) handleGetDeviceV1(w http.ResponseWriter, r *http.Request) {
	authCtx, err := s.resolveAuth(r, onenet.VersionV1)
	if err != nil {
		s.writeOneNETError(w, r, onenet.VersionV1, nil, err)
		return
	}

	dev, res, err := s.onenet.GetDeviceV1(r.Context(), authCtx, chi.URLParam(r, "id"))
	if err != nil {
		s.writeOneNETError(w, r, onenet.VersionV1, res, err)
		return
	}

	if dev.ID != "" {
		s.updateCache(r.Context(), cacheModeMerge, []device.Device{*dev})
	}
	writeEnvelope(w, res)
}

// handleUpdateDeviceV1 changes a device's fields.
func (s *Server) handleUpdateDeviceV1(w http.ResponseWriter, r *http.Request) {
	var req onenet.UpdateDeviceV1
	if err := decodeBody(r, &req); err != nil {
		writeLocalEnvelope(w, onenet.VersionV1, http.StatusBadRequest, err.Error())
		return
	}
	desc := ""
	if req.Desc != nil {
		desc = *req.Desc
	}
	if err := device.Check(
		device.ValidateDescription(desc),
		device.ValidateLocation(req.Location),
	); err != nil {
		writeLocalEnvelope(w, onenet.VersionV1, http.StatusBadRequest, err.Error())
		return
	}

	authCtx, err := s.resolveAuth(r, onenet.VersionV1)
	if err != nil {
		s.writeOneNETError(w, r, onenet.VersionV1, nil, err)
		return
	}

	id := chi.URLParam(r, "id")
	res, err := s.onenet.UpdateDeviceV1(r.Context(), authCtx, id, req)
	if res != nil {
		s.recordActivity(r, audit.ActionDeviceUpdate, id, onenet.VersionV1, resultStatus(res), nil)
	}
	if err != nil {
		s.writeOneNETError(w, r, onenet.VersionV1, res, err)
		return
	}
	writeEnvelope(w, res)
}

// handleListDatastreams lists a device's datastreams.
//
// Query parameters:
//   - datastream_ids: comma-separated ids to narrow the listing
func (s *Server) handleListDatastreams(w http.ResponseWriter, r *http.Request) {
	authCtx, err := s.resolveAuth(r, onenet.VersionV1)
	if err != nil {
		s.writeOneNETError(w, r, onenet.VersionV1, nil, err)
		return
	}

	_, res, err := s.onenet.ListDatastreams(r.Context(), authCtx, chi.URLParam(r, "id"), splitList(r.URL.Query().Get("datastream_ids"))...)
	if err != nil {
		s.writeOneNETError(w, r, onenet.VersionV1, res, err)
		return
	}
	writeEnvelope(w, res)
}

// handleQueryDatapoints fetches a device's datapoints and mirrors them.
//
// Query parameters:
//   - datastream_id, start, end, duration, limit, cursor, sort
func (s *Server) handleQueryDatapoints(w http.ResponseWriter, r *http.Request) {
	q, err := datapointQueryFrom(r)
	if err != nil {
		writeLocalEnvelope(w, onenet.VersionV1, http.StatusBadRequest, err.Error())
		return
	}

	authCtx, err := s.resolveAuth(r, onenet.VersionV1)
	if err != nil {
		s.writeOneNETError(w, r, onenet.VersionV1, nil, err)
		return
	}

	id := chi.URLParam(r, "id")
	set, res, err := s.onenet.QueryDatapoints(r.Context(), authCtx, id, q)
	if err != nil {
		s.writeOneNETError(w, r, onenet.VersionV1, res, err)
		return
	}

	s.mirrorDatapoints(onenet.VersionV1, id, set)
	writeEnvelope(w, res)
}

// datapointQueryFrom reads the shared datapoint filters from the URL.
func datapointQueryFrom(r *http.Request) (onenet.DatapointQuery, error) {
	v := r.URL.Query()
	q := onenet.DatapointQuery{
		DatastreamID: v.Get("datastream_id"),
		Start:        v.Get("start"),
		End:          v.Get("end"),
		Cursor:       v.Get("cursor"),
		Sort:         v.Get("sort"),
	}
	var err error
	if q.Duration, err = optionalInt(v.Get("duration"), "duration"); err != nil {
		return q, err
	}
	if q.Limit, err = optionalInt(v.Get("limit"), "limit"); err != nil {
		return q, err
	}
	return q, nil
}

func optionalInt(s, name string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, &paramError{name: name}
	}
	return n, nil
}

type paramError struct{ name string }

func (e *paramError) Error() string { return e.name + " must be a non-negative integer" }

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
