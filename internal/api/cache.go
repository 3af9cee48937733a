package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/nerrad567/onenet-console/internal/audit"
	"github.com/nerrad567/onenet-console/internal/device"
)

// cacheResponse is the body of the cache routes.
type cacheResponse struct {
	Devices []device.Device `json:"devices"`
	Count   int             `json:"count"`
}

func newCacheResponse(devices []device.Device) cacheResponse {
	if devices == nil {
		devices = []device.Device{}
	}
	return cacheResponse{Devices: devices, Count: len(devices)}
}

// handleGetCache returns the cached device list, in insertion order.
//
// Query parameters:
//   - reload: "true" re-reads the persisted snapshot first
func (s *Server) handleGetCache(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("reload") == "true" {
		devices, err := s.cache.Load(r.Context())
		if err != nil {
			s.logger.Error("reloading device cache failed", "error", err)
			writeInternalError(w, "failed to load device cache")
			return
		}
		writeJSON(w, http.StatusOK, newCacheResponse(devices))
		return
	}
	writeJSON(w, http.StatusOK, newCacheResponse(s.cache.List()))
}

// handleReplaceCache overwrites the cache with the posted list.
// Accepts either a bare JSON array or {"devices": [...]}.
func (s *Server) handleReplaceCache(w http.ResponseWriter, r *http.Request) {
	devices, err := decodeDeviceList(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.cache.Replace(r.Context(), devices); err != nil {
		if errors.Is(err, device.ErrInvalidDevice) {
			writeValidationError(w, err.Error())
			return
		}
		s.logger.Error("replacing device cache failed", "error", err)
		writeInternalError(w, "failed to save device cache")
		return
	}
	s.recordActivity(r, audit.ActionCacheReplace, "", "", http.StatusOK, map[string]any{"devices": len(devices)})
	writeJSON(w, http.StatusOK, newCacheResponse(s.cache.List()))
}

// handleClearCache empties the cache.
func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	if err := s.cache.Clear(r.Context()); err != nil {
		s.logger.Error("clearing device cache failed", "error", err)
		writeInternalError(w, "failed to clear device cache")
		return
	}
	s.recordActivity(r, audit.ActionCacheClear, "", "", http.StatusNoContent, nil)
	w.WriteHeader(http.StatusNoContent)
}

func decodeDeviceList(r *http.Request) ([]device.Device, error) {
	var raw json.RawMessage
	if err := decodeBody(r, &raw); err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("request body must be a device list")
	}

	if raw[0] == '[' {
		var list []device.Device
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("invalid device list: %w", err)
		}
		return list, nil
	}

	var wrapped struct {
		Devices []device.Device `json:"devices"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("invalid device list: %w", err)
	}
	return wrapped.Devices, nil
}
