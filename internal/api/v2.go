package api

import (
	"net/http"

	"github.com/nerrad567/onenet-console/internal/audit"
	"github.com/nerrad567/onenet-console/internal/device"
	"github.com/nerrad567/onenet-console/internal/onenet"
)

// validateDeviceV2 checks a v2 device form. Optional fields are only
// checked when present; creation also requires a device name.
func validateDeviceV2(d onenet.DeviceV2, create bool) error {
	var checks []error
	if create || d.DeviceName != "" {
		checks = append(checks, device.ValidateDeviceName(d.DeviceName))
	}
	if d.IMEI != "" {
		checks = append(checks, device.ValidateIMEI(d.IMEI))
	}
	if d.IMSI != "" {
		checks = append(checks, device.ValidateIMSI(d.IMSI))
	}
	if d.PSK != "" {
		checks = append(checks, device.ValidatePSK(d.PSK))
	}
	if d.AuthCode != "" {
		checks = append(checks, device.ValidateAuthCode(d.AuthCode))
	}
	checks = append(checks,
		device.ValidateDescription(d.Desc),
		device.ValidateCoordinateString(d.Lat, true),
		device.ValidateCoordinateString(d.Lon, false),
	)
	return device.Check(checks...)
}

// handleCreateDeviceV2 registers a device under a product.
func (s *Server) handleCreateDeviceV2(w http.ResponseWriter, r *http.Request) {
	s.handleWriteDeviceV2(w, r, true)
}

// handleUpdateDeviceV2 changes a device's fields.
func (s *Server) handleUpdateDeviceV2(w http.ResponseWriter, r *http.Request) {
	s.handleWriteDeviceV2(w, r, false)
}

func (s *Server) handleWriteDeviceV2(w http.ResponseWriter, r *http.Request, create bool) {
	var req onenet.DeviceV2
	if err := decodeBody(r, &req); err != nil {
		writeLocalEnvelope(w, onenet.VersionV2, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateDeviceV2(req, create); err != nil {
		writeLocalEnvelope(w, onenet.VersionV2, http.StatusBadRequest, err.Error())
		return
	}

	authCtx, err := s.resolveAuth(r, onenet.VersionV2)
	if err != nil {
		s.writeOneNETError(w, r, onenet.VersionV2, nil, err)
		return
	}

	var res *onenet.Result
	action := audit.ActionDeviceUpdate
	if create {
		action = audit.ActionDeviceCreate
		_, res, err = s.onenet.CreateDeviceV2(r.Context(), authCtx, req)
	} else {
		_, res, err = s.onenet.UpdateDeviceV2(r.Context(), authCtx, req)
	}
	if res != nil {
		s.recordActivity(r, action, req.ProductID+"/"+req.DeviceName, onenet.VersionV2, resultStatus(res), nil)
	}
	if err != nil {
		s.writeOneNETError(w, r, onenet.VersionV2, res, err)
		return
	}
	writeEnvelope(w, res)
}

// handleGetDeviceV2 fetches one device.
//
// Query parameters:
//   - product_id, device_name (both required)
func (s *Server) handleGetDeviceV2(w http.ResponseWriter, r *http.Request) {
	authCtx, err := s.resolveAuth(r, onenet.VersionV2)
	if err != nil {
		s.writeOneNETError(w, r, onenet.VersionV2, nil, err)
		return
	}

	q := r.URL.Query()
	_, res, err := s.onenet.GetDeviceV2(r.Context(), authCtx, q.Get("product_id"), q.Get("device_name"))
	if err != nil {
		s.writeOneNETError(w, r, onenet.VersionV2, res, err)
		return
	}
	writeEnvelope(w, res)
}

// handleHistoryDatapoints fetches a device's datapoint history and mirrors it.
//
// Query parameters:
//   - product_id, device_name (required), imei
//   - datastream_id, start, end, duration, limit, cursor, sort
//
// start and end are forwarded in UTC without a zone designator.
func (s *Server) handleHistoryDatapoints(w http.ResponseWriter, r *http.Request) {
	authCtx, err := s.resolveAuth(r, onenet.VersionV2)
	if err != nil {
		s.writeOneNETError(w, r, onenet.VersionV2, nil, err)
		return
	}

	dq, err := datapointQueryFrom(r)
	if err != nil {
		writeLocalEnvelope(w, onenet.VersionV2, http.StatusBadRequest, err.Error())
		return
	}
	v := r.URL.Query()
	q := onenet.HistoryQuery{
		ProductID:      v.Get("product_id"),
		DeviceName:     v.Get("device_name"),
		IMEI:           v.Get("imei"),
		DatapointQuery: dq,
	}

	set, res, err := s.onenet.HistoryDatapoints(r.Context(), authCtx, q)
	if err != nil {
		s.writeOneNETError(w, r, onenet.VersionV2, res, err)
		return
	}

	s.mirrorDatapoints(onenet.VersionV2, q.ProductID+"/"+q.DeviceName, set)
	writeEnvelope(w, res)
}
