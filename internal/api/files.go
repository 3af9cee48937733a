package api

import (
	"errors"
	"net/http"

	"github.com/nerrad567/onenet-console/internal/audit"
	"github.com/nerrad567/onenet-console/internal/onenet"
)

// uploadFormMemory is how much of a multipart upload is held in memory
// before spilling to temporary files.
const uploadFormMemory = 8 << 20

// fileTargetFrom reads the device selector shared by the file routes from
// form values (query or multipart).
func fileTargetFrom(r *http.Request) onenet.FileTarget {
	return onenet.FileTarget{
		DeviceID:   r.FormValue("did"),
		ProductID:  r.FormValue("product_id"),
		DeviceName: r.FormValue("device_name"),
		IMEI:       r.FormValue("imei"),
	}
}

// handleUploadFile forwards a multipart file (field "file", at most 20 MB)
// to the device file service.
func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	v, err := fileServiceVersion(r)
	if err != nil {
		writeLocalEnvelope(w, onenet.VersionV2, http.StatusBadRequest, err.Error())
		return
	}

	authCtx, err := s.resolveAuth(r, v)
	if err != nil {
		s.writeOneNETError(w, r, v, nil, err)
		return
	}

	if err := r.ParseMultipartForm(uploadFormMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeLocalEnvelope(w, v, http.StatusRequestEntityTooLarge, onenet.ErrFileTooLarge.Error())
			return
		}
		writeLocalEnvelope(w, v, http.StatusBadRequest, "expected a multipart form with a file field")
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck // Best-effort temp file cleanup

	file, header, err := r.FormFile("file")
	if err != nil {
		writeLocalEnvelope(w, v, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	if header.Size > onenet.MaxUploadBytes {
		writeLocalEnvelope(w, v, http.StatusRequestEntityTooLarge, onenet.ErrFileTooLarge.Error())
		return
	}

	target := fileTargetFrom(r)
	_, res, err := s.onenet.UploadFile(r.Context(), authCtx, target, header.Filename, file)
	if res != nil {
		s.recordActivity(r, audit.ActionFileUpload, target.String(), v, resultStatus(res), map[string]any{
			"filename": header.Filename,
			"size":     header.Size,
		})
	}
	if err != nil {
		s.writeOneNETError(w, r, v, res, err)
		return
	}
	writeEnvelope(w, res)
}

// handleFileSpace reports the device file quota, adding a megabyte
// rendering under "display" whichever unit the remote used.
func (s *Server) handleFileSpace(w http.ResponseWriter, r *http.Request) {
	v, err := fileServiceVersion(r)
	if err != nil {
		writeLocalEnvelope(w, onenet.VersionV2, http.StatusBadRequest, err.Error())
		return
	}

	authCtx, err := s.resolveAuth(r, v)
	if err != nil {
		s.writeOneNETError(w, r, v, nil, err)
		return
	}

	quota, res, err := s.onenet.FileSpace(r.Context(), authCtx, fileTargetFrom(r))
	if err != nil {
		s.writeOneNETError(w, r, v, res, err)
		return
	}
	writeEnvelopeWith(w, res, map[string]any{"display": onenet.DisplayQuota(quota)})
}
