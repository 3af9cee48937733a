package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nerrad567/onenet-console/internal/device"
	"github.com/nerrad567/onenet-console/internal/onenet"
)

// Messages for locally generated envelope failures.
const (
	msgTransportFailure = "failed to reach OneNET"
	msgInvalidResponse  = "invalid response from OneNET"
	msgRemoteFallback   = "OneNET request failed"
)

// resolveAuth builds the outbound credential for version v.
//
// The browser's own header wins (api-key for v1, Authorization for v2).
// Otherwise the configured default is used: the v1 api key, or a v2 token
// minted from the configured user id and access key. With neither, the
// result is onenet.ErrMissingCredential.
func (s *Server) resolveAuth(r *http.Request, v onenet.Version) (onenet.AuthContext, error) {
	authCtx := onenet.AuthContext{Version: v}

	switch v {
	case onenet.VersionV1:
		authCtx.APIKey = strings.TrimSpace(r.Header.Get(onenet.HeaderAPIKey))
		if authCtx.APIKey == "" {
			authCtx.APIKey = s.onenetCfg.V1.APIKey
		}
	case onenet.VersionV2:
		authCtx.Token = strings.TrimSpace(r.Header.Get(onenet.HeaderAuthorization))
		if authCtx.Token == "" && s.minter != nil && s.onenetCfg.V2.UserID != "" && s.onenetCfg.V2.AccessKey != "" {
			token, err := s.minter.Mint(r.Context(), s.onenetCfg.V2.UserID, s.onenetCfg.V2.AccessKey)
			if err != nil {
				return authCtx, fmt.Errorf("minting default token: %w", err)
			}
			authCtx.Token = token
		}
	default:
		return authCtx, fmt.Errorf("%w: %q", onenet.ErrUnknownVersion, string(v))
	}

	if err := authCtx.Validate(); err != nil {
		return authCtx, err
	}
	return authCtx, nil
}

// fileServiceVersion picks the credential family for the file service,
// which accepts either. An explicit ?version= wins, then whichever
// credential header is present, then v2.
func fileServiceVersion(r *http.Request) (onenet.Version, error) {
	if q := r.URL.Query().Get("version"); q != "" {
		return onenet.ParseVersion(q)
	}
	if r.Header.Get(onenet.HeaderAPIKey) != "" && r.Header.Get(onenet.HeaderAuthorization) == "" {
		return onenet.VersionV1, nil
	}
	return onenet.VersionV2, nil
}

// resultStatus is the status a relayed envelope is written with.
func resultStatus(res *onenet.Result) int {
	if res == nil || res.HTTPStatus == 0 {
		return http.StatusOK
	}
	return res.HTTPStatus
}

// writeEnvelope relays a decoded OneNET envelope with the remote status.
func writeEnvelope(w http.ResponseWriter, res *onenet.Result) {
	writeJSON(w, resultStatus(res), res.Response)
}

// writeEnvelopeWith relays an envelope with extra top-level members.
func writeEnvelopeWith(w http.ResponseWriter, res *onenet.Result, extra map[string]any) {
	raw, err := json.Marshal(res.Response)
	if err != nil {
		writeEnvelope(w, res)
		return
	}
	var merged map[string]any
	if err := json.Unmarshal(raw, &merged); err != nil {
		writeEnvelope(w, res)
		return
	}
	for k, v := range extra {
		merged[k] = v
	}
	writeJSON(w, resultStatus(res), merged)
}

// writeLocalEnvelope answers with a locally built failure in v's envelope.
// v2 envelopes carry the HTTP status as their code.
func writeLocalEnvelope(w http.ResponseWriter, v onenet.Version, status int, msg string) {
	writeJSON(w, status, onenet.NewErrorResponse(v, status, msg))
}

// writeOneNETError maps a failed proxy call onto the version's envelope.
// res is the remote's answer when there was one.
func (s *Server) writeOneNETError(w http.ResponseWriter, r *http.Request, v onenet.Version, res *onenet.Result, err error) {
	var integration *onenet.IntegrationError

	switch {
	case errors.Is(err, onenet.ErrMissingCredential):
		status := http.StatusBadRequest
		if v == onenet.VersionV2 {
			status = http.StatusUnauthorized
		}
		writeLocalEnvelope(w, v, status, missingCredentialMessage(v))

	case res != nil && res.Response != nil && res.Response.OK() && errors.Is(err, onenet.ErrInvalidResponse):
		// A success envelope whose data did not decode. Relaying it would
		// report success for work that was never applied.
		s.logger.Warn("onenet success payload undecodable", "path", r.URL.Path, "error", err)
		writeLocalEnvelope(w, v, http.StatusBadGateway, msgInvalidResponse)

	case res != nil && res.Response != nil:
		// OneNET answered; show the operator exactly what it said.
		writeEnvelope(w, res)

	case errors.As(err, &integration):
		// Token service rejection with no OneNET envelope behind it.
		status := integration.Status
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		writeLocalEnvelope(w, v, status, firstNonEmpty(integration.Message, msgRemoteFallback))

	case errors.Is(err, onenet.ErrFileTooLarge):
		writeLocalEnvelope(w, v, http.StatusRequestEntityTooLarge, err.Error())

	case errors.Is(err, onenet.ErrMissingParameter),
		errors.Is(err, onenet.ErrVersionMismatch),
		errors.Is(err, onenet.ErrUnknownVersion),
		errors.Is(err, onenet.ErrInvalidSecret),
		errors.Is(err, onenet.ErrUnsupportedMethod),
		errors.Is(err, device.ErrInvalidDevice):
		writeLocalEnvelope(w, v, http.StatusBadRequest, err.Error())

	case errors.Is(err, onenet.ErrInvalidResponse):
		s.logger.Warn("onenet returned an invalid response", "path", r.URL.Path, "error", err)
		writeLocalEnvelope(w, v, http.StatusBadGateway, msgInvalidResponse)

	case errors.Is(err, onenet.ErrTransport):
		s.logger.Warn("onenet unreachable", "path", r.URL.Path, "error", err)
		writeLocalEnvelope(w, v, http.StatusInternalServerError, msgTransportFailure)

	default:
		s.logger.Error("onenet proxy failed", "path", r.URL.Path, "error", err)
		writeLocalEnvelope(w, v, http.StatusInternalServerError, msgTransportFailure)
	}
}

func missingCredentialMessage(v onenet.Version) string {
	if v == onenet.VersionV2 {
		return "Authentication required"
	}
	return "API key is required"
}

// decodeBody decodes a JSON request body into dst. An empty body leaves dst
// untouched.
func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
