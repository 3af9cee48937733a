package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/nerrad567/onenet-console/internal/onenet"
)

// verifyRequest is the body of POST /api/token/verify.
type verifyRequest struct {
	Token string `json:"token"`
	// AccessKey defaults to the configured v2 access key.
	AccessKey string `json:"access_key"`
}

// verifyResponse reports whether a capability token is valid.
type verifyResponse struct {
	Valid     bool   `json:"valid"`
	Resource  string `json:"resource,omitempty"`
	Method    string `json:"method,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
	Error     string `json:"error,omitempty"`
}

// handleMintToken mints a v2 capability token for {user_id, access_key}.
// Missing fields fall back to the configured v2 credentials.
func (s *Server) handleMintToken(w http.ResponseWriter, r *http.Request) {
	if s.minter == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "token minting is not configured")
		return
	}

	var req onenet.TokenRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, onenet.TokenResponse{Error: err.Error()})
		return
	}
	userID := firstNonEmpty(req.UserID, s.onenetCfg.V2.UserID)
	accessKey := firstNonEmpty(req.AccessKey, s.onenetCfg.V2.AccessKey)
	if userID == "" || accessKey == "" {
		writeJSON(w, http.StatusBadRequest, onenet.TokenResponse{Error: "user_id and access_key are required"})
		return
	}

	token, err := s.minter.Mint(r.Context(), userID, accessKey)
	if err != nil {
		status := http.StatusInternalServerError
		var integration *onenet.IntegrationError
		switch {
		case errors.Is(err, onenet.ErrInvalidSecret), errors.Is(err, onenet.ErrUnsupportedMethod):
			status = http.StatusBadRequest
		case errors.As(err, &integration):
			status = http.StatusBadGateway
		}
		s.logger.Warn("token mint failed", "user_id", userID, "error", err)
		writeJSON(w, status, onenet.TokenResponse{Error: "Failed to generate token"})
		return
	}

	writeJSON(w, http.StatusOK, onenet.TokenResponse{Success: true, Token: token})
}

// handleVerifyToken checks a capability token's signature and expiry.
// Invalid tokens are a normal answer, not an error status.
func (s *Server) handleVerifyToken(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.Token == "" {
		writeBadRequest(w, "token is required")
		return
	}
	secret := firstNonEmpty(req.AccessKey, s.onenetCfg.V2.AccessKey)
	if secret == "" {
		writeBadRequest(w, "access_key is required")
		return
	}

	capability, err := onenet.VerifyCapability(req.Token, secret, time.Now())
	if err != nil {
		writeJSON(w, http.StatusOK, verifyResponse{Valid: false, Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, verifyResponse{
		Valid:     true,
		Resource:  capability.Resource,
		Method:    string(capability.Method),
		ExpiresAt: capability.Expiry().UTC().Format(time.RFC3339),
	})
}
