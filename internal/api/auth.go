package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/nerrad567/onenet-console/internal/audit"
	"github.com/nerrad567/onenet-console/internal/auth"
)

// sessionCookieName carries the console session. A cookie keeps the
// Authorization header free for OneNET v2 tokens.
const sessionCookieName = "onenetconsole_session"

// loginRequest is the request body for POST /api/auth/login.
type loginRequest struct {
	Password string `json:"password"`
}

// loginResponse is the response body for POST /api/auth/login.
type loginResponse struct {
	ExpiresAt string `json:"expires_at"`
	ExpiresIn int    `json:"expires_in"`
}

// handleLogin checks the operator password and sets the session cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.secCfg.ConsoleAuth.Enabled {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "console auth is disabled")
		return
	}

	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Password == "" {
		writeBadRequest(w, "password is required")
		return
	}

	token, claims, err := s.sessions.Login(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.logger.Warn("console login failed", "remote_addr", r.RemoteAddr)
			s.recordActivity(r, audit.ActionLogin, "", "", http.StatusUnauthorized, map[string]any{"remote_addr": r.RemoteAddr})
			writeUnauthorized(w, "invalid credentials")
			return
		}
		s.logger.Error("console login error", "error", err)
		writeInternalError(w, "login failed")
		return
	}

	expires := claims.ExpiresAt.Time
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.cfg.TLS.Enabled,
		SameSite: http.SameSiteStrictMode,
	})

	s.logger.Info("console login", "session", claims.ID)
	s.recordActivity(r, audit.ActionLogin, claims.ID, "", http.StatusOK, map[string]any{"remote_addr": r.RemoteAddr})
	writeJSON(w, http.StatusOK, loginResponse{
		ExpiresAt: expires.UTC().Format(time.RFC3339),
		ExpiresIn: int(s.sessions.TTL().Seconds()),
	})
}

// handleLogout revokes the current session and clears the cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if s.sessions != nil {
		if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
			if err := s.sessions.Logout(cookie.Value); err != nil {
				s.logger.Warn("console logout failed", "error", err)
			} else {
				s.recordActivity(r, audit.ActionLogout, "", "", http.StatusNoContent, nil)
			}
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.TLS.Enabled,
		SameSite: http.SameSiteStrictMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
