package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/nerrad567/onenet-console/internal/audit"
	"github.com/nerrad567/onenet-console/internal/onenet"
)

// activityChanSize bounds queued activity entries. Entries beyond it are
// dropped so a slow database never stalls a request.
const activityChanSize = 256

// recordActivity queues an entry for the activity log. No-op when the log
// is not configured.
func (s *Server) recordActivity(r *http.Request, action, target string, v onenet.Version, outcome int, details map[string]any) {
	if s.activity == nil {
		return
	}

	entry := &audit.Entry{
		Action:    action,
		Target:    target,
		Version:   string(v),
		Outcome:   outcome,
		Details:   details,
		CreatedAt: time.Now(),
	}
	if id, ok := r.Context().Value(ctxKeySessionID).(string); ok {
		entry.Session = id
	}

	select {
	case s.activityCh <- entry:
	default:
		s.logger.Warn("activity queue full, dropping entry", "action", action, "target", target)
	}
}

// drainActivity writes queued entries serially until ctx is cancelled,
// then flushes what is left.
func (s *Server) drainActivity(ctx context.Context) {
	write := func(e *audit.Entry) {
		if err := s.activity.Record(context.Background(), e); err != nil {
			s.logger.Error("activity write failed", "action", e.Action, "error", err)
		}
	}

	for {
		select {
		case e := <-s.activityCh:
			write(e)
		case <-ctx.Done():
			for {
				select {
				case e := <-s.activityCh:
					write(e)
				default:
					return
				}
			}
		}
	}
}

// handleListActivity returns recorded operator actions, newest first.
//
// Query parameters:
//   - action: e.g. device.create, cache.replace, session.login
//   - target: device id, "pid/name" or cache slot
//   - since: RFC 3339 lower bound
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	if s.activity == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "activity log requires the sqlite cache backend")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Action: q.Get("action"),
		Target: q.Get("target"),
	}
	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeBadRequest(w, "since must be an RFC 3339 timestamp")
			return
		}
		filter.Since = since
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	page, err := s.activity.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing activity failed", "error", err)
		writeInternalError(w, "failed to list activity")
		return
	}
	writeJSON(w, http.StatusOK, page)
}
