package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Recorded actions.
const (
	ActionDeviceCreate = "device.create"
	ActionDeviceUpdate = "device.update"
	ActionCacheReplace = "cache.replace"
	ActionCacheClear   = "cache.clear"
	ActionFileUpload   = "file.upload"
	ActionLogin        = "session.login"
	ActionLogout       = "session.logout"
)

// Page size bounds for List.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// timeLayout sorts lexically in creation order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Entry is one recorded operator action.
type Entry struct {
	ID     string `json:"id"`
	Action string `json:"action"`
	// Target names what was acted on: a device id, "pid/name", or a cache slot.
	Target  string `json:"target,omitempty"`
	Version string `json:"version,omitempty"`
	// Session is the console session id, when console auth is enabled.
	Session string `json:"session,omitempty"`
	// Outcome is the HTTP status returned to the operator.
	Outcome   int            `json:"outcome"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Action string
	Target string
	Since  time.Time
	Limit  int
	Offset int
}

// Page is one slice of the log, newest first.
type Page struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// Log stores and queries activity entries.
type Log interface {
	Record(ctx context.Context, e *Entry) error
	List(ctx context.Context, filter Filter) (*Page, error)
}

// SQLiteLog keeps the activity log in the console database.
type SQLiteLog struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteLog creates a log over db. The activity_log migration must
// have been applied.
func NewSQLiteLog(db *sql.DB) *SQLiteLog {
	return &SQLiteLog{db: db, now: time.Now}
}

// Record inserts e, filling in ID and CreatedAt when unset.
func (l *SQLiteLog) Record(ctx context.Context, e *Entry) error {
	if e.Action == "" {
		return fmt.Errorf("recording activity: action is required")
	}
	if e.ID == "" {
		e.ID = "act-" + uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = l.now()
	}
	e.CreatedAt = e.CreatedAt.UTC()

	var details any
	if len(e.Details) > 0 {
		raw, err := json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("encoding activity details: %w", err)
		}
		details = string(raw)
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO activity_log (id, action, target, version, session, outcome, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Action, nullable(e.Target), nullable(e.Version), nullable(e.Session),
		e.Outcome, details, e.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting activity: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// List returns entries matching filter, newest first.
func (l *SQLiteLog) List(ctx context.Context, filter Filter) (*Page, error) {
	filter = clamp(filter)

	var conds []string
	var args []any
	if filter.Action != "" {
		conds = append(conds, "action = ?")
		args = append(args, filter.Action)
	}
	if filter.Target != "" {
		conds = append(conds, "target = ?")
		args = append(args, filter.Target)
	}
	if !filter.Since.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, filter.Since.UTC().Format(timeLayout))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := l.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM activity_log"+where, args...).Scan(&total); err != nil { //nolint:gosec // conditions are fixed strings with placeholders
		return nil, fmt.Errorf("counting activity: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, //nolint:gosec // conditions are fixed strings with placeholders
		"SELECT id, action, target, version, session, outcome, details, created_at FROM activity_log"+
			where+" ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?",
		append(args, filter.Limit, filter.Offset)...,
	)
	if err != nil {
		return nil, fmt.Errorf("querying activity: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activity: %w", err)
	}

	return &Page{Entries: entries, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func clamp(f Filter) Filter {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var e Entry
	var target, version, session, details sql.NullString
	var createdAt string

	if err := rows.Scan(&e.ID, &e.Action, &target, &version, &session, &e.Outcome, &details, &createdAt); err != nil {
		return e, fmt.Errorf("scanning activity: %w", err)
	}
	e.Target = target.String
	e.Version = version.String
	e.Session = session.String
	if details.Valid && details.String != "" {
		// Rows written by Record always decode; anything else is dropped.
		_ = json.Unmarshal([]byte(details.String), &e.Details) //nolint:errcheck // see above
	}

	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return e, fmt.Errorf("parsing activity timestamp %q: %w", createdAt, err)
	}
	e.CreatedAt = t
	return e, nil
}
