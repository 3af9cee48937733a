package onenet

import (
	"strings"
	"time"
)

// WireTimeLayout is the timestamp form OneNET accepts: UTC, millisecond
// precision, no zone designator.
const WireTimeLayout = "2006-01-02T15:04:05.000"

var inputLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NormalizeTimestamp re-emits an ISO-8601 timestamp in WireTimeLayout.
// Values without a zone are taken as UTC. ok is false for empty or
// unparseable input, which callers drop rather than forward.
func NormalizeTimestamp(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range inputLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(WireTimeLayout), true
		}
	}
	return "", false
}
