package onenet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTimestamp(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"2024-01-01T00:00:00.000Z", "2024-01-01T00:00:00.000", true},
		{"2024-01-01T00:00:00Z", "2024-01-01T00:00:00.000", true},
		{"2024-01-01T08:00:00+08:00", "2024-01-01T00:00:00.000", true},
		{"2024-06-30T12:34:56.789123Z", "2024-06-30T12:34:56.789", true},
		{"2024-01-01T10:30", "2024-01-01T10:30:00.000", true},
		{"2024-01-01", "2024-01-01T00:00:00.000", true},
		{"", "", false},
		{"yesterday", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := NormalizeTimestamp(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
