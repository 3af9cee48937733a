package onenet

import (
	"encoding/json"
	"fmt"
)

const bytesPerMB = 1024 * 1024

// StorageQuota is a device file-space report: *V1Quota or *V2Quota.
type StorageQuota interface {
	// UsedMB, AvailableMB and TotalMB normalise the report to megabytes.
	UsedMB() float64
	AvailableMB() float64
	TotalMB() float64

	isQuota()
}

// V1Quota reports sizes in megabytes.
type V1Quota struct {
	UseSize   float64 `json:"useSize"`
	HasSize   float64 `json:"hasSize"`
	TotalSize float64 `json:"totalSize"`
}

// UsedMB implements StorageQuota.
func (q *V1Quota) UsedMB() float64 { return q.UseSize }

// AvailableMB implements StorageQuota.
func (q *V1Quota) AvailableMB() float64 { return q.HasSize }

// TotalMB implements StorageQuota.
func (q *V1Quota) TotalMB() float64 { return q.TotalSize }

func (*V1Quota) isQuota() {}

// V2Quota reports sizes in bytes.
type V2Quota struct {
	UseSize   int64 `json:"use_size"`
	HasSize   int64 `json:"has_size"`
	TotalSize int64 `json:"total_size"`
}

// UsedMB implements StorageQuota.
func (q *V2Quota) UsedMB() float64 { return float64(q.UseSize) / bytesPerMB }

// AvailableMB implements StorageQuota.
func (q *V2Quota) AvailableMB() float64 { return float64(q.HasSize) / bytesPerMB }

// TotalMB implements StorageQuota.
func (q *V2Quota) TotalMB() float64 { return float64(q.TotalSize) / bytesPerMB }

func (*V2Quota) isQuota() {}

// QuotaDisplay is a quota rendered for the console.
type QuotaDisplay struct {
	Used        string  `json:"used"`
	Available   string  `json:"available"`
	Total       string  `json:"total"`
	UsedPercent float64 `json:"used_percent"`
}

// DisplayQuota renders q in megabytes with two decimals.
func DisplayQuota(q StorageQuota) QuotaDisplay {
	d := QuotaDisplay{
		Used:      FormatMB(q.UsedMB()),
		Available: FormatMB(q.AvailableMB()),
		Total:     FormatMB(q.TotalMB()),
	}
	if total := q.TotalMB(); total > 0 {
		d.UsedPercent = q.UsedMB() / total * 100
	}
	return d
}

// FormatMB formats a megabyte count as "12.34 MB".
func FormatMB(mb float64) string {
	return fmt.Sprintf("%.2f MB", mb)
}

// DecodeQuota decodes a file-space data member, told apart by "useSize"
// (v1, megabytes) or "use_size" (v2, bytes).
func DecodeQuota(data json.RawMessage) (StorageQuota, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("%w: quota: %v", ErrInvalidResponse, err)
	}

	var q StorageQuota
	switch {
	case keys["useSize"] != nil:
		q = &V1Quota{}
	case keys["use_size"] != nil:
		q = &V2Quota{}
	default:
		return nil, fmt.Errorf("%w: quota has neither useSize nor use_size", ErrInvalidResponse)
	}
	if err := json.Unmarshal(data, q); err != nil {
		return nil, fmt.Errorf("%w: quota: %v", ErrInvalidResponse, err)
	}
	return q, nil
}
