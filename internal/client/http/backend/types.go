package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

type syncStatusResponse struct {
	Status     string      `json:"status"`
	LatestSync backendTime `json:"latest_sync"`
	Created    int64       `json:"created"`
	Updated    int64       `json:"updated"`
	Details    string      `json:"details"`
	Message    string      `json:"message"`
}

// backendTime accepts RFC 3339 and naive ISO timestamps (read as UTC).
type backendTime struct {
	t *time.Time
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func (bt *backendTime) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) || len(b) == 0 {
		bt.t = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("latest_sync: %w", err)
	}
	if s == "" {
		bt.t = nil
		return nil
	}

	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		bt.t = &ts
		return nil
	}
	for _, layout := range naiveLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			bt.t = &ts
			return nil
		}
	}

	return fmt.Errorf("latest_sync: unsupported time %q", s)
}
