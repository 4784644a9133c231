package util

import (
	"fmt"
	"time"
)

// humanTimeFormat is the layout for timestamps in alerts and version output.
const humanTimeFormat = "2 Jan 2006 15:04 MST"

// HumanTime formats t as local time, e.g. "3 Mar 2026 14:05 CET".
func HumanTime(t time.Time) string {
	return t.Local().Format(humanTimeFormat)
}

// FormatBuildTime renders an RFC3339 build stamp with HumanTime. Stamps that
// do not parse are returned unchanged.
func FormatBuildTime(rfc3339 string) string {
	t, err := time.Parse(time.RFC3339, rfc3339)
	if err != nil {
		return rfc3339
	}
	return HumanTime(t)
}

// FormatDuration renders d as "45s", "2m 34s" or "1h 23m".
func FormatDuration(d time.Duration) string {
	d = d.Truncate(time.Second)
	hours := int(d / time.Hour)
	minutes := int(d % time.Hour / time.Minute)
	seconds := int(d % time.Minute / time.Second)
	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
