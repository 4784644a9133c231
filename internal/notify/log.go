package notify

import (
	"fmt"

	"github.com/oszuidwest/zwfm-audioctl/internal/eventlog"
)

// LogSilenceStart records the beginning of a silence event.
func LogSilenceStart(logPath string, a Alert) error {
	return eventlog.Append(logPath, &eventlog.Event{
		Type:     eventlog.SilenceStart,
		DeviceID: a.DeviceID,
		Details: &eventlog.SilenceDetails{
			DeviceName:  a.DeviceName,
			LevelDB:     a.LevelDB,
			ThresholdDB: a.ThresholdDB,
		},
	})
}

// LogSilenceEnd records the end of a silence event.
func LogSilenceEnd(logPath string, a Alert) error {
	return eventlog.Append(logPath, &eventlog.Event{
		Type:     eventlog.SilenceEnd,
		DeviceID: a.DeviceID,
		Details: &eventlog.SilenceDetails{
			DeviceName:  a.DeviceName,
			LevelDB:     a.LevelDB,
			ThresholdDB: a.ThresholdDB,
			DurationMs:  a.Duration.Milliseconds(),
		},
	})
}

// WriteTestLog writes a test log entry.
func WriteTestLog(logPath string) error {
	if logPath == "" {
		return fmt.Errorf("log file path not configured")
	}

	return eventlog.Append(logPath, &eventlog.Event{
		Type:    eventlog.Test,
		Message: "test entry from " + AppName,
	})
}
