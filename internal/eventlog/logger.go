// Package eventlog records device and silence events in a JSON lines file
// and reads them back for the API.
package eventlog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oszuidwest/zwfm-audioctl/internal/util"
)

// EventType represents the type of event.
type EventType string

// Device event types.
const (
	DefaultChanged EventType = "default_changed"
	VolumeChanged  EventType = "volume_changed"
	MuteChanged    EventType = "mute_changed"
	DeviceAdded    EventType = "device_added"
	DeviceRemoved  EventType = "device_removed"
)

// Silence event types.
const (
	SilenceStart EventType = "silence_start"
	SilenceEnd   EventType = "silence_end"
)

// Test is written when a user checks the log channel.
const Test EventType = "test"

// Event represents a single log entry with type-specific details.
type Event struct {
	Timestamp time.Time `json:"ts"`
	Type      EventType `json:"type"`
	DeviceID  string    `json:"device_id,omitempty"`
	Message   string    `json:"msg,omitempty"`
	Details   any       `json:"details,omitempty"`
}

// DeviceDetails contains device-specific event details.
type DeviceDetails struct {
	Name   string  `json:"name,omitempty"`
	Type   string  `json:"type,omitempty"`   // Playback or Recording
	Target string  `json:"target,omitempty"` // e.g. playback-communication
	Role   string  `json:"role,omitempty"`   // all, default or communication
	Volume float64 `json:"volume,omitempty"` // Percent
	Mute   *bool   `json:"mute,omitempty"`
}

// SilenceDetails contains silence-specific event details.
type SilenceDetails struct {
	DeviceName  string  `json:"device_name,omitempty"`
	LevelDB     float64 `json:"level_db"`
	ThresholdDB float64 `json:"threshold_db"`
	DurationMs  int64   `json:"duration_ms,omitempty"`
}

// appendMu serializes writers within the process so lines never interleave.
var appendMu sync.Mutex

// Append writes one event to the file at path, creating it if needed.
// An empty path is a no-op.
func Append(path string, event *Event) error {
	if !util.IsConfigured(path) {
		return nil
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return util.WrapError("marshal log entry", err)
	}
	data = append(data, '\n')

	appendMu.Lock()
	defer appendMu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return util.WrapError("create log directory", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return util.WrapError("open log file", err)
	}
	defer util.SafeCloseFunc(f, "log file")()

	if _, err := f.Write(data); err != nil {
		return util.WrapError("write log entry", err)
	}
	return nil
}

// TypeFilter specifies which event types to include when reading.
type TypeFilter string

// Filter constants for ReadLast.
const (
	FilterAll     TypeFilter = ""
	FilterDevice  TypeFilter = "device"
	FilterSilence TypeFilter = "silence"
)

// Valid reports whether f is a known filter.
func (f TypeFilter) Valid() bool {
	return f == FilterAll || f == FilterDevice || f == FilterSilence
}

func (f TypeFilter) match(t EventType) bool {
	switch f {
	case FilterDevice:
		return IsDeviceEvent(t)
	case FilterSilence:
		return IsSilenceEvent(t)
	default:
		return true
	}
}

// MaxReadLimit is the maximum number of events that can be read at once.
const MaxReadLimit = 500

// ReadLast returns up to n events after skipping offset matching events,
// newest first, and whether older matching events remain.
func ReadLast(filePath string, n, offset int, filter TypeFilter) ([]Event, bool, error) {
	n = min(n, MaxReadLimit)
	if n <= 0 {
		return []Event{}, false, nil
	}

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []Event{}, false, nil
		}
		return nil, false, err
	}
	defer util.SafeCloseFunc(file, "log file")()

	var lines [][]byte
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, append([]byte(nil), scanner.Bytes()...))
	}
	if err := scanner.Err(); err != nil {
		return nil, false, err
	}

	events := make([]Event, 0, n)
	skipped := 0
	for i := len(lines) - 1; i >= 0; i-- {
		var event Event
		if err := json.Unmarshal(lines[i], &event); err != nil {
			continue // Skip malformed lines
		}
		if !filter.match(event.Type) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if len(events) == n {
			return events, true, nil
		}
		events = append(events, event)
	}

	return events, false, nil
}

// IsDeviceEvent reports whether the event type concerns a device setting.
func IsDeviceEvent(t EventType) bool {
	switch t {
	case DefaultChanged, VolumeChanged, MuteChanged, DeviceAdded, DeviceRemoved:
		return true
	}
	return false
}

// IsSilenceEvent reports whether the event type is a silence event.
func IsSilenceEvent(t EventType) bool {
	return t == SilenceStart || t == SilenceEnd
}
