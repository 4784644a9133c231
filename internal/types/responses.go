package types

// WSLevelsResponse is sent to clients with peak-meter updates.
type WSLevelsResponse struct {
	Type              string       `json:"type"` // "levels"
	Levels            []MeterLevel `json:"levels"`
	Silence           bool         `json:"silence,omitzero"`             // True if playback is below threshold
	SilenceDurationMs int64        `json:"silence_duration_ms,omitzero"` // Silence duration in milliseconds
	SilenceLevel      SilenceLevel `json:"silence_level,omitzero"`       // "active" when in confirmed silence state
}

// WSDevicesResponse is sent to clients with the current device list.
type WSDevicesResponse struct {
	Type    string      `json:"type"` // "devices"
	Devices []Device    `json:"devices"`
	Version VersionInfo `json:"version"`
}

// APIError is the body of an unsuccessful HTTP API response.
type APIError struct {
	Error  string       `json:"error"`
	Fields []FieldError `json:"fields,omitempty"`
}

// VolumeResponse reports the volume of a target.
type VolumeResponse struct {
	Target  Target  `json:"target"`
	Volume  float64 `json:"volume"` // Percentage in [0,100]
	Display string  `json:"display"`
}

// MuteResponse reports the mute state of a target.
type MuteResponse struct {
	Target Target `json:"target"`
	Mute   bool   `json:"mute"`
}
