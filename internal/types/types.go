// Package types provides shared type definitions used across audioctl.
package types

import (
	"fmt"
	"strings"
	"time"
)

// Flow is the data-flow direction of an audio endpoint.
type Flow uint32

// Data-flow directions. Values match the Core Audio EDataFlow enumeration.
const (
	FlowRender  Flow = 0 // Playback endpoints
	FlowCapture Flow = 1 // Recording endpoints
	FlowAll     Flow = 2 // Both directions
)

// DeviceType returns the user-facing type name for the flow.
func (f Flow) DeviceType() DeviceType {
	switch f {
	case FlowRender:
		return DeviceTypePlayback
	case FlowCapture:
		return DeviceTypeRecording
	default:
		return ""
	}
}

func (f Flow) String() string {
	switch f {
	case FlowRender:
		return "render"
	case FlowCapture:
		return "capture"
	case FlowAll:
		return "all"
	default:
		return fmt.Sprintf("flow(%d)", uint32(f))
	}
}

// Role is a default-assignment slot for an endpoint.
type Role uint32

// Device roles. Values match the Core Audio ERole enumeration.
const (
	RoleConsole        Role = 0
	RoleMultimedia     Role = 1
	RoleCommunications Role = 2
)

func (r Role) String() string {
	switch r {
	case RoleConsole:
		return "console"
	case RoleMultimedia:
		return "multimedia"
	case RoleCommunications:
		return "communications"
	default:
		return fmt.Sprintf("role(%d)", uint32(r))
	}
}

// State is a bit mask of endpoint device states.
type State uint32

// Device states. Values match the Core Audio DEVICE_STATE_XXX constants.
const (
	StateActive     State = 0x1
	StateDisabled   State = 0x2
	StateNotPresent State = 0x4
	StateUnplugged  State = 0x8

	// StateInactive selects every device that is listed after the enabled ones.
	StateInactive = StateDisabled | StateUnplugged
	// StateAll selects devices in any state.
	StateAll = StateActive | StateDisabled | StateNotPresent | StateUnplugged
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateDisabled:
		return "disabled"
	case StateNotPresent:
		return "notpresent"
	case StateUnplugged:
		return "unplugged"
	default:
		return fmt.Sprintf("state(%#x)", uint32(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "active":
		*s = StateActive
	case "disabled":
		*s = StateDisabled
	case "notpresent":
		*s = StateNotPresent
	case "unplugged":
		*s = StateUnplugged
	default:
		return fmt.Errorf("unknown device state %q", text)
	}
	return nil
}

// DeviceType is the user-facing direction of a device.
type DeviceType string

// Device types as reported in device records.
const (
	DeviceTypePlayback  DeviceType = "Playback"
	DeviceTypeRecording DeviceType = "Recording"
)

// Flow returns the data-flow direction for the device type.
func (t DeviceType) Flow() Flow {
	if t == DeviceTypeRecording {
		return FlowCapture
	}
	return FlowRender
}

// Endpoint is an audio endpoint as reported by the platform, before it is
// numbered and decorated with default-role information.
type Endpoint struct {
	ID    string // Stable endpoint identifier
	Name  string // Friendly name
	Flow  Flow   // Render or capture
	State State  // Current device state
}

// Device is a device record as printed by the commands.
type Device struct {
	Index                int        `json:"index"`                 // 1-based position in this enumeration
	Default              bool       `json:"default"`               // Default multimedia device for its type
	DefaultCommunication bool       `json:"default_communication"` // Default communications device for its type
	Type                 DeviceType `json:"type"`                  // Playback or Recording
	Name                 string     `json:"name"`                  // Friendly name
	ID                   string     `json:"id"`                    // Stable endpoint identifier
	State                State      `json:"state"`                 // active, disabled, unplugged or notpresent
}

// Target names a default device whose volume, mute state or meter is addressed.
type Target string

// Supported targets.
const (
	TargetPlayback               Target = "playback"
	TargetPlaybackCommunication  Target = "playback-communication"
	TargetRecording              Target = "recording"
	TargetRecordingCommunication Target = "recording-communication"
)

// Targets lists every supported target in display order.
var Targets = []Target{
	TargetPlayback,
	TargetPlaybackCommunication,
	TargetRecording,
	TargetRecordingCommunication,
}

// Flow returns the data-flow direction addressed by the target.
func (t Target) Flow() Flow {
	switch t {
	case TargetRecording, TargetRecordingCommunication:
		return FlowCapture
	default:
		return FlowRender
	}
}

// Role returns the default role addressed by the target.
func (t Target) Role() Role {
	switch t {
	case TargetPlaybackCommunication, TargetRecordingCommunication:
		return RoleCommunications
	default:
		return RoleMultimedia
	}
}

// Valid reports whether t is a known target.
func (t Target) Valid() bool {
	for _, known := range Targets {
		if t == known {
			return true
		}
	}
	return false
}

// RoleScope restricts which default roles a default-device write touches.
type RoleScope string

// Supported role scopes.
const (
	RoleScopeAll           RoleScope = "all"           // Communications, then multimedia
	RoleScopeDefault       RoleScope = "default"       // Multimedia only
	RoleScopeCommunication RoleScope = "communication" // Communications only
)

// Roles returns the roles written for the scope, in write order.
func (s RoleScope) Roles() []Role {
	switch s {
	case RoleScopeDefault:
		return []Role{RoleMultimedia}
	case RoleScopeCommunication:
		return []Role{RoleCommunications}
	default:
		return []Role{RoleCommunications, RoleMultimedia}
	}
}

// SilenceLevel represents the silence detection state.
type SilenceLevel string

// SilenceLevelActive indicates silence is confirmed.
const SilenceLevelActive SilenceLevel = "active"

// MeterLevel is a single peak-meter reading for one target.
type MeterLevel struct {
	Target     Target  `json:"target"`                // Metered target
	DeviceID   string  `json:"device_id,omitempty"`   // Endpoint being metered
	DeviceName string  `json:"device_name,omitempty"` // Friendly name of the endpoint
	Peak       float64 `json:"peak"`                  // Normalized peak in [0,1]
	Percent    int     `json:"percent"`               // Peak as a 0-100 percentage
	PeakDB     float64 `json:"peak_db"`               // Peak in dBFS
	HeldDB     float64 `json:"held_db"`               // Held peak in dBFS
	Error      string  `json:"error,omitempty"`       // Set when the device could not be read
}

// GraphConfig holds Microsoft Graph API credentials for sending email.
type GraphConfig struct {
	TenantID     string `json:"tenant_id"`     // Azure AD tenant ID
	ClientID     string `json:"client_id"`     // App registration client ID
	ClientSecret string `json:"client_secret"` // App registration client secret
	FromAddress  string `json:"from_address"`  // Shared mailbox sender address
	Recipients   string `json:"recipients"`    // Comma-separated recipient addresses
}

// VersionInfo contains version comparison data.
type VersionInfo struct {
	Current     string `json:"current"`              // Current version
	Latest      string `json:"latest,omitempty"`     // Latest available version
	UpdateAvail bool   `json:"update_available"`     // Update is available
	Commit      string `json:"commit,omitempty"`     // Git commit hash
	BuildTime   string `json:"build_time,omitempty"` // Build timestamp
}

const (
	// MeterInterval is the default interval between peak-meter samples.
	MeterInterval = 100 * time.Millisecond
	// DevicesInterval is the interval between device list pushes to WebSocket clients.
	DevicesInterval = 3000 * time.Millisecond
)
