package server

import (
	"github.com/oszuidwest/zwfm-audioctl/internal/audio"
	"github.com/oszuidwest/zwfm-audioctl/internal/types"
)

// Request types for HTTP and WebSocket commands with validation tags.
// These types define the expected input for each command and use
// go-playground/validator struct tags for automatic validation.

// --- Devices ---

// ListDevicesRequest is the request body for devices/list.
type ListDevicesRequest struct {
	ShowDisabled bool `json:"show_disabled"`
}

// SetDefaultRequest is the request body for devices/set-default and
// POST /api/devices/default.
type SetDefaultRequest struct {
	ID    string `json:"id" validate:"omitempty,max=512"`
	Index int    `json:"index" validate:"omitempty,gte=1,lte=42"`
	Name  string `json:"name" validate:"omitempty,max=256"`
	Role  string `json:"role" validate:"omitempty,oneof=all default communication"`
}

// selector returns the device selector named by the request.
func (r *SetDefaultRequest) selector() audio.Selector {
	return audio.Selector{Index: r.Index, ID: r.ID, Name: r.Name}
}

// scope returns the role scope, defaulting to all roles.
func (r *SetDefaultRequest) scope() types.RoleScope {
	if r.Role == "" {
		return types.RoleScopeAll
	}
	return types.RoleScope(r.Role)
}

// --- Volume and mute ---

// TargetRequest is the request body for volume/get and mute/get.
type TargetRequest struct {
	Target string `json:"target" validate:"omitempty,oneof=playback playback-communication recording recording-communication"`
}

// VolumeRequest is the request body for volume/set and POST /api/volume.
type VolumeRequest struct {
	Target string   `json:"target" validate:"omitempty,oneof=playback playback-communication recording recording-communication"`
	Volume *float64 `json:"volume" validate:"required,gte=0,lte=100"`
}

// MuteRequest is the request body for mute/set, mute/toggle and POST /api/mute.
type MuteRequest struct {
	Target string `json:"target" validate:"omitempty,oneof=playback playback-communication recording recording-communication"`
	Mute   *bool  `json:"mute" validate:"required_without=Toggle,excluded_with=Toggle"`
	Toggle bool   `json:"toggle"`
}

// targetOrDefault maps an omitted target to playback.
func targetOrDefault(s string) types.Target {
	if s == "" {
		return types.TargetPlayback
	}
	return types.Target(s)
}

// --- Event log ---

// EventsRequest is the request body for events/list and the query of GET /api/events.
type EventsRequest struct {
	Limit  int    `json:"limit" validate:"omitempty,gte=1,lte=500"`
	Offset int    `json:"offset" validate:"omitempty,gte=0"`
	Filter string `json:"filter" validate:"omitempty,oneof=device silence"`
}
