package server

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/oszuidwest/zwfm-audioctl/internal/audio"
	"github.com/oszuidwest/zwfm-audioctl/internal/config"
	"github.com/oszuidwest/zwfm-audioctl/internal/eventlog"
	"github.com/oszuidwest/zwfm-audioctl/internal/metrics"
	"github.com/oszuidwest/zwfm-audioctl/internal/types"
)

// DefaultEventsLimit is the page size of events/list when no limit is given.
const DefaultEventsLimit = 100

// WSCommand is a command received from a WebSocket client.
type WSCommand struct {
	Type string          `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// EventsResponse is a page of the event log, newest first.
type EventsResponse struct {
	Events  []eventlog.Event `json:"events"`
	HasMore bool             `json:"has_more"`
}

// CommandHandler performs device commands on behalf of HTTP and WebSocket
// clients. Every change is counted in the metrics and written to the event log.
type CommandHandler struct {
	cfg     *config.Config
	audio   *audio.Service
	metrics *metrics.Metrics
}

// NewCommandHandler creates a new command handler.
func NewCommandHandler(cfg *config.Config, svc *audio.Service, m *metrics.Metrics) *CommandHandler {
	return &CommandHandler{
		cfg:     cfg,
		audio:   svc,
		metrics: m,
	}
}

// Handle processes a WebSocket command and performs the requested action.
// Commands use slash-style format: namespace/action (e.g., "devices/list", "mute/toggle")
func (h *CommandHandler) Handle(cmd WSCommand, send chan<- any, triggerDevicesUpdate func()) {
	// Parse command into namespace and action
	parts := strings.SplitN(cmd.Type, "/", 3)
	namespace := parts[0]
	action := ""
	if len(parts) > 1 {
		action = parts[1]
	}
	subaction := ""
	if len(parts) > 2 {
		subaction = parts[2]
	}

	switch namespace {
	case "devices":
		h.handleDevices(action, cmd, send)
	case "volume":
		h.handleVolume(action, cmd, send)
	case "mute":
		h.handleMute(action, cmd, send)
	case "notifications":
		h.handleNotifications(action, subaction, cmd, send)
	case "events":
		h.handleEvents(action, cmd, send)
	default:
		slog.Warn("unknown WebSocket command", "type", cmd.Type)
		return
	}

	triggerDevicesUpdate()
}

// --- Namespace handlers ---

// handleDevices routes devices/* commands
func (h *CommandHandler) handleDevices(action string, cmd WSCommand, send chan<- any) {
	switch action {
	case "list":
		HandleCommand(cmd, send, func(req *ListDevicesRequest) (any, error) {
			return h.ListDevices(req.ShowDisabled)
		})
	case "set-default":
		HandleCommand(cmd, send, func(req *SetDefaultRequest) (any, error) {
			return h.SetDefault(req)
		})
	default:
		slog.Warn("unknown devices action", "action", action)
	}
}

// handleVolume routes volume/* commands
func (h *CommandHandler) handleVolume(action string, cmd WSCommand, send chan<- any) {
	switch action {
	case "get":
		HandleCommand(cmd, send, func(req *TargetRequest) (any, error) {
			return h.Volume(targetOrDefault(req.Target))
		})
	case "set":
		HandleCommand(cmd, send, func(req *VolumeRequest) (any, error) {
			return h.SetVolume(req)
		})
	default:
		slog.Warn("unknown volume action", "action", action)
	}
}

// handleMute routes mute/* commands
func (h *CommandHandler) handleMute(action string, cmd WSCommand, send chan<- any) {
	switch action {
	case "get":
		HandleCommand(cmd, send, func(req *TargetRequest) (any, error) {
			return h.Mute(targetOrDefault(req.Target))
		})
	case "set":
		HandleCommand(cmd, send, func(req *MuteRequest) (any, error) {
			return h.SetMute(req)
		})
	case "toggle":
		HandleCommand(cmd, send, func(req *TargetRequest) (any, error) {
			return h.SetMute(&MuteRequest{Target: req.Target, Toggle: true})
		})
	default:
		slog.Warn("unknown mute action", "action", action)
	}
}

// handleEvents routes events/* commands
func (h *CommandHandler) handleEvents(action string, cmd WSCommand, send chan<- any) {
	switch action {
	case "list":
		HandleCommand(cmd, send, func(req *EventsRequest) (any, error) {
			return h.Events(req)
		})
	default:
		slog.Warn("unknown events action", "action", action)
	}
}

// --- Operations shared by the HTTP API and the WebSocket ---

// ListDevices returns the enabled devices, followed by the disabled ones if asked.
func (h *CommandHandler) ListDevices(showDisabled bool) ([]types.Device, error) {
	return h.audio.List(showDisabled)
}

// Device returns the enabled device with the given ID.
func (h *CommandHandler) Device(id string) (types.Device, error) {
	return h.audio.Find(audio.Selector{ID: id})
}

// SetDefault makes the selected device the default for the requested roles.
func (h *CommandHandler) SetDefault(req *SetDefaultRequest) (types.Device, error) {
	dev, err := h.audio.SetDefault(req.selector(), req.scope())
	h.metrics.CountCommand("set-default", err)
	if err != nil {
		return types.Device{}, err
	}

	slog.Info("default device changed", "id", dev.ID, "name", dev.Name, "role", req.scope())
	h.recordEvent(&eventlog.Event{
		Type:     eventlog.DefaultChanged,
		DeviceID: dev.ID,
		Details: eventlog.DeviceDetails{
			Name: dev.Name,
			Type: string(dev.Type),
			Role: string(req.scope()),
		},
	})
	return dev, nil
}

// Volume returns the volume of the target's default device.
func (h *CommandHandler) Volume(target types.Target) (types.VolumeResponse, error) {
	pct, err := h.audio.Volume(target)
	if err != nil {
		return types.VolumeResponse{}, err
	}
	return types.VolumeResponse{Target: target, Volume: pct, Display: audio.FormatVolume(pct)}, nil
}

// SetVolume sets the volume of the target's default device and returns the new value.
func (h *CommandHandler) SetVolume(req *VolumeRequest) (types.VolumeResponse, error) {
	target := targetOrDefault(req.Target)
	err := h.audio.SetVolume(target, *req.Volume)
	h.metrics.CountCommand("set-volume", err)
	if err != nil {
		return types.VolumeResponse{}, err
	}

	resp, err := h.Volume(target)
	if err != nil {
		return types.VolumeResponse{}, err
	}
	h.metrics.ObserveVolume(target, resp.Volume)

	slog.Info("volume changed", "target", target, "volume", resp.Display)
	h.recordEvent(&eventlog.Event{
		Type:    eventlog.VolumeChanged,
		Message: string(target) + " volume set to " + resp.Display,
		Details: eventlog.DeviceDetails{Target: string(target), Volume: resp.Volume},
	})
	return resp, nil
}

// Mute returns the mute state of the target's default device.
func (h *CommandHandler) Mute(target types.Target) (types.MuteResponse, error) {
	muted, err := h.audio.Mute(target)
	if err != nil {
		return types.MuteResponse{}, err
	}
	return types.MuteResponse{Target: target, Mute: muted}, nil
}

// SetMute sets or toggles the mute state of the target's default device.
func (h *CommandHandler) SetMute(req *MuteRequest) (types.MuteResponse, error) {
	target := targetOrDefault(req.Target)

	var (
		muted bool
		err   error
	)
	if req.Toggle {
		muted, err = h.audio.ToggleMute(target)
	} else {
		muted = *req.Mute
		err = h.audio.SetMute(target, muted)
	}
	h.metrics.CountCommand("set-mute", err)
	if err != nil {
		return types.MuteResponse{}, err
	}
	h.metrics.ObserveMute(target, muted)

	slog.Info("mute changed", "target", target, "mute", muted)
	h.recordEvent(&eventlog.Event{
		Type:    eventlog.MuteChanged,
		Message: string(target) + " mute set to " + strconv.FormatBool(muted),
		Details: eventlog.DeviceDetails{Target: string(target), Mute: &muted},
	})
	return types.MuteResponse{Target: target, Mute: muted}, nil
}

// Events returns a page of the configured event log.
func (h *CommandHandler) Events(req *EventsRequest) (EventsResponse, error) {
	path := h.cfg.Snapshot().LogPath
	if path == "" {
		return EventsResponse{}, types.NotFoundf("event log path not configured")
	}

	limit := req.Limit
	if limit == 0 {
		limit = DefaultEventsLimit
	}
	events, more, err := eventlog.ReadLast(path, limit, req.Offset, eventlog.TypeFilter(req.Filter))
	if err != nil {
		return EventsResponse{}, err
	}
	return EventsResponse{Events: events, HasMore: more}, nil
}

// recordEvent appends an event to the configured event log, if any.
func (h *CommandHandler) recordEvent(ev *eventlog.Event) {
	appendEvent(h.cfg, ev)
}

// appendEvent appends an event to the event log configured in cfg.
// Failures are logged and otherwise ignored.
func appendEvent(cfg *config.Config, ev *eventlog.Event) {
	path := cfg.Snapshot().LogPath
	if path == "" {
		return
	}
	if err := eventlog.Append(path, ev); err != nil {
		slog.Warn("failed to write event log", "type", ev.Type, "error", err)
	}
}
