package server

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/oszuidwest/zwfm-audioctl/internal/audio"
	"github.com/oszuidwest/zwfm-audioctl/internal/config"
	"github.com/oszuidwest/zwfm-audioctl/internal/eventlog"
	"github.com/oszuidwest/zwfm-audioctl/internal/metrics"
	"github.com/oszuidwest/zwfm-audioctl/internal/types"
)

// monitoredTargets are metered on every tick, in message order.
var monitoredTargets = []types.Target{types.TargetPlayback, types.TargetRecording}

// silenceTarget is the meter silence detection runs on.
const silenceTarget = types.TargetPlayback

// Notifier receives silence transitions of the monitored playback device.
type Notifier interface {
	HandleEvent(st audio.SilenceState, r audio.Reading)
}

// Monitor samples the default playback and recording devices for the level
// stream, the metrics and silence detection, and watches the device list for
// changes. It is safe for concurrent use.
type Monitor struct {
	cfg      *config.Config
	audio    *audio.Service
	metrics  *metrics.Metrics
	notifier Notifier
	now      func() time.Time

	silence *audio.SilenceDetector
	holders map[types.Target]*audio.PeakHolder

	// Owned by the Run goroutine.
	meters     map[types.Target]*audio.Meter
	lastDevice map[types.Target]string
	known      map[string]types.Device

	mu      sync.RWMutex
	levels  types.WSLevelsResponse
	devices []types.Device
}

// NewMonitor returns a monitor reading its thresholds from cfg.
func NewMonitor(cfg *config.Config, svc *audio.Service, m *metrics.Metrics, n Notifier) *Monitor {
	snap := cfg.Snapshot()
	holders := make(map[types.Target]*audio.PeakHolder, len(monitoredTargets))
	meters := make(map[types.Target]*audio.Meter, len(monitoredTargets))
	for _, t := range monitoredTargets {
		holders[t] = audio.NewPeakHolder(snap.PeakHold)
		meters[t] = svc.Meter(t)
	}
	return &Monitor{
		cfg:        cfg,
		audio:      svc,
		metrics:    m,
		notifier:   n,
		now:        time.Now,
		silence:    audio.NewSilenceDetector(),
		holders:    holders,
		meters:     meters,
		lastDevice: make(map[types.Target]string, len(monitoredTargets)),
		levels:     types.WSLevelsResponse{Type: "levels", Levels: []types.MeterLevel{}},
		devices:    []types.Device{},
	}
}

// Run samples levels every meter interval and refreshes the device list every
// types.DevicesInterval until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	interval := m.cfg.Snapshot().MeterInterval
	meterTicker := time.NewTicker(interval)
	devicesTicker := time.NewTicker(types.DevicesInterval)
	defer meterTicker.Stop()
	defer devicesTicker.Stop()

	slog.Info("monitor started", "interval", interval)
	m.refreshDevices()
	m.sample()

	for {
		select {
		case <-ctx.Done():
			slog.Info("monitor stopped")
			return nil
		case <-meterTicker.C:
			m.sample()
		case <-devicesTicker.C:
			m.refreshDevices()
			// Pick up a reloaded meter interval.
			if next := m.cfg.Snapshot().MeterInterval; next != interval {
				interval = next
				meterTicker.Reset(interval)
				slog.Info("meter interval changed", "interval", interval)
			}
		}
	}
}

// ApplyConfig applies reloaded meter settings.
func (m *Monitor) ApplyConfig() {
	hold := m.cfg.Snapshot().PeakHold
	for _, h := range m.holders {
		h.SetHold(hold)
	}
}

// Levels returns the latest levels message.
func (m *Monitor) Levels() types.WSLevelsResponse {
	m.mu.RLock()
	defer m.mu.RUnlock()
	levels := m.levels
	levels.Levels = slices.Clone(m.levels.Levels)
	return levels
}

// Devices returns the device list of the last refresh.
func (m *Monitor) Devices() []types.Device {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.devices)
}

// sample reads one peak per monitored target and feeds silence detection.
func (m *Monitor) sample() {
	now := m.now()
	cfg := m.cfg.Snapshot()

	msg := types.WSLevelsResponse{
		Type:   "levels",
		Levels: make([]types.MeterLevel, 0, len(monitoredTargets)),
	}

	for _, target := range monitoredTargets {
		holder := m.holders[target]
		r, err := m.meters[target].Sample()

		// A new default device starts with a fresh held peak.
		if r.DeviceID != m.lastDevice[target] {
			holder.Reset()
			m.lastDevice[target] = r.DeviceID
		}

		if err != nil {
			msg.Levels = append(msg.Levels, types.MeterLevel{
				Target: target,
				PeakDB: audio.MinDB,
				HeldDB: audio.MinDB,
				Error:  err.Error(),
			})
			if !errors.Is(err, audio.ErrNotFound) {
				slog.Debug("failed to read peak", "target", target, "error", err)
			}
			continue
		}

		db := r.DB()
		msg.Levels = append(msg.Levels, types.MeterLevel{
			Target:     target,
			DeviceID:   r.DeviceID,
			DeviceName: r.DeviceName,
			Peak:       r.Peak,
			Percent:    r.Percent(),
			PeakDB:     db,
			HeldDB:     holder.Update(db, now),
		})
		m.metrics.ObservePeak(target, db)

		if target == silenceTarget {
			st := m.silence.Update(db, audio.SilenceConfig{
				ThresholdDB: cfg.SilenceThreshold,
				Duration:    cfg.SilenceDuration,
				Recovery:    cfg.SilenceRecovery,
			}, now)
			m.handleSilence(st, r)
			msg.Silence = st.InSilence
			msg.SilenceDurationMs = st.Duration.Milliseconds()
			msg.SilenceLevel = st.Level
		}
	}

	m.mu.Lock()
	m.levels = msg
	m.mu.Unlock()
}

// handleSilence logs silence transitions and passes them to the notifier.
func (m *Monitor) handleSilence(st audio.SilenceState, r audio.Reading) {
	m.metrics.ObserveSilence(st.InSilence)
	switch {
	case st.Entered:
		slog.Warn("silence detected", "device", r.DeviceName, "level_db", st.LevelDB)
	case st.Recovered:
		slog.Info("audio recovered", "device", r.DeviceName, "silence", st.Total)
	}
	if m.notifier != nil {
		m.notifier.HandleEvent(st, r)
	}
}

// refreshDevices reloads the device list, records devices that appeared or
// disappeared since the previous refresh and updates volume and mute metrics.
func (m *Monitor) refreshDevices() {
	devices, err := m.audio.List(false)
	if err != nil {
		slog.Warn("failed to list devices", "error", err)
		return
	}

	current := make(map[string]types.Device, len(devices))
	for _, d := range devices {
		current[d.ID] = d
	}

	// The first refresh only establishes the baseline.
	if m.known != nil {
		for _, d := range devices {
			if _, ok := m.known[d.ID]; !ok {
				m.deviceEvent(eventlog.DeviceAdded, d)
			}
		}
		for id, d := range m.known {
			if _, ok := current[id]; !ok {
				m.deviceEvent(eventlog.DeviceRemoved, d)
			}
		}
	}
	m.known = current

	m.metrics.ObserveDevices(devices)
	for _, target := range types.Targets {
		if pct, err := m.audio.Volume(target); err == nil {
			m.metrics.ObserveVolume(target, pct)
		}
		if muted, err := m.audio.Mute(target); err == nil {
			m.metrics.ObserveMute(target, muted)
		}
	}

	m.mu.Lock()
	m.devices = devices
	m.mu.Unlock()
}

// deviceEvent logs and records a device that appeared or disappeared.
func (m *Monitor) deviceEvent(t eventlog.EventType, d types.Device) {
	slog.Info("device list changed", "event", t, "id", d.ID, "name", d.Name, "type", d.Type)
	appendEvent(m.cfg, &eventlog.Event{
		Type:     t,
		DeviceID: d.ID,
		Details:  eventlog.DeviceDetails{Name: d.Name, Type: string(d.Type)},
	})
}
