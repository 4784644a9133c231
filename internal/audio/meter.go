package audio

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/oszuidwest/zwfm-audioctl/internal/types"
)

// MinDB is the meter floor in dBFS. Silence and anything quieter read as MinDB.
const MinDB = -60.0

// Reading is one peak-meter sample of a target's default device.
type Reading struct {
	Target     types.Target
	DeviceID   string
	DeviceName string
	Peak       float64 // Normalized peak in [0,1]
}

// Percent returns the reading as a 0-100 percentage.
func (r Reading) Percent() int { return Percent(r.Peak) }

// DB returns the reading in dBFS.
func (r Reading) DB() float64 { return PeakToDB(r.Peak) }

// Percent converts a normalized peak to a percentage, rounding halves to even.
func Percent(peak float64) int {
	return int(math.RoundToEven(peak * 100))
}

// PeakToDB converts a normalized peak to dBFS, clamped to MinDB.
func PeakToDB(peak float64) float64 {
	if peak <= 0 {
		return MinDB
	}
	return math.Max(20*math.Log10(peak), MinDB)
}

// Peak samples the current default device of target. The default device is
// looked up on every call so a change of default is followed immediately.
func (s *Service) Peak(target types.Target) (Reading, error) {
	return s.Meter(target).Sample()
}

// Meter samples the peak of a target's default device. It remembers the
// names of devices it has seen so repeated samples of the same device skip
// the endpoint lookup. A Meter is not safe for concurrent use.
type Meter struct {
	svc    *Service
	target types.Target
	names  map[string]string
}

// Meter returns a sampler for target.
func (s *Service) Meter(target types.Target) *Meter {
	return &Meter{svc: s, target: target, names: make(map[string]string)}
}

// Sample reads one peak value. The default device is looked up every time.
func (m *Meter) Sample() (Reading, error) {
	id, err := m.svc.defaultID(m.target)
	if err != nil {
		return Reading{Target: m.target}, err
	}
	name, ok := m.names[id]
	if !ok {
		ep, err := m.svc.backend.Endpoint(id)
		if err != nil {
			return Reading{Target: m.target, DeviceID: id}, platformErr("open endpoint", err)
		}
		name = ep.Name
		m.names[id] = name
	}
	peak, err := m.svc.backend.Peak(id)
	if err != nil {
		return Reading{Target: m.target, DeviceID: id, DeviceName: name}, platformErr("get peak value", err)
	}
	return Reading{
		Target:     m.target,
		DeviceID:   id,
		DeviceName: name,
		Peak:       math.Min(math.Max(float64(peak), 0), 1),
	}, nil
}

// MeterState is the lifecycle state of a Reporter.
type MeterState int32

// Reporter lifecycle states.
const (
	MeterIdle MeterState = iota
	MeterPolling
	MeterStopped
)

func (s MeterState) String() string {
	switch s {
	case MeterIdle:
		return "idle"
	case MeterPolling:
		return "polling"
	case MeterStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Reporter polls a target's peak value at a fixed interval and hands every
// sample to Emit.
type Reporter struct {
	Service  *Service
	Target   types.Target
	Interval time.Duration       // Defaults to types.MeterInterval
	Emit     func(Reading) error // Called once per sample; an error stops the loop

	state atomic.Int32
}

// State returns the current lifecycle state.
func (r *Reporter) State() MeterState {
	return MeterState(r.state.Load())
}

// Run samples until ctx is cancelled or a read or emit fails.
// Cancellation is not an error. A Reporter runs at most once.
func (r *Reporter) Run(ctx context.Context) error {
	if !r.state.CompareAndSwap(int32(MeterIdle), int32(MeterPolling)) {
		return types.InvalidArgumentf("meter is already %s", r.State())
	}
	defer r.state.Store(int32(MeterStopped))

	interval := r.Interval
	if interval <= 0 {
		interval = types.MeterInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	meter := r.Service.Meter(r.Target)
	for {
		reading, err := meter.Sample()
		if err != nil {
			return err
		}
		if err := r.Emit(reading); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if ctx.Err() != nil {
				return nil
			}
		}
	}
}
