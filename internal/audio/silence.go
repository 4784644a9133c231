package audio

import (
	"sync"
	"time"

	"github.com/oszuidwest/zwfm-audioctl/internal/types"
)

// SilenceConfig holds the thresholds for silence detection on a meter.
type SilenceConfig struct {
	ThresholdDB float64       // Level below which the device is considered silent
	Duration    time.Duration // Silence needed before an alert
	Recovery    time.Duration // Sound needed before the alert clears
}

// SilenceState is the outcome of feeding one reading to a SilenceDetector.
type SilenceState struct {
	InSilence bool               // Confirmed silence, including the recovery window
	Duration  time.Duration      // Length of the current silence
	Level     types.SilenceLevel // SilenceLevelActive while InSilence
	LevelDB   float64            // Reading that produced this state

	Entered   bool          // Silence was confirmed by this reading
	Recovered bool          // Recovery completed with this reading
	Total     time.Duration // Length of the silence that just ended
}

// SilenceDetector turns a stream of peak readings into silence transitions.
// It is safe for concurrent use.
type SilenceDetector struct {
	mu           sync.Mutex
	quietSince   time.Time
	loudSince    time.Time
	active       bool
	lastQuietFor time.Duration
}

// NewSilenceDetector returns a detector in the not-silent state.
func NewSilenceDetector() *SilenceDetector {
	return &SilenceDetector{}
}

// Update feeds one reading in dBFS taken at now.
func (d *SilenceDetector) Update(db float64, cfg SilenceConfig, now time.Time) SilenceState {
	d.mu.Lock()
	defer d.mu.Unlock()

	st := SilenceState{LevelDB: db}

	if db < cfg.ThresholdDB {
		d.loudSince = time.Time{}
		if d.quietSince.IsZero() {
			d.quietSince = now
		}
		d.lastQuietFor = now.Sub(d.quietSince)

		if !d.active && d.lastQuietFor >= cfg.Duration {
			d.active = true
			st.Entered = true
		}
		if d.active {
			st.InSilence = true
			st.Duration = d.lastQuietFor
			st.Level = types.SilenceLevelActive
		}
		return st
	}

	if !d.active {
		d.quietSince = time.Time{}
		return st
	}

	// Sound is back; the silence start is kept until recovery completes so a
	// short burst does not restart the clock.
	if d.loudSince.IsZero() {
		d.loudSince = now
	}
	if now.Sub(d.loudSince) < cfg.Recovery {
		st.InSilence = true
		st.Duration = d.lastQuietFor
		st.Level = types.SilenceLevelActive
		return st
	}

	st.Recovered = true
	st.Total = d.lastQuietFor
	d.active = false
	d.lastQuietFor = 0
	d.quietSince = time.Time{}
	d.loudSince = time.Time{}
	return st
}

// Reset returns the detector to the not-silent state.
func (d *SilenceDetector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.quietSince = time.Time{}
	d.loudSince = time.Time{}
	d.active = false
	d.lastQuietFor = 0
}
