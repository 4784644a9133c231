package audio

import (
	"sync"
	"time"
)

// DefaultPeakHold is how long a peak stays on the meter before it may fall.
const DefaultPeakHold = 1500 * time.Millisecond

// PeakHolder keeps the highest recent dBFS reading of a meter.
// It is safe for concurrent use.
type PeakHolder struct {
	mu     sync.Mutex
	held   float64
	heldAt time.Time
	hold   time.Duration
}

// NewPeakHolder returns a holder starting at the meter floor.
func NewPeakHolder(hold time.Duration) *PeakHolder {
	if hold <= 0 {
		hold = DefaultPeakHold
	}
	return &PeakHolder{held: MinDB, hold: hold}
}

// Update feeds one reading and returns the held value.
// A reading replaces the held value when it is at least as loud, or when
// the held value has expired.
func (p *PeakHolder) Update(db float64, now time.Time) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if db >= p.held || now.Sub(p.heldAt) > p.hold {
		p.held = db
		p.heldAt = now
	}
	return p.held
}

// SetHold changes the hold duration.
func (p *PeakHolder) SetHold(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if d > 0 {
		p.hold = d
	}
}

// Reset drops the held value, e.g. after the metered device changes.
func (p *PeakHolder) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.held = MinDB
	p.heldAt = time.Time{}
}
