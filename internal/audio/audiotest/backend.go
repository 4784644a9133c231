// Package audiotest provides an in-memory audio endpoint backend for tests.
package audiotest

import (
	"slices"
	"sync"

	"github.com/oszuidwest/zwfm-audioctl/internal/types"
)

// Call records one mutating backend call.
type Call struct {
	Op    string // "SetDefault", "SetVolume" or "SetMute"
	ID    string
	Role  types.Role
	Value any
}

type roleKey struct {
	flow types.Flow
	role types.Role
}

// Backend is an in-memory endpoint service. The zero value is not usable;
// use New.
type Backend struct {
	mu        sync.Mutex
	endpoints []types.Endpoint
	defaults  map[roleKey]string
	volume    map[string]float32
	mute      map[string]bool
	peaks     map[string][]float32
	failures  map[string]error
	calls     []Call
	lookups   int
	closed    bool
}

// New returns a backend holding the endpoints in platform order.
// Every endpoint starts at 50% volume, unmuted, with a zero peak.
func New(endpoints ...types.Endpoint) *Backend {
	b := &Backend{
		endpoints: slices.Clone(endpoints),
		defaults:  make(map[roleKey]string),
		volume:    make(map[string]float32),
		mute:      make(map[string]bool),
		peaks:     make(map[string][]float32),
		failures:  make(map[string]error),
	}
	for _, ep := range endpoints {
		b.volume[ep.ID] = 0.5
	}
	return b
}

// Playback returns an active render endpoint.
func Playback(id, name string) types.Endpoint {
	return types.Endpoint{ID: id, Name: name, Flow: types.FlowRender, State: types.StateActive}
}

// Recording returns an active capture endpoint.
func Recording(id, name string) types.Endpoint {
	return types.Endpoint{ID: id, Name: name, Flow: types.FlowCapture, State: types.StateActive}
}

// WithDefault makes id the default endpoint of its flow for the given roles.
func (b *Backend) WithDefault(id string, roles ...types.Role) *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	ep, ok := b.find(id)
	if !ok {
		panic("audiotest: unknown endpoint " + id)
	}
	for _, role := range roles {
		b.defaults[roleKey{ep.Flow, role}] = ep.ID
	}
	return b
}

// SetPeaks queues peak values for an endpoint. Each Peak call consumes one
// value; the last value repeats once the queue is drained.
func (b *Backend) SetPeaks(id string, peaks ...float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.peaks[id] = slices.Clone(peaks)
}

// SetState changes the state of an endpoint, e.g. to simulate unplugging it.
func (b *Backend) SetState(id string, state types.State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.endpoints {
		if b.endpoints[i].ID == id {
			b.endpoints[i].State = state
			return
		}
	}
	panic("audiotest: unknown endpoint " + id)
}

// FailOn makes every call of the named method return err. A nil err clears it.
func (b *Backend) FailOn(op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.failures, op)
		return
	}
	b.failures[op] = err
}

// Calls returns the mutating calls made so far.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.calls)
}

// Lookups returns how many times Endpoint was called.
func (b *Backend) Lookups() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lookups
}

// Closed reports whether Close was called.
func (b *Backend) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Endpoints returns the endpoints of flow whose state matches the mask.
func (b *Backend) Endpoints(flow types.Flow, state types.State) ([]types.Endpoint, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.failures["Endpoints"]; err != nil {
		return nil, err
	}
	var out []types.Endpoint
	for _, ep := range b.endpoints {
		if ep.State&state == 0 {
			continue
		}
		if flow != types.FlowAll && ep.Flow != flow {
			continue
		}
		out = append(out, ep)
	}
	return out, nil
}

// Endpoint returns the endpoint with the given ID.
func (b *Backend) Endpoint(id string) (types.Endpoint, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lookups++
	if err := b.failures["Endpoint"]; err != nil {
		return types.Endpoint{}, err
	}
	ep, ok := b.find(id)
	if !ok {
		return types.Endpoint{}, types.NotFoundf("endpoint %s not found", id)
	}
	return ep, nil
}

// DefaultID returns the default endpoint for flow and role.
func (b *Backend) DefaultID(flow types.Flow, role types.Role) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.failures["DefaultID"]; err != nil {
		return "", err
	}
	id, ok := b.defaults[roleKey{flow, role}]
	if !ok {
		return "", types.NotFoundf("no default %s %s endpoint", flow, role)
	}
	return id, nil
}

// SetDefault makes an active endpoint the default of its flow for role.
func (b *Backend) SetDefault(id string, role types.Role) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.failures["SetDefault"]; err != nil {
		return err
	}
	ep, ok := b.find(id)
	if !ok || ep.State != types.StateActive {
		return types.NotFoundf("endpoint %s not found", id)
	}
	b.defaults[roleKey{ep.Flow, role}] = ep.ID
	b.calls = append(b.calls, Call{Op: "SetDefault", ID: ep.ID, Role: role})
	return nil
}

// Volume returns the master volume scalar.
func (b *Backend) Volume(id string) (float32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.check("Volume", id); err != nil {
		return 0, err
	}
	return b.volume[id], nil
}

// SetVolume sets the master volume scalar.
func (b *Backend) SetVolume(id string, level float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.check("SetVolume", id); err != nil {
		return err
	}
	b.volume[id] = level
	b.calls = append(b.calls, Call{Op: "SetVolume", ID: id, Value: level})
	return nil
}

// Mute returns the mute state.
func (b *Backend) Mute(id string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.check("Mute", id); err != nil {
		return false, err
	}
	return b.mute[id], nil
}

// SetMute sets the mute state.
func (b *Backend) SetMute(id string, mute bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.check("SetMute", id); err != nil {
		return err
	}
	b.mute[id] = mute
	b.calls = append(b.calls, Call{Op: "SetMute", ID: id, Value: mute})
	return nil
}

// Peak returns the next queued peak value.
func (b *Backend) Peak(id string) (float32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.check("Peak", id); err != nil {
		return 0, err
	}
	q := b.peaks[id]
	switch len(q) {
	case 0:
		return 0, nil
	case 1:
		return q[0], nil
	default:
		b.peaks[id] = q[1:]
		return q[0], nil
	}
}

// Close marks the backend closed.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *Backend) check(op, id string) error {
	if err := b.failures[op]; err != nil {
		return err
	}
	if _, ok := b.find(id); !ok {
		return types.NotFoundf("endpoint %s not found", id)
	}
	return nil
}

func (b *Backend) find(id string) (types.Endpoint, bool) {
	for _, ep := range b.endpoints {
		if ep.ID == id {
			return ep, true
		}
	}
	return types.Endpoint{}, false
}
