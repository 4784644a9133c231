// Package audio implements device resolution, default-role assignment, volume
// and mute control, and peak metering on top of a platform endpoint backend.
package audio

import (
	"errors"
	"fmt"

	"github.com/oszuidwest/zwfm-audioctl/internal/types"
)

// Backend is the platform audio endpoint service.
//
// Implementations return errors matching types.ErrNotFound when an endpoint
// or a default role does not exist; every other error is treated as a
// platform failure.
type Backend interface {
	// Endpoints enumerates endpoints of the given flow whose state matches the mask,
	// in platform order.
	Endpoints(flow types.Flow, state types.State) ([]types.Endpoint, error)
	// Endpoint looks up a single endpoint by ID.
	Endpoint(id string) (types.Endpoint, error)
	// DefaultID returns the ID of the default endpoint for a flow and role.
	DefaultID(flow types.Flow, role types.Role) (string, error)
	// SetDefault makes the endpoint the default for the role.
	SetDefault(id string, role types.Role) error
	// Volume returns the master volume scalar in [0,1].
	Volume(id string) (float32, error)
	// SetVolume sets the master volume scalar in [0,1].
	SetVolume(id string, level float32) error
	// Mute returns the mute state.
	Mute(id string) (bool, error)
	// SetMute sets the mute state.
	SetMute(id string, mute bool) error
	// Peak returns the current peak sample in [0,1].
	Peak(id string) (float32, error)
	// Close releases the platform handle.
	Close() error
}

// Re-exported error kinds.
var (
	ErrNotFound        = types.ErrNotFound
	ErrInvalidArgument = types.ErrInvalidArgument
	ErrUnsupported     = types.ErrUnsupported
)

// PlatformError wraps a failure reported by the platform audio service.
type PlatformError struct {
	Op  string // Operation that failed, e.g. "set default endpoint"
	Err error  // Underlying platform error
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying platform error.
func (e *PlatformError) Unwrap() error { return e.Err }

// platformErr classifies a backend error. Not-found errors pass through unchanged.
func platformErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnsupported) {
		return err
	}
	return &PlatformError{Op: op, Err: err}
}

// Service performs device operations against a backend.
// Each call reads fresh state from the platform; nothing is cached.
type Service struct {
	backend Backend
}

// NewService returns a Service backed by b.
func NewService(b Backend) *Service {
	return &Service{backend: b}
}

// Close releases the backend.
func (s *Service) Close() error {
	return s.backend.Close()
}

// defaults holds the default-role assignment of both flows.
type defaults struct {
	multimedia     map[string]bool
	communications map[string]bool
}

// loadDefaults reads the default endpoints for both flows and both roles.
// A flow without a default endpoint is not an error.
func (s *Service) loadDefaults() (defaults, error) {
	d := defaults{
		multimedia:     make(map[string]bool, 2),
		communications: make(map[string]bool, 2),
	}
	for _, flow := range []types.Flow{types.FlowRender, types.FlowCapture} {
		for _, role := range []types.Role{types.RoleMultimedia, types.RoleCommunications} {
			id, err := s.backend.DefaultID(flow, role)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return d, platformErr("get default endpoint", err)
			}
			if role == types.RoleMultimedia {
				d.multimedia[id] = true
			} else {
				d.communications[id] = true
			}
		}
	}
	return d, nil
}

// record builds the device record for an endpoint at the given 1-based index.
func (d defaults) record(index int, ep types.Endpoint) types.Device {
	return types.Device{
		Index:                index,
		Default:              d.multimedia[ep.ID],
		DefaultCommunication: d.communications[ep.ID],
		Type:                 ep.Flow.DeviceType(),
		Name:                 ep.Name,
		ID:                   ep.ID,
		State:                ep.State,
	}
}
