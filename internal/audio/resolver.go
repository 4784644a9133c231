package audio

import (
	"errors"
	"strconv"
	"strings"

	"github.com/oszuidwest/zwfm-audioctl/internal/types"
)

// Selector identifies a device by exactly one of index, ID or name.
type Selector struct {
	Index int    // 1-based index in the enabled-device enumeration
	ID    string // Stable endpoint ID, compared case-insensitively
	Name  string // Friendly name, compared case-insensitively
}

// validate checks that exactly one selector field is set.
func (sel Selector) validate() error {
	n := 0
	if sel.Index != 0 {
		n++
	}
	if sel.ID != "" {
		n++
	}
	if sel.Name != "" {
		n++
	}
	if n != 1 {
		return types.InvalidArgumentf("exactly one of index, ID or name must be given")
	}
	return nil
}

// String describes the selector for log messages.
func (sel Selector) String() string {
	switch {
	case sel.ID != "":
		return "id " + sel.ID
	case sel.Name != "":
		return "name " + sel.Name
	default:
		return "index " + strconv.Itoa(sel.Index)
	}
}

// List returns the enabled devices of both flows, numbered from 1 in platform
// order. With showDisabled, disabled and unplugged devices follow with
// indices continuing after the enabled ones.
func (s *Service) List(showDisabled bool) ([]types.Device, error) {
	d, err := s.loadDefaults()
	if err != nil {
		return nil, err
	}

	active, err := s.backend.Endpoints(types.FlowAll, types.StateActive)
	if err != nil {
		return nil, platformErr("enumerate audio endpoints", err)
	}

	devices := make([]types.Device, 0, len(active))
	for i, ep := range active {
		devices = append(devices, d.record(i+1, ep))
	}

	if !showDisabled {
		return devices, nil
	}

	inactive, err := s.backend.Endpoints(types.FlowAll, types.StateInactive)
	if err != nil {
		return nil, platformErr("enumerate inactive audio endpoints", err)
	}
	for i, ep := range inactive {
		devices = append(devices, d.record(len(active)+i+1, ep))
	}
	return devices, nil
}

// Find resolves a selector against the current enabled-device enumeration.
// The first match wins; no match yields an error of kind ErrNotFound.
func (s *Service) Find(sel Selector) (types.Device, error) {
	if err := sel.validate(); err != nil {
		return types.Device{}, err
	}

	devices, err := s.List(false)
	if err != nil {
		return types.Device{}, err
	}

	switch {
	case sel.ID != "":
		if dev, ok := findFold(devices, sel.ID, func(d types.Device) string { return d.ID }); ok {
			return dev, nil
		}
		return types.Device{}, types.NotFoundf("no enabled audio device with ID %q", sel.ID)
	case sel.Name != "":
		if dev, ok := findFold(devices, sel.Name, func(d types.Device) string { return d.Name }); ok {
			return dev, nil
		}
		return types.Device{}, types.NotFoundf("no enabled audio device named %q", sel.Name)
	default:
		if sel.Index < 1 || sel.Index > len(devices) {
			return types.Device{}, types.NotFoundf("no enabled audio device with index %d", sel.Index)
		}
		return devices[sel.Index-1], nil
	}
}

// Default returns the record of the default device for a target.
func (s *Service) Default(target types.Target) (types.Device, error) {
	id, err := s.defaultID(target)
	if err != nil {
		return types.Device{}, err
	}
	dev, err := s.Find(Selector{ID: id})
	if errors.Is(err, ErrNotFound) {
		return types.Device{}, types.NotFoundf("default %s device %q is not enabled", target, id)
	}
	if err != nil {
		return types.Device{}, err
	}
	return dev, nil
}

// defaultID returns the ID of the default endpoint addressed by target.
func (s *Service) defaultID(target types.Target) (string, error) {
	if !target.Valid() {
		return "", types.InvalidArgumentf("unknown target %q", target)
	}
	id, err := s.backend.DefaultID(target.Flow(), target.Role())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", types.NotFoundf("no default %s device", target)
		}
		return "", platformErr("get default endpoint", err)
	}
	return id, nil
}

// findFold returns the first device whose key equals want, ignoring case.
func findFold(devices []types.Device, want string, key func(types.Device) string) (types.Device, bool) {
	for _, d := range devices {
		if strings.EqualFold(key(d), want) {
			return d, true
		}
	}
	return types.Device{}, false
}
