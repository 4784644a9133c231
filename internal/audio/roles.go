package audio

import (
	"errors"
	"log/slog"

	"github.com/oszuidwest/zwfm-audioctl/internal/types"
)

// SetDefault resolves sel and makes the device the default for the roles in
// scope. Roles are written in scope order and the first failure stops the
// write. The returned record is re-read after the write.
func (s *Service) SetDefault(sel Selector, scope types.RoleScope) (types.Device, error) {
	dev, err := s.Find(sel)
	if err != nil {
		return types.Device{}, err
	}
	return s.assign(dev, scope)
}

// SetDefaultDevice makes a previously printed device record the default.
// The record is matched by ID among the currently enabled devices.
func (s *Service) SetDefaultDevice(rec types.Device, scope types.RoleScope) (types.Device, error) {
	if rec.ID == "" {
		return types.Device{}, types.InvalidArgumentf("device record has no ID")
	}
	dev, err := s.Find(Selector{ID: rec.ID})
	if errors.Is(err, ErrNotFound) {
		return types.Device{}, types.NotFoundf("no such enabled audio device found: %s", rec.ID)
	}
	if err != nil {
		return types.Device{}, err
	}
	return s.assign(dev, scope)
}

func (s *Service) assign(dev types.Device, scope types.RoleScope) (types.Device, error) {
	switch scope {
	case "", types.RoleScopeAll, types.RoleScopeDefault, types.RoleScopeCommunication:
	default:
		return types.Device{}, types.InvalidArgumentf("unknown role scope %q", scope)
	}

	for _, role := range scope.Roles() {
		if err := s.backend.SetDefault(dev.ID, role); err != nil {
			return types.Device{}, platformErr("set default "+role.String()+" endpoint", err)
		}
		slog.Debug("default endpoint set", "id", dev.ID, "name", dev.Name, "role", role)
	}

	return s.Find(Selector{ID: dev.ID})
}
