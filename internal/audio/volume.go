package audio

import (
	"math"
	"strconv"

	"github.com/oszuidwest/zwfm-audioctl/internal/types"
)

// Volume returns the master volume of the target's default device as a
// percentage in [0,100], rounded to two decimals.
func (s *Service) Volume(target types.Target) (float64, error) {
	id, err := s.defaultID(target)
	if err != nil {
		return 0, err
	}
	level, err := s.backend.Volume(id)
	if err != nil {
		return 0, platformErr("get master volume", err)
	}
	return math.Round(float64(level)*100*100) / 100, nil
}

// SetVolume sets the master volume of the target's default device.
// pct outside [0,100] is rejected.
func (s *Service) SetVolume(target types.Target, pct float64) error {
	if math.IsNaN(pct) || pct < 0 || pct > 100 {
		return types.InvalidArgumentf("volume %v is out of range 0..100", pct)
	}
	id, err := s.defaultID(target)
	if err != nil {
		return err
	}
	if err := s.backend.SetVolume(id, float32(pct/100)); err != nil {
		return platformErr("set master volume", err)
	}
	return nil
}

// Mute reports whether the target's default device is muted.
func (s *Service) Mute(target types.Target) (bool, error) {
	id, err := s.defaultID(target)
	if err != nil {
		return false, err
	}
	muted, err := s.backend.Mute(id)
	if err != nil {
		return false, platformErr("get mute", err)
	}
	return muted, nil
}

// SetMute sets the mute state of the target's default device.
func (s *Service) SetMute(target types.Target, mute bool) error {
	id, err := s.defaultID(target)
	if err != nil {
		return err
	}
	if err := s.backend.SetMute(id, mute); err != nil {
		return platformErr("set mute", err)
	}
	return nil
}

// ToggleMute inverts the mute state of the target's default device once and
// returns the new state.
func (s *Service) ToggleMute(target types.Target) (bool, error) {
	id, err := s.defaultID(target)
	if err != nil {
		return false, err
	}
	muted, err := s.backend.Mute(id)
	if err != nil {
		return false, platformErr("get mute", err)
	}
	if err := s.backend.SetMute(id, !muted); err != nil {
		return false, platformErr("set mute", err)
	}
	return !muted, nil
}

// FormatVolume renders a percentage the way get prints it, e.g. "42.5%".
func FormatVolume(pct float64) string {
	return strconv.FormatFloat(pct, 'f', -1, 64) + "%"
}
