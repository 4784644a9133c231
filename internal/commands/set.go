package commands

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/oszuidwest/zwfm-audioctl/internal/audio"
	"github.com/oszuidwest/zwfm-audioctl/internal/types"
	"github.com/oszuidwest/zwfm-audioctl/internal/util"
)

// targetSetting holds the set flags of one target.
type targetSetting struct {
	target types.Target
	mute   bool
	toggle bool
	volume float64
}

func newSetCommand(a *app) *cobra.Command {
	var (
		id, name          string
		index             int
		inputObject       bool
		defaultOnly       bool
		communicationOnly bool
		settings          []*targetSetting
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set the default device, or the mute state or volume of a default device",
		Long: `Set the default device by ID, index, name or a device record read from
stdin, or change the mute state or volume of the default device of a target.

Without --default-only or --communication-only both the communications and
the multimedia role are assigned.`,
		Example: `  audioctl set --id "{0.0.0.00000000}.{...}"
  audioctl get --index 3 -o json | audioctl set --input-object --default-only
  audioctl set --playback-mute-toggle
  audioctl set --recording-volume 75`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := cmd.Flags()
			scope := types.RoleScopeAll
			switch {
			case defaultOnly:
				scope = types.RoleScopeDefault
			case communicationOnly:
				scope = types.RoleScopeCommunication
			}

			var sel audio.Selector
			bySelector := true
			switch {
			case f.Changed("id"):
				sel.ID = id
			case f.Changed("index"):
				if err := validateFlags(&indexFlags{Index: index}); err != nil {
					return err
				}
				sel.Index = index
			case f.Changed("name"):
				sel.Name = name
			default:
				bySelector = false
			}

			if !bySelector && !inputObject && scope != types.RoleScopeAll {
				return types.InvalidArgumentf("--default-only and --communication-only need a device selector")
			}

			var records []types.Device
			if inputObject {
				var err error
				if records, err = readDevices(a.Stdin); err != nil {
					return err
				}
			}

			svc, err := a.openService()
			if err != nil {
				return err
			}
			defer util.SafeCloseFunc(svc, "audio service")()

			switch {
			case bySelector:
				dev, err := svc.SetDefault(sel, scope)
				if err != nil {
					return err
				}
				slog.Info("default device set", "device", dev.Name, "id", dev.ID, "roles", scope)
				return a.printer().device(dev)
			case inputObject:
				for _, rec := range records {
					dev, err := svc.SetDefaultDevice(rec, scope)
					if err != nil {
						return err
					}
					slog.Info("default device set", "device", dev.Name, "id", dev.ID, "roles", scope)
					if err := a.printer().device(dev); err != nil {
						return err
					}
				}
				return nil
			}

			for _, s := range settings {
				switch {
				case f.Changed(targetFlag(s.target, "mute")):
					return a.setMute(svc, s.target, s.mute)
				case f.Changed(targetFlag(s.target, "mute-toggle")):
					if !s.toggle {
						return types.InvalidArgumentf("--%s takes no value other than true", targetFlag(s.target, "mute-toggle"))
					}
					muted, err := svc.ToggleMute(s.target)
					if err != nil {
						return err
					}
					slog.Info("mute toggled", "target", s.target, "mute", muted)
					return a.printer().mute(s.target, muted)
				case f.Changed(targetFlag(s.target, "volume")):
					return a.setVolume(svc, s.target, s.volume)
				}
			}
			return types.InvalidArgumentf("nothing to set")
		},
	}

	f := cmd.Flags()
	f.StringVar(&id, "id", "", "make the device with this ID the default")
	f.IntVar(&index, "index", 0, "make the device at this index (1-42) the default")
	f.StringVar(&name, "name", "", "make the device with this friendly name the default")
	f.BoolVar(&inputObject, "input-object", false, "read device records as JSON from stdin and make them the default")
	f.BoolVar(&defaultOnly, "default-only", false, "only assign the multimedia role")
	f.BoolVar(&communicationOnly, "communication-only", false, "only assign the communications role")
	group := []string{"id", "index", "name", "input-object"}

	for _, t := range types.Targets {
		s := &targetSetting{target: t}
		settings = append(settings, s)
		f.BoolVar(&s.mute, targetFlag(t, "mute"), false, "set the mute state of the default "+string(t)+" device")
		f.BoolVar(&s.toggle, targetFlag(t, "mute-toggle"), false, "toggle the mute state of the default "+string(t)+" device")
		f.Float64Var(&s.volume, targetFlag(t, "volume"), 0, "set the volume (0-100) of the default "+string(t)+" device")
		group = append(group, targetFlag(t, "mute"), targetFlag(t, "mute-toggle"), targetFlag(t, "volume"))
	}

	cmd.MarkFlagsOneRequired(group...)
	cmd.MarkFlagsMutuallyExclusive(group...)
	cmd.MarkFlagsMutuallyExclusive("default-only", "communication-only")
	return cmd
}

func (a *app) setMute(svc *audio.Service, target types.Target, mute bool) error {
	if err := svc.SetMute(target, mute); err != nil {
		return err
	}
	slog.Info("mute set", "target", target, "mute", mute)
	return a.printer().mute(target, mute)
}

func (a *app) setVolume(svc *audio.Service, target types.Target, pct float64) error {
	if err := validateFlags(&volumeFlags{Volume: pct}); err != nil {
		return err
	}
	if err := svc.SetVolume(target, pct); err != nil {
		return err
	}
	// Print what the device reports after rounding.
	got, err := svc.Volume(target)
	if err != nil {
		return err
	}
	slog.Info("volume set", "target", target, "volume", got)
	return a.printer().volume(target, got)
}

// readDevices decodes one device record or a list of them, as printed by
// get and list with -o json.
func readDevices(r io.Reader) ([]types.Device, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, util.WrapError("read input object", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, types.InvalidArgumentf("no device record on stdin")
	}

	var records []types.Device
	if data[0] == '[' {
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, types.InvalidArgumentf("invalid device list: %v", err)
		}
	} else {
		var rec types.Device
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, types.InvalidArgumentf("invalid device record: %v", err)
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, types.InvalidArgumentf("no device record on stdin")
	}
	return records, nil
}
