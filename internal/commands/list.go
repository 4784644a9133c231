package commands

import (
	"github.com/spf13/cobra"

	"github.com/oszuidwest/zwfm-audioctl/internal/types"
	"github.com/oszuidwest/zwfm-audioctl/internal/util"
)

func newListCommand(a *app) *cobra.Command {
	var (
		showDisabled bool
		flags        listFlags
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List audio devices",
		Long: `List the enabled playback and recording devices. Indexes are 1-based and
only valid until devices are plugged or unplugged; use the ID for repeatable
addressing.`,
		Args: noArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := validateFlags(&flags); err != nil {
				return err
			}
			svc, err := a.openService()
			if err != nil {
				return err
			}
			defer util.SafeCloseFunc(svc, "audio service")()

			devices, err := svc.List(showDisabled)
			if err != nil {
				return err
			}
			return a.printer().devices(filterType(devices, flags.Type))
		},
	}
	cmd.Flags().BoolVar(&showDisabled, "show-disabled", false, "also list disabled and unplugged devices")
	cmd.Flags().StringVar(&flags.Type, "type", "", "only list playback or recording devices")
	return cmd
}

// filterType keeps the devices of one type. Indexes are left as enumerated so
// they still address the same devices.
func filterType(devices []types.Device, deviceType string) []types.Device {
	if deviceType == "" {
		return devices
	}
	want := types.DeviceTypePlayback
	if deviceType == "recording" {
		want = types.DeviceTypeRecording
	}
	out := make([]types.Device, 0, len(devices))
	for _, d := range devices {
		if d.Type == want {
			out = append(out, d)
		}
	}
	return out
}
