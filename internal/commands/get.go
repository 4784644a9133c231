package commands

import (
	"github.com/spf13/cobra"

	"github.com/oszuidwest/zwfm-audioctl/internal/audio"
	"github.com/oszuidwest/zwfm-audioctl/internal/types"
	"github.com/oszuidwest/zwfm-audioctl/internal/util"
)

// targetQuery is what get reads for a target.
type targetQuery int

const (
	queryDevice targetQuery = iota
	queryMute
	queryVolume
)

var querySuffixes = map[targetQuery]string{
	queryDevice: "",
	queryMute:   "mute",
	queryVolume: "volume",
}

func newGetCommand(a *app) *cobra.Command {
	var (
		id, name string
		index    int
	)
	type query struct {
		target types.Target
		kind   targetQuery
		set    bool
	}
	var queries []*query

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show a device, a default device, its mute state or its volume",
		Example: `  audioctl get --index 2
  audioctl get --playback
  audioctl get --recording-communication-volume`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var sel audio.Selector
			bySelector := true
			switch {
			case cmd.Flags().Changed("id"):
				sel.ID = id
			case cmd.Flags().Changed("index"):
				if err := validateFlags(&indexFlags{Index: index}); err != nil {
					return err
				}
				sel.Index = index
			case cmd.Flags().Changed("name"):
				sel.Name = name
			default:
				bySelector = false
			}

			svc, err := a.openService()
			if err != nil {
				return err
			}
			defer util.SafeCloseFunc(svc, "audio service")()

			if bySelector {
				dev, err := svc.Find(sel)
				if err != nil {
					return err
				}
				return a.printer().device(dev)
			}

			for _, q := range queries {
				if q.set {
					return a.query(svc, q.target, q.kind)
				}
			}
			return types.InvalidArgumentf("no device or target selected")
		},
	}

	f := cmd.Flags()
	f.StringVar(&id, "id", "", "show the device with this ID")
	f.IntVar(&index, "index", 0, "show the device at this index (1-42)")
	f.StringVar(&name, "name", "", "show the device with this friendly name")
	group := []string{"id", "index", "name"}

	for _, t := range types.Targets {
		for _, kind := range []targetQuery{queryDevice, queryMute, queryVolume} {
			q := &query{target: t, kind: kind}
			queries = append(queries, q)
			flagName := targetFlag(t, querySuffixes[kind])
			f.BoolVar(&q.set, flagName, false, getUsage(t, kind))
			group = append(group, flagName)
		}
	}

	cmd.MarkFlagsOneRequired(group...)
	cmd.MarkFlagsMutuallyExclusive(group...)
	return cmd
}

// query prints the default device, mute state or volume of a target.
func (a *app) query(svc *audio.Service, target types.Target, kind targetQuery) error {
	switch kind {
	case queryMute:
		muted, err := svc.Mute(target)
		if err != nil {
			return err
		}
		return a.printer().mute(target, muted)
	case queryVolume:
		pct, err := svc.Volume(target)
		if err != nil {
			return err
		}
		return a.printer().volume(target, pct)
	default:
		dev, err := svc.Default(target)
		if err != nil {
			return err
		}
		return a.printer().device(dev)
	}
}

func getUsage(t types.Target, kind targetQuery) string {
	switch kind {
	case queryMute:
		return "show the mute state of the default " + string(t) + " device"
	case queryVolume:
		return "show the volume of the default " + string(t) + " device"
	default:
		return "show the default " + string(t) + " device"
	}
}
