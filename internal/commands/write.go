package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/spf13/cobra"

	"github.com/oszuidwest/zwfm-audioctl/internal/audio"
	"github.com/oszuidwest/zwfm-audioctl/internal/types"
	"github.com/oszuidwest/zwfm-audioctl/internal/util"
)

const meterWidth = 40

func newWriteCommand(a *app) *cobra.Command {
	var (
		playbackMeter, playbackStream   bool
		recordingMeter, recordingStream bool
		communication                   bool
		interval                        time.Duration
	)

	cmd := &cobra.Command{
		Use:   "write",
		Short: "Show or stream the peak level of a default device until interrupted",
		Long: `Poll the peak value of the default playback or recording device and show it
as a meter bar or print one percentage per line. The default device is looked
up again on every sample. Stop with Ctrl-C.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !playbackMeter && !playbackStream && !recordingMeter && !recordingStream {
				return types.InvalidArgumentf("no meter or stream mode selected")
			}
			if interval <= 0 {
				return types.InvalidArgumentf("--interval must be positive")
			}

			target := types.TargetPlayback
			if recordingMeter || recordingStream {
				target = types.TargetRecording
			}
			if communication {
				target = types.Target(string(target) + "-communication")
			}
			stream := playbackStream || recordingStream

			svc, err := a.openService()
			if err != nil {
				return err
			}
			defer util.SafeCloseFunc(svc, "audio service")()

			ctx, stop := signal.NotifyContext(cmd.Context(), util.ShutdownSignals()...)
			defer stop()

			emit := a.meterLine()
			if stream {
				emit = a.streamLine()
			}
			r := &audio.Reporter{
				Service:  svc,
				Target:   target,
				Interval: interval,
				Emit:     emit,
			}
			err = r.Run(ctx)
			if !stream && a.output == outputText {
				fmt.Fprintln(a.Stdout)
			}
			return err
		},
	}

	f := cmd.Flags()
	f.BoolVar(&playbackMeter, "playback-meter", false, "show a meter for the default playback device")
	f.BoolVar(&playbackStream, "playback-stream", false, "print the peak of the default playback device")
	f.BoolVar(&recordingMeter, "recording-meter", false, "show a meter for the default recording device")
	f.BoolVar(&recordingStream, "recording-stream", false, "print the peak of the default recording device")
	f.BoolVar(&communication, "communication", false, "use the default communications device")
	f.DurationVar(&interval, "interval", types.MeterInterval, "sample interval")

	modes := []string{"playback-meter", "playback-stream", "recording-meter", "recording-stream"}
	cmd.MarkFlagsOneRequired(modes...)
	cmd.MarkFlagsMutuallyExclusive(modes...)
	return cmd
}

// streamLine prints one percentage per sample.
func (a *app) streamLine() func(audio.Reading) error {
	return func(r audio.Reading) error {
		if a.output == outputJSON {
			return json.NewEncoder(a.Stdout).Encode(r.Percent())
		}
		_, err := fmt.Fprintln(a.Stdout, r.Percent())
		return err
	}
}

// meterLine redraws a single progress line per sample, or prints one JSON
// level document per line.
func (a *app) meterLine() func(audio.Reading) error {
	bar := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(meterWidth),
		progress.WithoutPercentage(),
	)
	holder := audio.NewPeakHolder(audio.DefaultPeakHold)
	var device string
	return func(r audio.Reading) error {
		if a.output == outputJSON {
			if r.DeviceID != device {
				holder.Reset()
				device = r.DeviceID
			}
			return json.NewEncoder(a.Stdout).Encode(types.MeterLevel{
				Target:     r.Target,
				DeviceID:   r.DeviceID,
				DeviceName: r.DeviceName,
				Peak:       r.Peak,
				Percent:    r.Percent(),
				PeakDB:     r.DB(),
				HeldDB:     holder.Update(r.DB(), time.Now()),
			})
		}
		return writeMeter(a.Stdout, bar, r)
	}
}

func writeMeter(w io.Writer, bar progress.Model, r audio.Reading) error {
	_, err := fmt.Fprintf(w, "\r%s  Peak Value %s %3d%%", r.DeviceName, bar.ViewAs(r.Peak), r.Percent())
	return err
}
