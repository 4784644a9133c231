package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/oszuidwest/zwfm-audioctl/internal/types"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(body)
}

func TestMetricsExposition(t *testing.T) {
	m := New()
	m.ObservePeak(types.TargetPlayback, -12.5)
	m.ObserveVolume(types.TargetRecording, 80)
	m.ObserveMute(types.TargetPlayback, true)
	m.ObserveSilence(true)
	m.ObserveDevices([]types.Device{
		{Type: types.DeviceTypePlayback, State: types.StateActive},
		{Type: types.DeviceTypePlayback, State: types.StateActive},
		{Type: types.DeviceTypeRecording, State: types.StateDisabled},
	})
	m.CountCommand("volume/set", nil)
	m.CountCommand("volume/set", errors.New("boom"))

	body := scrape(t, m)
	for _, want := range []string{
		`audioctl_peak_dbfs{target="playback"} -12.5`,
		`audioctl_volume_percent{target="recording"} 80`,
		`audioctl_muted{target="playback"} 1`,
		`audioctl_silence 1`,
		`audioctl_devices{type="Playback"} 2`,
		`audioctl_devices{type="Recording"} 0`,
		`audioctl_commands_total{command="volume/set",result="ok"} 1`,
		`audioctl_commands_total{command="volume/set",result="error"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %q in exposition", want)
		}
	}
}
