// Package metrics exposes the monitor daemon's device state to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oszuidwest/zwfm-audioctl/internal/types"
)

// Metrics holds the daemon's collectors on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	peak     *prometheus.GaugeVec
	volume   *prometheus.GaugeVec
	mute     *prometheus.GaugeVec
	devices  *prometheus.GaugeVec
	silence  prometheus.Gauge
	commands *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(collectors.NewGoCollector())

	return &Metrics{
		reg: reg,

		peak: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "audioctl_peak_dbfs",
			Help: "Latest peak level of the default device in dBFS",
		}, []string{"target"}),
		volume: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "audioctl_volume_percent",
			Help: "Master volume of the default device",
		}, []string{"target"}),
		mute: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "audioctl_muted",
			Help: "1 if the default device is muted",
		}, []string{"target"}),
		devices: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "audioctl_devices",
			Help: "Number of enabled devices by type",
		}, []string{"type"}),
		silence: f.NewGauge(prometheus.GaugeOpts{
			Name: "audioctl_silence",
			Help: "1 while silence is confirmed on the monitored playback device",
		}),
		commands: f.NewCounterVec(prometheus.CounterOpts{
			Name: "audioctl_commands_total",
			Help: "Device commands handled, by command and result",
		}, []string{"command", "result"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(m.reg, promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}))
}

// ObservePeak records the peak level of a target.
func (m *Metrics) ObservePeak(target types.Target, db float64) {
	m.peak.WithLabelValues(string(target)).Set(db)
}

// ObserveVolume records the volume of a target.
func (m *Metrics) ObserveVolume(target types.Target, pct float64) {
	m.volume.WithLabelValues(string(target)).Set(pct)
}

// ObserveMute records the mute state of a target.
func (m *Metrics) ObserveMute(target types.Target, muted bool) {
	m.mute.WithLabelValues(string(target)).Set(boolGauge(muted))
}

// ObserveDevices records the number of enabled devices per type.
func (m *Metrics) ObserveDevices(devices []types.Device) {
	counts := map[types.DeviceType]int{
		types.DeviceTypePlayback:  0,
		types.DeviceTypeRecording: 0,
	}
	for _, d := range devices {
		if d.State == types.StateActive {
			counts[d.Type]++
		}
	}
	for t, n := range counts {
		m.devices.WithLabelValues(string(t)).Set(float64(n))
	}
}

// ObserveSilence records whether silence is confirmed.
func (m *Metrics) ObserveSilence(inSilence bool) {
	m.silence.Set(boolGauge(inSilence))
}

// CountCommand counts a handled command. A nil err counts as "ok".
func (m *Metrics) CountCommand(command string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.commands.WithLabelValues(command, result).Inc()
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
