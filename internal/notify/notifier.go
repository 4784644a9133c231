// Package notify delivers silence alerts over webhook, event log, Microsoft
// Graph e-mail and the Zabbix trapper protocol.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/oszuidwest/zwfm-audioctl/internal/audio"
	"github.com/oszuidwest/zwfm-audioctl/internal/config"
	"github.com/oszuidwest/zwfm-audioctl/internal/util"
)

// AppName is the application name used in notifications.
const AppName = "ZuidWest FM audioctl"

// Alert describes the device and levels a notification is about.
type Alert struct {
	Station     string
	DeviceID    string
	DeviceName  string
	LevelDB     float64
	ThresholdDB float64
	Duration    time.Duration // Silence length; set on recovery only
	At          time.Time     // When the transition was detected
}

// SilenceNotifier manages notifications for silence detection events.
type SilenceNotifier struct {
	ctx context.Context
	cfg *config.Config
	wg  sync.WaitGroup

	// mu protects the notification state fields below
	mu sync.Mutex

	// Track which notifications have been sent for current silence period
	webhookSent bool
	emailSent   bool
	logSent     bool
	zabbixSent  bool

	// Cached Graph client for email notifications
	graphClient *GraphClient
}

// NewSilenceNotifier returns a SilenceNotifier reading channel settings from
// cfg on every event. Deliveries are cancelled when ctx is done.
func NewSilenceNotifier(ctx context.Context, cfg *config.Config) *SilenceNotifier {
	return &SilenceNotifier{ctx: ctx, cfg: cfg}
}

// InvalidateGraphClient clears the cached Graph client.
// Call this when Graph configuration changes.
func (n *SilenceNotifier) InvalidateGraphClient() {
	n.mu.Lock()
	n.graphClient = nil
	n.mu.Unlock()
}

// HandleEvent triggers notifications on silence transitions of the reading's device.
func (n *SilenceNotifier) HandleEvent(st audio.SilenceState, r audio.Reading) {
	if !st.Entered && !st.Recovered {
		return
	}

	cfg := n.cfg.Snapshot()
	alert := Alert{
		Station:     cfg.StationName,
		DeviceID:    r.DeviceID,
		DeviceName:  r.DeviceName,
		LevelDB:     st.LevelDB,
		ThresholdDB: cfg.SilenceThreshold,
		Duration:    st.Total,
		At:          time.Now(),
	}

	if st.Entered {
		n.handleSilenceStart(&cfg, alert)
	}
	if st.Recovered {
		n.handleSilenceEnd(&cfg, alert)
	}
}

// handleSilenceStart triggers notifications when silence is first detected.
func (n *SilenceNotifier) handleSilenceStart(cfg *config.Snapshot, a Alert) {
	webhookURL, logPath := cfg.WebhookURL, cfg.LogPath
	graph, zabbix := cfg.Graph, cfg.Zabbix

	n.trySend(&n.webhookSent, cfg.HasWebhook(), "webhook", func() error {
		return SendSilenceWebhook(n.ctx, webhookURL, a)
	})
	n.trySend(&n.emailSent, cfg.HasGraph(), "email", func() error {
		subject, body := silenceEmail(a)
		return n.sendEmail(&graph, subject, body)
	})
	n.trySend(&n.logSent, cfg.HasLogPath(), "log", func() error {
		return LogSilenceStart(logPath, a)
	})
	n.trySend(&n.zabbixSent, cfg.HasZabbix(), "zabbix", func() error {
		return SendSilenceZabbix(n.ctx, zabbix, a)
	})
}

// trySend sends a notification if the condition is met and not already sent.
func (n *SilenceNotifier) trySend(sent *bool, condition bool, channel string, send func() error) {
	n.mu.Lock()
	shouldSend := !*sent && condition
	if shouldSend {
		*sent = true
	}
	n.mu.Unlock()
	if shouldSend {
		n.goSend(channel, "silence_start", send)
	}
}

// handleSilenceEnd triggers recovery notifications when silence ends.
func (n *SilenceNotifier) handleSilenceEnd(cfg *config.Snapshot, a Alert) {
	webhookURL, logPath := cfg.WebhookURL, cfg.LogPath
	graph, zabbix := cfg.Graph, cfg.Zabbix

	// Only send recovery notifications if we sent the corresponding start notification
	n.mu.Lock()
	webhook, email, logged, zbx := n.webhookSent, n.emailSent, n.logSent, n.zabbixSent
	n.webhookSent, n.emailSent, n.logSent, n.zabbixSent = false, false, false, false
	n.mu.Unlock()

	if webhook {
		n.goSend("webhook", "silence_end", func() error {
			return SendRecoveryWebhook(n.ctx, webhookURL, a)
		})
	}
	if email {
		n.goSend("email", "silence_end", func() error {
			subject, body := recoveryEmail(a)
			return n.sendEmail(&graph, subject, body)
		})
	}
	if logged {
		n.goSend("log", "silence_end", func() error {
			return LogSilenceEnd(logPath, a)
		})
	}
	if zbx {
		n.goSend("zabbix", "silence_end", func() error {
			return SendRecoveryZabbix(n.ctx, zabbix, a)
		})
	}
}

func (n *SilenceNotifier) goSend(channel, event string, send func() error) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		util.LogNotifyResult(send, channel, event)
	}()
}

// Wait blocks until every notification in flight has been delivered or has failed.
func (n *SilenceNotifier) Wait() {
	n.wg.Wait()
}

// getOrCreateGraphClient returns the cached Graph client, creating it if needed.
func (n *SilenceNotifier) getOrCreateGraphClient(cfg *GraphConfig) (*GraphClient, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.graphClient != nil {
		return n.graphClient, nil
	}

	client, err := NewGraphClient(cfg)
	if err != nil {
		return nil, err
	}
	n.graphClient = client
	return client, nil
}

// sendEmail handles the common email sending infrastructure.
func (n *SilenceNotifier) sendEmail(cfg *GraphConfig, subject, body string) error {
	if !IsConfigured(cfg) {
		return nil
	}

	client, err := n.getOrCreateGraphClient(cfg)
	if err != nil {
		return util.WrapError("create Graph client", err)
	}

	if err := client.SendMail(n.ctx, ParseRecipients(cfg.Recipients), subject, body); err != nil {
		return util.WrapError("send email via Graph", err)
	}

	return nil
}
