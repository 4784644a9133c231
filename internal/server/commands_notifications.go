package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/oszuidwest/zwfm-audioctl/internal/notify"
	"github.com/oszuidwest/zwfm-audioctl/internal/types"
)

// notificationTestTimeout bounds a single notification test, including Graph retries.
const notificationTestTimeout = 60 * time.Second

// handleNotifications routes notifications/*/* commands
func (h *CommandHandler) handleNotifications(action, subaction string, cmd WSCommand, send chan<- any) {
	if subaction != "test" {
		slog.Warn("unknown notifications action", "action", action, "subaction", subaction)
		return
	}

	switch action {
	case "webhook", "log", "email", "zabbix":
		HandleActionAsync(cmd, send, func() (any, error) {
			ctx, cancel := context.WithTimeout(context.Background(), notificationTestTimeout)
			defer cancel()
			return nil, h.TestNotification(ctx, action)
		})
	default:
		slog.Warn("unknown notifications action", "action", action)
	}
}

// TestNotification sends a test message over one notification channel using
// the saved configuration.
func (h *CommandHandler) TestNotification(ctx context.Context, channel string) error {
	cfg := h.cfg.Snapshot()

	var err error
	switch channel {
	case "webhook":
		err = notify.SendTestWebhook(ctx, cfg.WebhookURL, cfg.StationName)
	case "log":
		err = notify.WriteTestLog(cfg.LogPath)
	case "email":
		err = notify.SendTestEmail(ctx, &cfg.Graph, cfg.StationName)
	case "zabbix":
		err = notify.SendTestZabbix(ctx, cfg.Zabbix)
	default:
		return types.NotFoundf("unknown notification channel %q", channel)
	}
	h.metrics.CountCommand("test-"+channel, err)

	if err != nil {
		slog.Error("notification test failed", "channel", channel, "error", err)
		return err
	}
	slog.Info("notification test succeeded", "channel", channel)
	return nil
}
