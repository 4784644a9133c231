package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/oszuidwest/zwfm-audioctl/internal/types"
	"github.com/oszuidwest/zwfm-audioctl/internal/util"
)

// SendTestEmail validates the Graph settings and sends a test email.
func SendTestEmail(ctx context.Context, cfg *GraphConfig, stationName string) error {
	if err := ValidateConfig(cfg); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	client, err := NewGraphClient(cfg)
	if err != nil {
		return util.WrapError("create Graph client", err)
	}

	if err := client.ValidateAuth(ctx); err != nil {
		return err
	}

	subject := "[TEST] " + stationName
	body := fmt.Sprintf(
		"Test email from %s.\n\n"+
			"Time: %s\n\n"+
			"Microsoft Graph configuration is working correctly.",
		AppName, util.HumanTime(time.Now()),
	)

	if err := client.SendMail(ctx, ParseRecipients(cfg.Recipients), subject, body); err != nil {
		return util.WrapError("send email", err)
	}

	return nil
}

// silenceEmail renders the alert sent when silence is confirmed.
func silenceEmail(a Alert) (subject, body string) {
	subject = "[ALERT] Silence Detected - " + a.Station
	body = fmt.Sprintf(
		"Silence detected on %s.\n\n"+
			"Device:    %s\n"+
			"Level:     %.1f dB\n"+
			"Threshold: %.1f dB\n"+
			"Time:      %s\n\n"+
			"Silence is ongoing. Please check the audio source.",
		a.Station, a.DeviceName, a.LevelDB, a.ThresholdDB, util.HumanTime(a.At),
	)
	return subject, body
}

// recoveryEmail renders the message sent when audio returns.
func recoveryEmail(a Alert) (subject, body string) {
	subject = "[OK] Audio Recovered - " + a.Station
	body = fmt.Sprintf(
		"Audio recovered on %s.\n\n"+
			"Device:         %s\n"+
			"Level:          %.1f dB\n"+
			"Silence lasted: %s\n"+
			"Threshold:      %.1f dB\n"+
			"Time:           %s",
		a.Station, a.DeviceName, a.LevelDB, util.FormatDuration(a.Duration), a.ThresholdDB, util.HumanTime(a.At),
	)
	return subject, body
}

// GraphConfig is the configuration for email notifications.
type GraphConfig = types.GraphConfig
