// Package config provides application configuration management.
package config

import (
	"cmp"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/oszuidwest/zwfm-audioctl/internal/types"
	"github.com/oszuidwest/zwfm-audioctl/internal/util"
)

// Configuration defaults are used when values are not specified.
const (
	DefaultFileName          = "config.json"
	DefaultListen            = "127.0.0.1:8087"
	DefaultMeterIntervalMs   = 100
	DefaultPeakHoldMs        = 1500
	DefaultSilenceThreshold  = -40.0
	DefaultSilenceDurationMs = 15000 // 15 seconds in milliseconds
	DefaultSilenceRecoveryMs = 5000  // 5 seconds in milliseconds
	DefaultStationName       = "ZuidWest FM"
	DefaultZabbixPort        = 10051
)

// Station name: any printable characters except control chars (blocks CRLF injection in emails)
var stationNamePattern = regexp.MustCompile(`^[^\x00-\x1F\x7F]+$`)

// ErrExists is returned by Create when the config file is already present.
var ErrExists = errors.New("config file already exists")

// SystemConfig holds settings of the monitor daemon that require restart.
type SystemConfig struct {
	Listen string `json:"listen"`  // HTTP listen address
	APIKey string `json:"api_key"` // Bearer token for /api and /ws (empty = open)
}

// MeterConfig holds peak-meter settings.
type MeterConfig struct {
	IntervalMs int64 `json:"interval_ms"`  // Sample interval
	PeakHoldMs int64 `json:"peak_hold_ms"` // How long a peak is held on the meter
}

// SilenceDetectionConfig holds silence detection thresholds and timing parameters.
type SilenceDetectionConfig struct {
	ThresholdDB float64 `json:"threshold_db"` // Silence threshold in dB
	DurationMs  int64   `json:"duration_ms"`  // Duration below threshold before silence alert
	RecoveryMs  int64   `json:"recovery_ms"`  // Duration above threshold before recovery
}

// WebhookConfig holds webhook notification settings.
type WebhookConfig struct {
	URL string `json:"url"` // Webhook URL for device events
}

// LogConfig holds log file notification settings.
type LogConfig struct {
	Path string `json:"path"` // JSON-lines event log path
}

// EmailConfig holds Microsoft Graph email notification settings.
type EmailConfig struct {
	TenantID     string `json:"tenant_id"`     // Azure AD tenant ID
	ClientID     string `json:"client_id"`     // App registration client ID
	ClientSecret string `json:"client_secret"` // App registration client secret
	FromAddress  string `json:"from_address"`  // Shared mailbox sender address
	Recipients   string `json:"recipients"`    // Comma-separated recipient addresses
}

// ZabbixConfig holds Zabbix trapper notification settings.
type ZabbixConfig struct {
	Server string `json:"server"` // Zabbix server or proxy hostname
	Port   int    `json:"port"`   // Trapper port
	Host   string `json:"host"`   // Host name as configured in Zabbix
	Key    string `json:"key"`    // Trapper item key
}

// NotificationsConfig holds all notification channel settings.
type NotificationsConfig struct {
	Webhook WebhookConfig `json:"webhook"` // Webhook settings
	Log     LogConfig     `json:"log"`     // Log file settings
	Email   EmailConfig   `json:"email"`   // Email settings
	Zabbix  ZabbixConfig  `json:"zabbix"`  // Zabbix trapper settings
}

// Config holds all application configuration. It is safe for concurrent use.
type Config struct {
	StationName      string                 `json:"station_name"`
	System           SystemConfig           `json:"system"`
	Meter            MeterConfig            `json:"meter"`
	SilenceDetection SilenceDetectionConfig `json:"silence_detection"`
	Notifications    NotificationsConfig    `json:"notifications"`

	mu       sync.RWMutex
	filePath string
}

// DefaultPath returns config.json next to the running executable, or in the
// working directory when the executable path is unknown.
func DefaultPath() string {
	exe, err := os.Executable()
	if err != nil {
		return DefaultFileName
	}
	return filepath.Join(filepath.Dir(exe), DefaultFileName)
}

// New creates a new Config with default values.
func New(filePath string) *Config {
	c := &Config{filePath: filePath}
	c.applyDefaults()
	return c
}

// Path returns the file the configuration is read from.
func (c *Config) Path() string {
	return c.filePath
}

// Load reads config from file. A missing file leaves the defaults in place
// and is not an error; nothing is written.
func (c *Config) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	return c.decodeLocked(data)
}

// Reload re-reads the file. On error the current values are kept.
func (c *Config) Reload() error {
	data, err := os.ReadFile(c.filePath)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	next := New(c.filePath)
	if err := next.decodeLocked(data); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.StationName = next.StationName
	c.System = next.System
	c.Meter = next.Meter
	c.SilenceDetection = next.SilenceDetection
	c.Notifications = next.Notifications
	return nil
}

// decodeLocked parses data over the current values. Caller must hold c.mu
// or own c exclusively.
func (c *Config) decodeLocked(data []byte) error {
	if err := json.Unmarshal(data, c); err != nil {
		return util.WrapError("parse config", err)
	}

	c.applyDefaults()

	return c.validate()
}

// Create writes the current configuration to a new file. It fails with
// ErrExists unless overwrite is set.
func (c *Config) Create(overwrite bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !overwrite {
		if _, err := os.Stat(c.filePath); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, c.filePath)
		}
	}
	return c.saveLocked()
}

// Save persists the configuration.
func (c *Config) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveLocked()
}

// validate checks all configuration fields for correctness.
func (c *Config) validate() error {
	name := c.StationName
	if name == "" || len(name) > 30 || !stationNamePattern.MatchString(name) {
		return fmt.Errorf("invalid station_name %q: must be 1-30 printable characters", name)
	}
	if _, _, err := net.SplitHostPort(c.System.Listen); err != nil {
		return fmt.Errorf("invalid system.listen %q: %w", c.System.Listen, err)
	}
	if c.Meter.IntervalMs < 10 || c.Meter.IntervalMs > 10000 {
		return fmt.Errorf("invalid meter.interval_ms %d: must be 10-10000", c.Meter.IntervalMs)
	}
	if c.Meter.PeakHoldMs < 0 {
		return fmt.Errorf("invalid meter.peak_hold_ms %d: must not be negative", c.Meter.PeakHoldMs)
	}
	if t := c.SilenceDetection.ThresholdDB; t < -60 || t > 0 {
		return fmt.Errorf("invalid silence_detection.threshold_db %v: must be -60 to 0", t)
	}
	if c.SilenceDetection.DurationMs < 0 || c.SilenceDetection.RecoveryMs < 0 {
		return fmt.Errorf("invalid silence_detection timing: durations must not be negative")
	}
	if p := c.Notifications.Zabbix.Port; p < 1 || p > 65535 {
		return fmt.Errorf("invalid notifications.zabbix.port %d: must be 1-65535", p)
	}
	if p := c.Notifications.Log.Path; p != "" {
		if err := util.ValidatePath("notifications.log.path", p); err != nil {
			return err
		}
	}
	return nil
}

// applyDefaults sets default values for zero-value fields.
func (c *Config) applyDefaults() {
	c.StationName = cmp.Or(c.StationName, DefaultStationName)
	c.System.Listen = cmp.Or(c.System.Listen, DefaultListen)
	c.Meter.IntervalMs = cmp.Or(c.Meter.IntervalMs, DefaultMeterIntervalMs)
	c.Meter.PeakHoldMs = cmp.Or(c.Meter.PeakHoldMs, DefaultPeakHoldMs)
	c.SilenceDetection.ThresholdDB = cmp.Or(c.SilenceDetection.ThresholdDB, DefaultSilenceThreshold)
	c.SilenceDetection.DurationMs = cmp.Or(c.SilenceDetection.DurationMs, DefaultSilenceDurationMs)
	c.SilenceDetection.RecoveryMs = cmp.Or(c.SilenceDetection.RecoveryMs, DefaultSilenceRecoveryMs)
	c.Notifications.Zabbix.Port = cmp.Or(c.Notifications.Zabbix.Port, DefaultZabbixPort)
}

// saveLocked persists configuration. Caller must hold c.mu.
func (c *Config) saveLocked() error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return util.WrapError("marshal config", err)
	}

	dir := filepath.Dir(c.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return util.WrapError("create config directory", err)
	}

	if err := os.WriteFile(c.filePath, data, 0o600); err != nil {
		return util.WrapError("write config", err)
	}

	return nil
}

// --- Snapshot for atomic reads ---

// Snapshot is a point-in-time copy of configuration values.
type Snapshot struct {
	StationName string

	// System
	Listen string
	APIKey string

	// Meter
	MeterInterval time.Duration
	PeakHold      time.Duration

	// Silence Detection
	SilenceThreshold float64
	SilenceDuration  time.Duration
	SilenceRecovery  time.Duration

	// Notifications
	WebhookURL string
	LogPath    string
	Graph      types.GraphConfig
	Zabbix     ZabbixConfig
}

// Snapshot returns a point-in-time copy of all configuration values.
func (c *Config) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		StationName: c.StationName,

		Listen: c.System.Listen,
		APIKey: c.System.APIKey,

		MeterInterval: time.Duration(c.Meter.IntervalMs) * time.Millisecond,
		PeakHold:      time.Duration(c.Meter.PeakHoldMs) * time.Millisecond,

		SilenceThreshold: c.SilenceDetection.ThresholdDB,
		SilenceDuration:  time.Duration(c.SilenceDetection.DurationMs) * time.Millisecond,
		SilenceRecovery:  time.Duration(c.SilenceDetection.RecoveryMs) * time.Millisecond,

		WebhookURL: c.Notifications.Webhook.URL,
		LogPath:    c.Notifications.Log.Path,
		Graph: types.GraphConfig{
			TenantID:     c.Notifications.Email.TenantID,
			ClientID:     c.Notifications.Email.ClientID,
			ClientSecret: c.Notifications.Email.ClientSecret,
			FromAddress:  c.Notifications.Email.FromAddress,
			Recipients:   c.Notifications.Email.Recipients,
		},
		Zabbix: c.Notifications.Zabbix,
	}
}

// HasWebhook reports whether a webhook URL is configured.
func (s *Snapshot) HasWebhook() bool {
	return s.WebhookURL != ""
}

// HasGraph reports whether Microsoft Graph email notifications are configured.
func (s *Snapshot) HasGraph() bool {
	g := s.Graph
	return g.TenantID != "" && g.ClientID != "" && g.ClientSecret != "" &&
		g.FromAddress != "" && g.Recipients != ""
}

// HasZabbix reports whether the Zabbix trapper is configured.
func (s *Snapshot) HasZabbix() bool {
	z := s.Zabbix
	return z.Server != "" && z.Host != "" && z.Key != ""
}

// HasLogPath reports whether a log path is configured.
func (s *Snapshot) HasLogPath() bool {
	return s.LogPath != ""
}

// --- Utility functions ---

// GenerateAPIKey generates a new random 32-character alphanumeric API key.
func GenerateAPIKey() (string, error) {
	const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 32
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		if err != nil {
			return "", err
		}
		result[i] = chars[n.Int64()]
	}
	return string(result), nil
}
