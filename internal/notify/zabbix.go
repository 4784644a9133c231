package notify

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/oszuidwest/zwfm-audioctl/internal/config"
	"github.com/oszuidwest/zwfm-audioctl/internal/util"
)

// Zabbix sender protocol constants.
const (
	zabbixTimeout    = 5 * time.Second
	zabbixHeaderSize = 13        // "ZBXD\x01" (5) + uint64 length (8)
	maxReplySize     = 64 * 1024 // Larger replies are rejected
)

var zabbixMagic = [5]byte{'Z', 'B', 'X', 'D', 0x01}

type zabbixRequest struct {
	Request string       `json:"request"`
	Data    []zabbixItem `json:"data"`
}

type zabbixItem struct {
	Host  string `json:"host"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

type zabbixResponse struct {
	Response string `json:"response"`
	Info     string `json:"info"`
}

// SendSilenceZabbix reports a silent device to the Zabbix trapper item.
func SendSilenceZabbix(ctx context.Context, z config.ZabbixConfig, a Alert) error {
	return sendZabbixValue(ctx, z, fmt.Sprintf("event=SILENCE device=%q level_db=%.1f threshold=%.1f",
		a.DeviceName, a.LevelDB, a.ThresholdDB))
}

// SendRecoveryZabbix reports that audio returned on the device.
func SendRecoveryZabbix(ctx context.Context, z config.ZabbixConfig, a Alert) error {
	return sendZabbixValue(ctx, z, fmt.Sprintf("event=RECOVERY device=%q duration_ms=%d level_db=%.1f threshold=%.1f",
		a.DeviceName, a.Duration.Milliseconds(), a.LevelDB, a.ThresholdDB))
}

// SendTestZabbix sends a test value to verify the Zabbix settings.
func SendTestZabbix(ctx context.Context, z config.ZabbixConfig) error {
	if z.Server == "" || z.Host == "" || z.Key == "" {
		return errors.New("zabbix server, host and key must be configured")
	}
	return sendZabbixValue(ctx, z, "event=TEST source=audioctl")
}

// sendZabbixValue sends one trapper value. An incomplete configuration is skipped.
func sendZabbixValue(ctx context.Context, z config.ZabbixConfig, value string) error {
	if z.Server == "" || z.Host == "" || z.Key == "" {
		return nil
	}
	return sendZabbixPayload(ctx, net.JoinHostPort(z.Server, strconv.Itoa(z.Port)), zabbixRequest{
		Request: "sender data",
		Data:    []zabbixItem{{Host: z.Host, Key: z.Key, Value: value}},
	})
}

func sendZabbixPayload(ctx context.Context, addr string, payload zabbixRequest) error {
	ctx, cancel := context.WithTimeout(ctx, zabbixTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return util.WrapError("connect to zabbix", err)
	}
	defer util.SafeCloseFunc(conn, "zabbix connection")()

	deadline, _ := ctx.Deadline()
	if err := conn.SetDeadline(deadline); err != nil {
		return util.WrapError("set deadline", err)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return util.WrapError("marshal zabbix payload", err)
	}

	msg := make([]byte, zabbixHeaderSize, zabbixHeaderSize+len(data))
	copy(msg, zabbixMagic[:])
	binary.LittleEndian.PutUint64(msg[5:], uint64(len(data)))
	if _, err := conn.Write(append(msg, data...)); err != nil {
		return util.WrapError("write zabbix request", err)
	}

	header := make([]byte, zabbixHeaderSize)
	if _, err := io.ReadFull(conn, header); err != nil {
		return util.WrapError("read zabbix reply header", err)
	}
	if !bytes.Equal(header[:5], zabbixMagic[:]) {
		return errors.New("invalid zabbix reply header")
	}
	n := binary.LittleEndian.Uint64(header[5:])
	switch {
	case n == 0:
		return errors.New("empty zabbix reply")
	case n > maxReplySize:
		return fmt.Errorf("zabbix reply too large: %d bytes (max %d)", n, maxReplySize)
	}

	reply := make([]byte, n)
	if _, err := io.ReadFull(conn, reply); err != nil {
		return util.WrapError("read zabbix reply body", err)
	}
	var resp zabbixResponse
	if err := json.Unmarshal(reply, &resp); err != nil {
		return util.WrapError("parse zabbix reply", err)
	}

	if resp.Response == "failed" {
		return fmt.Errorf("zabbix rejected data: %s", resp.Info)
	}
	// Unknown host or key is reported as success with nothing processed.
	if strings.Contains(resp.Info, "processed: 0;") && strings.Contains(resp.Info, "failed: 0;") {
		return errors.New("zabbix processed no items (check host and key)")
	}
	return nil
}
