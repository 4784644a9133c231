package server

import (
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/oszuidwest/zwfm-audioctl/internal/types"
)

// WebSocketConn is the interface for WebSocket connection operations.
type WebSocketConn interface {
	io.Closer
	WriteJSON(v any) error
	ReadJSON(v any) error
}

// wsSendBuffer is the number of messages queued for a slow client before
// command responses are dropped.
const wsSendBuffer = 16

var upgrader = websocket.Upgrader{
	CheckOrigin: checkOrigin,
}

// checkOrigin reports whether the WebSocket connection origin is allowed.
// Browsers on the local machine or the local network may connect; anything
// else needs to come without an Origin header.
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	// Same-origin requests and non-browser clients omit the Origin header
	if origin == "" {
		return true
	}

	u, err := url.Parse(origin)
	if err != nil {
		slog.Warn("rejected WebSocket connection: invalid origin URL", "origin", origin)
		return false
	}

	host := u.Hostname()
	if host == "localhost" {
		return true
	}

	// Same-origin check (compare with request host)
	requestHost := r.Host
	if h, _, err := net.SplitHostPort(requestHost); err == nil {
		requestHost = h
	}
	if host == requestHost {
		return true
	}

	ip := net.ParseIP(host)
	if ip != nil && (ip.IsLoopback() || ip.IsPrivate()) {
		return true
	}

	slog.Warn("rejected WebSocket connection", "origin", origin, "host", host)
	return false
}

// handleWebSocket streams levels and device lists to a client and executes
// the commands it sends.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}
	slog.Debug("WebSocket client connected", "remote", r.RemoteAddr)

	// Only the writer goroutine writes to the connection.
	send := make(chan any, wsSendBuffer)
	done := make(chan struct{})
	devicesUpdate := make(chan struct{}, 1)

	go s.runWebSocketWriter(conn, send)
	go s.runWebSocketReader(conn, send, done, devicesUpdate)

	s.runWebSocketEventLoop(send, done, devicesUpdate)
	slog.Debug("WebSocket client disconnected", "remote", r.RemoteAddr)
}

// runWebSocketWriter writes messages from the send channel to the connection.
func (s *Server) runWebSocketWriter(conn WebSocketConn, send <-chan any) {
	defer func() {
		if err := conn.Close(); err != nil {
			slog.Debug("WebSocket close error", "error", err)
		}
	}()
	for msg := range send {
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// runWebSocketReader reads commands from the connection and dispatches them.
func (s *Server) runWebSocketReader(conn WebSocketConn, send chan<- any, done, devicesUpdate chan<- struct{}) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in WebSocket reader", "panic", r)
		}
		close(done)
	}()

	for {
		var cmd WSCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		s.commands.Handle(cmd, send, func() {
			select {
			case devicesUpdate <- struct{}{}:
			default:
			}
		})
	}
}

// runWebSocketEventLoop sends periodic level and device updates until the
// reader stops.
func (s *Server) runWebSocketEventLoop(send chan any, done, devicesUpdate <-chan struct{}) {
	levelsTicker := time.NewTicker(types.MeterInterval)
	devicesTicker := time.NewTicker(types.DevicesInterval)
	defer levelsTicker.Stop()
	defer devicesTicker.Stop()
	defer close(send)

	// push sends a message, returning false if done is closed
	push := func(msg any) bool {
		select {
		case send <- msg:
			return true
		case <-done:
			return false
		}
	}

	if !push(s.buildWSDevices()) {
		return
	}

	for {
		var msg any
		select {
		case <-done:
			return
		case <-devicesUpdate:
			msg = s.buildWSDevices()
		case <-devicesTicker.C:
			msg = s.buildWSDevices()
		case <-levelsTicker.C:
			msg = s.monitor.Levels()
		}
		if !push(msg) {
			return
		}
	}
}

// buildWSDevices returns the current device list message. The monitor's last
// list is used when the platform cannot be read.
func (s *Server) buildWSDevices() types.WSDevicesResponse {
	devices, err := s.commands.ListDevices(false)
	if err != nil {
		slog.Debug("failed to list devices for WebSocket", "error", err)
		devices = s.monitor.Devices()
	}
	return types.WSDevicesResponse{
		Type:    "devices",
		Devices: devices,
		Version: s.version.Info(),
	}
}
