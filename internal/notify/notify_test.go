package notify

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/oszuidwest/zwfm-audioctl/internal/audio"
	"github.com/oszuidwest/zwfm-audioctl/internal/config"
	"github.com/oszuidwest/zwfm-audioctl/internal/eventlog"
)

// webhookRecorder collects webhook payloads.
type webhookRecorder struct {
	mu       sync.Mutex
	payloads []WebhookPayload
}

func (w *webhookRecorder) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	var p WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)
		return
	}
	w.mu.Lock()
	w.payloads = append(w.payloads, p)
	w.mu.Unlock()
	rw.WriteHeader(http.StatusNoContent)
}

func (w *webhookRecorder) events() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []string
	for _, p := range w.payloads {
		out = append(out, p.Event)
	}
	return out
}

func TestSendWebhookStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if err := SendTestWebhook(context.Background(), srv.URL, "Test FM"); err == nil {
		t.Fatal("expected an error for a 502 response")
	}
	if err := SendTestWebhook(context.Background(), "", "Test FM"); err == nil {
		t.Fatal("expected an error without URL")
	}
	if err := SendSilenceWebhook(context.Background(), "", Alert{}); err != nil {
		t.Fatalf("unconfigured webhook must be skipped, got %v", err)
	}
}

func TestSilenceNotifier(t *testing.T) {
	hook := &webhookRecorder{}
	srv := httptest.NewServer(hook)
	defer srv.Close()

	dir := t.TempDir()
	cfg := config.New(filepath.Join(dir, "config.json"))
	cfg.Notifications.Webhook.URL = srv.URL
	cfg.Notifications.Log.Path = filepath.Join(dir, "events.jsonl")

	n := NewSilenceNotifier(context.Background(), cfg)
	reading := audio.Reading{DeviceID: "a", DeviceName: "Speakers"}

	n.HandleEvent(audio.SilenceState{InSilence: true, Entered: true, LevelDB: -60}, reading)
	n.Wait()
	// A second start within the same silence period is not sent again.
	n.HandleEvent(audio.SilenceState{InSilence: true, Entered: true, LevelDB: -60}, reading)
	n.Wait()
	n.HandleEvent(audio.SilenceState{InSilence: true, LevelDB: -60}, reading)
	n.HandleEvent(audio.SilenceState{Recovered: true, Total: 20 * time.Second, LevelDB: -8}, reading)
	n.Wait()

	if diff := cmp.Diff([]string{"silence_detected", "silence_recovered"}, hook.events()); diff != "" {
		t.Fatalf("webhook events (-want +got):\n%s", diff)
	}
	last := hook.payloads[1]
	if last.Device != "Speakers" || last.SilenceDurationMs != 20000 || last.Threshold != config.DefaultSilenceThreshold {
		t.Fatalf("recovery payload %+v", last)
	}

	logged, _, err := eventlog.ReadLast(cfg.Notifications.Log.Path, 10, 0, eventlog.FilterSilence)
	if err != nil {
		t.Fatal(err)
	}
	if len(logged) != 2 || logged[0].Type != eventlog.SilenceEnd || logged[0].DeviceID != "a" {
		t.Fatalf("logged %+v", logged)
	}
}

func TestRecoveryWithoutStartIsSilent(t *testing.T) {
	hook := &webhookRecorder{}
	srv := httptest.NewServer(hook)
	defer srv.Close()

	cfg := config.New(filepath.Join(t.TempDir(), "config.json"))
	cfg.Notifications.Webhook.URL = srv.URL

	n := NewSilenceNotifier(context.Background(), cfg)
	n.HandleEvent(audio.SilenceState{Recovered: true}, audio.Reading{})
	n.Wait()

	if got := hook.events(); len(got) != 0 {
		t.Fatalf("got %v, want no notifications", got)
	}
}

func TestGraphSendMailRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/alerts@example.com/sendMail" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		var req graphMailRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Error(err)
		}
		if got := len(req.Message.ToRecipients); got != 2 {
			t.Errorf("got %d recipients", got)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := &GraphClient{baseURL: srv.URL, fromAddress: "alerts@example.com", httpClient: srv.Client()}
	if err := c.SendMail(context.Background(), ParseRecipients("a@example.com, ,b@example.com"), "s", "b"); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Fatalf("got %d calls, want 2", calls.Load())
	}
}

func TestGraphSendMailClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := &GraphClient{baseURL: srv.URL, fromAddress: "x@example.com", httpClient: srv.Client()}
	if err := c.SendMail(context.Background(), []string{"a@example.com"}, "s", "b"); err == nil {
		t.Fatal("expected a non-retried error for 400")
	}
}

func TestValidateConfig(t *testing.T) {
	good := GraphConfig{
		TenantID:     "12345678-1234-1234-1234-123456789abc",
		ClientID:     "12345678-1234-1234-1234-123456789abc",
		ClientSecret: "secret",
		FromAddress:  "alerts@example.com",
		Recipients:   "ops@example.com",
	}
	if err := ValidateConfig(&good); err != nil {
		t.Fatal(err)
	}

	bad := good
	bad.TenantID = "contoso"
	if err := ValidateConfig(&bad); err == nil {
		t.Fatal("non-GUID tenant accepted")
	}
	bad = good
	bad.Recipients = ""
	if err := ValidateConfig(&bad); err == nil {
		t.Fatal("missing recipients accepted")
	}
}

// zabbixTrapper accepts sender requests on a local port and answers each with
// the configured info string.
type zabbixTrapper struct {
	ln   net.Listener
	info string

	mu     sync.Mutex
	values []string
}

func newZabbixTrapper(t *testing.T, info string) *zabbixTrapper {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	z := &zabbixTrapper{ln: ln, info: info}
	t.Cleanup(func() { _ = ln.Close() })
	go z.serve()
	return z
}

func (z *zabbixTrapper) config() config.ZabbixConfig {
	return config.ZabbixConfig{Server: "127.0.0.1", Port: z.ln.Addr().(*net.TCPAddr).Port, Host: "studio-pc", Key: "audio.silence"}
}

func (z *zabbixTrapper) serve() {
	for {
		conn, err := z.ln.Accept()
		if err != nil {
			return
		}
		z.handle(conn)
	}
}

func (z *zabbixTrapper) handle(conn net.Conn) {
	defer conn.Close()
	header := make([]byte, zabbixHeaderSize)
	if _, err := io.ReadFull(conn, header); err != nil {
		return
	}
	body := make([]byte, binary.LittleEndian.Uint64(header[5:]))
	if _, err := io.ReadFull(conn, body); err != nil {
		return
	}
	var req zabbixRequest
	if err := json.Unmarshal(body, &req); err != nil || len(req.Data) != 1 {
		return
	}
	z.mu.Lock()
	z.values = append(z.values, req.Data[0].Host+" "+req.Data[0].Key+" "+req.Data[0].Value)
	z.mu.Unlock()

	reply, _ := json.Marshal(zabbixResponse{Response: "success", Info: z.info})
	out := make([]byte, zabbixHeaderSize, zabbixHeaderSize+len(reply))
	copy(out, zabbixMagic[:])
	binary.LittleEndian.PutUint64(out[5:], uint64(len(reply)))
	_, _ = conn.Write(append(out, reply...))
}

func (z *zabbixTrapper) received() []string {
	z.mu.Lock()
	defer z.mu.Unlock()
	return append([]string(nil), z.values...)
}

const zabbixProcessed = "processed: 1; failed: 0; total: 1; seconds spent: 0.000050"

func TestSendTestZabbix(t *testing.T) {
	z := newZabbixTrapper(t, zabbixProcessed)

	if err := SendTestZabbix(context.Background(), z.config()); err != nil {
		t.Fatal(err)
	}
	want := []string{"studio-pc audio.silence event=TEST source=audioctl"}
	if diff := cmp.Diff(want, z.received()); diff != "" {
		t.Fatalf("trapper values (-want +got):\n%s", diff)
	}

	if err := SendTestZabbix(context.Background(), config.ZabbixConfig{Server: "127.0.0.1"}); err == nil {
		t.Fatal("expected an error for an incomplete config")
	}
}

func TestSendZabbixNothingProcessed(t *testing.T) {
	z := newZabbixTrapper(t, "processed: 0; failed: 0; total: 1; seconds spent: 0.000020")

	if err := SendTestZabbix(context.Background(), z.config()); err == nil {
		t.Fatal("expected an error when the trapper processed no items")
	}
}

func TestSilenceNotifierZabbix(t *testing.T) {
	z := newZabbixTrapper(t, zabbixProcessed)

	cfg := config.New(filepath.Join(t.TempDir(), "config.json"))
	cfg.Notifications.Zabbix = z.config()

	n := NewSilenceNotifier(context.Background(), cfg)
	reading := audio.Reading{DeviceID: "a", DeviceName: "Speakers"}
	n.HandleEvent(audio.SilenceState{InSilence: true, Entered: true, LevelDB: -60}, reading)
	n.Wait()
	n.HandleEvent(audio.SilenceState{Recovered: true, Total: 3 * time.Second, LevelDB: -12}, reading)
	n.Wait()

	want := []string{
		`studio-pc audio.silence event=SILENCE device="Speakers" level_db=-60.0 threshold=-40.0`,
		`studio-pc audio.silence event=RECOVERY device="Speakers" duration_ms=3000 level_db=-12.0 threshold=-40.0`,
	}
	if diff := cmp.Diff(want, z.received()); diff != "" {
		t.Fatalf("trapper values (-want +got):\n%s", diff)
	}
}
