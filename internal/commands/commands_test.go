package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/oszuidwest/zwfm-audioctl/internal/audio"
	"github.com/oszuidwest/zwfm-audioctl/internal/audio/audiotest"
	"github.com/oszuidwest/zwfm-audioctl/internal/config"
	"github.com/oszuidwest/zwfm-audioctl/internal/types"
)

const (
	speakersID = "{0.0.0}.{aa}"
	micID      = "{0.0.1}.{bb}"
	headsetID  = "{0.0.0}.{cc}"
)

// newBackend returns speakers (playback default), a microphone (recording
// default) and a headset (playback communications default).
func newBackend() *audiotest.Backend {
	return audiotest.New(
		audiotest.Playback(speakersID, "Speakers"),
		audiotest.Recording(micID, "Microphone"),
		audiotest.Playback(headsetID, "Headset"),
	).
		WithDefault(speakersID, types.RoleConsole, types.RoleMultimedia).
		WithDefault(headsetID, types.RoleCommunications).
		WithDefault(micID, types.RoleMultimedia, types.RoleCommunications)
}

type result struct {
	stdout string
	stderr string
	err    error
}

// run executes one command line against b with a config file in a
// temporary directory.
func run(t *testing.T, b *audiotest.Backend, stdin string, args ...string) result {
	t.Helper()
	return runContext(context.Background(), t, b, stdin, nil, args...)
}

func runContext(ctx context.Context, t *testing.T, b *audiotest.Backend, stdin string, stdout *syncBuffer, args ...string) result {
	t.Helper()
	if stdout == nil {
		stdout = &syncBuffer{}
	}
	var stderr bytes.Buffer
	root := NewRootCommand(Options{
		Stdin:  strings.NewReader(stdin),
		Stdout: stdout,
		Stderr: &stderr,
		Open: func() (*audio.Service, error) {
			return audio.NewService(b), nil
		},
	})
	cfgPath := filepath.Join(t.TempDir(), "config.json")
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.ExecuteContext(ctx)
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// syncBuffer is a bytes.Buffer that may be written from the meter loop while
// the test reads it.
type syncBuffer struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	onWrite func(n int)
	writes  int
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	n, err := b.buf.Write(p)
	b.writes++
	writes := b.writes
	b.mu.Unlock()
	if b.onWrite != nil {
		b.onWrite(writes)
	}
	return n, err
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{types.NotFoundf("no device"), ExitNotFound},
		{types.InvalidArgumentf("bad flag"), ExitInvalidArgument},
		{fmt.Errorf("wrapped: %w", types.NewValidationError()), ExitInvalidArgument},
		{&audio.PlatformError{Op: "set default endpoint", Err: errors.New("E_ACCESSDENIED")}, ExitFailure},
		{types.ErrUnsupported, ExitFailure},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestListText(t *testing.T) {
	res := run(t, newBackend(), "", "list")
	if res.err != nil {
		t.Fatal(res.err)
	}
	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header and 3 devices:\n%s", len(lines), res.stdout)
	}
	if !strings.HasPrefix(lines[0], "Index") {
		t.Errorf("header = %q", lines[0])
	}
	for i, name := range []string{"Speakers", "Microphone", "Headset"} {
		if !strings.Contains(lines[i+1], name) {
			t.Errorf("line %d = %q, want %s", i+1, lines[i+1], name)
		}
	}
}

func TestListFilterKeepsIndices(t *testing.T) {
	res := run(t, newBackend(), "", "list", "--type", "playback", "-o", "json")
	if res.err != nil {
		t.Fatal(res.err)
	}
	var got []types.Device
	if err := json.Unmarshal([]byte(res.stdout), &got); err != nil {
		t.Fatalf("decode %q: %v", res.stdout, err)
	}
	want := []types.Device{
		{Index: 1, Default: true, Type: types.DeviceTypePlayback, Name: "Speakers", ID: speakersID, State: types.StateActive},
		{Index: 3, DefaultCommunication: true, Type: types.DeviceTypePlayback, Name: "Headset", ID: headsetID, State: types.StateActive},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestListShowDisabled(t *testing.T) {
	b := newBackend()
	b.SetState(headsetID, types.StateUnplugged)

	res := run(t, b, "", "list", "-o", "json")
	var enabled []types.Device
	if err := json.Unmarshal([]byte(res.stdout), &enabled); err != nil {
		t.Fatal(err)
	}
	res = run(t, b, "", "list", "--show-disabled", "-o", "json")
	var all []types.Device
	if err := json.Unmarshal([]byte(res.stdout), &all); err != nil {
		t.Fatal(err)
	}
	if len(enabled) != 2 || len(all) != 3 {
		t.Fatalf("enabled %d, all %d devices, want 2 and 3", len(enabled), len(all))
	}
	if last := all[2]; last.ID != headsetID || last.Index != 3 || last.State != types.StateUnplugged {
		t.Errorf("last = %+v, want unplugged headset at index 3", last)
	}
}

func TestListInvalidType(t *testing.T) {
	res := run(t, newBackend(), "", "list", "--type", "speakers")
	if ExitCode(res.err) != ExitInvalidArgument {
		t.Fatalf("err = %v, want invalid argument", res.err)
	}
	if !strings.Contains(res.err.Error(), "--type") {
		t.Errorf("err = %q, want flag name", res.err)
	}
}

func TestGet(t *testing.T) {
	b := newBackend()
	if err := b.SetMute(micID, true); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"--playback-volume"}, "50%"},
		{[]string{"--recording-mute"}, "true"},
		{[]string{"--playback-communication-mute"}, "false"},
	}
	for _, tt := range tests {
		res := run(t, b, "", append([]string{"get"}, tt.args...)...)
		if res.err != nil {
			t.Fatalf("get %v: %v", tt.args, res.err)
		}
		if got := strings.TrimSpace(res.stdout); got != tt.want {
			t.Errorf("get %v = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestGetDevice(t *testing.T) {
	tests := []struct {
		args   []string
		wantID string
	}{
		{[]string{"--index", "2"}, micID},
		{[]string{"--id", strings.ToUpper(headsetID)}, headsetID},
		{[]string{"--name", "speakers"}, speakersID},
		{[]string{"--playback-communication"}, headsetID},
		{[]string{"--recording"}, micID},
	}
	for _, tt := range tests {
		res := run(t, newBackend(), "", append([]string{"get", "-o", "json"}, tt.args...)...)
		if res.err != nil {
			t.Fatalf("get %v: %v", tt.args, res.err)
		}
		var dev types.Device
		if err := json.Unmarshal([]byte(res.stdout), &dev); err != nil {
			t.Fatalf("decode %q: %v", res.stdout, err)
		}
		if dev.ID != tt.wantID {
			t.Errorf("get %v = %s, want %s", tt.args, dev.ID, tt.wantID)
		}
	}
}

func TestGetText(t *testing.T) {
	res := run(t, newBackend(), "", "get", "--playback")
	if res.err != nil {
		t.Fatal(res.err)
	}
	for _, want := range []string{"Name", "Speakers", "DefaultCommunication", speakersID} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("output missing %q:\n%s", want, res.stdout)
		}
	}
}

func TestGetErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no selector", []string{"get"}, ExitInvalidArgument},
		{"two selectors", []string{"get", "--playback", "--recording-mute"}, ExitInvalidArgument},
		{"index zero", []string{"get", "--index", "0"}, ExitInvalidArgument},
		{"index too large", []string{"get", "--index", "43"}, ExitInvalidArgument},
		{"index beyond count", []string{"get", "--index", "9"}, ExitNotFound},
		{"unknown id", []string{"get", "--id", "{nope}"}, ExitNotFound},
		{"unknown flag", []string{"get", "--loud"}, ExitInvalidArgument},
		{"positional", []string{"get", "--playback", "extra"}, ExitInvalidArgument},
		{"bad output", []string{"get", "--playback", "-o", "yaml"}, ExitInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, newBackend(), "", tt.args...)
			if got := ExitCode(res.err); got != tt.want {
				t.Errorf("exit = %d (%v), want %d", got, res.err, tt.want)
			}
		})
	}
}

func TestGetMissingDefault(t *testing.T) {
	b := newBackend()
	b.FailOn("DefaultID", types.NotFoundf("no default endpoint"))
	res := run(t, b, "", "get", "--recording-volume")
	if ExitCode(res.err) != ExitNotFound {
		t.Errorf("err = %v, want not found", res.err)
	}
}

func TestSetDefault(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []audiotest.Call
	}{
		{
			name: "both roles",
			args: []string{"--index", "3"},
			want: []audiotest.Call{
				{Op: "SetDefault", ID: headsetID, Role: types.RoleCommunications},
				{Op: "SetDefault", ID: headsetID, Role: types.RoleMultimedia},
			},
		},
		{
			name: "default only",
			args: []string{"--name", "HEADSET", "--default-only"},
			want: []audiotest.Call{{Op: "SetDefault", ID: headsetID, Role: types.RoleMultimedia}},
		},
		{
			name: "communication only",
			args: []string{"--id", speakersID, "--communication-only"},
			want: []audiotest.Call{{Op: "SetDefault", ID: speakersID, Role: types.RoleCommunications}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBackend()
			res := run(t, b, "", append([]string{"set", "-o", "json"}, tt.args...)...)
			if res.err != nil {
				t.Fatal(res.err)
			}
			if diff := cmp.Diff(tt.want, b.Calls()); diff != "" {
				t.Errorf("calls mismatch (-want +got):\n%s", diff)
			}
			var dev types.Device
			if err := json.Unmarshal([]byte(res.stdout), &dev); err != nil {
				t.Fatalf("decode %q: %v", res.stdout, err)
			}
			if dev.ID != tt.want[0].ID {
				t.Errorf("printed %s, want %s", dev.ID, tt.want[0].ID)
			}
		})
	}
}

func TestSetDefaultReportsNewRoles(t *testing.T) {
	res := run(t, newBackend(), "", "set", "-o", "json", "--index", "3")
	var dev types.Device
	if err := json.Unmarshal([]byte(res.stdout), &dev); err != nil {
		t.Fatal(err)
	}
	if !dev.Default || !dev.DefaultCommunication {
		t.Errorf("record = %+v, want both default flags", dev)
	}
}

func TestSetInputObject(t *testing.T) {
	b := newBackend()

	// Pipe the record printed by get into set.
	res := run(t, b, "", "get", "--index", "3", "-o", "json")
	if res.err != nil {
		t.Fatal(res.err)
	}
	res = run(t, b, res.stdout, "set", "--input-object", "--default-only")
	if res.err != nil {
		t.Fatal(res.err)
	}
	want := []audiotest.Call{{Op: "SetDefault", ID: headsetID, Role: types.RoleMultimedia}}
	if diff := cmp.Diff(want, b.Calls()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestSetInputObjectList(t *testing.T) {
	b := newBackend()
	stdin := fmt.Sprintf(`[{"id":%q},{"id":%q}]`, headsetID, micID)
	res := run(t, b, stdin, "set", "--input-object", "--communication-only")
	if res.err != nil {
		t.Fatal(res.err)
	}
	want := []audiotest.Call{
		{Op: "SetDefault", ID: headsetID, Role: types.RoleCommunications},
		{Op: "SetDefault", ID: micID, Role: types.RoleCommunications},
	}
	if diff := cmp.Diff(want, b.Calls()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestSetInputObjectErrors(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		want  int
	}{
		{"empty", "", ExitInvalidArgument},
		{"not json", "Speakers", ExitInvalidArgument},
		{"no id", `{"name":"Speakers"}`, ExitInvalidArgument},
		{"unknown id", `{"id":"{gone}"}`, ExitNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBackend()
			res := run(t, b, tt.stdin, "set", "--input-object")
			if got := ExitCode(res.err); got != tt.want {
				t.Errorf("exit = %d (%v), want %d", got, res.err, tt.want)
			}
			if calls := b.Calls(); len(calls) != 0 {
				t.Errorf("calls = %+v, want none", calls)
			}
		})
	}
}

func TestSetMute(t *testing.T) {
	b := newBackend()

	res := run(t, b, "", "set", "--recording-mute")
	if res.err != nil || strings.TrimSpace(res.stdout) != "true" {
		t.Fatalf("set --recording-mute = %q, %v", res.stdout, res.err)
	}
	res = run(t, b, "", "set", "--recording-mute=false")
	if res.err != nil || strings.TrimSpace(res.stdout) != "false" {
		t.Fatalf("set --recording-mute=false = %q, %v", res.stdout, res.err)
	}
	if muted, _ := b.Mute(micID); muted {
		t.Error("microphone still muted")
	}
}

func TestSetMuteToggleTwice(t *testing.T) {
	b := newBackend()

	for _, want := range []string{"true", "false"} {
		res := run(t, b, "", "set", "--playback-communication-mute-toggle")
		if res.err != nil {
			t.Fatal(res.err)
		}
		if got := strings.TrimSpace(res.stdout); got != want {
			t.Errorf("toggle = %q, want %q", got, want)
		}
	}

	want := []audiotest.Call{
		{Op: "SetMute", ID: headsetID, Value: true},
		{Op: "SetMute", ID: headsetID, Value: false},
	}
	if diff := cmp.Diff(want, b.Calls()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestSetVolume(t *testing.T) {
	b := newBackend()

	res := run(t, b, "", "set", "--playback-volume", "42.5", "-o", "json")
	if res.err != nil {
		t.Fatal(res.err)
	}
	var got types.VolumeResponse
	if err := json.Unmarshal([]byte(res.stdout), &got); err != nil {
		t.Fatal(err)
	}
	want := types.VolumeResponse{Target: types.TargetPlayback, Volume: 42.5, Display: "42.5%"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("volume mismatch (-want +got):\n%s", diff)
	}

	res = run(t, b, "", "get", "--playback-volume")
	if strings.TrimSpace(res.stdout) != "42.5%" {
		t.Errorf("get after set = %q, want 42.5%%", res.stdout)
	}
}

func TestSetErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"nothing", []string{"set"}, ExitInvalidArgument},
		{"volume above range", []string{"set", "--recording-volume", "101"}, ExitInvalidArgument},
		{"volume below range", []string{"set", "--recording-volume", "-1"}, ExitInvalidArgument},
		{"mute and volume", []string{"set", "--playback-mute", "--playback-volume", "10"}, ExitInvalidArgument},
		{"both role restrictions", []string{"set", "--index", "1", "--default-only", "--communication-only"}, ExitInvalidArgument},
		{"role restriction without device", []string{"set", "--playback-mute", "--default-only"}, ExitInvalidArgument},
		{"index zero", []string{"set", "--index", "0"}, ExitInvalidArgument},
		{"toggle set to false", []string{"set", "--playback-mute-toggle=false"}, ExitInvalidArgument},
		{"index beyond count", []string{"set", "--index", "4"}, ExitNotFound},
		{"unknown name", []string{"set", "--name", "Monitor"}, ExitNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBackend()
			res := run(t, b, "", tt.args...)
			if got := ExitCode(res.err); got != tt.want {
				t.Errorf("exit = %d (%v), want %d", got, res.err, tt.want)
			}
			if calls := b.Calls(); len(calls) != 0 {
				t.Errorf("calls = %+v, want none", calls)
			}
		})
	}
}

func TestSetPlatformFailure(t *testing.T) {
	b := newBackend()
	b.FailOn("SetDefault", errors.New("E_ACCESSDENIED"))

	res := run(t, b, "", "set", "--index", "1")
	var perr *audio.PlatformError
	if !errors.As(res.err, &perr) {
		t.Fatalf("err = %v, want platform error", res.err)
	}
	if ExitCode(res.err) != ExitFailure {
		t.Errorf("exit = %d, want %d", ExitCode(res.err), ExitFailure)
	}
}

func TestGetPlatformFailure(t *testing.T) {
	b := newBackend()
	b.FailOn("Endpoints", errors.New("HRESULT 0x80004005"))

	res := run(t, b, "", "get", "--playback")
	if ExitCode(res.err) != ExitFailure {
		t.Errorf("exit = %d, want %d (err %v)", ExitCode(res.err), ExitFailure, res.err)
	}
}

// stopAfter returns a buffer that cancels the run after n writes.
func stopAfter(n int, cancel context.CancelFunc) *syncBuffer {
	return &syncBuffer{onWrite: func(writes int) {
		if writes == n {
			cancel()
		}
	}}
}

func TestWriteStream(t *testing.T) {
	b := newBackend()
	b.SetPeaks(micID, 0.1, 0.5, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := stopAfter(3, cancel)

	res := runContext(ctx, t, b, "", out, "write", "--recording-stream", "--interval", "1ms")
	if res.err != nil {
		t.Fatal(res.err)
	}
	if diff := cmp.Diff("10\n50\n100\n", res.stdout); diff != "" {
		t.Errorf("stream mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteStreamCommunication(t *testing.T) {
	b := newBackend()
	b.SetPeaks(headsetID, 0.25)
	b.SetPeaks(speakersID, 0.75)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := stopAfter(1, cancel)

	res := runContext(ctx, t, b, "", out, "write", "--playback-stream", "--communication", "-o", "json")
	if res.err != nil {
		t.Fatal(res.err)
	}
	if got := strings.TrimSpace(res.stdout); got != "25" {
		t.Errorf("stream = %q, want the headset's 25", got)
	}
}

func TestWriteMeter(t *testing.T) {
	b := newBackend()
	b.SetPeaks(speakersID, 0.5)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := stopAfter(2, cancel)

	res := runContext(ctx, t, b, "", out, "write", "--playback-meter", "--interval", "1ms")
	if res.err != nil {
		t.Fatal(res.err)
	}
	if n := strings.Count(res.stdout, "\r"); n != 2 {
		t.Errorf("redraws = %d, want 2", n)
	}
	if !strings.Contains(res.stdout, "Speakers  Peak Value") || !strings.Contains(res.stdout, " 50%") {
		t.Errorf("meter line = %q", res.stdout)
	}
	if !strings.HasSuffix(res.stdout, "\n") {
		t.Error("meter line not terminated")
	}
}

func TestWriteMeterJSONHoldsPeak(t *testing.T) {
	b := newBackend()
	b.SetPeaks(speakersID, 0.5, 0.1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := stopAfter(2, cancel)

	res := runContext(ctx, t, b, "", out, "write", "--playback-meter", "--interval", "1ms", "-o", "json")
	if res.err != nil {
		t.Fatal(res.err)
	}
	dec := json.NewDecoder(strings.NewReader(res.stdout))
	var levels []types.MeterLevel
	for dec.More() {
		var l types.MeterLevel
		if err := dec.Decode(&l); err != nil {
			t.Fatal(err)
		}
		levels = append(levels, l)
	}
	if len(levels) != 2 {
		t.Fatalf("got %d levels, want 2:\n%s", len(levels), res.stdout)
	}
	if levels[1].Percent != 10 {
		t.Errorf("second percent = %d, want 10", levels[1].Percent)
	}
	if levels[1].HeldDB != levels[0].PeakDB || levels[1].HeldDB <= levels[1].PeakDB {
		t.Errorf("held = %.2f, want the first peak %.2f", levels[1].HeldDB, levels[0].PeakDB)
	}
}

func TestWriteMissingDevice(t *testing.T) {
	b := newBackend()
	b.FailOn("DefaultID", types.NotFoundf("no default endpoint"))

	res := run(t, b, "", "write", "--recording-stream")
	if ExitCode(res.err) != ExitNotFound {
		t.Errorf("err = %v, want not found", res.err)
	}
}

func TestWriteErrors(t *testing.T) {
	for _, args := range [][]string{
		{"write"},
		{"write", "--playback-meter", "--recording-stream"},
		{"write", "--playback-stream", "--interval", "0s"},
		{"write", "--recording-meter=false"},
	} {
		res := run(t, newBackend(), "", args...)
		if ExitCode(res.err) != ExitInvalidArgument {
			t.Errorf("%v: err = %v, want invalid argument", args, res.err)
		}
	}
}

func TestUnsupportedPlatform(t *testing.T) {
	var stderr bytes.Buffer
	root := NewRootCommand(Options{
		Stdout: &bytes.Buffer{},
		Stderr: &stderr,
		Open:   func() (*audio.Service, error) { return nil, types.ErrUnsupported },
	})
	root.SetArgs([]string{"list"})
	err := root.Execute()
	if !errors.Is(err, types.ErrUnsupported) || ExitCode(err) != ExitFailure {
		t.Errorf("err = %v, want unsupported with exit 1", err)
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	runConfig := func(args ...string) error {
		root := NewRootCommand(Options{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})
		root.SetArgs(append([]string{"--config", path}, args...))
		return root.Execute()
	}

	if err := runConfig("config", "init", "--generate-api-key"); err != nil {
		t.Fatal(err)
	}
	cfg := config.New(path)
	if err := cfg.Load(); err != nil {
		t.Fatal(err)
	}
	if len(cfg.System.APIKey) != 32 {
		t.Errorf("api key = %q, want 32 characters", cfg.System.APIKey)
	}

	if err := runConfig("config", "init"); !errors.Is(err, config.ErrExists) {
		t.Errorf("second init err = %v, want ErrExists", err)
	}
	if err := runConfig("config", "init", "--force"); err != nil {
		t.Errorf("forced init: %v", err)
	}
}

func TestConfigShowMasksSecrets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := config.New(path)
	cfg.System.APIKey = "s3cret"
	cfg.Notifications.Email.ClientSecret = "hunter2"
	if err := cfg.Save(); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	root := NewRootCommand(Options{Stdout: &out, Stderr: &bytes.Buffer{}})
	root.SetArgs([]string{"--config", path, "config", "show"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "s3cret") || strings.Contains(out.String(), "hunter2") {
		t.Errorf("secrets printed:\n%s", out.String())
	}
	if !strings.Contains(out.String(), redacted) {
		t.Errorf("no masked values:\n%s", out.String())
	}
}

func TestVersion(t *testing.T) {
	res := run(t, newBackend(), "", "version", "-o", "json")
	if res.err != nil {
		t.Fatal(res.err)
	}
	var info types.VersionInfo
	if err := json.Unmarshal([]byte(res.stdout), &info); err != nil {
		t.Fatal(err)
	}
	if info.Current == "" || info.UpdateAvail {
		t.Errorf("info = %+v", info)
	}
}

func TestLogLevel(t *testing.T) {
	res := run(t, newBackend(), "", "--log-level", "debug", "set", "--index", "1")
	if res.err != nil {
		t.Fatal(res.err)
	}
	if !strings.Contains(res.stderr, "default endpoint set") {
		t.Errorf("stderr = %q, want debug log", res.stderr)
	}

	res = run(t, newBackend(), "", "--log-level", "loud", "list")
	if ExitCode(res.err) != ExitInvalidArgument {
		t.Errorf("err = %v, want invalid argument", res.err)
	}
}
