package eventlog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAppendAndReadLast(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "audioctl.jsonl")

	mute := true
	entries := []*Event{
		{Type: DefaultChanged, DeviceID: "a", Details: &DeviceDetails{Name: "Speakers", Role: "all"}},
		{Type: SilenceStart, Details: &SilenceDetails{LevelDB: -60, ThresholdDB: -40}},
		{Type: MuteChanged, DeviceID: "a", Details: &DeviceDetails{Target: "playback", Mute: &mute}},
		{Type: SilenceEnd, Details: &SilenceDetails{LevelDB: -12, ThresholdDB: -40, DurationMs: 20000}},
		{Type: VolumeChanged, DeviceID: "b", Details: &DeviceDetails{Target: "recording", Volume: 80}},
	}
	for _, e := range entries {
		if err := Append(path, e); err != nil {
			t.Fatal(err)
		}
	}

	all, more, err := ReadLast(path, 10, 0, FilterAll)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 5 || more {
		t.Fatalf("got %d events (more=%v), want 5", len(all), more)
	}
	if all[0].Type != VolumeChanged || all[4].Type != DefaultChanged {
		t.Fatalf("events not newest first: %v ... %v", all[0].Type, all[4].Type)
	}
	if all[0].Timestamp.IsZero() {
		t.Fatal("timestamp not filled in")
	}

	silence, _, err := ReadLast(path, 10, 0, FilterSilence)
	if err != nil {
		t.Fatal(err)
	}
	if len(silence) != 2 || silence[0].Type != SilenceEnd {
		t.Fatalf("silence filter returned %+v", silence)
	}

	page, more, err := ReadLast(path, 2, 2, FilterDevice)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || page[0].Type != DefaultChanged || more {
		t.Fatalf("device page returned %+v more=%v", page, more)
	}

	page, more, err = ReadLast(path, 1, 0, FilterDevice)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || !more {
		t.Fatalf("expected more device events, got %+v more=%v", page, more)
	}
}

func TestReadLastSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	data := "{not json}\n{\"ts\":\"2024-01-01T00:00:00Z\",\"type\":\"test\"}\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	events, _, err := ReadLast(path, 10, 0, FilterAll)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Type != Test {
		t.Fatalf("got %+v", events)
	}
}

func TestReadLastMissingFile(t *testing.T) {
	events, more, err := ReadLast(filepath.Join(t.TempDir(), "none.jsonl"), 10, 0, FilterAll)
	if err != nil || len(events) != 0 || more {
		t.Fatalf("got %v %v %v", events, more, err)
	}
}

func TestAppendWithoutPath(t *testing.T) {
	if err := Append("", &Event{Type: Test}); err != nil {
		t.Fatal(err)
	}
}
