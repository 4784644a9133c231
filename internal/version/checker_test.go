package version

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oszuidwest/zwfm-audioctl/internal/util"
)

func TestIsNewerVersion(t *testing.T) {
	tests := []struct {
		latest, current string
		want            bool
	}{
		{"1.2.0", "1.1.9", true},
		{"v1.10.0", "1.9.0", true},
		{"1.2.0", "1.2.0", false},
		{"1.2.0", "v1.3.0", false},
		{"2.0.0", "2.0.0-rc.1", true},
	}
	for _, tt := range tests {
		if got := isNewerVersion(tt.latest, tt.current); got != tt.want {
			t.Errorf("isNewerVersion(%q, %q) = %v, want %v", tt.latest, tt.current, got, tt.want)
		}
	}
}

func newTestChecker(t *testing.T, h http.HandlerFunc) *Checker {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewChecker()
	c.baseURL = srv.URL
	return c
}

func TestCheckReportsUpdate(t *testing.T) {
	oldVersion := Version
	Version = "1.0.0"
	t.Cleanup(func() { Version = oldVersion })

	var gotEtag string
	c := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/"+githubRepo+"/releases/latest" {
			http.NotFound(w, r)
			return
		}
		gotEtag = r.Header.Get("If-None-Match")
		if gotEtag == `"abc"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"abc"`)
		_, _ = w.Write([]byte(`{"tag_name":"v1.1.0"}`))
	})

	if err := c.Check(context.Background()); err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	info := c.Info()
	if info.Latest != "1.1.0" || !info.UpdateAvail {
		t.Errorf("Info() = %+v, want latest 1.1.0 with update", info)
	}

	// Second check is conditional and keeps the result.
	if err := c.Check(context.Background()); err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if gotEtag != `"abc"` {
		t.Errorf("If-None-Match = %q, want %q", gotEtag, `"abc"`)
	}
	if c.Info().Latest != "1.1.0" {
		t.Errorf("latest lost after 304")
	}
}

func TestCheckSkipsPrerelease(t *testing.T) {
	c := newTestChecker(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"tag_name":"v9.0.0-beta","prerelease":true}`))
	})
	if err := c.Check(context.Background()); err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if got := c.Info().Latest; got != "" {
		t.Errorf("Latest = %q, want empty", got)
	}
}

func TestCheckRetryableStatus(t *testing.T) {
	c := newTestChecker(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	err := c.Check(context.Background())
	if !errors.Is(err, util.ErrRetryable) {
		t.Errorf("Check() error = %v, want a retryable error", err)
	}
}

func TestDevBuildNeverReportsUpdate(t *testing.T) {
	oldVersion := Version
	Version = "dev"
	t.Cleanup(func() { Version = oldVersion })

	c := NewChecker()
	c.latest = "5.0.0"
	if c.Info().UpdateAvail {
		t.Error("dev build reported an update")
	}
}
