package version

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/mod/semver"

	"github.com/oszuidwest/zwfm-audioctl/internal/types"
	"github.com/oszuidwest/zwfm-audioctl/internal/util"
)

const (
	githubRepo    = "oszuidwest/zwfm-audioctl"
	githubAPIURL  = "https://api.github.com"
	checkInterval = 24 * time.Hour
	checkDelay    = 30 * time.Second // Delay before first check to avoid blocking startup
	checkTimeout  = 30 * time.Second // HTTP request timeout
	maxRetries    = 3                // Max retries per check cycle
	retryDelay    = 1 * time.Minute  // First delay between retries
)

// Checker checks for new releases and reports update availability. It is safe for concurrent use.
type Checker struct {
	baseURL    string
	httpClient *http.Client

	mu     sync.RWMutex
	latest string
	etag   string // For conditional requests (304 Not Modified)
}

// NewChecker returns a Checker querying the GitHub releases API.
func NewChecker() *Checker {
	return &Checker{
		baseURL:    githubAPIURL,
		httpClient: &http.Client{Timeout: checkTimeout},
	}
}

// Run checks once after a short delay and then daily until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) error {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in version checker", "panic", r)
		}
	}()

	select {
	case <-time.After(checkDelay):
		c.checkWithRetry(ctx)
	case <-ctx.Done():
		return nil
	}

	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.checkWithRetry(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}

// checkWithRetry performs the version check, retrying temporary failures.
func (c *Checker) checkWithRetry(ctx context.Context) {
	backoff := util.NewBackoff(retryDelay, 4*retryDelay)
	if err := util.Retry(ctx, maxRetries, backoff, func() error { return c.Check(ctx) }); err != nil {
		slog.Debug("version check failed", "error", err)
	}
}

// githubRelease represents a release with version and status information.
type githubRelease struct {
	TagName    string `json:"tag_name"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
}

// Check retrieves the latest release once. Rate limits, server errors and
// network failures match util.ErrRetryable.
func (c *Checker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeoutCause(ctx, checkTimeout, errors.New("github API request timeout"))
	defer cancel()

	url := c.baseURL + "/repos/" + githubRepo + "/releases/latest"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return err
	}

	// Set required GitHub API headers.
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "zwfm-audioctl/"+Version)

	c.mu.RLock()
	etag := c.etag
	c.mu.RUnlock()
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", util.ErrRetryable, err)
	}
	defer util.SafeCloseFunc(resp.Body, "response body")()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotModified, http.StatusNotFound:
		// No changes since last check, or no releases yet
		return nil
	case http.StatusForbidden, http.StatusTooManyRequests:
		return fmt.Errorf("%w: rate limited (status %d)", util.ErrRetryable, resp.StatusCode)
	default:
		if resp.StatusCode >= 500 {
			return fmt.Errorf("%w: status %d", util.ErrRetryable, resp.StatusCode)
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return util.WrapError("decode release", err)
	}

	if release.Draft || release.Prerelease {
		return nil
	}
	if release.TagName == "" {
		return fmt.Errorf("release without tag name")
	}

	c.mu.Lock()
	c.latest = normalizeVersion(release.TagName)
	if newEtag := resp.Header.Get("ETag"); newEtag != "" {
		c.etag = newEtag
	}
	c.mu.Unlock()

	return nil
}

// Info returns the build information and the result of the last check.
func (c *Checker) Info() types.VersionInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	current := normalizeVersion(Version)
	info := types.VersionInfo{
		Current:   current,
		Latest:    c.latest,
		Commit:    Commit,
		BuildTime: util.FormatBuildTime(BuildTime),
	}

	// Development builds never report updates.
	if c.latest != "" && current != "dev" && current != "unknown" {
		info.UpdateAvail = isNewerVersion(c.latest, current)
	}

	return info
}

// normalizeVersion returns a normalized version string.
func normalizeVersion(v string) string {
	return strings.TrimPrefix(strings.TrimSpace(v), "v")
}

// canonicalVersion returns the version in canonical semver format.
func canonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// isNewerVersion reports whether latest is newer than current.
func isNewerVersion(latest, current string) bool {
	// semver.Compare returns 1 if latest > current
	return semver.Compare(canonicalVersion(latest), canonicalVersion(current)) > 0
}
