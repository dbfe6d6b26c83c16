// GitHub releases client for the update checker
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const githubRepo = "20uf/tidy-ur-spotify"

// UpdateInfo describes a newer release available on GitHub.
type UpdateInfo struct {
	Current     string
	Latest      string
	DownloadURL string
	ReleaseURL  string
}

// GitHubClient queries the public releases API.
type GitHubClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewGitHubClient creates a release checker with a short request timeout.
func NewGitHubClient() *GitHubClient {
	return &GitHubClient{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    "https://api.github.com",
	}
}

type githubRelease struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
	Assets  []struct {
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

// CheckLatestRelease compares the latest published release against the
// current version. Returns nil when up-to-date or on any error: the update
// check must never break startup.
func (c *GitHubClient) CheckLatestRelease(ctx context.Context, current string) *UpdateInfo {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", c.baseURL, githubRepo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "tidy-ur-spotify")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil
	}

	if release.TagName == "" {
		return nil
	}

	if CompareSemver(release.TagName, current) <= 0 {
		return nil
	}

	releaseURL := release.HTMLURL
	if releaseURL == "" {
		releaseURL = fmt.Sprintf("https://github.com/%s/releases/latest", githubRepo)
	}

	downloadURL := releaseURL
	if len(release.Assets) > 0 && release.Assets[0].BrowserDownloadURL != "" {
		downloadURL = release.Assets[0].BrowserDownloadURL
	}

	return &UpdateInfo{
		Current:     strings.TrimPrefix(current, "v"),
		Latest:      strings.TrimPrefix(release.TagName, "v"),
		DownloadURL: downloadURL,
		ReleaseURL:  releaseURL,
	}
}

var semverPattern = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)(?:-(.+))?$`)
var trailingNumber = regexp.MustCompile(`(\d+)$`)

// semver is a comparable version tuple. Release versions sort above any
// pre-release of the same triple.
type semver struct {
	major, minor, patch int
	release             int // 1 for release, 0 for pre-release
	pre                 int // numeric suffix of the pre-release tag
}

// parseSemver parses "1.2.3", "v1.2.3", or "1.2.3-alpha.1".
// Unparseable versions collapse to the zero value.
func parseSemver(version string) semver {
	v := strings.TrimPrefix(version, "v")
	m := semverPattern.FindStringSubmatch(v)
	if m == nil {
		return semver{}
	}

	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	patch, _ := strconv.Atoi(m[3])

	if m[4] == "" {
		return semver{major: major, minor: minor, patch: patch, release: 1}
	}

	pre := 0
	if num := trailingNumber.FindString(m[4]); num != "" {
		pre, _ = strconv.Atoi(num)
	}
	return semver{major: major, minor: minor, patch: patch, pre: pre}
}

// CompareSemver returns -1, 0, or 1 comparing a against b.
func CompareSemver(a, b string) int {
	va, vb := parseSemver(a), parseSemver(b)

	cmp := func(x, y int) int {
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		default:
			return 0
		}
	}

	if c := cmp(va.major, vb.major); c != 0 {
		return c
	}
	if c := cmp(va.minor, vb.minor); c != 0 {
		return c
	}
	if c := cmp(va.patch, vb.patch); c != 0 {
		return c
	}
	if c := cmp(va.release, vb.release); c != 0 {
		return c
	}
	return cmp(va.pre, vb.pre)
}
