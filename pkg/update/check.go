package update

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"resty.dev/v3"
)

// Result holds the outcome of a version check.
type Result struct {
	Latest  string
	Current string
}

// NeedsUpdate reports whether a newer release exists. Development builds
// never prompt for updates.
func (r *Result) NeedsUpdate() bool {
	return r.Latest != r.Current && r.Current != "dev"
}

type githubRelease struct {
	TagName string `json:"tag_name"`
}

var defaultBaseURL = "https://api.github.com"

// CheckLatest queries the GitHub releases API for the latest release of
// repo ("owner/name"). Returns nil on any failure, a version check must
// never break the tool.
func CheckLatest(currentVersion string, repo string) *Result {
	if currentVersion == "dev" {
		return nil
	}
	return checkLatestWithBase(defaultBaseURL, currentVersion, repo)
}

func checkLatestWithBase(baseURL string, currentVersion string, repo string) *Result {
	client := resty.New().SetTimeout(2 * time.Second)
	defer func() { _ = client.Close() }()

	release := &githubRelease{}
	res, err := client.R().
		SetResult(release).
		Get(fmt.Sprintf("%s/repos/%s/releases/latest", baseURL, repo))

	if err != nil {
		log.Debug().Err(err).Msg("Release check failed")
		return nil
	}
	if res.StatusCode() != 200 || release.TagName == "" {
		log.Debug().Int("status", res.StatusCode()).Msg("Release check got no usable release")
		return nil
	}

	return &Result{Latest: release.TagName, Current: currentVersion}
}
