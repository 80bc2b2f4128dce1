// Package github holds the optional API pre-flight: when a token is
// supplied, the dry-run repository list is checked against the REST API
// before the browser is ever launched, so typos surface early instead of
// after minutes of console driving.
package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/CompassSecurity/patternsync/pkg/scope"
	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit/github_primary_ratelimit"
	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit/github_secondary_ratelimit"
	"github.com/google/go-github/v69/github"
	"github.com/rs/zerolog/log"
)

// NewClient builds a rate-limit-aware API client. baseURL other than the
// public API switches to enterprise URL handling.
func NewClient(accessToken string, baseURL string) *github.Client {
	rateLimiter := github_ratelimit.New(nil,
		github_primary_ratelimit.WithLimitDetectedCallback(func(ctx *github_primary_ratelimit.CallbackContext) {
			resetTime := ctx.ResetTime.Add(time.Second * 30)
			log.Info().Str("category", string(ctx.Category)).Time("reset", resetTime).Msg("Primary rate limit detected, will resume automatically")
			time.Sleep(time.Until(resetTime))
			log.Info().Str("category", string(ctx.Category)).Msg("Resuming")
		}),
		github_secondary_ratelimit.WithLimitDetectedCallback(func(ctx *github_secondary_ratelimit.CallbackContext) {
			resetTime := ctx.ResetTime.Add(time.Second * 30)
			log.Info().Time("reset", resetTime).Msg("Secondary rate limit detected, will resume automatically")
			time.Sleep(time.Until(resetTime))
			log.Info().Msg("Resuming")
		}),
	)

	client := github.NewClient(&http.Client{Transport: rateLimiter})
	if accessToken != "" {
		client = client.WithAuthToken(accessToken)
	}
	if baseURL != "" && baseURL != "https://api.github.com" && baseURL != "https://api.github.com/" {
		client, _ = client.WithEnterpriseURLs(baseURL, baseURL)
	}
	return client
}

// ValidateDryRunRepos checks that every configured dry-run repository
// exists. Names without an owner segment are resolved against the target
// organization. Missing repositories are returned, not fatal: the dialog
// match later is the authority, this is an early warning.
func ValidateDryRunRepos(ctx context.Context, client *github.Client, target scope.Target, repos []string) []string {
	var missing []string
	for _, raw := range repos {
		owner := target.Name
		name := raw
		if strings.Contains(raw, "/") {
			parts := strings.SplitN(raw, "/", 2)
			owner, name = parts[0], parts[1]
		}

		_, resp, err := client.Repositories.Get(ctx, owner, name)
		if err != nil {
			if resp != nil && resp.StatusCode == http.StatusNotFound {
				log.Warn().Str("repository", fmt.Sprintf("%s/%s", owner, name)).Msg("Dry run repository not found via API")
				missing = append(missing, raw)
				continue
			}
			log.Debug().Err(err).Str("repository", raw).Msg("Repository pre-flight check errored, continuing")
		}
	}
	return missing
}

// RepoDescription fetches a short description line for export provenance
// comments, "" when unavailable.
func RepoDescription(ctx context.Context, client *github.Client, owner string, name string) string {
	repo, _, err := client.Repositories.Get(ctx, owner, name)
	if err != nil || repo.Description == nil {
		return ""
	}
	return *repo.Description
}
