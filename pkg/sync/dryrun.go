package sync

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/CompassSecurity/patternsync/pkg/console"
	"github.com/CompassSecurity/patternsync/pkg/scope"
	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

// DryRunMatch is one row of the dry-run result listing, best-effort text.
// Absent fields are valid.
type DryRunMatch struct {
	Match              string
	RepositoryLocation string
	Link               string
}

// DryRunResult is the outcome of one dry run. Completed is true only once
// a terminal remote status has been observed; Hits and Results are only
// populated then.
type DryRunResult struct {
	ID        string
	Name      string
	Hits      int
	Results   []DryRunMatch
	Completed bool
}

// ErrDryRunAborted marks the abort paths: no repositories selected, pattern
// identifier unobtainable, or a remote-reported failure status.
var ErrDryRunAborted = errors.New("dry run aborted")

type dryRunState int

const (
	dryRunSubmitting dryRunState = iota
	dryRunRepoSelection
	dryRunPolling
	dryRunCompleted
	dryRunFailed
)

var (
	patternIDRe   = regexp.MustCompile(`custom_patterns/(\d+)`)
	resultCountRe = regexp.MustCompile(`\d+`)
)

var dryRunPollInterval = 3 * time.Second

// RunDryRun triggers a dry run for the pattern currently loaded in the
// form and drives it to a terminal state. Repo scope follows the trigger's
// redirect directly; org and enterprise scope pass through the
// repository-selection dialog first. The completion poll is bounded by
// cfg.MaxDryRunPolls, 0 meaning unbounded.
func RunDryRun(ctx context.Context, c console.Console, name string, cfg *RunConfig) (*DryRunResult, error) {
	state := dryRunSubmitting
	var result *DryRunResult

	for {
		switch state {
		case dryRunSubmitting:
			trigger, err := c.Element(selDryRunButton)
			if err != nil {
				return nil, fmt.Errorf("failed locating dry run trigger: %w", err)
			}
			if err := trigger.Click(); err != nil {
				return nil, fmt.Errorf("failed triggering dry run: %w", err)
			}

			switch cfg.Target.Scope {
			case scope.Repo:
				state = dryRunPolling
			case scope.Org, scope.Enterprise:
				state = dryRunRepoSelection
			default:
				return nil, fmt.Errorf("unhandled scope %s", cfg.Target.Scope)
			}

		case dryRunRepoSelection:
			selected, err := selectDryRunRepositories(ctx, c, cfg)
			if err != nil {
				return nil, err
			}
			if selected == 0 {
				log.Warn().Str("pattern", name).Msg("No repositories selected, aborting dry run")
				return nil, fmt.Errorf("%w: no repositories selected", ErrDryRunAborted)
			}

			confirm, err := c.Element(selDryRunConfirm)
			if err != nil {
				return nil, fmt.Errorf("failed locating dialog confirm: %w", err)
			}
			if err := confirm.Click(); err != nil {
				return nil, fmt.Errorf("failed confirming repository selection: %w", err)
			}
			state = dryRunPolling

		case dryRunPolling:
			id := extractPatternID(c.CurrentURL())
			if id == "" {
				return nil, fmt.Errorf("%w: no pattern identifier in %s", ErrDryRunAborted, c.CurrentURL())
			}

			status, err := pollDryRunStatus(ctx, c, name, cfg.MaxDryRunPolls)
			if err != nil {
				return nil, err
			}
			if status != "Completed" {
				log.Error().Str("pattern", name).Str("status", status).Msg("Dry run did not complete")
				state = dryRunFailed
				continue
			}

			result = &DryRunResult{ID: id, Name: name}
			state = dryRunCompleted

		case dryRunCompleted:
			if err := extractDryRunResults(ctx, c, result); err != nil {
				return nil, err
			}
			result.Completed = true
			log.Info().Str("pattern", name).Int("hits", result.Hits).Msg("Dry run completed")
			return result, nil

		case dryRunFailed:
			return nil, fmt.Errorf("%w: remote reported failure", ErrDryRunAborted)
		}
	}
}

// selectDryRunRepositories drives the repository-selection dialog and
// returns how many repositories ended up selected. Names in owner/repo form
// are reduced to the repo segment at org scope; matching against option
// labels is case-sensitive.
func selectDryRunRepositories(ctx context.Context, c console.Console, cfg *RunConfig) (int, error) {
	if _, err := c.WaitVisible(ctx, selDryRunDialog); err != nil {
		return 0, fmt.Errorf("repository dialog never appeared: %w", err)
	}

	if cfg.DryRunAllRepos {
		radio, err := c.Element(selDryRunAllRepos)
		if err != nil {
			return 0, fmt.Errorf("failed locating all-repositories option: %w", err)
		}
		if err := radio.Click(); err != nil {
			return 0, err
		}
		return 1, nil
	}

	radio, err := c.Element(selDryRunSelectRepos)
	if err != nil {
		return 0, fmt.Errorf("failed locating specific-repositories option: %w", err)
	}
	if err := radio.Click(); err != nil {
		return 0, err
	}

	search, err := c.Element(selDryRunRepoSearch)
	if err != nil {
		return 0, fmt.Errorf("failed locating repository search: %w", err)
	}

	selected := 0
	for _, raw := range cfg.DryRunRepos {
		repoName := raw
		if cfg.Target.Scope == scope.Org {
			repoName = scope.StripOwner(raw)
		}

		if err := search.Fill(repoName); err != nil {
			return 0, err
		}

		options, err := c.Elements(selDryRunRepoOption)
		if err != nil {
			return 0, err
		}

		found := false
		for _, option := range options {
			label, err := option.Text()
			if err != nil {
				return 0, err
			}
			if strings.TrimSpace(label) == repoName {
				if err := option.Click(); err != nil {
					return 0, err
				}
				found = true
				selected++
				break
			}
		}
		if !found {
			log.Warn().Str("repository", repoName).Msg("Repository not found in dialog")
		}
	}

	return selected, nil
}

// pollDryRunStatus reads the status field until a terminal text appears,
// reloading between polls. maxPolls of 0 polls indefinitely.
func pollDryRunStatus(ctx context.Context, c console.Console, name string, maxPolls int) (string, error) {
	for poll := 0; maxPolls == 0 || poll < maxPolls; poll++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		status, err := readDryRunStatus(c)
		if err != nil {
			return "", err
		}

		switch {
		case status == "Completed":
			return status, nil
		case status == "In progress" || status == "Queued" || status == "":
			log.Debug().Str("pattern", name).Str("status", status).Int("poll", poll+1).Msg("Dry run still running")
		default:
			return status, nil
		}

		time.Sleep(dryRunPollInterval)
		if err := c.Reload(ctx); err != nil {
			return "", err
		}
	}

	return "", fmt.Errorf("%w: no terminal status after %d polls", ErrDryRunAborted, maxPolls)
}

// readDryRunStatus prefers the JSON state blob the status element carries
// and falls back to its rendered text.
func readDryRunStatus(c console.Console) (string, error) {
	has, el, err := c.Has(selDryRunStatus)
	if err != nil {
		return "", err
	}
	if !has {
		return "", nil
	}

	if blob, err := el.Attribute("data-state"); err == nil && blob != "" {
		if status := gjson.Get(blob, "status"); status.Exists() {
			return status.String(), nil
		}
	}

	text, err := el.Text()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// extractDryRunResults reads the total hit count and paginates the result
// listing until the running total reaches it or the next control gives out.
func extractDryRunResults(ctx context.Context, c console.Console, result *DryRunResult) error {
	count, err := readResultCount(c)
	if err != nil {
		return err
	}
	result.Hits = count
	if count == 0 {
		return nil
	}

	for {
		pageHTML, err := c.HTML()
		if err != nil {
			return err
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
		if err != nil {
			return fmt.Errorf("failed parsing dry run results: %w", err)
		}

		doc.Find(selDryRunResultRow).Each(func(_ int, row *goquery.Selection) {
			link := row.Find("td.repository a")
			href, _ := link.Attr("href")
			result.Results = append(result.Results, DryRunMatch{
				Match:              strings.TrimSpace(row.Find("td.match code").Text()),
				RepositoryLocation: strings.TrimSpace(link.Text()),
				Link:               href,
			})
		})

		if len(result.Results) >= count {
			break
		}

		hasNext, next, err := c.Has(selListNextPage)
		if err != nil {
			return err
		}
		if !hasNext {
			break
		}
		if enabled, _ := next.Enabled(); !enabled {
			break
		}
		if err := next.Click(); err != nil {
			return fmt.Errorf("failed advancing dry run results: %w", err)
		}
		if err := c.WaitHidden(ctx, selListBusy); err != nil {
			return err
		}
	}

	return nil
}

func readResultCount(c console.Console) (int, error) {
	has, el, err := c.Has(selDryRunCount)
	if err != nil {
		return 0, err
	}
	if !has {
		return 0, nil
	}

	text, err := el.Text()
	if err != nil {
		return 0, err
	}

	digits := resultCountRe.FindString(text)
	if digits == "" {
		return 0, nil
	}
	count, err := strconv.Atoi(digits)
	if err != nil {
		return 0, nil
	}
	return count, nil
}

func extractPatternID(url string) string {
	m := patternIDRe.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}
