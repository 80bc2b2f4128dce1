package sync

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/CompassSecurity/patternsync/pkg/catalog"
	"github.com/CompassSecurity/patternsync/pkg/console"
	"github.com/rs/zerolog/log"
)

// testOutcome classifies the remote tester's status text.
type testOutcome int

const (
	testPending testOutcome = iota
	testMatched
	testNoMatch
)

var matchCountRe = regexp.MustCompile(`(\d+)\s+match`)

var testPollInterval = 400 * time.Millisecond

// RunTest submits the pattern's sample data to the remote tester and polls
// for a classified outcome, bounded by maxTries iterations. Without catalog
// test data a single whitespace keep-alive is submitted so the dry run can
// still be attempted; the outcome is then not treated as pass/fail.
func RunTest(ctx context.Context, c console.Console, pattern *catalog.Pattern, maxTries int) (bool, error) {
	data := " "
	if pattern.HasTestData() {
		data = pattern.Test.Data
	}

	input, err := c.Element(selTestInput)
	if err != nil {
		return false, fmt.Errorf("failed locating test input: %w", err)
	}
	if err := input.Fill(data); err != nil {
		return false, fmt.Errorf("failed filling test input: %w", err)
	}

	for try := 0; try < maxTries; try++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		fieldError, err := readFieldError(c)
		if err != nil {
			return false, err
		}
		if fieldError != "" {
			return false, fmt.Errorf("remote validation error: %s", fieldError)
		}

		statusText, err := readTestStatus(c)
		if err != nil {
			return false, err
		}

		switch classifyTestStatus(statusText) {
		case testMatched:
			log.Debug().Str("pattern", pattern.Name).Str("status", statusText).Msg("Test data matched")
			return true, nil
		case testNoMatch:
			if !pattern.HasTestData() {
				// keep-alive submission, outcome is irrelevant
				return true, nil
			}
			return false, fmt.Errorf("test data did not match: %s", strings.TrimSpace(statusText))
		case testPending:
			time.Sleep(testPollInterval)
		}
	}

	if !pattern.HasTestData() {
		return true, nil
	}
	return false, fmt.Errorf("test result not observed within %d tries", maxTries)
}

func readTestStatus(c console.Console) (string, error) {
	has, el, err := c.Has(selTestResult)
	if err != nil {
		return "", err
	}
	if !has {
		return "", nil
	}
	return el.Text()
}

func readFieldError(c console.Console) (string, error) {
	has, el, err := c.Has(selTestError)
	if err != nil {
		return "", err
	}
	if !has {
		return "", nil
	}
	if visible, _ := el.Visible(); !visible {
		return "", nil
	}
	return el.Text()
}

func classifyTestStatus(text string) testOutcome {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	if m := matchCountRe.FindStringSubmatch(trimmed); m != nil && m[1] != "0" {
		return testMatched
	}
	if strings.Contains(lower, "no match") || strings.HasPrefix(trimmed, "0 match") {
		return testNoMatch
	}
	return testPending
}
