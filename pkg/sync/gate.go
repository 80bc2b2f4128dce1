package sync

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// gateState drives the explicit decision loop of the confirmation gate.
// Viewing always returns to Prompting, there is no recursion.
type gateState int

const (
	gatePrompting gateState = iota
	gateViewing
	gateDecided
)

// ShouldProceed gates publication on the dry-run hit count. Hit counts up
// to and including the threshold auto-proceed; anything strictly greater
// requires explicit confirmation with a safe default of no.
func ShouldProceed(name string, result *DryRunResult, threshold int, prompter Prompter) bool {
	if result.Hits <= threshold {
		log.Debug().Str("pattern", name).Int("hits", result.Hits).Int("threshold", threshold).Msg("Below dry run threshold, proceeding")
		return true
	}

	question := fmt.Sprintf("Pattern %q matched %d existing locations (threshold %d). Publish anyway?", name, result.Hits, threshold)

	proceed := false
	state := gatePrompting
	for state != gateDecided {
		switch state {
		case gatePrompting:
			switch prompter.AskPublish(question) {
			case AnswerYes:
				proceed = true
				state = gateDecided
			case AnswerView:
				state = gateViewing
			default:
				state = gateDecided
			}
		case gateViewing:
			logDryRunMatches(result)
			state = gatePrompting
		}
	}

	if !proceed {
		log.Info().Str("pattern", name).Msg("Publication declined")
	}
	return proceed
}

func logDryRunMatches(result *DryRunResult) {
	for i, match := range result.Results {
		log.Info().
			Int("hit", i+1).
			Str("match", orNA(match.Match)).
			Str("repository", orNA(match.RepositoryLocation)).
			Str("link", orNA(match.Link)).
			Msg("Dry run match")
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
