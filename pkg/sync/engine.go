package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/CompassSecurity/patternsync/pkg/catalog"
	"github.com/CompassSecurity/patternsync/pkg/console"
	"github.com/rs/zerolog/log"
)

// stageError tags a per-pattern failure with the stage it happened in, so
// the batch loop can record it for the end-of-run summary.
type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string {
	return fmt.Sprintf("%s: %v", e.stage, e.err)
}

func (e *stageError) Unwrap() error {
	return e.err
}

func stageFail(stage string, err error) error {
	return &stageError{stage: stage, err: err}
}

// Run synchronizes every catalog file against the remote target. Failures
// on one pattern do not abort the batch; only a lost session does. The
// returned error is non-nil only for that fatal class or when discovery
// itself fails.
func Run(ctx context.Context, sess *Session, files []*catalog.PatternFile) error {
	cfg := sess.Config

	index, err := FindExisting(ctx, sess.Console, cfg.Target)
	if err != nil {
		return err
	}
	sess.Index = index

	for _, file := range files {
		report := catalog.Validate(file)
		for _, warning := range report.Warnings {
			log.Warn().Str("file", file.Path).Msg(warning)
		}
		for _, suggestion := range report.Suggestions {
			log.Debug().Str("file", file.Path).Msg(suggestion)
		}
		if !report.Valid() {
			for _, validationErr := range report.Errors {
				log.Error().Str("file", file.Path).Msg(validationErr)
			}
			sess.RecordFailure(file.Path, "", StageValidate, fmt.Errorf("%d validation error(s)", len(report.Errors)))
			continue
		}

		// Only patterns from files that passed validation count towards
		// the batch total reported by the status hook.
		for i := range file.Patterns {
			if cfg.Selected(file.Patterns[i].Name) {
				sess.Total++
			}
		}

		for i := range file.Patterns {
			pattern := &file.Patterns[i]
			if !cfg.Selected(pattern.Name) {
				log.Debug().Str("pattern", pattern.Name).Msg("Filtered out")
				continue
			}

			if err := processPattern(ctx, sess, file, pattern); err != nil {
				if errors.Is(err, console.ErrSessionLost) {
					sess.RecordFailure(file.Path, pattern.Name, stageOf(err), err)
					sess.Summary()
					return err
				}
				sess.RecordFailure(file.Path, pattern.Name, stageOf(err), errors.Unwrap(err))
			}
		}
	}

	sess.Summary()
	return nil
}

func stageOf(err error) string {
	var se *stageError
	if errors.As(err, &se) {
		return se.stage
	}
	return "unknown"
}

// processPattern runs one pattern through fill, test, dry run, gate,
// publish and push protection. An unchanged remote pattern short-circuits
// straight to the push protection step.
func processPattern(ctx context.Context, sess *Session, file *catalog.PatternFile, pattern *catalog.Pattern) error {
	cfg := sess.Config
	pattern.ApplyAnchorDefaults()

	location, exists := sess.Index.Get(pattern.Name)
	if exists {
		log.Info().Str("pattern", pattern.Name).Str("file", file.Path).Msg("Updating existing pattern")
	} else {
		log.Info().Str("pattern", pattern.Name).Str("file", file.Path).Msg("Creating new pattern")
	}

	needsSubmit, err := FillPattern(ctx, sess.Console, pattern, location, cfg.Target, cfg.ForceSubmission)
	if err != nil {
		sess.DebugScreenshot("fill")
		return stageFail(StageFill, err)
	}

	if needsSubmit {
		if _, err := RunTest(ctx, sess.Console, pattern, cfg.MaxTestTries); err != nil {
			sess.DebugScreenshot("test")
			return stageFail(StageTest, err)
		}

		result, err := RunDryRun(ctx, sess.Console, pattern.Name, cfg)
		if err != nil {
			sess.DebugScreenshot("dryrun")
			return stageFail(StageDryRun, err)
		}

		if !ShouldProceed(pattern.Name, result, cfg.DryRunThreshold, sess.Prompter) {
			sess.Skipped++
			sess.RecordFailure(file.Path, pattern.Name, StageConfirm, errors.New("publication declined"))
			return nil
		}

		if err := Publish(ctx, sess.Console, pattern.Name); err != nil {
			sess.DebugScreenshot("publish")
			return stageFail(StagePublish, err)
		}

		// freshly created patterns become visible to later ones in the
		// same batch
		if !exists {
			currentURL := sess.Console.CurrentURL()
			if extractPatternID(currentURL) != "" {
				sess.Index.Put(pattern.Name, currentURL)
			}
		}
	}

	enable, skip := ResolvePushProtection(cfg.PushProtection, pattern, sess.Prompter)
	if skip {
		logKeptProtectionState(sess, pattern.Name)
	} else {
		if err := ConfigurePushProtection(ctx, sess.Console, pattern.Name, enable, cfg.Target); err != nil {
			sess.DebugScreenshot("protection")
			return stageFail(StagePushProtection, err)
		}
	}

	sess.Processed++
	return nil
}
