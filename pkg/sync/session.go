package sync

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/CompassSecurity/patternsync/pkg/console"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Stage names used when recording per-pattern failures.
const (
	StageValidate       = "validate"
	StageDiscovery      = "discovery"
	StageFill           = "fill"
	StageTest           = "test"
	StageDryRun         = "dry-run"
	StageConfirm        = "confirm"
	StagePublish        = "publish"
	StagePushProtection = "push-protection"
	StageDelete         = "delete"
)

// PatternFailure records why one pattern was not fully processed.
type PatternFailure struct {
	File    string
	Pattern string
	Stage   string
	Err     error
}

// Session carries everything one run needs: the console handle, the run
// configuration, the remote pattern index, and result aggregation. It is
// created once per run and passed explicitly, never read from package
// state.
type Session struct {
	Console  console.Console
	Config   *RunConfig
	Index    *PatternIndex
	Prompter Prompter

	Failures  []PatternFailure
	Processed int
	Skipped   int
	Total     int
}

func NewSession(c console.Console, cfg *RunConfig, prompter Prompter) *Session {
	cfg.ApplyDefaults()
	return &Session{
		Console:  c,
		Config:   cfg,
		Index:    NewPatternIndex(),
		Prompter: prompter,
	}
}

func (s *Session) RecordFailure(file string, pattern string, stage string, err error) {
	s.Failures = append(s.Failures, PatternFailure{File: file, Pattern: pattern, Stage: stage, Err: err})
	log.Warn().Str("file", file).Str("pattern", pattern).Str("stage", stage).Err(err).Msg("Pattern not processed")
}

// StatusEvent feeds the "s" keyboard shortcut during a run.
func (s *Session) StatusEvent() *zerolog.Event {
	return log.Info().
		Int("processed", s.Processed).
		Int("skipped", s.Skipped).
		Int("failed", len(s.Failures)).
		Int("total", s.Total)
}

// DebugScreenshot takes a diagnostic screenshot when --debug is set.
func (s *Session) DebugScreenshot(tag string) {
	if !s.Config.Debug {
		return
	}
	name := fmt.Sprintf("patternsync-%s-%d.png", tag, time.Now().UnixMilli())
	if err := s.Console.Screenshot(filepath.Clean(name)); err != nil {
		log.Debug().Err(err).Str("tag", tag).Msg("Failed taking screenshot")
	}
}

// Summary logs the end-of-run report: every unprocessed pattern with its
// reason.
func (s *Session) Summary() {
	if len(s.Failures) == 0 {
		log.Info().Int("processed", s.Processed).Int("skipped", s.Skipped).Msg("All patterns processed")
		return
	}

	for _, failure := range s.Failures {
		log.Error().
			Str("file", failure.File).
			Str("pattern", failure.Pattern).
			Str("stage", failure.Stage).
			Err(failure.Err).
			Msg("Unprocessed pattern")
	}
	log.Warn().
		Int("processed", s.Processed).
		Int("skipped", s.Skipped).
		Int("failed", len(s.Failures)).
		Msg("Finished with failures")
}
