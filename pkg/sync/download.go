package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/CompassSecurity/patternsync/pkg/catalog"
	"github.com/CompassSecurity/patternsync/pkg/console"
	"github.com/rs/zerolog/log"
)

// DownloadPatterns walks the remote pattern listing and reads every
// pattern's form into a loadable catalog. Each pattern page is opened in
// an auxiliary browsing context that is closed as soon as its data is
// extracted, so the main listing page stays put.
func DownloadPatterns(ctx context.Context, sess *Session) (*catalog.PatternFile, error) {
	index, err := FindExisting(ctx, sess.Console, sess.Config.Target)
	if err != nil {
		return nil, fmt.Errorf("failed discovering remote patterns: %w", err)
	}

	file := &catalog.PatternFile{Name: sess.Config.Target.Name}
	for _, name := range index.Names() {
		if !sess.Config.Selected(name) {
			continue
		}
		location, _ := index.Get(name)

		pattern, err := downloadOne(ctx, sess, name, location)
		if err != nil {
			if errors.Is(err, console.ErrSessionLost) {
				return nil, err
			}
			sess.RecordFailure("", name, StageDiscovery, err)
			continue
		}

		file.Patterns = append(file.Patterns, *pattern)
		log.Debug().Str("pattern", name).Msg("Downloaded pattern")
	}

	return file, nil
}

func downloadOne(ctx context.Context, sess *Session, name string, location string) (*catalog.Pattern, error) {
	aux, err := sess.Console.OpenAux(ctx, sess.Config.Target.PatternURL(location))
	if err != nil {
		return nil, fmt.Errorf("failed opening pattern page: %w", err)
	}
	defer func() { _ = aux.Close() }()

	if _, err := aux.WaitVisible(ctx, selPatternField); err != nil {
		return nil, fmt.Errorf("pattern form never appeared: %w", err)
	}

	form, err := readRemoteForm(aux)
	if err != nil {
		return nil, err
	}

	pattern := &catalog.Pattern{
		Name: name,
		Regex: catalog.Regex{
			Pattern: form.Pattern,
			Start:   form.Start,
			End:     form.End,
		},
	}
	for _, rule := range form.Rules {
		if rule.MustMatch {
			pattern.Regex.AdditionalMatch = append(pattern.Regex.AdditionalMatch, rule.Value)
		} else {
			pattern.Regex.AdditionalNotMatch = append(pattern.Regex.AdditionalNotMatch, rule.Value)
		}
	}

	// The push protection toggle only renders for published patterns at
	// repository scope. When present its state is kept so the export
	// round-trips through sync without re-prompting.
	if has, toggle, err := aux.Has(selProtectionToggle); err == nil && has {
		if pressed, err := toggle.Attribute("aria-pressed"); err == nil && pressed != "" {
			enabled := pressed == "true"
			pattern.PushProtection = &enabled
		}
	}

	return pattern, nil
}
