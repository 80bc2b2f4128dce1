package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/CompassSecurity/patternsync/pkg/console"
	"github.com/rs/zerolog/log"
)

// DeleteExisting removes remote patterns matching the configured
// include/exclude filters. The whole filtered batch gets exactly one
// confirmation; per-item failures are logged and skipped, only a lost
// session aborts the workflow.
func DeleteExisting(ctx context.Context, sess *Session) error {
	index, err := FindExisting(ctx, sess.Console, sess.Config.Target)
	if err != nil {
		return fmt.Errorf("failed discovering remote patterns: %w", err)
	}

	var selected []string
	for _, name := range index.Names() {
		if sess.Config.Selected(name) {
			selected = append(selected, name)
		}
	}

	if len(selected) == 0 {
		log.Info().Msg("No remote patterns match the filters, nothing to delete")
		return nil
	}

	question := fmt.Sprintf("Delete %d remote pattern(s) from %s (%s)?", len(selected), sess.Config.Target.Name, sess.Config.Target.Scope)
	for _, name := range selected {
		log.Info().Str("pattern", name).Msg("Marked for deletion")
	}
	if !sess.Prompter.Confirm(question) {
		log.Info().Msg("Deletion declined")
		return nil
	}

	for _, name := range selected {
		location, _ := index.Get(name)
		if err := deleteOne(ctx, sess, name, location); err != nil {
			if errors.Is(err, console.ErrSessionLost) {
				return err
			}
			sess.RecordFailure("", name, StageDelete, err)
			continue
		}
		sess.Processed++
		log.Info().Str("pattern", name).Msg("Pattern deleted")
	}

	return nil
}

func deleteOne(ctx context.Context, sess *Session, name string, location string) error {
	c := sess.Console
	if err := c.Navigate(ctx, sess.Config.Target.PatternURL(location)); err != nil {
		return fmt.Errorf("failed opening pattern page: %w", err)
	}

	trigger, err := c.Element(selDeleteButton)
	if err != nil {
		return fmt.Errorf("failed locating delete control: %w", err)
	}
	if err := trigger.Click(); err != nil {
		return err
	}

	if _, err := c.WaitVisible(ctx, selDeleteDialog); err != nil {
		return fmt.Errorf("delete dialog never appeared: %w", err)
	}

	confirm, err := c.Element(selDeleteDialogConfirm)
	if err != nil {
		return fmt.Errorf("failed locating delete confirmation: %w", err)
	}
	if err := confirm.Click(); err != nil {
		return err
	}

	if flash, err := visibleFlash(c, selFlashError); err != nil {
		return err
	} else if flash != "" {
		return fmt.Errorf("deletion rejected: %s", flash)
	}

	return nil
}
