package sync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/CompassSecurity/patternsync/pkg/catalog"
	"github.com/CompassSecurity/patternsync/pkg/console"
	"github.com/CompassSecurity/patternsync/pkg/scope"
	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

const protectionSearchRetries = 5

// remote indexing may lag pattern creation, give it a moment between
// search attempts
var protectionSearchDelay = 2 * time.Second

// ResolvePushProtection applies the precedence order for the desired push
// protection state: the explicit disable flag, the explicit enable flag,
// the per-pattern catalog field, then an interactive prompt defaulting to
// no. Keep skips the step entirely.
func ResolvePushProtection(mode PushProtectionMode, pattern *catalog.Pattern, prompter Prompter) (enable bool, skip bool) {
	switch mode {
	case PushProtectionKeep:
		return false, true
	case PushProtectionDisable:
		return false, false
	case PushProtectionEnable:
		return true, false
	}

	if pattern.PushProtection != nil {
		return *pattern.PushProtection, false
	}

	question := fmt.Sprintf("Enable push protection for pattern %q?", pattern.Name)
	return prompter.Confirm(question), false
}

// ConfigurePushProtection drives the scope-appropriate push protection
// control towards the desired state. Repo scope toggles directly on the
// pattern page with an idempotence check; org and enterprise scope go
// through the security settings table.
func ConfigurePushProtection(ctx context.Context, c console.Console, pattern string, enable bool, target scope.Target) error {
	switch target.Scope {
	case scope.Repo:
		return toggleRepoProtection(c, pattern, enable)
	case scope.Org, scope.Enterprise:
		return configureTableProtection(ctx, c, pattern, enable, target)
	default:
		return fmt.Errorf("unhandled scope %s", target.Scope)
	}
}

// toggleRepoProtection flips the binary control on the pattern page,
// clicking only when the current state differs from the desired one.
func toggleRepoProtection(c console.Console, pattern string, enable bool) error {
	toggle, err := c.Element(selProtectionToggle)
	if err != nil {
		return fmt.Errorf("failed locating push protection toggle: %w", err)
	}

	pressed, err := toggle.Attribute("aria-pressed")
	if err != nil {
		return err
	}
	current := pressed == "true"

	if current == enable {
		log.Debug().Str("pattern", pattern).Bool("enabled", current).Msg("Push protection already in desired state")
		return nil
	}

	if err := toggle.Click(); err != nil {
		return fmt.Errorf("failed toggling push protection: %w", err)
	}

	pressed, err = toggle.Attribute("aria-pressed")
	if err != nil {
		return err
	}
	if (pressed == "true") != enable {
		return fmt.Errorf("push protection toggle did not reach desired state for %q", pattern)
	}

	log.Info().Str("pattern", pattern).Bool("enabled", enable).Msg("Push protection updated")
	return nil
}

// configureTableProtection finds the pattern's row in the security settings
// table, retrying the search while remote indexing catches up, then drives
// the popover radio selection.
func configureTableProtection(ctx context.Context, c console.Console, pattern string, enable bool, target scope.Target) error {
	if err := c.Navigate(ctx, target.SecuritySettingsURL()); err != nil {
		return fmt.Errorf("failed opening security settings: %w", err)
	}

	found := false
	for attempt := 0; attempt < protectionSearchRetries; attempt++ {
		search, err := c.Element(selProtectionSearch)
		if err != nil {
			return fmt.Errorf("failed locating pattern search: %w", err)
		}
		if err := search.Fill(pattern); err != nil {
			return err
		}
		if err := c.WaitHidden(ctx, selListBusy); err != nil {
			return err
		}

		ok, err := protectionRowExists(c, pattern)
		if err != nil {
			return err
		}
		if ok {
			found = true
			break
		}

		log.Debug().Str("pattern", pattern).Int("attempt", attempt+1).Msg("Pattern row not indexed yet, retrying")
		time.Sleep(protectionSearchDelay)
		if err := c.Reload(ctx); err != nil {
			return err
		}
	}
	if !found {
		return fmt.Errorf("pattern %q never appeared in the push protection table", pattern)
	}

	menu, err := c.Element(selProtectionRowMenu(pattern))
	if err != nil {
		return fmt.Errorf("failed locating row menu: %w", err)
	}
	if err := menu.Click(); err != nil {
		return err
	}

	optionSel := selProtectionEnableOpt
	if !enable {
		optionSel = selProtectionDisableOpt
	}
	option, err := c.WaitVisible(ctx, optionSel)
	if err != nil {
		return fmt.Errorf("protection popover never appeared: %w", err)
	}
	if err := option.Click(); err != nil {
		return err
	}

	apply, err := c.Element(selProtectionApply)
	if err != nil {
		return fmt.Errorf("failed locating apply control: %w", err)
	}
	if err := apply.Click(); err != nil {
		return err
	}

	if flash, err := visibleFlash(c, selFlashError); err != nil {
		return err
	} else if flash != "" {
		return fmt.Errorf("push protection change rejected: %s", flash)
	}

	log.Info().Str("pattern", pattern).Bool("enabled", enable).Msg("Push protection updated")
	return nil
}

// logKeptProtectionState reads the current push protection state without
// altering it, for the "keep unchanged" mode. Only the repo scope exposes
// the state on the page that is already loaded.
func logKeptProtectionState(sess *Session, pattern string) {
	if sess.Config.Target.Scope != scope.Repo {
		return
	}
	has, toggle, err := sess.Console.Has(selProtectionToggle)
	if err != nil || !has {
		return
	}
	pressed, err := toggle.Attribute("aria-pressed")
	if err != nil {
		return
	}
	log.Debug().Str("pattern", pattern).Bool("enabled", pressed == "true").Msg("Push protection left unchanged")
}

// protectionRowExists checks the filtered table for an exact-name row.
func protectionRowExists(c console.Console, pattern string) (bool, error) {
	pageHTML, err := c.HTML()
	if err != nil {
		return false, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return false, fmt.Errorf("failed parsing protection table: %w", err)
	}

	found := false
	doc.Find(selProtectionRow).EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if row.AttrOr("data-pattern-name", "") == pattern {
			found = true
			return false
		}
		return true
	})
	return found, nil
}
