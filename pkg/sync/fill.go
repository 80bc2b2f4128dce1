package sync

import (
	"context"
	"fmt"
	"strings"

	"github.com/CompassSecurity/patternsync/pkg/catalog"
	"github.com/CompassSecurity/patternsync/pkg/console"
	"github.com/CompassSecurity/patternsync/pkg/scope"
	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

// fieldRule is one auxiliary must-match / must-not-match requirement as it
// appears in the remote form.
type fieldRule struct {
	MustMatch bool
	Value     string
}

// remoteForm is the current state of a pattern edit form, read from a page
// snapshot.
type remoteForm struct {
	Name    string
	Pattern string
	Start   string
	End     string
	Rules   []fieldRule
}

// FillPattern drives the pattern form towards the desired catalog state and
// reports whether a submit is needed. With no existing location the pattern
// is created from scratch; otherwise the remote form is read, diffed
// field-by-field, and only rewritten when something actually differs or
// force is set. Callers must have applied anchor defaults to the pattern
// beforehand.
func FillPattern(ctx context.Context, c console.Console, pattern *catalog.Pattern, existingLocation string, target scope.Target, force bool) (bool, error) {
	if existingLocation == "" {
		return true, fillCreate(ctx, c, pattern, target)
	}
	return fillUpdate(ctx, c, pattern, existingLocation, target, force)
}

func fillCreate(ctx context.Context, c console.Console, pattern *catalog.Pattern, target scope.Target) error {
	if err := c.Navigate(ctx, target.NewPatternURL()); err != nil {
		return fmt.Errorf("failed opening create form: %w", err)
	}
	if _, err := c.WaitVisible(ctx, selNameField); err != nil {
		return fmt.Errorf("create form never appeared: %w", err)
	}

	if err := fillField(c, selNameField, pattern.Name); err != nil {
		return err
	}
	if err := fillMainFields(c, pattern); err != nil {
		return err
	}
	if err := populateRules(c, desiredRules(pattern)); err != nil {
		return err
	}

	log.Debug().Str("pattern", pattern.Name).Msg("Filled create form")
	return nil
}

func fillUpdate(ctx context.Context, c console.Console, pattern *catalog.Pattern, location string, target scope.Target, force bool) (bool, error) {
	if err := c.Navigate(ctx, target.PatternURL(location)); err != nil {
		return false, fmt.Errorf("failed opening pattern page: %w", err)
	}
	if _, err := c.WaitVisible(ctx, selPatternField); err != nil {
		return false, fmt.Errorf("pattern form never appeared: %w", err)
	}

	current, err := readRemoteForm(c)
	if err != nil {
		return false, err
	}

	desired := desiredRules(pattern)
	if !force && formMatches(current, pattern, desired) {
		log.Info().Str("pattern", pattern.Name).Msg("Remote pattern unchanged, nothing to submit")
		return false, nil
	}

	if err := fillMainFields(c, pattern); err != nil {
		return false, err
	}
	if err := removeAllRules(c, len(current.Rules)); err != nil {
		return false, err
	}
	if err := populateRules(c, desired); err != nil {
		return false, err
	}

	log.Debug().Str("pattern", pattern.Name).Msg("Rewrote diverged pattern form")
	return true, nil
}

func fillMainFields(c console.Console, pattern *catalog.Pattern) error {
	if err := fillField(c, selPatternField, pattern.Regex.Pattern); err != nil {
		return err
	}
	if err := fillField(c, selStartField, pattern.Regex.Start); err != nil {
		return err
	}
	return fillField(c, selEndField, pattern.Regex.End)
}

func fillField(c console.Console, selector string, value string) error {
	el, err := c.Element(selector)
	if err != nil {
		return fmt.Errorf("failed locating field %s: %w", selector, err)
	}
	if err := el.Fill(value); err != nil {
		return fmt.Errorf("failed filling field %s: %w", selector, err)
	}
	return nil
}

// desiredRules flattens the catalog rule lists in form order: must-match
// rules first, must-not-match rules appended after them.
func desiredRules(pattern *catalog.Pattern) []fieldRule {
	rules := make([]fieldRule, 0, len(pattern.Regex.AdditionalMatch)+len(pattern.Regex.AdditionalNotMatch))
	for _, value := range pattern.Regex.AdditionalMatch {
		rules = append(rules, fieldRule{MustMatch: true, Value: value})
	}
	for _, value := range pattern.Regex.AdditionalNotMatch {
		rules = append(rules, fieldRule{MustMatch: false, Value: value})
	}
	return rules
}

// formMatches compares the remote form against the desired pattern after
// trim-normalization. The rule comparison is order- and count-sensitive: a
// length mismatch is always a change.
func formMatches(current *remoteForm, pattern *catalog.Pattern, desired []fieldRule) bool {
	if !normalizedEqual(current.Pattern, pattern.Regex.Pattern) {
		return false
	}
	if !normalizedEqual(current.Start, pattern.Regex.Start) {
		return false
	}
	if !normalizedEqual(current.End, pattern.Regex.End) {
		return false
	}
	if len(current.Rules) != len(desired) {
		return false
	}
	for i, rule := range desired {
		if current.Rules[i].MustMatch != rule.MustMatch {
			return false
		}
		if !normalizedEqual(current.Rules[i].Value, rule.Value) {
			return false
		}
	}
	return true
}

func normalizedEqual(a string, b string) bool {
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}

func removeAllRules(c console.Console, count int) error {
	for i := count - 1; i >= 0; i-- {
		el, err := c.Element(selRuleRemove(i))
		if err != nil {
			return fmt.Errorf("failed locating rule remove control %d: %w", i, err)
		}
		if err := el.Click(); err != nil {
			return fmt.Errorf("failed removing rule %d: %w", i, err)
		}
	}
	return nil
}

func populateRules(c console.Console, rules []fieldRule) error {
	for i, rule := range rules {
		addButton, err := c.Element(selAddRule)
		if err != nil {
			return fmt.Errorf("failed locating add rule control: %w", err)
		}
		if err := addButton.Click(); err != nil {
			return fmt.Errorf("failed adding rule row %d: %w", i, err)
		}

		if err := fillField(c, selRuleInput(i), rule.Value); err != nil {
			return err
		}

		typeSelect, err := c.Element(selRuleType(i))
		if err != nil {
			return fmt.Errorf("failed locating rule type select %d: %w", i, err)
		}
		label := "Must match"
		if !rule.MustMatch {
			label = "Must not match"
		}
		if err := typeSelect.SelectOption(label); err != nil {
			return fmt.Errorf("failed selecting rule type %d: %w", i, err)
		}
	}
	return nil
}

// readRemoteForm snapshots the current form state from the page markup.
// Server-rendered value attributes carry the persisted field values.
func readRemoteForm(c console.Console) (*remoteForm, error) {
	pageHTML, err := c.HTML()
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("failed parsing pattern form: %w", err)
	}

	form := &remoteForm{
		Name:    doc.Find(selNameField).AttrOr("value", ""),
		Pattern: doc.Find(selPatternField).AttrOr("value", ""),
		Start:   doc.Find(selStartField).AttrOr("value", ""),
		End:     doc.Find(selEndField).AttrOr("value", ""),
	}

	doc.Find(selRuleRow).Each(func(_ int, row *goquery.Selection) {
		value := row.Find("input").AttrOr("value", "")
		ruleType := row.Find("select option[selected]").AttrOr("value", ruleTypeMustMatch)
		form.Rules = append(form.Rules, fieldRule{
			MustMatch: ruleType != ruleTypeMustNotMatch,
			Value:     value,
		})
	})

	return form, nil
}
