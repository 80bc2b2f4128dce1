package sync

import (
	"context"
	"testing"

	"github.com/CompassSecurity/patternsync/pkg/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func desiredPattern() *catalog.Pattern {
	p := &catalog.Pattern{
		Name: "Token A",
		Regex: catalog.Regex{
			Pattern:            `token-[0-9a-f]{32}`,
			AdditionalMatch:    []string{`[0-9]`},
			AdditionalNotMatch: []string{`example`},
		},
	}
	p.ApplyAnchorDefaults()
	return p
}

// formHTML renders a server-side pattern form snapshot.
func formHTML(pattern string, start string, end string, rules string) string {
	return `<html><body><form>
<input id="display_name" value="Token A">
<input id="secret_format" value="` + pattern + `">
<input id="before_secret" value="` + start + `">
<input id="after_secret" value="` + end + `">
` + rules + `</form></body></html>`
}

func ruleHTML(value string, ruleType string) string {
	return `<div class="js-post-processing-rule"><input value="` + value + `">` +
		`<select><option value="` + ruleType + `" selected></option></select></div>`
}

func matchingFormHTML() string {
	return formHTML(
		`token-[0-9a-f]{32}`, `\A|[^0-9A-Za-z]`, `\z|[^0-9A-Za-z]`,
		ruleHTML(`[0-9]`, ruleTypeMustMatch)+ruleHTML(`example`, ruleTypeMustNotMatch))
}

func addFormElements(page *fakePage, ruleSlots int) map[string]*fakeElement {
	els := map[string]*fakeElement{}
	for _, sel := range []string{selNameField, selPatternField, selStartField, selEndField, selAddRule} {
		els[sel] = page.set(sel, newFakeElement(""))
	}
	for i := 0; i < ruleSlots; i++ {
		els[selRuleInput(i)] = page.set(selRuleInput(i), newFakeElement(""))
		els[selRuleType(i)] = page.set(selRuleType(i), newFakeElement(""))
		els[selRuleRemove(i)] = page.set(selRuleRemove(i), newFakeElement(""))
	}
	return els
}

func TestFillPatternCreatePath(t *testing.T) {
	c := newFakeConsole()
	page := c.addPage(testTarget.NewPatternURL(), newFakePage(""))
	els := addFormElements(page, 2)

	needsSubmit, err := FillPattern(context.Background(), c, desiredPattern(), "", testTarget, false)
	require.NoError(t, err)
	assert.True(t, needsSubmit)

	assert.Equal(t, []string{testTarget.NewPatternURL()}, c.navigations)
	assert.Equal(t, []string{"Token A"}, els[selNameField].filled)
	assert.Equal(t, []string{`token-[0-9a-f]{32}`}, els[selPatternField].filled)
	assert.Equal(t, []string{catalog.DefaultStart}, els[selStartField].filled)
	assert.Equal(t, []string{catalog.DefaultEnd}, els[selEndField].filled)

	// one add click per rule, must-match first, must-not-match after
	assert.Equal(t, 2, els[selAddRule].clicks)
	assert.Equal(t, []string{`[0-9]`}, els[selRuleInput(0)].filled)
	assert.Equal(t, []string{"Must match"}, els[selRuleType(0)].selections)
	assert.Equal(t, []string{`example`}, els[selRuleInput(1)].filled)
	assert.Equal(t, []string{"Must not match"}, els[selRuleType(1)].selections)
}

func TestFillPatternUnchangedNeedsNoSubmit(t *testing.T) {
	c := newFakeConsole()
	url := testTarget.PatternURL("/patterns/5")
	page := c.addPage(url, newFakePage(matchingFormHTML()))
	els := addFormElements(page, 2)

	needsSubmit, err := FillPattern(context.Background(), c, desiredPattern(), "/patterns/5", testTarget, false)
	require.NoError(t, err)
	assert.False(t, needsSubmit)

	// idempotence: no field was touched
	for sel, el := range els {
		assert.Empty(t, el.filled, sel)
		assert.Zero(t, el.clicks, sel)
	}
}

func TestFillPatternTrimNormalization(t *testing.T) {
	c := newFakeConsole()
	url := testTarget.PatternURL("/patterns/5")
	page := c.addPage(url, newFakePage(formHTML(
		`  token-[0-9a-f]{32} `, `\A|[^0-9A-Za-z]`, `\z|[^0-9A-Za-z]`,
		ruleHTML(` [0-9] `, ruleTypeMustMatch)+ruleHTML(`example`, ruleTypeMustNotMatch))))
	addFormElements(page, 2)

	needsSubmit, err := FillPattern(context.Background(), c, desiredPattern(), "/patterns/5", testTarget, false)
	require.NoError(t, err)
	assert.False(t, needsSubmit)
}

func TestFillPatternRuleCountMismatchForcesRewrite(t *testing.T) {
	c := newFakeConsole()
	url := testTarget.PatternURL("/patterns/5")
	page := c.addPage(url, newFakePage(formHTML(
		`token-[0-9a-f]{32}`, `\A|[^0-9A-Za-z]`, `\z|[^0-9A-Za-z]`,
		ruleHTML(`[0-9]`, ruleTypeMustMatch))))
	els := addFormElements(page, 2)

	needsSubmit, err := FillPattern(context.Background(), c, desiredPattern(), "/patterns/5", testTarget, false)
	require.NoError(t, err)
	assert.True(t, needsSubmit)

	// the single existing rule is removed before repopulating both
	assert.Equal(t, 1, els[selRuleRemove(0)].clicks)
	assert.Equal(t, 2, els[selAddRule].clicks)
	assert.Equal(t, []string{`[0-9]`}, els[selRuleInput(0)].filled)
	assert.Equal(t, []string{`example`}, els[selRuleInput(1)].filled)
}

func TestFillPatternRuleStateMismatch(t *testing.T) {
	c := newFakeConsole()
	url := testTarget.PatternURL("/patterns/5")
	// same values but the second rule is flipped to must-match
	page := c.addPage(url, newFakePage(formHTML(
		`token-[0-9a-f]{32}`, `\A|[^0-9A-Za-z]`, `\z|[^0-9A-Za-z]`,
		ruleHTML(`[0-9]`, ruleTypeMustMatch)+ruleHTML(`example`, ruleTypeMustMatch))))
	addFormElements(page, 2)

	needsSubmit, err := FillPattern(context.Background(), c, desiredPattern(), "/patterns/5", testTarget, false)
	require.NoError(t, err)
	assert.True(t, needsSubmit)
}

func TestFillPatternForceSubmission(t *testing.T) {
	c := newFakeConsole()
	url := testTarget.PatternURL("/patterns/5")
	page := c.addPage(url, newFakePage(matchingFormHTML()))
	els := addFormElements(page, 2)

	needsSubmit, err := FillPattern(context.Background(), c, desiredPattern(), "/patterns/5", testTarget, true)
	require.NoError(t, err)
	assert.True(t, needsSubmit)
	assert.NotEmpty(t, els[selPatternField].filled)
}

func TestDesiredRulesOrdering(t *testing.T) {
	pattern := &catalog.Pattern{
		Regex: catalog.Regex{
			AdditionalMatch:    []string{"a", "b"},
			AdditionalNotMatch: []string{"c"},
		},
	}

	rules := desiredRules(pattern)
	require.Len(t, rules, 3)
	assert.Equal(t, fieldRule{MustMatch: true, Value: "a"}, rules[0])
	assert.Equal(t, fieldRule{MustMatch: true, Value: "b"}, rules[1])
	assert.Equal(t, fieldRule{MustMatch: false, Value: "c"}, rules[2])
}
