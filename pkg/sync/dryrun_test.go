package sync

import (
	"context"
	"testing"
	"time"

	"github.com/CompassSecurity/patternsync/pkg/scope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPatternID(t *testing.T) {
	assert.Equal(t, "42", extractPatternID("https://github.com/organizations/acme/settings/security_analysis/custom_patterns/42?dry_run=1"))
	assert.Equal(t, "", extractPatternID("https://github.com/organizations/acme/settings/security_analysis/custom_patterns/new"))
}

func repoTarget() scope.Target {
	return scope.Target{Server: "https://github.com", Name: "acme/api", Scope: scope.Repo}
}

const dryRunResultURL = "https://github.com/acme/api/settings/security_analysis/custom_patterns/42"

func dryRunConsole(status string, countText string, resultsHTML string) *fakeConsole {
	c := newFakeConsole()
	c.url = "https://github.com/acme/api/settings/security_analysis/custom_patterns/new"
	formPage := c.addPage(c.url, newFakePage(""))

	trigger := newFakeElement("Dry run")
	trigger.onClick = func() { c.url = dryRunResultURL }
	formPage.set(selDryRunButton, trigger)

	resultPage := c.addPage(dryRunResultURL, newFakePage(resultsHTML))
	statusEl := newFakeElement(status)
	resultPage.set(selDryRunStatus, statusEl)
	if countText != "" {
		resultPage.set(selDryRunCount, newFakeElement(countText))
	}
	return c
}

func TestRunDryRunRepoScopeNoHits(t *testing.T) {
	c := dryRunConsole("Completed", "0 results", "")
	cfg := &RunConfig{Target: repoTarget()}

	result, err := RunDryRun(context.Background(), c, "Token A", cfg)
	require.NoError(t, err)

	assert.Equal(t, "42", result.ID)
	assert.True(t, result.Completed)
	assert.Equal(t, 0, result.Hits)
	assert.Empty(t, result.Results)
}

func TestRunDryRunExtractsResults(t *testing.T) {
	resultsHTML := `<html><body><table data-dry-run-results><tbody>
<tr><td class="match"><code>token-abc</code></td><td class="repository"><a href="https://github.com/acme/x/blob/main/a.txt">acme/x</a></td></tr>
<tr><td class="match"><code>token-def</code></td><td class="repository"><a href="https://github.com/acme/y/blob/main/b.txt">acme/y</a></td></tr>
</tbody></table></body></html>`

	c := dryRunConsole("Completed", "2 results", resultsHTML)
	cfg := &RunConfig{Target: repoTarget()}

	result, err := RunDryRun(context.Background(), c, "Token A", cfg)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Hits)
	require.Len(t, result.Results, 2)
	assert.Equal(t, "token-abc", result.Results[0].Match)
	assert.Equal(t, "acme/x", result.Results[0].RepositoryLocation)
	assert.Equal(t, "https://github.com/acme/x/blob/main/a.txt", result.Results[0].Link)
}

func TestRunDryRunStatusFromStateBlob(t *testing.T) {
	c := dryRunConsole("something else entirely", "0 results", "")
	c.pages[dryRunResultURL].elements[selDryRunStatus].attrs["data-state"] = `{"status":"Completed"}`
	cfg := &RunConfig{Target: repoTarget()}

	result, err := RunDryRun(context.Background(), c, "Token A", cfg)
	require.NoError(t, err)
	assert.True(t, result.Completed)
}

func TestRunDryRunRemoteFailure(t *testing.T) {
	c := dryRunConsole("Failed", "", "")
	cfg := &RunConfig{Target: repoTarget()}

	result, err := RunDryRun(context.Background(), c, "Token A", cfg)
	assert.ErrorIs(t, err, ErrDryRunAborted)
	assert.Nil(t, result)
}

func TestRunDryRunPollCeiling(t *testing.T) {
	original := dryRunPollInterval
	dryRunPollInterval = time.Millisecond
	defer func() { dryRunPollInterval = original }()

	c := dryRunConsole("In progress", "", "")
	cfg := &RunConfig{Target: repoTarget(), MaxDryRunPolls: 2}

	result, err := RunDryRun(context.Background(), c, "Token A", cfg)
	assert.ErrorIs(t, err, ErrDryRunAborted)
	assert.Nil(t, result)
	assert.Equal(t, 2, c.reloads)
}

func TestRunDryRunMissingPatternID(t *testing.T) {
	c := newFakeConsole()
	c.url = "https://github.com/acme/api/settings/security_analysis/custom_patterns/new"
	page := c.addPage(c.url, newFakePage(""))
	page.set(selDryRunButton, newFakeElement("Dry run")) // click does not redirect

	cfg := &RunConfig{Target: repoTarget()}
	result, err := RunDryRun(context.Background(), c, "Token A", cfg)
	assert.ErrorIs(t, err, ErrDryRunAborted)
	assert.Nil(t, result)
}

func orgDryRunConsole(optionLabels []string) (*fakeConsole, *fakeElement, *fakeElement) {
	c := newFakeConsole()
	c.url = "https://github.com/organizations/acme/settings/security_analysis/custom_patterns/new"
	page := c.addPage(c.url, newFakePage(""))

	page.set(selDryRunButton, newFakeElement("Dry run"))
	page.set(selDryRunDialog, newFakeElement(""))
	page.set(selDryRunAllRepos, newFakeElement(""))
	page.set(selDryRunSelectRepos, newFakeElement(""))
	search := page.set(selDryRunRepoSearch, newFakeElement(""))

	for _, label := range optionLabels {
		page.lists[selDryRunRepoOption] = append(page.lists[selDryRunRepoOption], newFakeElement(label))
	}

	confirm := newFakeElement("Start dry run")
	confirm.onClick = func() {
		c.url = "https://github.com/organizations/acme/settings/security_analysis/custom_patterns/42"
	}
	page.set(selDryRunConfirm, confirm)

	resultPage := c.addPage("https://github.com/organizations/acme/settings/security_analysis/custom_patterns/42", newFakePage(""))
	resultPage.set(selDryRunStatus, newFakeElement("Completed"))
	resultPage.set(selDryRunCount, newFakeElement("0 results"))

	return c, search, confirm
}

func TestRunDryRunOrgScopeStripsOwnerPrefix(t *testing.T) {
	c, search, confirm := orgDryRunConsole([]string{"repoA", "repoB"})
	cfg := &RunConfig{
		Target:      scope.Target{Server: "https://github.com", Name: "acme", Scope: scope.Org},
		DryRunRepos: []string{"acme/repoA", "repoB"},
	}

	result, err := RunDryRun(context.Background(), c, "Token A", cfg)
	require.NoError(t, err)
	assert.True(t, result.Completed)

	// owner prefix is stripped before searching
	assert.Equal(t, []string{"repoA", "repoB"}, search.filled)
	assert.Equal(t, 1, confirm.clicks)
}

func TestRunDryRunOrgScopeCaseSensitiveMatch(t *testing.T) {
	c, _, confirm := orgDryRunConsole([]string{"REPOA"})
	cfg := &RunConfig{
		Target:      scope.Target{Server: "https://github.com", Name: "acme", Scope: scope.Org},
		DryRunRepos: []string{"repoA"},
	}

	result, err := RunDryRun(context.Background(), c, "Token A", cfg)
	assert.ErrorIs(t, err, ErrDryRunAborted)
	assert.Nil(t, result)
	assert.Equal(t, 0, confirm.clicks)
}

func TestRunDryRunOrgScopeZeroSelectedAborts(t *testing.T) {
	c, _, confirm := orgDryRunConsole(nil)
	cfg := &RunConfig{
		Target:      scope.Target{Server: "https://github.com", Name: "acme", Scope: scope.Org},
		DryRunRepos: []string{"missing"},
	}

	result, err := RunDryRun(context.Background(), c, "Token A", cfg)
	assert.ErrorIs(t, err, ErrDryRunAborted)
	assert.Nil(t, result)
	assert.Equal(t, 0, confirm.clicks)
}

func TestRunDryRunOrgScopeAllRepos(t *testing.T) {
	c, _, confirm := orgDryRunConsole(nil)
	allRepos := c.pages[c.url].elements[selDryRunAllRepos]
	cfg := &RunConfig{
		Target:         scope.Target{Server: "https://github.com", Name: "acme", Scope: scope.Org},
		DryRunAllRepos: true,
	}

	result, err := RunDryRun(context.Background(), c, "Token A", cfg)
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.Equal(t, 1, allRepos.clicks)
	assert.Equal(t, 1, confirm.clicks)
}
