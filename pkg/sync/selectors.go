package sync

import "fmt"

// Selectors for GitHub's custom pattern console. They are adapter detail:
// the engine's control flow never depends on markup beyond these constants.
const (
	// pattern listing
	selListBusy     = `[data-loading="custom-patterns"]`
	selListEmpty    = `.blankslate`
	selListRow      = `table[data-custom-patterns] tbody tr`
	selListRowLink  = `a.custom-pattern-link`
	selListNextPage = `a.next_page`

	// pattern form
	selNameField    = `#display_name`
	selPatternField = `#secret_format`
	selStartField   = `#before_secret`
	selEndField     = `#after_secret`
	selRuleRow      = `.js-post-processing-rule`
	selAddRule      = `button.js-add-rule`

	// tester
	selTestInput  = `#test_string`
	selTestResult = `.js-test-result`
	selTestError  = `.js-secret-format-error`

	// dry run
	selDryRunButton      = `button[name="dry_run"]`
	selDryRunDialog      = `#dry-run-repo-dialog`
	selDryRunAllRepos    = `#dry_run_all_repos`
	selDryRunSelectRepos = `#dry_run_selected_repos`
	selDryRunRepoSearch  = `#dry-run-repo-dialog input[type="search"]`
	selDryRunRepoOption  = `#dry-run-repo-dialog .select-menu-item`
	selDryRunConfirm     = `#dry-run-repo-dialog button[type="submit"]`
	selDryRunStatus      = `.js-dry-run-status`
	selDryRunCount       = `.js-dry-run-result-count`
	selDryRunResultRow   = `table[data-dry-run-results] tbody tr`

	// publish
	selPublishButton = `button[type="submit"].js-publish-pattern`
	selFlashNotice   = `.flash-notice`
	selFlashError    = `.flash-error`

	// push protection
	selProtectionToggle     = `button.js-push-protection-toggle`
	selProtectionSearch     = `#custom-pattern-search`
	selProtectionRow        = `table[data-push-protection] tbody tr`
	selProtectionEnableOpt  = `#push_protection_enable`
	selProtectionDisableOpt = `#push_protection_disable`
	selProtectionApply      = `button.js-push-protection-apply`

	// deletion
	selDeleteButton        = `button.js-delete-pattern`
	selDeleteDialog        = `#delete-pattern-dialog`
	selDeleteDialogConfirm = `#delete-pattern-dialog button[type="submit"]`
)

func selRuleInput(index int) string {
	return fmt.Sprintf(`#post_processing_rule_pattern_%d`, index)
}

func selRuleType(index int) string {
	return fmt.Sprintf(`#post_processing_rule_type_%d`, index)
}

func selRuleRemove(index int) string {
	return fmt.Sprintf(`#post_processing_rule_%d button.js-remove-rule`, index)
}

func selProtectionRowMenu(name string) string {
	return fmt.Sprintf(`tr[data-pattern-name=%q] button.js-push-protection-menu`, name)
}

// rule type select option values
const (
	ruleTypeMustMatch    = "must_match"
	ruleTypeMustNotMatch = "must_not_match"
)
