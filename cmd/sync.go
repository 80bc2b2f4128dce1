package cmd

import (
	"context"

	"github.com/CompassSecurity/patternsync/pkg/catalog"
	"github.com/CompassSecurity/patternsync/pkg/config"
	githubapi "github.com/CompassSecurity/patternsync/pkg/github"
	"github.com/CompassSecurity/patternsync/pkg/logging"
	"github.com/CompassSecurity/patternsync/pkg/sync"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type SyncOptions struct {
	Server         string
	Target         string
	Scope          string
	Files          []string
	Include        []string
	Exclude        []string
	Threshold      int
	PushProtection string
	DryRunRepos    []string
	AllRepos       bool
	MaxTestTries   int
	MaxDryRunPolls int
	Force          bool
	Debug          bool
	Verbose        bool
	Cookie         string
	AccessToken    string
}

var syncOptions = SyncOptions{}

func NewSyncCmd() *cobra.Command {
	syncCmd := &cobra.Command{
		Use:   "sync [no options!]",
		Short: "Synchronize a pattern catalog with the remote console",
		Long:  `Load pattern catalogs, diff them against the remote console, and create or update every diverged pattern: fill the form, run the remote tester, dry-run against real repositories, confirm above the threshold, publish and configure push protection.`,
		Example: `
# Sync an organization's patterns
patternsync sync --cookie <session> --target acme --scope org --file patterns.yml

# Sync a single repository, everything above 5 dry run hits needs confirmation
patternsync sync --cookie <session> --target acme/api --scope repo --file patterns.yml --threshold 5

# Enterprise sync with explicit dry run repositories and API pre-flight
patternsync sync --cookie <session> --target megacorp --scope enterprise --file patterns.yml --dry-run-repos acme/api,acme/web --token github_pat_xxx
		`,
		Run: Sync,
	}

	syncCmd.Flags().StringVarP(&syncOptions.Cookie, "cookie", "c", "", "Console session cookie value")
	err := syncCmd.MarkFlagRequired("cookie")
	if err != nil {
		log.Fatal().Msg("Unable to require cookie flag")
	}

	syncCmd.Flags().StringVarP(&syncOptions.Target, "target", "", "", "Target identifier: owner/repo, organization login or enterprise slug")
	err = syncCmd.MarkFlagRequired("target")
	if err != nil {
		log.Fatal().Msg("Unable to require target flag")
	}

	syncCmd.Flags().StringSliceVarP(&syncOptions.Files, "file", "f", []string{}, "Pattern catalog YAML file, repeatable")
	err = syncCmd.MarkFlagRequired("file")
	if err != nil {
		log.Fatal().Msg("Unable to require file flag")
	}

	syncCmd.Flags().StringVarP(&syncOptions.Server, "server", "g", "https://github.com", "Console base URL")
	syncCmd.Flags().StringVarP(&syncOptions.Scope, "scope", "s", "repo", "Target scope: repo, org or enterprise")
	syncCmd.Flags().StringSliceVarP(&syncOptions.Include, "include", "", []string{}, "Only sync patterns with these names")
	syncCmd.Flags().StringSliceVarP(&syncOptions.Exclude, "exclude", "", []string{}, "Never sync patterns with these names, wins over --include")
	syncCmd.Flags().IntVarP(&syncOptions.Threshold, "threshold", "", 0, "Dry run hit count above which publication requires confirmation")
	syncCmd.Flags().StringVarP(&syncOptions.PushProtection, "push-protection", "", "", "Push protection handling: enable, disable or keep. Unset prompts per pattern")
	syncCmd.Flags().StringSliceVarP(&syncOptions.DryRunRepos, "dry-run-repos", "", []string{}, "Repositories to dry-run against at org/enterprise scope")
	syncCmd.Flags().BoolVarP(&syncOptions.AllRepos, "all-repos", "", false, "Dry-run against all repositories of the org/enterprise")
	syncCmd.Flags().IntVarP(&syncOptions.MaxTestTries, "max-test-tries", "", sync.DefaultMaxTestTries, "Max polls for a remote tester result")
	syncCmd.Flags().IntVarP(&syncOptions.MaxDryRunPolls, "max-dry-run-polls", "", sync.DefaultMaxDryRunPolls, "Max polls for dry run completion, 0 polls forever")
	syncCmd.Flags().BoolVarP(&syncOptions.Force, "force", "", false, "Resubmit patterns even when the remote form already matches")
	syncCmd.Flags().StringVarP(&syncOptions.AccessToken, "token", "t", "", "API token for the optional dry-run repository pre-flight")
	syncCmd.Flags().BoolVarP(&syncOptions.Debug, "debug", "", false, "Keep the browser window visible and take screenshots on failures")
	syncCmd.PersistentFlags().BoolVarP(&syncOptions.Verbose, "verbose", "v", false, "Verbose logging")
	syncCmd.MarkFlagsMutuallyExclusive("dry-run-repos", "all-repos")

	return syncCmd
}

func Sync(cmd *cobra.Command, args []string) {
	logging.SetLogLevel(syncOptions.Verbose)
	go logging.ShortcutListeners()

	if err := config.ValidateToken(syncOptions.Cookie, "cookie"); err != nil {
		log.Fatal().Err(err).Msg("Invalid cookie flag")
	}
	if err := config.ValidateThreshold(syncOptions.Threshold); err != nil {
		log.Fatal().Err(err).Msg("Invalid threshold flag")
	}
	if err := config.ValidateMaxTestTries(syncOptions.MaxTestTries); err != nil {
		log.Fatal().Err(err).Msg("Invalid max-test-tries flag")
	}

	mode, err := sync.ParsePushProtectionMode(syncOptions.PushProtection)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid push-protection flag")
	}

	target := buildTarget(syncOptions.Server, syncOptions.Target, syncOptions.Scope)

	files, err := catalog.LoadAll(syncOptions.Files)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed loading pattern catalogs")
	}

	ctx := context.Background()

	if syncOptions.AccessToken != "" && len(syncOptions.DryRunRepos) > 0 {
		client := githubapi.NewClient(syncOptions.AccessToken, apiBaseURL(target.Server))
		missing := githubapi.ValidateDryRunRepos(ctx, client, target, syncOptions.DryRunRepos)
		if len(missing) > 0 {
			log.Warn().Strs("repositories", missing).Msg("Dry run repositories not found via API, the dialog match decides")
		}
	}

	cookieSessionValid(target, syncOptions.Cookie)

	browser, page := launchConsole(target, syncOptions.Cookie, syncOptions.Debug)
	defer browser.Close()

	cfg := &sync.RunConfig{
		Target:          target,
		Files:           syncOptions.Files,
		Include:         syncOptions.Include,
		Exclude:         syncOptions.Exclude,
		DryRunThreshold: syncOptions.Threshold,
		DryRunRepos:     syncOptions.DryRunRepos,
		DryRunAllRepos:  syncOptions.AllRepos,
		MaxDryRunPolls:  syncOptions.MaxDryRunPolls,
		PushProtection:  mode,
		MaxTestTries:    syncOptions.MaxTestTries,
		ForceSubmission: syncOptions.Force,
		Debug:           syncOptions.Debug,
	}

	sess := sync.NewSession(page, cfg, sync.NewTerminalPrompter())
	logging.RegisterStatusHook(sess.StatusEvent)

	if err := sync.Run(ctx, sess, files); err != nil {
		browser.Close()
		log.Fatal().Err(err).Msg("Synchronization aborted")
	}
}
