package cmd

import (
	"context"
	"strings"
	"time"

	"github.com/CompassSecurity/patternsync/pkg/catalog"
	"github.com/CompassSecurity/patternsync/pkg/config"
	githubapi "github.com/CompassSecurity/patternsync/pkg/github"
	"github.com/CompassSecurity/patternsync/pkg/logging"
	"github.com/CompassSecurity/patternsync/pkg/sync"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type DownloadOptions struct {
	Server      string
	Target      string
	Scope       string
	Include     []string
	Exclude     []string
	Cookie      string
	Output      string
	AccessToken string
	Debug       bool
	Verbose     bool
}

var downloadOptions = DownloadOptions{}

func NewDownloadCmd() *cobra.Command {
	downloadCmd := &cobra.Command{
		Use:   "download [no options!]",
		Short: "Download remote custom patterns into a catalog file",
		Long:  `Walk the remote pattern listing, read every pattern's form, and write a loadable catalog YAML with provenance comments. The export round-trips through sync.`,
		Example: `
# Export an organization's patterns
patternsync download --cookie <session> --target acme --scope org --output acme-patterns.yml
		`,
		Run: Download,
	}

	downloadCmd.Flags().StringVarP(&downloadOptions.Cookie, "cookie", "c", "", "Console session cookie value")
	err := downloadCmd.MarkFlagRequired("cookie")
	if err != nil {
		log.Fatal().Msg("Unable to require cookie flag")
	}

	downloadCmd.Flags().StringVarP(&downloadOptions.Target, "target", "", "", "Target identifier: owner/repo, organization login or enterprise slug")
	err = downloadCmd.MarkFlagRequired("target")
	if err != nil {
		log.Fatal().Msg("Unable to require target flag")
	}

	downloadCmd.Flags().StringVarP(&downloadOptions.Server, "server", "g", "https://github.com", "Console base URL")
	downloadCmd.Flags().StringVarP(&downloadOptions.Scope, "scope", "s", "repo", "Target scope: repo, org or enterprise")
	downloadCmd.Flags().StringSliceVarP(&downloadOptions.Include, "include", "", []string{}, "Only download patterns with these names")
	downloadCmd.Flags().StringSliceVarP(&downloadOptions.Exclude, "exclude", "", []string{}, "Never download patterns with these names, wins over --include")
	downloadCmd.Flags().StringVarP(&downloadOptions.Output, "output", "o", "patterns.yml", "Output catalog file")
	downloadCmd.Flags().StringVarP(&downloadOptions.AccessToken, "token", "t", "", "API token, enriches the export provenance with repository metadata")
	downloadCmd.Flags().BoolVarP(&downloadOptions.Debug, "debug", "", false, "Keep the browser window visible")
	downloadCmd.PersistentFlags().BoolVarP(&downloadOptions.Verbose, "verbose", "v", false, "Verbose logging")

	return downloadCmd
}

func Download(cmd *cobra.Command, args []string) {
	logging.SetLogLevel(downloadOptions.Verbose)

	if err := config.ValidateToken(downloadOptions.Cookie, "cookie"); err != nil {
		log.Fatal().Err(err).Msg("Invalid cookie flag")
	}

	target := buildTarget(downloadOptions.Server, downloadOptions.Target, downloadOptions.Scope)

	cookieSessionValid(target, downloadOptions.Cookie)

	browser, page := launchConsole(target, downloadOptions.Cookie, downloadOptions.Debug)
	defer browser.Close()

	cfg := &sync.RunConfig{
		Target:  target,
		Include: downloadOptions.Include,
		Exclude: downloadOptions.Exclude,
		Debug:   downloadOptions.Debug,
	}
	sess := sync.NewSession(page, cfg, sync.NewTerminalPrompter())

	file, err := sync.DownloadPatterns(context.Background(), sess)
	if err != nil {
		browser.Close()
		log.Fatal().Err(err).Msg("Download aborted")
	}

	prov := catalog.ExportProvenance{
		Server:     target.Server,
		Target:     target.Name,
		Scope:      target.Scope.String(),
		Downloaded: time.Now(),
	}
	if downloadOptions.AccessToken != "" {
		if owner, name, ok := strings.Cut(target.Name, "/"); ok {
			client := githubapi.NewClient(downloadOptions.AccessToken, apiBaseURL(target.Server))
			prov.Description = githubapi.RepoDescription(context.Background(), client, owner, name)
		}
	}
	if err := catalog.Export(file, prov, downloadOptions.Output); err != nil {
		log.Fatal().Err(err).Msg("Failed writing catalog export")
	}
	sess.Summary()
}
