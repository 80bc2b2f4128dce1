package cmd

import (
	"context"

	"github.com/CompassSecurity/patternsync/pkg/config"
	"github.com/CompassSecurity/patternsync/pkg/logging"
	"github.com/CompassSecurity/patternsync/pkg/sync"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type DeleteOptions struct {
	Server  string
	Target  string
	Scope   string
	Include []string
	Exclude []string
	Cookie  string
	Debug   bool
	Verbose bool
}

var deleteOptions = DeleteOptions{}

func NewDeleteCmd() *cobra.Command {
	deleteCmd := &cobra.Command{
		Use:   "delete [no options!]",
		Short: "Delete remote custom patterns",
		Long:  `Discover the remote patterns, apply the include/exclude filters, and delete the whole filtered batch after a single confirmation.`,
		Example: `
# Delete every remote pattern of an organization
patternsync delete --cookie <session> --target acme --scope org

# Delete two specific patterns
patternsync delete --cookie <session> --target acme --scope org --include "Token A","Token B"
		`,
		Run: Delete,
	}

	deleteCmd.Flags().StringVarP(&deleteOptions.Cookie, "cookie", "c", "", "Console session cookie value")
	err := deleteCmd.MarkFlagRequired("cookie")
	if err != nil {
		log.Fatal().Msg("Unable to require cookie flag")
	}

	deleteCmd.Flags().StringVarP(&deleteOptions.Target, "target", "", "", "Target identifier: owner/repo, organization login or enterprise slug")
	err = deleteCmd.MarkFlagRequired("target")
	if err != nil {
		log.Fatal().Msg("Unable to require target flag")
	}

	deleteCmd.Flags().StringVarP(&deleteOptions.Server, "server", "g", "https://github.com", "Console base URL")
	deleteCmd.Flags().StringVarP(&deleteOptions.Scope, "scope", "s", "repo", "Target scope: repo, org or enterprise")
	deleteCmd.Flags().StringSliceVarP(&deleteOptions.Include, "include", "", []string{}, "Only delete patterns with these names")
	deleteCmd.Flags().StringSliceVarP(&deleteOptions.Exclude, "exclude", "", []string{}, "Never delete patterns with these names, wins over --include")
	deleteCmd.Flags().BoolVarP(&deleteOptions.Debug, "debug", "", false, "Keep the browser window visible")
	deleteCmd.PersistentFlags().BoolVarP(&deleteOptions.Verbose, "verbose", "v", false, "Verbose logging")

	return deleteCmd
}

func Delete(cmd *cobra.Command, args []string) {
	logging.SetLogLevel(deleteOptions.Verbose)

	if err := config.ValidateToken(deleteOptions.Cookie, "cookie"); err != nil {
		log.Fatal().Err(err).Msg("Invalid cookie flag")
	}

	target := buildTarget(deleteOptions.Server, deleteOptions.Target, deleteOptions.Scope)

	cookieSessionValid(target, deleteOptions.Cookie)

	browser, page := launchConsole(target, deleteOptions.Cookie, deleteOptions.Debug)
	defer browser.Close()

	cfg := &sync.RunConfig{
		Target:  target,
		Include: deleteOptions.Include,
		Exclude: deleteOptions.Exclude,
		Debug:   deleteOptions.Debug,
	}
	sess := sync.NewSession(page, cfg, sync.NewTerminalPrompter())

	if err := sync.DeleteExisting(context.Background(), sess); err != nil {
		browser.Close()
		log.Fatal().Err(err).Msg("Deletion aborted")
	}
	sess.Summary()
}
