package cmd

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "patternsync",
	Short: "Keep secret scanning custom patterns in sync with a GitHub security console",
	Long:  "Patternsync synchronizes a declarative YAML catalog of secret scanning custom patterns with the security settings console of a repository, organization or enterprise. Every pattern is dry-run tested against real repositories before it is published.",
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(NewSyncCmd())
	rootCmd.AddCommand(NewDeleteCmd())
	rootCmd.AddCommand(NewDownloadCmd())
	rootCmd.AddCommand(NewValidateCmd())
	rootCmd.AddCommand(NewVersionCmd())

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}
