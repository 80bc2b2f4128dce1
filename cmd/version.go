package cmd

import (
	"github.com/CompassSecurity/patternsync/pkg/update"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

const releaseRepo = "CompassSecurity/patternsync"

func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version and check for a newer release",
		Run:   PrintVersion,
	}
}

func PrintVersion(cmd *cobra.Command, args []string) {
	log.Info().Str("version", Version).Msg("patternsync")

	result := update.CheckLatest(Version, releaseRepo)
	if result == nil {
		return
	}
	if result.NeedsUpdate() {
		log.Warn().Str("latest", result.Latest).Str("current", result.Current).Msg("A newer release is available")
	} else {
		log.Info().Msg("Up to date")
	}
}
