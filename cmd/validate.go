package cmd

import (
	"github.com/CompassSecurity/patternsync/pkg/catalog"
	"github.com/CompassSecurity/patternsync/pkg/logging"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type ValidateOptions struct {
	Files   []string
	Verbose bool
}

var validateOptions = ValidateOptions{}

func NewValidateCmd() *cobra.Command {
	validateCmd := &cobra.Command{
		Use:   "validate [no options!]",
		Short: "Validate pattern catalogs without touching the remote",
		Long:  `Load and validate pattern catalog files: structural errors, duplicate names, offset sanity, RE2 compatibility warnings and missing-test-data suggestions. No remote interaction.`,
		Example: `
patternsync validate --file patterns.yml --file more-patterns.yml
		`,
		Run: Validate,
	}

	validateCmd.Flags().StringSliceVarP(&validateOptions.Files, "file", "f", []string{}, "Pattern catalog YAML file, repeatable")
	err := validateCmd.MarkFlagRequired("file")
	if err != nil {
		log.Fatal().Msg("Unable to require file flag")
	}

	validateCmd.PersistentFlags().BoolVarP(&validateOptions.Verbose, "verbose", "v", false, "Verbose logging")

	return validateCmd
}

func Validate(cmd *cobra.Command, args []string) {
	logging.SetLogLevel(validateOptions.Verbose)

	files, err := catalog.LoadAll(validateOptions.Files)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed loading pattern catalogs")
	}

	reports, ok := catalog.ValidateAll(files)
	for _, report := range reports {
		for _, msg := range report.Errors {
			log.Error().Str("file", report.File).Msg(msg)
		}
		for _, msg := range report.Warnings {
			log.Warn().Str("file", report.File).Msg(msg)
		}
		for _, msg := range report.Suggestions {
			log.Info().Str("file", report.File).Msg(msg)
		}
	}

	if !ok {
		log.Fatal().Int("files", len(files)).Msg("Validation failed")
	}
	log.Info().Int("files", len(files)).Msg("All catalogs valid")
}
