package catalog

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// ExportProvenance records where a downloaded catalog came from. It is
// rendered as a header comment so the export stays a loadable catalog.
type ExportProvenance struct {
	Server     string
	Target     string
	Scope      string
	Downloaded time.Time
	// Description is an optional target description line, shown when known.
	Description string
}

// Export writes a pattern file to path, prefixed with provenance comments.
func Export(file *PatternFile, prov ExportProvenance, path string) error {
	var doc yaml.Node
	if err := doc.Encode(file); err != nil {
		return fmt.Errorf("failed encoding catalog: %w", err)
	}

	doc.HeadComment = fmt.Sprintf(
		"Downloaded secret scanning custom patterns\nserver: %s\ntarget: %s (%s)\ndate: %s",
		prov.Server, prov.Target, prov.Scope, prov.Downloaded.UTC().Format(time.RFC3339))
	if prov.Description != "" {
		doc.HeadComment += "\ndescription: " + prov.Description
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("failed marshalling catalog: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed finalizing catalog: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed writing catalog to %s: %w", path, err)
	}

	log.Info().Str("file", path).Int("patterns", len(file.Patterns)).Msg("Exported patterns")
	return nil
}
