package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Load reads and parses a single pattern catalog file.
func Load(path string) (*PatternFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed reading pattern file %s: %w", path, err)
	}

	file := &PatternFile{}
	if err := yaml.Unmarshal(data, file); err != nil {
		return nil, fmt.Errorf("failed parsing pattern file %s: %w", path, err)
	}

	file.Path = path
	if file.Name == "" {
		file.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	log.Debug().Str("file", path).Int("patterns", len(file.Patterns)).Msg("Loaded pattern catalog")
	return file, nil
}

// LoadAll loads every catalog path, aborting only the failing file. The
// returned error is non-nil if any file failed to load.
func LoadAll(paths []string) ([]*PatternFile, error) {
	files := make([]*PatternFile, 0, len(paths))
	var firstErr error
	for _, path := range paths {
		file, err := Load(path)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("Skipping pattern file")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		files = append(files, file)
	}
	return files, firstErr
}
