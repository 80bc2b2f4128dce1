package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `name: test patterns
patterns:
  - name: Generic token
    regex:
      version: "0.1"
      pattern: 'token-[0-9a-f]{32}'
      additional_match:
        - '[0-9]'
      additional_not_match:
        - 'example'
    test:
      data: 'token-0123456789abcdef0123456789abcdef'
    push_protection: true
  - name: Anchorless
    regex:
      pattern: 'secret'
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "patterns.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeCatalog(t, sampleCatalog)

	file, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test patterns", file.Name)
	assert.Equal(t, path, file.Path)
	require.Len(t, file.Patterns, 2)

	first := file.Patterns[0]
	assert.Equal(t, "Generic token", first.Name)
	assert.Equal(t, "token-[0-9a-f]{32}", first.Regex.Pattern)
	assert.Equal(t, []string{"[0-9]"}, first.Regex.AdditionalMatch)
	assert.Equal(t, []string{"example"}, first.Regex.AdditionalNotMatch)
	require.NotNil(t, first.PushProtection)
	assert.True(t, *first.PushProtection)
	assert.True(t, first.HasTestData())

	assert.False(t, file.Patterns[1].HasTestData())
}

func TestLoadNameDefaultsToFileName(t *testing.T) {
	path := writeCatalog(t, "patterns:\n  - name: a\n    regex:\n      pattern: b\n")

	file, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "patterns", file.Name)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestLoadAllContinuesPastFailures(t *testing.T) {
	good := writeCatalog(t, sampleCatalog)
	bad := filepath.Join(t.TempDir(), "missing.yml")

	files, err := LoadAll([]string{bad, good})
	assert.Error(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, good, files[0].Path)
}

func TestApplyAnchorDefaults(t *testing.T) {
	p := Pattern{Regex: Regex{Pattern: "secret"}}
	p.ApplyAnchorDefaults()
	assert.Equal(t, DefaultStart, p.Regex.Start)
	assert.Equal(t, DefaultEnd, p.Regex.End)

	explicit := Pattern{Regex: Regex{Pattern: "secret", Start: `\b`, End: `\b`}}
	explicit.ApplyAnchorDefaults()
	assert.Equal(t, `\b`, explicit.Regex.Start)
	assert.Equal(t, `\b`, explicit.Regex.End)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		file       PatternFile
		wantValid  bool
		wantErrors int
	}{
		{
			name: "valid",
			file: PatternFile{Patterns: []Pattern{
				{Name: "a", Regex: Regex{Pattern: "x"}},
			}},
			wantValid: true,
		},
		{
			name: "empty name",
			file: PatternFile{Patterns: []Pattern{
				{Regex: Regex{Pattern: "x"}},
			}},
			wantValid:  false,
			wantErrors: 1,
		},
		{
			name: "empty regex",
			file: PatternFile{Patterns: []Pattern{
				{Name: "a"},
			}},
			wantValid:  false,
			wantErrors: 1,
		},
		{
			name: "duplicate names",
			file: PatternFile{Patterns: []Pattern{
				{Name: "a", Regex: Regex{Pattern: "x"}},
				{Name: "a", Regex: Regex{Pattern: "y"}},
			}},
			wantValid:  false,
			wantErrors: 1,
		},
		{
			name: "bad offsets",
			file: PatternFile{Patterns: []Pattern{
				{Name: "a", Regex: Regex{Pattern: "x"}, Test: &Test{Data: "x", StartOffset: 5, EndOffset: 2}},
			}},
			wantValid:  false,
			wantErrors: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Validate(&tt.file)
			assert.Equal(t, tt.wantValid, report.Valid())
			if tt.wantErrors > 0 {
				assert.Len(t, report.Errors, tt.wantErrors)
			}
		})
	}
}

func TestValidateWarnsOnNonRE2(t *testing.T) {
	file := PatternFile{Patterns: []Pattern{
		{Name: "lookahead", Regex: Regex{Pattern: `foo(?=bar)`}},
	}}

	report := Validate(&file)
	assert.True(t, report.Valid())
	assert.NotEmpty(t, report.Warnings)
}

func TestValidateSuggestsTestData(t *testing.T) {
	file := PatternFile{Patterns: []Pattern{
		{Name: "a", Regex: Regex{Pattern: "x"}},
	}}

	report := Validate(&file)
	assert.NotEmpty(t, report.Suggestions)
}

func TestExportRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.yml")
	file := &PatternFile{
		Name: "downloaded",
		Patterns: []Pattern{
			{Name: "a", Regex: Regex{Pattern: "x", Start: DefaultStart, End: DefaultEnd}},
		},
	}

	prov := ExportProvenance{Server: "https://github.com", Target: "acme", Scope: "org", Downloaded: time.Now()}
	require.NoError(t, Export(file, prov, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Downloaded secret scanning custom patterns")
	assert.Contains(t, string(data), "target: acme (org)")

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "downloaded", reloaded.Name)
	require.Len(t, reloaded.Patterns, 1)
	assert.Equal(t, "x", reloaded.Patterns[0].Regex.Pattern)
}
