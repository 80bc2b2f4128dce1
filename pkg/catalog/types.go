package catalog

// Regex holds the regular expression parts of a custom pattern. Start and
// End are the boundary anchors shown as "before secret" / "after secret" in
// the console; empty values are normalized to the platform defaults before
// any remote comparison.
type Regex struct {
	Version            string   `yaml:"version,omitempty"`
	Pattern            string   `yaml:"pattern"`
	Start              string   `yaml:"start,omitempty"`
	End                string   `yaml:"end,omitempty"`
	AdditionalMatch    []string `yaml:"additional_match,omitempty"`
	AdditionalNotMatch []string `yaml:"additional_not_match,omitempty"`
}

// Test holds sample data the remote tester runs the pattern against.
type Test struct {
	Data        string `yaml:"data"`
	StartOffset int    `yaml:"start_offset,omitempty"`
	EndOffset   int    `yaml:"end_offset,omitempty"`
}

// Pattern is one named secret-detection rule from a catalog file.
type Pattern struct {
	Name           string   `yaml:"name"`
	Regex          Regex    `yaml:"regex"`
	Test           *Test    `yaml:"test,omitempty"`
	PushProtection *bool    `yaml:"push_protection,omitempty"`
	Comments       []string `yaml:"comments,omitempty"`
}

// PatternFile is an ordered catalog of patterns. Insertion order is
// application order.
type PatternFile struct {
	Name     string    `yaml:"name"`
	Patterns []Pattern `yaml:"patterns"`

	// Path is the filesystem origin, set by the loader.
	Path string `yaml:"-"`
}

// Platform default anchors. A pattern without explicit start/end anchors
// behaves exactly like one carrying these, so both sides are normalized to
// them before diffing.
const (
	DefaultStart = `\A|[^0-9A-Za-z]`
	DefaultEnd   = `\z|[^0-9A-Za-z]`
)

// ApplyAnchorDefaults fills absent start/end anchors with the platform
// defaults. Intentional normalization: "no anchor specified" and "explicit
// default anchor" are indistinguishable downstream.
func (p *Pattern) ApplyAnchorDefaults() {
	if p.Regex.Start == "" {
		p.Regex.Start = DefaultStart
	}
	if p.Regex.End == "" {
		p.Regex.End = DefaultEnd
	}
}

// HasTestData reports whether the catalog supplied sample data for the
// remote tester.
func (p *Pattern) HasTestData() bool {
	return p.Test != nil && p.Test.Data != ""
}
