package catalog

import (
	"fmt"
	"regexp"
)

// Report collects the outcome of validating one pattern file. Errors are
// hard stops, warnings and suggestions are informational.
type Report struct {
	File        string
	Errors      []string
	Warnings    []string
	Suggestions []string
}

func (r *Report) Valid() bool {
	return len(r.Errors) == 0
}

func (r *Report) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Report) suggestf(format string, args ...any) {
	r.Suggestions = append(r.Suggestions, fmt.Sprintf(format, args...))
}

// Validate runs the structural checks on a pattern file. A failing report
// is a hard stop before any remote interaction for that file.
func Validate(file *PatternFile) *Report {
	report := &Report{File: file.Path}

	if len(file.Patterns) == 0 {
		report.warnf("catalog contains no patterns")
	}

	seen := map[string]bool{}
	for i, pattern := range file.Patterns {
		label := pattern.Name
		if label == "" {
			label = fmt.Sprintf("pattern #%d", i+1)
		}

		if pattern.Name == "" {
			report.errorf("%s: name must not be empty", label)
		}
		if seen[pattern.Name] {
			report.errorf("%s: duplicate pattern name within catalog", label)
		}
		seen[pattern.Name] = true

		if pattern.Regex.Pattern == "" {
			report.errorf("%s: regex.pattern must not be empty", label)
		} else if _, err := regexp.Compile(pattern.Regex.Pattern); err != nil {
			// The remote engine uses a different regex dialect, a Go
			// compile failure is only a hint.
			report.warnf("%s: regex does not compile as RE2: %v", label, err)
		}

		for _, anchor := range []string{pattern.Regex.Start, pattern.Regex.End} {
			if anchor == "" {
				continue
			}
			if _, err := regexp.Compile(anchor); err != nil {
				report.warnf("%s: anchor %q does not compile as RE2: %v", label, anchor, err)
			}
		}

		if pattern.Test == nil || pattern.Test.Data == "" {
			report.suggestf("%s: no test data, the remote test result will be ignored", label)
		} else {
			if pattern.Test.StartOffset < 0 {
				report.errorf("%s: test.start_offset must be >= 0", label)
			}
			if pattern.Test.EndOffset != 0 && pattern.Test.EndOffset < pattern.Test.StartOffset {
				report.errorf("%s: test.end_offset must not be before test.start_offset", label)
			}
		}
	}

	return report
}

// ValidateAll validates every file and reports whether all passed.
func ValidateAll(files []*PatternFile) ([]*Report, bool) {
	reports := make([]*Report, 0, len(files))
	allValid := true
	for _, file := range files {
		report := Validate(file)
		if !report.Valid() {
			allValid = false
		}
		reports = append(reports, report)
	}
	return reports, allValid
}
