package sync

import (
	"fmt"
	"slices"
	"strings"

	"github.com/CompassSecurity/patternsync/pkg/scope"
)

// PushProtectionMode controls how the push protection step treats each
// pattern. Precedence at apply time, highest first: Disable, Enable, the
// per-pattern catalog field, interactive prompt. Keep short-circuits the
// whole step.
type PushProtectionMode int

const (
	PushProtectionUnset PushProtectionMode = iota
	PushProtectionEnable
	PushProtectionDisable
	PushProtectionKeep
)

// ParsePushProtectionMode maps the CLI flag onto a mode. An empty string is
// Unset, meaning the user is prompted per pattern.
func ParsePushProtectionMode(s string) (PushProtectionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return PushProtectionUnset, nil
	case "enable":
		return PushProtectionEnable, nil
	case "disable":
		return PushProtectionDisable, nil
	case "keep":
		return PushProtectionKeep, nil
	default:
		return PushProtectionUnset, fmt.Errorf("unknown push protection mode %q, must be enable, disable or keep", s)
	}
}

func (m PushProtectionMode) String() string {
	switch m {
	case PushProtectionEnable:
		return "enable"
	case PushProtectionDisable:
		return "disable"
	case PushProtectionKeep:
		return "keep"
	default:
		return "unset"
	}
}

const (
	DefaultMaxTestTries = 25
	// DefaultMaxDryRunPolls of 0 means the dry-run completion poll is
	// unbounded.
	DefaultMaxDryRunPolls = 0
)

// RunConfig is the full configuration of one sync run. It is consumed, not
// parsed, by the engine; the commands own flag binding.
type RunConfig struct {
	Target scope.Target

	Files   []string
	Include []string
	Exclude []string

	DryRunThreshold int
	DryRunRepos     []string
	DryRunAllRepos  bool
	// MaxDryRunPolls bounds the completion poll, 0 = unbounded.
	MaxDryRunPolls int

	PushProtection PushProtectionMode

	MaxTestTries    int
	ForceSubmission bool
	Debug           bool
}

// ApplyDefaults fills unset numeric knobs.
func (c *RunConfig) ApplyDefaults() {
	if c.MaxTestTries <= 0 {
		c.MaxTestTries = DefaultMaxTestTries
	}
	if c.MaxDryRunPolls < 0 {
		c.MaxDryRunPolls = DefaultMaxDryRunPolls
	}
}

// Selected applies the include/exclude name filters. An empty include list
// selects everything; exclude wins over include.
func (c *RunConfig) Selected(name string) bool {
	if slices.Contains(c.Exclude, name) {
		return false
	}
	if len(c.Include) == 0 {
		return true
	}
	return slices.Contains(c.Include, name)
}
