// Package scope models the breadth of a sync target. Every scope dispatch
// in the engine goes through an exhaustive switch over the three variants so
// adding a scope is a compile-time-checked change.
package scope

import (
	"fmt"
	"strings"
)

type Scope int

const (
	Repo Scope = iota
	Org
	Enterprise
)

// Parse maps the CLI scope flag onto a Scope.
func Parse(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "repo", "repository":
		return Repo, nil
	case "org", "organization":
		return Org, nil
	case "enterprise":
		return Enterprise, nil
	default:
		return Repo, fmt.Errorf("unknown scope %q, must be repo, org or enterprise", s)
	}
}

func (s Scope) String() string {
	switch s {
	case Repo:
		return "repo"
	case Org:
		return "org"
	case Enterprise:
		return "enterprise"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// Target binds a scope to its server and identifier: "owner/repo" for repo
// scope, organization login for org scope, enterprise slug for enterprise
// scope.
type Target struct {
	Server string
	Name   string
	Scope  Scope
}

// settingsBase is the scope-specific security settings path prefix.
func (t Target) settingsBase() string {
	server := strings.TrimSuffix(t.Server, "/")
	switch t.Scope {
	case Repo:
		return fmt.Sprintf("%s/%s/settings/security_analysis", server, t.Name)
	case Org:
		return fmt.Sprintf("%s/organizations/%s/settings/security_analysis", server, t.Name)
	case Enterprise:
		return fmt.Sprintf("%s/enterprises/%s/settings/advanced_security", server, t.Name)
	default:
		panic(fmt.Sprintf("unhandled scope %d", int(t.Scope)))
	}
}

// PatternListURL is the custom pattern listing page.
func (t Target) PatternListURL() string {
	return t.settingsBase() + "/custom_patterns"
}

// NewPatternURL is the create form for a new custom pattern.
func (t Target) NewPatternURL() string {
	return t.settingsBase() + "/custom_patterns/new"
}

// PatternURL is the edit page of an existing pattern, identified by the
// remote location handle captured during discovery.
func (t Target) PatternURL(location string) string {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return location
	}
	server := strings.TrimSuffix(t.Server, "/")
	return server + "/" + strings.TrimPrefix(location, "/")
}

// SecuritySettingsURL is the page carrying the per-pattern push protection
// configuration table for org and enterprise scope.
func (t Target) SecuritySettingsURL() string {
	return t.settingsBase()
}

// StripOwner reduces an "owner/repo" name to its repo segment. Repository
// pickers at org scope list bare repository names.
func StripOwner(name string) string {
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		return name[idx+1:]
	}
	return name
}
