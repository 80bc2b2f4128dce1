// Package console abstracts the remote security-settings UI behind a small
// capability interface. The sync engine only ever talks to these interfaces,
// the rod adapter pins the real browser mechanics.
package console

import (
	"context"
	"errors"
)

// ErrSessionLost is the single fatal error class: the browser or the
// authenticated remote session is gone. It terminates the whole run, not
// just the current pattern.
var ErrSessionLost = errors.New("remote session lost")

// ErrNotFound is returned when a selector matches nothing.
var ErrNotFound = errors.New("element not found")

// Element is a handle to one located element in the remote console.
// Persisted field values are read from HTML snapshots, not element by
// element, so the interface carries no value reader.
type Element interface {
	// Text returns the rendered text content.
	Text() (string, error)
	// Attribute returns an attribute value, "" when absent.
	Attribute(name string) (string, error)
	// Fill clears the input and types text into it.
	Fill(text string) error
	Click() error
	Visible() (bool, error)
	Enabled() (bool, error)
	// SelectOption selects a dropdown option by exact label.
	SelectOption(label string) error
}

// Console is one browsing context on the remote console.
type Console interface {
	Navigate(ctx context.Context, url string) error
	Reload(ctx context.Context) error
	CurrentURL() string
	// HTML snapshots the full page markup for row-oriented extraction.
	HTML() (string, error)
	// Element returns the first match without waiting.
	Element(selector string) (Element, error)
	Elements(selector string) ([]Element, error)
	// Has reports whether a selector matches, without waiting.
	Has(selector string) (bool, Element, error)
	// WaitVisible blocks until the selector is present and visible.
	WaitVisible(ctx context.Context, selector string) (Element, error)
	// WaitHidden blocks until the selector matches nothing visible.
	WaitHidden(ctx context.Context, selector string) error
	// OpenAux opens a second browsing context for a read-only sub-lookup.
	// Callers close it as soon as its data is extracted.
	OpenAux(ctx context.Context, url string) (Console, error)
	Screenshot(path string) error
	Close() error
}
