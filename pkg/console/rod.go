package console

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog/log"
)

// Options configures the rod-backed console.
type Options struct {
	// Headful keeps the browser window visible, useful with --debug.
	Headful bool
	// WaitTimeout bounds every individual wait condition.
	WaitTimeout time.Duration
}

const defaultWaitTimeout = 15 * time.Second

// Browser owns the Chromium process and the authenticated session cookies.
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	opts     Options
}

// Launch starts Chromium and injects the session cookies for serverURL.
func Launch(serverURL string, cookies []*http.Cookie, opts Options) (*Browser, error) {
	if opts.WaitTimeout == 0 {
		opts.WaitTimeout = defaultWaitTimeout
	}

	l := launcher.New().Headless(!opts.Headful)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed launching browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("failed connecting to browser: %w", err)
	}

	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, cookie := range cookies {
		params = append(params, &proto.NetworkCookieParam{
			Name:     cookie.Name,
			Value:    cookie.Value,
			URL:      serverURL,
			HTTPOnly: true,
			Secure:   strings.HasPrefix(serverURL, "https://"),
		})
	}
	if len(params) > 0 {
		if err := browser.SetCookies(params); err != nil {
			_ = browser.Close()
			l.Cleanup()
			return nil, fmt.Errorf("failed setting session cookies: %w", err)
		}
	}

	log.Debug().Bool("headful", opts.Headful).Msg("Browser launched")
	return &Browser{browser: browser, launcher: l, opts: opts}, nil
}

// NewPage opens a fresh browsing context.
func (b *Browser) NewPage(ctx context.Context, url string) (Console, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, classify(err)
	}

	console := &rodConsole{page: page, browser: b}
	if url != "" {
		if err := console.Navigate(ctx, url); err != nil {
			_ = console.Close()
			return nil, err
		}
	}
	return console, nil
}

// Close shuts the browser down, including the Chromium process.
func (b *Browser) Close() {
	if err := b.browser.Close(); err != nil {
		log.Debug().Err(err).Msg("Failed closing browser")
	}
	b.launcher.Cleanup()
}

type rodConsole struct {
	page    *rod.Page
	browser *Browser
}

func (c *rodConsole) Navigate(ctx context.Context, url string) error {
	page := c.page.Context(ctx)
	for {
		err := page.Navigate(url)
		if err == nil {
			break
		}
		// in-flight page requests abort the navigation, retry until the
		// page settles
		if IsAborted(err) {
			log.Debug().Str("url", url).Msg("Navigation aborted, retrying")
			if err := ctx.Err(); err != nil {
				return err
			}
			time.Sleep(250 * time.Millisecond)
			continue
		}
		return classify(err)
	}
	if err := page.WaitLoad(); err != nil {
		return classify(err)
	}
	return nil
}

func (c *rodConsole) Reload(ctx context.Context) error {
	page := c.page.Context(ctx)
	if err := page.Reload(); err != nil {
		return classify(err)
	}
	if err := page.WaitLoad(); err != nil {
		return classify(err)
	}
	return nil
}

func (c *rodConsole) CurrentURL() string {
	info, err := c.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (c *rodConsole) HTML() (string, error) {
	html, err := c.page.HTML()
	if err != nil {
		return "", classify(err)
	}
	return html, nil
}

func (c *rodConsole) Element(selector string) (Element, error) {
	has, el, err := c.page.Has(selector)
	if err != nil {
		return nil, classify(err)
	}
	if !has {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	return &rodElement{el: el}, nil
}

func (c *rodConsole) Elements(selector string) ([]Element, error) {
	els, err := c.page.Elements(selector)
	if err != nil {
		return nil, classify(err)
	}
	result := make([]Element, 0, len(els))
	for _, el := range els {
		result = append(result, &rodElement{el: el})
	}
	return result, nil
}

func (c *rodConsole) Has(selector string) (bool, Element, error) {
	has, el, err := c.page.Has(selector)
	if err != nil {
		return false, nil, classify(err)
	}
	if !has {
		return false, nil, nil
	}
	return true, &rodElement{el: el}, nil
}

func (c *rodConsole) WaitVisible(ctx context.Context, selector string) (Element, error) {
	page := c.page.Context(ctx).Timeout(c.browser.opts.WaitTimeout)
	el, err := page.Element(selector)
	if err != nil {
		return nil, classify(err)
	}
	if err := el.WaitVisible(); err != nil {
		return nil, classify(err)
	}
	return &rodElement{el: el}, nil
}

func (c *rodConsole) WaitHidden(ctx context.Context, selector string) error {
	has, el, err := c.page.Has(selector)
	if err != nil {
		return classify(err)
	}
	if !has {
		return nil
	}
	if err := el.Context(ctx).Timeout(c.browser.opts.WaitTimeout).WaitInvisible(); err != nil {
		return classify(err)
	}
	return nil
}

func (c *rodConsole) OpenAux(ctx context.Context, url string) (Console, error) {
	return c.browser.NewPage(ctx, url)
}

func (c *rodConsole) Screenshot(path string) error {
	data, err := c.page.Screenshot(true, nil)
	if err != nil {
		return classify(err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed writing screenshot %s: %w", path, err)
	}
	log.Debug().Str("path", path).Msg("Screenshot saved")
	return nil
}

func (c *rodConsole) Close() error {
	return c.page.Close()
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Text() (string, error) {
	text, err := e.el.Text()
	if err != nil {
		return "", classify(err)
	}
	return text, nil
}

func (e *rodElement) Attribute(name string) (string, error) {
	attr, err := e.el.Attribute(name)
	if err != nil {
		return "", classify(err)
	}
	if attr == nil {
		return "", nil
	}
	return *attr, nil
}

func (e *rodElement) Fill(text string) error {
	if err := e.el.SelectAllText(); err != nil {
		return classify(err)
	}
	if err := e.el.Input(text); err != nil {
		return classify(err)
	}
	return nil
}

func (e *rodElement) Click() error {
	if err := e.el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return classify(err)
	}
	return nil
}

func (e *rodElement) Visible() (bool, error) {
	visible, err := e.el.Visible()
	if err != nil {
		return false, classify(err)
	}
	return visible, nil
}

func (e *rodElement) Enabled() (bool, error) {
	disabled, err := e.el.Property("disabled")
	if err != nil {
		return false, classify(err)
	}
	return !disabled.Bool(), nil
}

func (e *rodElement) SelectOption(label string) error {
	if err := e.el.Select([]string{label}, true, rod.SelectorTypeText); err != nil {
		return classify(err)
	}
	return nil
}

// IsAborted reports whether a navigation error is the transient
// aborted-request class, which callers retry instead of failing.
func IsAborted(err error) bool {
	return err != nil && strings.Contains(err.Error(), "net::ERR_ABORTED")
}

// classify folds browser transport failures into ErrSessionLost so the
// engine can tell the one fatal class apart from per-pattern failures.
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	for _, marker := range []string{"target closed", "page closed", "session closed", "websocket", "browser has been closed", "context canceled"} {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %v", ErrSessionLost, err)
		}
	}
	return err
}
