package sync

import (
	"context"
	"fmt"

	"github.com/CompassSecurity/patternsync/pkg/console"
)

// fakeElement is a scripted element for engine tests. onClick and onFill
// hooks let tests mutate console state the way the remote UI would.
type fakeElement struct {
	text    string
	attrs   map[string]string
	visible bool
	enabled bool

	filled     []string
	clicks     int
	selections []string

	onClick func()
	onFill  func(text string)
}

func newFakeElement(text string) *fakeElement {
	return &fakeElement{text: text, attrs: map[string]string{}, visible: true, enabled: true}
}

func (e *fakeElement) Text() (string, error) { return e.text, nil }

func (e *fakeElement) Attribute(name string) (string, error) {
	return e.attrs[name], nil
}

func (e *fakeElement) Fill(text string) error {
	e.filled = append(e.filled, text)
	if e.onFill != nil {
		e.onFill(text)
	}
	return nil
}

func (e *fakeElement) Click() error {
	e.clicks++
	if e.onClick != nil {
		e.onClick()
	}
	return nil
}

func (e *fakeElement) Visible() (bool, error) { return e.visible, nil }
func (e *fakeElement) Enabled() (bool, error) { return e.enabled, nil }

func (e *fakeElement) SelectOption(label string) error {
	e.selections = append(e.selections, label)
	return nil
}

// fakePage is the element/markup state behind one URL.
type fakePage struct {
	html     string
	elements map[string]*fakeElement
	lists    map[string][]*fakeElement
}

func newFakePage(html string) *fakePage {
	return &fakePage{html: html, elements: map[string]*fakeElement{}, lists: map[string][]*fakeElement{}}
}

func (p *fakePage) set(selector string, el *fakeElement) *fakeElement {
	p.elements[selector] = el
	return el
}

// fakeConsole routes the console interface onto per-URL fake pages.
type fakeConsole struct {
	pages  map[string]*fakePage
	url    string
	navErr map[string]error

	navigations []string
	reloads     int
	screenshots int
	closed      bool

	auxFn func(url string) (console.Console, error)
}

func newFakeConsole() *fakeConsole {
	return &fakeConsole{pages: map[string]*fakePage{}, navErr: map[string]error{}}
}

func (c *fakeConsole) addPage(url string, page *fakePage) *fakePage {
	c.pages[url] = page
	return page
}

func (c *fakeConsole) page() *fakePage {
	if page, ok := c.pages[c.url]; ok {
		return page
	}
	return newFakePage("")
}

func (c *fakeConsole) Navigate(_ context.Context, url string) error {
	c.navigations = append(c.navigations, url)
	if err, ok := c.navErr[url]; ok {
		return err
	}
	c.url = url
	return nil
}

func (c *fakeConsole) Reload(_ context.Context) error {
	c.reloads++
	return nil
}

func (c *fakeConsole) CurrentURL() string { return c.url }

func (c *fakeConsole) HTML() (string, error) { return c.page().html, nil }

func (c *fakeConsole) Element(selector string) (console.Element, error) {
	if el, ok := c.page().elements[selector]; ok {
		return el, nil
	}
	return nil, fmt.Errorf("%w: %s", console.ErrNotFound, selector)
}

func (c *fakeConsole) Elements(selector string) ([]console.Element, error) {
	if list, ok := c.page().lists[selector]; ok {
		out := make([]console.Element, 0, len(list))
		for _, el := range list {
			out = append(out, el)
		}
		return out, nil
	}
	if el, ok := c.page().elements[selector]; ok {
		return []console.Element{el}, nil
	}
	return nil, nil
}

func (c *fakeConsole) Has(selector string) (bool, console.Element, error) {
	if el, ok := c.page().elements[selector]; ok {
		return true, el, nil
	}
	return false, nil, nil
}

func (c *fakeConsole) WaitVisible(_ context.Context, selector string) (console.Element, error) {
	if el, ok := c.page().elements[selector]; ok {
		return el, nil
	}
	return nil, fmt.Errorf("%w: %s", console.ErrNotFound, selector)
}

func (c *fakeConsole) WaitHidden(_ context.Context, _ string) error { return nil }

func (c *fakeConsole) OpenAux(_ context.Context, url string) (console.Console, error) {
	if c.auxFn != nil {
		return c.auxFn(url)
	}
	aux := &fakeConsole{pages: c.pages, navErr: map[string]error{}}
	if err, ok := c.navErr[url]; ok {
		return nil, err
	}
	aux.url = url
	return aux, nil
}

func (c *fakeConsole) Screenshot(_ string) error {
	c.screenshots++
	return nil
}

func (c *fakeConsole) Close() error {
	c.closed = true
	return nil
}

// fakePrompter replays a scripted sequence of answers and records every
// question it was asked.
type fakePrompter struct {
	confirmAnswers []bool
	publishAnswers []Answer
	questions      []string
}

func (p *fakePrompter) Confirm(question string) bool {
	p.questions = append(p.questions, question)
	if len(p.confirmAnswers) == 0 {
		return false
	}
	answer := p.confirmAnswers[0]
	p.confirmAnswers = p.confirmAnswers[1:]
	return answer
}

func (p *fakePrompter) AskPublish(question string) Answer {
	p.questions = append(p.questions, question)
	if len(p.publishAnswers) == 0 {
		return AnswerNo
	}
	answer := p.publishAnswers[0]
	p.publishAnswers = p.publishAnswers[1:]
	return answer
}
