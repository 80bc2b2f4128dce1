package sync

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Answer is the outcome of a publication prompt.
type Answer int

const (
	AnswerNo Answer = iota
	AnswerYes
	AnswerView
)

// Prompter asks the human the two questions the engine needs answered.
// The safe default of every question is no.
type Prompter interface {
	// Confirm asks a yes/no question, default no.
	Confirm(question string) bool
	// AskPublish asks yes/no/view-details, default no.
	AskPublish(question string) Answer
}

// TerminalPrompter reads answers line-wise from an input stream, normally
// stdin.
type TerminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{in: bufio.NewReader(os.Stdin), out: os.Stderr}
}

func (p *TerminalPrompter) Confirm(question string) bool {
	fmt.Fprintf(p.out, "%s [y/N] ", question)
	return p.readAnswer() == AnswerYes
}

func (p *TerminalPrompter) AskPublish(question string) Answer {
	fmt.Fprintf(p.out, "%s [y/N/v(iew)] ", question)
	return p.readAnswer()
}

func (p *TerminalPrompter) readAnswer() Answer {
	line, err := p.in.ReadString('\n')
	if err != nil {
		return AnswerNo
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return AnswerYes
	case "v", "view":
		return AnswerView
	default:
		return AnswerNo
	}
}
