// Package prompt implements the confirmation gate that decides whether each
// migration step goes ahead.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrInputClosed is returned when the operator's input ends mid-prompt.
var ErrInputClosed = errors.New("input closed")

// Gate answers the questions a migration run asks before each commit.
type Gate interface {
	// Confirm asks for a yes/no answer defaulting to yes.
	Confirm(question string) (bool, error)
	// Override asks whether to proceed after a failed live test.
	Override(question string) (bool, error)
	// Ask asks for a free-form answer, returning def on empty input.
	Ask(question, def string) (string, error)
}

// Auto answers every question without input. Confirm is always yes; Override
// follows the configured test failure policy.
type Auto struct {
	SaveOnFailure bool
}

func (a Auto) Confirm(string) (bool, error) { return true, nil }

func (a Auto) Override(string) (bool, error) { return a.SaveOnFailure, nil }

func (a Auto) Ask(_ string, def string) (string, error) { return def, nil }

// Interactive reads answers line by line from in and writes prompts to out.
// Everything that reads the operator's input must go through one Interactive,
// since its buffer may hold lines that have not been asked for yet.
type Interactive struct {
	in  *bufio.Reader
	out io.Writer
	fd  int // terminal descriptor for hidden input, -1 if none
}

// NewInteractive creates a gate reading from in and prompting on out.
func NewInteractive(in io.Reader, out io.Writer) *Interactive {
	return &Interactive{in: bufio.NewReader(in), out: out, fd: -1}
}

// Console is an interactive gate on stdin and stderr.
func Console() *Interactive {
	g := NewInteractive(os.Stdin, os.Stderr)
	g.fd = int(os.Stdin.Fd())
	return g
}

// Read reads the remaining input, including anything already buffered.
func (g *Interactive) Read(p []byte) (int, error) {
	return g.in.Read(p)
}

func (g *Interactive) readLine() (string, error) {
	line, err := g.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrInputClosed
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (g *Interactive) yesNo(question string, def bool) (bool, error) {
	hint := "[Y/n]"
	if !def {
		hint = "[y/N]"
	}
	for {
		fmt.Fprintf(g.out, "%s %s ", question, hint)
		answer, err := g.readLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(g.out, "Please answer y or n.")
	}
}

func (g *Interactive) Confirm(question string) (bool, error) {
	return g.yesNo(question, true)
}

func (g *Interactive) Override(question string) (bool, error) {
	return g.yesNo(question, false)
}

func (g *Interactive) Ask(question, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(g.out, "%s [%s]: ", question, def)
	} else {
		fmt.Fprintf(g.out, "%s: ", question)
	}
	answer, err := g.readLine()
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// Secret reads a line without echo when the input is a terminal. Otherwise
// it reads a plain line like Ask.
func (g *Interactive) Secret(question string) (string, error) {
	if g.fd < 0 || !term.IsTerminal(g.fd) || g.in.Buffered() > 0 {
		return g.Ask(question, "")
	}
	fmt.Fprintf(g.out, "%s: ", question)
	secret, err := term.ReadPassword(g.fd)
	fmt.Fprintln(g.out)
	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	return strings.TrimSpace(string(secret)), nil
}
