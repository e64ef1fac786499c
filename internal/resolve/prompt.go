package resolve

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"resume-tailor/resume/edits"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// Prompter asks an operator on a line-oriented terminal. It serves both as Interactor and Repairer.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter reads answers from in and writes prompts to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Choose prints the findings and reads a choice until a valid one is entered.
func (p *Prompter) Choose(ctx context.Context, findings []string) (Choice, error) {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, "Validation errors found:")
	p.printFindings(findings)
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		fmt.Fprint(p.out, "\nChoose: (s)oft-fail, (h)ard-fail, (m)anual, (r)etry, (a)ccept with warnings: ")
		answer, err := p.readLine()
		if err != nil {
			return 0, err
		}
		switch strings.ToLower(answer) {
		case "s", "soft", "fail:soft":
			return ChoiceFailSoft, nil
		case "h", "hard", "fail:hard":
			return ChoiceFailHard, nil
		case "m", "manual":
			return ChoiceManual, nil
		case "r", "retry":
			return ChoiceRetry, nil
		case "a", "accept":
			return ChoiceAccept, nil
		}
		fmt.Fprintln(p.out, "Invalid choice. Please enter s, h, m, r, or a.")
	}
}

// AwaitRepair waits for Enter, then reloads the edits file. Parse errors are shown and the wait repeats.
func (p *Prompter) AwaitRepair(ctx context.Context, store Store, findings []string) (edits.Set, error) {
	fmt.Fprintf(p.out, "Validation errors found. Please edit %s manually:\n", store.Path())
	p.printFindings(findings)
	for {
		if err := ctx.Err(); err != nil {
			return edits.Set{}, err
		}
		fmt.Fprintf(p.out, "Press Enter after editing %s to re-validate...", filepath.Base(store.Path()))
		if _, err := p.readLine(); err != nil {
			return edits.Set{}, err
		}
		set, err := store.Load()
		if err != nil {
			fmt.Fprintf(p.out, "Could not load %s: %v\n", store.Path(), err)
			continue
		}
		fmt.Fprintln(p.out, "File edited, re-validating...")
		return set, nil
	}
}

func (p *Prompter) printFindings(findings []string) {
	for _, f := range findings {
		fmt.Fprintf(p.out, "   %s\n", f)
	}
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

var (
	_ Interactor = (*Prompter)(nil)
	_ Repairer   = (*Prompter)(nil)
)
