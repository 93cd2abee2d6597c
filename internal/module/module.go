// Package module models textbook sections ("modules") and the forward-only
// order in which a learner moves through them.
package module

import (
	"fmt"
	"strconv"
	"strings"
)

// Label identifies a textbook section as chapter.section.
type Label struct {
	Chapter int
	Section int
}

// ErrMalformed is returned for text that is not of the form "N.M".
type ErrMalformed struct {
	Input string
}

func (e *ErrMalformed) Error() string {
	return fmt.Sprintf("malformed module label %q: want <chapter>.<section>", e.Input)
}

// Parse decomposes "N.M" into a Label. Both parts must be non-negative
// decimal integers; their magnitude is not bounded.
func Parse(s string) (Label, error) {
	chapter, section, ok := strings.Cut(s, ".")
	if !ok {
		return Label{}, &ErrMalformed{Input: s}
	}
	c, err := parsePart(chapter)
	if err != nil {
		return Label{}, &ErrMalformed{Input: s}
	}
	sec, err := parsePart(section)
	if err != nil {
		return Label{}, &ErrMalformed{Input: s}
	}
	return Label{Chapter: c, Section: sec}, nil
}

func parsePart(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-digit %q", r)
		}
	}
	return strconv.Atoi(s)
}

// MustParse is Parse for labels known at compile time.
func MustParse(s string) Label {
	l, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return l
}

func (l Label) String() string {
	return fmt.Sprintf("%d.%d", l.Chapter, l.Section)
}

// Next returns the following section in the same chapter.
func (l Label) Next() Label {
	return Label{Chapter: l.Chapter, Section: l.Section + 1}
}

// Sequencer owns the terminal-module policy.
type Sequencer struct {
	Terminal Label
}

// NewSequencer creates a Sequencer ending at the given label.
func NewSequencer(terminal string) (Sequencer, error) {
	t, err := Parse(terminal)
	if err != nil {
		return Sequencer{}, err
	}
	return Sequencer{Terminal: t}, nil
}

// Next returns the module after current. It never rolls over into the
// next chapter and performs no check against the terminal label; callers
// consult IsTerminal before offering advancement.
func (s Sequencer) Next(current Label) Label {
	return current.Next()
}

// IsTerminal reports whether current is the configured final module.
func (s Sequencer) IsTerminal(current Label) bool {
	return current == s.Terminal
}

// NextLabel is Next over the string form.
func (s Sequencer) NextLabel(current string) (string, error) {
	l, err := Parse(current)
	if err != nil {
		return "", err
	}
	return s.Next(l).String(), nil
}

// IsTerminalLabel is IsTerminal over the string form. Malformed labels
// are never terminal.
func (s Sequencer) IsTerminalLabel(current string) bool {
	l, err := Parse(current)
	if err != nil {
		return false
	}
	return s.IsTerminal(l)
}
