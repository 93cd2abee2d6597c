// Package gate is the identity screen shown before any quiz content.
package gate

import (
	"context"
	"errors"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/tutorai/tutorai/internal/identity"
	"github.com/tutorai/tutorai/internal/router"
	"github.com/tutorai/tutorai/internal/screen"
	"github.com/tutorai/tutorai/internal/ui/components"
	"github.com/tutorai/tutorai/internal/ui/layout"
	"github.com/tutorai/tutorai/internal/ui/theme"
)

// Identifier accepts a learner id.
type Identifier interface {
	SubmitIdentifier(ctx context.Context, input string) (identity.LearnerID, error)
}

// GateScreen collects and validates the four-digit learner id.
type GateScreen struct {
	ids    Identifier
	next   func() screen.Screen
	input  components.TextInput
	errMsg string
}

var _ screen.Screen = (*GateScreen)(nil)
var _ screen.KeyHintProvider = (*GateScreen)(nil)

// New creates the gate. next builds the screen shown once the id is
// accepted.
func New(ids Identifier, next func() screen.Screen) *GateScreen {
	return &GateScreen{
		ids:   ids,
		next:  next,
		input: components.NewTextInput("0000", true, 4),
	}
}

func (g *GateScreen) Init() tea.Cmd {
	return g.input.Init()
}

func (g *GateScreen) Title() string {
	return "Sign in"
}

func (g *GateScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "0-9", Description: "Student ID"},
		{Key: "Enter", Description: "Continue"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (g *GateScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok && kmsg.String() == "enter" {
		return g.submit()
	}

	var cmd tea.Cmd
	g.input, cmd = g.input.Update(msg)
	if _, ok := msg.(tea.KeyMsg); ok {
		g.errMsg = ""
	}
	return g, cmd
}

func (g *GateScreen) submit() (screen.Screen, tea.Cmd) {
	_, err := g.ids.SubmitIdentifier(context.Background(), g.input.Value())
	if err != nil {
		g.input.Submit(false)
		var verr *identity.ValidationError
		if errors.As(err, &verr) {
			g.errMsg = verr.Reason
		} else {
			g.errMsg = err.Error()
		}
		return g, nil
	}

	g.input.Submit(true)
	g.errMsg = ""
	next := g.next()
	return g, func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
}

func (g *GateScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, RenderBanner(width)))
	b.WriteString("\n\n")
	b.WriteString(theme.Subtitle.Width(width).Render("Enter your four-digit student ID to begin."))
	b.WriteString("\n\n")

	field := theme.Card.Render("Student ID: " + g.input.View())
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, field))

	if g.errMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(theme.ErrorText.Width(width).Align(lipgloss.Center).Render(g.errMsg))
	}
	return b.String()
}
