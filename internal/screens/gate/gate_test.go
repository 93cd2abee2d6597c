package gate

import (
	"context"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorai/tutorai/internal/identity"
	"github.com/tutorai/tutorai/internal/router"
	"github.com/tutorai/tutorai/internal/screen"
)

type fakeIdentifier struct {
	calls []string
}

func (f *fakeIdentifier) SubmitIdentifier(_ context.Context, input string) (identity.LearnerID, error) {
	f.calls = append(f.calls, input)
	return identity.Parse(input)
}

type stubScreen struct{}

func (stubScreen) Init() tea.Cmd                           { return nil }
func (s stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (stubScreen) View(int, int) string                    { return "quiz" }
func (stubScreen) Title() string                           { return "Quiz" }

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func enter() tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: tea.KeyEnter}
}

func typeText(s screen.Screen, text string) screen.Screen {
	for _, r := range text {
		s, _ = s.Update(keyPress(r))
	}
	return s
}

func TestGate_AcceptsFourDigits(t *testing.T) {
	ids := &fakeIdentifier{}
	g := New(ids, func() screen.Screen { return stubScreen{} })

	s := typeText(g, "1234")
	s, cmd := s.Update(enter())
	require.NotNil(t, cmd)

	msg, ok := cmd().(router.ReplaceScreenMsg)
	require.True(t, ok, "expected ReplaceScreenMsg")
	assert.Equal(t, "Quiz", msg.Screen.Title())
	assert.Equal(t, []string{"1234"}, ids.calls)
	assert.Empty(t, s.(*GateScreen).errMsg)
}

func TestGate_RejectsShortID(t *testing.T) {
	ids := &fakeIdentifier{}
	g := New(ids, func() screen.Screen { return stubScreen{} })

	s := typeText(g, "12")
	s, cmd := s.Update(enter())
	assert.Nil(t, cmd)
	assert.Equal(t, "must be exactly 4 characters", s.(*GateScreen).errMsg)
	assert.Contains(t, s.View(80, 24), "must be exactly 4 characters")
}

func TestGate_IgnoresLetters(t *testing.T) {
	g := New(&fakeIdentifier{}, func() screen.Screen { return stubScreen{} })
	s := typeText(g, "12ab34")
	assert.Equal(t, "1234", s.(*GateScreen).input.Value())
}

func TestGate_TypingClearsError(t *testing.T) {
	g := New(&fakeIdentifier{}, func() screen.Screen { return stubScreen{} })
	s, _ := g.Update(enter())
	require.NotEmpty(t, s.(*GateScreen).errMsg)

	s = typeText(s, "1")
	assert.Empty(t, s.(*GateScreen).errMsg)
}

func TestRenderBanner_CompactWhenNarrow(t *testing.T) {
	assert.Contains(t, RenderBanner(40), "T U T O R A I")
	assert.Contains(t, RenderBanner(100), "████████╗")
}
