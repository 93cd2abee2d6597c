package quiz

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/tutorai/tutorai/internal/tutor"
	"github.com/tutorai/tutorai/internal/ui/components"
	"github.com/tutorai/tutorai/internal/ui/layout"
	"github.com/tutorai/tutorai/internal/ui/theme"
)

func (s *QuizScreen) View(width, height int) string {
	if s.view.TimedOut {
		return renderDialog(width, height, "Time's up!",
			"Your session timer ran out. Press any key to keep going.")
	}
	if s.confirmReset {
		return renderDialog(width, height, "Start over?",
			fmt.Sprintf("This clears your answers and score and returns to module %s.\nPress Y to confirm or N to cancel.",
				s.view.Session.CurrentModule))
	}

	textWidth := max(20, min(width-6, 100))
	lines := s.transcript(textWidth)
	lines = append(lines, "")
	lines = append(lines, s.footer(textWidth)...)

	return "\n" + s.window(lines, max(0, height-1))
}

// window returns the slice of lines that fits height, honoring scroll.
func (s *QuizScreen) window(lines []string, height int) string {
	if height <= 0 || len(lines) <= height {
		return strings.Join(lines, "\n")
	}
	maxScroll := len(lines) - height
	if s.scroll > maxScroll {
		s.scroll = maxScroll
	}
	end := len(lines) - s.scroll
	return strings.Join(lines[end-height:end], "\n")
}

// transcript renders every answered question, then the current one.
func (s *QuizScreen) transcript(width int) []string {
	sess := s.view.Session
	wrap := lipgloss.NewStyle().Width(width)
	indent := lipgloss.NewStyle().Width(width - 4).PaddingLeft(4)

	var out []string
	add := func(block string) {
		out = append(out, strings.Split(block, "\n")...)
	}

	if sess.Summary != "" {
		add(wrap.Inherit(theme.Hint).Render(sess.Summary))
		out = append(out, "")
	}

	for i, a := range sess.Answers {
		add(wrap.Inherit(theme.Question).Render(fmt.Sprintf("Q%d. %s", i+1, a.Question)))
		answer := a.UserAnswer
		if strings.TrimSpace(answer) == "" {
			answer = "(no answer)"
		}
		add(indent.Inherit(theme.LearnerAnswer).Render("You: " + answer))
		grade := theme.ScoreStyle(a.Score, s.view.MaxScore).
			Render(fmt.Sprintf("%s/%s", layout.FormatScore(a.Score), layout.FormatScore(s.view.MaxScore)))
		add(indent.Inherit(theme.Feedback).Render("Tutor " + grade + ": " + a.Response))
		out = append(out, "")
	}

	if q := sess.CurrentQuestion(); q != "" {
		n := sess.CurrentQuestionIndex + 1
		add(wrap.Inherit(theme.Question).Render(fmt.Sprintf("Q%d. %s", n, q)))
	}
	return out
}

// footer renders the input or the phase-specific prompt under the
// transcript.
func (s *QuizScreen) footer(width int) []string {
	sess := s.view.Session
	var b strings.Builder

	switch s.view.Phase {
	case tutor.PhaseLoading:
		if s.view.Err != nil && s.busy == idle {
			b.WriteString(theme.ErrorText.Render("Could not load module " + sess.CurrentModule + "."))
			b.WriteString("\n")
			b.WriteString(theme.Hint.Render(s.view.Err.Error()))
			b.WriteString("\n")
			b.WriteString(theme.Body.Render("Press R to try again."))
		} else {
			b.WriteString(theme.Hint.Render("Loading module " + sess.CurrentModule + "..."))
		}

	case tutor.PhaseActive, tutor.PhaseSubmitting:
		b.WriteString(components.NewProgressBar("Module "+sess.CurrentModule,
			sess.CurrentQuestionIndex, len(sess.Questions), true, min(width, 60)).View())
		b.WriteString("\n\n")
		b.WriteString("Answer: " + s.input.View())
		if s.busy == grading {
			b.WriteString("\n")
			b.WriteString(theme.Hint.Render("Grading your answer..."))
		} else if s.view.Err != nil {
			b.WriteString("\n")
			b.WriteString(theme.ErrorText.Render("Scoring failed: " + s.view.Err.Error()))
			b.WriteString("\n")
			b.WriteString(theme.Hint.Render("Press Enter to submit again."))
		}

	case tutor.PhaseExhausted, tutor.PhaseAdvancing:
		b.WriteString(s.renderVerdict())
		b.WriteString("\n\n")
		switch {
		case s.busy == advancing || s.view.Phase == tutor.PhaseAdvancing:
			b.WriteString(theme.Hint.Render("Loading the next module..."))
		case s.view.Err != nil:
			b.WriteString(theme.ErrorText.Render("Could not load the next module: " + s.view.Err.Error()))
			b.WriteString("\n")
			b.WriteString(theme.Body.Render("Press N to try again."))
		default:
			b.WriteString(theme.Body.Render("Press N to continue to the next module."))
		}

	case tutor.PhaseTerminal:
		b.WriteString(s.renderVerdict())
		b.WriteString("\n\n")
		b.WriteString(theme.Body.Render("You have finished the final module."))
	}

	if s.busy == resetting {
		b.Reset()
		b.WriteString(theme.Hint.Render("Starting over..."))
	}
	return strings.Split(b.String(), "\n")
}

func (s *QuizScreen) renderVerdict() string {
	style := lipgloss.NewStyle().Bold(true)
	switch s.view.Verdict {
	case tutor.VerdictFailed:
		style = style.Foreground(theme.Error)
	case tutor.VerdictReview:
		style = style.Foreground(theme.Warning)
	case tutor.VerdictPassed:
		style = style.Foreground(theme.Success)
	}
	return style.Render(s.view.Verdict.String())
}

func renderDialog(width, height int, title, body string) string {
	box := theme.Dialog.Render(
		theme.Title.Render(title) + "\n\n" + theme.Body.Render(body),
	)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
