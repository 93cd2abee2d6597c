package theme

import (
	"charm.land/lipgloss/v2"
)

// Color palette. Muted, easy to read for long study sessions.
var (
	Primary   = lipgloss.Color("#6366F1") // Indigo
	Secondary = lipgloss.Color("#0EA5E9") // Sky
	Accent    = lipgloss.Color("#F59E0B") // Amber
	Success   = lipgloss.Color("#22C55E") // Green
	Warning   = lipgloss.Color("#EAB308") // Yellow
	Error     = lipgloss.Color("#EF4444") // Red
	Text      = lipgloss.Color("#F1F5F9") // Near white
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	BgDark    = lipgloss.Color("#0F172A") // Deep Navy
	BgCard    = lipgloss.Color("#1E293B") // Dark Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		Align(lipgloss.Center)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim).
			Align(lipgloss.Center)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	ErrorText = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)
)

// Layout
var (
	Card = lipgloss.NewStyle().
		Background(BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(1, 2)

	Dialog = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Accent).
		Padding(1, 3)
)

// Transcript
var (
	Question = lipgloss.NewStyle().
			Foreground(Text).
			Bold(true)

	LearnerAnswer = lipgloss.NewStyle().
			Foreground(Secondary)

	Feedback = lipgloss.NewStyle().
			Foreground(TextDim)
)

// ScoreStyle colors a grade out of max: green from 85%, yellow from 60%,
// red below.
func ScoreStyle(score, max float64) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(true)
	if max <= 0 {
		return s.Foreground(TextDim)
	}
	switch r := score / max; {
	case r >= 0.85:
		return s.Foreground(Success)
	case r >= 0.6:
		return s.Foreground(Warning)
	}
	return s.Foreground(Error)
}

// Components
var (
	ProgressFilled = lipgloss.NewStyle().
			Background(Secondary)

	ProgressEmpty = lipgloss.NewStyle().
			Background(Border)
)
