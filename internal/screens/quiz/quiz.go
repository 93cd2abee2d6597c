// Package quiz is the main tutoring screen: the transcript, the answer
// input and the session timer.
package quiz

import (
	"context"
	"errors"
	"time"

	tea "charm.land/bubbletea/v2"
	"go.uber.org/zap"

	"github.com/tutorai/tutorai/internal/screen"
	"github.com/tutorai/tutorai/internal/session"
	"github.com/tutorai/tutorai/internal/tutor"
	"github.com/tutorai/tutorai/internal/ui/components"
	"github.com/tutorai/tutorai/internal/ui/layout"
)

const tickInterval = time.Second

type busyKind int

const (
	idle busyKind = iota
	starting
	loading
	grading
	advancing
	resetting
)

// QuizScreen implements screen.Screen over a tutor.Controller.
type QuizScreen struct {
	ctrl   *tutor.Controller
	logger *zap.Logger
	input  components.TextInput
	view   tutor.View

	busy         busyKind
	confirmReset bool
	last         *session.Answer

	// gen identifies the live tick chain; ticking is set while one is
	// scheduled.
	gen     int
	ticking bool

	// scroll is how many transcript lines are hidden below the viewport.
	scroll int
}

var _ screen.Screen = (*QuizScreen)(nil)
var _ screen.KeyHintProvider = (*QuizScreen)(nil)
var _ screen.StatusProvider = (*QuizScreen)(nil)

// New creates the quiz screen. The controller must already hold a learner id.
func New(ctrl *tutor.Controller, logger *zap.Logger) *QuizScreen {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &QuizScreen{
		ctrl:   ctrl,
		logger: logger,
		input:  components.NewTextInput("Type your answer...", false, 0),
	}
	s.view = ctrl.Snapshot()
	return s
}

func (s *QuizScreen) Init() tea.Cmd {
	s.busy = starting
	ctrl := s.ctrl
	return tea.Batch(
		s.input.Init(),
		func() tea.Msg { return startedMsg{Err: ctrl.Start(context.Background())} },
	)
}

func (s *QuizScreen) Title() string {
	return "Module " + s.view.Session.CurrentModule
}

func (s *QuizScreen) Status() layout.Status {
	st := layout.Status{
		Module:    s.view.Session.CurrentModule,
		Remaining: s.view.TimeRemaining,
		ShowTimer: s.view.TimerRunning || s.view.TimedOut,
	}
	if n := s.view.Session.CurrentQuestionIndex; n > 0 {
		st.Score = s.view.Session.Score
		st.Attainable = float64(n) * s.view.MaxScore
	}
	return st
}

func (s *QuizScreen) KeyHints() []layout.KeyHint {
	switch {
	case s.view.TimedOut:
		return []layout.KeyHint{{Key: "any key", Description: "Keep going"}}
	case s.confirmReset:
		return []layout.KeyHint{
			{Key: "Y", Description: "Start over"},
			{Key: "N", Description: "Cancel"},
		}
	}

	var hints []layout.KeyHint
	switch s.view.Phase {
	case tutor.PhaseActive:
		hints = append(hints, layout.KeyHint{Key: "Enter", Description: "Submit"})
	case tutor.PhaseLoading:
		if s.view.Err != nil && s.busy == idle {
			hints = append(hints, layout.KeyHint{Key: "R", Description: "Retry"})
		}
	case tutor.PhaseExhausted:
		hints = append(hints, layout.KeyHint{Key: "N", Description: "Next module"})
	}
	return append(hints,
		layout.KeyHint{Key: "PgUp/PgDn", Description: "Scroll"},
		layout.KeyHint{Key: "Ctrl+R", Description: "Reset"},
		layout.KeyHint{Key: "Ctrl+C", Description: "Quit"},
	)
}

func (s *QuizScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case startedMsg:
		return s.handleDone(msg.Err, "start")
	case loadedMsg:
		return s.handleDone(msg.Err, "load")
	case advancedMsg:
		s.last = nil
		return s.handleDone(msg.Err, "advance")
	case resetDoneMsg:
		s.last = nil
		return s.handleDone(msg.Err, "reset")
	case gradedMsg:
		return s.handleGraded(msg)
	case tickMsg:
		return s.handleTick(msg)
	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.view.Phase == tutor.PhaseActive && !s.view.TimedOut {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

// handleDone finishes an asynchronous controller call.
func (s *QuizScreen) handleDone(err error, op string) (screen.Screen, tea.Cmd) {
	s.busy = idle
	if err != nil && !errors.Is(err, tutor.ErrBusy) {
		s.logger.Warn("quiz "+op+" failed", zap.Error(err))
	}
	s.refresh()
	return s, s.armTimer()
}

func (s *QuizScreen) handleGraded(msg gradedMsg) (screen.Screen, tea.Cmd) {
	s.busy = idle
	if msg.Err == nil {
		a := msg.Answer
		s.last = &a
		s.input.Clear()
		s.scroll = 0
	}
	s.refresh()
	return s, s.armTimer()
}

func (s *QuizScreen) handleTick(msg tickMsg) (screen.Screen, tea.Cmd) {
	if msg.Gen != s.gen {
		return s, nil
	}
	more := s.ctrl.Tick()
	s.refresh()
	if !more {
		s.ticking = false
		return s, nil
	}
	return s, s.tickCmd()
}

func (s *QuizScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.view.TimedOut {
		s.ctrl.AcknowledgeTimeout()
		s.restartTicks()
		s.refresh()
		return s, s.armTimer()
	}

	if s.confirmReset {
		switch key {
		case "y", "Y":
			s.confirmReset = false
			return s, s.dispatchReset()
		case "n", "N", "esc":
			s.confirmReset = false
		}
		return s, nil
	}

	switch key {
	case "ctrl+r":
		if s.busy == idle {
			s.confirmReset = true
		}
		return s, nil
	case "pgup":
		s.scroll += 5
		return s, nil
	case "pgdown":
		s.scroll = max(0, s.scroll-5)
		return s, nil
	}

	switch s.view.Phase {
	case tutor.PhaseActive:
		if key == "enter" {
			return s, s.dispatchSubmit()
		}
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd

	case tutor.PhaseLoading:
		if (key == "r" || key == "R") && s.view.Err != nil && s.busy == idle {
			return s, s.dispatchLoad()
		}

	case tutor.PhaseExhausted:
		if key == "n" || key == "N" {
			return s, s.dispatchAdvance()
		}
	}
	return s, nil
}

func (s *QuizScreen) dispatchSubmit() tea.Cmd {
	if s.busy != idle || !s.view.CanSubmit {
		return nil
	}
	s.busy = grading
	ctrl, text := s.ctrl, s.input.Value()
	return func() tea.Msg {
		a, err := ctrl.SubmitAnswer(context.Background(), text)
		return gradedMsg{Answer: a, Err: err}
	}
}

func (s *QuizScreen) dispatchAdvance() tea.Cmd {
	if s.busy != idle || !s.view.CanAdvance {
		return nil
	}
	s.busy = advancing
	ctrl := s.ctrl
	return func() tea.Msg {
		return advancedMsg{Err: ctrl.AdvanceModule(context.Background())}
	}
}

func (s *QuizScreen) dispatchLoad() tea.Cmd {
	s.busy = loading
	ctrl := s.ctrl
	return func() tea.Msg {
		return loadedMsg{Err: ctrl.Bootstrap(context.Background())}
	}
}

func (s *QuizScreen) dispatchReset() tea.Cmd {
	if s.busy != idle {
		return nil
	}
	s.busy = resetting
	s.restartTicks()
	ctrl := s.ctrl
	return func() tea.Msg {
		return resetDoneMsg{Err: ctrl.Reset(context.Background())}
	}
}

func (s *QuizScreen) refresh() {
	s.view = s.ctrl.Snapshot()
}

// restartTicks abandons the scheduled tick chain.
func (s *QuizScreen) restartTicks() {
	s.gen++
	s.ticking = false
}

// armTimer schedules the first tick of a chain if the timer runs and no
// chain is live.
func (s *QuizScreen) armTimer() tea.Cmd {
	if s.ticking || !s.view.TimerRunning {
		return nil
	}
	s.ticking = true
	return s.tickCmd()
}

func (s *QuizScreen) tickCmd() tea.Cmd {
	gen := s.gen
	return tea.Tick(tickInterval, func(time.Time) tea.Msg { return tickMsg{Gen: gen} })
}
