package quiz

import "github.com/tutorai/tutorai/internal/session"

// startedMsg is sent when the controller has restored or bootstrapped the
// session.
type startedMsg struct {
	Err error
}

// loadedMsg is sent when a retried bootstrap finishes.
type loadedMsg struct {
	Err error
}

// gradedMsg carries the result of one submission.
type gradedMsg struct {
	Answer session.Answer
	Err    error
}

// advancedMsg is sent when the next module's questions have arrived.
type advancedMsg struct {
	Err error
}

// resetDoneMsg is sent when a reset and its bootstrap complete.
type resetDoneMsg struct {
	Err error
}

// tickMsg is one timer second. Gen ties it to the tick chain that
// scheduled it; ticks from a superseded chain are dropped.
type tickMsg struct {
	Gen int
}
