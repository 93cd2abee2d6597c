// Package session defines the learner's session state and its best-effort
// mirror in durable storage.
package session

// Answer is one graded submission. It is never modified after creation.
type Answer struct {
	Question   string  `json:"question"`
	UserAnswer string  `json:"user_answer"`
	Response   string  `json:"response"`
	Score      float64 `json:"score"`
}

// Session is the full mutable state of one learner's progress.
//
// Invariants maintained by the tutor controller:
//   - 0 <= CurrentQuestionIndex <= len(Questions)
//   - len(Answers) == CurrentQuestionIndex
//   - Score == sum of Answers[i].Score
//
// Questions and Answers are append-only between resets.
type Session struct {
	LearnerID            string
	CurrentModule        string
	Questions            []string
	Answers              []Answer
	CurrentQuestionIndex int
	Summary              string
	Score                float64
}

// Defaults returns an empty session positioned at the initial module.
func Defaults(initialModule string) Session {
	return Session{CurrentModule: initialModule}
}

// NeedsContent reports whether the session must bootstrap before questions
// can be served.
func (s *Session) NeedsContent() bool {
	return len(s.Questions) == 0 || s.Summary == ""
}

// Exhausted reports whether every loaded question has been answered.
func (s *Session) Exhausted() bool {
	return s.CurrentQuestionIndex >= len(s.Questions)
}

// CurrentQuestion returns the question awaiting an answer, or "" when the
// set is exhausted.
func (s *Session) CurrentQuestion() string {
	if s.CurrentQuestionIndex < 0 || s.CurrentQuestionIndex >= len(s.Questions) {
		return ""
	}
	return s.Questions[s.CurrentQuestionIndex]
}

// Clone returns a deep copy safe to hand to renderers.
func (s Session) Clone() Session {
	out := s
	out.Questions = append([]string(nil), s.Questions...)
	out.Answers = append([]Answer(nil), s.Answers...)
	return out
}

// SumScores totals the per-answer grades.
func SumScores(answers []Answer) float64 {
	var total float64
	for _, a := range answers {
		total += a.Score
	}
	return total
}

// Normalize repairs cross-field drift left behind by partially persisted
// state and returns a description of each repair. Fields are stored
// independently, so a crash between two writes can leave, for example, an
// index that is one ahead of the answer history.
func (s *Session) Normalize() []string {
	var repairs []string

	if s.CurrentQuestionIndex < 0 {
		repairs = append(repairs, "negative question index reset to 0")
		s.CurrentQuestionIndex = 0
	}
	if s.CurrentQuestionIndex > len(s.Questions) {
		repairs = append(repairs, "question index clamped to question count")
		s.CurrentQuestionIndex = len(s.Questions)
	}
	if len(s.Answers) > len(s.Questions) {
		repairs = append(repairs, "answers truncated to question count")
		s.Answers = s.Answers[:len(s.Questions)]
	}
	if len(s.Answers) != s.CurrentQuestionIndex {
		n := min(len(s.Answers), s.CurrentQuestionIndex)
		repairs = append(repairs, "question index and answers reconciled")
		s.Answers = s.Answers[:n]
		s.CurrentQuestionIndex = n
	}
	if total := SumScores(s.Answers); total != s.Score {
		repairs = append(repairs, "score recomputed from answers")
		s.Score = total
	}
	return repairs
}
