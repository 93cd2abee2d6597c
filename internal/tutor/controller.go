// Package tutor is the quiz progression state machine. The Controller owns
// the learner's session and is the only writer to it; persistence mirrors
// every change after it is made in memory.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tutorai/tutorai/internal/config"
	"github.com/tutorai/tutorai/internal/content"
	"github.com/tutorai/tutorai/internal/gateway"
	"github.com/tutorai/tutorai/internal/identity"
	"github.com/tutorai/tutorai/internal/module"
	"github.com/tutorai/tutorai/internal/session"
)

var (
	ErrIdentityRequired = errors.New("tutor: learner id required")
	ErrIdentityLocked   = errors.New("tutor: learner id already set")
	ErrBusy             = errors.New("tutor: operation already in flight")
	ErrNotActive        = errors.New("tutor: no question awaiting an answer")
	ErrTimedOut         = errors.New("tutor: session timed out")
	ErrTerminal         = errors.New("tutor: final module reached")
	ErrNotExhausted     = errors.New("tutor: questions remain in this module")
)

// Phase is the controller's position in the quiz lifecycle.
type Phase int

const (
	PhaseAwaitingIdentity Phase = iota
	PhaseLoading
	PhaseActive
	PhaseSubmitting
	PhaseExhausted
	PhaseAdvancing
	PhaseTerminal
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingIdentity:
		return "awaiting_identity"
	case PhaseLoading:
		return "loading"
	case PhaseActive:
		return "active"
	case PhaseSubmitting:
		return "submitting"
	case PhaseExhausted:
		return "exhausted"
	case PhaseAdvancing:
		return "advancing"
	case PhaseTerminal:
		return "terminal"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Options configures a Controller.
type Options struct {
	Config    config.Config
	Gateway   gateway.Gateway
	Persister *session.Persister
	Logger    *zap.Logger
}

// Controller drives one learner's session. All methods are safe for
// concurrent use. Network calls run without holding the lock; their
// results are applied in a single locked step, so no caller ever observes
// an answer appended without the index having moved.
type Controller struct {
	cfg     config.Config
	gw      gateway.Gateway
	loader  *content.Loader
	persist *session.Persister
	seq     module.Sequencer
	logger  *zap.Logger

	mu         sync.Mutex
	sess       session.Session
	report     session.Report
	timer      *Timer
	loading    bool
	submitting bool
	advancing  bool
	lastErr    error
}

// New restores the persisted session and returns a Controller positioned
// on it. A missing or partly unreadable store yields defaults for the
// affected fields.
func New(ctx context.Context, opts Options) (*Controller, error) {
	seq, err := module.NewSequencer(opts.Config.TerminalModule)
	if err != nil {
		return nil, fmt.Errorf("terminal module: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Controller{
		cfg:     opts.Config,
		gw:      opts.Gateway,
		loader:  content.NewLoader(opts.Gateway, logger),
		persist: opts.Persister,
		seq:     seq,
		logger:  logger,
		timer:   NewTimer(opts.Config.SessionDuration),
	}
	c.sess, c.report = c.persist.Load(ctx, opts.Config.InitialModule)
	if _, err := module.Parse(c.sess.CurrentModule); err != nil {
		logger.Warn("restored module is malformed, starting over",
			zap.String("module", c.sess.CurrentModule))
		c.sess.CurrentModule = opts.Config.InitialModule
	}
	return c, nil
}

// RestoreReport describes fields that could not be restored verbatim.
func (c *Controller) RestoreReport() session.Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.report
}

// SubmitIdentifier validates and stores the learner id. A rejected input
// leaves state untouched.
func (c *Controller) SubmitIdentifier(ctx context.Context, input string) (identity.LearnerID, error) {
	id, err := identity.Parse(input)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess.LearnerID != "" {
		if c.sess.LearnerID == string(id) {
			return id, nil
		}
		return "", ErrIdentityLocked
	}
	c.sess.LearnerID = string(id)
	c.persist.Save(ctx, session.KeyStudentID, c.sess.LearnerID)
	c.logger.Info("learner identified", zap.String("learner_id", c.sess.LearnerID))
	return id, nil
}

// Start brings a restored or fresh session to a playable state: it issues
// the document fetch in the background, bootstraps content when none is
// held and starts the timer once content is present.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.sess.LearnerID == "" {
		c.mu.Unlock()
		return ErrIdentityRequired
	}
	needs := c.sess.NeedsContent()
	if !needs {
		c.timer.Start()
	}
	c.mu.Unlock()

	go c.loader.PrimeDocument(context.WithoutCancel(ctx))
	if needs {
		return c.Bootstrap(ctx)
	}
	return nil
}

// Bootstrap fetches content for the current module. When the session holds
// no questions they are replaced; when questions survive but the summary
// was lost, only the summary is refreshed so the answer history keeps
// lining up with its questions.
func (c *Controller) Bootstrap(ctx context.Context) error {
	c.mu.Lock()
	if c.sess.LearnerID == "" {
		c.mu.Unlock()
		return ErrIdentityRequired
	}
	if c.loading || c.advancing || c.submitting {
		c.mu.Unlock()
		return ErrBusy
	}
	c.loading = true
	mod := c.sess.CurrentModule
	c.mu.Unlock()

	batch, err := c.loader.Bootstrap(ctx, mod)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		c.lastErr = err
		c.logger.Warn("bootstrap failed", zap.String("module", mod), zap.Error(err))
		return err
	}
	c.lastErr = nil

	if len(c.sess.Questions) == 0 {
		batch.ApplyTo(&c.sess)
		c.sess.Answers = []session.Answer{}
		c.sess.CurrentQuestionIndex = 0
		c.sess.Score = 0
		c.persist.Save(ctx, session.KeyQuestions, c.sess.Questions)
		c.persist.Save(ctx, session.KeyAnswers, c.sess.Answers)
		c.persist.Save(ctx, session.KeyCurrentQuestionIndex, c.sess.CurrentQuestionIndex)
		c.persist.Save(ctx, session.KeyScore, c.sess.Score)
	} else {
		c.sess.Summary = batch.Summary
	}
	c.persist.Save(ctx, session.KeySummary, c.sess.Summary)
	c.persist.Save(ctx, session.KeyCurrentModule, c.sess.CurrentModule)
	c.timer.Start()

	c.logger.Info("content loaded",
		zap.String("module", mod), zap.Int("questions", len(c.sess.Questions)))
	return nil
}

// SubmitAnswer grades text against the current question. On success the
// answer is appended, its grade added to the score and the index moved
// forward by one, all in one step. On failure nothing changes and the
// learner may submit again.
func (c *Controller) SubmitAnswer(ctx context.Context, text string) (session.Answer, error) {
	c.mu.Lock()
	if err := c.checkAffordance(); err != nil {
		c.mu.Unlock()
		return session.Answer{}, err
	}
	if c.submitting {
		c.mu.Unlock()
		return session.Answer{}, ErrBusy
	}
	if c.phaseLocked() != PhaseActive {
		c.mu.Unlock()
		return session.Answer{}, ErrNotActive
	}
	c.submitting = true
	index := c.sess.CurrentQuestionIndex
	req := gateway.ScoreRequest{
		Question:   c.sess.CurrentQuestion(),
		UserAnswer: text,
		Summary:    c.sess.Summary,
		UserID:     c.sess.LearnerID,
		ID:         c.cfg.ExperimentID,
	}
	mod := c.sess.CurrentModule
	c.mu.Unlock()

	grade, err := c.gw.Score(gateway.WithModule(ctx, mod), req)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false
	if err != nil {
		c.lastErr = fmt.Errorf("score answer: %w", err)
		c.logger.Warn("scoring failed", zap.Int("index", index), zap.Error(err))
		return session.Answer{}, c.lastErr
	}
	c.lastErr = nil

	a := session.Answer{
		Question:   req.Question,
		UserAnswer: text,
		Response:   grade.Response,
		Score:      c.clamp(float64(grade.Score)),
	}
	c.sess.Answers = append(c.sess.Answers, a)
	c.sess.Score += a.Score
	c.sess.CurrentQuestionIndex++

	c.persist.Save(ctx, session.KeyAnswers, c.sess.Answers)
	c.persist.Save(ctx, session.KeyScore, c.sess.Score)
	c.persist.Save(ctx, session.KeyCurrentQuestionIndex, c.sess.CurrentQuestionIndex)
	return a, nil
}

// AdvanceModule loads the next module's questions after the current set is
// exhausted. The module label only moves once the content has arrived. A
// second call while one is in flight returns ErrBusy and does nothing.
func (c *Controller) AdvanceModule(ctx context.Context) error {
	c.mu.Lock()
	if err := c.checkAffordance(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.advancing || c.loading || c.submitting {
		c.mu.Unlock()
		return ErrBusy
	}
	if !c.sess.Exhausted() || c.sess.NeedsContent() {
		c.mu.Unlock()
		return ErrNotExhausted
	}
	if c.seq.IsTerminalLabel(c.sess.CurrentModule) {
		c.mu.Unlock()
		return ErrTerminal
	}
	next, err := c.seq.NextLabel(c.sess.CurrentModule)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.advancing = true
	c.mu.Unlock()

	batch, err := c.loader.Extend(ctx, next)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.advancing = false
	if err != nil {
		c.lastErr = err
		c.logger.Warn("advance failed", zap.String("module", next), zap.Error(err))
		return err
	}
	c.lastErr = nil

	batch.ApplyTo(&c.sess)
	c.sess.CurrentModule = next

	c.persist.Save(ctx, session.KeySummary, c.sess.Summary)
	c.persist.Save(ctx, session.KeyQuestions, c.sess.Questions)
	c.persist.Save(ctx, session.KeyCurrentModule, c.sess.CurrentModule)

	c.logger.Info("advanced module",
		zap.String("module", next), zap.Int("questions", len(c.sess.Questions)))
	return nil
}

// Reset clears the session back to the initial module and bootstraps it
// again. The learner id survives.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	if err := c.checkAffordance(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.loading || c.advancing || c.submitting {
		c.mu.Unlock()
		return ErrBusy
	}
	// A failed clear leaves stale rows behind; the in-memory defaults and
	// the writes that follow the bootstrap still win.
	_ = c.persist.Clear(ctx)

	learner := c.sess.LearnerID
	c.sess = session.Defaults(c.cfg.InitialModule)
	c.sess.LearnerID = learner
	c.timer.Reset()
	c.lastErr = nil
	c.persist.Save(ctx, session.KeyCurrentModule, c.sess.CurrentModule)
	c.mu.Unlock()

	c.logger.Info("session reset", zap.String("module", c.cfg.InitialModule))
	return c.Bootstrap(ctx)
}

// Tick advances the timer by one second and reports whether the caller
// should schedule another tick.
func (c *Controller) Tick() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	was := c.timer.Expired()
	more := c.timer.Tick()
	if !was && c.timer.Expired() {
		c.logger.Info("session timed out")
	}
	return more
}

// AcknowledgeTimeout dismisses an expired timer and refills it. No other
// session field changes. It reports whether the timer is running.
func (c *Controller) AcknowledgeTimeout() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.timer.Expired() {
		return c.timer.Running()
	}
	c.timer.Acknowledge()
	return true
}

// View is a point-in-time copy of controller state for rendering.
type View struct {
	Session       session.Session
	Phase         Phase
	TimedOut      bool
	TimerRunning  bool
	TimeRemaining time.Duration
	CanSubmit     bool
	CanAdvance    bool
	Terminal      bool
	MaxScore      float64
	Verdict       Verdict
	Err           error
}

// Snapshot returns the current View.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	phase := c.phaseLocked()
	timedOut := c.timer.Expired()
	v := View{
		Session:       c.sess.Clone(),
		Phase:         phase,
		TimedOut:      timedOut,
		TimerRunning:  c.timer.Running(),
		TimeRemaining: c.timer.Remaining(),
		CanSubmit:     phase == PhaseActive && !timedOut,
		CanAdvance:    phase == PhaseExhausted && !timedOut,
		Terminal:      c.seq.IsTerminalLabel(c.sess.CurrentModule),
		MaxScore:      c.cfg.MaxScore,
		Err:           c.lastErr,
	}
	if phase == PhaseExhausted || phase == PhaseTerminal {
		v.Verdict = Assess(c.sess.Score, len(c.sess.Answers), c.cfg.MaxScore, c.cfg.PassRatio, c.cfg.ReviewRatio)
	}
	return v
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phaseLocked()
}

func (c *Controller) phaseLocked() Phase {
	switch {
	case c.sess.LearnerID == "":
		return PhaseAwaitingIdentity
	case c.loading || c.sess.NeedsContent():
		return PhaseLoading
	case c.submitting:
		return PhaseSubmitting
	case c.advancing:
		return PhaseAdvancing
	case c.sess.Exhausted():
		if c.seq.IsTerminalLabel(c.sess.CurrentModule) {
			return PhaseTerminal
		}
		return PhaseExhausted
	}
	return PhaseActive
}

// checkAffordance rejects learner actions before identification and
// while a timeout awaits acknowledgment.
func (c *Controller) checkAffordance() error {
	if c.sess.LearnerID == "" {
		return ErrIdentityRequired
	}
	if c.timer.Expired() {
		return ErrTimedOut
	}
	return nil
}

func (c *Controller) clamp(score float64) float64 {
	switch {
	case math.IsNaN(score), score < 0:
		return 0
	case score > c.cfg.MaxScore:
		return c.cfg.MaxScore
	}
	return score
}
