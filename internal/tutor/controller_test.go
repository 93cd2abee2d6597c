package tutor

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorai/tutorai/internal/config"
	"github.com/tutorai/tutorai/internal/gateway"
	"github.com/tutorai/tutorai/internal/identity"
	"github.com/tutorai/tutorai/internal/session"
	"github.com/tutorai/tutorai/internal/store"
)

type harness struct {
	t     *testing.T
	store *store.Store
	gw    gateway.Gateway
	cfg   config.Config
}

func newHarness(t *testing.T, gw gateway.Gateway) *harness {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "tutorai.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	cfg := config.Default()
	cfg.SessionDuration = 3 * time.Second
	cfg.ExperimentID = "exp-1"
	return &harness{t: t, store: s, gw: gw, cfg: cfg}
}

func (h *harness) controller() *Controller {
	h.t.Helper()
	c, err := New(context.Background(), Options{
		Config:    h.cfg,
		Gateway:   h.gw,
		Persister: session.NewPersister(h.store.FieldRepo(), nil),
	})
	require.NoError(h.t, err)
	return c
}

func twoQuestions(summary string) gateway.Content {
	return gateway.Content{Summary: summary, Questions: []string{"What is a cell?", "What is mitosis?"}}
}

func started(t *testing.T, h *harness) *Controller {
	t.Helper()
	c := h.controller()
	_, err := c.SubmitIdentifier(context.Background(), "1234")
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	return c
}

func TestFreshSessionAwaitsIdentity(t *testing.T) {
	h := newHarness(t, gateway.NewMock())
	c := h.controller()

	v := c.Snapshot()
	assert.Equal(t, PhaseAwaitingIdentity, v.Phase)
	assert.Equal(t, "6.1", v.Session.CurrentModule)
	assert.False(t, v.CanSubmit)

	assert.ErrorIs(t, c.Start(context.Background()), ErrIdentityRequired)
	_, err := c.SubmitAnswer(context.Background(), "x")
	assert.ErrorIs(t, err, ErrIdentityRequired)
}

func TestSubmitIdentifier(t *testing.T) {
	bad := []string{"", "123", "12345", "12a4", "１２３４", " 123", "-123"}
	for _, in := range bad {
		t.Run("reject "+in, func(t *testing.T) {
			h := newHarness(t, gateway.NewMock())
			c := h.controller()

			_, err := c.SubmitIdentifier(context.Background(), in)
			var verr *identity.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Empty(t, c.Snapshot().Session.LearnerID)

			_, ok, err := h.store.FieldRepo().Get(context.Background(), session.KeyStudentID)
			require.NoError(t, err)
			assert.False(t, ok, "rejected input must not be persisted")
		})
	}

	h := newHarness(t, gateway.NewMock())
	c := h.controller()
	id, err := c.SubmitIdentifier(context.Background(), "0042")
	require.NoError(t, err)
	assert.Equal(t, identity.LearnerID("0042"), id)

	raw, ok, err := h.store.FieldRepo().Get(context.Background(), session.KeyStudentID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `"0042"`, string(raw))

	_, err = c.SubmitIdentifier(context.Background(), "9999")
	assert.ErrorIs(t, err, ErrIdentityLocked)
	assert.Equal(t, "0042", c.Snapshot().Session.LearnerID)
}

func TestTwoAnswersExhaustModule(t *testing.T) {
	m := gateway.NewMock().
		AddContent(twoQuestions("Cells"), nil).
		AddGrade(gateway.Grade{Response: "Good.", Score: 7}, nil).
		AddGrade(gateway.Grade{Response: "Great.", Score: 8}, nil)
	h := newHarness(t, m)
	c := started(t, h)
	ctx := context.Background()

	v := c.Snapshot()
	assert.Equal(t, PhaseActive, v.Phase)
	assert.True(t, v.CanSubmit)
	assert.True(t, v.TimerRunning)

	_, err := c.SubmitAnswer(ctx, "A unit of life.")
	require.NoError(t, err)
	_, err = c.SubmitAnswer(ctx, "Cell division.")
	require.NoError(t, err)

	v = c.Snapshot()
	assert.Equal(t, 15.0, v.Session.Score)
	assert.Equal(t, 2, v.Session.CurrentQuestionIndex)
	assert.Len(t, v.Session.Answers, 2)
	assert.Equal(t, PhaseExhausted, v.Phase)
	assert.True(t, v.CanAdvance)
	assert.False(t, v.CanSubmit)
	assert.False(t, v.Terminal)
	assert.Equal(t, VerdictReview, v.Verdict, "15 of 20 is between the pass and review ratios")

	assert.Equal(t, "What is a cell?", v.Session.Answers[0].Question)
	assert.Equal(t, "A unit of life.", v.Session.Answers[0].UserAnswer)
	assert.Equal(t, "Good.", v.Session.Answers[0].Response)

	require.Len(t, m.ScoreCalls, 2)
	assert.Equal(t, gateway.ScoreRequest{
		Question:   "What is mitosis?",
		UserAnswer: "Cell division.",
		Summary:    "Cells",
		UserID:     "1234",
		ID:         "exp-1",
	}, m.ScoreCalls[1])

	_, err = c.SubmitAnswer(ctx, "more")
	assert.ErrorIs(t, err, ErrNotActive)
}

func TestFailedScoreLeavesStateUnchanged(t *testing.T) {
	m := gateway.NewMock().
		AddContent(twoQuestions("Cells"), nil).
		AddGrade(gateway.Grade{}, &gateway.TransportError{Op: gateway.OpScore, Err: errors.New("timeout")}).
		AddGrade(gateway.Grade{Response: "ok", Score: 6}, nil)
	h := newHarness(t, m)
	c := started(t, h)
	ctx := context.Background()

	before := c.Snapshot().Session

	_, err := c.SubmitAnswer(ctx, "answer")
	require.Error(t, err)
	assert.True(t, gateway.IsTransport(err))

	v := c.Snapshot()
	assert.Equal(t, before.CurrentQuestionIndex, v.Session.CurrentQuestionIndex)
	assert.Equal(t, len(before.Answers), len(v.Session.Answers))
	assert.Equal(t, before.Score, v.Session.Score)
	assert.Equal(t, PhaseActive, v.Phase)
	assert.True(t, v.CanSubmit, "submit must re-enable after a failure")
	assert.Error(t, v.Err)

	_, err = c.SubmitAnswer(ctx, "answer")
	require.NoError(t, err)
	v = c.Snapshot()
	assert.Equal(t, 1, v.Session.CurrentQuestionIndex)
	assert.NoError(t, v.Err)
	assert.Equal(t, "What is a cell?", v.Session.Answers[0].Question)
}

func TestEmptyAnswerAccepted(t *testing.T) {
	m := gateway.NewMock().
		AddContent(twoQuestions("Cells"), nil).
		AddGrade(gateway.Grade{Response: "No answer given.", Score: 0}, nil)
	c := started(t, newHarness(t, m))

	a, err := c.SubmitAnswer(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "", a.UserAnswer)
	assert.Equal(t, 1, c.Snapshot().Session.CurrentQuestionIndex)
}

func TestGradeClamped(t *testing.T) {
	m := gateway.NewMock().
		AddContent(twoQuestions("Cells"), nil).
		AddGrade(gateway.Grade{Score: 15}, nil).
		AddGrade(gateway.Grade{Score: -2}, nil)
	c := started(t, newHarness(t, m))
	ctx := context.Background()

	a, err := c.SubmitAnswer(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, 10.0, a.Score)
	a, err = c.SubmitAnswer(ctx, "y")
	require.NoError(t, err)
	assert.Equal(t, 0.0, a.Score)

	v := c.Snapshot()
	assert.Equal(t, 10.0, v.Session.Score)
	assert.LessOrEqual(t, v.Session.Score, float64(v.Session.CurrentQuestionIndex)*v.MaxScore)
}

func TestConcurrentSubmitIsRejected(t *testing.T) {
	m := gateway.NewMock().
		AddContent(twoQuestions("Cells"), nil).
		AddGrade(gateway.Grade{Score: 5}, nil).
		AddGrade(gateway.Grade{Score: 5}, nil)
	m.Block = make(chan struct{})
	c := started(t, newHarness(t, m))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := c.SubmitAnswer(context.Background(), "first")
		assert.NoError(t, err)
	}()

	require.Eventually(t, func() bool { return m.ScoreCallCount() == 1 }, time.Second, time.Millisecond)

	v := c.Snapshot()
	assert.Equal(t, PhaseSubmitting, v.Phase)
	assert.False(t, v.CanSubmit)
	assert.Empty(t, v.Session.Answers)

	_, err := c.SubmitAnswer(context.Background(), "second")
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, c.Reset(context.Background()), ErrBusy)

	close(m.Block)
	wg.Wait()

	v = c.Snapshot()
	assert.Equal(t, 1, v.Session.CurrentQuestionIndex)
	require.Len(t, v.Session.Answers, 1)
	assert.Equal(t, "first", v.Session.Answers[0].UserAnswer)
	assert.Equal(t, 1, m.ScoreCallCount())
}

func TestAdvanceModuleAppends(t *testing.T) {
	m := gateway.NewMock().
		AddContent(twoQuestions("6.1 summary"), nil).
		AddGrade(gateway.Grade{Score: 7}, nil).
		AddGrade(gateway.Grade{Score: 8}, nil).
		AddContent(gateway.Content{Summary: "6.2 summary", Questions: []string{"q3"}}, nil)
	c := started(t, newHarness(t, m))
	ctx := context.Background()

	assert.ErrorIs(t, c.AdvanceModule(ctx), ErrNotExhausted)

	_, err := c.SubmitAnswer(ctx, "a")
	require.NoError(t, err)
	_, err = c.SubmitAnswer(ctx, "b")
	require.NoError(t, err)

	require.NoError(t, c.AdvanceModule(ctx))

	v := c.Snapshot()
	assert.Equal(t, "6.2", v.Session.CurrentModule)
	assert.Equal(t, "6.2 summary", v.Session.Summary)
	assert.Equal(t, []string{"What is a cell?", "What is mitosis?", "q3"}, v.Session.Questions)
	assert.Equal(t, 2, v.Session.CurrentQuestionIndex)
	assert.Equal(t, 15.0, v.Session.Score)
	assert.Equal(t, PhaseActive, v.Phase)
	assert.Equal(t, "q3", v.Session.CurrentQuestion())
	assert.Equal(t, []string{"6.1", "6.2"}, m.FetchCalls)
}

func TestAdvanceFailureKeepsModule(t *testing.T) {
	m := gateway.NewMock().
		AddContent(gateway.Content{Summary: "s", Questions: []string{"q1"}}, nil).
		AddGrade(gateway.Grade{Score: 4}, nil).
		AddContent(gateway.Content{}, &gateway.TransportError{Op: gateway.OpFetchContent, StatusCode: 500, Err: errors.New("boom")})
	c := started(t, newHarness(t, m))
	ctx := context.Background()

	_, err := c.SubmitAnswer(ctx, "a")
	require.NoError(t, err)

	require.Error(t, c.AdvanceModule(ctx))
	v := c.Snapshot()
	assert.Equal(t, "6.1", v.Session.CurrentModule)
	assert.Equal(t, []string{"q1"}, v.Session.Questions)
	assert.Equal(t, "s", v.Session.Summary)
	assert.Equal(t, PhaseExhausted, v.Phase)
	assert.True(t, v.CanAdvance)
}

// blockingGateway holds FetchContent calls after the first until released.
type blockingGateway struct {
	*gateway.Mock
	mu      sync.Mutex
	fetches int
	entered chan struct{}
	release chan struct{}
}

func (b *blockingGateway) FetchContent(ctx context.Context, module string) (gateway.Content, error) {
	b.mu.Lock()
	b.fetches++
	n := b.fetches
	b.mu.Unlock()
	if n > 1 {
		close(b.entered)
		<-b.release
	}
	return b.Mock.FetchContent(ctx, module)
}

func TestAdvanceGuardIsNoOp(t *testing.T) {
	m := gateway.NewMock().
		AddContent(gateway.Content{Summary: "s", Questions: []string{"q1"}}, nil).
		AddGrade(gateway.Grade{Score: 9}, nil).
		AddContent(gateway.Content{Summary: "s2", Questions: []string{"q2"}}, nil)
	gw := &blockingGateway{Mock: m, entered: make(chan struct{}), release: make(chan struct{})}
	c := started(t, newHarness(t, gw))
	ctx := context.Background()

	_, err := c.SubmitAnswer(ctx, "a")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- c.AdvanceModule(ctx) }()
	<-gw.entered

	assert.Equal(t, PhaseAdvancing, c.Phase())
	assert.False(t, c.Snapshot().CanAdvance)
	assert.ErrorIs(t, c.AdvanceModule(ctx), ErrBusy)
	assert.Equal(t, "6.1", c.Snapshot().Session.CurrentModule)

	close(gw.release)
	require.NoError(t, <-done)

	v := c.Snapshot()
	assert.Equal(t, "6.2", v.Session.CurrentModule)
	assert.Equal(t, []string{"q1", "q2"}, v.Session.Questions)
	assert.Equal(t, 2, m.FetchCallCount())
}

func TestTerminalModuleOffersNoAdvance(t *testing.T) {
	m := gateway.NewMock().
		AddContent(gateway.Content{Summary: "s", Questions: []string{"q"}}, nil).
		AddGrade(gateway.Grade{Score: 3}, nil)
	h := newHarness(t, m)
	h.cfg.InitialModule = "6.4"
	c := started(t, h)
	ctx := context.Background()

	assert.True(t, c.Snapshot().Terminal)
	_, err := c.SubmitAnswer(ctx, "a")
	require.NoError(t, err)

	v := c.Snapshot()
	assert.Equal(t, PhaseTerminal, v.Phase)
	assert.False(t, v.CanAdvance)
	assert.False(t, v.CanSubmit)
	assert.Equal(t, VerdictFailed, v.Verdict)
	assert.ErrorIs(t, c.AdvanceModule(ctx), ErrTerminal)
	assert.Equal(t, 1, m.FetchCallCount())
}

func TestResetRestoresInitialModule(t *testing.T) {
	m := gateway.NewMock().
		AddContent(gateway.Content{Summary: "s1", Questions: []string{"q1"}}, nil).
		AddGrade(gateway.Grade{Score: 7}, nil).
		AddContent(gateway.Content{Summary: "s2", Questions: []string{"q2"}}, nil).
		AddContent(gateway.Content{Summary: "fresh", Questions: []string{"f1", "f2"}}, nil)
	h := newHarness(t, m)
	c := started(t, h)
	ctx := context.Background()

	_, err := c.SubmitAnswer(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, c.AdvanceModule(ctx))
	require.Equal(t, "6.2", c.Snapshot().Session.CurrentModule)

	require.NoError(t, c.Reset(ctx))

	v := c.Snapshot()
	assert.Equal(t, "6.1", v.Session.CurrentModule)
	assert.Equal(t, 0.0, v.Session.Score)
	assert.Equal(t, 0, v.Session.CurrentQuestionIndex)
	assert.Empty(t, v.Session.Answers)
	assert.Equal(t, []string{"f1", "f2"}, v.Session.Questions)
	assert.Equal(t, "fresh", v.Session.Summary)
	assert.Equal(t, "1234", v.Session.LearnerID)
	assert.Equal(t, h.cfg.SessionDuration, v.TimeRemaining)
	assert.Equal(t, "6.1", m.FetchCalls[len(m.FetchCalls)-1])

	// The persisted mirror matches after a restart.
	restored := h.controller().Snapshot().Session
	assert.Equal(t, v.Session, restored)
}

func TestRestartRestoresProgress(t *testing.T) {
	m := gateway.NewMock().
		AddContent(twoQuestions("Cells"), nil).
		AddGrade(gateway.Grade{Response: "ok", Score: 7}, nil)
	h := newHarness(t, m)
	c := started(t, h)

	_, err := c.SubmitAnswer(context.Background(), "a")
	require.NoError(t, err)
	want := c.Snapshot().Session

	again := h.controller()
	require.NoError(t, again.Start(context.Background()))
	v := again.Snapshot()
	assert.Equal(t, want, v.Session)
	assert.Equal(t, PhaseActive, v.Phase)
	assert.True(t, v.TimerRunning)
	assert.Equal(t, 1, m.FetchCallCount(), "restored content must not be refetched")
	assert.Empty(t, again.RestoreReport().Corrupt)
}

func TestStartBootstrapFailureIsRetryable(t *testing.T) {
	m := gateway.NewMock().
		AddContent(gateway.Content{}, &gateway.TransportError{Op: gateway.OpFetchContent, Err: errors.New("refused")}).
		AddContent(twoQuestions("Cells"), nil)
	h := newHarness(t, m)
	c := h.controller()
	ctx := context.Background()
	_, err := c.SubmitIdentifier(ctx, "1234")
	require.NoError(t, err)

	require.Error(t, c.Start(ctx))
	v := c.Snapshot()
	assert.Equal(t, PhaseLoading, v.Phase)
	assert.Error(t, v.Err)
	assert.False(t, v.TimerRunning, "timer starts only once content has loaded")
	assert.Empty(t, v.Session.Questions)

	require.NoError(t, c.Bootstrap(ctx))
	v = c.Snapshot()
	assert.Equal(t, PhaseActive, v.Phase)
	assert.True(t, v.TimerRunning)
}

func TestTimeoutFreezesUntilAcknowledged(t *testing.T) {
	m := gateway.NewMock().
		AddContent(twoQuestions("Cells"), nil).
		AddGrade(gateway.Grade{Score: 5}, nil).
		AddGrade(gateway.Grade{Score: 6}, nil)
	c := started(t, newHarness(t, m))
	ctx := context.Background()

	_, err := c.SubmitAnswer(ctx, "a")
	require.NoError(t, err)

	assert.True(t, c.Tick())
	assert.True(t, c.Tick())
	assert.False(t, c.Tick(), "third tick of a 3s timer expires it")
	assert.False(t, c.Tick())

	v := c.Snapshot()
	assert.True(t, v.TimedOut)
	assert.False(t, v.CanSubmit)
	assert.Equal(t, time.Duration(0), v.TimeRemaining)

	_, err = c.SubmitAnswer(ctx, "b")
	assert.ErrorIs(t, err, ErrTimedOut)
	assert.ErrorIs(t, c.Reset(ctx), ErrTimedOut)

	before := v.Session
	assert.True(t, c.AcknowledgeTimeout())

	v = c.Snapshot()
	assert.False(t, v.TimedOut)
	assert.True(t, v.CanSubmit)
	assert.Equal(t, 3*time.Second, v.TimeRemaining)
	assert.Equal(t, before, v.Session)

	_, err = c.SubmitAnswer(ctx, "b")
	require.NoError(t, err)
}

func TestRestoreRepairsPartialWrite(t *testing.T) {
	h := newHarness(t, gateway.NewMock())
	p := session.NewPersister(h.store.FieldRepo(), nil)
	ctx := context.Background()

	// Index persisted ahead of answers, as after a crash between writes.
	p.SaveAll(ctx, session.Session{
		LearnerID:            "1234",
		CurrentModule:        "6.2",
		Questions:            []string{"q1", "q2"},
		Answers:              []session.Answer{{Question: "q1", Score: 4}},
		CurrentQuestionIndex: 1,
		Summary:              "s",
		Score:                4,
	})
	p.Save(ctx, session.KeyCurrentQuestionIndex, 2)

	c := h.controller()
	v := c.Snapshot()
	assert.Equal(t, 1, v.Session.CurrentQuestionIndex)
	assert.Len(t, v.Session.Answers, 1)
	assert.Equal(t, "6.2", v.Session.CurrentModule)
	assert.NotEmpty(t, c.RestoreReport().Repairs)
	assert.Equal(t, PhaseActive, v.Phase)
}

func TestCorruptQuestionsDoNotResurrectOldAnswers(t *testing.T) {
	fresh := gateway.Content{Summary: "new", Questions: []string{"N1", "N2", "N3"}}
	m := gateway.NewMock().AddContent(fresh, nil)
	h := newHarness(t, m)
	repo := h.store.FieldRepo()
	p := session.NewPersister(repo, nil)
	ctx := context.Background()

	p.SaveAll(ctx, session.Session{
		LearnerID:     "1234",
		CurrentModule: "6.1",
		Questions:     []string{"O1", "O2", "O3"},
		Answers: []session.Answer{
			{Question: "O1", UserAnswer: "a", Score: 5},
			{Question: "O2", UserAnswer: "b", Score: 6},
		},
		CurrentQuestionIndex: 2,
		Summary:              "old",
		Score:                11,
	})
	require.NoError(t, repo.Put(ctx, session.KeyQuestions, []byte("{corrupt")))

	c := h.controller()
	require.NoError(t, c.Start(ctx))
	v := c.Snapshot()
	assert.Equal(t, fresh.Questions, v.Session.Questions)
	assert.Empty(t, v.Session.Answers)
	assert.Zero(t, v.Session.CurrentQuestionIndex)

	again := h.controller()
	require.NoError(t, again.Start(ctx))
	v = again.Snapshot()
	assert.Equal(t, fresh.Questions, v.Session.Questions)
	assert.Empty(t, v.Session.Answers)
	assert.Zero(t, v.Session.CurrentQuestionIndex)
	assert.Zero(t, v.Session.Score)
	assert.Empty(t, again.RestoreReport().Repairs)
	assert.Equal(t, 1, m.FetchCallCount())
}

// slowDocumentGateway never answers RetrieveDocument until released.
type slowDocumentGateway struct {
	*gateway.Mock
	release chan struct{}
}

func (s *slowDocumentGateway) RetrieveDocument(ctx context.Context) (string, error) {
	<-s.release
	return s.Mock.RetrieveDocument(ctx)
}

func TestStartDoesNotWaitForDocument(t *testing.T) {
	m := gateway.NewMock().AddContent(twoQuestions("Cells"), nil)
	gw := &slowDocumentGateway{Mock: m, release: make(chan struct{})}
	c := newHarness(t, gw).controller()
	ctx := context.Background()
	_, err := c.SubmitIdentifier(ctx, "1234")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("start blocked on the document fetch")
	}
	assert.Equal(t, PhaseActive, c.Phase())
	close(gw.release)
	assert.Eventually(t, func() bool { return m.DocumentCallCount() == 1 }, time.Second, 10*time.Millisecond)
}
