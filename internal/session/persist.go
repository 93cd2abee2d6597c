package session

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/tutorai/tutorai/internal/store"
)

// Persisted keys. Each field is stored under its own key.
const (
	KeyQuestions            = "questions"
	KeyCurrentQuestionIndex = "currentQuestionIndex"
	KeyAnswers              = "answers"
	KeySummary              = "summary"
	KeyScore                = "score"
	KeyStudentID            = "studentId"
	KeyCurrentModule        = "currentModule"
)

// sessionKeys are cleared by a reset. The learner id is not among them.
var sessionKeys = []string{
	KeyQuestions,
	KeyCurrentQuestionIndex,
	KeyAnswers,
	KeySummary,
	KeyScore,
	KeyCurrentModule,
}

// Report describes what Load could not restore verbatim.
type Report struct {
	// Missing lists keys that were absent and took their default.
	Missing []string

	// Corrupt lists keys whose stored value could not be decoded.
	Corrupt []string

	// Repairs lists cross-field fixes applied by Normalize.
	Repairs []string
}

// Persister mirrors Session fields into a FieldRepo. It is a passive
// copy: the in-memory Session is always authoritative.
type Persister struct {
	repo   store.FieldRepo
	logger *zap.Logger
}

// NewPersister creates a Persister. A nil logger discards diagnostics.
func NewPersister(repo store.FieldRepo, logger *zap.Logger) *Persister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Persister{repo: repo, logger: logger}
}

// Load restores a Session. Every field is read independently; a missing
// or undecodable field falls back to its default without affecting the
// others. When anything had to be defaulted or repaired, the restored
// Session is written back so the stored copy matches it. Load never fails.
func (p *Persister) Load(ctx context.Context, initialModule string) (Session, Report) {
	s := Defaults(initialModule)
	var rep Report

	read := func(key string, dst any) {
		raw, ok, err := p.repo.Get(ctx, key)
		switch {
		case err != nil:
			p.logger.Warn("read session field", zap.String("key", key), zap.Error(err))
			rep.Corrupt = append(rep.Corrupt, key)
		case !ok:
			rep.Missing = append(rep.Missing, key)
		default:
			if err := json.Unmarshal(raw, dst); err != nil {
				p.logger.Warn("decode session field", zap.String("key", key), zap.Error(err))
				rep.Corrupt = append(rep.Corrupt, key)
			}
		}
	}

	var (
		learnerID string
		module    string
		questions []string
		answers   []Answer
		index     int
		summary   string
		score     float64
	)

	// Decode into temporaries so a half-decoded value never leaks into s.
	read(KeyStudentID, &learnerID)
	read(KeyCurrentModule, &module)
	read(KeyQuestions, &questions)
	read(KeyAnswers, &answers)
	read(KeyCurrentQuestionIndex, &index)
	read(KeySummary, &summary)
	read(KeyScore, &score)

	if !slices.Contains(rep.Corrupt, KeyStudentID) {
		s.LearnerID = learnerID
	}
	if !slices.Contains(rep.Corrupt, KeyCurrentModule) && module != "" {
		s.CurrentModule = module
	}
	if !slices.Contains(rep.Corrupt, KeyQuestions) {
		s.Questions = questions
	}
	if !slices.Contains(rep.Corrupt, KeyAnswers) {
		s.Answers = answers
	}
	if !slices.Contains(rep.Corrupt, KeyCurrentQuestionIndex) {
		s.CurrentQuestionIndex = index
	}
	if !slices.Contains(rep.Corrupt, KeySummary) {
		s.Summary = summary
	}
	if !slices.Contains(rep.Corrupt, KeyScore) {
		s.Score = score
	}

	rep.Repairs = s.Normalize()
	if len(rep.Repairs) > 0 {
		p.logger.Warn("repaired restored session", zap.Strings("repairs", rep.Repairs))
	}
	if len(rep.Repairs) > 0 || len(rep.Corrupt) > 0 {
		p.SaveAll(ctx, s)
	}
	return s, rep
}

// Save mirrors one field. Failures are logged and otherwise ignored:
// durability is best-effort and never blocks the caller's transition.
func (p *Persister) Save(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		p.logger.Warn("encode session field", zap.String("key", key), zap.Error(err))
		return
	}
	if err := p.repo.Put(ctx, key, raw); err != nil {
		p.logger.Warn("write session field", zap.String("key", key), zap.Error(err))
	}
}

// SaveAll mirrors every field of s, each as an independent write.
func (p *Persister) SaveAll(ctx context.Context, s Session) {
	p.Save(ctx, KeyStudentID, s.LearnerID)
	p.Save(ctx, KeyCurrentModule, s.CurrentModule)
	p.Save(ctx, KeyQuestions, nonNil(s.Questions))
	p.Save(ctx, KeyAnswers, nonNilAnswers(s.Answers))
	p.Save(ctx, KeyCurrentQuestionIndex, s.CurrentQuestionIndex)
	p.Save(ctx, KeySummary, s.Summary)
	p.Save(ctx, KeyScore, s.Score)
}

// Clear removes every session field except the learner id.
func (p *Persister) Clear(ctx context.Context) error {
	if err := p.repo.Delete(ctx, sessionKeys...); err != nil {
		p.logger.Warn("clear session fields", zap.Error(err))
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// ForgetLearner removes the persisted learner id.
func (p *Persister) ForgetLearner(ctx context.Context) error {
	if err := p.repo.Delete(ctx, KeyStudentID); err != nil {
		return fmt.Errorf("forget learner: %w", err)
	}
	return nil
}

// nonNil keeps empty sequences serialized as [] rather than null.
func nonNil(qs []string) []string {
	if qs == nil {
		return []string{}
	}
	return qs
}

func nonNilAnswers(as []Answer) []Answer {
	if as == nil {
		return []Answer{}
	}
	return as
}
