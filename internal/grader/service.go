// Package grader is an in-process tutoring backend. It turns textbook
// sections into summaries and questions and grades free-text answers with
// a language model.
package grader

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/tutorai/tutorai/internal/gateway"
	"github.com/tutorai/tutorai/internal/llm"
)

// Config tunes generation.
type Config struct {
	// Topic names the subject in prompts.
	Topic string

	// QuestionCount is how many questions each module gets.
	QuestionCount int

	// DocumentSection is served by RetrieveDocument.
	DocumentSection string

	// CacheTTL bounds how long generated content is reused.
	CacheTTL time.Duration

	Temperature float64
}

func DefaultConfig() Config {
	return Config{
		Topic:           "psychology",
		QuestionCount:   5,
		DocumentSection: "6.1",
		CacheTTL:        6 * time.Hour,
		Temperature:     0.3,
	}
}

const (
	summaryTokens    = 1024
	questionTokens   = 1024
	evaluationTokens = 512
)

// Service implements gateway.Gateway on top of a Provider.
type Service struct {
	cfg      Config
	provider llm.Provider
	book     *Textbook
	cache    *cache.Cache
	logger   *zap.Logger
}

var _ gateway.Gateway = (*Service)(nil)

func New(cfg Config, provider llm.Provider, book *Textbook, logger *zap.Logger) *Service {
	if cfg.QuestionCount <= 0 {
		cfg.QuestionCount = DefaultConfig().QuestionCount
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:      cfg,
		provider: provider,
		book:     book,
		cache:    cache.New(cfg.CacheTTL, 10*time.Minute),
		logger:   logger,
	}
}

// FetchContent summarizes the module's section and writes questions about
// the summary. Results are cached per module, so a repeated fetch returns
// the same question set.
func (s *Service) FetchContent(ctx context.Context, mod string) (gateway.Content, error) {
	if v, ok := s.cache.Get(mod); ok {
		c := v.(gateway.Content)
		c.Questions = append([]string(nil), c.Questions...)
		return c, nil
	}

	text, err := s.book.Section(mod)
	if err != nil {
		return gateway.Content{}, err
	}

	var sum struct {
		Summary string `json:"summary"`
	}
	if err := s.generate(llm.WithPurpose(ctx, "summarize"), summarizePrompt(text), summarySchema, summaryTokens, &sum); err != nil {
		return gateway.Content{}, fmt.Errorf("summarize %s: %w", mod, err)
	}

	var qs struct {
		Questions []string `json:"questions"`
	}
	if err := s.generate(llm.WithPurpose(ctx, "questions"), questionsPrompt(sum.Summary, s.cfg.QuestionCount), questionSchema, questionTokens, &qs); err != nil {
		return gateway.Content{}, fmt.Errorf("questions %s: %w", mod, err)
	}

	c := gateway.Content{
		Summary:   strings.TrimSpace(sum.Summary),
		Questions: tidyQuestions(qs.Questions, s.cfg.QuestionCount),
	}
	cached := c
	cached.Questions = append([]string(nil), c.Questions...)
	s.cache.SetDefault(mod, cached)
	s.logger.Info("generated module content",
		zap.String("module", mod), zap.Int("questions", len(c.Questions)))
	return c, nil
}

// Score grades one answer against the summary sent with it.
func (s *Service) Score(ctx context.Context, req gateway.ScoreRequest) (gateway.Grade, error) {
	var ev struct {
		Score       int    `json:"score"`
		Explanation string `json:"explanation"`
	}
	prompt := evaluatePrompt(req.Summary, req.Question, req.UserAnswer)
	if err := s.generate(llm.WithPurpose(ctx, "evaluate"), prompt, evaluationSchema, evaluationTokens, &ev); err != nil {
		return gateway.Grade{}, fmt.Errorf("evaluate answer: %w", err)
	}
	return gateway.Grade{
		Response: strings.TrimSpace(ev.Explanation),
		Score:    gateway.Score(ev.Score),
	}, nil
}

// RetrieveDocument returns the configured document section verbatim.
func (s *Service) RetrieveDocument(context.Context) (string, error) {
	return s.book.Section(s.cfg.DocumentSection)
}

func (s *Service) generate(ctx context.Context, prompt string, schema *llm.Schema, maxTokens int, dst any) error {
	req := llm.Prompt(systemPrompt(s.cfg.Topic), prompt, schema, maxTokens)
	req.Temperature = s.cfg.Temperature

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return err
	}
	return resp.Decode(dst)
}

var listMarker = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)

// tidyQuestions strips list markers the model sometimes adds, drops blanks
// and caps the set at n.
func tidyQuestions(in []string, n int) []string {
	out := make([]string, 0, len(in))
	for _, q := range in {
		q = strings.TrimSpace(listMarker.ReplaceAllString(q, ""))
		if q == "" {
			continue
		}
		out = append(out, q)
		if len(out) == n {
			break
		}
	}
	return out
}
