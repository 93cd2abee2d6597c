// Package content fetches a module's summary and questions and folds them
// into a session.
package content

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tutorai/tutorai/internal/gateway"
	"github.com/tutorai/tutorai/internal/session"
)

// ErrNoQuestions is returned when the backend produced no usable question.
// Such a batch is never applied.
var ErrNoQuestions = errors.New("content: backend returned no questions")

// Mode says how a batch merges into existing questions.
type Mode int

const (
	// Replace overwrites the question set. Used by bootstrap.
	Replace Mode = iota
	// Append extends the question set. Used when advancing modules.
	Append
)

func (m Mode) String() string {
	if m == Append {
		return "append"
	}
	return "replace"
}

// Batch is a fetched module ready to apply.
type Batch struct {
	Module    string
	Mode      Mode
	Summary   string
	Questions []string
}

// ApplyTo folds the batch into s. The summary is always replaced. On
// Append, prior questions, answers and the index are left in place.
func (b Batch) ApplyTo(s *session.Session) {
	s.Summary = b.Summary
	switch b.Mode {
	case Append:
		s.Questions = append(s.Questions, b.Questions...)
	default:
		s.Questions = append([]string(nil), b.Questions...)
	}
}

// Loader retrieves module content from a gateway.
type Loader struct {
	gw     gateway.Gateway
	logger *zap.Logger
}

// NewLoader creates a Loader. A nil logger discards diagnostics.
func NewLoader(gw gateway.Gateway, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{gw: gw, logger: logger}
}

// Bootstrap fetches content that replaces the session's question set.
func (l *Loader) Bootstrap(ctx context.Context, module string) (Batch, error) {
	return l.fetch(ctx, module, Replace)
}

// Extend fetches content that is appended to the session's question set.
func (l *Loader) Extend(ctx context.Context, module string) (Batch, error) {
	return l.fetch(ctx, module, Append)
}

func (l *Loader) fetch(ctx context.Context, module string, mode Mode) (Batch, error) {
	c, err := l.gw.FetchContent(gateway.WithModule(ctx, module), module)
	if err != nil {
		return Batch{}, fmt.Errorf("load module %s: %w", module, err)
	}

	questions := cleanQuestions(c.Questions)
	if len(questions) == 0 {
		return Batch{}, fmt.Errorf("load module %s: %w", module, ErrNoQuestions)
	}
	if dropped := len(c.Questions) - len(questions); dropped > 0 {
		l.logger.Debug("dropped blank questions",
			zap.String("module", module), zap.Int("dropped", dropped))
	}

	return Batch{
		Module:    module,
		Mode:      mode,
		Summary:   c.Summary,
		Questions: questions,
	}, nil
}

// PrimeDocument performs the document retrieval the backend expects on
// startup. The text is not used; failures are only logged.
func (l *Loader) PrimeDocument(ctx context.Context) {
	doc, err := l.gw.RetrieveDocument(ctx)
	if err != nil {
		l.logger.Warn("retrieve document", zap.Error(err))
		return
	}
	l.logger.Debug("retrieved document", zap.Int("bytes", len(doc)))
}

func cleanQuestions(in []string) []string {
	out := make([]string, 0, len(in))
	for _, q := range in {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		out = append(out, q)
	}
	return out
}
