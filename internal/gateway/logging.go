package gateway

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tutorai/tutorai/internal/store"
)

// LoggingGateway is a decorator that records every backend call as a
// request event and a log line. It never alters results.
type LoggingGateway struct {
	inner  Gateway
	events store.EventRepo
	runID  string
	logger *zap.Logger
}

// WithLogging wraps a Gateway with request recording. events may be nil
// to log without persisting.
func WithLogging(gw Gateway, events store.EventRepo, runID string, logger *zap.Logger) *LoggingGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingGateway{inner: gw, events: events, runID: runID, logger: logger}
}

func (l *LoggingGateway) FetchContent(ctx context.Context, module string) (Content, error) {
	start := time.Now()
	c, err := l.inner.FetchContent(ctx, module)
	l.record(ctx, OpFetchContent, module, "", start, err,
		zap.Int("questions", len(c.Questions)))
	return c, err
}

func (l *LoggingGateway) Score(ctx context.Context, req ScoreRequest) (Grade, error) {
	start := time.Now()
	g, err := l.inner.Score(ctx, req)
	l.record(ctx, OpScore, ModuleFrom(ctx), req.UserID, start, err,
		zap.Float64("score", float64(g.Score)))
	return g, err
}

func (l *LoggingGateway) RetrieveDocument(ctx context.Context) (string, error) {
	start := time.Now()
	d, err := l.inner.RetrieveDocument(ctx)
	l.record(ctx, OpRetrieveDocument, "", "", start, err,
		zap.Int("bytes", len(d)))
	return d, err
}

func (l *LoggingGateway) record(ctx context.Context, op, module, learner string, start time.Time, err error, extra ...zap.Field) {
	latency := time.Since(start)

	fields := append([]zap.Field{
		zap.String("op", op),
		zap.String("run_id", l.runID),
		zap.String("module", module),
		zap.Duration("latency", latency),
	}, extra...)
	if err != nil {
		l.logger.Warn("gateway request failed", append(fields, zap.Error(err))...)
	} else {
		l.logger.Info("gateway request", fields...)
	}

	if l.events == nil {
		return
	}
	e := store.GatewayRequestEvent{
		RunID:      l.runID,
		Op:         op,
		Module:     module,
		LearnerID:  learner,
		LatencyMs:  latency.Milliseconds(),
		StatusCode: StatusCode(err),
		Success:    err == nil,
	}
	if err != nil {
		e.ErrorMessage = err.Error()
	}
	// The request outcome stands regardless of whether it could be recorded.
	if logErr := l.events.AppendGatewayRequest(context.WithoutCancel(ctx), e); logErr != nil {
		l.logger.Warn("record gateway request", zap.Error(logErr))
	}
}

type contextKey string

const moduleKey contextKey = "gateway_module"

// WithModule attaches the active module label to the context so request
// events can be attributed to it.
func WithModule(ctx context.Context, module string) context.Context {
	return context.WithValue(ctx, moduleKey, module)
}

// ModuleFrom extracts the module label from the context.
func ModuleFrom(ctx context.Context) string {
	if v, ok := ctx.Value(moduleKey).(string); ok {
		return v
	}
	return ""
}
