package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tutorai/tutorai/internal/app"
	"github.com/tutorai/tutorai/internal/gateway"
	"github.com/tutorai/tutorai/internal/grader"
	"github.com/tutorai/tutorai/internal/llm"
	"github.com/tutorai/tutorai/internal/screen"
	"github.com/tutorai/tutorai/internal/screens/gate"
	"github.com/tutorai/tutorai/internal/screens/quiz"
	"github.com/tutorai/tutorai/internal/session"
	"github.com/tutorai/tutorai/internal/tutor"
)

// runApp opens the store, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := openLogger(cmd, cfg, false)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	var base gateway.Gateway
	if local, _ := cmd.Flags().GetBool("local"); local {
		dir, _ := cmd.Flags().GetString("textbook")
		base, err = localGrader(ctx, dir, logger)
		if err != nil {
			return err
		}
	} else {
		base = gateway.NewHTTP(cfg.BaseURL, cfg.RequestTimeout)
	}

	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))
	logger.Info("starting", zap.String("backend", cfg.BaseURL), zap.String("module", cfg.InitialModule))
	gw := gateway.WithLogging(base, st.EventRepo(), runID, logger)

	ctrl, err := tutor.New(ctx, tutor.Options{
		Config:    cfg,
		Gateway:   gw,
		Persister: session.NewPersister(st.FieldRepo(), logger),
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	if rep := ctrl.RestoreReport(); len(rep.Corrupt) > 0 || len(rep.Repairs) > 0 {
		logger.Warn("restored session with repairs",
			zap.Strings("corrupt", rep.Corrupt), zap.Strings("repairs", rep.Repairs))
	}

	newQuiz := func() screen.Screen { return quiz.New(ctrl, logger) }
	var initial screen.Screen
	if ctrl.Phase() == tutor.PhaseAwaitingIdentity {
		initial = gate.New(ctrl, newQuiz)
	} else {
		initial = newQuiz()
	}
	return app.Run(initial)
}

// localGrader builds the in-process grading backend over the textbook in dir.
func localGrader(ctx context.Context, dir string, logger *zap.Logger) (*grader.Service, error) {
	cfg, ok := llm.ConfigFromEnv()
	if !ok {
		return nil, errors.New("no language model configured: set OPENAI_API_KEY, ANTHROPIC_API_KEY or GEMINI_API_KEY")
	}
	provider, err := llm.New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	book := grader.NewTextbook(dir)
	labels, err := book.Labels()
	if err != nil {
		return nil, fmt.Errorf("read textbook %s: %w", dir, err)
	}
	logger.Info("textbook loaded", zap.String("dir", dir), zap.Strings("sections", labels))
	return grader.New(grader.DefaultConfig(), provider, book, logger), nil
}
