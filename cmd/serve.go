package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tutorai/tutorai/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP grading backend",
	Long:  "Serve summaries, questions and grades over HTTP for a textbook directory, using a language model.",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		dir, _ := cmd.Flags().GetString("textbook")
		origins, _ := cmd.Flags().GetStringSlice("allow-origin")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := openLogger(cmd, cfg, true)
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		defer logger.Sync() //nolint:errcheck

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		svc, err := localGrader(ctx, dir, logger)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr: addr,
			Handler: server.New(svc, server.Options{
				AllowedOrigins: origins,
				DefaultSection: cfg.InitialModule,
				RequestTimeout: cfg.RequestTimeout,
				Logger:         logger.Named("http"),
			}),
			ReadHeaderTimeout: 5 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("listening", zap.String("addr", addr))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8000", "Listen address")
	serveCmd.Flags().String("textbook", "textbook", "Directory of section files named <chapter>.<section>.txt or .md")
	serveCmd.Flags().StringSlice("allow-origin", nil, "CORS origin to allow (repeatable; defaults to local front-ends)")
}
