package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tutorai/tutorai/internal/config"
	"github.com/tutorai/tutorai/internal/logging"
	"github.com/tutorai/tutorai/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "tutorai",
	Short: "Textbook tutoring quiz in the terminal",
	Long: "TutorAI walks a student through a textbook chapter one section at a time: " +
		"it shows a summary, asks short-answer questions and grades each answer.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides TUTORAI_DB env var)")
	rootCmd.PersistentFlags().String("log-file", "", "Path to the log file (overrides TUTORAI_LOG_FILE env var)")
	rootCmd.PersistentFlags().Bool("debug", false, "Log at debug level")

	rootCmd.Flags().String("backend", "", "Backend base URL (overrides origin-based selection)")
	rootCmd.Flags().String("origin", "", "Origin the client reports; localhost origins use the local backend")
	rootCmd.Flags().String("module", "", "Initial module label, e.g. 6.1")
	rootCmd.Flags().String("experiment-id", "", "Experiment tag sent with every scoring request")
	rootCmd.Flags().Bool("local", false, "Grade in-process with a language model instead of calling a backend")
	rootCmd.Flags().String("textbook", "textbook", "Directory of section files for --local")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(requestsCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads defaults, .env and the environment, then applies any
// flags the command defines. Flags win over env.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}

	str := func(name string, dst *string) {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			*dst = f.Value.String()
		}
	}
	str("backend", &cfg.BackendURL)
	str("origin", &cfg.Origin)
	str("module", &cfg.InitialModule)
	str("experiment-id", &cfg.ExperimentID)
	str("log-file", &cfg.LogPath)

	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then TUTORAI_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// openLogger builds the file logger. console also writes to stderr.
func openLogger(cmd *cobra.Command, cfg config.Config, console bool) (*zap.Logger, error) {
	path := cfg.LogPath
	if path == "" {
		p, err := logging.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	debug, _ := cmd.Flags().GetBool("debug")
	return logging.New(logging.Options{Path: path, Console: console, Debug: debug})
}
