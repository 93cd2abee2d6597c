package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/tutorai/tutorai/internal/module"
)

const (
	// LocalBaseURL is the backend used when the client runs against a local origin.
	LocalBaseURL = "http://localhost:8000"

	// DeployedBaseURL is the fixed backend for every non-local origin.
	DeployedBaseURL = "http://52.15.75.24:8000"
)

// Config holds the client and backend settings.
type Config struct {
	// Origin identifies where the client believes it is running. It only
	// drives base URL selection.
	Origin string

	// BackendURL, when set, overrides origin-based selection.
	BackendURL string

	// BaseURL is the resolved backend address. Set once by Load.
	BaseURL string

	InitialModule  string
	TerminalModule string

	SessionDuration time.Duration
	MaxScore        float64

	// ExperimentID is sent as the "id" tag on every scoring request.
	ExperimentID string

	RequestTimeout time.Duration

	// PassRatio and ReviewRatio are fractions of the maximum attainable
	// score. Below PassRatio the learner failed the module; below
	// ReviewRatio they passed but should review.
	PassRatio   float64
	ReviewRatio float64

	LogPath string
}

// Default returns a Config with the stock values.
func Default() Config {
	return Config{
		Origin:          "http://localhost:5173",
		InitialModule:   "6.1",
		TerminalModule:  "6.4",
		SessionDuration: 1200 * time.Second,
		MaxScore:        10,
		RequestTimeout:  60 * time.Second,
		PassRatio:       0.6,
		ReviewRatio:     0.85,
	}
}

// Load reads an optional .env file, applies TUTORAI_* environment
// variables over the defaults and resolves the backend base URL.
func Load() (Config, error) {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	cfg := Default()

	if v := os.Getenv("TUTORAI_ORIGIN"); v != "" {
		cfg.Origin = v
	}
	if v := os.Getenv("TUTORAI_BACKEND_URL"); v != "" {
		cfg.BackendURL = v
	}
	if v := os.Getenv("TUTORAI_INITIAL_MODULE"); v != "" {
		cfg.InitialModule = v
	}
	if v := os.Getenv("TUTORAI_TERMINAL_MODULE"); v != "" {
		cfg.TerminalModule = v
	}
	if v := os.Getenv("TUTORAI_EXPERIMENT_ID"); v != "" {
		cfg.ExperimentID = v
	}
	if v := os.Getenv("TUTORAI_SESSION_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("TUTORAI_SESSION_SECONDS: %w", err)
		}
		cfg.SessionDuration = time.Duration(secs) * time.Second
	}
	if v := os.Getenv("TUTORAI_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("TUTORAI_REQUEST_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = d
	}
	if v := os.Getenv("TUTORAI_LOG_FILE"); v != "" {
		cfg.LogPath = v
	}

	cfg.Resolve()
	return cfg, cfg.Validate()
}

// Resolve recomputes BaseURL from BackendURL and Origin. Callers that
// override either field after Load must call it again.
func (c *Config) Resolve() {
	if c.BackendURL != "" {
		c.BaseURL = strings.TrimRight(c.BackendURL, "/")
		return
	}
	c.BaseURL = ResolveBaseURL(c.Origin)
}

// ResolveBaseURL picks the backend for an origin: local development
// origins talk to a local backend, everything else to the deployed one.
func ResolveBaseURL(origin string) string {
	if strings.Contains(origin, "localhost") {
		return LocalBaseURL
	}
	return DeployedBaseURL
}

// Validate checks the configuration for values the controller cannot run with.
func (c Config) Validate() error {
	var errs []error
	if _, err := module.Parse(c.InitialModule); err != nil {
		errs = append(errs, fmt.Errorf("initial module: %w", err))
	}
	if _, err := module.Parse(c.TerminalModule); err != nil {
		errs = append(errs, fmt.Errorf("terminal module: %w", err))
	}
	if c.SessionDuration <= 0 {
		errs = append(errs, errors.New("session duration must be positive"))
	}
	if c.MaxScore <= 0 {
		errs = append(errs, errors.New("max score must be positive"))
	}
	if c.PassRatio < 0 || c.PassRatio > 1 || c.ReviewRatio < 0 || c.ReviewRatio > 1 {
		errs = append(errs, errors.New("pass and review ratios must be within [0, 1]"))
	}
	if c.PassRatio > c.ReviewRatio {
		errs = append(errs, errors.New("pass ratio must not exceed review ratio"))
	}
	return errors.Join(errs...)
}
