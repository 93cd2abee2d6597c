// Package server exposes a Gateway over the HTTP contract the tutoring
// client speaks.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tutorai/tutorai/internal/gateway"
	"github.com/tutorai/tutorai/internal/grader"
	"github.com/tutorai/tutorai/internal/module"
)

// maxBody caps a /query request body.
const maxBody = 64 << 10

// Options configures the handler.
type Options struct {
	// AllowedOrigins for CORS. Empty means the local front-end defaults.
	AllowedOrigins []string

	// DefaultSection is served when /generate-summary-and-questions is
	// called without a section.
	DefaultSection string

	RequestTimeout time.Duration
	Logger         *zap.Logger
}

// DefaultOrigins matches the local development front-ends.
var DefaultOrigins = []string{"http://localhost:5173", "http://localhost:3000", "http://127.0.0.1:5173"}

type handler struct {
	gw       gateway.Gateway
	opts     Options
	validate *validator.Validate
	logger   *zap.Logger
}

// New returns the router serving gw.
func New(gw gateway.Gateway, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = DefaultOrigins
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	if opts.DefaultSection == "" {
		opts.DefaultSection = "6.1"
	}

	h := &handler{
		gw:       gw,
		opts:     opts,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   opts.Logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, accessLog(opts.Logger), middleware.Recoverer)
	r.Use(middleware.Timeout(opts.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", h.root)
	r.Get("/generate-summary-and-questions", h.generate)
	r.Get("/retrieve-document", h.document)
	r.Post("/query", h.query)
	return r
}

func (h *handler) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Hello, World!"})
}

func (h *handler) generate(w http.ResponseWriter, r *http.Request) {
	section := strings.TrimSpace(r.URL.Query().Get("section"))
	if section == "" {
		section = h.opts.DefaultSection
	}
	if _, err := module.Parse(section); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.gw.FetchContent(r.Context(), section)
	if err != nil {
		h.fail(w, r, "generate content", err)
		return
	}
	if c.Questions == nil {
		c.Questions = []string{}
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *handler) document(w http.ResponseWriter, r *http.Request) {
	doc, err := h.gw.RetrieveDocument(r.Context())
	if err != nil {
		h.fail(w, r, "retrieve document", err)
		return
	}
	writeJSON(w, http.StatusOK, gateway.Document{Document: doc})
}

func (h *handler) query(w http.ResponseWriter, r *http.Request) {
	var req gateway.ScoreRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeErr(w, http.StatusUnprocessableEntity, validationMessage(err))
		return
	}

	g, err := h.gw.Score(r.Context(), req)
	if err != nil {
		h.fail(w, r, "score answer", err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// fail maps a backend error to a status and logs it with the request id.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, grader.ErrUnknownSection):
		status = http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	h.logger.Warn(op+" failed",
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Int("status", status),
		zap.Error(err))
	writeErr(w, status, err.Error())
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, strings.ToLower(fe.Field())+" is "+fe.Tag())
	}
	return strings.Join(parts, "; ")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errResp struct {
	Error string `json:"error"`
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errResp{Error: msg})
}
