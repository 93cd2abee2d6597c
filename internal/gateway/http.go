package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// maxErrorBody bounds how much of a failed response is quoted in errors.
const maxErrorBody = 512

// HTTP implements Gateway against the REST backend.
type HTTP struct {
	baseURL string
	client  *http.Client
}

// NewHTTP creates an HTTP gateway rooted at baseURL. A zero timeout means
// no client-side deadline beyond the caller's context.
func NewHTTP(baseURL string, timeout time.Duration) *HTTP {
	return &HTTP{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the backend root this gateway talks to.
func (h *HTTP) BaseURL() string {
	return h.baseURL
}

func (h *HTTP) FetchContent(ctx context.Context, module string) (Content, error) {
	q := url.Values{}
	q.Set("section", module)

	var c Content
	if err := h.do(ctx, OpFetchContent, http.MethodGet, "/generate-summary-and-questions?"+q.Encode(), nil, &c); err != nil {
		return Content{}, err
	}
	return c, nil
}

func (h *HTTP) Score(ctx context.Context, req ScoreRequest) (Grade, error) {
	var g Grade
	if err := h.do(ctx, OpScore, http.MethodPost, "/query", req, &g); err != nil {
		return Grade{}, err
	}
	return g, nil
}

func (h *HTTP) RetrieveDocument(ctx context.Context) (string, error) {
	var d Document
	if err := h.do(ctx, OpRetrieveDocument, http.MethodGet, "/retrieve-document", nil, &d); err != nil {
		return "", err
	}
	return d.Document, nil
}

func (h *HTTP) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reader)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        errors.New(strings.TrimSpace(string(snippet))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
