// Package gateway is the client's view of the tutoring backend: content
// generation for a module and grading of a single answer.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Gateway is the request/response contract with the scoring backend.
type Gateway interface {
	// FetchContent returns the summary and question set for a module.
	FetchContent(ctx context.Context, module string) (Content, error)

	// Score grades one answer.
	Score(ctx context.Context, req ScoreRequest) (Grade, error)

	// RetrieveDocument returns the source document text.
	RetrieveDocument(ctx context.Context) (string, error)
}

// Content is the generated material for one module.
type Content struct {
	Summary   string   `json:"summary"`
	Questions []string `json:"questions"`
}

// ScoreRequest is the body of a grading call.
type ScoreRequest struct {
	Question   string `json:"question" validate:"required"`
	UserAnswer string `json:"user_answer"`
	Summary    string `json:"summary"`
	UserID     string `json:"user_id"`
	// ID is the experiment/session tag supplied at launch.
	ID string `json:"id"`
}

// Grade is the backend's verdict on one answer.
type Grade struct {
	Response string `json:"response"`
	Score    Score  `json:"score"`
}

// Score is a grade value. It decodes from a JSON number or from a string
// holding a number, since backends have returned both.
type Score float64

func (s *Score) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*s = 0
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		raw = strings.TrimSpace(str)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("score %s is not numeric", string(b))
	}
	*s = Score(v)
	return nil
}

// Document is the body of a document retrieval.
type Document struct {
	Document string `json:"document"`
}

// Operation names used in errors and request events.
const (
	OpFetchContent     = "fetch_content"
	OpScore            = "score"
	OpRetrieveDocument = "retrieve_document"
)
