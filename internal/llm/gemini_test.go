package llm

import (
	"testing"

	"google.golang.org/genai"
)

func TestGeminiSchema(t *testing.T) {
	def := map[string]any{
		"type":        "object",
		"description": "An answer evaluation",
		"properties": map[string]any{
			"score":       map[string]any{"type": "integer", "minimum": 0, "maximum": 10},
			"explanation": map[string]any{"type": "string"},
			"tags":        map[string]any{"type": "array", "items": map[string]any{"type": "string", "enum": []any{"a", "b"}}},
		},
		"required": []string{"score", "explanation"},
	}

	s := geminiSchema(def)

	if s.Type != genai.TypeObject {
		t.Fatalf("expected object, got %s", s.Type)
	}
	if s.Description != "An answer evaluation" {
		t.Fatalf("description lost: %q", s.Description)
	}
	score := s.Properties["score"]
	if score.Type != genai.TypeInteger {
		t.Fatalf("expected integer score, got %s", score.Type)
	}
	if score.Minimum == nil || *score.Minimum != 0 || score.Maximum == nil || *score.Maximum != 10 {
		t.Fatalf("bounds lost: %+v", score)
	}
	if got := s.Properties["tags"].Items; got == nil || len(got.Enum) != 2 {
		t.Fatalf("array items lost: %+v", got)
	}
	if len(s.Required) != 2 {
		t.Fatalf("expected 2 required fields, got %v", s.Required)
	}
}

func TestGeminiSchema_UnknownTypeIsString(t *testing.T) {
	if got := geminiSchema(map[string]any{"type": "null"}).Type; got != genai.TypeString {
		t.Fatalf("expected string fallback, got %s", got)
	}
}
