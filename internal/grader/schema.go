package grader

import "github.com/tutorai/tutorai/internal/llm"

var summarySchema = &llm.Schema{
	Name:        "section-summary",
	Description: "A study summary of one textbook section",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{"type": "string", "description": "The summary, a few paragraphs of plain prose"},
		},
		"required":             []any{"summary"},
		"additionalProperties": false,
	},
}

var questionSchema = &llm.Schema{
	Name:        "short-answer-questions",
	Description: "Short-answer comprehension questions about a summary",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":        "array",
				"description": "One question per element, without numbering",
				"items":       map[string]any{"type": "string"},
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}

var evaluationSchema = &llm.Schema{
	Name:        "answer-evaluation",
	Description: "A grade for one short answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"maximum":     10,
				"description": "0 is unanswered or wrong, 10 is complete and correct",
			},
			"explanation": map[string]any{
				"type":        "string",
				"description": "Why the answer earned this score, quoting the text",
			},
		},
		"required":             []any{"score", "explanation"},
		"additionalProperties": false,
	},
}
