package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockResponse is one canned Generate result.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// Mock returns canned responses in FIFO order and records every request.
// An empty queue yields ErrUnavailable. Content is checked against the
// request schema, like the real adapters.
type Mock struct {
	mu        sync.Mutex
	responses []MockResponse
	Calls     []Request
}

func NewMock(responses ...MockResponse) *Mock {
	return &Mock{responses: responses}
}

// AddJSON queues a structured response.
func (m *Mock) AddJSON(content string) *Mock {
	return m.Add(MockResponse{Content: json.RawMessage(content)})
}

func (m *Mock) Add(r MockResponse) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, r)
	return m
}

func (m *Mock) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	if len(m.responses) == 0 {
		m.mu.Unlock()
		return nil, &ErrUnavailable{}
	}
	next := m.responses[0]
	m.responses = m.responses[1:]
	m.mu.Unlock()

	if next.Err != nil {
		return nil, next.Err
	}
	if err := validateResponse(req.Schema, next.Content); err != nil {
		return nil, err
	}
	return &Response{Content: next.Content, Usage: next.Usage, Model: "mock", StopReason: "end"}, nil
}

func (m *Mock) ModelID() string { return "mock" }

func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
