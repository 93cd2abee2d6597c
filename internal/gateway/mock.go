package gateway

import (
	"context"
	"errors"
	"sync"
)

// ErrNoCannedResponse is returned by Mock when its queue for an operation
// is empty.
var ErrNoCannedResponse = errors.New("mock gateway: no canned response")

// MockContent is a canned FetchContent result.
type MockContent struct {
	Content Content
	Err     error
}

// MockGrade is a canned Score result.
type MockGrade struct {
	Grade Grade
	Err   error
}

// Mock is a deterministic Gateway for testing. Each operation pops from
// its own FIFO queue; every call is recorded.
type Mock struct {
	mu       sync.Mutex
	contents []MockContent
	grades   []MockGrade
	document string
	docErr   error

	// Block, when non-nil, is received from before every Score returns.
	// Tests use it to hold a submission in flight.
	Block chan struct{}

	FetchCalls    []string
	ScoreCalls    []ScoreRequest
	DocumentCalls int
}

// NewMock creates a Mock with no canned responses.
func NewMock() *Mock {
	return &Mock{}
}

// AddContent queues a FetchContent result.
func (m *Mock) AddContent(c Content, err error) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contents = append(m.contents, MockContent{Content: c, Err: err})
	return m
}

// AddGrade queues a Score result.
func (m *Mock) AddGrade(g Grade, err error) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grades = append(m.grades, MockGrade{Grade: g, Err: err})
	return m
}

// SetDocument fixes the RetrieveDocument result.
func (m *Mock) SetDocument(doc string, err error) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.document, m.docErr = doc, err
	return m
}

func (m *Mock) FetchContent(_ context.Context, module string) (Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FetchCalls = append(m.FetchCalls, module)
	if len(m.contents) == 0 {
		return Content{}, &TransportError{Op: OpFetchContent, Err: ErrNoCannedResponse}
	}
	next := m.contents[0]
	m.contents = m.contents[1:]
	return next.Content, next.Err
}

func (m *Mock) Score(ctx context.Context, req ScoreRequest) (Grade, error) {
	m.mu.Lock()
	m.ScoreCalls = append(m.ScoreCalls, req)
	block := m.Block
	if len(m.grades) == 0 {
		m.mu.Unlock()
		return Grade{}, &TransportError{Op: OpScore, Err: ErrNoCannedResponse}
	}
	next := m.grades[0]
	m.grades = m.grades[1:]
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return Grade{}, &TransportError{Op: OpScore, Err: ctx.Err()}
		}
	}
	return next.Grade, next.Err
}

func (m *Mock) RetrieveDocument(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DocumentCalls++
	return m.document, m.docErr
}

// ScoreCallCount returns the number of Score calls made.
func (m *Mock) ScoreCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ScoreCalls)
}

// FetchCallCount returns the number of FetchContent calls made.
func (m *Mock) FetchCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.FetchCalls)
}

// DocumentCallCount returns the number of RetrieveDocument calls made.
func (m *Mock) DocumentCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.DocumentCalls
}
