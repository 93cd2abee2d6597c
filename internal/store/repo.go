package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit int       // max results (0 = unlimited)
	RunID string    // only events from this run ("" = all)
	From  time.Time // created_at >= From
}

// FieldRepo is a durable key-value mirror. Each key is written and read on
// its own; there is no multi-key transaction.
type FieldRepo interface {
	// Get returns the stored value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Put upserts the value for key.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes the given keys. Absent keys are ignored.
	Delete(ctx context.Context, keys ...string) error
}

// GatewayRequestEvent records one call to the scoring backend.
type GatewayRequestEvent struct {
	ID           int
	RunID        string
	Op           string
	Module       string
	LearnerID    string
	LatencyMs    int64
	StatusCode   int
	Success      bool
	ErrorMessage string
	CreatedAt    time.Time
}

// EventRepo provides append and query access to gateway request events.
type EventRepo interface {
	// AppendGatewayRequest records a backend call.
	AppendGatewayRequest(ctx context.Context, e GatewayRequestEvent) error

	// QueryGatewayRequests returns events newest first.
	QueryGatewayRequests(ctx context.Context, opts QueryOpts) ([]GatewayRequestEvent, error)

	// GetGatewayRequest returns a single event, or nil if it does not exist.
	GetGatewayRequest(ctx context.Context, id int) (*GatewayRequestEvent, error)
}
