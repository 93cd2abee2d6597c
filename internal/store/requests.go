package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var requestColumns = []string{
	"id", "run_id", "op", "module", "learner_id", "latency_ms",
	"status_code", "success", "error_message", "created_at",
}

// eventRepo implements EventRepo over the gateway_requests table.
type eventRepo struct {
	db *sql.DB
}

func (r *eventRepo) AppendGatewayRequest(ctx context.Context, e GatewayRequestEvent) error {
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	query, args := builder().
		Insert(requestsTable).
		Columns(requestColumns[1:]...).
		Values(
			e.RunID, e.Op, e.Module, e.LearnerID, e.LatencyMs,
			e.StatusCode, e.Success, e.ErrorMessage, created.UnixMilli(),
		).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save gateway request event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryGatewayRequests(ctx context.Context, opts QueryOpts) ([]GatewayRequestEvent, error) {
	sel := builder().
		Select(requestColumns...).
		From(entsql.Table(requestsTable)).
		OrderBy(entsql.Desc("id"))

	var preds []*entsql.Predicate
	if opts.RunID != "" {
		preds = append(preds, entsql.EQ("run_id", opts.RunID))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("created_at", opts.From.UnixMilli()))
	}
	if len(preds) > 0 {
		sel = sel.Where(entsql.And(preds...))
	}
	if opts.Limit > 0 {
		sel = sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query gateway requests: %w", err)
	}
	defer rows.Close()

	var events []GatewayRequestEvent
	for rows.Next() {
		e, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gateway requests: %w", err)
	}
	return events, nil
}

func (r *eventRepo) GetGatewayRequest(ctx context.Context, id int) (*GatewayRequestEvent, error) {
	query, args := builder().
		Select(requestColumns...).
		From(entsql.Table(requestsTable)).
		Where(entsql.EQ("id", id)).
		Query()

	e, err := scanRequest(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (GatewayRequestEvent, error) {
	var (
		e         GatewayRequestEvent
		createdMs int64
	)
	err := row.Scan(
		&e.ID, &e.RunID, &e.Op, &e.Module, &e.LearnerID, &e.LatencyMs,
		&e.StatusCode, &e.Success, &e.ErrorMessage, &createdMs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return e, err
	}
	if err != nil {
		return e, fmt.Errorf("scan gateway request: %w", err)
	}
	e.CreatedAt = time.UnixMilli(createdMs)
	return e, nil
}
