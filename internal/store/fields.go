package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// fieldRepo implements FieldRepo over the session_fields table.
type fieldRepo struct {
	db *sql.DB
}

func (r *fieldRepo) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query, args := builder().
		Select("value").
		From(entsql.Table(fieldsTable)).
		Where(entsql.EQ("key", key)).
		Query()

	var value string
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get field %q: %w", key, err)
	}
	return []byte(value), true, nil
}

func (r *fieldRepo) Put(ctx context.Context, key string, value []byte) error {
	query, args := builder().
		Insert(fieldsTable).
		Columns("key", "value", "updated_at").
		Values(key, string(value), time.Now().UnixMilli()).
		OnConflict(
			entsql.ConflictColumns("key"),
			entsql.ResolveWithNewValues(),
		).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("put field %q: %w", key, err)
	}
	return nil
}

func (r *fieldRepo) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		query, args := builder().
			Delete(fieldsTable).
			Where(entsql.EQ("key", key)).
			Query()
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("delete field %q: %w", key, err)
		}
	}
	return nil
}
