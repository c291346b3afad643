package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockbook/internal/infrastructure/storage"
)

const collectionsTable = "collections"

// Store implements storage.Store over a single key/value table. The
// whole-collection-overwrite contract maps directly to an upsert of one
// row per key.
type Store struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

// NewStore creates a Postgres-backed collection store.
func NewStore(txm *TxManager) *Store {
	return &Store{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ storage.Store = (*Store)(nil)

// Load returns the value stored under key, or nil when the key has
// never been saved.
func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	q := s.builder.Select("data").
		From(collectionsTable).
		Where(squirrel.Eq{"key": key}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var data []byte
	querier := s.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &data, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load collection %s: %w", key, err)
	}
	return data, nil
}

// Save overwrites the value stored under key.
func (s *Store) Save(ctx context.Context, key string, data []byte) error {
	q := s.builder.Insert(collectionsTable).
		Columns("key", "data", "updated_at").
		Values(key, data, time.Now().UTC()).
		Suffix("ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	querier := s.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("save collection %s: %w", key, err)
	}
	return nil
}
