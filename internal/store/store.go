// Package store persists VerdictRecords to PostgreSQL when a DSN is
// configured; when internal/config's StoreConfig carries no DSN, callers
// simply never construct a Store and verdicts stay in-memory/on-disk only.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/soufianos01/sanitizer-checker/api/schemas"
)

// DBPool abstracts *pgxpool.Pool so tests can inject pgxmock.
type DBPool interface {
	Ping(ctx context.Context) error
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Store is the PostgreSQL-backed verdict repository.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// New constructs a Store and verifies connectivity with a ping.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{pool: pool, log: logger.Named("store")}, nil
}

// PersistVerdicts bulk-inserts records via COPY, the way the teacher's
// persistFindings batches rows for its findings table.
func (s *Store) PersistVerdicts(ctx context.Context, records []schemas.VerdictRecord) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([][]interface{}, len(records))
	for i, r := range records {
		rows[i] = []interface{}{
			r.Field, r.Context, string(r.Verdict), r.ObservedAt.UTC(),
			r.Witness, r.HasWitness, r.Intersection, r.Reason,
		}
	}

	count, err := s.pool.CopyFrom(
		ctx,
		pgx.Identifier{"verdicts"},
		[]string{"field", "context", "verdict", "observed_at", "witness", "has_witness", "intersection_dot", "reason"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to copy verdicts: %w", err)
	}
	if int(count) != len(records) {
		return fmt.Errorf("mismatch in copied verdict count: expected %d, got %d", len(records), count)
	}

	s.log.Debug("persisted verdicts", zap.Int("count", len(records)))
	return nil
}

// GetVerdictsByField returns every persisted verdict for field, most
// recent first.
func (s *Store) GetVerdictsByField(ctx context.Context, field string) ([]schemas.VerdictRecord, error) {
	query := `
        SELECT field, context, verdict, observed_at, witness, has_witness, intersection_dot, reason
        FROM verdicts
        WHERE field = $1
        ORDER BY observed_at DESC;
    `
	rows, err := s.pool.Query(ctx, query, field)
	if err != nil {
		return nil, fmt.Errorf("failed to query verdicts: %w", err)
	}
	defer rows.Close()

	var out []schemas.VerdictRecord
	for rows.Next() {
		var r schemas.VerdictRecord
		var verdictStr string
		if err := rows.Scan(&r.Field, &r.Context, &verdictStr, &r.ObservedAt, &r.Witness, &r.HasWitness, &r.Intersection, &r.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan verdict row: %w", err)
		}
		r.Verdict = schemas.Verdict(verdictStr)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return out, nil
}
