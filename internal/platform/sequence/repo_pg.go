package sequence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicore/clinicore/internal/platform/db"
)

type queryable interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// PgRepo stores counters in the sequence_counters table. The increment
// is a single upsert statement, so two racing allocations are
// serialized by the row lock and can never return the same value.
type PgRepo struct {
	pool *pgxpool.Pool
}

func NewPgRepo(pool *pgxpool.Pool) *PgRepo {
	return &PgRepo{pool: pool}
}

// conn returns the active transaction when one is on the context, so
// an allocation made during a billing commit rolls back with it.
func (r *PgRepo) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const nextValueSQL = `
INSERT INTO sequence_counters (name, value)
VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE
SET value = sequence_counters.value + 1, updated_at = NOW()
RETURNING value`

func (r *PgRepo) NextValue(ctx context.Context, name string, start int64) (int64, error) {
	var value int64
	if err := r.conn(ctx).QueryRow(ctx, nextValueSQL, name, start).Scan(&value); err != nil {
		return 0, fmt.Errorf("increment sequence %s: %w", name, err)
	}
	return value, nil
}

const seedSQL = `
INSERT INTO sequence_counters (name, value)
VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE
SET value = GREATEST(sequence_counters.value, EXCLUDED.value), updated_at = NOW()
RETURNING value`

// Seed raises the counter for name to at least value. Used once at
// startup to continue numbering from historical data; an existing
// higher counter is never lowered.
func (r *PgRepo) Seed(ctx context.Context, name string, value int64) (int64, error) {
	var v int64
	if err := r.conn(ctx).QueryRow(ctx, seedSQL, name, value).Scan(&v); err != nil {
		return 0, fmt.Errorf("seed sequence %s: %w", name, err)
	}
	return v, nil
}
