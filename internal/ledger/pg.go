package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/waitline/waitline/internal/domain"
)

type pgLedger struct {
	pool *pgxpool.Pool
}

// NewPgLedger returns a Ledger backed by PostgreSQL. Ordering ties are
// resolved by the serial primary key; the position count compares the
// (created_at, id) tuple within a single statement, which gives the
// snapshot consistency Append/Count require.
func NewPgLedger(pool *pgxpool.Pool) Ledger {
	return &pgLedger{pool: pool}
}

const entryColumns = `id, business_id, customer_name, phone, status,
	created_at, notified_at, started_at, completed_at`

func (r *pgLedger) Append(ctx context.Context, in AppendInput) (*domain.QueueEntry, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO queue_entries (business_id, customer_name, phone, status)
		VALUES ($1, $2, $3, 'waiting')
		RETURNING `+entryColumns,
		in.BusinessID, in.CustomerName, in.Phone,
	)

	e, err := scanEntry(row)
	if err != nil {
		return nil, fmt.Errorf("insert queue entry: %w", err)
	}
	return e, nil
}

func (r *pgLedger) Get(ctx context.Context, entryID int64) (*domain.QueueEntry, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+entryColumns+`
		FROM queue_entries WHERE id = $1`, entryID)

	e, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEntryNotFound
	}
	return e, err
}

func (r *pgLedger) CountActiveAtOrBefore(ctx context.Context, businessID int64, cutoff Cursor) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM queue_entries
		WHERE business_id = $1
		  AND status IN ('waiting', 'notified', 'serving')
		  AND (created_at, id) <= ($2::timestamptz, $3::bigint)`,
		businessID, cutoff.CreatedAt, cutoff.ID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active entries: %w", err)
	}
	return count, nil
}

// UpdateStatus locks the row, applies the transition in Go (single source
// of lifecycle truth), and writes the result back. The transaction is
// rolled back on an illegal move, so a cancelled or failed call leaves no
// half-applied transition.
func (r *pgLedger) UpdateStatus(ctx context.Context, entryID int64, to domain.Status, now time.Time) (*domain.QueueEntry, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	row := tx.QueryRow(ctx, `
		SELECT `+entryColumns+`
		FROM queue_entries WHERE id = $1
		FOR UPDATE`, entryID)

	e, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := domain.Transition(e, to, now); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE queue_entries
		SET status = $1, notified_at = $2, started_at = $3, completed_at = $4
		WHERE id = $5`,
		e.Status, e.NotifiedAt, e.StartedAt, e.CompletedAt, e.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update queue entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return e, nil
}

func (r *pgLedger) ListByBusiness(ctx context.Context, businessID int64, limit int) ([]*domain.QueueEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM queue_entries
		WHERE business_id = $1
		ORDER BY created_at, id`
	args := []any{businessID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list queue entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.QueueEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(row pgx.Row) (*domain.QueueEntry, error) {
	var e domain.QueueEntry
	err := row.Scan(
		&e.ID, &e.BusinessID, &e.CustomerName, &e.Phone, &e.Status,
		&e.CreatedAt, &e.NotifiedAt, &e.StartedAt, &e.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
