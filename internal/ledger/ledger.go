package ledger

import (
	"context"
	"time"

	"github.com/waitline/waitline/internal/domain"
)

// Cursor is an entry's place in a business's ledger. Entries are totally
// ordered by (CreatedAt, ID) ascending; ID breaks wall-clock ties.
type Cursor struct {
	CreatedAt time.Time
	ID        int64
}

// AtOrBefore reports whether c sorts at or before other.
func (c Cursor) AtOrBefore(other Cursor) bool {
	if c.CreatedAt.Before(other.CreatedAt) {
		return true
	}
	if c.CreatedAt.Equal(other.CreatedAt) {
		return c.ID <= other.ID
	}
	return false
}

// AppendInput carries the caller-supplied fields of a new entry. The
// ledger assigns the id, createdAt and initial waiting status itself.
type AppendInput struct {
	BusinessID   int64
	CustomerName string
	Phone        *string
}

// Ledger is the append-only record of queue entries per business, the
// source of truth for position computation.
//
// Required discipline (per business): Append and CountActiveAtOrBefore
// must be linearizable with respect to each other: an append committed
// before a count begins is always counted. Operations on different
// businesses must not block each other.
//
// The pgx implementation is in pg.go; the in-memory implementation in
// memory.go doubles as the dev-mode store and the test double.
type Ledger interface {
	Append(ctx context.Context, in AppendInput) (*domain.QueueEntry, error)
	Get(ctx context.Context, entryID int64) (*domain.QueueEntry, error)
	// CountActiveAtOrBefore counts entries of the business with an active
	// status whose cursor sorts at or before the cutoff, against a single
	// consistent snapshot.
	CountActiveAtOrBefore(ctx context.Context, businessID int64, cutoff Cursor) (int, error)
	// UpdateStatus applies a lifecycle transition and stamps the matching
	// timestamp. Illegal moves fail with *domain.InvalidTransitionError
	// and leave the entry unchanged.
	UpdateStatus(ctx context.Context, entryID int64, to domain.Status, now time.Time) (*domain.QueueEntry, error)
	// ListByBusiness returns the business's entries in (createdAt, id)
	// order, newest last. limit <= 0 means no limit.
	ListByBusiness(ctx context.Context, businessID int64, limit int) ([]*domain.QueueEntry, error)
}
