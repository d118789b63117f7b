package proximity

import (
	"sync"

	"github.com/google/uuid"

	"github.com/waitline/waitline/internal/domain"
	"github.com/waitline/waitline/internal/geo"
)

// Registry holds the alerts armed for queued entries, keyed by entry so
// a customer leaving the queue disarms their alert in one step. One
// entry has at most one armed alert; re-arming replaces it.
type Registry struct {
	mu      sync.RWMutex
	byEntry map[int64]*Alert
}

func NewRegistry() *Registry {
	return &Registry{byEntry: make(map[int64]*Alert)}
}

func (r *Registry) Arm(entryID, businessID int64, target geo.Coord, triggerKm float64) (*Alert, error) {
	a, err := NewAlert(uuid.New().String(), entryID, businessID, target, triggerKm)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byEntry[entryID]; ok {
		old.Disarm()
	}
	r.byEntry[entryID] = a
	return a, nil
}

// Disarm removes the entry's alert. Missing entries are a no-op so
// Leave stays idempotent.
func (r *Registry) Disarm(entryID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.byEntry[entryID]; ok {
		a.Disarm()
		delete(r.byEntry, entryID)
	}
}

func (r *Registry) Get(entryID int64) (*Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byEntry[entryID]
	if !ok {
		return nil, domain.ErrAlertNotFound
	}
	return a, nil
}

// Snapshot returns the currently registered alerts. Alerts carry their
// own armed/fired state, so evaluating a snapshot that races with a
// disarm is safe; at worst it observes the disarm mid-pass.
func (r *Registry) Snapshot() []*Alert {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Alert, 0, len(r.byEntry))
	for _, a := range r.byEntry {
		out = append(out, a)
	}
	return out
}
