package dispatch

import "time"

// Kind classifies an outbound queue event.
type Kind string

const (
	// KindJoined confirms a new entry's place in line.
	KindJoined Kind = "joined"
	// KindTurnReady tells a customer the business called them up.
	KindTurnReady Kind = "turn_ready"
	// KindProximity tells a customer they are near the venue.
	KindProximity Kind = "proximity"
)

// Event is the minimal data placed on the dispatch queue. Workers fetch
// the full entry from the ledger by ID, keeping the queue lightweight
// and the ledger authoritative.
type Event struct {
	Kind       Kind
	EntryID    int64
	BusinessID int64
	AlertID    string
	Position   int
	EtaMinutes int
	DistanceKm float64
	OccurredAt time.Time
}

// Urgent events preempt join confirmations: a customer already walking
// over should hear about it before anyone gets a receipt.
func (e Event) Urgent() bool {
	return e.Kind == KindTurnReady || e.Kind == KindProximity
}
