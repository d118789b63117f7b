package domain

import (
	"time"

	"github.com/waitline/waitline/internal/geo"
)

// Status tracks where a queue entry is in its lifecycle.
// The literal values are persisted and must round-trip unchanged.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusNotified  Status = "notified"
	StatusServing   Status = "serving"
	StatusDone      Status = "done"
	StatusSkipped   Status = "skipped"
	StatusAbandoned Status = "abandoned"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusWaiting, StatusNotified, StatusServing, StatusDone, StatusSkipped, StatusAbandoned:
		return true
	}
	return false
}

// IsActive reports whether the entry still holds a place in line.
// Only active entries count toward anyone's position.
func (s Status) IsActive() bool {
	switch s {
	case StatusWaiting, StatusNotified, StatusServing:
		return true
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusDone, StatusSkipped, StatusAbandoned:
		return true
	}
	return false
}

// Business is a venue customers queue for. Created by onboarding; the
// queue core only ever reads it.
type Business struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Type              string    `json:"type"`
	Address           string    `json:"address"`
	Location          geo.Coord `json:"location"`
	AvgServiceMinutes int       `json:"avg_service_time_minutes"`
	IsOpen            bool      `json:"is_open"`
	CreatedAt         time.Time `json:"created_at"`
}

// QueueEntry is one customer's claim on a position in a business's queue.
// Entries are never deleted; terminal entries are kept for history.
type QueueEntry struct {
	ID           int64      `json:"id"`
	BusinessID   int64      `json:"business_id"`
	CustomerName string     `json:"customer_name"`
	Phone        *string    `json:"phone,omitempty"`
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	NotifiedAt   *time.Time `json:"notified_at,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// JoinRequest is the inbound payload for joining a queue. Asking for a
// proximity alert arms one targeting the business's location.
type JoinRequest struct {
	BusinessID        int64   `json:"business_id"`
	Name              string  `json:"name"`
	Phone             string  `json:"phone,omitempty"`
	ArmProximityAlert bool    `json:"arm_proximity_alert,omitempty"`
	TriggerDistanceKm float64 `json:"trigger_distance_km,omitempty"`
}

// DefaultTriggerDistanceKm is armed when a join asks for a proximity
// alert without an explicit trigger distance.
const DefaultTriggerDistanceKm = 0.5

func (r *JoinRequest) Validate() error {
	if r.BusinessID <= 0 {
		return ErrBusinessIDRequired
	}
	if len(r.Name) > 256 {
		return ErrNameTooLong
	}
	if r.ArmProximityAlert && r.TriggerDistanceKm < 0 {
		return ErrInvalidTriggerDistance
	}
	return nil
}

// JoinResult echoes what the original polling clients render: the
// assigned entry plus position and estimated wait at join time.
type JoinResult struct {
	EntryID    int64 `json:"entry_id"`
	Position   int   `json:"position"`
	EtaMinutes int   `json:"estimated_wait_minutes"`
}

// StatusResult is the answer to a status poll.
type StatusResult struct {
	Position   int    `json:"position"`
	EtaMinutes int    `json:"estimated_wait_minutes"`
	Status     Status `json:"status"`
}
