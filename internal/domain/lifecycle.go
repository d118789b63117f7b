package domain

import "time"

// allowedTransitions is the entry lifecycle:
//
//	waiting -> notified -> serving -> done
//
// with side exits to skipped (business skips a no-show, allowed from
// waiting and notified) and abandoned (customer leaves, allowed from any
// active state). done, skipped and abandoned are terminal.
var allowedTransitions = map[Status][]Status{
	StatusWaiting:  {StatusNotified, StatusSkipped, StatusAbandoned},
	StatusNotified: {StatusServing, StatusSkipped, StatusAbandoned},
	StatusServing:  {StatusDone, StatusAbandoned},
}

func (s Status) CanTransitionTo(to Status) bool {
	for _, next := range allowedTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition moves the entry to the target status, stamping the matching
// timestamp the first time that state is entered. Re-entering the current
// state is a no-op success so duplicate client retries stay harmless.
// An illegal move returns *InvalidTransitionError with the entry unchanged.
func Transition(e *QueueEntry, to Status, now time.Time) error {
	if e.Status == to {
		return nil
	}
	if !e.Status.CanTransitionTo(to) {
		return &InvalidTransitionError{From: e.Status, To: to}
	}

	e.Status = to
	switch to {
	case StatusNotified:
		if e.NotifiedAt == nil {
			e.NotifiedAt = &now
		}
	case StatusServing:
		if e.StartedAt == nil {
			e.StartedAt = &now
		}
	case StatusDone, StatusSkipped, StatusAbandoned:
		// CompletedAt records when the entry left the queue, whatever the exit.
		if e.CompletedAt == nil {
			e.CompletedAt = &now
		}
	}
	return nil
}
