package notify

import (
	"context"
	"time"
)

// Channel is the delivery channel hint passed to the collaborator that
// owns actual SMS/push delivery. This service never calls those APIs.
type Channel string

const (
	ChannelSMS  Channel = "sms"
	ChannelPush Channel = "push"
)

// Message is the payload handed to the notification collaborator. The
// queue core decides when a notification fires and what it says; the
// collaborator decides how it travels.
type Message struct {
	EntryID     int64     `json:"entry_id,omitempty"`
	AlertID     string    `json:"alert_id,omitempty"`
	BusinessID  int64     `json:"business_id"`
	Kind        string    `json:"kind"`
	Recipient   string    `json:"recipient,omitempty"`
	Body        string    `json:"body"`
	ChannelHint Channel   `json:"channel_hint"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Notifier abstracts the delivery collaborator. Implementations: kafka
// topic publisher, HTTP webhook, and a log-only notifier for dev mode.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}
