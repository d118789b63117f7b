package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes messages to the log instead of delivering them.
// Used in memory mode and as a safe default when no collaborator is
// configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(_ context.Context, msg Message) error {
	n.logger.Info("notification",
		zap.String("kind", msg.Kind),
		zap.Int64("entry_id", msg.EntryID),
		zap.Int64("business_id", msg.BusinessID),
		zap.String("channel_hint", string(msg.ChannelHint)),
		zap.String("body", msg.Body),
	)
	return nil
}

var _ Notifier = (*LogNotifier)(nil)
