package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/waitline/waitline/internal/business"
	"github.com/waitline/waitline/internal/dispatch"
	"github.com/waitline/waitline/internal/domain"
	"github.com/waitline/waitline/internal/ledger"
	"github.com/waitline/waitline/internal/notify"
	"github.com/waitline/waitline/internal/ratelimiter"
)

// Worker is a single goroutine that pulls events off the dispatch queue,
// resolves the entry and business, applies per-channel rate limiting,
// and hands the built message to the notification collaborator.
type Worker struct {
	id         int
	q          *dispatch.Queue
	ledger     ledger.Ledger
	businesses business.Store
	notifier   notify.Notifier
	limiter    *ratelimiter.ChannelLimiters
	logger     *zap.Logger

	// Metric hooks injected by the pool; the worker itself stays metrics-agnostic.
	onSent   func(channel notify.Channel, latency time.Duration)
	onFailed func(channel notify.Channel)
}

func NewWorker(
	id int,
	q *dispatch.Queue,
	l ledger.Ledger,
	b business.Store,
	n notify.Notifier,
	limiter *ratelimiter.ChannelLimiters,
	logger *zap.Logger,
	onSent func(notify.Channel, time.Duration),
	onFailed func(notify.Channel),
) *Worker {
	if onSent == nil {
		onSent = func(notify.Channel, time.Duration) {}
	}
	if onFailed == nil {
		onFailed = func(notify.Channel) {}
	}
	return &Worker{
		id: id, q: q, ledger: l, businesses: b, notifier: n,
		limiter: limiter, logger: logger,
		onSent: onSent, onFailed: onFailed,
	}
}

// Run blocks until ctx is cancelled, processing one event per iteration.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("dispatch worker started", zap.Int("id", w.id))
	for {
		event, ok := w.q.Dequeue(ctx)
		if !ok {
			w.logger.Info("dispatch worker stopping", zap.Int("id", w.id))
			return
		}
		w.process(ctx, event)
	}
}

func (w *Worker) process(ctx context.Context, event dispatch.Event) {
	start := time.Now()
	log := w.logger.With(
		zap.String("kind", string(event.Kind)),
		zap.Int64("entry_id", event.EntryID),
		zap.Int64("business_id", event.BusinessID),
	)

	entry, err := w.ledger.Get(ctx, event.EntryID)
	if err != nil {
		log.Error("failed to fetch entry for event", zap.Error(err))
		return
	}

	// The customer may have left between enqueue and processing. For a
	// proximity fire that race is an accepted tolerance: the alert was
	// armed when it fired, so the message still goes out, flagged in the
	// log. Turn calls to a departed customer are skipped silently.
	if entry.Status.IsTerminal() {
		if event.Kind != dispatch.KindProximity {
			log.Debug("entry left the queue before delivery, skipping")
			return
		}
		log.Info("proximity alert for entry that just left the queue",
			zap.Bool("race_tolerated", true))
	}

	msg := w.buildMessage(ctx, event, entry)

	// Block here until the per-channel limiter grants a token.
	if err := w.limiter.Wait(ctx, msg.ChannelHint); err != nil {
		// ctx cancelled while waiting; worker is shutting down.
		return
	}

	if err := w.notifier.Send(ctx, msg); err != nil {
		log.Warn("notifier send failed", zap.Error(err))
		w.onFailed(msg.ChannelHint)
		return
	}

	elapsed := time.Since(start)
	w.onSent(msg.ChannelHint, elapsed)
	log.Info("notification dispatched",
		zap.String("channel_hint", string(msg.ChannelHint)),
		zap.Duration("latency", elapsed))
}

func (w *Worker) buildMessage(ctx context.Context, event dispatch.Event, entry *domain.QueueEntry) notify.Message {
	businessName := w.businessName(ctx, event.BusinessID)

	msg := notify.Message{
		EntryID:     event.EntryID,
		AlertID:     event.AlertID,
		BusinessID:  event.BusinessID,
		Kind:        string(event.Kind),
		ChannelHint: notify.ChannelPush,
		OccurredAt:  event.OccurredAt,
	}
	if entry.Phone != nil && *entry.Phone != "" {
		msg.Recipient = *entry.Phone
		msg.ChannelHint = notify.ChannelSMS
	}

	switch event.Kind {
	case dispatch.KindJoined:
		msg.Body = fmt.Sprintf("You're in line at %s: position %d, about %d min wait.",
			businessName, event.Position, event.EtaMinutes)
	case dispatch.KindTurnReady:
		msg.Body = fmt.Sprintf("It's your turn at %s. Please head to the counter.", businessName)
	case dispatch.KindProximity:
		msg.Body = fmt.Sprintf("You're %.1f km from %s. Your spot in line is waiting.",
			event.DistanceKm, businessName)
	default:
		msg.Body = fmt.Sprintf("Queue update from %s.", businessName)
	}
	return msg
}

func (w *Worker) businessName(ctx context.Context, businessID int64) string {
	b, err := w.businesses.GetByID(ctx, businessID)
	if err != nil {
		if !errors.Is(err, domain.ErrUnknownBusiness) {
			w.logger.Warn("business lookup failed for message",
				zap.Int64("business_id", businessID), zap.Error(err))
		}
		return "the business"
	}
	return b.Name
}
