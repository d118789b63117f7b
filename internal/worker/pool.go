package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/waitline/waitline/internal/business"
	"github.com/waitline/waitline/internal/dispatch"
	"github.com/waitline/waitline/internal/ledger"
	"github.com/waitline/waitline/internal/notify"
	"github.com/waitline/waitline/internal/ratelimiter"
)

// MetricHooks carries the metric callback functions injected by main.
// Using a struct keeps the pool constructor signature clean.
type MetricHooks struct {
	OnSent   func(channel notify.Channel, latency time.Duration)
	OnFailed func(channel notify.Channel)
}

// Pool manages the lifecycle of the dispatch workers. All workers share
// one dispatch queue; the queue's double-select pattern handles urgency
// ordering internally. The hosting process owns the pool: cancel the
// context, then Wait.
type Pool struct {
	workers []*Worker
	wg      sync.WaitGroup
}

func NewPool(
	count int,
	q *dispatch.Queue,
	l ledger.Ledger,
	b business.Store,
	n notify.Notifier,
	limiter *ratelimiter.ChannelLimiters,
	logger *zap.Logger,
	hooks MetricHooks,
) *Pool {
	workers := make([]*Worker, count)
	for i := range workers {
		workers[i] = NewWorker(
			i, q, l, b, n, limiter,
			logger.With(zap.Int("worker_id", i)),
			hooks.OnSent,
			hooks.OnFailed,
		)
	}
	return &Pool{workers: workers}
}

// Start launches all workers as goroutines. Cancelling ctx triggers a
// graceful shutdown of the entire pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
}

// Wait blocks until every worker has returned after ctx is cancelled.
func (p *Pool) Wait() {
	p.wg.Wait()
}
