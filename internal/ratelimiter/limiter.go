package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/waitline/waitline/internal/notify"
)

// ChannelLimiters holds one token bucket per delivery channel hint.
// Burst equals the rate so no capacity "saved up" during quiet periods
// can exceed the per-second maximum.
type ChannelLimiters struct {
	limiters map[notify.Channel]*rate.Limiter
}

// New creates a ChannelLimiters with ratePerSec tokens per second per channel.
func New(ratePerSec int) *ChannelLimiters {
	r := rate.Limit(ratePerSec)
	burst := ratePerSec

	return &ChannelLimiters{
		limiters: map[notify.Channel]*rate.Limiter{
			notify.ChannelSMS:  rate.NewLimiter(r, burst),
			notify.ChannelPush: rate.NewLimiter(r, burst),
		},
	}
}

// Wait blocks until the channel's limiter grants a token. Returns a
// non-nil error only if ctx is cancelled while waiting. An unknown
// channel is not limited.
func (cl *ChannelLimiters) Wait(ctx context.Context, ch notify.Channel) error {
	l, ok := cl.limiters[ch]
	if !ok {
		return nil
	}
	return l.Wait(ctx)
}
