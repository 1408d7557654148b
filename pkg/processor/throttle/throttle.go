// Package throttle provides a processor that caps how many messages per second
// reach the processor it wraps.
//
// Options:
//
//	max_messages_per_second  int > 0, default 100
package throttle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/throttled/throttled/v2"
	"github.com/throttled/throttled/v2/store/memstore"

	"github.com/architeacher/svc-message-retry/pkg/broker"
	"github.com/architeacher/svc-message-retry/pkg/processor"
)

const (
	OptionMaxMessagesPerSecond = "max_messages_per_second"

	DefaultMaxMessagesPerSecond = 100

	limiterKey = "messages"
)

var (
	_ processor.Processor    = (*Processor)(nil)
	_ processor.Configurable = (*Processor)(nil)
)

type (
	// Processor delays messages until a GCRA limiter admits them.
	// One limiter is kept per configured rate, shared by every caller.
	Processor struct {
		processor processor.Processor
		maxKeys   int

		mu       sync.Mutex
		limiters map[int]*throttled.GCRARateLimiterCtx
	}

	Option func(*Processor)
)

// WithMaxKeys bounds the memory store backing each limiter.
func WithMaxKeys(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxKeys = n
		}
	}
}

func New(inner processor.Processor, opts ...Option) *Processor {
	p := &Processor{
		processor: inner,
		maxKeys:   16,
		limiters:  make(map[int]*throttled.GCRARateLimiterCtx),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (p *Processor) SetDefaultOptions(r *processor.OptionsResolver) {
	r.SetDefault(OptionMaxMessagesPerSecond, DefaultMaxMessagesPerSecond).
		SetNormalizer(OptionMaxMessagesPerSecond, processor.IntNormalizer(1))
	processor.Declare(p.processor, r)
}

// Process waits for the limiter, then delegates. It returns ctx.Err() when ctx
// is done before the message is admitted.
func (p *Processor) Process(ctx context.Context, msg broker.Message, options processor.Options) error {
	ctx, resolved, err := processor.Resolve(ctx, p, options)
	if err != nil {
		return err
	}

	rate, ok := processor.ToInt(resolved[OptionMaxMessagesPerSecond])
	if !ok || rate < 1 {
		return &processor.ConfigurationError{
			Option: OptionMaxMessagesPerSecond,
			Err:    processor.ErrInvalidOption,
			Detail: fmt.Sprintf("unexpected value %v", resolved[OptionMaxMessagesPerSecond]),
		}
	}

	limiter, err := p.limiter(rate)
	if err != nil {
		return err
	}

	if err := wait(ctx, limiter); err != nil {
		return err
	}

	return processor.Next(ctx, p.processor, msg, resolved)
}

func (p *Processor) limiter(rate int) (*throttled.GCRARateLimiterCtx, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if limiter, ok := p.limiters[rate]; ok {
		return limiter, nil
	}

	store, err := memstore.NewCtx(p.maxKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to create limiter store: %w", err)
	}

	limiter, err := throttled.NewGCRARateLimiterCtx(store, throttled.RateQuota{
		MaxRate:  throttled.PerSec(rate),
		MaxBurst: rate - 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}

	p.limiters[rate] = limiter

	return limiter, nil
}

func wait(ctx context.Context, limiter *throttled.GCRARateLimiterCtx) error {
	for {
		limited, result, err := limiter.RateLimitCtx(ctx, limiterKey, 1)
		if err != nil {
			return fmt.Errorf("failed to query rate limiter: %w", err)
		}

		if !limited {
			return nil
		}

		delay := result.RetryAfter
		if delay <= 0 {
			delay = time.Millisecond
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()

			return ctx.Err()
		case <-timer.C:
		}
	}
}
