// Package retry provides a processor that republishes failed messages instead of
// losing them.
//
// When the wrapped processor fails, the message is republished with an
// incremented attempt counter in its headers to a routing key built from
// retry_key_pattern. Delay between attempts is left to the broker topology bound
// to those keys (TTL queues that dead-letter back to the source queue). Once
// retry_attempts republishes have been made, the original error is returned so
// the consumer can reject the delivery.
//
// Options:
//
//	retry_attempts             int >= 0, default 3
//	retry_key_pattern          string, required, "%attempt%" is replaced by the attempt number
//	retry_log_levels_map       error kind -> level used when republishing, default empty
//	retry_fail_log_levels_map  error kind -> level used when giving up, default empty
//
// A level map is checked rule by rule and the first kind the error satisfies
// decides the level. Pass a LevelMap to control that order. Plain Go maps carry
// no order, so their rules are checked by kind name in ascending order: with
// {"LogicException": "critical", "BadMethodCallException": "error"} an error
// of both kinds is logged at error.
package retry

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/architeacher/svc-message-retry/pkg/broker"
	"github.com/architeacher/svc-message-retry/pkg/processor"
)

const processorName = "retry"

var (
	_ processor.Processor    = (*Processor)(nil)
	_ processor.Configurable = (*Processor)(nil)
)

type (
	// Processor decorates a processor with retry-by-republish.
	// It holds no per-message state and is safe for concurrent use.
	Processor struct {
		processor processor.Processor
		publisher broker.MessagePublisher
		logger    processor.Logger
	}

	Option func(*Processor)
)

// WithLogger sets the logger used for retry and give-up events.
func WithLogger(logger processor.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func New(inner processor.Processor, publisher broker.MessagePublisher, opts ...Option) *Processor {
	p := &Processor{
		processor: inner,
		publisher: publisher,
		logger:    processor.NopLogger{},
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// SetDefaultOptions declares the retry options and those of the wrapped processor.
func (p *Processor) SetDefaultOptions(r *processor.OptionsResolver) {
	declareOptions(r)
	processor.Declare(p.processor, r)
}

// Process runs the wrapped processor. A failure is either republished, in which
// case Process returns nil, or returned unchanged once the attempts are used up.
// A publish failure is returned unchanged as well.
func (p *Processor) Process(ctx context.Context, msg broker.Message, options processor.Options) error {
	ctx, resolved, err := processor.Resolve(ctx, p, options)
	if err != nil {
		return err
	}

	processErr := processor.Next(ctx, p.processor, msg, resolved)
	if processErr == nil {
		return nil
	}

	cfg, err := configFrom(resolved)
	if err != nil {
		return err
	}

	attempt := Attempts(msg) + 1
	if attempt > cfg.attempts {
		p.logger.Log(
			ctx,
			cfg.failureLevels.Level(processErr, DefaultLevel),
			fmt.Sprintf("[Retry] Stop attempting to process message after %d attempts", cfg.attempts+1),
			logContext(processErr),
		)

		return processErr
	}

	key := RoutingKey(cfg.keyPattern, attempt)

	p.logger.Log(
		ctx,
		cfg.levels.Level(processErr, DefaultLevel),
		fmt.Sprintf("[Retry] An exception occurred. Republish message for the %d times (key: %s)", attempt, key),
		logContext(processErr),
	)

	return p.publisher.Publish(ctx, msg.WithHeader(AttemptsHeader, attempt), key)
}

// Attempts returns the number of republish attempts recorded on msg. A missing
// or non-integer header counts as zero.
func Attempts(msg broker.Message) int {
	v, ok := msg.Header(AttemptsHeader)
	if !ok {
		return 0
	}

	n, ok := processor.ToInt(v)
	if !ok || n < 0 {
		return 0
	}

	return n
}

// RoutingKey substitutes attempt into pattern.
func RoutingKey(pattern string, attempt int) string {
	return strings.ReplaceAll(pattern, AttemptPlaceholder, strconv.Itoa(attempt))
}

func logContext(err error) map[string]any {
	return map[string]any{
		"swarrot_processor": processorName,
		"exception":         err,
	}
}
