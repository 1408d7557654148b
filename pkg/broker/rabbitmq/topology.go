package rabbitmq

import (
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/architeacher/svc-message-retry/pkg/processor/retry"
)

// RetryTopology describes the delay queues backing the retry processor.
//
// Attempt n is published to Exchange with the key built from KeyPattern, lands in
// the queue "<QueuePrefix>_<n>", waits Delays[n-1] and is dead-lettered back to SourceQueue.
type RetryTopology struct {
	Exchange    string
	KeyPattern  string
	QueuePrefix string
	SourceQueue string
	Delays      []time.Duration
}

func (t RetryTopology) Validate() error {
	var errs []error

	if t.Exchange == "" {
		errs = append(errs, errors.New("exchange is required"))
	}

	if t.KeyPattern == "" {
		errs = append(errs, errors.New("key pattern is required"))
	}

	if t.QueuePrefix == "" {
		errs = append(errs, errors.New("queue prefix is required"))
	}

	if t.SourceQueue == "" {
		errs = append(errs, errors.New("source queue is required"))
	}

	for i, d := range t.Delays {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("delay %d must be positive, got %s", i+1, d))
		}
	}

	return errors.Join(errs...)
}

// QueueName returns the delay queue of the given attempt.
func (t RetryTopology) QueueName(attempt int) string {
	return fmt.Sprintf("%s_%d", t.QueuePrefix, attempt)
}

// DeclareRetryTopology declares the retry exchange, the source queue and one delay queue per delay.
func DeclareRetryTopology(ch channel, t RetryTopology) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("invalid retry topology: %w", err)
	}

	if err := ch.exchangeDeclare(t.Exchange, amqp.ExchangeDirect, true, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %q: %w", t.Exchange, err)
	}

	if _, err := ch.queueDeclare(t.SourceQueue, true, nil); err != nil {
		return fmt.Errorf("failed to declare queue %q: %w", t.SourceQueue, err)
	}

	for i, delay := range t.Delays {
		attempt := i + 1
		name := t.QueueName(attempt)

		args := amqp.Table{
			"x-message-ttl":             delay.Milliseconds(),
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": t.SourceQueue,
		}

		if _, err := ch.queueDeclare(name, true, args); err != nil {
			return fmt.Errorf("failed to declare queue %q: %w", name, err)
		}

		if err := ch.queueBind(name, retry.RoutingKey(t.KeyPattern, attempt), t.Exchange, nil); err != nil {
			return fmt.Errorf("failed to bind queue %q: %w", name, err)
		}
	}

	return nil
}
