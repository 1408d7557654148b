package infrastructure

import (
	"fmt"

	"github.com/architeacher/svc-message-retry/internal/config"
	"github.com/architeacher/svc-message-retry/pkg/broker/rabbitmq"
)

// NewBrokerConnection builds an unconnected RabbitMQ connection from the queue settings.
func NewBrokerConnection(cfg config.QueueConfig, app config.AppConfig, logger Logger) *rabbitmq.Connection {
	opts := []rabbitmq.ConnectionOption{
		rabbitmq.WithLogger(logger.Component("rabbitmq")),
		rabbitmq.WithConnectionTimeout(cfg.ConnectTimeout),
		rabbitmq.WithHeartbeat(cfg.Heartbeat),
		rabbitmq.WithPrefetchCount(cfg.PrefetchCount),
		rabbitmq.WithConnectionName(fmt.Sprintf("%s-%s", app.ServiceName, cfg.QueueName)),
	}

	if cfg.PublisherConfirms {
		opts = append(opts, rabbitmq.WithPublisherConfirms(cfg.ConfirmTimeout))
	}

	return rabbitmq.NewConnection(BrokerConfig(cfg), opts...)
}

func BrokerConfig(cfg config.QueueConfig) rabbitmq.Config {
	return rabbitmq.Config{
		Scheme:   cfg.Scheme,
		Username: cfg.Username,
		Password: cfg.Password,
		Host:     cfg.Host,
		Port:     cfg.Port,
		Vhost:    cfg.VirtualHost,
	}
}

// RetryTopology describes the delay queues the retry processor publishes into.
func RetryTopology(queue config.QueueConfig, retry config.RetryConfig) rabbitmq.RetryTopology {
	return rabbitmq.RetryTopology{
		Exchange:    queue.RetryExchange,
		KeyPattern:  retry.KeyPattern,
		QueuePrefix: queue.DelayQueuePrefix(),
		SourceQueue: queue.QueueName,
		Delays:      retry.TopologyDelays(),
	}
}
