package rabbitmq

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Connection owns an AMQP connection and the single channel shared by providers and publishers.
type Connection struct {
	config  Config
	options connectionOptions

	conn    *amqp.Connection
	channel *ChannelWrapper
	logger  zerolog.Logger
	mutex   sync.RWMutex
}

// NewConnection creates a connection. Connect must be called before use.
func NewConnection(config Config, opts ...ConnectionOption) *Connection {
	options := defaultConnectionOptions()
	for _, opt := range opts {
		opt(&options)
	}

	return &Connection{
		config:  config,
		options: options,
		logger:  options.logger,
	}
}

// Connect establishes a connection to RabbitMQ and opens the channel.
func (c *Connection) Connect() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.conn != nil && !c.conn.IsClosed() {
		return nil
	}

	properties := amqp.NewConnectionProperties()
	properties.SetClientConnectionName(c.connectionName())

	conn, err := amqp.DialConfig(getURL(c.config), amqp.Config{
		Heartbeat:  c.options.heartbeat,
		Locale:     "en_US",
		Properties: properties,
		Dial:       amqp.DefaultDial(c.options.timeout),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	amqpCh, err := conn.Channel()
	if err != nil {
		_ = conn.Close()

		return fmt.Errorf("failed to open channel: %w", err)
	}

	if c.options.prefetchCount > 0 {
		if err := amqpCh.Qos(c.options.prefetchCount, 0, false); err != nil {
			_ = conn.Close()

			return fmt.Errorf("failed to set channel qos: %w", err)
		}
	}

	if c.options.confirms {
		if err := amqpCh.Confirm(false); err != nil {
			_ = conn.Close()

			return fmt.Errorf("failed to enable publisher confirms: %w", err)
		}
	}

	c.conn = conn
	c.channel = newChannelWrapper(amqpCh, c.options.confirms, c.options.confirmTimeout)

	go c.watch(conn.NotifyClose(make(chan *amqp.Error, 1)))

	c.logger.Info().
		Str("host", c.config.Host).
		Str("vhost", c.config.Vhost).
		Bool("publisher_confirms", c.options.confirms).
		Msg("Successfully connected to RabbitMQ")

	return nil
}

// Channel returns the channel opened by Connect.
func (c *Connection) Channel() (*ChannelWrapper, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.channel == nil || c.conn == nil || c.conn.IsClosed() {
		return nil, ErrNotConnected
	}

	return c.channel, nil
}

// Close closes the channel and the connection.
func (c *Connection) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.channel != nil {
		_ = c.channel.Close()
	}

	if c.conn != nil && !c.conn.IsClosed() {
		return c.conn.Close()
	}

	return nil
}

// IsConnected returns true if connected to RabbitMQ.
func (c *Connection) IsConnected() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.conn != nil && !c.conn.IsClosed()
}

func (c *Connection) connectionName() string {
	if c.options.name != "" {
		return c.options.name
	}

	return "svc-message-retry-" + uuid.NewString()
}

func (c *Connection) watch(closed <-chan *amqp.Error) {
	err, ok := <-closed
	if !ok || err == nil {
		c.logger.Info().Msg("RabbitMQ connection closed")

		return
	}

	c.logger.Error().
		Int("code", err.Code).
		Bool("server", err.Server).
		Str("reason", err.Reason).
		Msg("RabbitMQ connection lost")
}
