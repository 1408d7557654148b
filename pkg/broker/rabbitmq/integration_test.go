//go:build integration_test

package rabbitmq

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/architeacher/svc-message-retry/pkg/broker"
	"github.com/architeacher/svc-message-retry/pkg/processor"
	"github.com/architeacher/svc-message-retry/pkg/processor/retry"
)

type RabbitMQIntegrationTestSuite struct {
	suite.Suite

	container testcontainers.Container
	conn      *Connection
}

func TestRabbitMQIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(RabbitMQIntegrationTestSuite))
}

func (s *RabbitMQIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "rabbitmq:3.13-alpine",
			ExposedPorts: []string{"5672/tcp"},
			WaitingFor:   wait.ForLog("Server startup complete").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	s.Require().NoError(err)
	s.container = container

	host, err := container.Host(ctx)
	s.Require().NoError(err)

	port, err := container.MappedPort(ctx, "5672/tcp")
	s.Require().NoError(err)

	s.conn = NewConnection(Config{
		Scheme:   "amqp",
		Username: "guest",
		Password: "guest",
		Host:     host,
		Port:     port.Int(),
		Vhost:    "/",
	}, WithPublisherConfirms(5*time.Second))

	s.Require().NoError(s.conn.Connect())
}

func (s *RabbitMQIntegrationTestSuite) TearDownSuite() {
	if s.conn != nil {
		s.NoError(s.conn.Close())
	}

	if s.container != nil {
		s.NoError(s.container.Terminate(context.Background()))
	}
}

func (s *RabbitMQIntegrationTestSuite) TestEmptyQueueReturnsNil() {
	ch, err := s.conn.Channel()
	s.Require().NoError(err)

	_, err = ch.queueDeclare("empty_queue", true, nil)
	s.Require().NoError(err)

	msg, err := NewProvider(ch, "empty_queue").Get(context.Background())

	s.Require().NoError(err)
	s.Nil(msg)
}

func (s *RabbitMQIntegrationTestSuite) TestFailedMessageComesBackThroughTheDelayQueue() {
	ctx := context.Background()

	ch, err := s.conn.Channel()
	s.Require().NoError(err)

	s.Require().NoError(DeclareRetryTopology(ch, RetryTopology{
		Exchange:    "retry",
		KeyPattern:  "retry_%attempt%",
		QueuePrefix: "orders_retry",
		SourceQueue: "orders",
		Delays:      []time.Duration{200 * time.Millisecond},
	}))

	source := NewPublisher(ch, "")
	s.Require().NoError(source.Publish(ctx, broker.NewMessage([]byte("body"), broker.Properties{
		PropertyAppID:          "applicationId",
		broker.HeadersProperty: map[string]any{"tenant": "acme"},
	}), "orders"))

	provider := NewProvider(ch, "orders")
	failing := processor.Func(func(context.Context, broker.Message, processor.Options) error {
		return errors.New("downstream unavailable")
	})
	stack := retry.New(failing, NewPublisher(ch, "retry"))
	options := processor.Options{retry.OptionKeyPattern: "retry_%attempt%", retry.OptionAttempts: 1}

	msg := s.waitForMessage(provider)
	s.Require().NoError(stack.Process(ctx, *msg, options))
	s.Require().NoError(provider.Ack(ctx, *msg))

	redelivered := s.waitForMessage(provider)
	s.Equal(1, retry.Attempts(*redelivered))
	s.Equal([]byte("body"), redelivered.Body())

	tenant, _ := redelivered.Header("tenant")
	s.Equal("acme", tenant)

	appID, _ := redelivered.Property(PropertyAppID)
	s.Equal("applicationId", appID)

	s.Error(stack.Process(ctx, *redelivered, options))
	s.Require().NoError(provider.Nack(ctx, *redelivered, false))
}

func (s *RabbitMQIntegrationTestSuite) waitForMessage(provider *Provider) *broker.Message {
	var msg *broker.Message

	s.Require().Eventually(func() bool {
		got, err := provider.Get(context.Background())
		if err != nil || got == nil {
			return false
		}

		msg = got

		return true
	}, 10*time.Second, 50*time.Millisecond)

	return msg
}
