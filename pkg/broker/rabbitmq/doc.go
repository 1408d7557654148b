// Package rabbitmq binds the broker contracts to RabbitMQ through amqp091-go.
//
// A Connection owns one AMQP connection and one channel. The channel is wrapped in a
// ChannelWrapper which serializes access and, when publisher confirms are enabled,
// makes every publish wait for the broker ack.
//
//	conn := rabbitmq.NewConnection(rabbitmq.Config{
//		Scheme:   "amqp",
//		Username: "guest",
//		Password: "guest",
//		Host:     "localhost",
//		Port:     5672,
//		Vhost:    "/",
//	}, rabbitmq.WithPublisherConfirms(5*time.Second))
//	if err := conn.Connect(); err != nil {
//		log.Fatal(err)
//	}
//	defer conn.Close()
//
//	ch, _ := conn.Channel()
//	provider := rabbitmq.NewProvider(ch, "orders")
//	publisher := rabbitmq.NewPublisher(ch, "retry")
//
// Retries are delayed by the broker: DeclareRetryTopology creates one TTL queue per
// attempt, bound to the retry exchange, which dead-letters expired messages back to
// the source queue.
package rabbitmq
