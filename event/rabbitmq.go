package event

import (
	"context"
	"fmt"
	"time"

	"chat-service/config"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Message is one consumed bus entry, tagged with its action header.
type Message struct {
	Action string
	Data   []byte
}

// SubscribeListener binds a queue to the channel its listener drains.
type SubscribeListener struct {
	Queue   string
	Channel chan Message
}

const ActionHeader string = "x-action"

// Queue names. Mailer feeds the email collaborator, audit records domain
// events for traceability.
const (
	QueueMailer = "mailer"
	QueueAudit  = "audit"
)

var (
	RabbitMQConnection *amqp.Connection
	RabbitMQChannel    *amqp.Channel
	RabbitMQQueue      = make(map[string]amqp.Queue)
)

func RabbitMQConnect(queues []string) {
	var err error

	// Connect to RabbitMQ server
	RabbitMQConnection, err = amqp.Dial(fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		config.Config("RABBITMQ_USER"),
		config.Config("RABBITMQ_PASSWORD"),
		config.Config("RABBITMQ_HOST"),
		config.Config("RABBITMQ_PORT"),
	))
	if err != nil {
		panic("failed to connect to RabbitMQ")
	}
	zap.L().Info("connection opened to RabbitMQ server")

	// Open a RabbitMQ channel
	RabbitMQChannel, err = RabbitMQConnection.Channel()
	if err != nil {
		panic("failed to open a RabbitMQ channel")
	}

	// Declare queues
	for _, name := range queues {
		queue, err := RabbitMQChannel.QueueDeclare(
			name,  // name
			false, // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			panic("failed to declare a RabbitMQ queue")
		}

		RabbitMQQueue[name] = queue
		zap.L().Info("declared RabbitMQ queue", zap.String("queue", name))
	}
}

func RabbitMQSubscribe(listeners []SubscribeListener) {
	for _, listener := range listeners {
		msgs, err := RabbitMQChannel.Consume(
			listener.Queue, // queue
			"",             // consumer
			false,          // auto-ack
			false,          // exclusive
			false,          // no-local
			false,          // no-wait
			nil,            // args
		)
		if err != nil {
			panic("failed to register a consumer")
		}
		zap.L().Info("subscribed to RabbitMQ queue", zap.String("queue", listener.Queue))

		go func(listener SubscribeListener, msgs <-chan amqp.Delivery) {
			for msg := range msgs {
				action, _ := msg.Headers[ActionHeader].(string)
				msg.Ack(false)

				listener.Channel <- Message{
					Action: action,
					Data:   msg.Body,
				}
			}
		}(listener, msgs)
	}
}

// Emit publishes one action-tagged payload to a queue. Publishing is best
// effort for every current caller; failures are logged, never fatal.
func Emit(queue string, action string, data []byte) error {
	if RabbitMQChannel == nil {
		return fmt.Errorf("rabbitmq channel not open")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := RabbitMQChannel.PublishWithContext(
		ctx,
		"",    // exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Headers: amqp.Table{
				ActionHeader: action,
			},
			Body: data,
		},
	)
	if err != nil {
		zap.L().Error("rabbitmq publish failed",
			zap.String("queue", queue), zap.String("action", action), zap.Error(err))
		return err
	}
	return nil
}

func Close() {
	if RabbitMQChannel != nil {
		RabbitMQChannel.Close()
	}
	if RabbitMQConnection != nil {
		RabbitMQConnection.Close()
	}
}
