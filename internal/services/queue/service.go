// Package queue publishes session events to RabbitMQ and consumes them back
// for the event log.
package queue

import (
	"fmt"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// amqpChannel is the part of *amqp.Channel the service uses.
type amqpChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	QueueInspect(name string) (amqp.Queue, error)
	Close() error
}

type QueueService struct {
	conn      *amqp.Connection
	channel   amqpChannel
	logger    *zap.Logger
	queueName string
}

func NewQueueService(rabbitmqURL, queueName string, logger *zap.Logger) (*QueueService, error) {
	conn, err := amqp.Dial(rabbitmqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &QueueService{
		conn:      conn,
		channel:   channel,
		logger:    logger,
		queueName: queueName,
	}, nil
}

// Close closes the queue connection
func (q *QueueService) Close() error {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		q.conn.Close()
	}
	return nil
}
