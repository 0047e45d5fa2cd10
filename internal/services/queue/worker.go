package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/phambaophuc/image-editor/internal/models"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// EventHandler processes one consumed event. Returning an error requeues it.
type EventHandler func(ctx context.Context, event *models.SessionEvent) error

func (q *QueueService) StartWorker(ctx context.Context, workerID int, handle EventHandler) error {
	msgs, err := q.channel.Consume(
		q.queueName,                        // queue
		fmt.Sprintf("worker-%d", workerID), // consumer
		false,                              // auto-ack
		false,                              // exclusive
		false,                              // no-local
		false,                              // no-wait
		nil,                                // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	q.logger.Info("Worker started", zap.Int("worker_id", workerID))

	go func() {
		for {
			select {
			case <-ctx.Done():
				q.logger.Info("Worker stopping", zap.Int("worker_id", workerID))
				return
			case msg, ok := <-msgs:
				if !ok {
					q.logger.Warn("Message channel closed", zap.Int("worker_id", workerID))
					return
				}

				q.processMessage(ctx, msg, workerID, handle)
			}
		}
	}()

	return nil
}

// acknowledger is satisfied by amqp.Delivery.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func (q *QueueService) processMessage(ctx context.Context, msg amqp.Delivery, workerID int, handle EventHandler) {
	q.handleDelivery(ctx, msg.Body, msg, workerID, handle)
}

func (q *QueueService) handleDelivery(ctx context.Context, body []byte, ack acknowledger, workerID int, handle EventHandler) {
	var event models.SessionEvent
	if err := json.Unmarshal(body, &event); err != nil {
		q.logger.Error("Failed to unmarshal event",
			zap.Error(err),
			zap.Int("worker_id", workerID))
		ack.Nack(false, false) // Don't requeue malformed messages
		return
	}

	if err := handle(ctx, &event); err != nil {
		q.logger.Error("Event handling failed",
			zap.String("event_id", event.ID),
			zap.Error(err))
		ack.Nack(false, true)
		return
	}

	if err := ack.Ack(false); err != nil {
		q.logger.Error("Failed to ack message",
			zap.String("event_id", event.ID),
			zap.Error(err))
	}
}
