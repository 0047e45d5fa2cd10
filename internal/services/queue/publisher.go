package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/phambaophuc/image-editor/internal/models"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

func (q *QueueService) PublishEvent(ctx context.Context, event *models.SessionEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = q.channel.Publish(
		"",          // exchange
		q.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID,
			Type:         event.Type,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	q.logger.Debug("Event published to queue",
		zap.String("event_id", event.ID),
		zap.String("type", event.Type),
		zap.String("session_id", event.SessionID))
	return nil
}
