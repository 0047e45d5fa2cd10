package queue

import (
	"context"
	"fmt"

	"github.com/phambaophuc/image-editor/internal/models"
)

// EventFeedStats reports how many session events are waiting on the feed and
// how many consumers are draining it.
func (q *QueueService) EventFeedStats(context.Context) (map[string]interface{}, error) {
	info, err := q.channel.QueueInspect(q.queueName)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect event feed: %w", err)
	}

	return map[string]interface{}{
		"feed":           info.Name,
		"pending_events": info.Messages,
		"consumers":      info.Consumers,
	}, nil
}

func (q *QueueService) HealthCheck() string {
	switch {
	case q.conn == nil || q.conn.IsClosed():
		return models.Unhealthy("event feed connection closed")
	case q.channel == nil:
		return models.Unhealthy("event feed channel not available")
	}
	return models.HealthHealthy
}
