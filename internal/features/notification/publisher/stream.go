package publisher

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"user-management-backend/internal/features/notification/models"
)

const StreamKey = "user:events"

// StreamPublisher appends notification events to a Redis stream.
type StreamPublisher struct {
	client redis.UniversalClient
	stream string
}

func NewStreamPublisher(client redis.UniversalClient) *StreamPublisher {
	return &StreamPublisher{client: client, stream: StreamKey}
}

func (p *StreamPublisher) Publish(ctx context.Context, event *models.Event) error {
	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: event.Values(),
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	event.ID = id
	return nil
}
