package workers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"user-management-backend/internal/common/logger"
	"user-management-backend/internal/features/notification/models"
	"user-management-backend/internal/features/notification/publisher"
)

const (
	ConsumerGroup       = "user_management_consumers"
	DefaultConsumerName = "user_management_worker_1"
)

// EventHandler processes one notification event.
type EventHandler interface {
	Dispatch(ctx context.Context, event *models.Event) error
}

type RedisStreamWorker struct {
	rdb      redis.UniversalClient
	handler  EventHandler
	stream   string
	consumer string
	block    time.Duration
	log      zerolog.Logger
}

func NewRedisStreamWorker(rdb redis.UniversalClient, handler EventHandler, consumer string) *RedisStreamWorker {
	if consumer == "" {
		consumer = DefaultConsumerName
	}
	return &RedisStreamWorker{
		rdb:      rdb,
		handler:  handler,
		stream:   publisher.StreamKey,
		consumer: consumer,
		block:    5 * time.Second,
		log:      logger.Component("notification_worker"),
	}
}

// WithBlock sets how long a single XREADGROUP call waits for new entries.
func (w *RedisStreamWorker) WithBlock(d time.Duration) *RedisStreamWorker {
	w.block = d
	return w
}

// Start consumes the stream until ctx is cancelled. Every entry is acked after
// handling, including entries the handler failed on.
func (w *RedisStreamWorker) Start(ctx context.Context) {
	err := w.rdb.XGroupCreateMkStream(ctx, w.stream, ConsumerGroup, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		w.log.Error().Err(err).Msg("Error creating consumer group")
	}

	w.log.Info().Str("stream", w.stream).Str("consumer", w.consumer).Msg("Starting Redis stream worker")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping Redis stream worker")
			return
		default:
		}

		entries, err := w.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    ConsumerGroup,
			Consumer: w.consumer,
			Streams:  []string{w.stream, ">"},
			Count:    10,
			Block:    w.block,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			w.log.Error().Err(err).Msg("Error reading from stream")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}

		for _, stream := range entries {
			for _, msg := range stream.Messages {
				w.processMessage(ctx, msg)
				if err := w.rdb.XAck(ctx, w.stream, ConsumerGroup, msg.ID).Err(); err != nil {
					w.log.Error().Err(err).Str("id", msg.ID).Msg("Failed to ack message")
				}
			}
		}
	}
}

func (w *RedisStreamWorker) processMessage(ctx context.Context, msg redis.XMessage) {
	event, err := models.EventFromValues(msg.ID, msg.Values)
	if err != nil {
		w.log.Warn().Err(err).Str("id", msg.ID).Msg("Skipping malformed event")
		return
	}

	if err := w.handler.Dispatch(ctx, event); err != nil {
		w.log.Error().Err(err).
			Str("id", msg.ID).
			Str("event", string(event.Type)).
			Str("user_id", event.UserID).
			Msg("Failed to deliver notification")
	}
}
