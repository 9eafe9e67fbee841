package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// maxHandlerRetries bounds the redelivery of one event to the handler.
const maxHandlerRetries = 5

type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Handler func(context.Context, Event) error

// Consumer reads change events and hands them to a Handler. A message is
// committed only after the handler accepted it. A failing handler is retried
// with exponential backoff; when it keeps failing Run stops without
// committing, so the event is delivered again after a restart. Malformed
// messages are logged and committed so they do not block the partition.
type Consumer struct {
	reader     KafkaReader
	logger     *zap.Logger
	handler    Handler
	newBackOff func() backoff.BackOff
}

func NewConsumer(brokers []string, groupID, topic string, logger *zap.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			GroupID: groupID,
			Topic:   topic,
			Dialer:  kafka.DefaultDialer,
		}),
		logger:     logger.Named("kafka_consumer"),
		newBackOff: defaultBackOff,
	}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return b
}

func (c *Consumer) RegisterHandler(fn Handler) {
	c.handler = fn
}

// Run consumes until ctx is cancelled or an event cannot be handled.
func (c *Consumer) Run(ctx context.Context) error {
	if c.handler == nil {
		return errors.New("no event handler registered")
	}
	if c.newBackOff == nil {
		c.newBackOff = defaultBackOff
	}

	fetchBackOff := c.newBackOff()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			wait := fetchBackOff.NextBackOff()
			c.logger.Error("Failed to fetch message", zap.Error(err), zap.Duration("retry_in", wait))
			if !sleep(ctx, wait) {
				return nil
			}
			continue
		}
		fetchBackOff.Reset()

		var event Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			c.logger.Error("Failed to parse event",
				zap.Error(err),
				zap.ByteString("value", msg.Value),
			)
			c.commit(ctx, msg, "")
			continue
		}

		if err := c.handle(ctx, event); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("event %s (%s) at offset %d not handled: %w", event.ID, event.Type, msg.Offset, err)
		}
		c.commit(ctx, msg, event.Type)
	}
}

func (c *Consumer) handle(ctx context.Context, event Event) error {
	attempt := 0
	op := func() error {
		attempt++
		err := c.handler(ctx, event)
		if err != nil {
			c.logger.Warn("Failed to handle event",
				zap.Error(err),
				zap.String("event_type", string(event.Type)),
				zap.String("key", event.Key),
				zap.Int("attempt", attempt),
			)
		}
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), maxHandlerRetries), ctx)
	return backoff.Retry(op, policy)
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message, eventType EventType) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("Failed to commit message",
			zap.Error(err),
			zap.String("event_type", string(eventType)),
		)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Error("Failed to close Kafka reader", zap.Error(err))
	}
}
