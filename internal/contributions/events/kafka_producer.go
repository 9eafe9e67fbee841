package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var jsonMarshal = json.Marshal

type EventType string

const (
	WorkerCreated       EventType = "worker_created"
	WorkerUpdated       EventType = "worker_updated"
	WorkerDeleted       EventType = "worker_deleted"
	ContingenciaAdded   EventType = "contingencia_added"
	ConvenioUpserted    EventType = "convenio_upserted"
	ConvenioDeleted     EventType = "convenio_deleted"
	CargaSocialUpserted EventType = "carga_social_upserted"
	CargaSocialDeleted  EventType = "carga_social_deleted"
)

// Event is the message published for every committed change. Key is the
// natural key of the changed record and doubles as the Kafka message key,
// so changes of one record stay ordered within a partition. Actor is the
// authenticated client that made the change, empty for changes made outside
// an authenticated request.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Type       EventType       `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Key        string          `json:"key"`
	Actor      string          `json:"actor,omitempty"`
	Payload    json.RawMessage `json:"payload"`
}

type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes events asynchronously through a bounded queue. When
// the queue is full new events are dropped and logged.
type Producer struct {
	writer    KafkaWriter
	events    chan Event
	logger    *zap.Logger
	closeChan chan struct{}
	wg        sync.WaitGroup
}

func NewProducer(brokers []string, logger *zap.Logger, topic string) (*Producer, error) {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     3,
		ReplicationFactor: 1,
	})
	if err != nil {
		logger.Warn("failed to create topic (may already exist)", zap.Error(err))
	}

	p := &Producer{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Balancer: &kafka.Hash{},
			Topic:    topic,
		},
		events:    make(chan Event, 1000),
		logger:    logger.Named("kafka_producer"),
		closeChan: make(chan struct{}),
	}

	p.wg.Add(1)
	go p.eventLoop()
	return p, nil
}

// Produce queues an event without blocking. The payload is serialised
// immediately so later changes to it are not observed.
func (p *Producer) Produce(eventType EventType, key, actor string, payload interface{}) {
	raw, err := jsonMarshal(payload)
	if err != nil {
		p.logger.Error("Failed to serialize event payload",
			zap.Error(err),
			zap.String("event_type", string(eventType)),
			zap.String("key", key),
		)
		return
	}

	event := Event{
		ID:         uuid.New(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Key:        key,
		Actor:      actor,
		Payload:    raw,
	}
	select {
	case p.events <- event:
	default:
		p.logger.Warn("Kafka producer queue full, dropping event",
			zap.String("event_type", string(eventType)),
			zap.String("key", key),
		)
	}
}

func (p *Producer) eventLoop() {
	defer p.wg.Done()
	for {
		select {
		case event := <-p.events:
			p.sendEvent(context.Background(), event)
		case <-p.closeChan:
			for {
				select {
				case event := <-p.events:
					p.sendEvent(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}

func (p *Producer) sendEvent(ctx context.Context, event Event) {
	value, err := jsonMarshal(event)
	if err != nil {
		p.logger.Error("Failed to serialize event",
			zap.Error(err),
			zap.String("key", event.Key),
		)
		return
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Key),
		Value: value,
	})
	if err != nil {
		p.logger.Error("Failed to produce event",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
			zap.String("key", event.Key),
		)
	}
}

// Close flushes queued events and closes the writer.
func (p *Producer) Close() {
	close(p.closeChan)
	p.wg.Wait()
	if err := p.writer.Close(); err != nil {
		p.logger.Error("Failed to close Kafka writer", zap.Error(err))
	}
}

// NopProducer discards events. It is used when no brokers are configured.
type NopProducer struct{}

func (NopProducer) Produce(EventType, string, string, interface{}) {}
