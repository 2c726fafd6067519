package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"teashop/utils"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Publisher sends an event keyed by correlation id.
type Publisher interface {
	Publish(ctx context.Context, eventType, correlationID string, payload any) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer buffers messages and writes them from a single goroutine.
type Producer struct {
	w        messageWriter
	producer string
	inbox    chan kafka.Message
	closeCh  chan struct{}
	once     sync.Once

	mu     sync.RWMutex
	closed bool
}

func NewProducer(brokers []string, topic, producer string, buf int) *Producer {
	return newProducer(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: 5 * time.Second,
	}, producer, buf)
}

func newProducer(w messageWriter, producer string, buf int) *Producer {
	return &Producer{
		w:        w,
		producer: producer,
		inbox:    make(chan kafka.Message, buf),
		closeCh:  make(chan struct{}),
	}
}

// Start runs the write loop until Close is called.
func (p *Producer) Start() {
	go func() {
		defer close(p.closeCh)
		for m := range p.inbox {
			if err := p.w.WriteMessages(context.Background(), m); err != nil {
				utils.Log.WithError(err).WithField("key", string(m.Key)).Error("kafka write failed")
			}
		}
		if err := p.w.Close(); err != nil {
			utils.Log.WithError(err).Warn("kafka writer close")
		}
	}()
}

// Publish wraps payload in an Envelope and queues it. It never blocks on the
// broker; when the buffer is full the event is dropped and logged.
func (p *Producer) Publish(ctx context.Context, eventType, correlationID string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	env := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      p.producer,
		CorrelationID: correlationID,
		Payload:       raw,
	}
	value, err := json.Marshal(env)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:     []byte(correlationID),
		Value:   value,
		Time:    env.OccurredAt,
		Headers: []kafka.Header{{Key: "event_type", Value: []byte(eventType)}},
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		utils.Log.WithFields(logrus.Fields{"event": eventType, "order": correlationID}).Warn("producer closed, dropping event")
		return nil
	}
	select {
	case p.inbox <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		utils.Log.WithFields(logrus.Fields{"event": eventType, "order": correlationID}).Warn("event buffer full, dropping")
		return nil
	}
}

// Close flushes queued messages and waits for the writer to shut down.
// Events published afterwards are dropped.
func (p *Producer) Close() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.inbox)
		p.mu.Unlock()
	})
	<-p.closeCh
}

// Noop discards every event. Used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, string, any) error { return nil }
