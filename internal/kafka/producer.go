package kafka

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const (
	maxBatch     = 100
	batchTimeout = 10 * time.Millisecond
)

// messageWriter is the part of *kafka.Writer the producer needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	w       messageWriter
	topic   string
	logger  *logrus.Logger
	inbox   chan kafka.Message
	closeCh chan struct{}

	mu     sync.Mutex
	closed bool
}

func NewProducer(brokers []string, topic string, buf int, logger *logrus.Logger) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchSize:              maxBatch,
		BatchTimeout:           batchTimeout,
	}
	return newProducer(w, topic, buf, logger)
}

func newProducer(w messageWriter, topic string, buf int, logger *logrus.Logger) *Producer {
	return &Producer{
		w:       w,
		topic:   topic,
		logger:  logger,
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

// Start runs the send loop until Close is called; remaining messages are flushed first.
// Whatever is already queued goes out in a single WriteMessages call.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		batch := make([]kafka.Message, 0, maxBatch)
		for m := range p.inbox {
			batch = append(batch[:0], m)
		drain:
			for len(batch) < maxBatch {
				select {
				case next, ok := <-p.inbox:
					if !ok {
						break drain
					}
					batch = append(batch, next)
				default:
					break drain
				}
			}
			p.write(ctx, batch)
		}
		if err := p.w.Close(); err != nil {
			p.logger.WithError(err).WithField("topic", p.topic).Warn("kafka writer close failed")
		}
	}()
}

func (p *Producer) write(ctx context.Context, batch []kafka.Message) {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := p.w.WriteMessages(wctx, batch...); err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{
			"topic": p.topic, "messages": len(batch),
		}).Warn("kafka write failed")
	}
}

// Publish enqueues a message without blocking the caller on the broker.
// Messages published after Close, or while the buffer is full, are dropped and logged.
func (p *Producer) Publish(key, value []byte, headers ...kafka.Header) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		p.logger.WithField("topic", p.topic).Warn("publish after close dropped")
		return
	}
	msg := kafka.Message{
		Key:     key,
		Value:   value,
		Time:    time.Now(),
		Headers: headers,
	}
	select {
	case p.inbox <- msg:
	default:
		p.logger.WithField("topic", p.topic).Warn("producer buffer full, message dropped")
	}
}

// Close tutup inbox supaya loop flush sisa pesan lalu exit rapi.
func (p *Producer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.inbox)
	}
}

// WaitClosed blocks until the send loop has flushed and closed the writer, or ctx is done.
func (p *Producer) WaitClosed(ctx context.Context) error {
	select {
	case <-p.closeCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
