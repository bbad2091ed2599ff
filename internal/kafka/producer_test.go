package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ariefcatur/go-clothing-rental/internal/logx"
)

type fakeWriter struct {
	mu      sync.Mutex
	msgs    []kafka.Message
	calls   int
	closed  bool
	release chan struct{} // optional, blocks every write until closed
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func TestProducerFlushesOnClose(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "rental.created", 16, logx.Discard())
	p.Start(context.Background())

	for i := 0; i < 5; i++ {
		p.Publish([]byte("k"), []byte("v"))
	}
	p.Close()
	if err := p.WaitClosed(context.Background()); err != nil {
		t.Fatalf("wait closed: %v", err)
	}

	if len(w.msgs) != 5 {
		t.Fatalf("expected 5 flushed messages, got %d", len(w.msgs))
	}
	if !w.closed {
		t.Fatalf("writer not closed")
	}

	// setelah close tidak boleh panic
	p.Publish([]byte("k"), []byte("late"))
	p.Close()
}

func TestProducerBatchesQueuedMessages(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "rental.created", 256, logx.Discard())

	// queued before the loop starts, so one drain picks them all up
	for i := 0; i < 150; i++ {
		p.Publish([]byte("k"), []byte("v"))
	}
	p.Start(context.Background())
	p.Close()
	if err := p.WaitClosed(context.Background()); err != nil {
		t.Fatalf("wait closed: %v", err)
	}

	if len(w.msgs) != 150 {
		t.Fatalf("expected 150 messages, got %d", len(w.msgs))
	}
	if w.calls != 2 {
		t.Fatalf("expected 2 batched writes, got %d", w.calls)
	}
}

func TestProducerWaitClosedHonoursDeadline(t *testing.T) {
	w := &fakeWriter{release: make(chan struct{})}
	defer close(w.release)
	p := newProducer(w, "rental.created", 4, logx.Discard())
	p.Start(context.Background())
	p.Publish([]byte("k"), []byte("v"))
	p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := p.WaitClosed(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestNewProducerWriterSettings(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, "rental.created", 1, logx.Discard())
	w, ok := p.w.(*kafka.Writer)
	if !ok {
		t.Fatalf("unexpected writer type %T", p.w)
	}
	if w.BatchTimeout != batchTimeout || w.BatchSize != maxBatch {
		t.Fatalf("batch settings not applied: timeout=%v size=%d", w.BatchTimeout, w.BatchSize)
	}
	_ = w.Close()
}

func TestUnwrapPayload(t *testing.T) {
	type payload struct {
		ID string `json:"id"`
	}
	got, err := UnwrapPayload[payload](MustMarshal(payload{ID: "r1"}))
	if err != nil || got.ID != "r1" {
		t.Fatalf("unwrap: %v %+v", err, got)
	}
	if _, err := UnwrapPayload[payload]([]byte("{")); err == nil {
		t.Fatalf("expected decode error")
	}
}
