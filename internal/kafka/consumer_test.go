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

// fakeReader hands out msgs in order, then blocks until ctx is done.
type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []int64
	closed    bool
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	if len(f.msgs) > 0 {
		m := f.msgs[0]
		f.msgs = f.msgs[1:]
		f.mu.Unlock()
		return m, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeReader) commits() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.committed...)
}

func partitionMsgs(n int) []kafka.Message {
	out := make([]kafka.Message, n)
	for i := range out {
		out[i] = kafka.Message{Topic: "rental.created", Partition: 0, Offset: int64(i)}
	}
	return out
}

func TestConsumerRetriesFailedMessageBeforeMovingOn(t *testing.T) {
	r := &fakeReader{msgs: partitionMsgs(3)}
	c := newConsumer(r, 4, logx.Discard())
	c.backoff, c.maxBackoff = time.Millisecond, 4*time.Millisecond

	var (
		mu       sync.Mutex
		attempts = map[int64]int{}
		order    []int64
	)
	h := func(_ context.Context, m kafka.Message) error {
		mu.Lock()
		defer mu.Unlock()
		attempts[m.Offset]++
		if m.Offset == 1 && attempts[m.Offset] < 3 {
			return errors.New("redis down")
		}
		order = append(order, m.Offset)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx, h) }()

	deadline := time.Now().Add(2 * time.Second)
	for len(r.commits()) < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("start: %v", err)
	}

	got := r.commits()
	if len(got) != 3 || got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Fatalf("expected commits [0 1 2], got %v", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if attempts[1] != 3 {
		t.Fatalf("expected offset 1 to be tried 3 times, got %d", attempts[1])
	}
	if len(order) != 3 || order[1] != 1 || order[2] != 2 {
		t.Fatalf("partition order not kept: %v", order)
	}
	if !r.closed {
		t.Fatalf("reader not closed")
	}
}

func TestConsumerLeavesFailingMessageUncommittedOnShutdown(t *testing.T) {
	r := &fakeReader{msgs: partitionMsgs(2)}
	c := newConsumer(r, 1, logx.Discard())
	c.backoff, c.maxBackoff = time.Millisecond, time.Millisecond

	calls := make(chan int64, 64)
	h := func(_ context.Context, m kafka.Message) error {
		select {
		case calls <- m.Offset:
		default:
		}
		return errors.New("always failing")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx, h) }()

	// wait for a few retries of the first message
	for i := 0; i < 3; i++ {
		select {
		case off := <-calls:
			if off != 0 {
				t.Fatalf("message behind a failing one was handled: offset %d", off)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("handler not retried")
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := r.commits(); len(got) != 0 {
		t.Fatalf("expected no commits, got %v", got)
	}
}

func TestConsumerWorkerIsStablePerPartition(t *testing.T) {
	c := newConsumer(&fakeReader{}, 3, logx.Discard())
	a := kafka.Message{Topic: "rental.returned", Partition: 2, Offset: 10}
	b := kafka.Message{Topic: "rental.returned", Partition: 2, Offset: 11}
	if c.worker(a) != c.worker(b) {
		t.Fatalf("same partition mapped to different workers")
	}
	if w := c.worker(a); w < 0 || w >= 3 {
		t.Fatalf("worker out of range: %d", w)
	}
}
