package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-clothing-rental/internal/kafka"
	"github.com/ariefcatur/go-clothing-rental/internal/logx"
	"github.com/ariefcatur/go-clothing-rental/internal/rental"
)

type fakeSink struct {
	seen      map[string]bool
	feed      map[string][]Entry
	counts    map[string]int
	recordErr error
}

func newFakeSink() *fakeSink {
	return &fakeSink{seen: map[string]bool{}, feed: map[string][]Entry{}, counts: map[string]int{}}
}

func (f *fakeSink) Seen(_ context.Context, id string) (bool, error) { return f.seen[id], nil }
func (f *fakeSink) MarkSeen(_ context.Context, id string) error { f.seen[id] = true; return nil }

func (f *fakeSink) Record(_ context.Context, userID string, e Entry) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.feed[userID] = append(f.feed[userID], e)
	f.counts[e.ProductID+":"+e.Kind]++
	return nil
}

func createdMessage(eventID string) kafkago.Message {
	env := rental.Envelope{
		EventID:      eventID,
		EventType:    rental.EventRentalCreated,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Payload: kafkax.MustMarshal(rental.RentalCreatedPayload{
			RentalID: "r-1", UserID: "u-1", ProductID: "p-1", ProductName: "Denim Jacket", RentalDate: time.Now().UTC(),
		}),
	}
	return kafkago.Message{Value: kafkax.MustMarshal(env)}
}

func TestHandleRentalCreated(t *testing.T) {
	sink := newFakeSink()
	svc := &Service{Sink: sink, Logger: logx.Discard()}

	if err := svc.HandleRentalEvent(context.Background(), createdMessage("ev-1")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	feed := sink.feed["u-1"]
	if len(feed) != 1 || feed[0].Kind != KindRented || feed[0].ProductName != "Denim Jacket" {
		t.Fatalf("unexpected feed %+v", feed)
	}
	if sink.counts["p-1:rented"] != 1 || !sink.seen["ev-1"] {
		t.Fatalf("counter or dedup mark missing: %+v %+v", sink.counts, sink.seen)
	}
}

func TestHandleRentalEventDeduplicates(t *testing.T) {
	sink := newFakeSink()
	svc := &Service{Sink: sink, Logger: logx.Discard()}
	for i := 0; i < 3; i++ {
		if err := svc.HandleRentalEvent(context.Background(), createdMessage("ev-1")); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}
	if n := len(sink.feed["u-1"]); n != 1 {
		t.Fatalf("expected 1 feed entry, got %d", n)
	}
}

func TestHandleRentalReturned(t *testing.T) {
	sink := newFakeSink()
	svc := &Service{Sink: sink, Logger: logx.Discard()}
	env := rental.Envelope{
		EventID:   "ev-2",
		EventType: rental.EventRentalReturned,
		Payload:   kafkax.MustMarshal(rental.RentalReturnedPayload{RentalID: "r-1", UserID: "u-1", ProductID: "p-1"}),
	}
	if err := svc.HandleRentalEvent(context.Background(), kafkago.Message{Value: kafkax.MustMarshal(env)}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if sink.counts["p-1:returned"] != 1 {
		t.Fatalf("returned counter missing: %+v", sink.counts)
	}
}

func TestHandleRentalEventBadInput(t *testing.T) {
	sink := newFakeSink()
	svc := &Service{Sink: sink, Logger: logx.Discard()}
	ctx := context.Background()

	unknown := kafkax.MustMarshal(rental.Envelope{EventID: "ev-3", EventType: "SomethingElse"})
	badPayload := kafkax.MustMarshal(rental.Envelope{EventID: "ev-4", EventType: rental.EventRentalCreated, Payload: []byte(`"oops"`)})

	for name, value := range map[string][]byte{
		"garbage":     []byte("{not json"),
		"unknown":     unknown,
		"bad payload": badPayload,
	} {
		if err := svc.HandleRentalEvent(ctx, kafkago.Message{Value: value}); err != nil {
			t.Fatalf("%s: expected message to be dropped, got %v", name, err)
		}
	}
	if len(sink.feed) != 0 {
		t.Fatalf("nothing should have been recorded: %+v", sink.feed)
	}
}

func TestHandleRentalEventSinkFailureIsRetried(t *testing.T) {
	sink := newFakeSink()
	sink.recordErr = errors.New("redis down")
	svc := &Service{Sink: sink, Logger: logx.Discard()}
	ctx := context.Background()

	if err := svc.HandleRentalEvent(ctx, createdMessage("ev-5")); err == nil {
		t.Fatalf("expected error so the consumer retries")
	}
	if sink.seen["ev-5"] {
		t.Fatalf("failed event must not be marked as seen")
	}

	// redelivery after the sink recovers lands exactly once
	sink.recordErr = nil
	for i := 0; i < 2; i++ {
		if err := svc.HandleRentalEvent(ctx, createdMessage("ev-5")); err != nil {
			t.Fatalf("retry: %v", err)
		}
	}
	if n := len(sink.feed["u-1"]); n != 1 || sink.counts["p-1:rented"] != 1 {
		t.Fatalf("expected one entry and one count, got %d / %d", n, sink.counts["p-1:rented"])
	}
}

func TestRedisSink(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ctx := context.Background()
	sink := &RedisSink{RDB: rdb, Service: "activity-test", FeedSize: 2}

	for i, id := range []string{"a", "b", "c"} {
		if err := sink.Record(ctx, "u-1", Entry{EventID: id, Kind: KindRented, ProductID: "p-1", At: time.Unix(int64(i), 0).UTC()}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	feed, err := sink.Feed(ctx, "u-1", 0)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(feed) != 2 || feed[0].EventID != "c" || feed[1].EventID != "b" {
		t.Fatalf("expected newest two entries, got %+v", feed)
	}

	if seen, _ := sink.Seen(ctx, "ev-1"); seen {
		t.Fatalf("unexpected seen")
	}
	_ = sink.MarkSeen(ctx, "ev-1")
	if seen, _ := sink.Seen(ctx, "ev-1"); !seen {
		t.Fatalf("expected seen after mark")
	}

	stats, err := sink.ProductStats(ctx, "p-1")
	if err != nil || stats.Rented != 3 || stats.Returned != 0 {
		t.Fatalf("unexpected stats %+v err=%v", stats, err)
	}
	if empty, err := sink.ProductStats(ctx, "p-unknown"); err != nil || empty != (Stats{}) {
		t.Fatalf("expected zero stats, got %+v err=%v", empty, err)
	}
}
