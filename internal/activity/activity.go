package activity

import (
	"context"
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	kafkax "github.com/ariefcatur/go-clothing-rental/internal/kafka"
	"github.com/ariefcatur/go-clothing-rental/internal/metrics"
	"github.com/ariefcatur/go-clothing-rental/internal/rental"
	"github.com/ariefcatur/go-clothing-rental/internal/tracing"
)

const (
	KindRented   = "rented"
	KindReturned = "returned"
)

// Entry is one line of a user's recent-activity feed.
type Entry struct {
	EventID     string    `json:"event_id"`
	Kind        string    `json:"kind"`
	RentalID    string    `json:"rental_id"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name,omitempty"`
	At          time.Time `json:"at"`
}

// Stats are the per-product counters kept next to the feeds.
type Stats struct {
	Rented   int64 `json:"rented"`
	Returned int64 `json:"returned"`
}

// Sink is where processed events land. *RedisSink is the production one.
type Sink interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	MarkSeen(ctx context.Context, eventID string) error
	// Record appends e to the user's feed and bumps the product counter in one step,
	// so a retried event never lands half written.
	Record(ctx context.Context, userID string, e Entry) error
}

type Service struct {
	Sink   Sink
	Logger *logrus.Logger
}

// HandleRentalEvent: dipasang sebagai handler consumer untuk kedua topic rental.
// An error means the sink is unavailable; the consumer retries the same message
// with backoff and holds back the rest of its partition until it succeeds.
func (s *Service) HandleRentalEvent(ctx context.Context, m kafkago.Message) error {
	ctx, span := tracing.Tracer().Start(kafkax.ContextFromHeaders(ctx, m.Headers), "activity.record",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(attribute.String("messaging.destination.name", m.Topic)),
	)
	defer span.End()

	// 1) decode envelope
	var env rental.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// pesan rusak tidak akan pernah bisa diproses, commit saja
		s.log().WithError(err).WithField("offset", m.Offset).Warn("dropping undecodable message")
		metrics.ObserveActivityEvent("unknown", "malformed")
		return nil
	}

	// 2) dedup via Redis (pakai event_id)
	seen, err := s.Sink.Seen(ctx, env.EventID)
	if err != nil {
		return err
	}
	if seen {
		metrics.ObserveActivityEvent(env.EventType, "duplicate")
		return nil
	}

	// 3) decode payload sesuai tipe
	var entry Entry
	var userID string
	switch env.EventType {
	case rental.EventRentalCreated:
		p, err := kafkax.UnwrapPayload[rental.RentalCreatedPayload](env.Payload)
		if err != nil {
			return s.malformed(env, err)
		}
		userID = p.UserID
		entry = Entry{EventID: env.EventID, Kind: KindRented, RentalID: p.RentalID, ProductID: p.ProductID, ProductName: p.ProductName, At: p.RentalDate}
	case rental.EventRentalReturned:
		p, err := kafkax.UnwrapPayload[rental.RentalReturnedPayload](env.Payload)
		if err != nil {
			return s.malformed(env, err)
		}
		userID = p.UserID
		entry = Entry{EventID: env.EventID, Kind: KindReturned, RentalID: p.RentalID, ProductID: p.ProductID, At: p.ReturnDate}
	default:
		metrics.ObserveActivityEvent(env.EventType, "ignored")
		return nil
	}

	// 4) tulis feed + counter, baru tandai sudah diproses
	if err := s.Sink.Record(ctx, userID, entry); err != nil {
		metrics.ObserveActivityEvent(env.EventType, "error")
		return err
	}
	if err := s.Sink.MarkSeen(ctx, env.EventID); err != nil {
		s.log().WithError(err).WithField("event_id", env.EventID).Warn("dedup mark failed")
	}

	metrics.ObserveActivityEvent(env.EventType, "ok")
	s.log().WithFields(logrus.Fields{
		"event_id": env.EventID, "event_type": env.EventType, "rental_id": entry.RentalID, "trace_id": env.TraceID,
	}).Debug("activity recorded")
	return nil
}

func (s *Service) malformed(env rental.Envelope, err error) error {
	s.log().WithError(err).WithField("event_id", env.EventID).Warn("dropping event with bad payload")
	metrics.ObserveActivityEvent(env.EventType, "malformed")
	return nil
}

func (s *Service) log() *logrus.Logger {
	if s.Logger == nil {
		return logrus.StandardLogger()
	}
	return s.Logger
}
