package rental

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	kafkax "github.com/ariefcatur/go-clothing-rental/internal/kafka"
	"github.com/ariefcatur/go-clothing-rental/internal/metrics"
	"github.com/ariefcatur/go-clothing-rental/internal/store"
	"github.com/ariefcatur/go-clothing-rental/internal/tracing"
)

var (
	ErrNotFound        = errors.New("rental: not found")
	ErrOutOfStock      = errors.New("rental: out of stock")
	ErrAlreadyReturned = errors.New("rental: already returned")
	ErrUnknownUser     = errors.New("rental: user does not exist")
)

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type Engine struct {
	Store    store.Store
	Created  Publisher // publish rental.created, boleh nil
	Returned Publisher // publish rental.returned, boleh nil
	Logger   *logrus.Logger
	Service  string
	Now      func() time.Time
}

// RentalItem pairs a rental with the product it references.
type RentalItem struct {
	Rental  store.Rental  `json:"rental"`
	Product store.Product `json:"product"`
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}

// CreateRental inserts an active rental and takes one unit of stock in the same transaction.
// The product row stays locked until commit, so concurrent rents of the last unit serialize.
func (e *Engine) CreateRental(ctx context.Context, userID store.UserID, productID store.ProductID) (store.Rental, error) {
	ctx, span := tracing.Tracer().Start(ctx, "rental.create", trace.WithAttributes(
		attribute.String("rental.user_id", string(userID)),
		attribute.String("rental.product_id", string(productID)),
	))
	defer span.End()

	var (
		r       store.Rental
		product store.Product
	)
	err := e.Store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		p, err := tx.LockProduct(ctx, productID)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("product %s: %w", productID, ErrNotFound)
		}
		if err != nil {
			return err
		}
		if p.Stock <= 0 {
			return ErrOutOfStock
		}

		r = store.Rental{
			UserID:     userID,
			ProductID:  productID,
			RentalDate: e.now(),
			Status:     store.RentalActive,
		}
		if err := tx.InsertRental(ctx, &r); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("user %s: %w", userID, ErrUnknownUser)
			}
			return err
		}
		if err := tx.AddStock(ctx, productID, -1); err != nil {
			if errors.Is(err, store.ErrNegativeStock) {
				return ErrOutOfStock
			}
			return err
		}
		product = p
		product.Stock--
		return nil
	})
	if err != nil {
		e.observe(span, "create", err)
		return store.Rental{}, err
	}
	e.observe(span, "create", nil)

	e.log().WithFields(logrus.Fields{
		"rental_id": r.ID, "user_id": userID, "product_id": productID, "stock": product.Stock,
	}).Info("rental created")

	e.publish(ctx, e.Created, EventRentalCreated, string(r.ID), RentalCreatedPayload{
		RentalID:    string(r.ID),
		UserID:      string(r.UserID),
		ProductID:   string(r.ProductID),
		ProductName: product.Name,
		RentalDate:  r.RentalDate,
		StockAfter:  product.Stock,
	})
	return r, nil
}

// ReturnRental closes an active rental owned by userID and gives the unit back to stock,
// both in one transaction. A rental owned by someone else is reported as ErrNotFound.
func (e *Engine) ReturnRental(ctx context.Context, userID store.UserID, rentalID store.RentalID) (store.Rental, error) {
	ctx, span := tracing.Tracer().Start(ctx, "rental.return", trace.WithAttributes(
		attribute.String("rental.user_id", string(userID)),
		attribute.String("rental.id", string(rentalID)),
	))
	defer span.End()

	var r store.Rental
	err := e.Store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		r, err = tx.LockRental(ctx, rentalID, userID)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("rental %s: %w", rentalID, ErrNotFound)
		}
		if err != nil {
			return err
		}
		if !store.CanTransition(r.Status, store.RentalReturned) {
			return ErrAlreadyReturned
		}

		at := e.now()
		if err := tx.MarkReturned(ctx, rentalID, at); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrAlreadyReturned
			}
			return err
		}
		if err := tx.AddStock(ctx, r.ProductID, 1); err != nil {
			return err
		}
		r.Status = store.RentalReturned
		r.ReturnDate = &at
		return nil
	})
	if err != nil {
		e.observe(span, "return", err)
		return store.Rental{}, err
	}
	e.observe(span, "return", nil)

	e.log().WithFields(logrus.Fields{
		"rental_id": r.ID, "user_id": userID, "product_id": r.ProductID,
	}).Info("rental returned")

	e.publish(ctx, e.Returned, EventRentalReturned, string(r.ID), RentalReturnedPayload{
		RentalID:   string(r.ID),
		UserID:     string(r.UserID),
		ProductID:  string(r.ProductID),
		ReturnDate: *r.ReturnDate,
	})
	return r, nil
}

// RentalsForUser lists the user's rentals with their products. Rentals whose product
// cannot be loaded are skipped.
func (e *Engine) RentalsForUser(ctx context.Context, userID store.UserID) ([]RentalItem, error) {
	rentals, err := e.Store.RentalsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	items := make([]RentalItem, 0, len(rentals))
	for _, r := range rentals {
		p, err := e.Store.ProductByID(ctx, r.ProductID)
		if err != nil {
			e.log().WithError(err).WithField("rental_id", r.ID).Warn("skipping rental with unreadable product")
			continue
		}
		items = append(items, RentalItem{Rental: r, Product: p})
	}
	return items, nil
}

// observe records the outcome on the span and in metrics. Only unexpected failures
// mark the span as an error.
func (e *Engine) observe(span trace.Span, op string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		result = "not_found"
	case errors.Is(err, ErrOutOfStock):
		result = "out_of_stock"
	case errors.Is(err, ErrAlreadyReturned):
		result = "already_returned"
	case errors.Is(err, ErrUnknownUser):
		result = "unknown_user"
	case errors.Is(err, store.ErrConflict):
		result = "conflict"
	default:
		result = "error"
	}
	span.SetAttributes(attribute.String("rental.result", result))
	if result == "error" || result == "conflict" {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	metrics.ObserveRental(op, result)
}

func (e *Engine) publish(ctx context.Context, p Publisher, eventType, rentalID string, payload any) {
	if p == nil {
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    e.now(),
		Producer:      e.Service,
		TraceID:       traceID(ctx),
		CorrelationID: rentalID,
		Payload:       kafkax.MustMarshal(payload),
	}
	headers := []kafkago.Header{
		{Key: "x-event-type", Value: []byte(eventType)},
		{Key: "x-event-version", Value: []byte("1")},
	}
	headers = append(headers, kafkax.TraceHeaders(ctx)...)
	p.Publish(PartitionKey(rentalID), kafkax.MustMarshal(ev), headers...)
}

func (e *Engine) log() *logrus.Logger {
	if e.Logger == nil {
		return logrus.StandardLogger()
	}
	return e.Logger
}

type traceKey struct{}

// WithTraceID attaches a request id that ends up in published envelopes.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceKey{}, id)
}

// traceID prefers the request id and falls back to the active span's trace id.
func traceID(ctx context.Context) string {
	if s, _ := ctx.Value(traceKey{}).(string); s != "" {
		return s
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}
