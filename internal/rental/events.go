package rental

import (
	"encoding/json"
	"time"
)

const (
	EventRentalCreated  = "RentalCreated"
	EventRentalReturned = "RentalReturned"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "rental-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // rental_id
	Payload       json.RawMessage `json:"payload"`
}

type RentalCreatedPayload struct {
	RentalID    string    `json:"rental_id"`
	UserID      string    `json:"user_id"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	RentalDate  time.Time `json:"rental_date"`
	StockAfter  int       `json:"stock_after"`
}

type RentalReturnedPayload struct {
	RentalID   string    `json:"rental_id"`
	UserID     string    `json:"user_id"`
	ProductID  string    `json:"product_id"`
	ReturnDate time.Time `json:"return_date"`
}
