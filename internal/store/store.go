package store

import (
	"context"
	"time"
)

// Reader covers the point lookups and scans used outside transactions.
type Reader interface {
	UserByID(ctx context.Context, id UserID) (User, error)
	UserByEmail(ctx context.Context, email string) (User, error)
	ProductByID(ctx context.Context, id ProductID) (Product, error)
	ListProducts(ctx context.Context, f ProductFilter) ([]Product, error)
	RentalsByUser(ctx context.Context, id UserID) ([]Rental, error)
}

// Tx is one transaction scope. Rows returned by the Lock* methods stay locked
// until the scope ends, so a concurrent scope touching the same row waits.
type Tx interface {
	LockProduct(ctx context.Context, id ProductID) (Product, error)
	// LockRental only matches a rental owned by owner.
	LockRental(ctx context.Context, id RentalID, owner UserID) (Rental, error)
	// InsertRental fails with ErrNotFound when the renting user does not exist.
	InsertRental(ctx context.Context, r *Rental) error
	// AddStock fails with ErrNegativeStock instead of letting stock drop below zero.
	AddStock(ctx context.Context, id ProductID, delta int) error
	// MarkReturned flips an active rental to returned; ErrNotFound if it is not active.
	MarkReturned(ctx context.Context, id RentalID, at time.Time) error
}

type Store interface {
	Reader
	// InsertUser fails with ErrDuplicate when the email is already taken.
	InsertUser(ctx context.Context, u *User) error
	InsertProduct(ctx context.Context, p *Product) error
	// WithTx commits iff fn returns nil; any error rolls back every write made through tx.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// Reset removes every document from all three collections.
	Reset(ctx context.Context) error
	Ping(ctx context.Context) error
	Close()
}
