package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ariefcatur/go-clothing-rental/internal/store"
)

func TestMapErr(t *testing.T) {
	cases := []struct {
		name  string
		in    error
		want  error
		infra bool
	}{
		{"nil", nil, nil, false},
		{"no rows", pgx.ErrNoRows, store.ErrNotFound, false},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), store.ErrNotFound, false},
		{"unique", &pgconn.PgError{Code: "23505"}, store.ErrDuplicate, false},
		{"foreign key", &pgconn.PgError{Code: "23503", ConstraintName: "rentals_user_id_fkey"}, store.ErrNotFound, false},
		{"stock check", &pgconn.PgError{Code: "23514", ConstraintName: "products_stock_check"}, store.ErrNegativeStock, false},
		{"bad uuid", &pgconn.PgError{Code: "22P02"}, store.ErrNotFound, false},
		{"serialization", &pgconn.PgError{Code: "40001"}, store.ErrConflict, true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, store.ErrConflict, true},
		{"other check", &pgconn.PgError{Code: "23514", ConstraintName: "products_price_check"}, nil, true},
		{"network", errors.New("conn reset"), nil, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := mapErr("op", c.in)
			if c.want != nil && !errors.Is(got, c.want) {
				t.Fatalf("want %v, got %v", c.want, got)
			}
			if c.in == nil && got != nil {
				t.Fatalf("want nil, got %v", got)
			}
			if store.IsInfra(got) != c.infra {
				t.Fatalf("infra=%v, got %v", c.infra, got)
			}
		})
	}
}
