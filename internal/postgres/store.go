package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-clothing-rental/internal/store"
)

const (
	userColumns    = `id::text, name, email, password_hash, role, created_at`
	productColumns = `id::text, name, description, price, category, stock, sizes, color, material, brand, image_url, created_at`
	rentalColumns  = `id::text, user_id::text, product_id::text, rental_date, return_date, status`
)

// Store implements store.Store on top of a pgx pool.
type Store struct{ DB *pgxpool.Pool }

var _ store.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store { return &Store{DB: pool} }

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// mapErr translates driver errors into store errors; anything unknown goes to the infra channel.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return store.ErrDuplicate
		case "23503": // foreign_key_violation, mis. user hilang setelah re-seed
			return store.ErrNotFound
		case "23514": // check_violation
			if pgErr.ConstraintName == "products_stock_check" {
				return store.ErrNegativeStock
			}
		case "22P02": // invalid_text_representation, mis. uuid rusak
			return store.ErrInvalidID
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return store.Infra(op, fmt.Errorf("%w: %s", store.ErrConflict, pgErr.Message))
		}
	}
	return store.Infra(op, err)
}

func scanUser(row pgx.Row) (store.User, error) {
	var u store.User
	var id string
	if err := row.Scan(&id, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		return store.User{}, err
	}
	u.ID = store.UserID(id)
	return u, nil
}

func scanProduct(row pgx.Row) (store.Product, error) {
	var p store.Product
	var id string
	if err := row.Scan(&id, &p.Name, &p.Description, &p.Price, &p.Category, &p.Stock, &p.Sizes,
		&p.Color, &p.Material, &p.Brand, &p.ImageURL, &p.CreatedAt); err != nil {
		return store.Product{}, err
	}
	p.ID = store.ProductID(id)
	return p, nil
}

func scanRental(row pgx.Row) (store.Rental, error) {
	var r store.Rental
	var id, uid, pid, status string
	if err := row.Scan(&id, &uid, &pid, &r.RentalDate, &r.ReturnDate, &status); err != nil {
		return store.Rental{}, err
	}
	r.ID, r.UserID, r.ProductID, r.Status = store.RentalID(id), store.UserID(uid), store.ProductID(pid), store.RentalStatus(status)
	return r, nil
}

func (s *Store) UserByID(ctx context.Context, id store.UserID) (store.User, error) {
	u, err := scanUser(s.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, string(id)))
	return u, mapErr("user_by_id", err)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (store.User, error) {
	u, err := scanUser(s.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email))
	return u, mapErr("user_by_email", err)
}

func (s *Store) ProductByID(ctx context.Context, id store.ProductID) (store.Product, error) {
	p, err := scanProduct(s.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, string(id)))
	return p, mapErr("product_by_id", err)
}

func (s *Store) ListProducts(ctx context.Context, f store.ProductFilter) ([]store.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products`
	args := []any{}
	if f.Category != "" {
		args = append(args, f.Category)
		q += ` WHERE category = $1`
	}
	q += ` ORDER BY created_at`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := s.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, mapErr("list_products", err)
	}
	defer rows.Close()

	out := []store.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, mapErr("list_products", err)
		}
		out = append(out, p)
	}
	return out, mapErr("list_products", rows.Err())
}

func (s *Store) RentalsByUser(ctx context.Context, id store.UserID) ([]store.Rental, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+rentalColumns+` FROM rentals WHERE user_id=$1 ORDER BY rental_date`, string(id))
	if err != nil {
		return nil, mapErr("rentals_by_user", err)
	}
	defer rows.Close()

	out := []store.Rental{}
	for rows.Next() {
		r, err := scanRental(rows)
		if err != nil {
			return nil, mapErr("rentals_by_user", err)
		}
		out = append(out, r)
	}
	return out, mapErr("rentals_by_user", rows.Err())
}

func (s *Store) InsertUser(ctx context.Context, u *store.User) error {
	if u.ID == "" {
		u.ID = store.NewUserID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := s.DB.Exec(ctx, `
		INSERT INTO users(id, name, email, password_hash, role, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		string(u.ID), u.Name, u.Email, u.PasswordHash, u.Role, u.CreatedAt)
	return mapErr("insert_user", err)
}

func (s *Store) InsertProduct(ctx context.Context, p *store.Product) error {
	if p.ID == "" {
		p.ID = store.NewProductID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	sizes := p.Sizes
	if sizes == nil {
		sizes = []string{}
	}
	_, err := s.DB.Exec(ctx, `
		INSERT INTO products(id, name, description, price, category, stock, sizes, color, material, brand, image_url, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		string(p.ID), p.Name, p.Description, p.Price, p.Category, p.Stock, sizes,
		p.Color, p.Material, p.Brand, p.ImageURL, p.CreatedAt)
	return mapErr("insert_product", err)
}

func (s *Store) Reset(ctx context.Context) error {
	_, err := s.DB.Exec(ctx, `TRUNCATE rentals, products, users`)
	return mapErr("reset", err)
}

func (s *Store) Ping(ctx context.Context) error {
	return mapErr("ping", s.DB.Ping(ctx))
}

func (s *Store) Close() { s.DB.Close() }

// WithTx runs fn in a READ COMMITTED transaction; row locks taken through tx
// give the isolation the rental flow needs.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return mapErr("begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &pgTx{q: tx}); err != nil {
		return err // rollback via defer
	}
	if err := tx.Commit(ctx); err != nil {
		return mapErr("commit", err)
	}
	return nil
}

type pgTx struct{ q querier }

func (t *pgTx) LockProduct(ctx context.Context, id store.ProductID) (store.Product, error) {
	p, err := scanProduct(t.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1 FOR UPDATE`, string(id)))
	return p, mapErr("lock_product", err)
}

func (t *pgTx) LockRental(ctx context.Context, id store.RentalID, owner store.UserID) (store.Rental, error) {
	r, err := scanRental(t.q.QueryRow(ctx,
		`SELECT `+rentalColumns+` FROM rentals WHERE id=$1 AND user_id=$2 FOR UPDATE`, string(id), string(owner)))
	return r, mapErr("lock_rental", err)
}

func (t *pgTx) InsertRental(ctx context.Context, r *store.Rental) error {
	if r.ID == "" {
		r.ID = store.NewRentalID()
	}
	_, err := t.q.Exec(ctx, `
		INSERT INTO rentals(id, user_id, product_id, rental_date, return_date, status)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		string(r.ID), string(r.UserID), string(r.ProductID), r.RentalDate, r.ReturnDate, string(r.Status))
	return mapErr("insert_rental", err)
}

func (t *pgTx) AddStock(ctx context.Context, id store.ProductID, delta int) error {
	ct, err := t.q.Exec(ctx, `UPDATE products SET stock = stock + $2 WHERE id=$1 AND stock + $2 >= 0`, string(id), delta)
	if err != nil {
		return mapErr("add_stock", err)
	}
	if ct.RowsAffected() != 1 {
		var exists bool
		if err := t.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id=$1)`, string(id)).Scan(&exists); err != nil {
			return mapErr("add_stock", err)
		}
		if !exists {
			return store.ErrNotFound
		}
		return store.ErrNegativeStock
	}
	return nil
}

func (t *pgTx) MarkReturned(ctx context.Context, id store.RentalID, at time.Time) error {
	ct, err := t.q.Exec(ctx, `
		UPDATE rentals SET status='returned', return_date=$2
		WHERE id=$1 AND status='active'`, string(id), at)
	if err != nil {
		return mapErr("mark_returned", err)
	}
	if ct.RowsAffected() != 1 {
		return store.ErrNotFound
	}
	return nil
}
