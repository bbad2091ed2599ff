package store

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Store. Transactions run one at a time and stage their
// writes, which are applied only when fn returns nil.
type Memory struct {
	txMu sync.Mutex // serializes WithTx scopes

	mu       sync.RWMutex
	users    map[UserID]User
	products map[ProductID]Product
	rentals  map[RentalID]Rental
	// urutan insert, dipakai sebagai "native order" untuk scan
	userOrder    []UserID
	productOrder []ProductID
	rentalOrder  []RentalID

	faultMu sync.Mutex
	faults  map[string]error
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		users:    map[UserID]User{},
		products: map[ProductID]Product{},
		rentals:  map[RentalID]Rental{},
		faults:   map[string]error{},
	}
}

// FailOn makes the next call of op return err wrapped as an InfraError.
// Ops: lock_product, lock_rental, insert_rental, add_stock, mark_returned, commit.
func (m *Memory) FailOn(op string, err error) {
	m.faultMu.Lock()
	defer m.faultMu.Unlock()
	m.faults[op] = err
}

func (m *Memory) fault(op string) error {
	m.faultMu.Lock()
	defer m.faultMu.Unlock()
	err, ok := m.faults[op]
	if !ok {
		return nil
	}
	delete(m.faults, op)
	return Infra(op, err)
}

func copyProduct(p Product) Product {
	if p.Sizes != nil {
		p.Sizes = append([]string(nil), p.Sizes...)
	}
	return p
}

func copyRental(r Rental) Rental {
	if r.ReturnDate != nil {
		t := *r.ReturnDate
		r.ReturnDate = &t
	}
	return r
}

func (m *Memory) UserByID(_ context.Context, id UserID) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *Memory) UserByEmail(_ context.Context, email string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.userOrder {
		if u := m.users[id]; u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (m *Memory) ProductByID(_ context.Context, id ProductID) (Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return copyProduct(p), nil
}

func (m *Memory) ListProducts(_ context.Context, f ProductFilter) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Product{}
	for _, id := range m.productOrder {
		p := m.products[id]
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		out = append(out, copyProduct(p))
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) RentalsByUser(_ context.Context, id UserID) ([]Rental, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Rental{}
	for _, rid := range m.rentalOrder {
		if r := m.rentals[rid]; r.UserID == id {
			out = append(out, copyRental(r))
		}
	}
	return out, nil
}

func (m *Memory) InsertUser(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrDuplicate
		}
	}
	if u.ID == "" {
		u.ID = NewUserID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	m.users[u.ID] = *u
	m.userOrder = append(m.userOrder, u.ID)
	return nil
}

func (m *Memory) InsertProduct(_ context.Context, p *Product) error {
	if p.Stock < 0 {
		return ErrNegativeStock
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = NewProductID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	m.products[p.ID] = copyProduct(*p)
	m.productOrder = append(m.productOrder, p.ID)
	return nil
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = map[UserID]User{}
	m.products = map[ProductID]Product{}
	m.rentals = map[RentalID]Rental{}
	m.userOrder, m.productOrder, m.rentalOrder = nil, nil, nil
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() {}

func (m *Memory) WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	tx := &memTx{
		m:        m,
		products: map[ProductID]Product{},
		rentals:  map[RentalID]Rental{},
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return Infra("commit", err)
	}
	if err := m.fault("commit"); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range tx.products {
		m.products[id] = p
	}
	for _, id := range tx.rentalInserts {
		m.rentalOrder = append(m.rentalOrder, id)
	}
	for id, r := range tx.rentals {
		m.rentals[id] = r
	}
	return nil
}

// memTx stages writes; reads see the staged version first.
type memTx struct {
	m             *Memory
	products      map[ProductID]Product
	rentals       map[RentalID]Rental
	rentalInserts []RentalID
}

func (t *memTx) product(id ProductID) (Product, bool) {
	if p, ok := t.products[id]; ok {
		return p, true
	}
	t.m.mu.RLock()
	defer t.m.mu.RUnlock()
	p, ok := t.m.products[id]
	return copyProduct(p), ok
}

func (t *memTx) rental(id RentalID) (Rental, bool) {
	if r, ok := t.rentals[id]; ok {
		return r, true
	}
	t.m.mu.RLock()
	defer t.m.mu.RUnlock()
	r, ok := t.m.rentals[id]
	return copyRental(r), ok
}

func (t *memTx) LockProduct(_ context.Context, id ProductID) (Product, error) {
	if err := t.m.fault("lock_product"); err != nil {
		return Product{}, err
	}
	p, ok := t.product(id)
	if !ok {
		return Product{}, ErrNotFound
	}
	return copyProduct(p), nil
}

func (t *memTx) LockRental(_ context.Context, id RentalID, owner UserID) (Rental, error) {
	if err := t.m.fault("lock_rental"); err != nil {
		return Rental{}, err
	}
	r, ok := t.rental(id)
	if !ok || r.UserID != owner {
		return Rental{}, ErrNotFound
	}
	return copyRental(r), nil
}

func (t *memTx) InsertRental(_ context.Context, r *Rental) error {
	if err := t.m.fault("insert_rental"); err != nil {
		return err
	}
	t.m.mu.RLock()
	_, known := t.m.users[r.UserID]
	t.m.mu.RUnlock()
	if !known {
		return ErrNotFound
	}
	if r.ID == "" {
		r.ID = NewRentalID()
	}
	if _, ok := t.rental(r.ID); ok {
		return ErrDuplicate
	}
	t.rentals[r.ID] = copyRental(*r)
	t.rentalInserts = append(t.rentalInserts, r.ID)
	return nil
}

func (t *memTx) AddStock(_ context.Context, id ProductID, delta int) error {
	if err := t.m.fault("add_stock"); err != nil {
		return err
	}
	p, ok := t.product(id)
	if !ok {
		return ErrNotFound
	}
	if p.Stock+delta < 0 {
		return ErrNegativeStock
	}
	p.Stock += delta
	t.products[id] = p
	return nil
}

func (t *memTx) MarkReturned(_ context.Context, id RentalID, at time.Time) error {
	if err := t.m.fault("mark_returned"); err != nil {
		return err
	}
	r, ok := t.rental(id)
	if !ok || r.Status != RentalActive {
		return ErrNotFound
	}
	r.Status = RentalReturned
	r.ReturnDate = &at
	t.rentals[id] = r
	return nil
}
