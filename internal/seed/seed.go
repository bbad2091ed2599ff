package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ariefcatur/go-clothing-rental/internal/identity"
	"github.com/ariefcatur/go-clothing-rental/internal/store"
)

type Admin struct {
	Email    string
	Password string
}

type Summary struct {
	Products int
	Users    int
	AdminID  store.UserID
}

func (s Summary) String() string {
	return fmt.Sprintf("seeded %d products and %d users (admin %s)", s.Products, s.Users, s.AdminID)
}

// Run wipes users, products and rentals, then loads the sample catalog and one admin.
func Run(ctx context.Context, st store.Store, admin Admin, bcryptCost int, logger *logrus.Logger) (Summary, error) {
	if err := st.Reset(ctx); err != nil {
		return Summary{}, fmt.Errorf("reset: %w", err)
	}

	// created_at dibuat berurutan supaya urutan katalog stabil
	base := time.Now().UTC()
	var sum Summary
	for i, p := range SampleProducts() {
		p.CreatedAt = base.Add(time.Duration(i) * time.Millisecond)
		if err := st.InsertProduct(ctx, &p); err != nil {
			return sum, fmt.Errorf("insert product %q: %w", p.Name, err)
		}
		sum.Products++
	}

	hash, err := identity.HashPassword(admin.Password, bcryptCost)
	if err != nil {
		return sum, fmt.Errorf("hash admin password: %w", err)
	}
	u := store.User{
		Name:         "Admin User",
		Email:        identity.NormalizeEmail(admin.Email),
		PasswordHash: hash,
		Role:         "admin",
		CreatedAt:    base,
	}
	if err := st.InsertUser(ctx, &u); err != nil {
		return sum, fmt.Errorf("insert admin: %w", err)
	}
	sum.Users++
	sum.AdminID = u.ID

	if logger != nil {
		logger.WithFields(logrus.Fields{"products": sum.Products, "users": sum.Users}).Info("seed complete")
	}
	return sum, nil
}
