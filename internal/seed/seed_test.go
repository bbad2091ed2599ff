package seed

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/ariefcatur/go-clothing-rental/internal/identity"
	"github.com/ariefcatur/go-clothing-rental/internal/logx"
	"github.com/ariefcatur/go-clothing-rental/internal/store"
)

func TestRun(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()

	stale := store.User{Name: "Old", Email: "old@example.com", PasswordHash: "x"}
	_ = st.InsertUser(ctx, &stale)

	admin := Admin{Email: "Admin@Rental.com", Password: "admin123"}
	sum, err := Run(ctx, st, admin, bcrypt.MinCost, logx.Discard())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if sum.Products != 8 || sum.Users != 1 {
		t.Fatalf("unexpected summary %+v", sum)
	}

	ps, _ := st.ListProducts(ctx, store.ProductFilter{})
	if len(ps) != 8 || ps[0].Name != "Elegant Evening Gown" || ps[7].Name != "Summer T-Shirt" {
		t.Fatalf("unexpected catalog order: %d products", len(ps))
	}
	if _, err := st.UserByEmail(ctx, "old@example.com"); err == nil {
		t.Fatalf("reset did not clear existing users")
	}

	svc := identity.NewService(st, logx.Discard(), bcrypt.MinCost)
	u, err := svc.Authenticate(ctx, "admin@rental.com", "admin123")
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}
	if u.Role != "admin" || u.PasswordHash == "admin123" {
		t.Fatalf("admin not seeded correctly: %+v", u)
	}
}

func TestSampleProductsValid(t *testing.T) {
	for _, p := range SampleProducts() {
		if p.Price <= 0 || p.Stock < 0 || p.Category == "" || len(p.Sizes) == 0 {
			t.Errorf("invalid sample product %+v", p)
		}
	}
}
