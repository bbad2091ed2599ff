package httpx

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/ariefcatur/go-clothing-rental/internal/activity"
	"github.com/ariefcatur/go-clothing-rental/internal/catalog"
	"github.com/ariefcatur/go-clothing-rental/internal/identity"
	"github.com/ariefcatur/go-clothing-rental/internal/rental"
	"github.com/ariefcatur/go-clothing-rental/internal/session"
)

// FeedReader is satisfied by *activity.RedisSink.
type FeedReader interface {
	Feed(ctx context.Context, userID string, limit int) ([]activity.Entry, error)
}

// StatsReader is satisfied by *activity.RedisSink.
type StatsReader interface {
	ProductStats(ctx context.Context, productID string) (activity.Stats, error)
}

type Handler struct {
	Engine   *rental.Engine
	Identity *identity.Service
	Catalog  *catalog.Service
	Sessions *session.Manager
	Activity FeedReader  // optional
	Stats    StatsReader // optional, adds counters to /product/{id}

	Limiter   RateLimiter // optional, guards /login and /register
	RateMax   int
	FeedLimit int

	CookieSecure bool
	Logger       *logrus.Logger
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.home)
	r.Get("/products", h.listProducts)
	r.Get("/product/{id}", h.productDetail)

	r.Group(func(r chi.Router) {
		r.Use(RateLimit(h.Limiter, h.RateMax))
		r.Post("/register", h.register)
		r.Post("/login", h.login)
	})
	r.Post("/logout", h.logout)

	r.With(h.requireAuth("Please login to continue")).Get("/me", h.me)
	r.With(h.requireAuth("Please login to rent items")).Post("/rent/{product_id}", h.rent)
	r.With(h.requireAuth("Please login to view your rentals")).Get("/my-rentals", h.myRentals)
	r.With(h.requireAuth("Please login to return items")).Post("/return/{rental_id}", h.returnRental)
	r.With(h.requireAuth("Please login to view your activity")).Get("/my-activity", h.myActivity)
}

func (h *Handler) log() *logrus.Logger {
	if h.Logger == nil {
		return logrus.StandardLogger()
	}
	return h.Logger
}
