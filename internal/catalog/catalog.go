package catalog

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/ariefcatur/go-clothing-rental/internal/store"
)

var ErrNotFound = errors.New("catalog: product not found")

// Cache is a product-detail read-through cache. GetProduct also reports the entry's
// generation; InvalidateProduct bumps it, and SetProduct with an older generation is
// dropped, so a read that raced an invalidation cannot put a stale copy back.
// A miss is (zero, gen, false, nil).
type Cache interface {
	GetProduct(ctx context.Context, id store.ProductID) (p store.Product, gen int64, ok bool, err error)
	SetProduct(ctx context.Context, p store.Product, gen int64) error
	InvalidateProduct(ctx context.Context, id store.ProductID) error
}

type Service struct {
	Store         store.Reader
	Cache         Cache // optional
	Logger        *logrus.Logger
	FeaturedLimit int
}

// ListProducts returns every product, or only those whose category equals category exactly.
func (s *Service) ListProducts(ctx context.Context, category string) ([]store.Product, error) {
	return s.Store.ListProducts(ctx, store.ProductFilter{Category: category})
}

// Featured is the home listing: the first FeaturedLimit products in store order.
func (s *Service) Featured(ctx context.Context) ([]store.Product, error) {
	limit := s.FeaturedLimit
	if limit <= 0 {
		limit = 8
	}
	return s.Store.ListProducts(ctx, store.ProductFilter{Limit: limit})
}

// GetProduct treats a malformed id the same as a missing product.
func (s *Service) GetProduct(ctx context.Context, rawID string) (store.Product, error) {
	id, err := store.ParseProductID(rawID)
	if err != nil {
		return store.Product{}, ErrNotFound
	}

	var gen int64
	if s.Cache != nil {
		p, g, ok, err := s.Cache.GetProduct(ctx, id)
		if err != nil {
			s.log().WithError(err).WithField("product_id", id).Warn("catalog cache read failed")
		} else if ok {
			return p, nil
		}
		gen = g
	}

	p, err := s.Store.ProductByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.Product{}, ErrNotFound
	}
	if err != nil {
		return store.Product{}, err
	}

	if s.Cache != nil {
		if err := s.Cache.SetProduct(ctx, p, gen); err != nil {
			s.log().WithError(err).WithField("product_id", id).Warn("catalog cache write failed")
		}
	}
	return p, nil
}

// Invalidate drops the cached copy after its stock changed.
func (s *Service) Invalidate(ctx context.Context, id store.ProductID) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.InvalidateProduct(ctx, id); err != nil {
		s.log().WithError(err).WithField("product_id", id).Warn("catalog cache invalidate failed")
	}
}

func (s *Service) log() *logrus.Logger {
	if s.Logger == nil {
		return logrus.StandardLogger()
	}
	return s.Logger
}
