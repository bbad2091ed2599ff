package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-clothing-rental/internal/catalog"
)

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Catalog.Featured(ctx)
	if err != nil {
		h.internalError(w, r, err, "Error loading products", "/")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": ps})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	category := r.URL.Query().Get("category")
	ps, err := h.Catalog.ListProducts(ctx, category)
	if err != nil {
		h.internalError(w, r, err, "Error loading products", "/")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": ps, "category": category})
}

func (h *Handler) productDetail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Catalog.GetProduct(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Product not found", "/products")
		return
	}
	if err != nil {
		h.internalError(w, r, err, "Error loading product details", "/products")
		return
	}
	out := map[string]any{"product": p}
	if h.Stats != nil {
		st, err := h.Stats.ProductStats(ctx, string(p.ID))
		if err != nil {
			h.log().WithError(err).WithField("product_id", p.ID).Warn("product stats unavailable")
		} else {
			out["stats"] = st
		}
	}
	writeJSON(w, http.StatusOK, out)
}
