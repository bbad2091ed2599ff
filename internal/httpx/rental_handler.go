package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-clothing-rental/internal/activity"
	"github.com/ariefcatur/go-clothing-rental/internal/rental"
	"github.com/ariefcatur/go-clothing-rental/internal/store"
)

func (h *Handler) rent(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "product_id")
	detail := "/product/" + raw

	productID, err := store.ParseProductID(raw)
	if err != nil {
		writeError(w, http.StatusNotFound, "Product not found", "/products")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rent, err := h.Engine.CreateRental(ctx, currentUser(ctx), productID)
	switch {
	case err == nil:
	case errors.Is(err, rental.ErrNotFound):
		writeError(w, http.StatusNotFound, "Product not found", "/products")
		return
	case errors.Is(err, rental.ErrOutOfStock):
		writeError(w, http.StatusConflict, "Item is out of stock", detail)
		return
	case errors.Is(err, rental.ErrUnknownUser):
		h.clearSession(w)
		writeError(w, http.StatusUnauthorized, "Please login to rent items", "/login")
		return
	default:
		h.internalError(w, r, err, "An error occurred while processing your rental. Please try again.", detail)
		return
	}

	h.Catalog.Invalidate(ctx, productID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "Item rented successfully!",
		"redirect": detail,
		"rental":   rent,
	})
}

func (h *Handler) returnRental(w http.ResponseWriter, r *http.Request) {
	rentalID, err := store.ParseRentalID(chi.URLParam(r, "rental_id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Rental not found", "/my-rentals")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rent, err := h.Engine.ReturnRental(ctx, currentUser(ctx), rentalID)
	switch {
	case err == nil:
	case errors.Is(err, rental.ErrNotFound):
		writeError(w, http.StatusNotFound, "Rental not found", "/my-rentals")
		return
	case errors.Is(err, rental.ErrAlreadyReturned):
		writeError(w, http.StatusConflict, "This item has already been returned", "/my-rentals")
		return
	default:
		h.internalError(w, r, err, "An error occurred while processing your return. Please try again.", "/my-rentals")
		return
	}

	h.Catalog.Invalidate(ctx, rent.ProductID)
	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Item returned successfully!",
		"redirect": "/my-rentals",
		"rental":   rent,
	})
}

func (h *Handler) myRentals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.Engine.RentalsForUser(ctx, currentUser(ctx))
	if err != nil {
		h.internalError(w, r, err, "Error loading your rentals", "/")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rentals": items})
}

func (h *Handler) myActivity(w http.ResponseWriter, r *http.Request) {
	entries := []activity.Entry{}
	if h.Activity != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		got, err := h.Activity.Feed(ctx, string(currentUser(ctx)), h.FeedLimit)
		if err != nil {
			h.internalError(w, r, err, "Error loading your activity", "/")
			return
		}
		entries = append(entries, got...)
	}
	writeJSON(w, http.StatusOK, map[string]any{"activity": entries})
}
