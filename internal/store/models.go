package store

import (
	"time"

	"github.com/google/uuid"
)

// Identifier disimpan sebagai uuid string; tipe terpisah supaya user/product/rental tidak ketuker.
type (
	UserID    string
	ProductID string
	RentalID  string
)

func NewUserID() UserID       { return UserID(uuid.NewString()) }
func NewProductID() ProductID { return ProductID(uuid.NewString()) }
func NewRentalID() RentalID   { return RentalID(uuid.NewString()) }

func parseID(s string) (string, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", ErrInvalidID
	}
	return u.String(), nil
}

// ParseUserID validates s as a store identifier. Malformed input yields ErrInvalidID.
func ParseUserID(s string) (UserID, error) {
	id, err := parseID(s)
	return UserID(id), err
}

func ParseProductID(s string) (ProductID, error) {
	id, err := parseID(s)
	return ProductID(id), err
}

func ParseRentalID(s string) (RentalID, error) {
	id, err := parseID(s)
	return RentalID(id), err
}

type User struct {
	ID           UserID    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type Product struct {
	ID          ProductID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int       `json:"price"`
	Category    string    `json:"category"`
	Stock       int       `json:"stock"`
	Sizes       []string  `json:"size"`
	Color       string    `json:"color"`
	Material    string    `json:"material"`
	Brand       string    `json:"brand"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
}

type Rental struct {
	ID         RentalID     `json:"id"`
	UserID     UserID       `json:"user_id"`
	ProductID  ProductID    `json:"product_id"`
	RentalDate time.Time    `json:"rental_date"`
	ReturnDate *time.Time   `json:"return_date"`
	Status     RentalStatus `json:"status"`
}

// ProductFilter: Category kosong = semua kategori, Limit <= 0 = tanpa batas.
type ProductFilter struct {
	Category string
	Limit    int
}
