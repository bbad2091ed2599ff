package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/ariefcatur/go-clothing-rental/internal/store"
)

var (
	ErrDuplicateEmail     = errors.New("identity: email already registered")
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
	ErrInvalidInput       = errors.New("identity: invalid input")
	ErrUserNotFound       = errors.New("identity: user not found")
)

// validate is safe for concurrent use and caches struct metadata.
var validate = validator.New()

// RegisterInput is the registration form. Password has no length rule beyond
// the 72 bytes bcrypt can hash.
type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Service struct {
	Store  store.Store
	Logger *logrus.Logger
	Cost   int // bcrypt cost, 0 = bcrypt.DefaultCost
	Now    func() time.Time
}

func NewService(st store.Store, logger *logrus.Logger, cost int) *Service {
	return &Service{Store: st, Logger: logger, Cost: cost}
}

// NormalizeEmail is the one canonical form used for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashPassword hashes the plain text password using bcrypt.
func HashPassword(plain string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CompareHashAndPassword is false for a mismatch and for a digest that is not bcrypt.
func CompareHashAndPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// Register stores a new user. The unique email index turns a lost check-then-insert
// race into ErrDuplicateEmail as well.
func (s *Service) Register(ctx context.Context, in RegisterInput) (store.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = NormalizeEmail(in.Email)
	if err := validate.Struct(in); err != nil {
		return store.User{}, fmt.Errorf("%w: %s", ErrInvalidInput, describe(err))
	}

	if _, err := s.Store.UserByEmail(ctx, in.Email); err == nil {
		return store.User{}, ErrDuplicateEmail
	} else if !errors.Is(err, store.ErrNotFound) {
		return store.User{}, err
	}

	hash, err := HashPassword(in.Password, s.Cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return store.User{}, fmt.Errorf("%w: password must be at most 72 bytes", ErrInvalidInput)
	}
	if err != nil {
		return store.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := store.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.Store.InsertUser(ctx, &u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return store.User{}, ErrDuplicateEmail
		}
		return store.User{}, err
	}
	s.log().WithFields(logrus.Fields{"user_id": u.ID, "email": u.Email}).Info("user registered")
	return u, nil
}

// Authenticate fails with the same ErrInvalidCredentials for an unknown email and a wrong password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (store.User, error) {
	u, err := s.Store.UserByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return store.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return store.User{}, err
	}
	if !CompareHashAndPassword(u.PasswordHash, password) {
		return store.User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) User(ctx context.Context, id store.UserID) (store.User, error) {
	u, err := s.Store.UserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.User{}, ErrUserNotFound
	}
	return u, err
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) log() *logrus.Logger {
	if s.Logger == nil {
		return logrus.StandardLogger()
	}
	return s.Logger
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, strings.ToLower(fe.Field())+" is required")
		case "email":
			parts = append(parts, "email must be a valid email")
		default:
			parts = append(parts, strings.ToLower(fe.Field())+" is invalid")
		}
	}
	return strings.Join(parts, ", ")
}
