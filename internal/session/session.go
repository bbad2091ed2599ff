package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidSession = errors.New("session: invalid or expired")

// Store keeps track of live session ids; *redisx.SessionStore satisfies it.
type Store interface {
	Save(ctx context.Context, sid, userID string, ttl time.Duration) error
	Exists(ctx context.Context, sid string) (bool, error)
	Delete(ctx context.Context, sid string) error
}

type Claims struct {
	UserID    string `json:"uid"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Manager issues HS256 tokens carried in the session cookie.
type Manager struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
	Store  Store // optional; nil means tokens are valid until they expire
}

func NewManager(secret string, ttl time.Duration, st Store) *Manager {
	return &Manager{Secret: []byte(secret), TTL: ttl, Issuer: "clothing-rental", Store: st}
}

// Issue signs a token for userID and records its session id.
func (m *Manager) Issue(ctx context.Context, userID string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(m.TTL)
	claims := &Claims{
		UserID:    userID,
		SessionID: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	if m.Store != nil {
		if err := m.Store.Save(ctx, claims.SessionID, userID, m.TTL); err != nil {
			return "", time.Time{}, fmt.Errorf("save session: %w", err)
		}
	}
	return token, exp, nil
}

// Parse validates the signature, expiry and, with a Store, that the session was not revoked.
func (m *Manager) Parse(ctx context.Context, token string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.Secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, ErrInvalidSession
	}
	if claims.UserID == "" || claims.SessionID == "" {
		return nil, ErrInvalidSession
	}
	if m.Store != nil {
		ok, err := m.Store.Exists(ctx, claims.SessionID)
		if err != nil {
			return nil, fmt.Errorf("check session: %w", err)
		}
		if !ok {
			return nil, ErrInvalidSession
		}
	}
	return claims, nil
}

// Revoke ends the session behind token. Invalid tokens are ignored.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if m.Store == nil {
		return nil
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return m.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || claims.SessionID == "" {
		return nil
	}
	return m.Store.Delete(ctx, claims.SessionID)
}
