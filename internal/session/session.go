package session

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrSessionExpired = errors.New("session expired or revoked")
)

// Session is the authenticated identity carried by a valid token.
type Session struct {
	TokenID  string `json:"token_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Store tracks which token IDs are live. Validation refreshes the TTL, so a
// session stays alive as long as it keeps being used.
type Store interface {
	Put(ctx context.Context, id string, ttl time.Duration) error
	Touch(ctx context.Context, id string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, id string) error
}

// Manager issues and validates signed session tokens. The JWT carries the
// identity; the store decides whether the session is still live, which makes
// revocation and the sliding expiry work.
type Manager struct {
	secret []byte
	ttl    time.Duration
	store  Store
	now    func() time.Time
}

// NewManager creates a session manager
func NewManager(secret string, ttl time.Duration, store Store) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		store:  store,
		now:    time.Now,
	}
}

// Issue creates a token for the user and registers its session.
func (m *Manager) Issue(ctx context.Context, username, role string) (string, error) {
	id := uuid.NewString()
	// No exp claim: the store's TTL is the sole liveness authority, so the
	// sliding expiry keeps an active session alive past the initial window.
	claims := jwt.MapClaims{
		"jti":  id,
		"sub":  username,
		"role": role,
		"iat":  m.now().Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", err
	}
	if err := m.store.Put(ctx, id, m.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Validate checks the token signature and that the session is still live,
// extending its TTL on success.
func (m *Manager) Validate(ctx context.Context, tokenString string) (*Session, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	id, _ := claims["jti"].(string)
	username, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if id == "" || username == "" {
		return nil, ErrInvalidToken
	}

	alive, err := m.store.Touch(ctx, id, m.ttl)
	if err != nil {
		return nil, err
	}
	if !alive {
		return nil, ErrSessionExpired
	}

	return &Session{TokenID: id, Username: username, Role: role}, nil
}

// Revoke ends the session behind a token. An already dead session is fine.
func (m *Manager) Revoke(ctx context.Context, tokenString string) error {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ErrInvalidToken
	}
	id, _ := claims["jti"].(string)
	if id == "" {
		return ErrInvalidToken
	}
	return m.store.Delete(ctx, id)
}
