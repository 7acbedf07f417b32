package session

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// StorageKeyToken is the persisted-state key for the bearer token.
const StorageKeyToken = "thappy_token"

// TokenStore persists the opaque bearer token and reads its expiry claim.
// The token is never verified client-side; only the exp claim is decoded,
// and any decode failure reads as "invalid", never as an error.
type TokenStore struct {
	store Store
	now   func() time.Time
}

// NewTokenStore returns a TokenStore over the given persistence scope.
func NewTokenStore(store Store) *TokenStore {
	return &TokenStore{store: store, now: time.Now}
}

// WithClock injects a custom clock (useful for tests).
func (ts *TokenStore) WithClock(now func() time.Time) *TokenStore {
	if now != nil {
		ts.now = now
	}
	return ts
}

// Get returns the persisted token, if any.
func (ts *TokenStore) Get(ctx context.Context) (string, bool) {
	return ts.store.Get(ctx, StorageKeyToken)
}

// Set persists the token for the lifetime of the storage scope.
func (ts *TokenStore) Set(ctx context.Context, token string) {
	ts.store.Set(ctx, StorageKeyToken, token)
}

// Remove deletes the persisted token.
func (ts *TokenStore) Remove(ctx context.Context) {
	ts.store.Remove(ctx, StorageKeyToken)
}

// IsValid reports whether the token decodes and its expiry is strictly in
// the future. Malformed tokens are invalid.
func (ts *TokenStore) IsValid(token string) bool {
	expiry, ok := ts.Expiry(token)
	if !ok {
		return false
	}
	return ts.now().Before(expiry)
}

// Expiry returns the token's expiry claim. The second return is false when
// the token is malformed or carries no expiry.
func (ts *TokenStore) Expiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}

	return exp.Time, true
}
