package session

import (
	"context"
	"encoding/json"
	"time"
)

// StorageKeyUser is the persisted-state key for the cached user record.
const StorageKeyUser = "thappy_user"

// UserStore persists the authenticated user's cached profile. Stored JSON
// that fails to decode reads as "no user", never as an error.
type UserStore struct {
	store  Store
	logger Logger
	now    func() time.Time
}

// NewUserStore returns a UserStore over the given persistence scope.
func NewUserStore(store Store) *UserStore {
	return &UserStore{store: store, logger: defLogger{}, now: time.Now}
}

// WithLogger overrides the store's logger.
func (us *UserStore) WithLogger(logger Logger) *UserStore {
	if logger != nil {
		us.logger = logger
	}
	return us
}

// Get returns the cached user, if any.
func (us *UserStore) Get(ctx context.Context) (*User, bool) {
	raw, ok := us.store.Get(ctx, StorageKeyUser)
	if !ok {
		return nil, false
	}

	user := &User{}
	if err := json.Unmarshal([]byte(raw), user); err != nil {
		us.logger.Debug("user store holds undecodable JSON, treating as absent: %v", err)
		return nil, false
	}

	return user, true
}

// Set caches the user record.
func (us *UserStore) Set(ctx context.Context, user *User) {
	if user == nil {
		return
	}

	raw, err := json.Marshal(user)
	if err != nil {
		us.logger.Error("user store failed to encode user: %v", err)
		return
	}

	us.store.Set(ctx, StorageKeyUser, string(raw))
}

// Remove deletes the cached user record.
func (us *UserStore) Remove(ctx context.Context) {
	us.store.Remove(ctx, StorageKeyUser)
}

// Update merges partial fields into the stored user and persists the
// result. The second return is false when no user is stored.
func (us *UserStore) Update(ctx context.Context, update UserUpdate) (*User, bool) {
	user, ok := us.Get(ctx)
	if !ok {
		return nil, false
	}

	update.Apply(user, us.now())
	us.Set(ctx, user)
	return user, true
}
