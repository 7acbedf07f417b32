package session

import (
	"context"
	"sync"
	"time"
)

// ExpiryLeadTime is how long before the token's own expiry the expiry-check
// task fires.
const ExpiryLeadTime = time.Minute

// minExpiryDelay is the floor applied when the token is already inside the
// lead window.
const minExpiryDelay = time.Second

// Evaluator derives authentication validity from the token and user stores.
type Evaluator struct {
	tokens    *TokenStore
	users     *UserStore
	scheduler Scheduler
	now       func() time.Time

	// mu makes ClearAuthData atomic from the perspective of IsAuthenticated:
	// no caller observes the token removed while the user is still present.
	mu sync.Mutex
}

// EvaluatorOption customizes Evaluator construction.
type EvaluatorOption func(*Evaluator)

// WithEvaluatorScheduler overrides the scheduler used for expiry tasks.
func WithEvaluatorScheduler(s Scheduler) EvaluatorOption {
	return func(e *Evaluator) {
		if s != nil {
			e.scheduler = s
		}
	}
}

// WithEvaluatorClock injects a custom clock (useful for tests).
func WithEvaluatorClock(now func() time.Time) EvaluatorOption {
	return func(e *Evaluator) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEvaluator returns an Evaluator over the given stores.
func NewEvaluator(tokens *TokenStore, users *UserStore, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		tokens:    tokens,
		users:     users,
		scheduler: NewScheduler(),
		now:       time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	return e
}

// IsAuthenticated reports whether a token and a user are both present and
// the token's expiry is strictly in the future. A partial write (token
// without user, or the reverse) reads as not authenticated.
func (e *Evaluator) IsAuthenticated(ctx context.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isAuthenticated(ctx)
}

func (e *Evaluator) isAuthenticated(ctx context.Context) bool {
	token, ok := e.tokens.Get(ctx)
	if !ok {
		return false
	}

	if _, ok := e.users.Get(ctx); !ok {
		return false
	}

	return e.tokens.IsValid(token)
}

// HasRole reports whether the stored user carries the given role.
func (e *Evaluator) HasRole(ctx context.Context, role UserRole) bool {
	user, ok := e.users.Get(ctx)
	if !ok {
		return false
	}
	return user.Role == role
}

// ClearAuthData removes both token and user. Callers never observe one
// cleared without the other.
func (e *Evaluator) ClearAuthData(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tokens.Remove(ctx)
	e.users.Remove(ctx)
}

// SetupTokenExpiryCheck schedules onExpiry to fire ExpiryLeadTime before
// the persisted token expires, flooring at minExpiryDelay when the token is
// already inside that window. With no token or no decodable expiry it is a
// no-op returning a no-op canceller.
func (e *Evaluator) SetupTokenExpiryCheck(ctx context.Context, onExpiry func()) CancelFunc {
	token, ok := e.tokens.Get(ctx)
	if !ok {
		return nopCancel
	}

	expiry, ok := e.tokens.Expiry(token)
	if !ok {
		return nopCancel
	}

	delay := expiry.Sub(e.now()) - ExpiryLeadTime
	if delay < minExpiryDelay {
		delay = minExpiryDelay
	}

	return e.scheduler.Schedule(delay, onExpiry)
}
