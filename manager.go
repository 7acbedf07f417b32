package session

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// WatchdogInterval is how often the Manager re-evaluates persisted state
// while authenticated.
const WatchdogInterval = time.Minute

const (
	loginFailedMessage    = "Login failed"
	registerFailedMessage = "Registration failed"
)

// Manager orchestrates login, register, logout, and re-validation against
// the backend and drives the session state machine. Construct one per
// client scope with NewManager and tear it down with Close.
//
// Concurrent Login/Register/CheckAuthStatus calls are not serialized:
// whichever completes last wins in the stores (last write wins). The owning
// UI is expected to disable submission while the session is loading.
type Manager struct {
	api          APIClient
	tokens       *TokenStore
	users        *UserStore
	evaluator    *Evaluator
	scheduler    Scheduler
	notifier     Notifier
	activitySink ActivitySink
	logger       Logger
	now          func() time.Time

	mu             sync.Mutex
	status         Status
	user           *User
	token          string
	errMsg         string
	cancelExpiry   CancelFunc
	cancelWatchdog CancelFunc
	subscribers    map[int]func(Session)
	nextSubID      int
	closed         bool
}

// ManagerOption customizes Manager construction.
type ManagerOption func(*Manager)

// WithLogger overrides the default logger.
func WithLogger(logger Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithNotifier sets the user-visible notification sink.
func WithNotifier(n Notifier) ManagerOption {
	return func(m *Manager) {
		m.notifier = normalizeNotifier(n)
	}
}

// WithActivitySink sets the ActivitySink used to publish lifecycle events.
func WithActivitySink(sink ActivitySink) ManagerOption {
	return func(m *Manager) {
		m.activitySink = normalizeActivitySink(sink)
	}
}

// WithScheduler overrides the wall-clock scheduler (useful for tests).
func WithScheduler(s Scheduler) ManagerOption {
	return func(m *Manager) {
		if s != nil {
			m.scheduler = s
		}
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager returns a Manager over the given backend client and
// persistence scope. A nil store falls back to an in-memory store.
// The initial status is StatusLoading until Start or CheckAuthStatus
// resolves the persisted state.
func NewManager(api APIClient, store Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		api:            api,
		scheduler:      NewScheduler(),
		notifier:       noopNotifier{},
		activitySink:   noopActivitySink{},
		logger:         defLogger{},
		now:            time.Now,
		status:         StatusLoading,
		cancelExpiry:   nopCancel,
		cancelWatchdog: nopCancel,
		subscribers:    map[int]func(Session){},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	if store == nil {
		store = NewMemoryStore()
	}

	m.tokens = NewTokenStore(store).WithClock(m.now)
	m.users = NewUserStore(store).WithLogger(m.logger)
	m.evaluator = NewEvaluator(
		m.tokens,
		m.users,
		WithEvaluatorScheduler(m.scheduler),
		WithEvaluatorClock(m.now),
	)

	return m
}

// Evaluator exposes the session evaluator, e.g. for an InactivityMonitor
// or role-gated UI.
func (m *Manager) Evaluator() *Evaluator {
	return m.evaluator
}

// Session returns a snapshot of the current session state.
func (m *Manager) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// OnChange registers a subscriber invoked with a snapshot after every state
// change. The returned CancelFunc removes the subscription.
func (m *Manager) OnChange(fn func(Session)) CancelFunc {
	if fn == nil {
		return nopCancel
	}

	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subscribers, id)
		m.mu.Unlock()
	}
}

// Start resolves the persisted state. Call once at startup.
func (m *Manager) Start(ctx context.Context) {
	m.CheckAuthStatus(ctx)
}

// Login authenticates against the backend, persists token and user, and
// transitions to Authenticated. On failure the session records the error
// and the original error is returned so the caller can react; messages
// from non API-originated errors are replaced with a generic one.
func (m *Manager) Login(ctx context.Context, creds Credentials) error {
	if err := m.ensureOpen(); err != nil {
		return err
	}

	m.beginAuth()

	res, err := m.api.Login(ctx, creds)
	if err == nil {
		err = checkAuthResult(res)
	}
	if err != nil {
		m.failAuth(ctx, err, loginFailedMessage, ActivityEventLoginFailure, map[string]any{
			"email": creds.Email,
		})
		return err
	}

	m.completeAuth(ctx, res, ActivityEventLoginSuccess)
	return nil
}

// Register creates an account and enters the authenticated state, symmetric
// to Login.
func (m *Manager) Register(ctx context.Context, reg Registration) error {
	if err := m.ensureOpen(); err != nil {
		return err
	}

	m.beginAuth()

	res, err := m.api.Register(ctx, reg)
	if err == nil {
		err = checkAuthResult(res)
	}
	if err != nil {
		m.failAuth(ctx, err, registerFailedMessage, ActivityEventRegisterFailure, map[string]any{
			"email": reg.Email,
			"role":  reg.Role,
		})
		return err
	}

	m.completeAuth(ctx, res, ActivityEventRegisterSuccess)
	return nil
}

// Logout clears auth data and transitions to LoggedOut. Idempotent.
func (m *Manager) Logout(ctx context.Context) {
	m.evaluator.ClearAuthData(ctx)

	m.mu.Lock()
	wasAuthenticated := m.status == StatusAuthenticated
	userID := m.userIDLocked()
	m.stopTimersLocked()
	m.user = nil
	m.token = ""
	m.errMsg = ""
	m.transitionLocked(StatusLoggedOut)
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.publish(snap)

	if wasAuthenticated {
		m.emit(ctx, ActivityEventLogout, userID, nil)
	}
}

// ClearError clears only the error field.
func (m *Manager) ClearError() {
	m.mu.Lock()
	m.errMsg = ""
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.publish(snap)
}

// UpdateUser persists the user and updates the in-memory copy without
// touching authentication flags.
func (m *Manager) UpdateUser(ctx context.Context, user *User) {
	if user == nil {
		return
	}

	m.users.Set(ctx, user)

	m.mu.Lock()
	m.user = user.Clone()
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.publish(snap)
	m.emit(ctx, ActivityEventUserUpdated, user.ID.String(), nil)
}

// PatchUser merges partial fields into the stored user and mirrors the
// result in memory. Returns ErrNoStoredUser when no user is cached.
func (m *Manager) PatchUser(ctx context.Context, update UserUpdate) (*User, error) {
	user, ok := m.users.Update(ctx, update)
	if !ok {
		return nil, ErrNoStoredUser
	}

	m.mu.Lock()
	m.user = user.Clone()
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.publish(snap)
	m.emit(ctx, ActivityEventUserUpdated, user.ID.String(), nil)
	return user, nil
}

// CheckAuthStatus re-validates the persisted session: locally first, then
// against the backend profile endpoint. It never returns an error; any
// failure degrades to the logged-out state with auth data cleared.
func (m *Manager) CheckAuthStatus(ctx context.Context) {
	if err := m.ensureOpen(); err != nil {
		return
	}

	m.setLoading(true)

	if !m.evaluator.IsAuthenticated(ctx) {
		m.forceLoggedOut()
		return
	}

	user, err := m.api.Profile(ctx)
	if err == nil && user == nil {
		err = ErrMalformedAuthResult
	}
	if err != nil {
		m.logger.Info("stored token rejected during re-validation: %v", err)
		m.evaluator.ClearAuthData(ctx)
		m.forceLoggedOut()
		return
	}

	token, _ := m.tokens.Get(ctx)
	m.enterAuthenticated(ctx, user, token)
}

// Close cancels all scheduled tasks and rejects further lifecycle calls.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopTimersLocked()
	m.closed = true
}

func (m *Manager) ensureOpen() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrManagerClosed
	}
	return nil
}

func (m *Manager) beginAuth() {
	m.mu.Lock()
	m.errMsg = ""
	m.transitionLocked(StatusLoading)
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.publish(snap)
}

// checkAuthResult guards against a backend that reports success without a
// usable token and user.
func checkAuthResult(res *AuthResult) error {
	if res == nil || res.User == nil || res.Token == "" {
		return ErrMalformedAuthResult
	}
	return nil
}

func (m *Manager) failAuth(ctx context.Context, err error, fallback string, event ActivityEventType, metadata map[string]any) {
	// Only backend-originated errors, carrying an HTTP status, surface their
	// message verbatim; network and malformed-response failures get the
	// generic fallback.
	message := fallback
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Message != "" && richErr.Code >= 400 {
		message = richErr.Message
	}

	m.mu.Lock()
	m.user = nil
	m.token = ""
	m.errMsg = message
	m.transitionLocked(StatusError)
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.publish(snap)

	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["error"] = err.Error()
	m.emit(ctx, event, "", metadata)
}

func (m *Manager) completeAuth(ctx context.Context, res *AuthResult, event ActivityEventType) {
	m.tokens.Set(ctx, res.Token)
	m.users.Set(ctx, res.User)
	m.enterAuthenticated(ctx, res.User, res.Token)
	m.emit(ctx, event, res.User.ID.String(), map[string]any{
		"email": res.User.Email,
		"role":  res.User.Role,
	})
}

func (m *Manager) enterAuthenticated(ctx context.Context, user *User, token string) {
	m.mu.Lock()
	m.user = user.Clone()
	m.token = token
	m.errMsg = ""
	m.transitionLocked(StatusAuthenticated)
	m.armExpiryLocked(ctx)
	m.armWatchdogLocked()
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.publish(snap)
}

func (m *Manager) setLoading(loading bool) {
	m.mu.Lock()
	if loading {
		m.transitionLocked(StatusLoading)
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.publish(snap)
}

func (m *Manager) forceLoggedOut() {
	m.mu.Lock()
	m.stopTimersLocked()
	m.user = nil
	m.token = ""
	m.transitionLocked(StatusLoggedOut)
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.publish(snap)
}

// expire runs when the token expiry task fires: the session ends shortly
// before the token itself lapses.
func (m *Manager) expire() {
	ctx := context.Background()
	m.evaluator.ClearAuthData(ctx)

	m.mu.Lock()
	userID := m.userIDLocked()
	m.stopTimersLocked()
	m.user = nil
	m.token = ""
	m.errMsg = ""
	m.transitionLocked(StatusLoggedOut)
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notifier.ShowInfo(
		"Session Expired",
		"Your session has expired for security reasons. Please log in again.",
	)
	m.publish(snap)
	m.emit(ctx, ActivityEventSessionExpired, userID, nil)
}

// armExpiryLocked cancels any previous expiry task before arming a new one
// so stale timers never fire twice.
func (m *Manager) armExpiryLocked(ctx context.Context) {
	m.cancelExpiry()
	m.cancelExpiry = m.evaluator.SetupTokenExpiryCheck(ctx, m.expire)
}

func (m *Manager) armWatchdogLocked() {
	m.cancelWatchdog()
	m.cancelWatchdog = m.scheduler.Repeat(WatchdogInterval, func() {
		ctx := context.Background()
		if !m.evaluator.IsAuthenticated(ctx) {
			m.Logout(ctx)
		}
	})
}

func (m *Manager) stopTimersLocked() {
	m.cancelExpiry()
	m.cancelExpiry = nopCancel
	m.cancelWatchdog()
	m.cancelWatchdog = nopCancel
}

func (m *Manager) transitionLocked(to Status) {
	if !canTransition(m.status, to) {
		m.logger.Warn("unexpected session transition %s -> %s", m.status, to)
	}
	m.status = to
}

func (m *Manager) snapshotLocked() Session {
	return Session{
		User:            m.user.Clone(),
		Token:           m.token,
		Status:          m.status,
		IsAuthenticated: m.status == StatusAuthenticated,
		IsLoading:       m.status == StatusLoading,
		Error:           m.errMsg,
	}
}

func (m *Manager) userIDLocked() string {
	if m.user == nil {
		return ""
	}
	return m.user.ID.String()
}

func (m *Manager) publish(snap Session) {
	m.mu.Lock()
	subs := make([]func(Session), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func (m *Manager) emit(ctx context.Context, eventType ActivityEventType, userID string, metadata map[string]any) {
	event := ActivityEvent{
		EventType:  eventType,
		UserID:     userID,
		Metadata:   metadata,
		OccurredAt: m.now(),
	}

	if err := m.activitySink.Record(ctx, event); err != nil {
		m.logger.Warn("activity sink record error: %v", err)
	}
}
