package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	session "github.com/thappy/go-session"
)

const testSigningKey = "test-signing-key"

// MockAPIClient implements session.APIClient
type MockAPIClient struct {
	mock.Mock
}

func (m *MockAPIClient) Login(ctx context.Context, creds session.Credentials) (*session.AuthResult, error) {
	args := m.Called(ctx, creds)
	res, _ := args.Get(0).(*session.AuthResult)
	return res, args.Error(1)
}

func (m *MockAPIClient) Register(ctx context.Context, reg session.Registration) (*session.AuthResult, error) {
	args := m.Called(ctx, reg)
	res, _ := args.Get(0).(*session.AuthResult)
	return res, args.Error(1)
}

func (m *MockAPIClient) Profile(ctx context.Context) (*session.User, error) {
	args := m.Called(ctx)
	user, _ := args.Get(0).(*session.User)
	return user, args.Error(1)
}

func (m *MockAPIClient) UpdateProfile(ctx context.Context, update session.UserUpdate) (*session.User, error) {
	args := m.Called(ctx, update)
	user, _ := args.Get(0).(*session.User)
	return user, args.Error(1)
}

// fakeClock is a settable wall clock.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// scheduledTask is one task captured by the manual scheduler.
type scheduledTask struct {
	Delay     time.Duration
	Repeating bool
	Canceled  bool
	fn        func()
}

// Fire runs the task unless it was canceled.
func (t *scheduledTask) Fire() {
	if t.Canceled {
		return
	}
	t.fn()
}

// manualScheduler captures scheduled tasks so tests control time.
type manualScheduler struct {
	mu    sync.Mutex
	Tasks []*scheduledTask
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{}
}

func (s *manualScheduler) Schedule(d time.Duration, fn func()) session.CancelFunc {
	return s.add(d, fn, false)
}

func (s *manualScheduler) Repeat(interval time.Duration, fn func()) session.CancelFunc {
	return s.add(interval, fn, true)
}

func (s *manualScheduler) add(d time.Duration, fn func(), repeating bool) session.CancelFunc {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := &scheduledTask{Delay: d, Repeating: repeating, fn: fn}
	s.Tasks = append(s.Tasks, task)
	return func() { task.Canceled = true }
}

func (s *manualScheduler) lastOneShot(t *testing.T) *scheduledTask {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.Tasks) - 1; i >= 0; i-- {
		if !s.Tasks[i].Repeating {
			return s.Tasks[i]
		}
	}
	require.FailNow(t, "no one-shot task scheduled")
	return nil
}

func (s *manualScheduler) lastRepeating(t *testing.T) *scheduledTask {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.Tasks) - 1; i >= 0; i-- {
		if s.Tasks[i].Repeating {
			return s.Tasks[i]
		}
	}
	require.FailNow(t, "no repeating task scheduled")
	return nil
}

// notice is one captured notification.
type notice struct {
	Level   string
	Title   string
	Message string
}

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	mu      sync.Mutex
	Notices []notice
}

func (n *recordingNotifier) ShowInfo(title, message string) {
	n.record("info", title, message)
}

func (n *recordingNotifier) ShowWarning(title, message string) {
	n.record("warning", title, message)
}

func (n *recordingNotifier) ShowSuccess(title, message string) {
	n.record("success", title, message)
}

func (n *recordingNotifier) ShowError(title, message string, _ func()) {
	n.record("error", title, message)
}

func (n *recordingNotifier) record(level, title, message string) {
	n.mu.Lock()
	n.Notices = append(n.Notices, notice{Level: level, Title: title, Message: message})
	n.mu.Unlock()
}

func (n *recordingNotifier) byLevel(level string) []notice {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []notice
	for _, nt := range n.Notices {
		if nt.Level == level {
			out = append(out, nt)
		}
	}
	return out
}

// recordingSink captures activity events.
type recordingSink struct {
	mu     sync.Mutex
	Events []session.ActivityEvent
}

func (s *recordingSink) Record(_ context.Context, event session.ActivityEvent) error {
	s.mu.Lock()
	s.Events = append(s.Events, event)
	s.mu.Unlock()
	return nil
}

func (s *recordingSink) types() []session.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]session.ActivityEventType, 0, len(s.Events))
	for _, e := range s.Events {
		out = append(out, e.EventType)
	}
	return out
}

// signedToken mints an HS256 token with the given expiry.
func signedToken(t *testing.T, expiry time.Time) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub": "user-1",
		"exp": jwt.NewNumericDate(expiry),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSigningKey))
	require.NoError(t, err)
	return signed
}

// tokenWithoutExpiry mints a token carrying no exp claim.
func tokenWithoutExpiry(t *testing.T) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1"})
	signed, err := token.SignedString([]byte(testSigningKey))
	require.NoError(t, err)
	return signed
}

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	require.NoError(t, err)
	return id
}

// testUser returns a stable user fixture.
func testUser(t *testing.T, email string, role session.UserRole) *session.User {
	t.Helper()

	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return &session.User{
		ID:        mustUUID(t, "0f1e2d3c-4b5a-6978-8796-a5b4c3d2e1f0"),
		Email:     email,
		Role:      role,
		IsActive:  true,
		CreatedAt: created,
		UpdatedAt: created,
	}
}
