package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	session "github.com/thappy/go-session"
)

// fakeController stands in for a Manager.
type fakeController struct {
	mu      sync.Mutex
	sess    session.Session
	logouts int
}

func newFakeController(t *testing.T) *fakeController {
	return &fakeController{
		sess: session.Session{
			User:            testUser(t, "a@b.com", session.RoleClient),
			Status:          session.StatusAuthenticated,
			IsAuthenticated: true,
		},
	}
}

func (c *fakeController) Session() session.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess
}

func (c *fakeController) Logout(_ context.Context) {
	c.mu.Lock()
	c.logouts++
	c.sess = session.Session{Status: session.StatusLoggedOut}
	c.mu.Unlock()
}

func (c *fakeController) logoutCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.logouts
}

type inactivityFixture struct {
	monitor    *session.InactivityMonitor
	controller *fakeController
	clock      *fakeClock
	sched      *manualScheduler
	notifier   *recordingNotifier
	sink       *recordingSink
}

func newInactivityFixture(t *testing.T, opts ...session.InactivityOption) *inactivityFixture {
	t.Helper()

	f := &inactivityFixture{
		controller: newFakeController(t),
		clock:      newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
		sched:      newManualScheduler(),
		notifier:   &recordingNotifier{},
		sink:       &recordingSink{},
	}

	base := []session.InactivityOption{
		session.WithInactivityClock(f.clock.Now),
		session.WithInactivityScheduler(f.sched),
		session.WithInactivityNotifier(f.notifier),
		session.WithInactivitySink(f.sink),
	}
	f.monitor = session.NewInactivityMonitor(f.controller, append(base, opts...)...)
	return f
}

func TestInactivityWarningFiresExactlyOnce(t *testing.T) {
	f := newInactivityFixture(t)
	f.monitor.Start()

	check := f.sched.lastRepeating(t)
	assert.Equal(t, session.DefaultInactivityInterval, check.Delay)

	// Inside the warning window: 13m30s idle with a 15m timeout.
	f.clock.Advance(13*time.Minute + 30*time.Second)
	check.Fire()

	warnings := f.notifier.byLevel("warning")
	require.Len(t, warnings, 1)
	assert.Equal(t, "Session Expiring Soon", warnings[0].Title)
	assert.Equal(t, "Your session will expire in 2 minute(s) due to inactivity.", warnings[0].Message)

	// Further checks in the window do not repeat the warning.
	f.clock.Advance(30 * time.Second)
	check.Fire()
	assert.Len(t, f.notifier.byLevel("warning"), 1)

	assert.Zero(t, f.controller.logoutCount())
}

func TestInactivityActivityResetsWarning(t *testing.T) {
	f := newInactivityFixture(t)
	f.monitor.Start()
	check := f.sched.lastRepeating(t)

	f.clock.Advance(14 * time.Minute)
	check.Fire()
	require.Len(t, f.notifier.byLevel("warning"), 1)

	f.monitor.Record(session.ActivityKeyPress)

	// Idle clock restarted: back inside the warning window warns again.
	f.clock.Advance(14 * time.Minute)
	check.Fire()
	assert.Len(t, f.notifier.byLevel("warning"), 2)
	assert.Zero(t, f.controller.logoutCount())
}

func TestInactivityTimeoutForcesSingleLogout(t *testing.T) {
	f := newInactivityFixture(t)
	f.monitor.Start()
	check := f.sched.lastRepeating(t)

	f.clock.Advance(15 * time.Minute)
	check.Fire()

	assert.Equal(t, 1, f.controller.logoutCount())
	assert.True(t, check.Canceled)

	infos := f.notifier.byLevel("info")
	require.Len(t, infos, 1)
	assert.Equal(t, "Session Expired", infos[0].Title)

	assert.Contains(t, f.sink.types(), session.ActivityEventIdleTimeout)

	// The monitor shut itself down; a straggling tick is inert.
	f.clock.Advance(time.Minute)
	check.Fire()
	assert.Equal(t, 1, f.controller.logoutCount())
}

func TestInactivityRecordIsThrottled(t *testing.T) {
	f := newInactivityFixture(t)
	f.monitor.Start()
	check := f.sched.lastRepeating(t)

	f.clock.Advance(10 * time.Minute)
	f.monitor.Record(session.ActivityPointerMove)

	// Within the throttle window this interaction is dropped.
	f.clock.Advance(500 * time.Millisecond)
	f.monitor.Record(session.ActivityPointerMove)

	// Idle time is measured from the first interaction, so a full timeout
	// after it the session still ends.
	f.clock.Advance(15 * time.Minute)
	check.Fire()
	assert.Equal(t, 1, f.controller.logoutCount())
}

func TestInactivityResumeSkipsThrottle(t *testing.T) {
	f := newInactivityFixture(t)
	f.monitor.Start()
	check := f.sched.lastRepeating(t)

	f.clock.Advance(10 * time.Minute)
	f.monitor.Record(session.ActivityClick)

	f.clock.Advance(500 * time.Millisecond)
	f.monitor.Resume()

	// 14m59.5s after the Resume: still inside the session.
	f.clock.Advance(15*time.Minute - 500*time.Millisecond)
	check.Fire()
	assert.Zero(t, f.controller.logoutCount())
}

func TestInactivityExtend(t *testing.T) {
	f := newInactivityFixture(t)
	f.monitor.Start()
	check := f.sched.lastRepeating(t)

	f.clock.Advance(14 * time.Minute)
	f.monitor.Extend(context.Background())

	infos := f.notifier.byLevel("info")
	require.Len(t, infos, 1)
	assert.Equal(t, "Session Extended", infos[0].Title)
	assert.Contains(t, f.sink.types(), session.ActivityEventSessionExtended)

	f.clock.Advance(14 * time.Minute)
	check.Fire()
	assert.Zero(t, f.controller.logoutCount())
}

func TestInactivityStopPreventsChecks(t *testing.T) {
	f := newInactivityFixture(t)
	f.monitor.Start()
	check := f.sched.lastRepeating(t)

	f.monitor.Stop()
	assert.True(t, check.Canceled)

	f.clock.Advance(time.Hour)
	check.Fire()
	assert.Zero(t, f.controller.logoutCount())
	assert.Empty(t, f.notifier.Notices)
}

func TestInactivitySkipsWithoutSession(t *testing.T) {
	f := newInactivityFixture(t)
	f.controller.Logout(context.Background())
	f.monitor.Start()
	check := f.sched.lastRepeating(t)

	f.clock.Advance(time.Hour)
	check.Fire()

	// The logout above is the fixture's own; the monitor added none.
	assert.Equal(t, 1, f.controller.logoutCount())
	assert.Empty(t, f.notifier.Notices)
}

func TestInactivityShortTimeoutConfiguration(t *testing.T) {
	f := newInactivityFixture(t,
		session.WithInactivityTimeout(1000*time.Millisecond),
		session.WithInactivityWarning(500*time.Millisecond),
		session.WithInactivityInterval(100*time.Millisecond),
	)
	f.monitor.Start()
	check := f.sched.lastRepeating(t)
	assert.Equal(t, 100*time.Millisecond, check.Delay)

	// Ticks inside the warning window produce exactly one warning.
	f.clock.Advance(600 * time.Millisecond)
	check.Fire()
	f.clock.Advance(100 * time.Millisecond)
	check.Fire()
	assert.Len(t, f.notifier.byLevel("warning"), 1)
	assert.Zero(t, f.controller.logoutCount())

	// Crossing the timeout produces exactly one logout and no more warnings.
	f.clock.Advance(300 * time.Millisecond)
	check.Fire()
	f.clock.Advance(100 * time.Millisecond)
	check.Fire()
	assert.Equal(t, 1, f.controller.logoutCount())
	assert.Len(t, f.notifier.byLevel("warning"), 1)
}

func TestInactivityHeaderProfile(t *testing.T) {
	f := newInactivityFixture(t, session.WithHeaderProfile())
	f.monitor.Start()
	check := f.sched.lastRepeating(t)

	// 20 minutes idle would end a default session but not a header one.
	f.clock.Advance(20 * time.Minute)
	check.Fire()
	assert.Zero(t, f.controller.logoutCount())
	assert.Empty(t, f.notifier.byLevel("warning"))

	// Inside the 5 minute header warning window.
	f.clock.Advance(6 * time.Minute)
	check.Fire()
	require.Len(t, f.notifier.byLevel("warning"), 1)

	f.clock.Advance(5 * time.Minute)
	check.Fire()
	assert.Equal(t, 1, f.controller.logoutCount())
}
