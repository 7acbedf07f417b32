package session

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ActivityKind is the set of user interactions the monitor observes.
type ActivityKind string

const (
	ActivityPointerMove ActivityKind = "pointer_move"
	ActivityKeyPress    ActivityKind = "key_press"
	ActivityScroll      ActivityKind = "scroll"
	ActivityTouch       ActivityKind = "touch"
	ActivityClick       ActivityKind = "click"
)

// Inactivity defaults. The header profile (persistent navigation chrome)
// runs with a longer leash than dashboards.
const (
	DefaultInactivityTimeout  = 15 * time.Minute
	DefaultInactivityWarning  = 2 * time.Minute
	DefaultInactivityInterval = time.Minute

	HeaderInactivityTimeout = 30 * time.Minute
	HeaderInactivityWarning = 5 * time.Minute

	// activityThrottle caps how often interaction events refresh the
	// activity timestamp.
	activityThrottle = time.Second
)

// sessionController is the slice of Manager the monitor needs.
type sessionController interface {
	Session() Session
	Logout(ctx context.Context)
}

// InactivityMonitor forces a logout after a configured idle period,
// independent of token expiry, warning the user once beforehand. It is
// only active while a session exists; Stop tears down the periodic check
// completely.
type InactivityMonitor struct {
	controller   sessionController
	notifier     Notifier
	activitySink ActivitySink
	logger       Logger
	scheduler    Scheduler
	now          func() time.Time

	timeout  time.Duration
	warning  time.Duration
	interval time.Duration

	mu           sync.Mutex
	lastActivity time.Time
	lastRecord   time.Time
	warningShown bool
	cancel       CancelFunc
	running      bool
}

// InactivityOption customizes monitor construction.
type InactivityOption func(*InactivityMonitor)

// WithInactivityTimeout sets the idle duration that forces a logout.
func WithInactivityTimeout(d time.Duration) InactivityOption {
	return func(im *InactivityMonitor) {
		if d > 0 {
			im.timeout = d
		}
	}
}

// WithInactivityWarning sets how long before the timeout the warning shows.
func WithInactivityWarning(d time.Duration) InactivityOption {
	return func(im *InactivityMonitor) {
		if d > 0 {
			im.warning = d
		}
	}
}

// WithInactivityInterval sets how often idle time is checked.
func WithInactivityInterval(d time.Duration) InactivityOption {
	return func(im *InactivityMonitor) {
		if d > 0 {
			im.interval = d
		}
	}
}

// WithHeaderProfile applies the header timeout/warning overrides.
func WithHeaderProfile() InactivityOption {
	return func(im *InactivityMonitor) {
		im.timeout = HeaderInactivityTimeout
		im.warning = HeaderInactivityWarning
	}
}

// WithInactivityNotifier sets the user-visible notification sink.
func WithInactivityNotifier(n Notifier) InactivityOption {
	return func(im *InactivityMonitor) {
		im.notifier = normalizeNotifier(n)
	}
}

// WithInactivitySink sets the ActivitySink for idle-timeout events.
func WithInactivitySink(sink ActivitySink) InactivityOption {
	return func(im *InactivityMonitor) {
		im.activitySink = normalizeActivitySink(sink)
	}
}

// WithInactivityLogger overrides the default logger.
func WithInactivityLogger(logger Logger) InactivityOption {
	return func(im *InactivityMonitor) {
		if logger != nil {
			im.logger = logger
		}
	}
}

// WithInactivityScheduler overrides the wall-clock scheduler (tests).
func WithInactivityScheduler(s Scheduler) InactivityOption {
	return func(im *InactivityMonitor) {
		if s != nil {
			im.scheduler = s
		}
	}
}

// WithInactivityClock injects a custom clock (tests).
func WithInactivityClock(now func() time.Time) InactivityOption {
	return func(im *InactivityMonitor) {
		if now != nil {
			im.now = now
		}
	}
}

// NewInactivityMonitor returns a monitor observing the given controller.
func NewInactivityMonitor(controller sessionController, opts ...InactivityOption) *InactivityMonitor {
	im := &InactivityMonitor{
		controller:   controller,
		notifier:     noopNotifier{},
		activitySink: noopActivitySink{},
		logger:       defLogger{},
		scheduler:    NewScheduler(),
		now:          time.Now,
		timeout:      DefaultInactivityTimeout,
		warning:      DefaultInactivityWarning,
		interval:     DefaultInactivityInterval,
		cancel:       nopCancel,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(im)
		}
	}

	return im
}

// Start begins periodic idle checks for a new session. A running monitor
// is restarted.
func (im *InactivityMonitor) Start() {
	im.mu.Lock()
	im.cancel()
	now := im.now()
	im.lastActivity = now
	im.lastRecord = time.Time{}
	im.warningShown = false
	im.running = true
	im.cancel = im.scheduler.Repeat(im.interval, im.check)
	im.mu.Unlock()
}

// Stop detaches the periodic check. Idempotent; required on unmount or
// logout so a dead session cannot produce notifications.
func (im *InactivityMonitor) Stop() {
	im.mu.Lock()
	im.cancel()
	im.cancel = nopCancel
	im.running = false
	im.mu.Unlock()
}

// Record notes a user interaction. Updates are throttled to once per
// second; any accepted update also resets the warning flag.
func (im *InactivityMonitor) Record(kind ActivityKind) {
	im.mu.Lock()
	defer im.mu.Unlock()

	now := im.now()
	if now.Sub(im.lastRecord) <= activityThrottle {
		return
	}

	im.logger.Debug("activity observed: %s", kind)
	im.lastRecord = now
	im.lastActivity = now
	im.warningShown = false
}

// Resume resets the activity timestamp without throttling; call it when
// the page regains visibility.
func (im *InactivityMonitor) Resume() {
	im.mu.Lock()
	im.lastActivity = im.now()
	im.warningShown = false
	im.mu.Unlock()
}

// Extend resets the idle clock on explicit user request ("stay signed in")
// and confirms with a notification.
func (im *InactivityMonitor) Extend(ctx context.Context) {
	im.mu.Lock()
	im.lastActivity = im.now()
	im.warningShown = false
	im.mu.Unlock()

	im.notifier.ShowInfo("Session Extended", "Your session has been extended.")
	im.emit(ctx, ActivityEventSessionExtended, nil)
}

func (im *InactivityMonitor) check() {
	sess := im.controller.Session()
	if sess.User == nil {
		return
	}

	im.mu.Lock()
	if !im.running {
		im.mu.Unlock()
		return
	}

	now := im.now()
	idle := now.Sub(im.lastActivity)
	remaining := im.timeout - idle

	if idle >= im.timeout {
		// Stop before logging out so no further checks fire for this
		// session; a new session re-initializes the monitor.
		im.cancel()
		im.cancel = nopCancel
		im.running = false
		im.mu.Unlock()

		ctx := context.Background()
		im.notifier.ShowInfo(
			"Session Expired",
			"Your session has expired for security reasons. Please log in again.",
		)
		im.controller.Logout(ctx)
		im.emit(ctx, ActivityEventIdleTimeout, map[string]any{
			"idle": idle.String(),
		})
		return
	}

	if idle >= im.timeout-im.warning && !im.warningShown {
		im.warningShown = true
		minutesLeft := int((remaining + time.Minute - 1) / time.Minute)
		im.mu.Unlock()

		im.notifier.ShowWarning(
			"Session Expiring Soon",
			fmt.Sprintf("Your session will expire in %d minute(s) due to inactivity.", minutesLeft),
		)
		return
	}

	im.mu.Unlock()
}

func (im *InactivityMonitor) emit(ctx context.Context, eventType ActivityEventType, metadata map[string]any) {
	event := ActivityEvent{
		EventType:  eventType,
		Metadata:   metadata,
		OccurredAt: im.now(),
	}

	if err := im.activitySink.Record(ctx, event); err != nil {
		im.logger.Warn("activity sink record error: %v", err)
	}
}
