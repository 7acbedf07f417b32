package session

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Store is the persistence scope backing TokenStore and UserStore. Values
// survive for the lifetime of the backend (a restart for the in-memory
// store, indefinitely for the sqlite store) until explicitly removed.
// Implementations treat internal failures as "absent" on read and log
// failed writes; callers never see an error.
type Store interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
	Remove(ctx context.Context, key string)
}

// Notifier is the user-visible notification surface consumed by the Manager
// and the InactivityMonitor. The retry action on ShowError may be nil.
type Notifier interface {
	ShowInfo(title, message string)
	ShowWarning(title, message string)
	ShowSuccess(title, message string)
	ShowError(title, message string, retry func())
}

// APIClient is the backend collaborator. Failures are reported as
// *errors.Error values from go-errors carrying the HTTP status code; any
// other error is treated as non API-originated by the Manager.
type APIClient interface {
	Login(ctx context.Context, creds Credentials) (*AuthResult, error)
	Register(ctx context.Context, reg Registration) (*AuthResult, error)
	Profile(ctx context.Context) (*User, error)
	UpdateProfile(ctx context.Context, update UserUpdate) (*User, error)
}

// AuthResult is the payload of a successful login or registration.
type AuthResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SESSION "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] SESSION "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SESSION "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SESSION "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

type noopNotifier struct{}

func (noopNotifier) ShowInfo(string, string)          {}
func (noopNotifier) ShowWarning(string, string)       {}
func (noopNotifier) ShowSuccess(string, string)       {}
func (noopNotifier) ShowError(string, string, func()) {}

func normalizeNotifier(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}
