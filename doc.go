// Package session implements the client-side session lifecycle for the
// Thappy API: token and user persistence, session evaluation, an auth
// lifecycle state machine, and an inactivity monitor.
//
// Lifecycle:
//   - Manager owns the session state machine (Loading, Authenticated,
//     LoggedOut, Error). Login, Register, Logout, and CheckAuthStatus drive
//     transitions; subscribers receive an immutable Session snapshot after
//     every change.
//   - A token expiry task fires one minute before the bearer token expires
//     and forces a logout. A watchdog re-evaluates the persisted state every
//     minute while authenticated.
//   - InactivityMonitor tracks user interaction independently of token
//     expiry and forces a logout after a configurable idle period, with a
//     single warning notification beforehand.
//
// Storage:
//   - TokenStore and UserStore persist under the Store interface. Malformed
//     tokens and undecodable user JSON always read as absent, never as an
//     error. IsAuthenticated requires both values present plus an unexpired
//     token; a partial write therefore degrades to "not authenticated".
//
// Notifications and activity:
//   - Notifier is the user-visible surface (expiry and idle warnings,
//     session extension). ActivitySink is a best-effort audit emitter; sink
//     errors are logged and never block a transition.
package session
