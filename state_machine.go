package session

// Status is the lifecycle state of the session.
type Status string

const (
	// StatusLoading is the initial state while CheckAuthStatus runs, and
	// the transient state during login/register round-trips.
	StatusLoading Status = "loading"
	// StatusAuthenticated means token and user are present and valid.
	StatusAuthenticated Status = "authenticated"
	// StatusLoggedOut is the resting unauthenticated state.
	StatusLoggedOut Status = "logged_out"
	// StatusError records a failed login/register; it merges back into
	// the logged-out flow on the next action.
	StatusError Status = "error"
)

// statusTransitions is the allowed transition graph. A same-state
// transition is always a no-op.
var statusTransitions = map[Status]map[Status]struct{}{
	StatusLoading: {
		StatusAuthenticated: {},
		StatusLoggedOut:     {},
		StatusError:         {},
	},
	StatusAuthenticated: {
		StatusLoading:   {},
		StatusLoggedOut: {},
	},
	StatusLoggedOut: {
		StatusLoading: {},
	},
	StatusError: {
		StatusLoading:   {},
		StatusLoggedOut: {},
	},
}

func canTransition(from, to Status) bool {
	if from == to {
		return true
	}
	allowed, ok := statusTransitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}
