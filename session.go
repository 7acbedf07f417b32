package session

import "fmt"

// Session is an immutable snapshot of the client's current belief about
// authentication state. Exactly one Session exists per Manager; snapshots
// are copies and safe to hold.
type Session struct {
	User            *User
	Token           string
	Status          Status
	IsAuthenticated bool
	IsLoading       bool
	Error           string
}

func (s Session) String() string {
	email := "<nil>"
	if s.User != nil {
		email = s.User.Email
	}
	return fmt.Sprintf(
		"status=%s authenticated=%t loading=%t user=%s err=%q",
		s.Status,
		s.IsAuthenticated,
		s.IsLoading,
		email,
		s.Error,
	)
}
