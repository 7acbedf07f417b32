package storage

import (
	"fmt"
	"strings"

	"github.com/goliatone/hashid/pkg/hashid"
)

// AccountNamespace derives a stable namespace for an account so several
// accounts can share one database file without clobbering each other's
// persisted state. Falls back to the lowercased email if derivation fails.
func AccountNamespace(email string) string {
	if id, err := hashid.NewUUID(email); err == nil {
		return id.String()
	}
	return strings.ToLower(email)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] STORAGE "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] STORAGE "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] STORAGE "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] STORAGE "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
