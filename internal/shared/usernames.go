package shared

import (
	"strings"

	"golang.org/x/text/cases"
)

// FoldUsername normalizes a username for case-insensitive comparison and
// storage keys. Every username comparison in the application goes through
// this helper so lookups, attempt counters and the bootstrap check agree.
// A Caser is stateful, so a fresh one is taken per call.
func FoldUsername(username string) string {
	return cases.Fold().String(strings.TrimSpace(username))
}
