package order

import (
	"fmt"
	"time"
)

// Order numbers look like 310826-000042: the creation date as DDMMYY, then a
// six-digit sequence scoped to that day. The sequence comes from a per-day
// counter row bumped in the same transaction that inserts the order, so
// concurrent checkouts cannot mint the same number.

// DayPrefix returns the DDMMYY prefix for t.
func DayPrefix(t time.Time) string {
	return t.Format("020106")
}

// FormatNumber builds the full order number from a day prefix and sequence.
func FormatNumber(prefix string, seq int) string {
	return fmt.Sprintf("%s-%06d", prefix, seq)
}
