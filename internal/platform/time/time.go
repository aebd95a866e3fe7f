// Package time contains time related helpers
package time

import "time"

// SQLNull returns nil for the zero time so it lands as NULL, else t
func SQLNull(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

// Midnight truncates t to the start of its day in its own location
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
