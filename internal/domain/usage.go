package domain

import (
	"fmt"
	"time"
)

// UsageSnapshot is the machine-readable quota state attached to API
// responses so clients can render "X/Y used" without a second call.
type UsageSnapshot struct {
	Used   int       `json:"used"`
	Limit  int       `json:"limit"`
	Resets time.Time `json:"resets"`
}

// MonthKey returns the billing-period partition key for t, formed from
// the UTC calendar year and month. This is a key, not a timestamp: two
// calls in the same UTC month share a counter, the next month starts a
// fresh one.
func MonthKey(t time.Time) string {
	u := t.UTC()
	return fmt.Sprintf("%04d-%02d", u.Year(), int(u.Month()))
}

// NextReset returns the first instant of the UTC month after t, the
// moment the current counter stops mattering.
func NextReset(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month()+1, 1, 0, 0, 0, 0, time.UTC)
}
