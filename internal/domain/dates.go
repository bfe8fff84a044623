package domain

import "time"

// All calendar math runs against a fixed UTC+8 offset, not the host's
// local zone. The membership table stores bare dates, so "today" must
// mean the same thing no matter where the process is deployed.
var TaipeiZone = time.FixedZone("UTC+8", 8*60*60)

const (
	DateLayout     = "2006-01-02"
	PostDateLayout = "2006-01-02 15:04"
	ClockLayout    = "15:04:05"
)

// Today returns the UTC+8 calendar date for the given instant, truncated
// to midnight in that zone.
func Today(now time.Time) time.Time {
	local := now.In(TaipeiZone)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, TaipeiZone)
}

// Yesterday is Today minus one calendar day. New registrations start with
// this as their expiry so accounts begin in the expired state.
func Yesterday(now time.Time) time.Time {
	return Today(now).AddDate(0, 0, -1)
}

// ParseDate parses a stored YYYY-MM-DD expiry value in the UTC+8 zone.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, TaipeiZone)
}

// FormatDate renders a date the way the membership table stores it.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
