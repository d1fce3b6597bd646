package usage

import "time"

// PeriodBounds returns the calendar-month billing bucket containing now.
// Bounds are computed in UTC so the bucket key is stable across server
// timezones; end is exclusive.
func PeriodBounds(now time.Time) (start, end time.Time) {
	utc := now.UTC()
	start = time.Date(utc.Year(), utc.Month(), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, 0)
	return start, end
}
