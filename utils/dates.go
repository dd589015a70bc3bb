package utils

import (
	"fmt"
	"time"
)

// Report periods accepted by the reports endpoints
const (
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

// Revenue analytics granularities
const (
	GranularityDaily   = "daily"
	GranularityWeekly  = "weekly"
	GranularityMonthly = "monthly"
)

// PeriodRange returns the start and end of the reporting period containing now.
// Weeks start on Monday. Unknown periods fall back to week.
func PeriodRange(period string, now time.Time) (time.Time, time.Time) {
	switch period {
	case PeriodMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
		return start, end
	case PeriodYear:
		start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		end := time.Date(now.Year(), 12, 31, 23, 59, 59, int(time.Second-time.Nanosecond), now.Location())
		return start, end
	default: // week
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday belongs to the week that started the previous Monday
		}
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
			AddDate(0, 0, -(weekday - 1))
		end := start.AddDate(0, 0, 7).Add(-time.Nanosecond)
		return start, end
	}
}

// MonthIndex returns the zero-based calendar month of t, so a booking created
// in March lands in slot 2 of a 12-slot series.
func MonthIndex(t time.Time) int {
	return int(t.Month()) - 1
}

// RevenueBucketKey returns the grouping key for a timestamp at the requested
// granularity. Keys sort lexicographically in chronological order.
func RevenueBucketKey(granularity string, t time.Time) string {
	switch granularity {
	case GranularityDaily:
		return t.Format("2006-01-02")
	case GranularityWeekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	default: // monthly
		return t.Format("2006-01")
	}
}

// TrendBucket returns the trend-series bucket for a timestamp: month number
// for yearly reports, day of month for monthly reports, and weekday
// (1=Sunday .. 7=Saturday) for weekly reports.
func TrendBucket(period string, t time.Time) int {
	switch period {
	case PeriodYear:
		return int(t.Month())
	case PeriodMonth:
		return t.Day()
	default: // week
		return int(t.Weekday()) + 1
	}
}

// TrailingYear returns the instant 12 months before now.
func TrailingYear(now time.Time) time.Time {
	return now.AddDate(-1, 0, 0)
}
