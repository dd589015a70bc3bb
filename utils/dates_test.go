package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonthIndex(t *testing.T) {
	jan := time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)
	mar := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	dec := time.Date(2025, time.December, 31, 23, 59, 0, 0, time.UTC)

	assert.Equal(t, 0, MonthIndex(jan))
	assert.Equal(t, 2, MonthIndex(mar))
	assert.Equal(t, 11, MonthIndex(dec))
}

func TestPeriodRangeWeekStartsMonday(t *testing.T) {
	// Wednesday 2025-06-11
	now := time.Date(2025, time.June, 11, 15, 30, 0, 0, time.UTC)
	start, end := PeriodRange(PeriodWeek, now)

	assert.Equal(t, time.Monday, start.Weekday())
	assert.Equal(t, time.Date(2025, time.June, 9, 0, 0, 0, 0, time.UTC), start)
	assert.True(t, end.After(now))
	assert.True(t, end.Before(start.AddDate(0, 0, 7)))
}

func TestPeriodRangeSundayBelongsToPriorWeek(t *testing.T) {
	// Sunday 2025-06-15
	now := time.Date(2025, time.June, 15, 9, 0, 0, 0, time.UTC)
	start, _ := PeriodRange(PeriodWeek, now)

	assert.Equal(t, time.Date(2025, time.June, 9, 0, 0, 0, 0, time.UTC), start)
}

func TestPeriodRangeMonth(t *testing.T) {
	now := time.Date(2025, time.February, 14, 12, 0, 0, 0, time.UTC)
	start, end := PeriodRange(PeriodMonth, now)

	assert.Equal(t, time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.February, end.Month())
	assert.Equal(t, 28, end.Day())
}

func TestPeriodRangeYear(t *testing.T) {
	now := time.Date(2025, time.August, 20, 0, 0, 0, 0, time.UTC)
	start, end := PeriodRange(PeriodYear, now)

	assert.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, 2025, end.Year())
	assert.Equal(t, time.December, end.Month())
}

func TestPeriodRangeUnknownFallsBackToWeek(t *testing.T) {
	now := time.Date(2025, time.June, 11, 0, 0, 0, 0, time.UTC)
	wantStart, wantEnd := PeriodRange(PeriodWeek, now)
	gotStart, gotEnd := PeriodRange("quarter", now)

	assert.Equal(t, wantStart, gotStart)
	assert.Equal(t, wantEnd, gotEnd)
}

func TestRevenueBucketKey(t *testing.T) {
	ts := time.Date(2025, time.March, 5, 14, 0, 0, 0, time.UTC)

	assert.Equal(t, "2025-03-05", RevenueBucketKey(GranularityDaily, ts))
	assert.Equal(t, "2025-03", RevenueBucketKey(GranularityMonthly, ts))

	year, week := ts.ISOWeek()
	assert.Equal(t, 2025, year)
	assert.Equal(t, "2025-W10", RevenueBucketKey(GranularityWeekly, ts))
	assert.Equal(t, 10, week)
}

func TestTrendBucket(t *testing.T) {
	// Sunday 2025-06-15
	sunday := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	// Wednesday 2025-06-11
	wednesday := time.Date(2025, time.June, 11, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 1, TrendBucket(PeriodWeek, sunday), "Sunday maps to bucket 1")
	assert.Equal(t, 4, TrendBucket(PeriodWeek, wednesday))

	assert.Equal(t, 11, TrendBucket(PeriodMonth, wednesday))
	assert.Equal(t, 6, TrendBucket(PeriodYear, wednesday))
}

func TestTrailingYear(t *testing.T) {
	now := time.Date(2025, time.June, 11, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, time.June, 11, 8, 0, 0, 0, time.UTC), TrailingYear(now))
}
