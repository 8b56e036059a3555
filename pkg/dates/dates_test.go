package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekRange(t *testing.T) {
	cases := []struct {
		year, week int
		start      time.Time
	}{
		// January 1st 2025 is a Wednesday
		{2025, 1, time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)},
		{2025, 11, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)},
		// January 1st 2024 is a Monday
		{2024, 1, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		// January 1st 2023 is a Sunday
		{2023, 2, time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)},
	}

	for _, c := range cases {
		start, end, err := WeekRange(c.year, c.week, time.UTC)
		require.Nil(t, err)
		assert.Equal(t, c.start, start)
		assert.Equal(t, time.Monday, start.Weekday())
		assert.Equal(t, time.Date(c.start.Year(), c.start.Month(), c.start.Day()+6, 23, 59, 59, 999999999, time.UTC), end)
	}

	_, _, err := WeekRange(2025, 0, time.UTC)
	assert.NotNil(t, err)
	_, _, err = WeekRange(2025, 54, time.UTC)
	assert.NotNil(t, err)
}

func TestParseDateRange(t *testing.T) {
	start, end, err := ParseDateRange("2025-03-10", "2025-03-14T08:00:00", time.UTC)

	require.Nil(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 3, 14, 23, 59, 59, 999999999, time.UTC), end)

	_, _, err = ParseDateRange("2025-03-14", "2025-03-10", time.UTC)
	assert.NotNil(t, err)
	_, _, err = ParseDateRange("yesterday", "2025-03-10", time.UTC)
	assert.NotNil(t, err)
}

func TestParseKeepsExplicitZone(t *testing.T) {
	parsed, err := Parse("2025-03-10T09:00:00+02:00", time.UTC)

	require.Nil(t, err)
	assert.True(t, time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC).Equal(parsed))
}
