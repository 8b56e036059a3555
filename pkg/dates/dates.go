package dates

import (
	"fmt"
	"strings"
	"time"
)

var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Parse accepts a date or an ISO-8601 timestamp. Values without zone are read in loc
func Parse(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range layouts {
		if parsed, err := time.ParseInLocation(layout, value, loc); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse date %q", value)
}

func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
}

// ParseDateRange parses both bounds and widens them to the start of the first day and the end of the last one
func ParseDateRange(start, end string, loc *time.Location) (time.Time, time.Time, error) {
	from, err := Parse(start, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := Parse(end, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	from, to = StartOfDay(from), EndOfDay(to)
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %v is before start date %v", end, start)
	}
	return from, to, nil
}

// WeekRange returns the Monday starting week number week of year and the end of the following Sunday.
// Week 1 is the week holding January 1st, so its Monday may fall in the previous year
func WeekRange(year, week int, loc *time.Location) (time.Time, time.Time, error) {
	if week < 1 || week > 53 {
		return time.Time{}, time.Time{}, fmt.Errorf("week %v is out of range [1, 53]", week)
	}
	januaryFirst := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	sinceMonday := (int(januaryFirst.Weekday()) + 6) % 7
	start := januaryFirst.AddDate(0, 0, (week-1)*7-sinceMonday)
	return start, EndOfDay(start.AddDate(0, 0, 6)), nil
}
