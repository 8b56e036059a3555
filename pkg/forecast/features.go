package forecast

import (
	"fmt"
	"strings"
	"time"
)

// Hours are the buckets the regression model forecasts, in order
var Hours = []string{"09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00", "17:00"}

const DefaultLastHour = "09:00"

// FeatureRow is a single observation fed to the regression model
type FeatureRow struct {
	Room               string  `json:"room" mapstructure:"room"`
	Day                string  `json:"day" mapstructure:"day"`
	Hour               string  `json:"hour" mapstructure:"hour"`
	Temperature        float64 `json:"temperature" mapstructure:"temperature"`
	Humidity           float64 `json:"humidity" mapstructure:"humidity"`
	AirPressure        float64 `json:"airPressure" mapstructure:"airPressure"`
	CapacityPercentage float64 `json:"capacity_percentage" mapstructure:"capacity_percentage"`
	OutdoorTemperature float64 `json:"temperature_outdoor" mapstructure:"temperature_outdoor"`
}

// Encode one-hot encodes the categorical columns as "<column>_<value>" and keeps the numeric ones by name
func (row FeatureRow) Encode() map[string]float64 {
	return map[string]float64{
		"room_" + row.Room:    1,
		"day_" + row.Day:      1,
		"hour_" + row.Hour:    1,
		"temperature":         row.Temperature,
		"humidity":            row.Humidity,
		"airPressure":         row.AirPressure,
		"capacity_percentage": row.CapacityPercentage,
		"temperature_outdoor": row.OutdoorTemperature,
	}
}

// DayName is the lowercase English weekday of t
func DayName(t time.Time) string {
	return strings.ToLower(t.Weekday().String())
}

// HourBucket formats the hour of t as "HH:00"
func HourBucket(t time.Time) string {
	return fmt.Sprintf("%02d:00", t.Hour())
}

// hourStart truncates t to the start of its hour in its own location
func hourStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}
