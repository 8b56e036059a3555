package forecast

import (
	"context"
	"time"
)

const (
	DefaultIndoorTemperature  = 21.0
	DefaultHumidity           = 50.0
	DefaultAirPressure        = 1013.0
	DefaultOutdoorTemperature = 15.0
)

// Reading is the latest known state of a room before some instant
type Reading struct {
	Temperature        float64    `json:"temperature"`
	Humidity           float64    `json:"humidity"`
	AirPressure        float64    `json:"airPressure"`
	OutdoorTemperature float64    `json:"temperature_outdoor"`
	TemperatureSavedAt *time.Time `json:"temperature_saved_at"`
	HumiditySavedAt    *time.Time `json:"humidity_saved_at"`
	PressureSavedAt    *time.Time `json:"pressure_saved_at"`
}

func DefaultReading() Reading {
	return Reading{
		Temperature:        DefaultIndoorTemperature,
		Humidity:           DefaultHumidity,
		AirPressure:        DefaultAirPressure,
		OutdoorTemperature: DefaultOutdoorTemperature,
	}
}

// SensorSource returns the latest reading of a room strictly before the given instant.
// Measurements without any record are reported with their default value
type SensorSource interface {
	LatestRoomData(ctx context.Context, roomId string, before time.Time) (Reading, error)
}

// HourlyReading aggregates the measurements of a room within one hour bucket
type HourlyReading struct {
	Temperature    float64  `json:"temperature"`
	Humidity       float64  `json:"humidity"`
	AirPressure    float64  `json:"airPressure"`
	MinTemperature *float64 `json:"min_temperature"`
	MaxTemperature *float64 `json:"max_temperature"`
}
