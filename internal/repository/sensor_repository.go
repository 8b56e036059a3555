package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/limaJavier/roomassign/pkg/forecast"
)

// Measurement tables share the (room_id, data, saved_at) layout
const (
	temperatureTable = "temperature"
	humidityTable    = "humidity"
	pressureTable    = "pressure"
)

const latestMeasurementQuery = `
SELECT CAST(data AS FLOAT) AS value, saved_at
FROM %s
WHERE room_id = $1 AND saved_at < $2
ORDER BY saved_at DESC
LIMIT 1`

const hourlyMeasurementQuery = `
SELECT
	AVG(CAST(data AS FLOAT)) AS avg_value,
	MIN(CAST(data AS FLOAT)) AS min_value,
	MAX(CAST(data AS FLOAT)) AS max_value
FROM %s
WHERE room_id = $1
AND saved_at >= $2
AND saved_at < $3`

const outdoorTemperatureQuery = `
SELECT (temperature_min + temperature_max) / 2.0 AS avg_temp
FROM weather
WHERE date = $1
ORDER BY fetched_at DESC
LIMIT 1`

type measurement struct {
	Value   float64   `db:"value"`
	SavedAt time.Time `db:"saved_at"`
}

type hourlyMeasurement struct {
	Avg sql.NullFloat64 `db:"avg_value"`
	Min sql.NullFloat64 `db:"min_value"`
	Max sql.NullFloat64 `db:"max_value"`
}

// SensorRepository reads room measurements and daily weather.
type SensorRepository struct {
	db *sqlx.DB
}

func NewSensorRepository(db *sqlx.DB) *SensorRepository {
	return &SensorRepository{db: db}
}

// LatestRoomData returns the latest measurements of the room strictly before the given instant and the outdoor temperature of that day.
// Missing measurements keep their default value
func (r *SensorRepository) LatestRoomData(ctx context.Context, roomId string, before time.Time) (forecast.Reading, error) {
	reading := forecast.DefaultReading()

	temperature, err := r.latest(ctx, temperatureTable, roomId, before)
	if err != nil {
		return forecast.Reading{}, err
	}
	if temperature != nil {
		reading.Temperature, reading.TemperatureSavedAt = temperature.Value, &temperature.SavedAt
	}

	humidity, err := r.latest(ctx, humidityTable, roomId, before)
	if err != nil {
		return forecast.Reading{}, err
	}
	if humidity != nil {
		reading.Humidity, reading.HumiditySavedAt = humidity.Value, &humidity.SavedAt
	}

	pressure, err := r.latest(ctx, pressureTable, roomId, before)
	if err != nil {
		return forecast.Reading{}, err
	}
	if pressure != nil {
		reading.AirPressure, reading.PressureSavedAt = pressure.Value, &pressure.SavedAt
	}

	var outdoor float64
	err = r.db.GetContext(ctx, &outdoor, outdoorTemperatureQuery, before.Format(time.DateOnly))
	switch {
	case err == nil:
		reading.OutdoorTemperature = outdoor
	case !errors.Is(err, sql.ErrNoRows):
		return forecast.Reading{}, fmt.Errorf("outdoor temperature for %v: %w", before.Format(time.DateOnly), err)
	}

	return reading, nil
}

// HourlyRoomData averages the measurements of the room within the hour holding at.
// Without any temperature in that hour it falls back to the latest reading before the hour
func (r *SensorRepository) HourlyRoomData(ctx context.Context, roomId string, at time.Time) (forecast.HourlyReading, error) {
	hourStart := time.Date(at.Year(), at.Month(), at.Day(), at.Hour(), 0, 0, 0, at.Location())
	hourEnd := hourStart.Add(time.Hour)

	temperature, err := r.hourly(ctx, temperatureTable, roomId, hourStart, hourEnd)
	if err != nil {
		return forecast.HourlyReading{}, err
	}
	if !temperature.Avg.Valid {
		latest, err := r.LatestRoomData(ctx, roomId, hourStart)
		if err != nil {
			return forecast.HourlyReading{}, err
		}
		return forecast.HourlyReading{
			Temperature: latest.Temperature,
			Humidity:    latest.Humidity,
			AirPressure: latest.AirPressure,
		}, nil
	}

	humidity, err := r.hourly(ctx, humidityTable, roomId, hourStart, hourEnd)
	if err != nil {
		return forecast.HourlyReading{}, err
	}
	pressure, err := r.hourly(ctx, pressureTable, roomId, hourStart, hourEnd)
	if err != nil {
		return forecast.HourlyReading{}, err
	}

	reading := forecast.HourlyReading{
		Temperature: temperature.Avg.Float64,
		Humidity:    forecast.DefaultHumidity,
		AirPressure: forecast.DefaultAirPressure,
	}
	if humidity.Avg.Valid {
		reading.Humidity = humidity.Avg.Float64
	}
	if pressure.Avg.Valid {
		reading.AirPressure = pressure.Avg.Float64
	}
	if temperature.Min.Valid {
		reading.MinTemperature = &temperature.Min.Float64
	}
	if temperature.Max.Valid {
		reading.MaxTemperature = &temperature.Max.Float64
	}
	return reading, nil
}

func (r *SensorRepository) latest(ctx context.Context, table, roomId string, before time.Time) (*measurement, error) {
	var row measurement
	if err := r.db.GetContext(ctx, &row, fmt.Sprintf(latestMeasurementQuery, table), roomId, before); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest %s of room %s: %w", table, roomId, err)
	}
	return &row, nil
}

func (r *SensorRepository) hourly(ctx context.Context, table, roomId string, from, to time.Time) (hourlyMeasurement, error) {
	var row hourlyMeasurement
	if err := r.db.GetContext(ctx, &row, fmt.Sprintf(hourlyMeasurementQuery, table), roomId, from, to); err != nil {
		return hourlyMeasurement{}, fmt.Errorf("hourly %s of room %s: %w", table, roomId, err)
	}
	return row, nil
}
