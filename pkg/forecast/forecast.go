package forecast

import (
	"fmt"
	"math"

	"github.com/samber/lo"
)

type DayForecast struct {
	Temperature map[string]float64 `json:"temperature"`
	Humidity    map[string]float64 `json:"humidity"`
	AirPressure map[string]float64 `json:"airPressure"`
}

type RoomForecast struct {
	Name string                 `json:"name"`
	Id   string                 `json:"id"`
	Days map[string]DayForecast `json:"days"`
}

// Forecast is keyed room -> days -> day -> measurement -> hour
type Forecast struct {
	Room RoomForecast `json:"room"`
}

// Temperature returns the forecast temperature of day at hour, if any
func (forecast Forecast) Temperature(day, hour string) (float64, bool) {
	value, ok := forecast.Room.Days[day].Temperature[hour]
	return value, ok
}

// PredictRemainingDay forecasts the temperature of every hour bucket after lastHour, feeding each prediction back as the next row's temperature.
// Humidity and pressure are carried forward unchanged
func PredictRemainingDay(regressor Regressor, room, day, lastHour string, initial FeatureRow) (Forecast, error) {
	start := lo.IndexOf(Hours, lastHour)
	if start == -1 {
		return Forecast{}, fmt.Errorf("hour %q is outside of the forecast window", lastHour)
	}

	dayForecast := DayForecast{
		Temperature: make(map[string]float64),
		Humidity:    make(map[string]float64),
		AirPressure: make(map[string]float64),
	}

	row := initial
	row.Room, row.Day = room, day
	for _, hour := range Hours[start+1:] {
		row.Hour = hour

		prediction, err := regressor.Predict(row.Encode())
		if err != nil {
			return Forecast{}, fmt.Errorf("cannot predict %v %v: %w", day, hour, err)
		}
		prediction = math.Round(prediction*10) / 10

		dayForecast.Temperature[hour] = prediction
		dayForecast.Humidity[hour] = row.Humidity
		dayForecast.AirPressure[hour] = row.AirPressure

		row.Temperature = prediction
	}

	return Forecast{
		Room: RoomForecast{
			Name: room,
			Id:   room,
			Days: map[string]DayForecast{day: dayForecast},
		},
	}, nil
}
