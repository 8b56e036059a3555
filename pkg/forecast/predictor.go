package forecast

import (
	"context"
	"errors"
	"time"

	"github.com/limaJavier/roomassign/pkg/model"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

var errNoForecastHours = errors.New("no forecast hour falls within the lesson")

type Options struct {
	Logger *zap.Logger
	// OnFallback is called whenever a pair falls back to the default temperature
	OnFallback func(reason string)
}

// Predictor estimates lesson temperatures from the latest sensor readings and the regression model
type Predictor struct {
	loader     ModelLoader
	sensors    SensorSource
	logger     *zap.Logger
	onFallback func(reason string)
}

func NewPredictor(loader ModelLoader, sensors SensorSource, options Options) *Predictor {
	predictor := Predictor{
		loader:     loader,
		sensors:    sensors,
		logger:     options.Logger,
		onFallback: options.OnFallback,
	}
	if predictor.logger == nil {
		predictor.logger = zap.NewNop()
	}
	if predictor.onFallback == nil {
		predictor.onFallback = func(string) {}
	}
	return &predictor
}

// Predict implements model.TemperaturePredictor. A missing model yields no predictions at all
func (predictor *Predictor) Predict(ctx context.Context, rooms []model.Room, lessons []model.Lesson, horizon time.Time) [][]float64 {
	regressor, err := predictor.loader.Load(ctx)
	if err != nil {
		predictor.logger.Warn("temperature-aware scoring disabled", zap.Error(err))
		predictor.onFallback("model_unavailable")
		return nil
	}
	predictor.logger.Debug("temperature model loaded")

	predictions := make([][]float64, len(lessons))
	for i, lesson := range lessons {
		predictions[i] = make([]float64, len(rooms))

		if lesson.Start.After(horizon) {
			for j := range rooms {
				predictions[i][j] = model.DefaultTemperature
			}
			continue
		}

		for j, room := range rooms {
			temperature, err := predictor.PredictLesson(ctx, regressor, room, lesson)
			if err != nil {
				predictor.logger.Warn("temperature prediction failed",
					zap.String("room", room.Name),
					zap.String("lesson_id", lesson.Id),
					zap.Error(err),
				)
				predictor.onFallback("prediction_failed")
				temperature = model.DefaultTemperature
			}
			predictions[i][j] = temperature
		}
	}

	return predictions
}

// PredictLesson averages the forecast temperature over every hour bucket from the lesson's start hour to its end hour inclusive
func (predictor *Predictor) PredictLesson(ctx context.Context, regressor Regressor, room model.Room, lesson model.Lesson) (float64, error) {
	forecast, err := predictor.ForecastDay(ctx, regressor, room, lesson.Start, lesson.StudentCount)
	if err != nil {
		return 0, err
	}

	day := DayName(lesson.Start)
	temperatures := make([]float64, 0)
	for hour := hourStart(lesson.Start); !hour.After(hourStart(lesson.End)); hour = hour.Add(time.Hour) {
		if temperature, ok := forecast.Temperature(day, HourBucket(hour)); ok {
			temperatures = append(temperatures, temperature)
		}
	}
	if len(temperatures) == 0 {
		return 0, errNoForecastHours
	}

	return lo.Sum(temperatures) / float64(len(temperatures)), nil
}

// ForecastDay forecasts the rest of the day of at for room, starting from the latest reading before at
func (predictor *Predictor) ForecastDay(ctx context.Context, regressor Regressor, room model.Room, at time.Time, students int) (Forecast, error) {
	reading, err := predictor.sensors.LatestRoomData(ctx, room.Id, at)
	if err != nil {
		return Forecast{}, err
	}

	lastHour := DefaultLastHour
	if reading.TemperatureSavedAt != nil {
		lastHour = HourBucket(*reading.TemperatureSavedAt)
	}

	day := DayName(at)
	initial := FeatureRow{
		Room:               room.Name,
		Day:                day,
		Hour:               lastHour,
		Temperature:        reading.Temperature,
		Humidity:           reading.Humidity,
		AirPressure:        reading.AirPressure,
		CapacityPercentage: CapacityPercentage(students, room.Capacity),
		OutdoorTemperature: reading.OutdoorTemperature,
	}
	return PredictRemainingDay(regressor, room.Name, day, lastHour, initial)
}

func CapacityPercentage(students, capacity int) float64 {
	if capacity <= 0 {
		return 0
	}
	return float64(students) / float64(capacity) * 100
}

// Model exposes the cached regressor for callers that forecast outside of an optimization
func (predictor *Predictor) Model(ctx context.Context) (Regressor, error) {
	return predictor.loader.Load(ctx)
}
