package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limaJavier/roomassign/internal/dto"
	appErrors "github.com/limaJavier/roomassign/pkg/errors"
	"github.com/limaJavier/roomassign/pkg/forecast"
	"github.com/limaJavier/roomassign/pkg/model"
	"github.com/limaJavier/roomassign/pkg/sat"
)

var now = time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC)

type fakeLessons struct {
	lessons []model.Lesson
	updated map[string]string
	listErr error
	from    time.Time
	to      time.Time
}

func (f *fakeLessons) ListBetween(ctx context.Context, start, end time.Time) ([]model.Lesson, error) {
	f.from, f.to = start, end
	return f.lessons, f.listErr
}

func (f *fakeLessons) UpdateRoom(ctx context.Context, lessonId, roomId string) (bool, error) {
	if f.updated == nil {
		f.updated = make(map[string]string)
	}
	f.updated[lessonId] = roomId
	return true, nil
}

type fakeRooms struct {
	rooms []model.Room
}

func (f *fakeRooms) ListEnabled(ctx context.Context) ([]model.Room, error) {
	return f.rooms, nil
}

func (f *fakeRooms) Get(ctx context.Context, id string) (*model.Room, error) {
	for _, room := range f.rooms {
		if room.Id == id {
			return &room, nil
		}
	}
	return nil, sql.ErrNoRows
}

type fakeForecaster struct {
	err error
}

func (f *fakeForecaster) Model(ctx context.Context) (forecast.Regressor, error) {
	if f.err != nil {
		return nil, f.err
	}
	return nil, nil
}

func (f *fakeForecaster) ForecastDay(ctx context.Context, regressor forecast.Regressor, room model.Room, at time.Time, students int) (forecast.Forecast, error) {
	return forecast.Forecast{Room: forecast.RoomForecast{
		Name: room.Name,
		Days: map[string]forecast.DayForecast{
			forecast.DayName(at): {Temperature: map[string]float64{"10:00": 22.5}},
		},
	}}, nil
}

type fakeHourly struct{}

func (fakeHourly) HourlyRoomData(ctx context.Context, roomId string, at time.Time) (forecast.HourlyReading, error) {
	return forecast.HourlyReading{Temperature: 21.5, Humidity: 48, AirPressure: 1012}, nil
}

func lessonAt(id string, start time.Time, students int) model.Lesson {
	return model.Lesson{Id: id, Title: id, Start: start, End: start.Add(time.Hour), StudentCount: students}
}

func newServiceFixture(lessons *fakeLessons, rooms *fakeRooms, forecaster *fakeForecaster) *OptimizationService {
	optimizer := model.NewOptimizer(sat.NewGophersatSolver(10*time.Second), model.Options{
		Clock: func() time.Time { return now },
	})
	if forecaster == nil {
		forecaster = &fakeForecaster{}
	}
	return NewOptimizationService(lessons, rooms, optimizer, forecaster, fakeHourly{}, NewMetricsService(), nil, nil, OptimizationConfig{
		Location: time.UTC,
		Clock:    func() time.Time { return now },
	})
}

func TestWeeklyPlanningStoresAssignments(t *testing.T) {
	//** Arrange
	start := time.Date(2025, 3, 11, 8, 0, 0, 0, time.UTC)
	lessons := &fakeLessons{lessons: []model.Lesson{lessonAt("math", start, 25), lessonAt("art", start, 10)}}
	rooms := &fakeRooms{rooms: []model.Room{
		{Id: "r1", Name: "A101", Capacity: 30},
		{Id: "r2", Name: "A102", Capacity: 12},
	}}
	service := newServiceFixture(lessons, rooms, nil)

	//** Act
	response, err := service.WeeklyPlanning(context.Background(), dto.WeeklyPlanningRequest{
		StartDate: "2025-03-10",
		EndDate:   "2025-03-16",
	})

	//** Assert
	require.NoError(t, err)
	assert.Equal(t, "optimal", response.Status)
	assert.Equal(t, 2, response.LessonsOptimized)
	assert.Equal(t, 2, response.TotalLessons)
	assert.Equal(t, messageOptimized, response.Message)
	assert.NotEmpty(t, response.RunId)
	require.NotNil(t, response.SolverStats)
	assert.Equal(t, map[string]string{"math": "r1", "art": "r2"}, lessons.updated)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), lessons.from)
	assert.Equal(t, time.Date(2025, 3, 16, 23, 59, 59, 999999999, time.UTC), lessons.to)
}

func TestWeeklyPlanningWithoutLessons(t *testing.T) {
	service := newServiceFixture(&fakeLessons{}, &fakeRooms{}, nil)

	response, err := service.WeeklyPlanning(context.Background(), dto.WeeklyPlanningRequest{
		StartDate: "2025-03-10",
		EndDate:   "2025-03-16",
	})

	require.NoError(t, err)
	assert.Equal(t, messageNoLessons, response.Message)
	require.NotNil(t, response.DateRange)
	assert.Empty(t, response.Status)
	assert.Zero(t, response.TotalLessons)
}

func TestWeeklyPlanningValidation(t *testing.T) {
	service := newServiceFixture(&fakeLessons{}, &fakeRooms{}, nil)

	t.Run("MissingEndDate", func(t *testing.T) {
		_, err := service.WeeklyPlanning(context.Background(), dto.WeeklyPlanningRequest{StartDate: "2025-03-10"})
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	})

	t.Run("ReversedRange", func(t *testing.T) {
		_, err := service.WeeklyPlanning(context.Background(), dto.WeeklyPlanningRequest{StartDate: "2025-03-16", EndDate: "2025-03-10"})
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	})

	t.Run("NegativeWeight", func(t *testing.T) {
		_, err := service.WeeklyPlanning(context.Background(), dto.WeeklyPlanningRequest{
			StartDate:   "2025-03-10",
			EndDate:     "2025-03-16",
			Preferences: map[string]any{"capacity_weight": -1},
		})
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	})
}

func TestWeeklyPlanningInfeasible(t *testing.T) {
	//** Arrange
	start := time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)
	lessons := &fakeLessons{lessons: []model.Lesson{lessonAt("first", start, 10), lessonAt("second", start.Add(30*time.Minute), 10)}}
	rooms := &fakeRooms{rooms: []model.Room{{Id: "r1", Name: "A101", Capacity: 30}}}
	service := newServiceFixture(lessons, rooms, nil)

	//** Act
	response, err := service.WeeklyPlanning(context.Background(), dto.WeeklyPlanningRequest{
		StartDate: "2025-03-10",
		EndDate:   "2025-03-16",
	})

	//** Assert
	assert.ErrorIs(t, err, appErrors.ErrInfeasible)
	require.NotNil(t, response)
	assert.Equal(t, "infeasible", response.Status)
	assert.Equal(t, messageFailed, response.Message)
	assert.NotNil(t, response.SolverStats)
	assert.NotNil(t, response.DateRange)
	assert.Len(t, response.Bottlenecks, 1)
	assert.Empty(t, lessons.updated)
}

func TestWeeklyPlanningLessonFailure(t *testing.T) {
	service := newServiceFixture(&fakeLessons{listErr: errors.New("connection refused")}, &fakeRooms{}, nil)

	_, err := service.WeeklyPlanning(context.Background(), dto.WeeklyPlanningRequest{StartDate: "2025-03-10", EndDate: "2025-03-16"})

	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	assert.ErrorContains(t, err, "connection refused")
}

func TestOptimizeWeek(t *testing.T) {
	lessons := &fakeLessons{}
	service := newServiceFixture(lessons, &fakeRooms{}, nil)

	_, err := service.OptimizeWeek(context.Background(), dto.WeekRequest{Year: 2025, Week: 11})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), lessons.from)
	assert.Equal(t, time.Date(2025, 3, 16, 23, 59, 59, 999999999, time.UTC), lessons.to)

	_, err = service.OptimizeWeek(context.Background(), dto.WeekRequest{Year: 2025, Week: 54})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestOptimizeBundle(t *testing.T) {
	service := newServiceFixture(&fakeLessons{}, &fakeRooms{}, nil)

	t.Run("Optimal", func(t *testing.T) {
		response, err := service.OptimizeBundle(context.Background(), dto.BundleRequest{
			Rooms: []dto.BundleRoomRequest{{Id: "r1", Name: "A101", Capacity: 30, HasAC: true}},
			Lessons: []dto.BundleLessonRequest{{
				Id:           "l1",
				StartTime:    "2025-03-11T08:00:00Z",
				EndTime:      "2025-03-11T09:00:00Z",
				StudentCount: 20,
			}},
		})

		require.NoError(t, err)
		assert.Equal(t, "optimal", response.Status)
		assert.Equal(t, 1, response.LessonsOptimized)
		require.Len(t, response.Assignments, 1)
		assert.Equal(t, "r1", response.Assignments[0].Room.Id)
		assert.Nil(t, response.DateRange)
	})

	t.Run("Empty", func(t *testing.T) {
		response, err := service.OptimizeBundle(context.Background(), dto.BundleRequest{})

		require.NoError(t, err)
		assert.Equal(t, "empty", response.Status)
		assert.Equal(t, "No lessons to optimize", response.Message)
	})

	t.Run("InvalidTimestamp", func(t *testing.T) {
		_, err := service.OptimizeBundle(context.Background(), dto.BundleRequest{
			Lessons: []dto.BundleLessonRequest{{Id: "l1", StartTime: "tomorrow", EndTime: "2025-03-11T09:00:00Z"}},
		})
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	})

	t.Run("RepeatedLessonId", func(t *testing.T) {
		lesson := dto.BundleLessonRequest{Id: "l1", StartTime: "2025-03-11T08:00:00Z", EndTime: "2025-03-11T09:00:00Z", StudentCount: 10}
		later := lesson
		later.StartTime, later.EndTime = "2025-03-11T10:00:00Z", "2025-03-11T11:00:00Z"

		_, err := service.OptimizeBundle(context.Background(), dto.BundleRequest{
			Rooms:   []dto.BundleRoomRequest{{Id: "r1", Name: "A101", Capacity: 30}},
			Lessons: []dto.BundleLessonRequest{lesson, later},
		})

		appErr := appErrors.FromError(err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
		assert.ErrorContains(t, appErr.Err, "not unique")
	})

	t.Run("MissingRoomName", func(t *testing.T) {
		_, err := service.OptimizeBundle(context.Background(), dto.BundleRequest{
			Rooms: []dto.BundleRoomRequest{{Id: "r1", Capacity: 30}},
		})
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	})
}

func TestPredictRoom(t *testing.T) {
	rooms := &fakeRooms{rooms: []model.Room{{Id: "r1", Name: "A101", Capacity: 30}}}

	t.Run("Forecast", func(t *testing.T) {
		service := newServiceFixture(&fakeLessons{}, rooms, nil)

		response, err := service.PredictRoom(context.Background(), "r1", "2025-03-11T10:15:00Z", 20)

		require.NoError(t, err)
		assert.Equal(t, "A101", response.RoomName)
		assert.Equal(t, 21.5, response.Current.Temperature)
		temperature, ok := response.Forecast.Temperature("tuesday", "10:00")
		assert.True(t, ok)
		assert.Equal(t, 22.5, temperature)
	})

	t.Run("DefaultsToNow", func(t *testing.T) {
		service := newServiceFixture(&fakeLessons{}, rooms, nil)

		response, err := service.PredictRoom(context.Background(), "r1", "", 0)

		require.NoError(t, err)
		assert.True(t, now.Equal(response.At))
	})

	t.Run("UnknownRoom", func(t *testing.T) {
		service := newServiceFixture(&fakeLessons{}, rooms, nil)

		_, err := service.PredictRoom(context.Background(), "r9", "", 0)
		assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	})

	t.Run("ModelUnavailable", func(t *testing.T) {
		service := newServiceFixture(&fakeLessons{}, rooms, &fakeForecaster{err: forecast.ErrModelUnavailable})

		_, err := service.PredictRoom(context.Background(), "r1", "", 0)
		assert.Equal(t, appErrors.ErrForecastUnavailable.Code, appErrors.FromError(err).Code)
		assert.ErrorIs(t, err, forecast.ErrModelUnavailable)
	})

	t.Run("InvalidTimestamp", func(t *testing.T) {
		service := newServiceFixture(&fakeLessons{}, rooms, nil)

		_, err := service.PredictRoom(context.Background(), "r1", "yesterday", 0)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	})
}
