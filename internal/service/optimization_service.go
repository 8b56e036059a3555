package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/limaJavier/roomassign/internal/dto"
	"github.com/limaJavier/roomassign/pkg/dates"
	appErrors "github.com/limaJavier/roomassign/pkg/errors"
	"github.com/limaJavier/roomassign/pkg/forecast"
	"github.com/limaJavier/roomassign/pkg/model"
)

const (
	messageNoLessons = "No lessons found for the specified period"
	messageOptimized = "Room assignments optimized successfully"
	messageFailed    = "Optimization failed - no feasible solution found"
)

type lessonStore interface {
	ListBetween(ctx context.Context, start, end time.Time) ([]model.Lesson, error)
	UpdateRoom(ctx context.Context, lessonId, roomId string) (bool, error)
}

type roomStore interface {
	ListEnabled(ctx context.Context) ([]model.Room, error)
	Get(ctx context.Context, id string) (*model.Room, error)
}

type roomForecaster interface {
	Model(ctx context.Context) (forecast.Regressor, error)
	ForecastDay(ctx context.Context, regressor forecast.Regressor, room model.Room, at time.Time, students int) (forecast.Forecast, error)
}

type hourlySensorReader interface {
	HourlyRoomData(ctx context.Context, roomId string, at time.Time) (forecast.HourlyReading, error)
}

// OptimizationConfig governs the service behaviour.
type OptimizationConfig struct {
	Location *time.Location // Zone of date-only request bounds
	Clock    func() time.Time
}

// OptimizationService loads lessons and rooms, runs the room optimizer and stores the resulting assignments.
type OptimizationService struct {
	lessons    lessonStore
	rooms      roomStore
	optimizer  model.RoomOptimizer
	forecaster roomForecaster
	sensors    hourlySensorReader
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	location   *time.Location
	clock      func() time.Time
}

func NewOptimizationService(
	lessons lessonStore,
	rooms roomStore,
	optimizer model.RoomOptimizer,
	forecaster roomForecaster,
	sensors hourlySensorReader,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg OptimizationConfig,
) *OptimizationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &OptimizationService{
		lessons:    lessons,
		rooms:      rooms,
		optimizer:  optimizer,
		forecaster: forecaster,
		sensors:    sensors,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		location:   cfg.Location,
		clock:      cfg.Clock,
	}
}

// WeeklyPlanning optimizes and stores the room of every lesson starting within the requested days.
// A failed optimization returns the summary together with an ErrInfeasible error
func (s *OptimizationService) WeeklyPlanning(ctx context.Context, req dto.WeeklyPlanningRequest) (*dto.OptimizationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "missing required fields: start_date, end_date")
	}
	start, end, err := dates.ParseDateRange(req.StartDate, req.EndDate, s.location)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date range")
	}
	return s.planRange(ctx, start, end, req.Preferences)
}

// OptimizeWeek is WeeklyPlanning over the Monday to Sunday range of a numbered week.
func (s *OptimizationService) OptimizeWeek(ctx context.Context, req dto.WeekRequest) (*dto.OptimizationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid week payload")
	}
	start, end, err := dates.WeekRange(req.Year, req.Week, s.location)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid week")
	}
	return s.planRange(ctx, start, end, req.Preferences)
}

// OptimizeBundle optimizes caller-provided rooms and lessons. Nothing is stored
func (s *OptimizationService) OptimizeBundle(ctx context.Context, req dto.BundleRequest) (*dto.OptimizationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid optimization bundle")
	}
	input, err := model.ProcessRawInput(bundleInput(req))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid optimization bundle")
	}

	response, result, err := s.optimize(ctx, input)
	if err != nil {
		return response, err
	}
	response.LessonsOptimized = len(result.Assignments)
	return response, nil
}

// PredictRoom forecasts the rest of the day of at for a room next to the conditions measured in the hour holding at.
// An empty at means now
func (s *OptimizationService) PredictRoom(ctx context.Context, roomId, at string, students int) (*dto.RoomPredictionResponse, error) {
	instant := s.clock().In(s.location)
	if at != "" {
		parsed, err := dates.Parse(at, s.location)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid at timestamp")
		}
		instant = parsed
	}
	if students < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "students must be non-negative")
	}

	room, err := s.rooms.Get(ctx, roomId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}

	regressor, err := s.forecaster.Model(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForecastUnavailable.Code, appErrors.ErrForecastUnavailable.Status, appErrors.ErrForecastUnavailable.Message)
	}
	prediction, err := s.forecaster.ForecastDay(ctx, regressor, *room, instant, students)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to forecast room")
	}
	current, err := s.sensors.HourlyRoomData(ctx, roomId, instant)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sensor data")
	}

	return &dto.RoomPredictionResponse{
		RoomId:   room.Id,
		RoomName: room.Name,
		At:       instant,
		Current:  current,
		Forecast: prediction,
	}, nil
}

func (s *OptimizationService) planRange(ctx context.Context, start, end time.Time, rawPreferences map[string]any) (*dto.OptimizationResponse, error) {
	preferences, err := model.PreferencesFromMap(rawPreferences)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preferences")
	}
	dateRange := &dto.DateRange{Start: start, End: end}

	lessons, err := s.lessons.ListBetween(ctx, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
	}
	if len(lessons) == 0 {
		return &dto.OptimizationResponse{
			RunId:     uuid.NewString(),
			Message:   messageNoLessons,
			DateRange: dateRange,
			Timestamp: s.clock(),
		}, nil
	}

	rooms, err := s.rooms.ListEnabled(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}

	response, result, err := s.optimize(ctx, model.Input{Rooms: rooms, Lessons: lessons, Preferences: preferences})
	if response != nil {
		response.DateRange = dateRange
	}
	if err != nil {
		return response, err
	}

	//** Store assignments
	for _, assignment := range result.Assignments {
		updated, err := s.lessons.UpdateRoom(ctx, assignment.Lesson.Id, assignment.Room.Id)
		if err != nil {
			s.logger.Error("storing room assignment failed",
				zap.String("run_id", response.RunId),
				zap.String("lesson_id", assignment.Lesson.Id),
				zap.Error(err),
			)
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store room assignments")
		}
		if updated {
			response.LessonsOptimized++
		}
	}

	s.logger.Info("room assignments stored",
		zap.String("run_id", response.RunId),
		zap.Int("updated", response.LessonsOptimized),
		zap.Int("total", len(lessons)),
	)
	return response, nil
}

// optimize runs the optimizer and summarises the result. A non-success status yields both a response and ErrInfeasible
func (s *OptimizationService) optimize(ctx context.Context, input model.Input) (*dto.OptimizationResponse, model.Result, error) {
	runId := uuid.NewString()
	logger := s.logger.With(zap.String("run_id", runId))
	logger.Info("optimization started", zap.Int("lessons", len(input.Lessons)), zap.Int("rooms", len(input.Rooms)))

	start := time.Now()
	result, err := s.optimizer.Optimize(ctx, input)
	if err != nil {
		logger.Error("optimization failed", zap.Error(err))
		return nil, model.Result{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "optimization failed")
	}
	s.metrics.ObserveOptimization(result.Status.String(), len(result.Assignments), time.Since(start))

	response := &dto.OptimizationResponse{
		RunId:        runId,
		Status:       result.Status.String(),
		TotalLessons: len(input.Lessons),
		SolverStats:  result.Stats,
		Objective:    result.Objective,
		Assignments:  result.Assignments,
		Unassigned:   result.Unassigned,
		Bottlenecks:  result.Bottlenecks,
		Timestamp:    s.clock(),
	}

	if !result.Status.Succeeded() && result.Status != model.StatusEmpty {
		response.Message = messageFailed
		logger.Warn("no feasible room assignment",
			zap.Stringer("status", result.Status),
			zap.Int("bottlenecks", len(result.Bottlenecks)),
		)
		return response, result, appErrors.ErrInfeasible
	}

	if err := s.optimizer.Verify(input, result); err != nil {
		logger.Error("optimizer produced an invalid assignment", zap.Error(err))
		return nil, model.Result{}, appErrors.Wrap(err, appErrors.ErrInvalidAssignment.Code, appErrors.ErrInvalidAssignment.Status, appErrors.ErrInvalidAssignment.Message)
	}

	response.Message = messageOptimized
	if result.Status == model.StatusEmpty {
		response.Message = result.Message
	}
	return response, result, nil
}

func bundleInput(req dto.BundleRequest) model.RawInput {
	return model.RawInput{
		Rooms: lo.Map(req.Rooms, func(room dto.BundleRoomRequest, _ int) model.Room {
			return model.Room{
				Id:        room.Id,
				Name:      room.Name,
				Capacity:  room.Capacity,
				Building:  room.Building,
				Floor:     room.Floor,
				HasAC:     room.HasAC,
				HasHeater: room.HasHeater,
			}
		}),
		Lessons: lo.Map(req.Lessons, func(lesson dto.BundleLessonRequest, _ int) model.RawLesson {
			return model.RawLesson{
				Id:           lesson.Id,
				Title:        lesson.Title,
				StartTime:    lesson.StartTime,
				EndTime:      lesson.EndTime,
				StudentCount: lesson.StudentCount,
				RoomId:       lesson.RoomId,
				ClassId:      lesson.ClassId,
				ClassName:    lesson.ClassName,
				TeacherName:  lesson.TeacherName,
			}
		}),
		Preferences: req.Preferences,
	}
}
