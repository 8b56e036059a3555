package dto

import (
	"time"

	"github.com/limaJavier/roomassign/pkg/forecast"
	"github.com/limaJavier/roomassign/pkg/model"
)

// WeeklyPlanningRequest optimizes the stored lessons starting between two dates (inclusive, whole days).
type WeeklyPlanningRequest struct {
	StartDate   string         `json:"start_date" validate:"required"`
	EndDate     string         `json:"end_date" validate:"required"`
	Preferences map[string]any `json:"preferences"`
}

// WeekRequest optimizes the stored lessons of one numbered week.
type WeekRequest struct {
	Year        int            `json:"year" validate:"required,min=1970,max=9999"`
	Week        int            `json:"week" validate:"required,min=1,max=53"`
	Preferences map[string]any `json:"preferences"`
}

// BundleLessonRequest is a lesson of an explicit bundle. Timestamps are ISO-8601.
type BundleLessonRequest struct {
	Id           string  `json:"id" validate:"required"`
	Title        string  `json:"title"`
	StartTime    string  `json:"start_time" validate:"required"`
	EndTime      string  `json:"end_time" validate:"required"`
	StudentCount int     `json:"student_count" validate:"min=0"`
	RoomId       *string `json:"room_id"`
	ClassId      string  `json:"class_id"`
	ClassName    string  `json:"class_name"`
	TeacherName  string  `json:"teacher_name"`
}

type BundleRoomRequest struct {
	Id        string `json:"id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Capacity  int    `json:"capacity" validate:"min=0"`
	Building  string `json:"building"`
	Floor     int    `json:"floor"`
	HasAC     bool   `json:"hasAC"`
	HasHeater bool   `json:"hasHeater"`
}

// BundleRequest optimizes rooms and lessons sent by the caller without touching the database.
type BundleRequest struct {
	Rooms       []BundleRoomRequest   `json:"rooms" validate:"dive"`
	Lessons     []BundleLessonRequest `json:"lessons" validate:"dive"`
	Preferences map[string]any        `json:"preferences"`
}

type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// OptimizationResponse summarises an optimization run.
type OptimizationResponse struct {
	RunId            string             `json:"runId"`
	Message          string             `json:"message"`
	Status           string             `json:"status,omitempty"`
	LessonsOptimized int                `json:"lessonsOptimized"`
	TotalLessons     int                `json:"totalLessons"`
	DateRange        *DateRange         `json:"dateRange,omitempty"`
	SolverStats      *model.SolverStats `json:"solverStats,omitempty"`
	Objective        int64              `json:"objective"`
	Assignments      []model.Assignment `json:"assignments,omitempty"`
	Unassigned       []string           `json:"unassigned,omitempty"`
	Bottlenecks      []model.Bottleneck `json:"bottlenecks,omitempty"`
	Timestamp        time.Time          `json:"timestamp"`
}

// RoomPredictionResponse exposes the forecast of a room for the rest of a day next to its measured conditions.
type RoomPredictionResponse struct {
	RoomId   string                 `json:"roomId"`
	RoomName string                 `json:"roomName"`
	At       time.Time              `json:"at"`
	Current  forecast.HourlyReading `json:"current"`
	Forecast forecast.Forecast      `json:"forecast"`
}
