package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/limaJavier/roomassign/internal/dto"
	"github.com/limaJavier/roomassign/internal/service"
	appErrors "github.com/limaJavier/roomassign/pkg/errors"
	"github.com/limaJavier/roomassign/pkg/response"
)

// RunIdHeader carries the id of the optimization run, matching the run_id field of the server logs
const RunIdHeader = "X-Optimization-Run-ID"

type roomOptimizer interface {
	WeeklyPlanning(ctx context.Context, req dto.WeeklyPlanningRequest) (*dto.OptimizationResponse, error)
	OptimizeWeek(ctx context.Context, req dto.WeekRequest) (*dto.OptimizationResponse, error)
	OptimizeBundle(ctx context.Context, req dto.BundleRequest) (*dto.OptimizationResponse, error)
	PredictRoom(ctx context.Context, roomId, at string, students int) (*dto.RoomPredictionResponse, error)
}

// OptimizationHandler exposes room optimization and room forecast endpoints.
type OptimizationHandler struct {
	service roomOptimizer
}

func NewOptimizationHandler(svc *service.OptimizationService) *OptimizationHandler {
	return &OptimizationHandler{service: svc}
}

// WeeklyPlanning optimizes and stores the rooms of the lessons between start_date and end_date.
func (h *OptimizationHandler) WeeklyPlanning(c *gin.Context) {
	var req dto.WeeklyPlanningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid weekly planning payload"))
		return
	}
	result, err := h.service.WeeklyPlanning(c.Request.Context(), req)
	respond(c, result, err)
}

// Week optimizes and stores the rooms of one numbered week.
func (h *OptimizationHandler) Week(c *gin.Context) {
	var req dto.WeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid week payload"))
		return
	}
	result, err := h.service.OptimizeWeek(c.Request.Context(), req)
	respond(c, result, err)
}

// Bundle optimizes an explicit set of rooms and lessons.
func (h *OptimizationHandler) Bundle(c *gin.Context) {
	var req dto.BundleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid optimization bundle"))
		return
	}
	result, err := h.service.OptimizeBundle(c.Request.Context(), req)
	respond(c, result, err)
}

// PredictRoom forecasts the conditions of a room for the rest of the day of the optional at query.
func (h *OptimizationHandler) PredictRoom(c *gin.Context) {
	students := 0
	if raw := c.Query("students"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "students must be an integer"))
			return
		}
		students = parsed
	}

	result, err := h.service.PredictRoom(c.Request.Context(), c.Param("id"), c.Query("at"), students)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// respond keeps the summary of a failed optimization in the error envelope
func respond(c *gin.Context, result *dto.OptimizationResponse, err error) {
	if result != nil && result.RunId != "" {
		c.Header(RunIdHeader, result.RunId)
	}
	switch {
	case err != nil && result != nil:
		response.ErrorWithData(c, err, result)
	case err != nil:
		response.Error(c, err)
	default:
		response.OK(c, result)
	}
}
