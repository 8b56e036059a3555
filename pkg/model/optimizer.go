package model

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/limaJavier/roomassign/pkg/sat"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const DefaultHorizon = 7 * 24 * time.Hour

type RoomOptimizer interface {
	Optimize(ctx context.Context, input Input) (Result, error)

	Verify(input Input, result Result) error
}

// TemperaturePredictor estimates the average temperature of every (lesson, room) pair.
// Lessons starting after horizon are not forecast. Entries left out or set to NaN are treated as unknown
type TemperaturePredictor interface {
	Predict(ctx context.Context, rooms []Room, lessons []Lesson, horizon time.Time) [][]float64
}

type Options struct {
	Predictor TemperaturePredictor // Optional: without it every pair uses DefaultTemperature
	Logger    *zap.Logger
	Clock     func() time.Time
	Horizon   time.Duration
}

type satOptimizer struct {
	solver    sat.Solver
	predictor TemperaturePredictor
	logger    *zap.Logger
	clock     func() time.Time
	horizon   time.Duration
}

func NewOptimizer(solver sat.Solver, options Options) RoomOptimizer {
	optimizer := satOptimizer{
		solver:    solver,
		predictor: options.Predictor,
		logger:    options.Logger,
		clock:     options.Clock,
		horizon:   options.Horizon,
	}
	if optimizer.logger == nil {
		optimizer.logger = zap.NewNop()
	}
	if optimizer.clock == nil {
		optimizer.clock = time.Now
	}
	if optimizer.horizon <= 0 {
		optimizer.horizon = DefaultHorizon
	}
	return &optimizer
}

func (optimizer *satOptimizer) Optimize(ctx context.Context, input Input) (Result, error) {
	if err := input.Validate(); err != nil {
		return Result{}, err
	}

	//** Short-circuit on empty input
	if len(input.Lessons) == 0 {
		optimizer.logger.Info("no lessons to optimize")
		return Result{
			Status:      StatusEmpty,
			Assignments: []Assignment{},
			Message:     "No lessons to optimize",
		}, nil
	}

	totalLessons, totalRooms := uint64(len(input.Lessons)), uint64(len(input.Rooms))
	horizon := optimizer.clock().Add(optimizer.horizon)

	//** Initialize dependencies
	state := constraintState{
		evaluator: newPredicateEvaluator(input, horizon),
		indexer:   newIndexer(totalLessons, totalRooms),
		logger:    optimizer.logger,
		input:     input,
		lessons:   totalLessons,
		rooms:     totalRooms,
	}

	//** Build hard constraints
	constraints := []func(state constraintState) []sat.Constraint{
		capacityConstraints,
		overlapConstraints,
	}
	problem := sat.Problem{Variables: state.indexer.Variables()}
	for _, constraint := range constraints {
		problem.Constraints = append(problem.Constraints, constraint(state)...)
	}

	//** Build objective
	objective := objectiveState{
		constraintState: state,
		predictions:     optimizer.predict(ctx, input, horizon),
		preferences:     input.Preferences,
	}
	terms := []func(state objectiveState) []sat.Term{
		capacityFitTerms,
		equipmentTerms,
		temperatureTerms,
	}
	for _, family := range terms {
		problem.Objective = append(problem.Objective, lo.Filter(family(objective), func(term sat.Term, _ int) bool {
			return term.Coefficient != 0
		})...)
	}

	optimizer.logger.Debug("optimization model built",
		zap.Uint64("variables", problem.Variables),
		zap.Int("constraints", len(problem.Constraints)),
		zap.Int("objective_terms", len(problem.Objective)),
	)

	//** Solve
	solution, err := optimizer.solver.Solve(ctx, &problem)
	if err != nil {
		return Result{}, fmt.Errorf("solver failed: %w", err)
	}
	stats := newSolverStats(solution.Stats.Conflicts, solution.Stats.Branches, solution.Stats.WallTime)

	status := StatusInfeasible
	switch solution.Status {
	case sat.Optimal:
		status = StatusOptimal
	case sat.Feasible:
		status = StatusFeasible
	}

	optimizer.logger.Info("solver finished",
		zap.Stringer("solver_status", solution.Status),
		zap.Stringer("status", status),
		zap.Int64("conflicts", stats.Conflicts),
		zap.Int64("branches", stats.Branches),
		zap.Float64("wall_time", stats.WallTime),
	)

	if !status.Succeeded() {
		return Result{
			Status:      status,
			Assignments: []Assignment{},
			Stats:       stats,
			Bottlenecks: findBottlenecks(state),
			Message:     fmt.Sprintf("No feasible room assignment found (solver status: %v)", solution.Status),
		}, nil
	}

	//** Extract assignments
	assignments, unassigned := extractAssignments(solution, state, input.Preferences)

	return Result{
		Status:      status,
		Assignments: assignments,
		Stats:       stats,
		Objective:   solution.Objective,
		Unassigned:  unassigned,
		Message:     fmt.Sprintf("Optimized %v of %v lessons", len(assignments), len(input.Lessons)),
	}, nil
}

func (optimizer *satOptimizer) Verify(input Input, result Result) error {
	return Verify(input, result)
}

// predict returns a full (lesson x room) temperature grid, filling every unknown entry with DefaultTemperature
func (optimizer *satOptimizer) predict(ctx context.Context, input Input, horizon time.Time) [][]float64 {
	var predicted [][]float64
	if optimizer.predictor != nil && len(input.Rooms) > 0 {
		predicted = optimizer.predictor.Predict(ctx, input.Rooms, input.Lessons, horizon)
	}

	defaulted := 0
	predictions := make([][]float64, len(input.Lessons))
	for lesson := range input.Lessons {
		predictions[lesson] = make([]float64, len(input.Rooms))
		for room := range input.Rooms {
			value := math.NaN()
			if lesson < len(predicted) && room < len(predicted[lesson]) {
				value = predicted[lesson][room]
			}
			if math.IsNaN(value) || math.IsInf(value, 0) {
				value = DefaultTemperature
				defaulted++
			}
			predictions[lesson][room] = value
		}
	}

	if defaulted > 0 {
		optimizer.logger.Debug("temperature predictions defaulted",
			zap.Int("pairs", defaulted),
			zap.Float64("temperature", DefaultTemperature),
		)
	}
	return predictions
}
