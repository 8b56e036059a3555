package sat

import (
	"context"
	"time"

	gophersat "github.com/crillab/gophersat/solver"
	"github.com/samber/lo"
)

type gophersatSolver struct {
	timeLimit time.Duration
}

// NewGophersatSolver returns an in-process pseudo-boolean optimizer. A non-positive timeLimit disables the wall-clock cutoff
func NewGophersatSolver(timeLimit time.Duration) Solver {
	return &gophersatSolver{timeLimit: timeLimit}
}

func (solver *gophersatSolver) Solve(ctx context.Context, problem *Problem) (Solution, error) {
	start := time.Now()

	//** Translate constraints
	constraints := make([]gophersat.PBConstr, 0, len(problem.Constraints))
	referenced := make(map[int64]bool)
	for _, constraint := range problem.Constraints {
		if constraint.Trivial() {
			continue
		}
		literals := lo.Map(constraint.Literals, func(literal int64, _ int) int {
			referenced[abs(literal)] = true
			return int(literal)
		})
		weights := make([]int, len(literals))
		for i := range literals {
			weights[i] = int(constraint.weight(i))
		}
		constraints = append(constraints, gophersat.GtEq(literals, weights, int(constraint.AtLeast)))
	}

	// Variables no constraint mentions are set to whatever improves the objective
	free := lo.Filter(problem.Objective, func(term Term, _ int) bool { return !referenced[term.Variable] })
	if len(constraints) == 0 {
		return freeSolution(problem, free, start), nil
	}

	instance := gophersat.ParsePBConstrs(constraints)

	//** Translate objective: maximizing sum(c*x) is minimizing sum(c*~x) for c > 0
	costLiterals, costWeights := make([]gophersat.Lit, 0, len(problem.Objective)), make([]int, 0, len(problem.Objective))
	for _, term := range problem.Objective {
		if term.Coefficient == 0 || !referenced[term.Variable] {
			continue
		}
		if term.Coefficient > 0 {
			costLiterals = append(costLiterals, gophersat.IntToLit(int32(-term.Variable)))
			costWeights = append(costWeights, int(term.Coefficient))
		} else {
			costLiterals = append(costLiterals, gophersat.IntToLit(int32(term.Variable)))
			costWeights = append(costWeights, int(-term.Coefficient))
		}
	}
	if len(costLiterals) > 0 {
		instance.SetCostFunc(costLiterals, costWeights)
	}

	//** Search under the wall-clock limit and the caller's context
	if solver.timeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, solver.timeLimit)
		defer cancel()
	}

	engine := gophersat.New(instance)
	results := make(chan gophersat.Result)
	final := make(chan gophersat.Result, 1)
	// Optimal never checks its stop channel. When the deadline comes first the search is abandoned:
	// it keeps running detached until it ends on its own, and its results are drained meanwhile
	go func(results chan gophersat.Result) { final <- engine.Optimal(results, nil) }(results)

	var incumbent *gophersat.Result
	for {
		select {
		case result, ok := <-results:
			if !ok {
				results = nil
			} else if result.Status == gophersat.Sat {
				incumbent = &result
			}
		case result := <-final:
			return completedSolution(problem, engine, result, free, start), nil
		case <-ctx.Done():
			select {
			case result := <-final:
				return completedSolution(problem, engine, result, free, start), nil
			default:
			}
			if results != nil {
				go func(results <-chan gophersat.Result) {
					for range results {
					}
				}(results)
			}
			return interruptedSolution(problem, incumbent, len(costLiterals) > 0, free, start), nil
		}
	}
}

// completedSolution reads the engine counters, which is safe only once Optimal has returned
func completedSolution(problem *Problem, engine *gophersat.Solver, result gophersat.Result, free []Term, start time.Time) Solution {
	solution := Solution{
		Stats: Stats{
			Conflicts: int64(engine.Stats.NbConflicts),
			Branches:  int64(engine.Stats.NbDecisions),
			WallTime:  time.Since(start),
		},
	}
	switch result.Status {
	case gophersat.Sat:
		solution.Status = Optimal
		solution.Values = modelValues(problem, result.Model, free)
		solution.Objective = problem.ObjectiveValue(solution.Values)
	case gophersat.Unsat:
		solution.Status = Infeasible
	default:
		solution.Status = Unknown
	}
	return solution
}

// interruptedSolution reports the best model found before the deadline as Feasible, or Unknown when there is none
func interruptedSolution(problem *Problem, incumbent *gophersat.Result, optimizing bool, free []Term, start time.Time) Solution {
	solution := Solution{
		Status: Unknown,
		Stats:  Stats{WallTime: time.Since(start)},
	}
	if incumbent == nil {
		return solution
	}
	solution.Status = Feasible
	if !optimizing {
		solution.Status = Optimal // Every model of a decision problem is optimal
	}
	solution.Values = modelValues(problem, incumbent.Model, free)
	solution.Objective = problem.ObjectiveValue(solution.Values)
	return solution
}

func modelValues(problem *Problem, model []bool, free []Term) []bool {
	values := make([]bool, problem.Variables)
	copy(values, model)
	for _, term := range free {
		values[term.Variable-1] = term.Coefficient > 0
	}
	return values
}

func freeSolution(problem *Problem, free []Term, start time.Time) Solution {
	values := modelValues(problem, nil, free)
	return Solution{
		Status:    Optimal,
		Values:    values,
		Objective: problem.ObjectiveValue(values),
		Stats:     Stats{WallTime: time.Since(start)},
	}
}

func abs(literal int64) int64 {
	if literal < 0 {
		return -literal
	}
	return literal
}
