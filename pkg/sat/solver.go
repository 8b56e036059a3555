package sat

import (
	"context"
	"time"
)

type Solver interface {
	// Returns the best assignment found for the problem. An infeasible or undecided instance is a valid output
	// (reported through Solution.Status) where error shall be nil; error is reserved for backend failures
	Solve(ctx context.Context, problem *Problem) (Solution, error)
}

type Status int

const (
	Unknown Status = iota
	Optimal
	Feasible
	Infeasible
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "optimal"
	case Feasible:
		return "feasible"
	case Infeasible:
		return "infeasible"
	default:
		return "unknown"
	}
}

// Stats are the search counters reported by a backend
type Stats struct {
	Conflicts int64
	Branches  int64
	WallTime  time.Duration
}

type Solution struct {
	Status    Status
	Values    []bool // Values[v-1] is the binding of variable v
	Objective int64
	Stats     Stats
}

// Value returns the binding of a variable; unbound variables read as false
func (s Solution) Value(variable int64) bool {
	index := int(variable - 1)
	return index >= 0 && index < len(s.Values) && s.Values[index]
}

// Solved reports whether the solution carries an assignment satisfying every constraint
func (s Solution) Solved() bool {
	return s.Status == Optimal || s.Status == Feasible
}
