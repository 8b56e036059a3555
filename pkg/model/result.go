package model

import (
	"fmt"
	"time"
)

type Status int

const (
	StatusEmpty Status = iota
	StatusInfeasible
	StatusFeasible
	StatusOptimal
)

var statusNames = map[Status]string{
	StatusEmpty:      "empty",
	StatusInfeasible: "infeasible",
	StatusFeasible:   "feasible",
	StatusOptimal:    "optimal",
}

func (status Status) String() string {
	if name, ok := statusNames[status]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(status))
}

// Succeeded reports whether the status carries a usable assignment
func (status Status) Succeeded() bool {
	return status == StatusOptimal || status == StatusFeasible
}

func (status Status) MarshalText() ([]byte, error) {
	if _, ok := statusNames[status]; !ok {
		return nil, fmt.Errorf("unknown status %d", int(status))
	}
	return []byte(status.String()), nil
}

func (status *Status) UnmarshalText(text []byte) error {
	for candidate, name := range statusNames {
		if name == string(text) {
			*status = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", string(text))
}

type SolverStats struct {
	Conflicts int64   `json:"conflicts"`
	Branches  int64   `json:"branches"`
	WallTime  float64 `json:"wall_time"` // Seconds
}

func newSolverStats(conflicts, branches int64, wallTime time.Duration) *SolverStats {
	return &SolverStats{
		Conflicts: conflicts,
		Branches:  branches,
		WallTime:  wallTime.Seconds(),
	}
}

type Scores struct {
	CapacityFit float64 `json:"capacity_fit"`
	Equipment   float64 `json:"equipment"`
	Temperature float64 `json:"temperature"`
	Overall     float64 `json:"overall"`
}

type Assignment struct {
	Lesson Lesson `json:"lesson"`
	Room   Room   `json:"assigned_room"`
	Scores Scores `json:"scores"`
}

// Bottleneck is a set of lessons running at the same instant that cannot all be seated in distinct fitting rooms
type Bottleneck struct {
	At      time.Time `json:"at"`
	Lessons []string  `json:"lessons"`
	Rooms   int       `json:"rooms"` // Maximum number of those lessons that can be seated simultaneously
}

type Result struct {
	Status      Status       `json:"status"`
	Assignments []Assignment `json:"assignments"`
	Stats       *SolverStats `json:"solver_stats,omitempty"` // Nil only for StatusEmpty
	Objective   int64        `json:"objective"`
	Unassigned  []string     `json:"unassigned,omitempty"` // Lessons without any room (ids)
	Bottlenecks []Bottleneck `json:"bottlenecks,omitempty"`
	Message     string       `json:"message,omitempty"`
}
