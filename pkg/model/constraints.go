package model

import (
	"github.com/limaJavier/roomassign/pkg/sat"
	"go.uber.org/zap"
)

type constraintState struct {
	evaluator predicateEvaluator
	indexer   indexer
	logger    *zap.Logger
	input     Input

	lessons,
	rooms uint64
}

// capacityConstraints forbids every (lesson, room) pair where the lesson does not fit and requires exactly one of the remaining rooms.
// Lessons without any fitting room are left unconstrained (and therefore unassigned)
func capacityConstraints(state constraintState) []sat.Constraint {
	constraints := make([]sat.Constraint, 0)

	for lesson := range state.lessons {
		valid := make([]int64, 0, state.rooms)
		for room := range state.rooms {
			variable := int64(state.indexer.Index(lesson, room))
			if state.evaluator.Fits(lesson, room) {
				valid = append(valid, variable)
			} else {
				constraints = append(constraints, sat.Forbid(variable))
			}
		}

		if len(valid) == 0 {
			state.logger.Warn("lesson cannot be seated in any room",
				zap.String("lesson_id", state.input.Lessons[lesson].Id),
				zap.String("title", state.input.Lessons[lesson].Title),
				zap.Int("student_count", state.input.Lessons[lesson].StudentCount),
			)
			continue
		}
		constraints = append(constraints, sat.ExactlyOne(valid)...)
	}

	return constraints
}

// overlapConstraints states x(i1, j) + x(i2, j) <= 1 for every room j and every pair of overlapping lessons i1 < i2
func overlapConstraints(state constraintState) []sat.Constraint {
	constraints := make([]sat.Constraint, 0)

	for lesson1 := range state.lessons {
		for lesson2 := lesson1 + 1; lesson2 < state.lessons; lesson2++ {
			if !state.evaluator.Overlap(lesson1, lesson2) {
				continue
			}
			for room := range state.rooms {
				// Pairs already forbidden by capacity need no overlap constraint
				if !state.evaluator.Fits(lesson1, room) || !state.evaluator.Fits(lesson2, room) {
					continue
				}
				constraints = append(constraints, sat.AtMost([]int64{
					int64(state.indexer.Index(lesson1, room)),
					int64(state.indexer.Index(lesson2, room)),
				}, 1))
			}
		}
	}

	return constraints
}
