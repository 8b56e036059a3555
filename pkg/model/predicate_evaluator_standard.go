package model

import "time"

type predicateEvaluatorStandard struct {
	input   Input
	horizon time.Time
	fits    [][]bool // Fitness matrix (lesson x room)
}

func newPredicateEvaluator(input Input, horizon time.Time) predicateEvaluator {
	evaluator := predicateEvaluatorStandard{
		input:   input,
		horizon: horizon,
	}

	evaluator.fits = make([][]bool, len(input.Lessons))
	for i, lesson := range input.Lessons {
		evaluator.fits[i] = make([]bool, len(input.Rooms))
		for j, room := range input.Rooms {
			evaluator.fits[i][j] = room.Capacity >= lesson.StudentCount
		}
	}

	return &evaluator
}

func (evaluator *predicateEvaluatorStandard) Fits(lesson, room uint64) bool {
	return evaluator.fits[lesson][room]
}

func (evaluator *predicateEvaluatorStandard) Overlap(lesson1, lesson2 uint64) bool {
	return evaluator.input.Lessons[lesson1].Overlaps(evaluator.input.Lessons[lesson2])
}

func (evaluator *predicateEvaluatorStandard) BeyondHorizon(lesson uint64) bool {
	return evaluator.input.Lessons[lesson].Start.After(evaluator.horizon)
}
