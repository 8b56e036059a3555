package model

type predicateEvaluator interface {
	// Checks whether the lesson's student count is smaller than or equal to the room's capacity (i.e. the lesson fits in the room)
	Fits(lesson, room uint64) bool

	// Checks whether the time intervals of lesson1 and lesson2 intersect
	Overlap(lesson1, lesson2 uint64) bool

	// Checks whether the lesson starts after the prediction horizon
	BeyondHorizon(lesson uint64) bool
}
