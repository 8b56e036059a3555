package model

import (
	"math"
	"slices"
	"time"

	"github.com/limaJavier/roomassign/pkg/sat"
	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const placeholderTemperatureScore = 0.8 // Reported temperature sub-score; the objective uses the comfort bands instead

// extractAssignments maps every true variable back to its (lesson, room) pair. The lowest room index wins if a lesson reads true more than once
func extractAssignments(solution sat.Solution, state constraintState, preferences Preferences) (assignments []Assignment, unassigned []string) {
	assignments = make([]Assignment, 0, state.lessons)
	unassigned = make([]string, 0)

	for lesson := range state.lessons {
		room, found := lo.Find(lo.Range(int(state.rooms)), func(room int) bool {
			return solution.Value(int64(state.indexer.Index(lesson, uint64(room))))
		})
		if !found {
			state.logger.Warn("lesson left without a room",
				zap.String("lesson_id", state.input.Lessons[lesson].Id),
				zap.String("title", state.input.Lessons[lesson].Title),
			)
			unassigned = append(unassigned, state.input.Lessons[lesson].Id)
			continue
		}

		assignments = append(assignments, Assignment{
			Lesson: state.input.Lessons[lesson],
			Room:   state.input.Rooms[room],
			Scores: assignmentScores(state.input.Lessons[lesson], state.input.Rooms[room], preferences),
		})
	}

	return assignments, unassigned
}

func assignmentScores(lesson Lesson, room Room, preferences Preferences) Scores {
	capacityFit := math.Min(capacityRatio(lesson, room), 1)
	equipment := 0.5
	if room.HasAC {
		equipment += 0.25
	}
	if room.HasHeater {
		equipment += 0.25
	}

	overall := capacityFit*preferences.CapacityWeight +
		equipment*preferences.EquipmentWeight +
		placeholderTemperatureScore*preferences.TemperatureWeight

	return Scores{
		CapacityFit: round3(capacityFit),
		Equipment:   round3(equipment),
		Temperature: placeholderTemperatureScore,
		Overall:     round3(overall),
	}
}

func round3(value float64) float64 {
	return math.Round(value*1000) / 1000
}

// findBottlenecks looks for instants where more lessons run than can be seated in distinct fitting rooms.
// Every set of pairwise overlapping intervals shares the latest start among them, so only start instants are inspected
func findBottlenecks(state constraintState) []Bottleneck {
	bottlenecks := make([]Bottleneck, 0)

	starts := lo.Uniq(lo.Map(state.input.Lessons, func(lesson Lesson, _ int) time.Time { return lesson.Start }))
	slices.SortFunc(starts, func(a, b time.Time) int { return a.Compare(b) })

	seen := make(map[string]bool)
	for _, instant := range starts {
		active := make([]uint64, 0)
		for lesson := range state.lessons {
			current := state.input.Lessons[lesson]
			if current.Start.After(instant) || !current.End.After(instant) {
				continue
			}
			// Lessons without any fitting room are unassigned, not a source of infeasibility
			if lo.ContainsBy(lo.Range(int(state.rooms)), func(room int) bool { return state.evaluator.Fits(lesson, uint64(room)) }) {
				active = append(active, lesson)
			}
		}
		if len(active) < 2 {
			continue
		}

		seated, err := largestSeating(active, state)
		if err != nil {
			state.logger.Error("cannot match lessons against rooms", zap.Time("at", instant), zap.Error(err))
			continue
		}
		if seated >= len(active) {
			continue
		}

		ids := lo.Map(active, func(lesson uint64, _ int) string { return state.input.Lessons[lesson].Id })
		key := instant.String() + lo.Reduce(ids, func(key string, id string, _ int) string { return key + "|" + id }, "")
		if seen[key] {
			continue
		}
		seen[key] = true

		bottlenecks = append(bottlenecks, Bottleneck{
			At:      instant,
			Lessons: ids,
			Rooms:   seated,
		})
	}

	return bottlenecks
}

// largestSeating returns the size of a maximum matching between the lessons and the rooms they fit in
func largestSeating(lessons []uint64, state constraintState) (int, error) {
	rooms := lo.Range(int(state.rooms))

	neighbors := func(lessonAny any, roomAny any) (bool, error) {
		lesson := lessonAny.(uint64)
		room := roomAny.(int)

		return state.evaluator.Fits(lesson, uint64(room)), nil
	}

	lessonsAny, roomsAny := lo.Map(lessons, func(lesson uint64, _ int) any { return lesson }), lo.Map(rooms, func(room int, _ int) any { return room })

	graph, err := bipartitegraph.NewBipartiteGraph(lessonsAny, roomsAny, neighbors)
	if err != nil {
		return 0, err
	}

	return len(graph.LargestMatching()), nil
}
