package model

import (
	"math"

	"github.com/limaJavier/roomassign/pkg/sat"
)

const DefaultTemperature = 21.0 // Neutral prediction (°C) used whenever no forecast is available

// Outside every comfort band the score decays by 5 points per degree away from this temperature (°C)
const comfortCenter = 21.0

type objectiveState struct {
	constraintState
	predictions [][]float64 // Predicted temperature (lesson x room)
	preferences Preferences
}

// capacityFitTerms rewards rooms whose capacity is closely matched by the lesson's student count
func capacityFitTerms(state objectiveState) []sat.Term {
	terms := make([]sat.Term, 0)
	for lesson := range state.lessons {
		for room := range state.rooms {
			if !state.evaluator.Fits(lesson, room) {
				continue
			}
			ratio := capacityRatio(state.input.Lessons[lesson], state.input.Rooms[room])
			terms = append(terms, sat.Term{
				Variable:    int64(state.indexer.Index(lesson, room)),
				Coefficient: truncate(ratio * 100 * state.preferences.CapacityWeight),
			})
		}
	}
	return terms
}

// equipmentTerms rewards AC or heating where the predicted temperature calls for it.
// Beyond the horizon only the presence of the equipment is rewarded
func equipmentTerms(state objectiveState) []sat.Term {
	terms := make([]sat.Term, 0)
	for lesson := range state.lessons {
		beyond := state.evaluator.BeyondHorizon(lesson)
		for room := range state.rooms {
			score := equipmentScore(state.input.Rooms[room], state.predictions[lesson][room], beyond)
			terms = append(terms, sat.Term{
				Variable:    int64(state.indexer.Index(lesson, room)),
				Coefficient: truncate(score * state.preferences.EquipmentWeight),
			})
		}
	}
	return terms
}

// temperatureTerms rewards predicted temperatures close to the comfort band
func temperatureTerms(state objectiveState) []sat.Term {
	terms := make([]sat.Term, 0)
	for lesson := range state.lessons {
		for room := range state.rooms {
			terms = append(terms, sat.Term{
				Variable:    int64(state.indexer.Index(lesson, room)),
				Coefficient: truncate(comfortScore(state.predictions[lesson][room]) * state.preferences.TemperatureWeight),
			})
		}
	}
	return terms
}

func capacityRatio(lesson Lesson, room Room) float64 {
	if room.Capacity == 0 {
		return 0
	}
	return float64(lesson.StudentCount) / float64(room.Capacity)
}

func equipmentScore(room Room, temperature float64, beyondHorizon bool) float64 {
	var score float64

	if beyondHorizon {
		if room.HasAC {
			score += 20
		}
		if room.HasHeater {
			score += 20
		}
		return score
	}

	if room.HasAC {
		switch {
		case temperature > 25:
			score += 50
		case temperature > 23:
			score += 30
		case temperature > 21:
			score += 10
		}
	}
	if room.HasHeater {
		switch {
		case temperature < 17:
			score += 50
		case temperature < 19:
			score += 30
		case temperature < 21:
			score += 10
		}
	}
	return score
}

func comfortScore(temperature float64) float64 {
	switch {
	case 20 <= temperature && temperature <= 22:
		return 100
	case 19 <= temperature && temperature <= 23:
		return 90
	case 18 <= temperature && temperature <= 24:
		return 70
	case 17 <= temperature && temperature <= 25:
		return 50
	default:
		return math.Max(0, 30-math.Abs(temperature-comfortCenter)*5)
	}
}

func truncate(value float64) int64 {
	return int64(math.Floor(value))
}
