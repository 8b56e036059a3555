package model

import "fmt"

// Verify re-checks a result against the hard rules of the input: every assigned room exists and fits its lesson,
// no lesson is seated twice and no room hosts two overlapping lessons
func Verify(input Input, result Result) error {
	rooms := make(map[string]Room, len(input.Rooms))
	for _, room := range input.Rooms {
		rooms[room.Id] = room
	}
	lessons := make(map[string]Lesson, len(input.Lessons))
	for _, lesson := range input.Lessons {
		lessons[lesson.Id] = lesson
	}

	seated := make(map[string]bool)
	byRoom := make(map[string][]Lesson)
	for _, assignment := range result.Assignments {
		lesson, ok := lessons[assignment.Lesson.Id]
		if !ok {
			return fmt.Errorf("assigned lesson \"%v\" is not part of the input", assignment.Lesson.Id)
		}
		room, ok := rooms[assignment.Room.Id]
		if !ok {
			return fmt.Errorf("room \"%v\" assigned to lesson \"%v\" is not part of the input", assignment.Room.Id, lesson.Id)
		}

		if room.Capacity < lesson.StudentCount {
			return fmt.Errorf("lesson \"%v\" (%v students) does not fit in room \"%v\" (capacity %v)", lesson.Id, lesson.StudentCount, room.Id, room.Capacity)
		}
		if seated[lesson.Id] {
			return fmt.Errorf("lesson \"%v\" is assigned more than once", lesson.Id)
		}
		seated[lesson.Id] = true

		for _, other := range byRoom[room.Id] {
			if other.Overlaps(lesson) {
				return fmt.Errorf("lessons \"%v\" and \"%v\" overlap in room \"%v\"", other.Id, lesson.Id, room.Id)
			}
		}
		byRoom[room.Id] = append(byRoom[room.Id], lesson)
	}

	return nil
}
