package model

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
)

const (
	DefaultCapacityWeight    = 0.5
	DefaultEquipmentWeight   = 0.2
	DefaultTemperatureWeight = 0.3
)

type Room struct {
	Id        string `json:"id" mapstructure:"id"`
	Name      string `json:"name" mapstructure:"name"`
	Capacity  int    `json:"capacity" mapstructure:"capacity"`
	Building  string `json:"building" mapstructure:"building"`
	Floor     int    `json:"floor" mapstructure:"floor"`
	HasAC     bool   `json:"hasAC" mapstructure:"hasAC"`
	HasHeater bool   `json:"hasHeater" mapstructure:"hasHeater"`
}

type Lesson struct {
	Id           string    `json:"id"`
	Title        string    `json:"title"`
	Start        time.Time `json:"start_time"`
	End          time.Time `json:"end_time"` // Exclusive
	StudentCount int       `json:"student_count"`
	RoomId       *string   `json:"room_id,omitempty"` // Current assignment, if any

	// Pass-through metadata, never used for scoring
	ClassId     string `json:"class_id,omitempty"`
	ClassName   string `json:"class_name,omitempty"`
	TeacherName string `json:"teacher_name,omitempty"`
}

// Overlaps checks whether the half-open intervals [start, end) of both lessons intersect
func (lesson Lesson) Overlaps(other Lesson) bool {
	return lesson.Start.Before(other.End) && other.Start.Before(lesson.End)
}

type Preferences struct {
	CapacityWeight    float64 `json:"capacity_weight" mapstructure:"capacity_weight"`
	EquipmentWeight   float64 `json:"equipment_weight" mapstructure:"equipment_weight"`
	TemperatureWeight float64 `json:"temperature_weight" mapstructure:"temperature_weight"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		CapacityWeight:    DefaultCapacityWeight,
		EquipmentWeight:   DefaultEquipmentWeight,
		TemperatureWeight: DefaultTemperatureWeight,
	}
}

// PreferencesFromMap decodes the optional weights of raw on top of the defaults. Weights are not normalized
func PreferencesFromMap(raw map[string]any) (Preferences, error) {
	preferences := DefaultPreferences()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &preferences,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Preferences{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Preferences{}, fmt.Errorf("cannot decode preferences: %w", err)
	}
	return preferences, preferences.Validate()
}

func (preferences Preferences) Validate() error {
	if preferences.CapacityWeight < 0 || preferences.EquipmentWeight < 0 || preferences.TemperatureWeight < 0 {
		return fmt.Errorf("preference weights must be non-negative: %+v", preferences)
	}
	return nil
}

type Input struct {
	Rooms       []Room
	Lessons     []Lesson
	Preferences Preferences
}

func (input Input) Validate() error {
	if err := input.Preferences.Validate(); err != nil {
		return err
	}
	// Results and their verification refer to lessons and rooms by id
	if duplicates := lo.FindDuplicatesBy(input.Rooms, func(room Room) string { return room.Id }); len(duplicates) > 0 {
		return fmt.Errorf("room id \"%v\" is not unique", duplicates[0].Id)
	}
	if duplicates := lo.FindDuplicatesBy(input.Lessons, func(lesson Lesson) string { return lesson.Id }); len(duplicates) > 0 {
		return fmt.Errorf("lesson id \"%v\" is not unique", duplicates[0].Id)
	}
	if room, ok := lo.Find(input.Rooms, func(room Room) bool { return room.Capacity < 0 }); ok {
		return fmt.Errorf("room \"%v\" has a negative capacity: %v", room.Name, room.Capacity)
	}
	for _, lesson := range input.Lessons {
		if lesson.StudentCount < 0 {
			return fmt.Errorf("lesson \"%v\" has a negative student count: %v", lesson.Title, lesson.StudentCount)
		} else if lesson.End.Before(lesson.Start) {
			return fmt.Errorf("lesson \"%v\" ends before it starts: %v < %v", lesson.Title, lesson.End, lesson.Start)
		}
	}
	return nil
}

type RawLesson struct {
	Id           string  `mapstructure:"id"`
	Title        string  `mapstructure:"title"`
	StartTime    string  `mapstructure:"start_time"`
	EndTime      string  `mapstructure:"end_time"`
	StudentCount int     `mapstructure:"student_count"`
	RoomId       *string `mapstructure:"room_id"`
	ClassId      string  `mapstructure:"class_id"`
	ClassName    string  `mapstructure:"class_name"`
	TeacherName  string  `mapstructure:"teacher_name"`
}

type RawInput struct {
	Rooms       []Room         `mapstructure:"rooms"`
	Lessons     []RawLesson    `mapstructure:"lessons"`
	Preferences map[string]any `mapstructure:"preferences"`
}

func InputFromJson(file string) (Input, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return Input{}, err
	}
	var inputJson map[string]any
	if err := json.Unmarshal(bytes, &inputJson); err != nil {
		return Input{}, err
	}

	var rawInput RawInput
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &rawInput,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Input{}, err
	}
	if err := decoder.Decode(inputJson); err != nil {
		return Input{}, err
	}
	return ProcessRawInput(rawInput)
}

func ProcessRawInput(rawInput RawInput) (Input, error) {
	preferences, err := PreferencesFromMap(rawInput.Preferences)
	if err != nil {
		return Input{}, err
	}

	lessons := make([]Lesson, 0, len(rawInput.Lessons))
	for _, rawLesson := range rawInput.Lessons {
		lesson, err := rawLesson.Lesson()
		if err != nil {
			return Input{}, err
		}
		lessons = append(lessons, lesson)
	}

	input := Input{
		Rooms:       rawInput.Rooms,
		Lessons:     lessons,
		Preferences: preferences,
	}
	return input, input.Validate()
}

func (rawLesson RawLesson) Lesson() (Lesson, error) {
	start, err := ParseTimestamp(rawLesson.StartTime)
	if err != nil {
		return Lesson{}, fmt.Errorf("invalid start_time for lesson \"%v\": %w", rawLesson.Title, err)
	}
	end, err := ParseTimestamp(rawLesson.EndTime)
	if err != nil {
		return Lesson{}, fmt.Errorf("invalid end_time for lesson \"%v\": %w", rawLesson.Title, err)
	}
	return Lesson{
		Id:           rawLesson.Id,
		Title:        rawLesson.Title,
		Start:        start,
		End:          end,
		StudentCount: rawLesson.StudentCount,
		RoomId:       rawLesson.RoomId,
		ClassId:      rawLesson.ClassId,
		ClassName:    rawLesson.ClassName,
		TeacherName:  rawLesson.TeacherName,
	}, nil
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp accepts ISO-8601 timestamps with an optional "Z" or numeric offset. Timestamps without zone are local
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if timestamp, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return timestamp, nil
	}
	for _, layout := range naiveLayouts {
		if timestamp, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return timestamp, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp %q", value)
}
