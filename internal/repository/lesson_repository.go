package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"github.com/limaJavier/roomassign/pkg/model"
)

const listLessonsBetweenQuery = `
SELECT
	l.id,
	l.title,
	l.start_time,
	l.end_time,
	l.room_id,
	l.class_id,
	c.name AS class_name,
	c.student_count,
	CONCAT(u.first_name, ' ', u.last_name) AS teacher_name
FROM lesson l
JOIN class c ON l.class_id = c.id
LEFT JOIN user_lesson ul ON l.id = ul.lesson_id
LEFT JOIN "user" u ON ul.user_id = u.id
WHERE l.start_time >= $1
AND l.start_time <= $2
ORDER BY l.start_time, l.id`

type lessonRow struct {
	Id           string         `db:"id"`
	Title        string         `db:"title"`
	StartTime    time.Time      `db:"start_time"`
	EndTime      time.Time      `db:"end_time"`
	RoomId       sql.NullString `db:"room_id"`
	ClassId      string         `db:"class_id"`
	ClassName    string         `db:"class_name"`
	StudentCount int            `db:"student_count"`
	TeacherName  sql.NullString `db:"teacher_name"`
}

func (row lessonRow) lesson() model.Lesson {
	lesson := model.Lesson{
		Id:           row.Id,
		Title:        row.Title,
		Start:        row.StartTime,
		End:          row.EndTime,
		StudentCount: row.StudentCount,
		ClassId:      row.ClassId,
		ClassName:    row.ClassName,
		TeacherName:  "TBD",
	}
	if row.RoomId.Valid {
		lesson.RoomId = &row.RoomId.String
	}
	if name := row.TeacherName.String; row.TeacherName.Valid && name != " " && name != "" {
		lesson.TeacherName = name
	}
	return lesson
}

// LessonRepository reads scheduled lessons with their class size and teacher.
type LessonRepository struct {
	db *sqlx.DB
}

func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// ListBetween returns the lessons starting within [start, end]. A lesson taught by several teachers is returned once
func (r *LessonRepository) ListBetween(ctx context.Context, start, end time.Time) ([]model.Lesson, error) {
	var rows []lessonRow
	if err := r.db.SelectContext(ctx, &rows, listLessonsBetweenQuery, start, end); err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	lessons := lo.Map(rows, func(row lessonRow, _ int) model.Lesson { return row.lesson() })
	return lo.UniqBy(lessons, func(lesson model.Lesson) string { return lesson.Id }), nil
}

const updateLessonRoomQuery = `UPDATE lesson SET room_id = $1 WHERE id = $2`

// UpdateRoom stores the room assignment of a lesson and reports whether the lesson exists
func (r *LessonRepository) UpdateRoom(ctx context.Context, lessonId, roomId string) (bool, error) {
	result, err := r.db.ExecContext(ctx, updateLessonRoomQuery, roomId, lessonId)
	if err != nil {
		return false, fmt.Errorf("update room of lesson %s: %w", lessonId, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update room of lesson %s: %w", lessonId, err)
	}
	return affected > 0, nil
}
