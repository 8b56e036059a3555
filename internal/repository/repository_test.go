package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/limaJavier/roomassign/pkg/errors"
	"github.com/limaJavier/roomassign/pkg/forecast"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var roomColumns = []string{"id", "name", "capacity", "building", "floor", "ac_count", "heater_count"}

func TestRoomRepositoryListEnabled(t *testing.T) {
	//** Arrange
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	rows := sqlmock.NewRows(roomColumns).
		AddRow("r1", "A101", 30, "A", 1, 2, 0).
		AddRow("r2", "Lab", 20, nil, nil, 0, 1)
	mock.ExpectQuery(regexp.QuoteMeta("FROM room r")).WillReturnRows(rows)

	//** Act
	rooms, err := repo.ListEnabled(context.Background())

	//** Assert
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "A101", rooms[0].Name)
	assert.True(t, rooms[0].HasAC)
	assert.False(t, rooms[0].HasHeater)
	assert.Equal(t, 1, rooms[0].Floor)
	assert.Equal(t, "", rooms[1].Building)
	assert.False(t, rooms[1].HasAC)
	assert.True(t, rooms[1].HasHeater)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepositoryGet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	t.Run("Found", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("AND r.id = $1")).
			WithArgs("r1").
			WillReturnRows(sqlmock.NewRows(roomColumns).AddRow("r1", "A101", 30, "A", 1, 1, 1))

		room, err := repo.Get(context.Background(), "r1")
		require.NoError(t, err)
		assert.Equal(t, "r1", room.Id)
		assert.True(t, room.HasAC && room.HasHeater)
	})

	t.Run("Missing", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("AND r.id = $1")).
			WithArgs("nope").
			WillReturnRows(sqlmock.NewRows(roomColumns))

		_, err := repo.Get(context.Background(), "nope")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryListBetween(t *testing.T) {
	//** Arrange
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	end := start.Add(7*24*time.Hour - time.Nanosecond)
	columns := []string{"id", "title", "start_time", "end_time", "room_id", "class_id", "class_name", "student_count", "teacher_name"}
	rows := sqlmock.NewRows(columns).
		AddRow("l1", "Math", start.Add(8*time.Hour), start.Add(9*time.Hour), "r1", "c1", "X-A", 28, "Budi Santoso").
		AddRow("l1", "Math", start.Add(8*time.Hour), start.Add(9*time.Hour), "r1", "c1", "X-A", 28, "Siti Aminah").
		AddRow("l2", "Physics", start.Add(10*time.Hour), start.Add(11*time.Hour), nil, "c2", "X-B", 31, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM lesson l")).WithArgs(start, end).WillReturnRows(rows)

	//** Act
	lessons, err := repo.ListBetween(context.Background(), start, end)

	//** Assert
	require.NoError(t, err)
	require.Len(t, lessons, 2)
	assert.Equal(t, "Budi Santoso", lessons[0].TeacherName)
	require.NotNil(t, lessons[0].RoomId)
	assert.Equal(t, "r1", *lessons[0].RoomId)
	assert.Nil(t, lessons[1].RoomId)
	assert.Equal(t, "TBD", lessons[1].TeacherName)
	assert.Equal(t, 31, lessons[1].StudentCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryListBetweenError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM lesson l")).WillReturnError(errors.New("connection reset"))

	_, err := repo.ListBetween(context.Background(), time.Now(), time.Now())
	assert.ErrorContains(t, err, "connection reset")
}

func TestSensorRepositoryLatestRoomData(t *testing.T) {
	//** Arrange
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSensorRepository(db)

	before := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	savedAt := before.Add(-10 * time.Minute)
	mock.ExpectQuery(regexp.QuoteMeta("FROM temperature")).
		WithArgs("r1", before).
		WillReturnRows(sqlmock.NewRows([]string{"value", "saved_at"}).AddRow(23.5, savedAt))
	mock.ExpectQuery(regexp.QuoteMeta("FROM humidity")).
		WithArgs("r1", before).
		WillReturnRows(sqlmock.NewRows([]string{"value", "saved_at"}))
	mock.ExpectQuery(regexp.QuoteMeta("FROM pressure")).
		WithArgs("r1", before).
		WillReturnRows(sqlmock.NewRows([]string{"value", "saved_at"}).AddRow(1008.0, savedAt))
	mock.ExpectQuery(regexp.QuoteMeta("FROM weather")).
		WithArgs("2025-03-10").
		WillReturnRows(sqlmock.NewRows([]string{"avg_temp"}).AddRow(27.0))

	//** Act
	reading, err := repo.LatestRoomData(context.Background(), "r1", before)

	//** Assert
	require.NoError(t, err)
	assert.Equal(t, 23.5, reading.Temperature)
	require.NotNil(t, reading.TemperatureSavedAt)
	assert.Equal(t, savedAt, *reading.TemperatureSavedAt)
	assert.Equal(t, forecast.DefaultHumidity, reading.Humidity)
	assert.Nil(t, reading.HumiditySavedAt)
	assert.Equal(t, 1008.0, reading.AirPressure)
	assert.Equal(t, 27.0, reading.OutdoorTemperature)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSensorRepositoryLatestRoomDataWithoutRecords(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSensorRepository(db)

	for _, table := range []string{"temperature", "humidity", "pressure"} {
		mock.ExpectQuery(regexp.QuoteMeta("FROM " + table)).WillReturnRows(sqlmock.NewRows([]string{"value", "saved_at"}))
	}
	mock.ExpectQuery(regexp.QuoteMeta("FROM weather")).WillReturnRows(sqlmock.NewRows([]string{"avg_temp"}))

	reading, err := repo.LatestRoomData(context.Background(), "r1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, forecast.DefaultReading(), reading)
}

func TestSensorRepositoryLatestRoomDataFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSensorRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM temperature")).WillReturnError(errors.New("timeout"))

	_, err := repo.LatestRoomData(context.Background(), "r1", time.Now())
	assert.ErrorContains(t, err, "latest temperature of room r1")
}

func TestSensorRepositoryHourlyRoomData(t *testing.T) {
	at := time.Date(2025, 3, 10, 10, 42, 0, 0, time.UTC)
	hourStart := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	hourlyColumns := []string{"avg_value", "min_value", "max_value"}

	t.Run("Aggregated", func(t *testing.T) {
		db, mock, cleanup := newRepoMock(t)
		defer cleanup()
		repo := NewSensorRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("FROM temperature")).
			WithArgs("r1", hourStart, hourStart.Add(time.Hour)).
			WillReturnRows(sqlmock.NewRows(hourlyColumns).AddRow(22.0, 21.0, 23.0))
		mock.ExpectQuery(regexp.QuoteMeta("FROM humidity")).
			WillReturnRows(sqlmock.NewRows(hourlyColumns).AddRow(nil, nil, nil))
		mock.ExpectQuery(regexp.QuoteMeta("FROM pressure")).
			WillReturnRows(sqlmock.NewRows(hourlyColumns).AddRow(1010.0, 1009.0, 1011.0))

		reading, err := repo.HourlyRoomData(context.Background(), "r1", at)
		require.NoError(t, err)
		assert.Equal(t, 22.0, reading.Temperature)
		assert.Equal(t, forecast.DefaultHumidity, reading.Humidity)
		assert.Equal(t, 1010.0, reading.AirPressure)
		require.NotNil(t, reading.MinTemperature)
		require.NotNil(t, reading.MaxTemperature)
		assert.Equal(t, 21.0, *reading.MinTemperature)
		assert.Equal(t, 23.0, *reading.MaxTemperature)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("FallsBackToLatest", func(t *testing.T) {
		db, mock, cleanup := newRepoMock(t)
		defer cleanup()
		repo := NewSensorRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("FROM temperature")).
			WillReturnRows(sqlmock.NewRows(hourlyColumns).AddRow(nil, nil, nil))
		mock.ExpectQuery(regexp.QuoteMeta("FROM temperature")).
			WithArgs("r1", hourStart).
			WillReturnRows(sqlmock.NewRows([]string{"value", "saved_at"}).AddRow(19.0, hourStart.Add(-time.Hour)))
		mock.ExpectQuery(regexp.QuoteMeta("FROM humidity")).WillReturnRows(sqlmock.NewRows([]string{"value", "saved_at"}))
		mock.ExpectQuery(regexp.QuoteMeta("FROM pressure")).WillReturnRows(sqlmock.NewRows([]string{"value", "saved_at"}))
		mock.ExpectQuery(regexp.QuoteMeta("FROM weather")).WillReturnRows(sqlmock.NewRows([]string{"avg_temp"}))

		reading, err := repo.HourlyRoomData(context.Background(), "r1", at)
		require.NoError(t, err)
		assert.Equal(t, 19.0, reading.Temperature)
		assert.Nil(t, reading.MinTemperature)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	var dest map[string]any

	assert.ErrorIs(t, repo.Get(context.Background(), "key", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(context.Background(), "key", map[string]any{"a": 1}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(context.Background(), "key*"))
	assert.NoError(t, repo.Close())
}

func TestLessonRepositoryUpdateRoom(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE lesson SET room_id = $1 WHERE id = $2")).
		WithArgs("r1", "l1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE lesson SET room_id = $1 WHERE id = $2")).
		WithArgs("r1", "gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	updated, err := repo.UpdateRoom(context.Background(), "l1", "r1")
	require.NoError(t, err)
	assert.True(t, updated)

	updated, err = repo.UpdateRoom(context.Background(), "gone", "r1")
	require.NoError(t, err)
	assert.False(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}
