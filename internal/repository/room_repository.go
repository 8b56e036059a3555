package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"github.com/limaJavier/roomassign/pkg/model"
)

const selectRooms = `
SELECT
	r.id,
	r.name,
	r.capacity,
	r.building,
	r.floor,
	COUNT(DISTINCT e.id) FILTER (WHERE e.type = 'ac' AND e.is_functional = true) AS ac_count,
	COUNT(DISTINCT e.id) FILTER (WHERE e.type = 'heater' AND e.is_functional = true) AS heater_count
FROM room r
LEFT JOIN equipment e ON r.id = e.room_id
WHERE r.is_enabled = true`

const groupRooms = `
GROUP BY r.id, r.name, r.capacity, r.building, r.floor`

type roomRow struct {
	Id          string         `db:"id"`
	Name        string         `db:"name"`
	Capacity    int            `db:"capacity"`
	Building    sql.NullString `db:"building"`
	Floor       sql.NullInt64  `db:"floor"`
	AcCount     int            `db:"ac_count"`
	HeaterCount int            `db:"heater_count"`
}

func (row roomRow) room() model.Room {
	return model.Room{
		Id:        row.Id,
		Name:      row.Name,
		Capacity:  row.Capacity,
		Building:  row.Building.String,
		Floor:     int(row.Floor.Int64),
		HasAC:     row.AcCount > 0,
		HasHeater: row.HeaterCount > 0,
	}
}

// RoomRepository reads bookable rooms together with their functional equipment.
type RoomRepository struct {
	db *sqlx.DB
}

func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// ListEnabled returns every enabled room ordered by building, floor and name.
func (r *RoomRepository) ListEnabled(ctx context.Context) ([]model.Room, error) {
	var rows []roomRow
	query := selectRooms + groupRooms + "\nORDER BY r.building, r.floor, r.name"
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return lo.Map(rows, func(row roomRow, _ int) model.Room { return row.room() }), nil
}

// Get returns a single enabled room, or sql.ErrNoRows.
func (r *RoomRepository) Get(ctx context.Context, id string) (*model.Room, error) {
	var row roomRow
	query := selectRooms + "\nAND r.id = $1" + groupRooms
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get room %s: %w", id, err)
	}
	room := row.room()
	return &room, nil
}
