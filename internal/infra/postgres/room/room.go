package infra_postgres_room

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/humanbelnik/musicroom/internal/model"
	usecase_room "github.com/humanbelnik/musicroom/internal/usecase/room"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	uniqueViolation = "23505"
	hostConstraint  = "rooms_host_id_key"
)

type Driver struct {
	db *sqlx.DB
}

func New(
	db *sqlx.DB,
) *Driver {
	return &Driver{db: db}
}

type roomDTO struct {
	Code           string         `db:"code"`
	HostID         string         `db:"host_id"`
	GuestCanPause  bool           `db:"guest_can_pause"`
	VotesToSkip    int            `db:"votes_to_skip"`
	CurrentTrackID sql.NullString `db:"current_track_id"`
	CreatedAt      time.Time      `db:"created_at"`
}

func (dto roomDTO) toModel() model.Room {
	room := model.Room{
		Code:          dto.Code,
		HostID:        dto.HostID,
		GuestCanPause: dto.GuestCanPause,
		VotesToSkip:   dto.VotesToSkip,
		CreatedAt:     dto.CreatedAt,
	}
	if dto.CurrentTrackID.Valid {
		id := dto.CurrentTrackID.String
		room.CurrentTrackID = &id
	}
	return room
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

const roomColumns = `code, host_id, guest_can_pause, votes_to_skip, current_track_id, created_at`

func (d *Driver) Create(ctx context.Context, room model.Room) error {
	query := `
		INSERT INTO rooms (code, host_id, guest_can_pause, votes_to_skip, current_track_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := d.db.ExecContext(ctx, query,
		room.Code,
		room.HostID,
		room.GuestCanPause,
		room.VotesToSkip,
		nullString(room.CurrentTrackID),
		room.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			if pqErr.Constraint == hostConstraint {
				return usecase_room.ErrHostConflict
			}
			return usecase_room.ErrCodeConflict
		}
		return err
	}
	return nil
}

func (d *Driver) ByCode(ctx context.Context, code string) (model.Room, error) {
	var dto roomDTO

	query := `SELECT ` + roomColumns + ` FROM rooms WHERE code = $1`

	if err := d.db.GetContext(ctx, &dto, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Room{}, model.ErrNotFound
		}
		return model.Room{}, err
	}
	return dto.toModel(), nil
}

func (d *Driver) ByHost(ctx context.Context, hostID string) (model.Room, error) {
	var dto roomDTO

	query := `SELECT ` + roomColumns + ` FROM rooms WHERE host_id = $1`

	if err := d.db.GetContext(ctx, &dto, query, hostID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Room{}, model.ErrNotFound
		}
		return model.Room{}, err
	}
	return dto.toModel(), nil
}

func (d *Driver) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool

	query := `SELECT EXISTS (SELECT 1 FROM rooms WHERE code = $1)`

	if err := d.db.GetContext(ctx, &exists, query, code); err != nil {
		return false, err
	}
	return exists, nil
}

func (d *Driver) UpdateSettings(ctx context.Context, code string, guestCanPause bool, votesToSkip int) error {
	query := `
		UPDATE rooms
		SET guest_can_pause = $1, votes_to_skip = $2
		WHERE code = $3
	`

	result, err := d.db.ExecContext(ctx, query, guestCanPause, votesToSkip, code)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (d *Driver) SetCurrentTrack(ctx context.Context, code string, trackID *string) error {
	query := `
		UPDATE rooms
		SET current_track_id = $1
		WHERE code = $2
	`

	result, err := d.db.ExecContext(ctx, query, nullString(trackID), code)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (d *Driver) DeleteByHost(ctx context.Context, hostID string) (model.Room, error) {
	var dto roomDTO

	query := `DELETE FROM rooms WHERE host_id = $1 RETURNING ` + roomColumns

	if err := d.db.GetContext(ctx, &dto, query, hostID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Room{}, model.ErrNotFound
		}
		return model.Room{}, err
	}
	return dto.toModel(), nil
}

func (d *Driver) List(ctx context.Context) ([]model.Room, error) {
	var dtos []roomDTO

	query := `SELECT ` + roomColumns + ` FROM rooms ORDER BY created_at`

	if err := d.db.SelectContext(ctx, &dtos, query); err != nil {
		return nil, err
	}

	rooms := make([]model.Room, 0, len(dtos))
	for _, dto := range dtos {
		rooms = append(rooms, dto.toModel())
	}
	return rooms, nil
}

func expectAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
