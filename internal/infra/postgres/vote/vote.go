package infra_postgres_vote

import (
	"context"

	"github.com/humanbelnik/musicroom/internal/model"
	"github.com/jmoiron/sqlx"
)

type Driver struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Driver {
	return &Driver{db: db}
}

// Add reports false when the same user already voted for the track.
func (d *Driver) Add(ctx context.Context, vote model.Vote) (bool, error) {
	query := `
		INSERT INTO votes (user_id, room_code, track_id)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`

	result, err := d.db.ExecContext(ctx, query, vote.UserID, vote.RoomCode, vote.TrackID)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected == 1, nil
}

func (d *Driver) Count(ctx context.Context, roomCode string, trackID string) (int, error) {
	var count int

	query := `SELECT COUNT(*) FROM votes WHERE room_code = $1 AND track_id = $2`

	if err := d.db.GetContext(ctx, &count, query, roomCode, trackID); err != nil {
		return 0, err
	}
	return count, nil
}

func (d *Driver) ClearRoom(ctx context.Context, roomCode string) error {
	query := `DELETE FROM votes WHERE room_code = $1`

	_, err := d.db.ExecContext(ctx, query, roomCode)
	return err
}
