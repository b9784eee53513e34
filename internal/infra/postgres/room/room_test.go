package infra_postgres_room

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/humanbelnik/musicroom/internal/model"
	usecase_room "github.com/humanbelnik/musicroom/internal/usecase/room"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type RoomInfraUnitSuite struct {
	suite.Suite
}

type resources struct {
	mock   sqlmock.Sqlmock
	driver *Driver
	ctx    context.Context
}

func initResources(t provider.T) *resources {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return &resources{
		mock:   mock,
		driver: New(sqlx.NewDb(db, "postgres")),
		ctx:    context.Background(),
	}
}

var columns = []string{"code", "host_id", "guest_can_pause", "votes_to_skip", "current_track_id", "created_at"}

func validRoom() model.Room {
	return model.Room{
		Code:        "ABCDEF",
		HostID:      "host-1",
		VotesToSkip: 2,
		CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *RoomInfraUnitSuite) TestCreate(t provider.T) {
	tests := []struct {
		name    string
		execErr error
		wantErr error
	}{
		{
			name: "Should insert room",
		},
		{
			name:    "Should report code conflict",
			execErr: &pq.Error{Code: "23505", Constraint: "rooms_pkey"},
			wantErr: usecase_room.ErrCodeConflict,
		},
		{
			name:    "Should report host conflict",
			execErr: &pq.Error{Code: "23505", Constraint: "rooms_host_id_key"},
			wantErr: usecase_room.ErrHostConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t provider.T) {
			r := initResources(t)
			room := validRoom()
			exp := r.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO rooms")).
				WithArgs(room.Code, room.HostID, false, 2, nil, sqlmock.AnyArg())
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, 1))
			}

			err := r.driver.Create(r.ctx, room)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, r.mock.ExpectationsWereMet())
		})
	}
}

func (s *RoomInfraUnitSuite) TestByCode(t provider.T) {
	t.Run("Should map row with current track", func(t provider.T) {
		r := initResources(t)
		want := validRoom()
		r.mock.ExpectQuery(regexp.QuoteMeta("FROM rooms WHERE code = $1")).
			WithArgs(want.Code).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(want.Code, want.HostID, true, 2, "track-1", want.CreatedAt))

		room, err := r.driver.ByCode(r.ctx, want.Code)

		require.NoError(t, err)
		assert.Equal(t, want.HostID, room.HostID)
		assert.True(t, room.GuestCanPause)
		assert.Equal(t, "track-1", room.TrackID())
		assert.NoError(t, r.mock.ExpectationsWereMet())
	})

	t.Run("Should map missing row to not found", func(t provider.T) {
		r := initResources(t)
		r.mock.ExpectQuery(regexp.QuoteMeta("FROM rooms WHERE code = $1")).
			WithArgs("ZZZZZZ").
			WillReturnRows(sqlmock.NewRows(columns))

		_, err := r.driver.ByCode(r.ctx, "ZZZZZZ")

		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func (s *RoomInfraUnitSuite) TestCodeExists(t provider.T) {
	r := initResources(t)
	r.mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("ABCDEF").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := r.driver.CodeExists(r.ctx, "ABCDEF")

	assert.NoError(t, err)
	assert.True(t, exists)
}

func (s *RoomInfraUnitSuite) TestSetCurrentTrack(t provider.T) {
	t.Run("Should store track id", func(t provider.T) {
		r := initResources(t)
		id := "track-1"
		r.mock.ExpectExec(regexp.QuoteMeta("SET current_track_id = $1")).
			WithArgs(id, "ABCDEF").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, r.driver.SetCurrentTrack(r.ctx, "ABCDEF", &id))
		assert.NoError(t, r.mock.ExpectationsWereMet())
	})

	t.Run("Should clear track id", func(t provider.T) {
		r := initResources(t)
		r.mock.ExpectExec(regexp.QuoteMeta("SET current_track_id = $1")).
			WithArgs(nil, "ABCDEF").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, r.driver.SetCurrentTrack(r.ctx, "ABCDEF", nil))
	})

	t.Run("Should report unknown room", func(t provider.T) {
		r := initResources(t)
		r.mock.ExpectExec(regexp.QuoteMeta("SET current_track_id = $1")).
			WithArgs(nil, "ZZZZZZ").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, r.driver.SetCurrentTrack(r.ctx, "ZZZZZZ", nil), model.ErrNotFound)
	})
}

func (s *RoomInfraUnitSuite) TestUpdateSettings(t provider.T) {
	r := initResources(t)
	r.mock.ExpectExec(regexp.QuoteMeta("SET guest_can_pause = $1, votes_to_skip = $2")).
		WithArgs(true, 4, "ABCDEF").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, r.driver.UpdateSettings(r.ctx, "ABCDEF", true, 4))
}

func (s *RoomInfraUnitSuite) TestDeleteByHost(t provider.T) {
	t.Run("Should return deleted room", func(t provider.T) {
		r := initResources(t)
		want := validRoom()
		r.mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM rooms WHERE host_id = $1 RETURNING")).
			WithArgs(want.HostID).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(want.Code, want.HostID, false, 2, nil, want.CreatedAt))

		room, err := r.driver.DeleteByHost(r.ctx, want.HostID)

		require.NoError(t, err)
		assert.Equal(t, want.Code, room.Code)
		assert.Nil(t, room.CurrentTrackID)
	})

	t.Run("Should report missing room", func(t provider.T) {
		r := initResources(t)
		r.mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM rooms")).
			WithArgs("nobody").
			WillReturnRows(sqlmock.NewRows(columns))

		_, err := r.driver.DeleteByHost(r.ctx, "nobody")

		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func (s *RoomInfraUnitSuite) TestList(t provider.T) {
	t.Run("Should list rooms", func(t provider.T) {
		r := initResources(t)
		now := time.Now()
		r.mock.ExpectQuery(regexp.QuoteMeta("FROM rooms ORDER BY created_at")).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("AAAAAA", "h1", false, 1, nil, now).
				AddRow("BBBBBB", "h2", true, 3, "t", now))

		rooms, err := r.driver.List(r.ctx)

		require.NoError(t, err)
		require.Len(t, rooms, 2)
		assert.Equal(t, "BBBBBB", rooms[1].Code)
	})

	t.Run("Should pass through query failure", func(t provider.T) {
		r := initResources(t)
		dbErr := errors.New("connection reset")
		r.mock.ExpectQuery(regexp.QuoteMeta("FROM rooms")).WillReturnError(dbErr)

		_, err := r.driver.List(r.ctx)

		assert.ErrorIs(t, err, dbErr)
	})
}

func TestRoomInfraUnitSuite(t *testing.T) {
	suite.RunSuite(t, new(RoomInfraUnitSuite))
}
