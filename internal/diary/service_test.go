package diary

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wasuken/maptabi-new/internal/apperr"
	"github.com/wasuken/maptabi-new/internal/location"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	return mock
}

func TestCreateAndList(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO diaries`).
		WithArgs(int64(1), "Trip", "day one", false).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(10), now, now))

	svc := NewService(mock)
	d, err := svc.Create(context.Background(), Input{Title: "Trip", Content: "day one"}, 1)
	if err != nil {
		t.Fatalf("create diary: %v", err)
	}
	if d.ID != 10 || d.UserID != 1 || d.IsPublic {
		t.Fatalf("unexpected diary: %+v", d)
	}

	mock.ExpectQuery(`SELECT id, user_id, title, content, is_public`).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "title", "content", "is_public", "created_at", "updated_at"}).
			AddRow(int64(10), int64(1), "Trip", "day one", false, now, now))

	diaries, err := svc.ListByOwner(context.Background(), 1)
	if err != nil || len(diaries) != 1 {
		t.Fatalf("list diaries: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetByIDWithLocations(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT id, user_id, title, content, is_public`).
		WithArgs(int64(10), int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "title", "content", "is_public", "created_at", "updated_at"}).
			AddRow(int64(10), int64(1), "Trip", "day one", true, now, now))
	mock.ExpectQuery(`SELECT id, diary_id, name`).
		WithArgs(int64(10)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "diary_id", "name", "lat", "lng", "altitude", "recorded_at", "order_index", "created_at"}).
			AddRow(int64(100), int64(10), nil, 35.6809591, 139.7673068, nil, nil, 0, now))

	svc := NewService(mock)
	d, err := svc.GetByID(context.Background(), 10, 2)
	if err != nil {
		t.Fatalf("get diary: %v", err)
	}
	if len(d.Locations) != 1 || d.Locations[0].Latitude != 35.6809591 {
		t.Fatalf("unexpected locations: %+v", d.Locations)
	}
}

func TestGetByIDInvisible(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, user_id, title, content, is_public`).
		WithArgs(int64(10), int64(2)).
		WillReturnError(pgx.ErrNoRows)

	svc := NewService(mock)
	_, err := svc.GetByID(context.Background(), 10, 2)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateOwnershipChecks(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	svc := NewService(mock)

	mock.ExpectQuery(`SELECT user_id FROM diaries`).
		WithArgs(int64(10)).
		WillReturnError(pgx.ErrNoRows)
	_, err := svc.Update(context.Background(), 10, Input{Title: "T", Content: "C"}, 1)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectQuery(`SELECT user_id FROM diaries`).
		WithArgs(int64(10)).
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(int64(2)))
	_, err = svc.Update(context.Background(), 10, Input{Title: "T", Content: "C"}, 1)
	if !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestUpdateSuccess(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT user_id FROM diaries`).
		WithArgs(int64(10)).
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(int64(1)))
	mock.ExpectQuery(`UPDATE diaries`).
		WithArgs("T2", "C2", true, int64(10), int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "title", "content", "is_public", "created_at", "updated_at"}).
			AddRow(int64(10), int64(1), "T2", "C2", true, now, now))

	svc := NewService(mock)
	d, err := svc.Update(context.Background(), 10, Input{Title: "T2", Content: "C2", IsPublic: true}, 1)
	if err != nil {
		t.Fatalf("update diary: %v", err)
	}
	if d.Title != "T2" || !d.IsPublic {
		t.Fatalf("unexpected diary: %+v", d)
	}
}

func TestDeleteCascades(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT user_id FROM diaries`).
		WithArgs(int64(10)).
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(int64(1)))
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM location_comments`).
		WithArgs(int64(10)).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(`DELETE FROM locations`).
		WithArgs(int64(10)).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectExec(`DELETE FROM diaries`).
		WithArgs(int64(10), int64(1)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	svc := NewService(mock)
	if err := svc.Delete(context.Background(), 10, 1); err != nil {
		t.Fatalf("delete diary: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteRollsBackOnFailure(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT user_id FROM diaries`).
		WithArgs(int64(10)).
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(int64(1)))
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM location_comments`).
		WithArgs(int64(10)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`DELETE FROM locations`).
		WithArgs(int64(10)).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	svc := NewService(mock)
	if err := svc.Delete(context.Background(), 10, 1); err == nil {
		t.Fatalf("expected delete to fail")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLocationsVisibility(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(int64(10), int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	svc := NewService(mock)
	_, err := svc.Locations(context.Background(), 10, 2)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReplaceLocations(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT user_id FROM diaries`).
		WithArgs(int64(10)).
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(int64(1)))
	mock.ExpectExec(`DELETE FROM location_comments`).
		WithArgs(int64(10)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`DELETE FROM locations`).
		WithArgs(int64(10)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectQuery(`INSERT INTO locations`).
		WithArgs(int64(10), pgxmock.AnyArg(), 139.7673068, 35.6809591, pgxmock.AnyArg(), pgxmock.AnyArg(), 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(101), now))
	mock.ExpectQuery(`INSERT INTO locations`).
		WithArgs(int64(10), pgxmock.AnyArg(), 135.4959506, 34.7024854, pgxmock.AnyArg(), pgxmock.AnyArg(), 5).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(102), now))
	mock.ExpectCommit()

	lat1, lng1 := 35.6809591, 139.7673068
	lat2, lng2 := 34.7024854, 135.4959506
	idx := 5
	inputs := []location.Input{
		{Latitude: &lat1, Longitude: &lng1},
		{Latitude: &lat2, Longitude: &lng2, OrderIndex: &idx},
	}

	svc := NewService(mock)
	locations, err := svc.ReplaceLocations(context.Background(), 10, 1, inputs)
	if err != nil {
		t.Fatalf("replace locations: %v", err)
	}
	if len(locations) != 2 {
		t.Fatalf("expected 2 locations, got %d", len(locations))
	}
	if locations[0].OrderIndex != 0 || locations[1].OrderIndex != 5 {
		t.Fatalf("unexpected order indexes: %d %d", locations[0].OrderIndex, locations[1].OrderIndex)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReplaceLocationsEmptyList(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT user_id FROM diaries`).
		WithArgs(int64(10)).
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(int64(1)))
	mock.ExpectExec(`DELETE FROM location_comments`).
		WithArgs(int64(10)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`DELETE FROM locations`).
		WithArgs(int64(10)).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))
	mock.ExpectCommit()

	svc := NewService(mock)
	locations, err := svc.ReplaceLocations(context.Background(), 10, 1, nil)
	if err != nil {
		t.Fatalf("replace with empty list: %v", err)
	}
	if len(locations) != 0 {
		t.Fatalf("expected empty result")
	}
}

func TestReplaceLocationsRollsBackMidInsert(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT user_id FROM diaries`).
		WithArgs(int64(10)).
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(int64(1)))
	mock.ExpectExec(`DELETE FROM location_comments`).
		WithArgs(int64(10)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`DELETE FROM locations`).
		WithArgs(int64(10)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectQuery(`INSERT INTO locations`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(101), now))
	mock.ExpectQuery(`INSERT INTO locations`).
		WillReturnError(errors.New("invalid geometry"))
	mock.ExpectRollback()

	lat, lng := 35.0, 139.0
	inputs := []location.Input{
		{Latitude: &lat, Longitude: &lng},
		{Latitude: &lat, Longitude: &lng},
	}

	svc := NewService(mock)
	if _, err := svc.ReplaceLocations(context.Background(), 10, 1, inputs); err == nil {
		t.Fatalf("expected replace to fail")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReplaceLocationsWrongOwner(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT user_id FROM diaries`).
		WithArgs(int64(10)).
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(int64(2)))
	mock.ExpectRollback()

	svc := NewService(mock)
	_, err := svc.ReplaceLocations(context.Background(), 10, 1, nil)
	if !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
