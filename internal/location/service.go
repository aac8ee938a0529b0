package location

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/wasuken/maptabi-new/internal/apperr"
	"github.com/wasuken/maptabi-new/internal/db"
	"github.com/wasuken/maptabi-new/internal/shared/geo"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
)

type Service struct {
	db       db.Querier
	cache    *redis.Client
	cacheTTL time.Duration
}

func NewService(db db.Querier, cache *redis.Client, cacheTTL time.Duration) *Service {
	return &Service{db: db, cache: cache, cacheTTL: cacheTTL}
}

// Add inserts one waypoint under a diary owned by userID. When no
// order index is supplied the new waypoint goes after the current
// maximum; the read and the insert share a transaction with the parent
// diary row locked so concurrent adds cannot hand out the same index.
func (s *Service) Add(ctx context.Context, diaryID, userID int64, input Input) (Location, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Location{}, err
	}
	defer tx.Rollback(ctx)

	var ownerID int64
	err = tx.QueryRow(ctx, `SELECT user_id FROM diaries WHERE id = $1 FOR UPDATE`, diaryID).Scan(&ownerID)
	if err != nil {
		if apperr.IsNoRows(err) {
			return Location{}, apperr.ErrNotFound
		}
		return Location{}, err
	}
	if ownerID != userID {
		return Location{}, apperr.ErrUnauthorized
	}

	orderIndex := 0
	if input.OrderIndex != nil {
		orderIndex = *input.OrderIndex
	} else {
		err = tx.QueryRow(ctx, `
			SELECT COALESCE(MAX(order_index) + 1, 0) FROM locations WHERE diary_id = $1
		`, diaryID).Scan(&orderIndex)
		if err != nil {
			return Location{}, err
		}
	}

	loc, err := insertLocation(ctx, tx, diaryID, input, orderIndex)
	if err != nil {
		return Location{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Location{}, err
	}
	return loc, nil
}

// Delete removes a waypoint and its comments. Ownership runs through
// the parent diary.
func (s *Service) Delete(ctx context.Context, locationID, userID int64) error {
	var ownerID int64
	err := s.db.QueryRow(ctx, `
		SELECT d.user_id
		FROM locations l
		JOIN diaries d ON d.id = l.diary_id
		WHERE l.id = $1
	`, locationID).Scan(&ownerID)
	if err != nil {
		if apperr.IsNoRows(err) {
			return apperr.ErrNotFound
		}
		return err
	}
	if ownerID != userID {
		return apperr.ErrUnauthorized
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM location_comments WHERE location_id = $1`, locationID); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM locations WHERE id = $1`, locationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return tx.Commit(ctx)
}

// ListByOwner returns every waypoint across the user's diaries, with
// the diary title attached for map legends.
func (s *Service) ListByOwner(ctx context.Context, userID int64) ([]Location, error) {
	rows, err := s.db.Query(ctx, `
		SELECT l.id, l.diary_id, l.name,
		       ST_Y(l.coordinates::geometry), ST_X(l.coordinates::geometry),
		       l.altitude, l.recorded_at, l.order_index, l.created_at, d.title
		FROM locations l
		JOIN diaries d ON d.id = l.diary_id
		WHERE d.user_id = $1
		ORDER BY l.diary_id, l.order_index, l.id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		var loc Location
		if err := rows.Scan(&loc.ID, &loc.DiaryID, &loc.Name, &loc.Latitude, &loc.Longitude,
			&loc.Altitude, &loc.RecordedAt, &loc.OrderIndex, &loc.CreatedAt, &loc.DiaryTitle); err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

// PublicNearby returns waypoints of public diaries within radius of
// the query point. Diaries are picked newest-first (at most MaxDiaries
// with any point in range), then each diary's in-range waypoints are
// kept up to MaxLocationsPerDiary in route order. Results are cached
// briefly in Redis when a client is configured.
func (s *Service) PublicNearby(ctx context.Context, p NearbyParams) ([]Location, error) {
	key := nearbyCacheKey(p)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			var cached []Location
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	rows, err := s.db.Query(ctx, `
		WITH nearby_diaries AS (
			SELECT d.id, d.title, d.user_id
			FROM diaries d
			WHERE d.is_public = TRUE
			  AND EXISTS (
				SELECT 1 FROM locations l
				WHERE l.diary_id = d.id
				  AND ST_DWithin(l.coordinates, ST_SetSRID(ST_MakePoint($1,$2), 4326)::geography, $3)
			  )
			ORDER BY d.created_at DESC
			LIMIT $4
		), ranked AS (
			SELECT l.id, l.diary_id, l.name,
			       ST_Y(l.coordinates::geometry) AS latitude, ST_X(l.coordinates::geometry) AS longitude,
			       l.altitude, l.recorded_at, l.order_index, l.created_at,
			       nd.title, nd.user_id,
			       ROW_NUMBER() OVER (PARTITION BY l.diary_id ORDER BY l.order_index, l.id) AS diary_rank
			FROM locations l
			JOIN nearby_diaries nd ON nd.id = l.diary_id
			WHERE ST_DWithin(l.coordinates, ST_SetSRID(ST_MakePoint($1,$2), 4326)::geography, $3)
		)
		SELECT id, diary_id, name, latitude, longitude, altitude, recorded_at, order_index, created_at, title, user_id
		FROM ranked
		WHERE diary_rank <= $5
		ORDER BY diary_id, order_index
	`, p.Longitude, p.Latitude, p.RadiusKm*1000, p.MaxDiaries, p.MaxLocationsPerDiary)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		var loc Location
		if err := rows.Scan(&loc.ID, &loc.DiaryID, &loc.Name, &loc.Latitude, &loc.Longitude,
			&loc.Altitude, &loc.RecordedAt, &loc.OrderIndex, &loc.CreatedAt, &loc.DiaryTitle, &loc.UserID); err != nil {
			return nil, err
		}
		d := geo.HaversineKm(p.Latitude, p.Longitude, loc.Latitude, loc.Longitude)
		loc.DistanceKm = &d
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(locations); err == nil {
			if err := s.cache.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
				log.Printf("cache nearby results: %v", err)
			}
		}
	}
	return locations, nil
}

func nearbyCacheKey(p NearbyParams) string {
	return fmt.Sprintf("nearby:%.6f:%.6f:%.1f:%d:%d",
		p.Latitude, p.Longitude, p.RadiusKm, p.MaxDiaries, p.MaxLocationsPerDiary)
}

// insertLocation runs the shared waypoint INSERT and maps the returned
// row. It is used by Add here and by the diary full-replace.
func insertLocation(ctx context.Context, q interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}, diaryID int64, input Input, orderIndex int) (Location, error) {
	loc := Location{
		DiaryID:    diaryID,
		Name:       input.Name,
		Altitude:   input.Altitude,
		RecordedAt: input.RecordedAt,
		OrderIndex: orderIndex,
	}
	if input.Latitude != nil {
		loc.Latitude = *input.Latitude
	}
	if input.Longitude != nil {
		loc.Longitude = *input.Longitude
	}

	row := q.QueryRow(ctx, `
		INSERT INTO locations (diary_id, name, coordinates, altitude, recorded_at, order_index)
		VALUES ($1,$2, ST_SetSRID(ST_MakePoint($3,$4), 4326)::geography, $5,$6,$7)
		RETURNING id, created_at
	`, diaryID, input.Name, loc.Longitude, loc.Latitude, input.Altitude, input.RecordedAt, orderIndex)
	if err := row.Scan(&loc.ID, &loc.CreatedAt); err != nil {
		return Location{}, err
	}
	return loc, nil
}

// InsertForDiary exposes the shared insert to the diary package's
// full-replace transaction.
func InsertForDiary(ctx context.Context, tx pgx.Tx, diaryID int64, input Input, orderIndex int) (Location, error) {
	return insertLocation(ctx, tx, diaryID, input, orderIndex)
}

// ListByDiary returns a diary's waypoints in route order, ties broken
// by insertion id. Visibility of the diary is the caller's concern.
func ListByDiary(ctx context.Context, q db.Querier, diaryID int64) ([]Location, error) {
	rows, err := q.Query(ctx, `
		SELECT id, diary_id, name,
		       ST_Y(coordinates::geometry), ST_X(coordinates::geometry),
		       altitude, recorded_at, order_index, created_at
		FROM locations
		WHERE diary_id = $1
		ORDER BY order_index, id
	`, diaryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		var loc Location
		if err := rows.Scan(&loc.ID, &loc.DiaryID, &loc.Name, &loc.Latitude, &loc.Longitude,
			&loc.Altitude, &loc.RecordedAt, &loc.OrderIndex, &loc.CreatedAt); err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}
