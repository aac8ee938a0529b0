package diary

import (
	"context"

	"github.com/wasuken/maptabi-new/internal/apperr"
	"github.com/wasuken/maptabi-new/internal/db"
	"github.com/wasuken/maptabi-new/internal/location"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) ListByOwner(ctx context.Context, userID int64) ([]Diary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, title, content, is_public, created_at, updated_at
		FROM diaries
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var diaries []Diary
	for rows.Next() {
		var d Diary
		if err := rows.Scan(&d.ID, &d.UserID, &d.Title, &d.Content, &d.IsPublic, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		diaries = append(diaries, d)
	}
	return diaries, rows.Err()
}

// GetByID returns a diary with its waypoints. A diary is visible to
// its owner or, when public, to anyone; an invisible diary reads the
// same as a missing one.
func (s *Service) GetByID(ctx context.Context, diaryID, userID int64) (DiaryWithLocations, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, title, content, is_public, created_at, updated_at
		FROM diaries
		WHERE id = $1 AND (user_id = $2 OR is_public = TRUE)
	`, diaryID, userID)

	var d DiaryWithLocations
	if err := row.Scan(&d.ID, &d.UserID, &d.Title, &d.Content, &d.IsPublic, &d.CreatedAt, &d.UpdatedAt); err != nil {
		if apperr.IsNoRows(err) {
			return DiaryWithLocations{}, apperr.ErrNotFound
		}
		return DiaryWithLocations{}, err
	}

	locations, err := location.ListByDiary(ctx, s.db, diaryID)
	if err != nil {
		return DiaryWithLocations{}, err
	}
	if locations == nil {
		locations = []location.Location{}
	}
	d.Locations = locations
	return d, nil
}

func (s *Service) Create(ctx context.Context, input Input, userID int64) (Diary, error) {
	d := Diary{
		UserID:   userID,
		Title:    input.Title,
		Content:  input.Content,
		IsPublic: input.IsPublic,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO diaries (user_id, title, content, is_public)
		VALUES ($1,$2,$3,$4)
		RETURNING id, created_at, updated_at
	`, d.UserID, d.Title, d.Content, d.IsPublic)
	if err := row.Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return Diary{}, err
	}
	return d, nil
}

// Update rewrites a diary's fields after the ownership check. The
// mutation itself is conditional on the owner so a concurrent delete
// surfaces as not-found rather than a partial write.
func (s *Service) Update(ctx context.Context, diaryID int64, input Input, userID int64) (Diary, error) {
	if err := s.checkOwner(ctx, diaryID, userID); err != nil {
		return Diary{}, err
	}

	row := s.db.QueryRow(ctx, `
		UPDATE diaries
		SET title = $1, content = $2, is_public = $3, updated_at = NOW()
		WHERE id = $4 AND user_id = $5
		RETURNING id, user_id, title, content, is_public, created_at, updated_at
	`, input.Title, input.Content, input.IsPublic, diaryID, userID)

	var d Diary
	if err := row.Scan(&d.ID, &d.UserID, &d.Title, &d.Content, &d.IsPublic, &d.CreatedAt, &d.UpdatedAt); err != nil {
		if apperr.IsNoRows(err) {
			return Diary{}, apperr.ErrNotFound
		}
		return Diary{}, err
	}
	return d, nil
}

// Delete removes a diary together with its waypoints and their
// comments in one transaction; a failure anywhere rolls the whole
// cascade back.
func (s *Service) Delete(ctx context.Context, diaryID, userID int64) error {
	if err := s.checkOwner(ctx, diaryID, userID); err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		DELETE FROM location_comments
		WHERE location_id IN (SELECT id FROM locations WHERE diary_id = $1)
	`, diaryID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM locations WHERE diary_id = $1`, diaryID); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM diaries WHERE id = $1 AND user_id = $2`, diaryID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return tx.Commit(ctx)
}

// Locations returns a diary's waypoints under the same visibility rule
// as GetByID.
func (s *Service) Locations(ctx context.Context, diaryID, userID int64) ([]location.Location, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM diaries WHERE id = $1 AND (user_id = $2 OR is_public = TRUE)
		)
	`, diaryID, userID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.ErrNotFound
	}
	return location.ListByDiary(ctx, s.db, diaryID)
}

// ReplaceLocations atomically swaps a diary's entire route for the
// supplied one. Existing waypoints (and their comments) are deleted
// and the new list inserted in input order inside one transaction, so
// readers never observe a partial route. A waypoint without an
// explicit order index takes its position in the list.
func (s *Service) ReplaceLocations(ctx context.Context, diaryID, userID int64, inputs []location.Input) ([]location.Location, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var ownerID int64
	err = tx.QueryRow(ctx, `SELECT user_id FROM diaries WHERE id = $1 FOR UPDATE`, diaryID).Scan(&ownerID)
	if err != nil {
		if apperr.IsNoRows(err) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if ownerID != userID {
		return nil, apperr.ErrUnauthorized
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM location_comments
		WHERE location_id IN (SELECT id FROM locations WHERE diary_id = $1)
	`, diaryID); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM locations WHERE diary_id = $1`, diaryID); err != nil {
		return nil, err
	}

	inserted := make([]location.Location, 0, len(inputs))
	for i, input := range inputs {
		orderIndex := i
		if input.OrderIndex != nil {
			orderIndex = *input.OrderIndex
		}
		loc, err := location.InsertForDiary(ctx, tx, diaryID, input, orderIndex)
		if err != nil {
			return nil, err
		}
		inserted = append(inserted, loc)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return inserted, nil
}

func (s *Service) checkOwner(ctx context.Context, diaryID, userID int64) error {
	var ownerID int64
	err := s.db.QueryRow(ctx, `SELECT user_id FROM diaries WHERE id = $1`, diaryID).Scan(&ownerID)
	if err != nil {
		if apperr.IsNoRows(err) {
			return apperr.ErrNotFound
		}
		return err
	}
	if ownerID != userID {
		return apperr.ErrUnauthorized
	}
	return nil
}
