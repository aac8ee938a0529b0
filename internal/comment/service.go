package comment

import (
	"context"

	"github.com/wasuken/maptabi-new/internal/apperr"
	"github.com/wasuken/maptabi-new/internal/db"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) ListByLocation(ctx context.Context, locationID int64) ([]Comment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT c.id, c.location_id, c.user_id, c.content, c.created_at, c.updated_at, u.display_name
		FROM location_comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.location_id = $1
		ORDER BY c.created_at DESC
	`, locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var cm Comment
		if err := rows.Scan(&cm.ID, &cm.LocationID, &cm.UserID, &cm.Content, &cm.CreatedAt, &cm.UpdatedAt, &cm.UserName); err != nil {
			return nil, err
		}
		comments = append(comments, cm)
	}
	return comments, rows.Err()
}

// Create adds a comment on an existing location. Any authenticated
// user may comment; only the location's existence is checked.
func (s *Service) Create(ctx context.Context, locationID, userID int64, content string) (Comment, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM locations WHERE id = $1)
	`, locationID).Scan(&exists)
	if err != nil {
		return Comment{}, err
	}
	if !exists {
		return Comment{}, apperr.ErrNotFound
	}

	cm := Comment{LocationID: locationID, UserID: userID, Content: content}
	row := s.db.QueryRow(ctx, `
		INSERT INTO location_comments (location_id, user_id, content)
		VALUES ($1,$2,$3)
		RETURNING id, created_at, updated_at
	`, locationID, userID, content)
	if err := row.Scan(&cm.ID, &cm.CreatedAt, &cm.UpdatedAt); err != nil {
		return Comment{}, err
	}

	if err := s.db.QueryRow(ctx, `SELECT display_name FROM users WHERE id = $1`, userID).Scan(&cm.UserName); err != nil && !apperr.IsNoRows(err) {
		return Comment{}, err
	}
	return cm, nil
}

// Update rewrites a comment's content. Only the author may do so,
// regardless of who owns the parent diary.
func (s *Service) Update(ctx context.Context, commentID, userID int64, content string) (Comment, error) {
	if err := s.checkAuthor(ctx, commentID, userID); err != nil {
		return Comment{}, err
	}

	var cm Comment
	row := s.db.QueryRow(ctx, `
		UPDATE location_comments
		SET content = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3
		RETURNING id, location_id, user_id, content, created_at, updated_at
	`, content, commentID, userID)
	if err := row.Scan(&cm.ID, &cm.LocationID, &cm.UserID, &cm.Content, &cm.CreatedAt, &cm.UpdatedAt); err != nil {
		if apperr.IsNoRows(err) {
			return Comment{}, apperr.ErrNotFound
		}
		return Comment{}, err
	}

	if err := s.db.QueryRow(ctx, `SELECT display_name FROM users WHERE id = $1`, userID).Scan(&cm.UserName); err != nil && !apperr.IsNoRows(err) {
		return Comment{}, err
	}
	return cm, nil
}

func (s *Service) Delete(ctx context.Context, commentID, userID int64) error {
	if err := s.checkAuthor(ctx, commentID, userID); err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `
		DELETE FROM location_comments WHERE id = $1 AND user_id = $2
	`, commentID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *Service) checkAuthor(ctx context.Context, commentID, userID int64) error {
	var authorID int64
	err := s.db.QueryRow(ctx, `SELECT user_id FROM location_comments WHERE id = $1`, commentID).Scan(&authorID)
	if err != nil {
		if apperr.IsNoRows(err) {
			return apperr.ErrNotFound
		}
		return err
	}
	if authorID != userID {
		return apperr.ErrUnauthorized
	}
	return nil
}
