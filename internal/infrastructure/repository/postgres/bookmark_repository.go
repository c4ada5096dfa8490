package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kirillkom/digital-seva/internal/core/domain"
)

type BookmarkRepository struct {
	db *sql.DB
}

func NewBookmarkRepository(db *sql.DB) *BookmarkRepository {
	return &BookmarkRepository{db: db}
}

// Add inserts the bookmark unless (user, scheme) already exists, in which
// case b is overwritten with the stored row.
func (r *BookmarkRepository) Add(ctx context.Context, b *domain.Bookmark) (bool, error) {
	row := r.db.QueryRowContext(ctx, `
INSERT INTO bookmarks (id, user_id, scheme_id, created_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (user_id, scheme_id) DO NOTHING
RETURNING id
`, b.ID, b.UserID, b.SchemeID, b.CreatedAt)

	var id string
	err := row.Scan(&id)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("insert bookmark: %w", err)
	}

	existing := r.db.QueryRowContext(ctx, `
SELECT id, created_at
FROM bookmarks
WHERE user_id = $1 AND scheme_id = $2
`, b.UserID, b.SchemeID)
	if err := existing.Scan(&b.ID, &b.CreatedAt); err != nil {
		return false, fmt.Errorf("load existing bookmark: %w", err)
	}
	return false, nil
}

func (r *BookmarkRepository) ListByUser(ctx context.Context, userID string) ([]domain.Bookmark, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, scheme_id, created_at
FROM bookmarks
WHERE user_id = $1
ORDER BY created_at DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Bookmark, 0)
	for rows.Next() {
		var b domain.Bookmark
		if err := rows.Scan(&b.ID, &b.UserID, &b.SchemeID, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookmarks: %w", err)
	}
	return out, nil
}

func (r *BookmarkRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete bookmark rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrNotFound, "delete bookmark", fmt.Errorf("bookmark %s", id))
	}
	return nil
}
