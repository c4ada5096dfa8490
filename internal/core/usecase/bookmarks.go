package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/digital-seva/internal/core/domain"
	"github.com/kirillkom/digital-seva/internal/core/ports"
)

type BookmarkUseCase struct {
	bookmarks ports.BookmarkRepository
	catalog   ports.SchemeCatalog
	now       func() time.Time
}

func NewBookmarkUseCase(bookmarks ports.BookmarkRepository, catalog ports.SchemeCatalog) *BookmarkUseCase {
	return &BookmarkUseCase{
		bookmarks: bookmarks,
		catalog:   catalog,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Add bookmarks a scheme. Adding an existing pair returns the stored
// bookmark with created=false.
func (uc *BookmarkUseCase) Add(ctx context.Context, userID string, schemeID int) (*domain.Bookmark, bool, error) {
	scheme, ok := uc.catalog.Get(schemeID)
	if !ok {
		return nil, false, domain.WrapError(domain.ErrInvalidInput, "add bookmark", fmt.Errorf("unknown scheme id %d", schemeID))
	}

	b := &domain.Bookmark{
		ID:        uuid.NewString(),
		UserID:    userID,
		SchemeID:  schemeID,
		CreatedAt: uc.now(),
	}
	created, err := uc.bookmarks.Add(ctx, b)
	if err != nil {
		return nil, false, fmt.Errorf("add bookmark: %w", err)
	}
	b.Scheme = &scheme
	return b, created, nil
}

func (uc *BookmarkUseCase) List(ctx context.Context, userID string) ([]domain.Bookmark, error) {
	items, err := uc.bookmarks.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	for i := range items {
		if scheme, ok := uc.catalog.Get(items[i].SchemeID); ok {
			items[i].Scheme = &scheme
		}
	}
	return items, nil
}

// Remove deletes the caller's bookmark. A missing or foreign id yields
// domain.ErrNotFound.
func (uc *BookmarkUseCase) Remove(ctx context.Context, userID, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "remove bookmark", fmt.Errorf("bookmark id is required"))
	}
	if err := uc.bookmarks.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("remove bookmark: %w", err)
	}
	return nil
}
