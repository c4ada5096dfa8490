package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/digital-seva/internal/core/domain"
	"github.com/kirillkom/digital-seva/internal/core/ports"
)

type DocumentUseCase struct {
	documents ports.DocumentRepository
	storage   ports.ObjectStorage
	logger    *slog.Logger
}

func NewDocumentUseCase(documents ports.DocumentRepository, storage ports.ObjectStorage, logger *slog.Logger) *DocumentUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentUseCase{documents: documents, storage: storage, logger: logger}
}

func (uc *DocumentUseCase) ListMine(ctx context.Context, userID string) ([]domain.DocumentRecord, error) {
	records, err := uc.documents.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return records, nil
}

// Get returns not-found both for unknown ids and for records owned by
// another user.
func (uc *DocumentUseCase) Get(ctx context.Context, userID, id string) (*domain.DocumentRecord, error) {
	rec, err := uc.documents.GetByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return rec, nil
}

func (uc *DocumentUseCase) Delete(ctx context.Context, userID, id string) error {
	rec, err := uc.documents.GetByID(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}
	if rec.FilePath != "" {
		if err := uc.storage.Delete(ctx, rec.FilePath); err != nil {
			uc.logger.Warn("delete stored document file",
				slog.String("document_id", rec.ID),
				slog.String("file_path", rec.FilePath),
				slog.String("error", err.Error()),
			)
		}
	}
	if err := uc.documents.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("delete document record: %w", err)
	}
	return nil
}
