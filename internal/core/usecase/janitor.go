package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/digital-seva/internal/core/domain"
	"github.com/kirillkom/digital-seva/internal/core/ports"
)

// FileJanitorUseCase removes stored files that were replaced by a newer
// upload of the same document type.
type FileJanitorUseCase struct {
	documents ports.DocumentRepository
	storage   ports.ObjectStorage
	logger    *slog.Logger
}

func NewFileJanitorUseCase(documents ports.DocumentRepository, storage ports.ObjectStorage, logger *slog.Logger) *FileJanitorUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileJanitorUseCase{documents: documents, storage: storage, logger: logger}
}

func (uc *FileJanitorUseCase) HandleSuperseded(ctx context.Context, event domain.DocumentSupersededEvent) error {
	if event.FilePath == "" {
		return nil
	}

	current, err := uc.documents.GetByType(ctx, event.UserID, event.DocumentType)
	switch {
	case err == nil && current.FilePath == event.FilePath:
		uc.logger.Info("superseded file still referenced, skipping", slog.String("file_path", event.FilePath))
		return nil
	case err != nil && !domain.IsKind(err, domain.ErrNotFound):
		return fmt.Errorf("load current document: %w", err)
	}

	if err := uc.storage.Delete(ctx, event.FilePath); err != nil {
		return fmt.Errorf("delete superseded file: %w", err)
	}
	return nil
}
