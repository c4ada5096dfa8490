package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/digital-seva/internal/core/domain"
	"github.com/kirillkom/digital-seva/internal/core/ports"
)

const DefaultMaxUploadBytes int64 = 10 << 20

type IntakeOptions struct {
	MaxUploadBytes int64
	// Events is optional. Without it superseded files are deleted inline.
	Events ports.DocumentEventPublisher
	Logger *slog.Logger
}

type DocumentIntakeUseCase struct {
	documents ports.DocumentRepository
	storage   ports.ObjectStorage
	gateway   ports.VerificationGateway
	inspector ports.FileInspector
	events    ports.DocumentEventPublisher
	maxBytes  int64
	locks     *keyedMutex
	logger    *slog.Logger
	now       func() time.Time
}

func NewDocumentIntakeUseCase(
	documents ports.DocumentRepository,
	storage ports.ObjectStorage,
	gateway ports.VerificationGateway,
	inspector ports.FileInspector,
	opts IntakeOptions,
) *DocumentIntakeUseCase {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &DocumentIntakeUseCase{
		documents: documents,
		storage:   storage,
		gateway:   gateway,
		inspector: inspector,
		events:    opts.Events,
		maxBytes:  opts.MaxUploadBytes,
		locks:     newKeyedMutex(),
		logger:    opts.Logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Intake verifies an uploaded document and persists it only when the
// verification gateway accepts it. Gateway failures and rejections are
// reported in the result, not as errors.
func (uc *DocumentIntakeUseCase) Intake(ctx context.Context, req domain.IntakeRequest) (*domain.IntakeResult, error) {
	data, err := uc.validate(req)
	if err != nil {
		return nil, err
	}

	unlock := uc.locks.Lock(req.UserID + "|" + string(req.DocumentType))
	defer unlock()

	verdict, err := uc.gateway.Verify(ctx, ports.VerificationRequest{
		DocumentType: req.DocumentType,
		Filename:     req.Filename,
		Content:      data,
	})
	if err != nil {
		uc.logger.Warn("document verification call failed",
			slog.String("user_id", req.UserID),
			slog.String("document_type", string(req.DocumentType)),
			slog.String("error", err.Error()),
		)
		return failedIntake(req.DocumentType, []string{describeGatewayFailure(err)}), nil
	}

	switch outcome := verdict.Outcome(req.DocumentType).(type) {
	case domain.RejectedOutcome:
		return failedIntake(req.DocumentType, outcome.Errors), nil
	case domain.VerifiedOutcome:
		rec, err := uc.persist(ctx, req, data, outcome)
		if err != nil {
			return nil, err
		}
		return &domain.IntakeResult{
			Status:       domain.IntakeVerified,
			DocumentType: req.DocumentType,
			Message:      "Document verified successfully",
			Errors:       rec.Verification.Errors,
			Document:     rec,
		}, nil
	default:
		return nil, fmt.Errorf("unexpected verification outcome %T", outcome)
	}
}

func (uc *DocumentIntakeUseCase) validate(req domain.IntakeRequest) ([]byte, error) {
	const op = "intake document"
	if req.UserID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, op, errors.New("user id is required"))
	}
	if !req.DocumentType.Valid() {
		return nil, domain.WrapError(domain.ErrInvalidInput, op, fmt.Errorf("unknown document type %q", req.DocumentType))
	}
	if req.Body == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, op, errors.New("file is required"))
	}
	if req.Size > uc.maxBytes {
		return nil, domain.WrapError(domain.ErrTooLarge, op, fmt.Errorf("file exceeds %d bytes", uc.maxBytes))
	}

	data, err := io.ReadAll(io.LimitReader(req.Body, uc.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, op, errors.New("file is empty"))
	}
	if int64(len(data)) > uc.maxBytes {
		return nil, domain.WrapError(domain.ErrTooLarge, op, fmt.Errorf("file exceeds %d bytes", uc.maxBytes))
	}
	if err := uc.inspector.Inspect(data); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, op, err)
	}
	return data, nil
}

func (uc *DocumentIntakeUseCase) persist(
	ctx context.Context,
	req domain.IntakeRequest,
	data []byte,
	outcome domain.VerifiedOutcome,
) (*domain.DocumentRecord, error) {
	key := fmt.Sprintf("%s/%s/%s.pdf", req.UserID, req.DocumentType.Slug(), uuid.NewString())
	if err := uc.storage.Save(ctx, key, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	warnings := make([]string, len(outcome.Warnings))
	copy(warnings, outcome.Warnings)
	rec := &domain.DocumentRecord{
		ID:         uuid.NewString(),
		UserID:     req.UserID,
		Type:       req.DocumentType,
		FilePath:   key,
		UploadedAt: uc.now(),
		IsVerified: true,
		Verification: domain.VerificationDetails{
			ConfidenceScore: outcome.Score,
			Errors:          warnings,
		},
	}

	previous, err := uc.documents.Upsert(ctx, rec)
	if err != nil {
		if delErr := uc.storage.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			uc.logger.Error("remove orphaned upload", slog.String("file_path", key), slog.String("error", delErr.Error()))
		}
		return nil, fmt.Errorf("upsert document record: %w", err)
	}

	if previous != "" && previous != key {
		uc.supersede(ctx, domain.DocumentSupersededEvent{
			UserID:       req.UserID,
			DocumentType: req.DocumentType,
			FilePath:     previous,
			SupersededAt: rec.UploadedAt,
		})
	}
	return rec, nil
}

func (uc *DocumentIntakeUseCase) supersede(ctx context.Context, event domain.DocumentSupersededEvent) {
	if uc.events != nil {
		err := uc.events.PublishDocumentSuperseded(ctx, event)
		if err == nil {
			return
		}
		uc.logger.Warn("publish superseded event failed, deleting inline",
			slog.String("file_path", event.FilePath),
			slog.String("error", err.Error()),
		)
	}
	if err := uc.storage.Delete(context.WithoutCancel(ctx), event.FilePath); err != nil {
		uc.logger.Warn("delete superseded file", slog.String("file_path", event.FilePath), slog.String("error", err.Error()))
	}
}

func failedIntake(docType domain.DocumentType, errs []string) *domain.IntakeResult {
	res := &domain.IntakeResult{
		Status:       domain.IntakeFailed,
		DocumentType: docType,
		Errors:       errs,
	}
	if len(errs) > 0 {
		res.Message = errs[0]
	}
	return res
}

func describeGatewayFailure(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "Document verification timed out, please try again"
	case domain.IsKind(err, domain.ErrTemporary):
		return "Document verification service is temporarily unavailable"
	default:
		return "Error verifying document"
	}
}
