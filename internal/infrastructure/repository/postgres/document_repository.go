package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kirillkom/digital-seva/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `id, user_id, document_type, file_path, uploaded_at, is_verified, confidence_score, errors`

// Upsert keeps the record id stable across re-uploads and returns the file
// path it replaced.
func (r *DocumentRepository) Upsert(ctx context.Context, rec *domain.DocumentRecord) (string, error) {
	errorsJSON, err := json.Marshal(nonNilStrings(rec.Verification.Errors))
	if err != nil {
		return "", fmt.Errorf("marshal verification errors: %w", err)
	}

	row := r.db.QueryRowContext(ctx, `
WITH prev AS (
	SELECT file_path FROM documents WHERE user_id = $2 AND document_type = $3 FOR UPDATE
)
INSERT INTO documents (`+documentColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (user_id, document_type) DO UPDATE SET
	file_path = EXCLUDED.file_path,
	uploaded_at = EXCLUDED.uploaded_at,
	is_verified = EXCLUDED.is_verified,
	confidence_score = EXCLUDED.confidence_score,
	errors = EXCLUDED.errors
RETURNING id, COALESCE((SELECT file_path FROM prev), '')
`,
		rec.ID, rec.UserID, string(rec.Type), rec.FilePath, rec.UploadedAt,
		rec.IsVerified, rec.Verification.ConfidenceScore, errorsJSON,
	)

	var id, previous string
	if err := row.Scan(&id, &previous); err != nil {
		return "", fmt.Errorf("upsert document: %w", err)
	}
	rec.ID = id
	return previous, nil
}

func (r *DocumentRepository) ListByUser(ctx context.Context, userID string) ([]domain.DocumentRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE user_id = $1
ORDER BY uploaded_at DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := make([]domain.DocumentRecord, 0)
	for rows.Next() {
		rec, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, userID, id string) (*domain.DocumentRecord, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE id = $1 AND user_id = $2
`, id, userID)

	rec, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get document", fmt.Errorf("document %s", id))
		}
		return nil, err
	}
	return &rec, nil
}

func (r *DocumentRepository) GetByType(ctx context.Context, userID string, docType domain.DocumentType) (*domain.DocumentRecord, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE user_id = $1 AND document_type = $2
`, userID, string(docType))

	rec, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get document by type", fmt.Errorf("%s for user %s", docType, userID))
		}
		return nil, err
	}
	return &rec, nil
}

func (r *DocumentRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrNotFound, "delete document", fmt.Errorf("document %s", id))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (domain.DocumentRecord, error) {
	var rec domain.DocumentRecord
	var docType string
	var errorsRaw []byte
	err := row.Scan(
		&rec.ID, &rec.UserID, &docType, &rec.FilePath, &rec.UploadedAt,
		&rec.IsVerified, &rec.Verification.ConfidenceScore, &errorsRaw,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("scan document: %w", err)
	}
	rec.Type = domain.DocumentType(docType)
	if len(errorsRaw) > 0 {
		if err := json.Unmarshal(errorsRaw, &rec.Verification.Errors); err != nil {
			return rec, fmt.Errorf("unmarshal verification errors: %w", err)
		}
	}
	rec.Verification.Errors = nonNilStrings(rec.Verification.Errors)
	return rec, nil
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
