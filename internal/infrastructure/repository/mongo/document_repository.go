package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kirillkom/digital-seva/internal/core/domain"
)

type documentDoc struct {
	ID              string    `bson:"_id"`
	UserID          string    `bson:"userId"`
	DocumentType    string    `bson:"documentType"`
	FilePath        string    `bson:"filePath"`
	UploadedAt      time.Time `bson:"uploadedAt"`
	IsVerified      bool      `bson:"isVerified"`
	ConfidenceScore float64   `bson:"confidenceScore"`
	Errors          []string  `bson:"errors"`
}

func (d documentDoc) record() domain.DocumentRecord {
	errs := d.Errors
	if errs == nil {
		errs = []string{}
	}
	return domain.DocumentRecord{
		ID:         d.ID,
		UserID:     d.UserID,
		Type:       domain.DocumentType(d.DocumentType),
		FilePath:   d.FilePath,
		UploadedAt: d.UploadedAt,
		IsVerified: d.IsVerified,
		Verification: domain.VerificationDetails{
			ConfidenceScore: d.ConfidenceScore,
			Errors:          errs,
		},
	}
}

type DocumentRepository struct {
	coll *mongo.Collection
}

func NewDocumentRepository(db *mongo.Database) *DocumentRepository {
	return &DocumentRepository{coll: db.Collection(documentsCollection)}
}

// Upsert replaces the (user, type) record in one round trip and reports the
// file path of the document it replaced.
func (r *DocumentRepository) Upsert(ctx context.Context, rec *domain.DocumentRecord) (string, error) {
	errs := rec.Verification.Errors
	if errs == nil {
		errs = []string{}
	}
	filter := bson.M{"userId": rec.UserID, "documentType": string(rec.Type)}
	update := bson.M{
		"$set": bson.M{
			"filePath":        rec.FilePath,
			"uploadedAt":      rec.UploadedAt,
			"isVerified":      rec.IsVerified,
			"confidenceScore": rec.Verification.ConfidenceScore,
			"errors":          errs,
		},
		"$setOnInsert": bson.M{"_id": rec.ID},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.Before)

	var previous documentDoc
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&previous)
	if mongo.IsDuplicateKeyError(err) {
		// A concurrent first upload inserted the pair; the retry updates it.
		previous = documentDoc{}
		err = r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&previous)
	}
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("upsert document: %w", err)
	}
	rec.ID = previous.ID
	return previous.FilePath, nil
}

func (r *DocumentRepository) ListByUser(ctx context.Context, userID string) ([]domain.DocumentRecord, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"userId": userID}, options.Find().SetSort(bson.D{{Key: "uploadedAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer cursor.Close(ctx)

	out := make([]domain.DocumentRecord, 0)
	for cursor.Next(ctx) {
		var doc documentDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		out = append(out, doc.record())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, userID, id string) (*domain.DocumentRecord, error) {
	return r.findOne(ctx, "get document", bson.M{"_id": id, "userId": userID})
}

func (r *DocumentRepository) GetByType(ctx context.Context, userID string, docType domain.DocumentType) (*domain.DocumentRecord, error) {
	return r.findOne(ctx, "get document by type", bson.M{"userId": userID, "documentType": string(docType)})
}

func (r *DocumentRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.WrapError(domain.ErrNotFound, "delete document", fmt.Errorf("document %s", id))
	}
	return nil
}

func (r *DocumentRepository) findOne(ctx context.Context, op string, filter bson.M) (*domain.DocumentRecord, error) {
	var doc documentDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.WrapError(domain.ErrNotFound, op, err)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rec := doc.record()
	return &rec, nil
}
