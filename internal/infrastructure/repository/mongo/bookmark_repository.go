package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kirillkom/digital-seva/internal/core/domain"
)

type bookmarkDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"userId"`
	SchemeID  int       `bson:"schemeId"`
	CreatedAt time.Time `bson:"createdAt"`
}

type BookmarkRepository struct {
	coll *mongo.Collection
}

func NewBookmarkRepository(db *mongo.Database) *BookmarkRepository {
	return &BookmarkRepository{coll: db.Collection(bookmarksCollection)}
}

func (r *BookmarkRepository) Add(ctx context.Context, b *domain.Bookmark) (bool, error) {
	_, err := r.coll.InsertOne(ctx, bookmarkDoc{ID: b.ID, UserID: b.UserID, SchemeID: b.SchemeID, CreatedAt: b.CreatedAt})
	if err == nil {
		return true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return false, fmt.Errorf("insert bookmark: %w", err)
	}

	var existing bookmarkDoc
	if err := r.coll.FindOne(ctx, bson.M{"userId": b.UserID, "schemeId": b.SchemeID}).Decode(&existing); err != nil {
		return false, fmt.Errorf("load existing bookmark: %w", err)
	}
	b.ID = existing.ID
	b.CreatedAt = existing.CreatedAt
	return false, nil
}

func (r *BookmarkRepository) ListByUser(ctx context.Context, userID string) ([]domain.Bookmark, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"userId": userID}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []bookmarkDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode bookmarks: %w", err)
	}
	out := make([]domain.Bookmark, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.Bookmark{ID: d.ID, UserID: d.UserID, SchemeID: d.SchemeID, CreatedAt: d.CreatedAt})
	}
	return out, nil
}

func (r *BookmarkRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.WrapError(domain.ErrNotFound, "delete bookmark", fmt.Errorf("bookmark %s", id))
	}
	return nil
}
