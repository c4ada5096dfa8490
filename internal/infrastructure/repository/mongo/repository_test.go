package mongo

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/kirillkom/digital-seva/internal/core/domain"
)

func newMockT(t *testing.T) *mtest.T {
	t.Helper()
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func TestDocumentUpsertReturnsReplacedFile(t *testing.T) {
	mt := newMockT(t)

	mt.Run("replaces existing", func(mt *mtest.T) {
		repo := NewDocumentRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: "existing-id"},
			{Key: "userId", Value: "u1"},
			{Key: "documentType", Value: "Aadhar Card"},
			{Key: "filePath", Value: "u1/aadhar-card/old.pdf"},
		}}))

		rec := &domain.DocumentRecord{ID: "new-id", UserID: "u1", Type: domain.DocAadharCard, FilePath: "u1/aadhar-card/new.pdf"}
		previous, err := repo.Upsert(context.Background(), rec)
		if err != nil {
			mt.Fatalf("Upsert() error = %v", err)
		}
		if previous != "u1/aadhar-card/old.pdf" {
			mt.Fatalf("previous = %q", previous)
		}
		if rec.ID != "existing-id" {
			mt.Fatalf("expected stored id, got %q", rec.ID)
		}
	})

	mt.Run("first upload", func(mt *mtest.T) {
		repo := NewDocumentRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		rec := &domain.DocumentRecord{ID: "new-id", UserID: "u1", Type: domain.DocAadharCard, FilePath: "u1/aadhar-card/new.pdf"}
		previous, err := repo.Upsert(context.Background(), rec)
		if err != nil {
			mt.Fatalf("Upsert() error = %v", err)
		}
		if previous != "" || rec.ID != "new-id" {
			mt.Fatalf("unexpected result previous=%q id=%q", previous, rec.ID)
		}
	})
}

func TestDocumentUpsertRetriesConcurrentInsert(t *testing.T) {
	mt := newMockT(t)

	mt.Run("duplicate then update", func(mt *mtest.T) {
		repo := NewDocumentRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 11000, Name: "DuplicateKey", Message: "E11000 duplicate key error"}),
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
				{Key: "_id", Value: "racer-id"},
				{Key: "userId", Value: "u1"},
				{Key: "documentType", Value: "PAN Card"},
				{Key: "filePath", Value: "u1/pan-card/racer.pdf"},
			}}),
		)

		rec := &domain.DocumentRecord{ID: "new-id", UserID: "u1", Type: domain.DocPANCard, FilePath: "u1/pan-card/mine.pdf"}
		previous, err := repo.Upsert(context.Background(), rec)
		if err != nil {
			mt.Fatalf("Upsert() error = %v", err)
		}
		if previous != "u1/pan-card/racer.pdf" || rec.ID != "racer-id" {
			mt.Fatalf("unexpected result previous=%q id=%q", previous, rec.ID)
		}
	})

	mt.Run("duplicate twice", func(mt *mtest.T) {
		repo := NewDocumentRepository(mt.DB)
		dup := mtest.CommandError{Code: 11000, Name: "DuplicateKey", Message: "E11000 duplicate key error"}
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(dup), mtest.CreateCommandErrorResponse(dup))

		rec := &domain.DocumentRecord{ID: "new-id", UserID: "u1", Type: domain.DocPANCard, FilePath: "u1/pan-card/mine.pdf"}
		if _, err := repo.Upsert(context.Background(), rec); err == nil {
			mt.Fatalf("expected error after second duplicate")
		}
	})
}

func TestDocumentGetByIDNotFound(t *testing.T) {
	mt := newMockT(t)

	mt.Run("missing", func(mt *mtest.T) {
		repo := NewDocumentRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "seva.documents", mtest.FirstBatch))

		if _, err := repo.GetByID(context.Background(), "u1", "nope"); !domain.IsKind(err, domain.ErrNotFound) {
			mt.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestDocumentListByUserDecodes(t *testing.T) {
	mt := newMockT(t)

	mt.Run("list", func(mt *mtest.T) {
		repo := NewDocumentRepository(mt.DB)
		uploaded := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "seva.documents", mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: "d1"},
				{Key: "userId", Value: "u1"},
				{Key: "documentType", Value: "PAN Card"},
				{Key: "filePath", Value: "u1/pan-card/a.pdf"},
				{Key: "uploadedAt", Value: uploaded},
				{Key: "isVerified", Value: true},
				{Key: "confidenceScore", Value: 0.8},
			},
		))

		records, err := repo.ListByUser(context.Background(), "u1")
		if err != nil {
			mt.Fatalf("ListByUser() error = %v", err)
		}
		if len(records) != 1 || records[0].Type != domain.DocPANCard || !records[0].IsVerified {
			mt.Fatalf("unexpected records: %+v", records)
		}
		if records[0].Verification.Errors == nil {
			mt.Fatalf("expected non-nil errors slice")
		}
	})
}

func TestDocumentDeleteNotFound(t *testing.T) {
	mt := newMockT(t)

	mt.Run("foreign record", func(mt *mtest.T) {
		repo := NewDocumentRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		if err := repo.Delete(context.Background(), "u2", "d1"); !domain.IsKind(err, domain.ErrNotFound) {
			mt.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	mt := newMockT(t)

	mt.Run("duplicate", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key error"}))

		err := repo.Create(context.Background(), &domain.Account{Profile: domain.Profile{ID: "u1", Email: "a@example.com"}, PasswordHash: "h"})
		if !domain.IsKind(err, domain.ErrConflict) {
			mt.Fatalf("expected ErrConflict, got %v", err)
		}
	})
}

func TestUserGetByEmail(t *testing.T) {
	mt := newMockT(t)

	mt.Run("found", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "seva.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "u1"},
			{Key: "name", Value: "Ravi"},
			{Key: "email", Value: "ravi@example.com"},
			{Key: "passwordHash", Value: "hash"},
			{Key: "annualIncome", Value: int64(150000)},
			{Key: "isStudent", Value: true},
		}))

		account, err := repo.GetByEmail(context.Background(), "ravi@example.com")
		if err != nil {
			mt.Fatalf("GetByEmail() error = %v", err)
		}
		if account.PasswordHash != "hash" || account.Profile.ID != "u1" || !account.Profile.IsStudent {
			mt.Fatalf("unexpected account: %+v", account)
		}
		if account.Profile.AnnualIncome == nil || *account.Profile.AnnualIncome != 150000 {
			mt.Fatalf("unexpected income: %v", account.Profile.AnnualIncome)
		}
		if account.Profile.FamilySize != nil {
			mt.Fatalf("expected absent family size to stay nil")
		}
	})

	mt.Run("missing", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "seva.users", mtest.FirstBatch))

		if _, err := repo.GetByEmail(context.Background(), "nobody@example.com"); !domain.IsKind(err, domain.ErrNotFound) {
			mt.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestUserUpdateProfileNotFound(t *testing.T) {
	mt := newMockT(t)

	mt.Run("no match", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		if err := repo.UpdateProfile(context.Background(), &domain.Profile{ID: "ghost"}); !domain.IsKind(err, domain.ErrNotFound) {
			mt.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestBookmarkAddDuplicateReturnsExisting(t *testing.T) {
	mt := newMockT(t)

	mt.Run("duplicate", func(mt *mtest.T) {
		repo := NewBookmarkRepository(mt.DB)
		created := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
		mt.AddMockResponses(
			mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key error"}),
			mtest.CreateCursorResponse(0, "seva.bookmarks", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: "b-old"},
				{Key: "userId", Value: "u1"},
				{Key: "schemeId", Value: 4},
				{Key: "createdAt", Value: created},
			}),
		)

		b := &domain.Bookmark{ID: "b-new", UserID: "u1", SchemeID: 4, CreatedAt: time.Now()}
		isNew, err := repo.Add(context.Background(), b)
		if err != nil {
			mt.Fatalf("Add() error = %v", err)
		}
		if isNew || b.ID != "b-old" || !b.CreatedAt.Equal(created) {
			mt.Fatalf("expected existing bookmark, got created=%v %+v", isNew, b)
		}
	})

	mt.Run("new", func(mt *mtest.T) {
		repo := NewBookmarkRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		isNew, err := repo.Add(context.Background(), &domain.Bookmark{ID: "b1", UserID: "u1", SchemeID: 2, CreatedAt: time.Now()})
		if err != nil || !isNew {
			mt.Fatalf("Add() created=%v error=%v", isNew, err)
		}
	})
}
