package ports

import (
	"context"
	"io"

	"github.com/kirillkom/digital-seva/internal/core/domain"
)

// UserRepository persists accounts and profiles.
type UserRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, profile *domain.Profile) error
}

// DocumentRepository keeps one verified document record per (user, type).
type DocumentRepository interface {
	// Upsert inserts or replaces the record for (UserID, Type) and returns the
	// file path of the record it replaced, or "" when there was none.
	Upsert(ctx context.Context, rec *domain.DocumentRecord) (string, error)
	ListByUser(ctx context.Context, userID string) ([]domain.DocumentRecord, error)
	GetByID(ctx context.Context, userID, id string) (*domain.DocumentRecord, error)
	GetByType(ctx context.Context, userID string, docType domain.DocumentType) (*domain.DocumentRecord, error)
	Delete(ctx context.Context, userID, id string) error
}

// BookmarkRepository persists scheme bookmarks, unique per (user, scheme).
type BookmarkRepository interface {
	// Add stores the bookmark. When the pair already exists the stored
	// bookmark is copied into b and created is false.
	Add(ctx context.Context, b *domain.Bookmark) (created bool, err error)
	ListByUser(ctx context.Context, userID string) ([]domain.Bookmark, error)
	Delete(ctx context.Context, userID, id string) error
}

// ObjectStorage stores uploaded document files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// FileInspector checks that an upload is a well-formed document of the
// accepted format.
type FileInspector interface {
	Inspect(data []byte) error
}

type VerificationRequest struct {
	DocumentType domain.DocumentType
	Filename     string
	Content      []byte
}

// VerificationGateway submits a document to the external OCR/validation service.
type VerificationGateway interface {
	Verify(ctx context.Context, req VerificationRequest) (domain.VerificationVerdict, error)
}

// CompletionClient calls the external chat-completion service.
type CompletionClient interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (string, error)
}

// SchemeCatalog is the read-only list of welfare schemes.
type SchemeCatalog interface {
	List() []domain.Scheme
	Get(id int) (domain.Scheme, bool)
	FindByName(name string) (domain.Scheme, bool)
}

// Cache is a keyed cache with bounded lifetime. Misses and backend failures
// both report ok=false.
type Cache[V any] interface {
	Get(ctx context.Context, key string) (V, bool)
	Set(ctx context.Context, key string, value V)
	Delete(ctx context.Context, key string)
}

// DocumentEventPublisher announces superseded document files.
type DocumentEventPublisher interface {
	PublishDocumentSuperseded(ctx context.Context, event domain.DocumentSupersededEvent) error
}

// DocumentEventSubscriber consumes superseded document events.
type DocumentEventSubscriber interface {
	SubscribeDocumentSuperseded(ctx context.Context, handler func(context.Context, domain.DocumentSupersededEvent) error) error
}

// TokenIssuer issues and validates bearer tokens.
type TokenIssuer interface {
	Issue(userID string) (domain.AuthToken, error)
	Validate(token string) (string, error)
}

// PasswordHasher hashes and checks account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}
