package ports

import (
	"context"

	"github.com/kirillkom/digital-seva/internal/core/domain"
)

// AccountService is the inbound contract for registration, login and profiles.
type AccountService interface {
	Register(ctx context.Context, reg domain.Registration) (*domain.AuthToken, error)
	Login(ctx context.Context, creds domain.Credentials) (*domain.AuthToken, error)
	Authenticate(ctx context.Context, token string) (string, error)
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.Profile, error)
}

// DocumentIntake is the inbound contract for the upload and verification pipeline.
type DocumentIntake interface {
	Intake(ctx context.Context, req domain.IntakeRequest) (*domain.IntakeResult, error)
}

// DocumentService is the inbound read/delete model for a user's documents.
type DocumentService interface {
	ListMine(ctx context.Context, userID string) ([]domain.DocumentRecord, error)
	Get(ctx context.Context, userID, id string) (*domain.DocumentRecord, error)
	Delete(ctx context.Context, userID, id string) error
}

// EligibilityService ranks schemes for a user.
type EligibilityService interface {
	Evaluate(ctx context.Context, userID string) ([]domain.SchemeMatch, error)
}

// RecommendationService produces scheme recommendations for a user.
type RecommendationService interface {
	RecommendForUser(ctx context.Context, userID string) (*domain.Recommendation, error)
}

// BookmarkService manages a user's scheme bookmarks.
type BookmarkService interface {
	Add(ctx context.Context, userID string, schemeID int) (*domain.Bookmark, bool, error)
	List(ctx context.Context, userID string) ([]domain.Bookmark, error)
	Remove(ctx context.Context, userID, id string) error
}

// AssistantService answers free-form questions about schemes.
type AssistantService interface {
	Chat(ctx context.Context, userID string, messages []domain.ChatMessage, language string) (*domain.ChatReply, error)
}

// Translator translates user-facing text.
type Translator interface {
	Translate(ctx context.Context, text, language, state string) string
}

// SupersededFileHandler cleans up files replaced by newer uploads.
type SupersededFileHandler interface {
	HandleSuperseded(ctx context.Context, event domain.DocumentSupersededEvent) error
}
