package httpadapter

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/kirillkom/digital-seva/internal/core/domain"
)

const testToken = "valid-token"

type accountsFake struct {
	registerErr error
	profile     *domain.Profile
	lastUpdate  domain.ProfileUpdate
}

func (f *accountsFake) Register(_ context.Context, reg domain.Registration) (*domain.AuthToken, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &domain.AuthToken{Token: "issued-for-" + reg.Email}, nil
}

func (f *accountsFake) Login(_ context.Context, creds domain.Credentials) (*domain.AuthToken, error) {
	if creds.Password != "secret1" {
		return nil, domain.WrapError(domain.ErrUnauthorized, "login", errors.New("invalid credentials"))
	}
	return &domain.AuthToken{Token: testToken}, nil
}

func (f *accountsFake) Authenticate(_ context.Context, token string) (string, error) {
	if token != testToken {
		return "", domain.WrapError(domain.ErrUnauthorized, "authenticate", errors.New("token is not valid"))
	}
	return "user-1", nil
}

func (f *accountsFake) GetProfile(_ context.Context, userID string) (*domain.Profile, error) {
	if f.profile == nil {
		return nil, domain.WrapError(domain.ErrNotFound, "get profile", errors.New("user not found"))
	}
	p := *f.profile
	p.ID = userID
	return &p, nil
}

func (f *accountsFake) UpdateProfile(_ context.Context, userID string, update domain.ProfileUpdate) (*domain.Profile, error) {
	f.lastUpdate = update
	p := update.Apply(domain.Profile{ID: userID})
	return &p, nil
}

type intakeFake struct {
	result   *domain.IntakeResult
	err      error
	lastReq  domain.IntakeRequest
	lastBody string
}

func (f *intakeFake) Intake(_ context.Context, req domain.IntakeRequest) (*domain.IntakeResult, error) {
	f.lastReq = req
	body, _ := io.ReadAll(req.Body)
	f.lastBody = string(body)
	return f.result, f.err
}

type documentsFake struct {
	docs    []domain.DocumentRecord
	deleted []string
}

func (f *documentsFake) ListMine(context.Context, string) ([]domain.DocumentRecord, error) {
	return f.docs, nil
}

func (f *documentsFake) Get(_ context.Context, _ string, id string) (*domain.DocumentRecord, error) {
	for _, d := range f.docs {
		if d.ID == id {
			return &d, nil
		}
	}
	return nil, domain.WrapError(domain.ErrNotFound, "get document", errors.New("document not found"))
}

func (f *documentsFake) Delete(_ context.Context, _ string, id string) error {
	if _, err := f.Get(context.Background(), "", id); err != nil {
		return err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type eligibilityFake struct {
	matches []domain.SchemeMatch
	err     error
}

func (f eligibilityFake) Evaluate(context.Context, string) ([]domain.SchemeMatch, error) {
	return f.matches, f.err
}

type recommendationsFake struct {
	rec *domain.Recommendation
	err error
}

func (f recommendationsFake) RecommendForUser(context.Context, string) (*domain.Recommendation, error) {
	return f.rec, f.err
}

type bookmarksFake struct {
	existing map[int]bool
}

func (f *bookmarksFake) Add(_ context.Context, userID string, schemeID int) (*domain.Bookmark, bool, error) {
	if schemeID > 100 {
		return nil, false, domain.WrapError(domain.ErrNotFound, "add bookmark", errors.New("scheme not found"))
	}
	created := !f.existing[schemeID]
	if f.existing == nil {
		f.existing = map[int]bool{}
	}
	f.existing[schemeID] = true
	return &domain.Bookmark{ID: "bm-1", UserID: userID, SchemeID: schemeID}, created, nil
}

func (f *bookmarksFake) List(_ context.Context, userID string) ([]domain.Bookmark, error) {
	return []domain.Bookmark{{ID: "bm-1", UserID: userID, SchemeID: 1}}, nil
}

func (f *bookmarksFake) Remove(_ context.Context, _ string, id string) error {
	if id != "bm-1" {
		return domain.WrapError(domain.ErrNotFound, "remove bookmark", errors.New("bookmark not found"))
	}
	return nil
}

type assistantFake struct {
	lastLanguage string
}

func (f *assistantFake) Chat(_ context.Context, _ string, messages []domain.ChatMessage, language string) (*domain.ChatReply, error) {
	f.lastLanguage = language
	last := messages[len(messages)-1].Content
	return &domain.ChatReply{
		Message: domain.ChatMessage{Role: domain.RoleAssistant, Content: "re: " + last},
		Source:  domain.SourceAI,
	}, nil
}

type translatorFake struct{}

func (translatorFake) Translate(_ context.Context, text, language, _ string) string {
	return "[" + language + "] " + strings.ToUpper(text)
}

type catalogFake struct {
	schemes []domain.Scheme
}

func (f catalogFake) List() []domain.Scheme { return f.schemes }

func (f catalogFake) Get(id int) (domain.Scheme, bool) {
	for _, s := range f.schemes {
		if s.ID == id {
			return s, true
		}
	}
	return domain.Scheme{}, false
}

func (f catalogFake) FindByName(name string) (domain.Scheme, bool) {
	for _, s := range f.schemes {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return domain.Scheme{}, false
}
