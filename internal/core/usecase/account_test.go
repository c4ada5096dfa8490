package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/digital-seva/internal/core/domain"
)

type userRepoFake struct {
	accounts map[string]*domain.Account
	getCalls int
	updated  *domain.Profile
}

func newUserRepoFake() *userRepoFake {
	return &userRepoFake{accounts: map[string]*domain.Account{}}
}

func (f *userRepoFake) Create(_ context.Context, account *domain.Account) error {
	for _, a := range f.accounts {
		if a.Profile.Email == account.Profile.Email {
			return domain.WrapError(domain.ErrConflict, "create user", errors.New("email already registered"))
		}
	}
	copyAccount := *account
	f.accounts[account.Profile.ID] = &copyAccount
	return nil
}

func (f *userRepoFake) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	for _, a := range f.accounts {
		if a.Profile.Email == email {
			out := *a
			return &out, nil
		}
	}
	return nil, domain.WrapError(domain.ErrNotFound, "get user by email", errors.New(email))
}

func (f *userRepoFake) GetProfile(_ context.Context, userID string) (*domain.Profile, error) {
	f.getCalls++
	a, ok := f.accounts[userID]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get profile", errors.New(userID))
	}
	p := a.Profile
	return &p, nil
}

func (f *userRepoFake) UpdateProfile(_ context.Context, profile *domain.Profile) error {
	a, ok := f.accounts[profile.ID]
	if !ok {
		return domain.WrapError(domain.ErrNotFound, "update profile", errors.New(profile.ID))
	}
	a.Profile = *profile
	p := *profile
	f.updated = &p
	return nil
}

type hasherFake struct{}

func (hasherFake) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (hasherFake) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

type tokenFake struct{}

func (tokenFake) Issue(userID string) (domain.AuthToken, error) {
	return domain.AuthToken{Token: "tok-" + userID, ExpiresAt: time.Unix(0, 0)}, nil
}

func (tokenFake) Validate(token string) (string, error) {
	if !strings.HasPrefix(token, "tok-") {
		return "", errors.New("bad token")
	}
	return strings.TrimPrefix(token, "tok-"), nil
}

func registerUser(t *testing.T, uc *AccountUseCase) string {
	t.Helper()
	tok, err := uc.Register(context.Background(), domain.Registration{
		Name: "Lakshmi", Email: " Lakshmi@Example.com ", Password: "secret1", PhoneNumber: "9876543210", Age: 34, Sex: domain.SexFemale,
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	userID, err := uc.Authenticate(context.Background(), tok.Token)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	return userID
}

func TestAccountRegisterAndLogin(t *testing.T) {
	uc := NewAccountUseCase(newUserRepoFake(), hasherFake{}, tokenFake{}, nil)
	userID := registerUser(t, uc)

	tok, err := uc.Login(context.Background(), domain.Credentials{Email: "lakshmi@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if tok.Token != "tok-"+userID {
		t.Fatalf("unexpected token %q", tok.Token)
	}

	if _, err := uc.Login(context.Background(), domain.Credentials{Email: "lakshmi@example.com", Password: "wrong"}); !domain.IsKind(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for wrong password, got %v", err)
	}
	if _, err := uc.Login(context.Background(), domain.Credentials{Email: "nobody@example.com", Password: "x"}); !domain.IsKind(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for unknown email, got %v", err)
	}
}

func TestAccountRegisterDuplicateEmail(t *testing.T) {
	uc := NewAccountUseCase(newUserRepoFake(), hasherFake{}, tokenFake{}, nil)
	registerUser(t, uc)

	_, err := uc.Register(context.Background(), domain.Registration{
		Name: "Other", Email: "lakshmi@example.com", Password: "secret2", PhoneNumber: "9000000000", Sex: domain.SexOther,
	})
	if !domain.IsKind(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAccountAuthenticateRejectsBadTokens(t *testing.T) {
	uc := NewAccountUseCase(newUserRepoFake(), hasherFake{}, tokenFake{}, nil)
	for _, tok := range []string{"", "garbage"} {
		if _, err := uc.Authenticate(context.Background(), tok); !domain.IsKind(err, domain.ErrUnauthorized) {
			t.Fatalf("Authenticate(%q) expected unauthorized, got %v", tok, err)
		}
	}
}

func TestAccountProfileReadThroughAndInvalidate(t *testing.T) {
	repo := newUserRepoFake()
	cache := newCacheFake[domain.Profile]()
	uc := NewAccountUseCase(repo, hasherFake{}, tokenFake{}, cache)
	userID := registerUser(t, uc)

	for i := 0; i < 3; i++ {
		if _, err := uc.GetProfile(context.Background(), userID); err != nil {
			t.Fatalf("GetProfile() error = %v", err)
		}
	}
	if repo.getCalls != 1 {
		t.Fatalf("expected one store read behind the cache, got %d", repo.getCalls)
	}

	rural := domain.ResidenceRural
	updated, err := uc.UpdateProfile(context.Background(), userID, domain.ProfileUpdate{ResidenceType: &rural})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if updated.ResidenceType != domain.ResidenceRural || updated.Name != "Lakshmi" {
		t.Fatalf("unexpected updated profile: %+v", updated)
	}
	if _, ok := cache.items[userID]; ok {
		t.Fatalf("expected cache entry invalidated on write")
	}

	fresh, err := uc.GetProfile(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if fresh.ResidenceType != domain.ResidenceRural {
		t.Fatalf("expected fresh profile after update, got %+v", fresh)
	}
}

func TestAccountUpdateProfileValidatesDisability(t *testing.T) {
	repo := newUserRepoFake()
	uc := NewAccountUseCase(repo, hasherFake{}, tokenFake{}, nil)
	userID := registerUser(t, uc)

	on := true
	_, err := uc.UpdateProfile(context.Background(), userID, domain.ProfileUpdate{IsDifferentlyAbled: &on})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if repo.updated != nil {
		t.Fatalf("invalid profile must not be stored")
	}
}

func TestAccountUpdateProfileClearedIncomeStopsIncomeSchemes(t *testing.T) {
	repo := newUserRepoFake()
	uc := NewAccountUseCase(repo, hasherFake{}, tokenFake{}, nil)
	userID := registerUser(t, uc)

	income := int64(150000)
	rural := domain.ResidenceRural
	if _, err := uc.UpdateProfile(context.Background(), userID, domain.ProfileUpdate{AnnualIncome: &income, ResidenceType: &rural}); err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	profile, err := uc.UpdateProfile(context.Background(), userID, domain.ProfileUpdate{Clear: []string{domain.FieldAnnualIncome}})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if profile.AnnualIncome != nil || repo.updated.AnnualIncome != nil {
		t.Fatalf("expected income cleared in result and store")
	}

	for _, m := range ScoreEligibility(*profile, nil) {
		if m.SchemeName == SchemeAyushman || m.SchemeName == SchemePMAYRural {
			t.Fatalf("income-based scheme %q still matched after clearing income", m.SchemeName)
		}
	}
}
