package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/digital-seva/internal/core/domain"
	"github.com/kirillkom/digital-seva/internal/core/ports"
)

type AccountUseCase struct {
	users  ports.UserRepository
	hasher ports.PasswordHasher
	tokens ports.TokenIssuer
	cache  ports.Cache[domain.Profile]
	now    func() time.Time
}

// NewAccountUseCase wires the account service. cache may be nil.
func NewAccountUseCase(
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	cache ports.Cache[domain.Profile],
) *AccountUseCase {
	return &AccountUseCase{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		cache:  cache,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (uc *AccountUseCase) Register(ctx context.Context, reg domain.Registration) (*domain.AuthToken, error) {
	profile := domain.Profile{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(reg.Name),
		Email:       normalizeEmail(reg.Email),
		PhoneNumber: strings.TrimSpace(reg.PhoneNumber),
		Age:         reg.Age,
		Sex:         reg.Sex,
		CreatedAt:   uc.now(),
	}
	if profile.Name == "" || profile.Email == "" || reg.Password == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "register", errors.New("name, email and password are required"))
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	hash, err := uc.hasher.Hash(reg.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := uc.users.Create(ctx, &domain.Account{Profile: profile, PasswordHash: hash}); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := uc.tokens.Issue(profile.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &token, nil
}

func (uc *AccountUseCase) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthToken, error) {
	invalid := domain.WrapError(domain.ErrUnauthorized, "login", errors.New("invalid credentials"))

	account, err := uc.users.GetByEmail(ctx, normalizeEmail(creds.Email))
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			return nil, invalid
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := uc.hasher.Compare(account.PasswordHash, creds.Password); err != nil {
		return nil, invalid
	}

	token, err := uc.tokens.Issue(account.Profile.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &token, nil
}

// Authenticate returns the user id carried by a bearer token.
func (uc *AccountUseCase) Authenticate(_ context.Context, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", domain.WrapError(domain.ErrUnauthorized, "authenticate", errors.New("no token, authorization denied"))
	}
	userID, err := uc.tokens.Validate(token)
	if err != nil {
		return "", domain.WrapError(domain.ErrUnauthorized, "authenticate", err)
	}
	return userID, nil
}

// GetProfile reads through the profile cache.
func (uc *AccountUseCase) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	if uc.cache != nil {
		if p, ok := uc.cache.Get(ctx, userID); ok {
			return &p, nil
		}
	}
	p, err := uc.users.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if uc.cache != nil {
		uc.cache.Set(ctx, userID, *p)
	}
	return p, nil
}

// UpdateProfile applies a partial update and invalidates the cached copy.
func (uc *AccountUseCase) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.Profile, error) {
	current, err := uc.users.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	next := update.Apply(*current)
	if err := next.Validate(); err != nil {
		return nil, err
	}

	if uc.cache != nil {
		defer uc.cache.Delete(ctx, userID)
	}
	if err := uc.users.UpdateProfile(ctx, &next); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &next, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
