package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kirillkom/digital-seva/internal/core/domain"
)

const (
	DefaultTokenTTL = 5 * time.Hour
	issuer          = "digital-seva"
)

var errInvalidToken = errors.New("token is not valid")

// Claims is the access-token payload.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// JWTService issues and validates HS256 access tokens.
type JWTService struct {
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time
}

func NewJWTService(signingKey string, ttl time.Duration) (*JWTService, error) {
	if strings.TrimSpace(signingKey) == "" {
		return nil, errors.New("jwt signing key is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &JWTService{signingKey: []byte(signingKey), ttl: ttl, now: time.Now}, nil
}

func (s *JWTService) Issue(userID string) (domain.AuthToken, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return domain.AuthToken{}, err
	}
	return domain.AuthToken{Token: signed, ExpiresAt: expiresAt.UTC()}, nil
}

// Validate returns the user id carried by a valid, unexpired token.
func (s *JWTService) Validate(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errors.New("token has expired")
		}
		return "", errInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return "", errInvalidToken
	}
	return claims.UserID, nil
}
