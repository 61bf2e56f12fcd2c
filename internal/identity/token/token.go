// Package token validates the session tokens minted by the auth provider.
// Tokens are HS256 JWTs whose subject is the learner ID.
package token

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "sparkfish/pkg/domain"
	dErrors "sparkfish/pkg/domain-errors"
)

const (
	Issuer   = "sparkfish-auth"
	Audience = "authenticated"
)

// Claims are the session token claims this service relies on.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Service signs and validates session tokens.
type Service struct {
	signingKey []byte
	now        func() time.Time
}

func New(signingKey string) *Service {
	return &Service{signingKey: []byte(signingKey), now: time.Now}
}

// Issue mints a session token. The auth provider normally does this; the
// service uses it for local development sign-in and tests.
func (s *Service) Issue(learnerID id.LearnerID, email string, ttl time.Duration) (string, error) {
	now := s.now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   learnerID.String(),
			Issuer:    Issuer,
			Audience:  []string{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	})
	return t.SignedString(s.signingKey)
}

// ValidateSession returns the learner a valid token belongs to.
func (s *Service) ValidateSession(_ context.Context, tokenString string) (id.LearnerID, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return id.LearnerID{}, dErrors.New(dErrors.CodeUnauthorized, "session has expired")
		}
		return id.LearnerID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid session")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return id.LearnerID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid session")
	}

	learnerID, err := id.ParseLearnerID(claims.Subject)
	if err != nil {
		return id.LearnerID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid session subject")
	}
	return learnerID, nil
}
