// Package auth validates the bearer tokens issued by the identity provider
// and mints tokens for local development.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gosuda/taskledger/internal/domain"
)

// Issuer is the iss claim of tokens minted by IssueAccessToken.
const Issuer = "taskledger"

// Claims holds the JWT token payload.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"uid"`
	Role      string `json:"role"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	TokenType string `json:"typ,omitempty"` // "access" when set
}

const tokenTypeAccess = "access"

// ErrInvalidToken is returned when a JWT cannot be parsed or has expired.
var ErrInvalidToken = errors.New("auth: invalid or expired token")

// IssueAccessToken creates a signed JWT access token carrying only identity
// and role.
func IssueAccessToken(secret string, userID uuid.UUID, role domain.Role, ttl time.Duration) (string, error) {
	return IssueActorToken(secret, &domain.Actor{ID: userID, Role: role}, ttl)
}

// IssueActorToken creates a signed JWT access token that also carries the
// actor's name and email, so the service can provision its actor record.
func IssueActorToken(secret string, actor *domain.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    Issuer,
		},
		UserID:    actor.ID.String(),
		Role:      string(actor.Role),
		Name:      actor.Name,
		Email:     actor.Email,
		TokenType: tokenTypeAccess,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("auth.IssueActorToken: %w", err)
	}

	return signed, nil
}

// ValidateToken parses and validates a JWT token string. Returns the embedded claims.
func ValidateToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("auth.ValidateToken: %w", ErrInvalidToken)
	}

	if !token.Valid {
		return nil, fmt.Errorf("auth.ValidateToken: %w", ErrInvalidToken)
	}

	if claims.TokenType != "" && claims.TokenType != tokenTypeAccess {
		return nil, fmt.Errorf("auth.ValidateToken: token type %q: %w", claims.TokenType, ErrInvalidToken)
	}

	return claims, nil
}

// Actor converts validated claims into the acting identity. It fails when
// the user id is malformed or the role is unknown.
func (c *Claims) Actor() (*domain.Actor, error) {
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return nil, fmt.Errorf("auth.Claims.Actor: user id: %w", ErrInvalidToken)
	}

	role := domain.Role(c.Role)
	if !role.Valid() {
		return nil, fmt.Errorf("auth.Claims.Actor: role %q: %w", c.Role, ErrInvalidToken)
	}

	return &domain.Actor{
		ID:    id,
		Name:  strings.TrimSpace(c.Name),
		Email: strings.ToLower(strings.TrimSpace(c.Email)),
		Role:  role,
	}, nil
}
