// Package auth resolves the caller of an HTTP request from a bearer token.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Kerhoff/GiftboT/internal/apperrors"
	"github.com/Kerhoff/GiftboT/internal/models"
)

// Session is the authenticated caller
type Session struct {
	UserID int64
	Role   models.Role
}

// IsAdmin returns true if the caller has the admin role
func (s *Session) IsAdmin() bool {
	return s.Role == models.RoleAdmin
}

// Claims are the JWT claims issued for a session
type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Provider issues and verifies HS256 session tokens
type Provider struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewProvider creates a provider signing with secret. Issued tokens expire
// after ttl.
func NewProvider(secret string, ttl time.Duration) *Provider {
	return &Provider{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for the user
func (p *Provider) Issue(user *models.User) (string, error) {
	now := p.now()
	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Session returns the caller of r. Missing or invalid credentials yield an
// authentication error.
func (p *Provider) Session(r *http.Request) (*Session, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, apperrors.Unauthenticated("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, apperrors.Unauthenticated("invalid authorization header")
	}
	return p.Verify(parts[1])
}

// Verify parses a token string into a session
func (p *Provider) Verify(tokenString string) (*Session, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.Unauthenticated("session expired")
		}
		return nil, apperrors.Unauthenticated("invalid token")
	}
	if !token.Valid {
		return nil, apperrors.Unauthenticated("invalid token")
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, apperrors.Unauthenticated("invalid token subject")
	}

	role := claims.Role
	if role == "" {
		role = models.RoleUser
	}
	return &Session{UserID: userID, Role: role}, nil
}
