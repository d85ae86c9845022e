package mockapi

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/odyssey-erp/sealion/internal/auth"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var signingMethod = jwt.SigningMethodHS256

// ErrTokenInvalid covers bad signatures, expiry and wrong token types.
var ErrTokenInvalid = errors.New("mockapi: token invalid")

type tokenClaims struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies HS256 access and refresh tokens in the
// layout used by djangorestframework-simplejwt.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer.
func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration, now func() time.Time) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("mockapi: jwt secret is required")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("mockapi: token ttl must be positive")
	}
	if now == nil {
		now = time.Now
	}
	return &TokenIssuer{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL, now: now}, nil
}

// Pair issues a new access and refresh token for user.
func (t *TokenIssuer) Pair(user auth.User) (string, string, error) {
	access, err := t.mint(user, tokenTypeAccess, t.accessTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err := t.mint(user, tokenTypeRefresh, t.refreshTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// Access issues an access token only.
func (t *TokenIssuer) Access(user auth.User) (string, error) {
	return t.mint(user, tokenTypeAccess, t.accessTTL)
}

func (t *TokenIssuer) mint(user auth.User, tokenType string, ttl time.Duration) (string, error) {
	now := t.now()
	claims := tokenClaims{
		UserID:    user.ID,
		Username:  user.Username,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("mockapi: sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// Parse verifies token and checks its type.
func (t *TokenIssuer) Parse(token, tokenType string) (auth.User, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(tok *jwt.Token) (any, error) {
			return t.secret, nil
		},
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return auth.User{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.TokenType != tokenType {
		return auth.User{}, fmt.Errorf("%w: expected %s token", ErrTokenInvalid, tokenType)
	}
	return auth.User{ID: claims.UserID, Username: claims.Username}, nil
}
