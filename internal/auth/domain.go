package auth

import (
	"errors"
	"time"
)

// State is the authentication state of the client.
type State int

const (
	// Anonymous means no access token is held.
	Anonymous State = iota
	// Authenticated means an access token is held. Its freshness is only
	// discovered when the server rejects it.
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

var (
	// ErrInvalidCredentials reports a login attempt with blank fields.
	ErrInvalidCredentials = errors.New("auth: username and password are required")
	// ErrSessionExpired reports that the refresh token was missing or rejected.
	ErrSessionExpired = errors.New("auth: session expired, please log in again")
	// ErrNotLoggedIn is returned when an operation needs an access token.
	ErrNotLoggedIn = errors.New("auth: not logged in")
)

// Credentials are posted to the token and register endpoints.
type Credentials struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required"`
}

// User is the account returned by the register endpoint.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Claims is the unverified content of an access token.
type Claims struct {
	UserID    int64
	Username  string
	TokenType string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// Expired reports whether the token expiry has passed at now.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

type tokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}
