package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/odyssey-erp/sealion/internal/api"
	"github.com/odyssey-erp/sealion/internal/platform/validate"
	"github.com/odyssey-erp/sealion/internal/session"
)

// Endpoint paths relative to the API base URL.
const (
	TokenPath        = "/token/"
	TokenRefreshPath = "/token/refresh/"
	RegisterPath     = "/user/register/"
)

// Poster is the subset of the API client used for token exchange.
type Poster interface {
	Post(ctx context.Context, path string, body, out any, opts ...api.RequestOption) error
}

// Listener observes state transitions.
type Listener func(from, to State)

// Controller owns the token pair and the Anonymous/Authenticated state. It
// is the session object injected into the API client as its TokenSource
// and Refresher.
type Controller struct {
	store  session.Store
	logger *slog.Logger

	mu         sync.Mutex
	poster     Poster
	state      State
	loginError string
	listeners  []Listener
}

// NewController reads the store once to pick the initial state: a stored
// access token means Authenticated.
func NewController(ctx context.Context, store session.Store, logger *slog.Logger) (*Controller, error) {
	if logger == nil {
		logger = slog.Default()
	}
	tokens, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth: load tokens: %w", err)
	}
	c := &Controller{store: store, logger: logger, state: Anonymous}
	if !tokens.Empty() {
		c.state = Authenticated
	}
	return c, nil
}

// Bind attaches the API client used for token calls and registers the
// controller as the client's refresh hook.
func (c *Controller) Bind(client *api.Client) {
	c.mu.Lock()
	c.poster = client
	c.mu.Unlock()
	client.SetRefresher(c)
}

// UsePoster attaches a poster without refresh wiring.
func (c *Controller) UsePoster(p Poster) {
	c.mu.Lock()
	c.poster = p
	c.mu.Unlock()
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LoginError returns the message from the last failed login, if any.
func (c *Controller) LoginError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loginError
}

// OnChange registers fn to run after every state transition.
func (c *Controller) OnChange(fn Listener) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// AccessToken reads the access token from the store on every call.
func (c *Controller) AccessToken(ctx context.Context) (string, error) {
	tokens, err := c.store.Load(ctx)
	if err != nil {
		return "", err
	}
	return tokens.Access, nil
}

// Login exchanges credentials for a token pair. On failure the normalised
// server message is kept as the login error and the state is unchanged.
func (c *Controller) Login(ctx context.Context, username, password string) error {
	creds := Credentials{Username: username, Password: password}
	if err := validate.Struct(creds); err != nil {
		c.setLoginError(ErrInvalidCredentials.Error())
		return fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	poster, err := c.requirePoster()
	if err != nil {
		return err
	}

	var pair tokenPair
	if err := poster.Post(ctx, TokenPath, creds, &pair, api.WithoutAuth()); err != nil {
		c.setLoginError(api.Message(err))
		return fmt.Errorf("auth: login: %w", err)
	}
	if pair.Access == "" {
		c.setLoginError("token response did not include an access token")
		return errors.New("auth: login: empty access token")
	}
	if err := c.store.Save(ctx, session.Tokens{Access: pair.Access, Refresh: pair.Refresh}); err != nil {
		return fmt.Errorf("auth: save tokens: %w", err)
	}
	c.setLoginError("")
	c.logger.Info("logged in", slog.String("username", username))
	c.transition(Authenticated)
	return nil
}

// Register creates an account. It does not log in.
func (c *Controller) Register(ctx context.Context, username, password string) (User, error) {
	creds := Credentials{Username: username, Password: password}
	if err := validate.Struct(creds); err != nil {
		return User{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	poster, err := c.requirePoster()
	if err != nil {
		return User{}, err
	}
	var user User
	if err := poster.Post(ctx, RegisterPath, creds, &user, api.WithoutAuth()); err != nil {
		return User{}, fmt.Errorf("auth: register: %w", err)
	}
	return user, nil
}

// Logout clears both tokens and moves to Anonymous.
func (c *Controller) Logout(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("auth: clear tokens: %w", err)
	}
	c.logger.Info("logged out")
	c.transition(Anonymous)
	return nil
}

// RefreshSession exchanges the refresh token for a new access token. Any
// failure clears the store and forces the Anonymous state.
func (c *Controller) RefreshSession(ctx context.Context) error {
	tokens, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("auth: load tokens: %w", err)
	}
	if tokens.Refresh == "" {
		c.expire(ctx)
		return fmt.Errorf("auth: refresh: %w", ErrSessionExpired)
	}
	poster, err := c.requirePoster()
	if err != nil {
		return err
	}

	var pair tokenPair
	if err := poster.Post(ctx, TokenRefreshPath, refreshRequest{Refresh: tokens.Refresh}, &pair, api.WithoutAuth()); err != nil {
		// Only a rejection from the server ends the session. Transport
		// and context errors leave the tokens for the next attempt.
		var apiErr *api.Error
		if !errors.As(err, &apiErr) {
			return fmt.Errorf("auth: refresh: %w", err)
		}
		c.expire(context.WithoutCancel(ctx))
		return fmt.Errorf("auth: refresh: %w: %w", ErrSessionExpired, err)
	}
	next := session.Tokens{Access: pair.Access, Refresh: tokens.Refresh}
	if pair.Refresh != "" {
		next.Refresh = pair.Refresh
	}
	if err := c.store.Save(ctx, next); err != nil {
		return fmt.Errorf("auth: save tokens: %w", err)
	}
	c.logger.Debug("access token refreshed")
	c.transition(Authenticated)
	return nil
}

// Claims decodes the stored access token without verifying its signature.
// The server stays the only judge of validity.
func (c *Controller) Claims(ctx context.Context) (Claims, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return Claims{}, err
	}
	if token == "" {
		return Claims{}, ErrNotLoggedIn
	}
	return ParseClaims(token)
}

// ParseClaims decodes the payload of a JWT access token.
func ParseClaims(token string) (Claims, error) {
	var raw struct {
		UserID    int64  `json:"user_id"`
		Username  string `json:"username"`
		TokenType string `json:"token_type"`
		jwt.RegisteredClaims
	}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &raw); err != nil {
		return Claims{}, fmt.Errorf("auth: parse access token: %w", err)
	}
	claims := Claims{UserID: raw.UserID, Username: raw.Username, TokenType: raw.TokenType}
	if raw.ExpiresAt != nil {
		claims.ExpiresAt = raw.ExpiresAt.Time
	}
	if raw.IssuedAt != nil {
		claims.IssuedAt = raw.IssuedAt.Time
	}
	if claims.Username == "" {
		claims.Username = raw.Subject
	}
	return claims, nil
}

// Remaining returns how long the access token stays valid at now.
func (c Claims) Remaining(now time.Time) time.Duration {
	if c.ExpiresAt.IsZero() {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}

func (c *Controller) expire(ctx context.Context) {
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Warn("clear tokens after failed refresh", slog.Any("error", err))
	}
	c.logger.Info("session expired")
	c.transition(Anonymous)
}

func (c *Controller) requirePoster() (Poster, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.poster == nil {
		return nil, errors.New("auth: controller is not bound to an api client")
	}
	return c.poster, nil
}

func (c *Controller) setLoginError(msg string) {
	c.mu.Lock()
	c.loginError = msg
	c.mu.Unlock()
}

func (c *Controller) transition(to State) {
	c.mu.Lock()
	from := c.state
	c.state = to
	listeners := append([]Listener(nil), c.listeners...)
	c.mu.Unlock()
	if from == to {
		return
	}
	for _, fn := range listeners {
		fn(from, to)
	}
}
