package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/odyssey-erp/sealion/internal/auth"
)

func (a *App) login(ctx context.Context, t *term, args []string) int {
	fs := newFlags(t, "login")
	username := fs.String("username", "", "account name")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if *username == "" {
		line, err := t.readLine("Username: ")
		if err != nil {
			return t.usage("login", "username is required")
		}
		*username = line
	}
	if *password == "" {
		line, err := t.readLine("Password: ")
		if err != nil {
			return t.usage("login", "password is required")
		}
		*password = line
	}
	if err := a.auth.Login(ctx, *username, *password); err != nil {
		if msg := a.auth.LoginError(); msg != "" {
			_, _ = fmt.Fprintf(t.err, "login: %s\n", msg)
			return ExitError
		}
		return t.fail("login", err)
	}
	t.printf("Logged in as %s.\n", *username)
	return ExitOK
}

func (a *App) logout(ctx context.Context, t *term) int {
	if err := a.auth.Logout(ctx); err != nil {
		return t.fail("logout", err)
	}
	t.println("Logged out.")
	return ExitOK
}

func (a *App) register(ctx context.Context, t *term, args []string) int {
	fs := newFlags(t, "register")
	username := fs.String("username", "", "account name")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	user, err := a.auth.Register(ctx, *username, *password)
	if err != nil {
		return t.fail("register", err)
	}
	t.printf("Registered %s. Log in with `sealion login`.\n", user.Username)
	return ExitOK
}

type statusReport struct {
	State     string     `json:"state"`
	Username  string     `json:"username,omitempty"`
	UserID    int64      `json:"user_id,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Expired   bool       `json:"expired"`
}

func (a *App) status(ctx context.Context, t *term, args []string) int {
	fs := newFlags(t, "status")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	report := statusReport{State: a.auth.State().String()}
	claims, err := a.auth.Claims(ctx)
	switch {
	case errors.Is(err, auth.ErrNotLoggedIn):
	case err != nil:
		return t.fail("status", err)
	default:
		now := a.now()
		report.Username = claims.Username
		report.UserID = claims.UserID
		if !claims.ExpiresAt.IsZero() {
			exp := claims.ExpiresAt
			report.ExpiresAt = &exp
		}
		report.Expired = claims.Expired(now)
	}
	if *asJSON {
		return t.writeJSON("status", report)
	}
	t.printf("State: %s\n", report.State)
	if report.Username != "" {
		t.printf("User: %s (id %d)\n", report.Username, report.UserID)
	}
	if report.ExpiresAt != nil {
		if report.Expired {
			t.printf("Access token expired at %s; it is refreshed on the next request.\n", report.ExpiresAt.Local().Format(time.RFC1123))
		} else {
			t.printf("Access token valid for %s.\n", claims.Remaining(a.now()).Round(time.Second))
		}
	}
	return ExitOK
}
