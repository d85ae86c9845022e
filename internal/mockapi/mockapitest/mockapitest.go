// Package mockapitest starts a seeded mock API for tests and hands back a
// logged-in client.
package mockapitest

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/sealion/internal/api"
	"github.com/odyssey-erp/sealion/internal/auth"
	"github.com/odyssey-erp/sealion/internal/mockapi"
	"github.com/odyssey-erp/sealion/internal/session"
)

// Env bundles a running mock API with a client bound to a session.
type Env struct {
	Server  *mockapi.Server
	HTTP    *httptest.Server
	Client  *api.Client
	Auth    *auth.Controller
	Session session.Store
}

// BaseURL is the API base URL of the running server.
func (e *Env) BaseURL() string {
	return e.HTTP.URL + "/api"
}

// New starts a seeded server and returns an anonymous client for it.
func New(t *testing.T, opts ...mockapi.Option) *Env {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := mockapi.NewServer(mockapi.Config{
		JWTSecret:  "test-secret",
		AccessTTL:  5 * time.Minute,
		RefreshTTL: time.Hour,
	}, logger, opts...)
	require.NoError(t, err)
	require.NoError(t, srv.Seed())

	root := chi.NewRouter()
	root.Mount("/api", srv.Routes())
	hs := httptest.NewServer(root)
	t.Cleanup(hs.Close)

	store := session.NewMemoryStore()
	ctrl, err := auth.NewController(context.Background(), store, logger)
	require.NoError(t, err)
	client, err := api.NewClient(hs.URL+"/api", ctrl, api.WithLogger(logger))
	require.NoError(t, err)
	ctrl.Bind(client)

	return &Env{Server: srv, HTTP: hs, Client: client, Auth: ctrl, Session: store}
}

// LoggedIn is New followed by a login as the seeded user.
func LoggedIn(t *testing.T, opts ...mockapi.Option) *Env {
	t.Helper()
	env := New(t, opts...)
	require.NoError(t, env.Auth.Login(context.Background(), mockapi.SeedUsername, mockapi.SeedPassword))
	return env
}
