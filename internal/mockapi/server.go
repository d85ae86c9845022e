// Package mockapi serves the Sea Lion REST contract from memory. It backs
// offline development and the end-to-end tests of the client packages.
package mockapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/odyssey-erp/sealion/internal/auth"
	"github.com/odyssey-erp/sealion/internal/platform/httpx"
)

// Config holds the knobs of a mock server.
type Config struct {
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// TokenRate caps token endpoint calls per client IP per minute. Zero
	// disables the limit.
	TokenRate int
}

// Server implements the HTTP handlers.
type Server struct {
	cfg    Config
	store  *Store
	tokens *TokenIssuer
	logger *slog.Logger
}

// Option customises a Server.
type Option func(*serverOptions)

type serverOptions struct {
	now func() time.Time
}

// WithClock replaces time.Now for token expiry and order dates.
func WithClock(now func() time.Time) Option {
	return func(o *serverOptions) {
		o.now = now
	}
}

// NewServer constructs a Server with an empty store.
func NewServer(cfg Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	o := serverOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	tokens, err := NewTokenIssuer(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL, o.now)
	if err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, store: NewStore(o.now), tokens: tokens, logger: logger}, nil
}

// Store exposes the backing store, mainly for seeding.
func (s *Server) Store() *Store {
	return s.store
}

// Tokens exposes the token issuer.
func (s *Server) Tokens() *TokenIssuer {
	return s.tokens
}

// Routes returns the API router, to be mounted under the API base path.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		if s.cfg.TokenRate > 0 {
			r.Use(httprate.LimitByIP(s.cfg.TokenRate, time.Minute))
		}
		r.Post("/token/", s.obtainToken)
		r.Post("/token/refresh/", s.refreshToken)
		r.Post("/user/register/", s.register)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Get("/products/", s.listProducts)
		r.Post("/products/", s.createProduct)
		r.Get("/products/{id}/", s.getProduct)
		r.Patch("/products/{id}/", s.updateProduct)
		r.Delete("/products/{id}/", s.deleteProduct)

		r.Get("/warehouse/", s.listWarehouse)

		r.Get("/purchase-orders/", s.listPurchaseOrders)
		r.Post("/purchase-orders/", s.createPurchaseOrder)
		r.Get("/purchase-orders/{id}/", s.getPurchaseOrder)
		r.Delete("/purchase-orders/{id}/", s.deletePurchaseOrder)
		r.Post("/purchase-orders/{id}/receive/", s.receivePurchaseOrder)

		r.Get("/sales-orders/", s.listSalesOrders)
		r.Post("/sales-orders/", s.createSalesOrder)
		r.Get("/sales-orders/{id}/", s.getSalesOrder)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Detail(w, http.StatusNotFound, "Not found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Detail(w, http.StatusMethodNotAllowed, "Method \""+r.Method+"\" not allowed.")
	})
	return r
}

type userKey struct{}

func userFromContext(ctx context.Context) (auth.User, bool) {
	u, ok := ctx.Value(userKey{}).(auth.User)
	return u, ok
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		user, err := s.tokens.Parse(strings.TrimSpace(token), tokenTypeAccess)
		if err != nil || !s.store.UserActive(user.Username) {
			s.logger.Debug("rejected access token", slog.Any("error", err))
			httpx.JSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Given token not valid for any token type",
				"code":   "token_not_valid",
			})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, user)))
	})
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, httpx.ErrNotFound
	}
	return id, nil
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errMalformedJSON) {
		httpx.Detail(w, http.StatusBadRequest, "JSON parse error")
		return
	}
	if !errors.Is(err, httpx.ErrNotFound) {
		s.logger.Debug("request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

// errMalformedJSON is answered with a 400 detail, as DRF does for bodies it
// cannot parse.
var errMalformedJSON = errors.New("mockapi: malformed json body")
