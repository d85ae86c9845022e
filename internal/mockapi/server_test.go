package mockapi_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/sealion/internal/api"
	"github.com/odyssey-erp/sealion/internal/auth"
	"github.com/odyssey-erp/sealion/internal/mockapi"
	"github.com/odyssey-erp/sealion/internal/mockapi/mockapitest"
	"github.com/odyssey-erp/sealion/internal/procurement"
	"github.com/odyssey-erp/sealion/internal/products"
	"github.com/odyssey-erp/sealion/internal/sales"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func findProduct(t *testing.T, env *mockapitest.Env, code string) products.Product {
	t.Helper()
	var list []products.Product
	require.NoError(t, env.Client.Get(context.Background(), "/products/", api.SearchQuery(code), &list))
	require.Len(t, list, 1)
	return list[0]
}

func TestLoginWithWrongPassword(t *testing.T) {
	env := mockapitest.New(t)
	err := env.Auth.Login(context.Background(), mockapi.SeedUsername, "nope")
	require.Error(t, err)
	require.Equal(t, "No active account found with the given credentials", env.Auth.LoginError())
	require.Equal(t, auth.Anonymous, env.Auth.State())
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	env := mockapitest.New(t)
	var out []products.Product
	err := env.Client.Get(context.Background(), "/products/", nil, &out)
	require.ErrorIs(t, err, api.ErrUnauthorized)
	require.Equal(t, "Authentication credentials were not provided.", api.Message(err))
}

func TestRegisterThenLogin(t *testing.T) {
	env := mockapitest.New(t)
	ctx := context.Background()
	user, err := env.Auth.Register(ctx, "clerk", "clerk-pass")
	require.NoError(t, err)
	require.Equal(t, "clerk", user.Username)

	_, err = env.Auth.Register(ctx, "clerk", "other-pass")
	require.Error(t, err)
	require.Equal(t, "Username: A user with that username already exists.", api.Message(err))

	require.NoError(t, env.Auth.Login(ctx, "clerk", "clerk-pass"))
	require.Equal(t, auth.Authenticated, env.Auth.State())
}

func TestProductLifecycle(t *testing.T) {
	env := mockapitest.LoggedIn(t)
	ctx := context.Background()

	form := api.NewMultipart().
		Field("name", "Anchor Chain").
		Field("price", "310.00").
		Field("stock", "3")
	require.NoError(t, form.File("image", "chain.png", strings.NewReader("png")))
	var created products.Product
	require.NoError(t, env.Client.Post(ctx, "/products/", form, &created))
	require.Equal(t, "Anchor Chain", created.Name)
	require.Equal(t, "/media/products/chain.png", created.Image)
	require.True(t, created.Price.Equal(decimal.RequireFromString("310")))
	require.True(t, strings.HasPrefix(created.Code, "PRD-"))

	var updated products.Product
	require.NoError(t, env.Client.Patch(ctx, "/products/"+itoa(created.ID)+"/",
		api.NewMultipart().Field("stock", "9"), &updated))
	require.Equal(t, 9, updated.Stock)
	require.Equal(t, "Anchor Chain", updated.Name)
	require.Equal(t, "/media/products/chain.png", updated.Image)

	require.NoError(t, env.Client.Delete(ctx, "/products/"+itoa(created.ID)+"/"))
	err := env.Client.Get(ctx, "/products/"+itoa(created.ID)+"/", nil, &updated)
	require.ErrorIs(t, err, api.ErrNotFound)
	require.Equal(t, "Not found.", api.Message(err))
}

func TestProductValidationMessages(t *testing.T) {
	env := mockapitest.LoggedIn(t)
	ctx := context.Background()

	err := env.Client.Post(ctx, "/products/", api.NewMultipart().Field("name", "Bad").Field("price", "abc"), nil)
	require.ErrorIs(t, err, api.ErrValidation)
	require.Equal(t, "Price: A valid number is required.", api.Message(err))

	err = env.Client.Post(ctx, "/products/", api.NewMultipart().Field("price", "1"), nil)
	require.Equal(t, "Name: This field is required.", api.Message(err))

	err = env.Client.Post(ctx, "/products/", map[string]string{"name": "json"}, nil)
	require.Error(t, err)
	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnsupportedMediaType, apiErr.StatusCode)
}

func TestProductSearch(t *testing.T) {
	env := mockapitest.LoggedIn(t)
	var list []products.Product
	require.NoError(t, env.Client.Get(context.Background(), "/products/", api.SearchQuery("buoy"), &list))
	require.Len(t, list, 1)
	require.Equal(t, "SL-BUOY-S", list[0].Code)
}

func TestComposedPurchaseOrderAndReceive(t *testing.T) {
	env := mockapitest.LoggedIn(t)
	ctx := context.Background()
	rope := findProduct(t, env, "SL-ROPE-12")
	buoy := findProduct(t, env, "SL-BUOY-S")

	doc := map[string]any{
		"supplier": "Harbour Supply Co.",
		"items": []map[string]any{
			{"product": rope.ID, "quantity": 5},
			{"product": buoy.ID, "quantity": 2},
		},
	}
	var created []procurement.PurchaseOrder
	require.NoError(t, env.Client.Post(ctx, "/purchase-orders/", doc, &created))
	require.Len(t, created, 2)
	require.Equal(t, procurement.StatusPending, created[0].Status)
	require.True(t, created[0].UnitPrice.Equal(rope.Price))

	var status map[string]string
	require.NoError(t, env.Client.Post(ctx, "/purchase-orders/"+itoa(created[0].ID)+"/receive/", nil, &status))
	require.Equal(t, "Order received and stock updated.", status["status"])
	require.Equal(t, rope.Stock+5, findProduct(t, env, "SL-ROPE-12").Stock)

	err := env.Client.Post(ctx, "/purchase-orders/"+itoa(created[0].ID)+"/receive/", nil, nil)
	require.ErrorIs(t, err, api.ErrValidation)
	require.Equal(t, "Error: This order has already been received.", api.Message(err))
}

func TestComposedPurchaseOrderIsAtomic(t *testing.T) {
	env := mockapitest.LoggedIn(t)
	ctx := context.Background()
	rope := findProduct(t, env, "SL-ROPE-12")

	var before []procurement.PurchaseOrder
	require.NoError(t, env.Client.Get(ctx, "/purchase-orders/", nil, &before))

	doc := map[string]any{
		"supplier": "Harbour Supply Co.",
		"items": []map[string]any{
			{"product": rope.ID, "quantity": 5},
			{"product": 9999, "quantity": 1},
		},
	}
	err := env.Client.Post(ctx, "/purchase-orders/", doc, nil)
	require.ErrorIs(t, err, api.ErrValidation)

	var after []procurement.PurchaseOrder
	require.NoError(t, env.Client.Get(ctx, "/purchase-orders/", nil, &after))
	require.Len(t, after, len(before))
}

func TestSalesOrderChecksStock(t *testing.T) {
	env := mockapitest.LoggedIn(t)
	ctx := context.Background()
	net := findProduct(t, env, "SL-NET-20")

	in := sales.CreateInput{CustomerName: "Coastal Fisheries", Items: []sales.LineInput{{Product: net.ID, Quantity: net.Stock + 1}}}
	err := env.Client.Post(ctx, "/sales-orders/", in, nil)
	require.ErrorIs(t, err, api.ErrValidation)
	require.Contains(t, api.Message(err), "Insufficient stock for Fishing Net 20m")

	in.Items[0].Quantity = 2
	var so sales.SalesOrder
	require.NoError(t, env.Client.Post(ctx, "/sales-orders/", in, &so))
	require.True(t, so.TotalAmount.Equal(net.Price.Mul(decimal.NewFromInt(2))))
	require.Equal(t, net.Stock-2, findProduct(t, env, "SL-NET-20").Stock)
}

func TestExpiredAccessTokenIsRefreshed(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	env := mockapitest.LoggedIn(t, mockapi.WithClock(clock.Now))
	before, err := env.Session.Load(context.Background())
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)
	var list []products.Product
	require.NoError(t, env.Client.Get(context.Background(), "/products/", nil, &list))
	require.NotEmpty(t, list)

	after, err := env.Session.Load(context.Background())
	require.NoError(t, err)
	require.NotEqual(t, before.Access, after.Access)
	require.Equal(t, before.Refresh, after.Refresh)
}

func TestExpiredRefreshTokenEndsSession(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	env := mockapitest.LoggedIn(t, mockapi.WithClock(clock.Now))

	clock.Advance(2 * time.Hour)
	err := env.Client.Get(context.Background(), "/warehouse/", nil, nil)
	require.ErrorIs(t, err, api.ErrUnauthorized)
	require.Equal(t, auth.Anonymous, env.Auth.State())
}

func TestTokenEndpointRateLimit(t *testing.T) {
	srv, err := mockapi.NewServer(mockapi.Config{
		JWTSecret:  "test-secret",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
		TokenRate:  2,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	root := chi.NewRouter()
	root.Mount("/api", srv.Routes())

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/api/token/", bytes.NewBufferString(`{"username":"x","password":"y"}`))
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		root.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	require.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)
}

func TestUnknownRouteAndMalformedBody(t *testing.T) {
	env := mockapitest.LoggedIn(t)

	err := env.Client.Get(context.Background(), "/nowhere/", nil, nil)
	require.ErrorIs(t, err, api.ErrNotFound)

	req, err := http.NewRequest(http.MethodPost, env.BaseURL()+"/token/", strings.NewReader("{"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "JSON parse error", api.Normalize(body))
}
