package products_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/sealion/internal/api"
	"github.com/odyssey-erp/sealion/internal/mockapi/mockapitest"
	"github.com/odyssey-erp/sealion/internal/platform/validate"
	"github.com/odyssey-erp/sealion/internal/products"
)

func TestCreateUpdateDelete(t *testing.T) {
	env := mockapitest.LoggedIn(t)
	svc := products.NewService(env.Client)
	ctx := context.Background()

	created, err := svc.Create(ctx, products.CreateInput{
		Code:  "SL-FLOAT-1",
		Name:  "  Cork Float  ",
		Price: decimal.RequireFromString("2.5"),
		Stock: 40,
		Image: &products.Image{Filename: "float.jpg", Content: strings.NewReader("jpg")},
	})
	require.NoError(t, err)
	require.Equal(t, "Cork Float", created.Name)
	require.Equal(t, "SL-FLOAT-1", created.Code)
	require.Equal(t, "2.5", created.Price.String())
	require.Equal(t, 40, created.Stock)
	require.Equal(t, "/media/products/float.jpg", created.Image)

	price := decimal.RequireFromString("3.10")
	updated, err := svc.Update(ctx, created.ID, products.UpdateInput{Price: &price})
	require.NoError(t, err)
	require.True(t, updated.Price.Equal(price))
	require.Equal(t, "Cork Float", updated.Name)
	require.Equal(t, 40, updated.Stock)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, updated, got)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	require.ErrorIs(t, err, api.ErrNotFound)
}

func TestListSearch(t *testing.T) {
	env := mockapitest.LoggedIn(t)
	svc := products.NewService(env.Client)

	all, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 4)

	hits, err := svc.List(context.Background(), "  rope ")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "Mooring Rope 12mm", hits[0].Name)
}

func TestCreateValidatesLocally(t *testing.T) {
	env := mockapitest.LoggedIn(t)
	svc := products.NewService(env.Client)

	_, err := svc.Create(context.Background(), products.CreateInput{Price: decimal.NewFromInt(-1)})
	require.ErrorIs(t, err, validate.ErrInvalid)
	var fields validate.FieldErrors
	require.True(t, errors.As(err, &fields))
	require.Contains(t, fields, "name")
	require.Contains(t, fields, "price")
}

func TestDuplicateCodeIsRejected(t *testing.T) {
	env := mockapitest.LoggedIn(t)
	svc := products.NewService(env.Client)

	_, err := svc.Create(context.Background(), products.CreateInput{Code: "SL-ROPE-12", Name: "Copy", Price: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, api.ErrValidation)
	require.Equal(t, "Product Code: product with this product code already exists.", api.Message(err))
}

func TestInvalidID(t *testing.T) {
	svc := products.NewService(nil)
	_, err := svc.Get(context.Background(), 0)
	require.ErrorIs(t, err, products.ErrInvalidID)
	require.ErrorIs(t, svc.Delete(context.Background(), -3), products.ErrInvalidID)
}
