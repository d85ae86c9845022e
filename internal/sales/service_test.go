package sales_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/sealion/internal/api"
	"github.com/odyssey-erp/sealion/internal/mockapi/mockapitest"
	"github.com/odyssey-erp/sealion/internal/platform/validate"
	"github.com/odyssey-erp/sealion/internal/products"
	"github.com/odyssey-erp/sealion/internal/sales"
)

func TestCreateSnapshotsPrices(t *testing.T) {
	env := mockapitest.LoggedIn(t)
	ctx := context.Background()
	catalog, err := products.NewService(env.Client).List(ctx, "")
	require.NoError(t, err)
	byCode := make(map[string]products.Product, len(catalog))
	for _, p := range catalog {
		byCode[p.Code] = p
	}
	rope, buoy := byCode["SL-ROPE-12"], byCode["SL-BUOY-S"]

	svc := sales.NewService(env.Client)
	so, err := svc.Create(ctx, sales.CreateInput{
		CustomerName: "Coastal Fisheries",
		Items: []sales.LineInput{
			{Product: rope.ID, Quantity: 2},
			{Product: buoy.ID, Quantity: 3},
		},
	})
	require.NoError(t, err)
	require.Len(t, so.Items, 2)
	require.Equal(t, 5, so.Units())
	require.True(t, so.TotalAmount.Equal(decimal.RequireFromString("139")))
	require.True(t, so.TotalAmount.Equal(so.ComputedTotal()))

	got, err := svc.Get(ctx, so.ID)
	require.NoError(t, err)
	require.Equal(t, so.Number, got.Number)
	require.Equal(t, "Mooring Rope 12mm", got.Items[0].ProductName)

	list, err := svc.List(ctx, "coastal")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestInsufficientStockAcrossLines(t *testing.T) {
	env := mockapitest.LoggedIn(t)
	ctx := context.Background()
	hits, err := products.NewService(env.Client).List(ctx, "SL-NET-20")
	require.NoError(t, err)
	net := hits[0]

	_, err = sales.NewService(env.Client).Create(ctx, sales.CreateInput{
		CustomerName: "Coastal Fisheries",
		Items: []sales.LineInput{
			{Product: net.ID, Quantity: 3},
			{Product: net.ID, Quantity: 3},
		},
	})
	require.ErrorIs(t, err, api.ErrValidation)
	require.Equal(t, "Items: Insufficient stock for Fishing Net 20m: requested 6, available 4.", api.Message(err))
}

func TestCreateValidatesLocally(t *testing.T) {
	_, err := sales.NewService(nil).Create(context.Background(), sales.CreateInput{CustomerName: "x"})
	require.ErrorIs(t, err, validate.ErrInvalid)
	require.Contains(t, err.Error(), "items")
}
