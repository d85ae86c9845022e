package warehouse_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/sealion/internal/mockapi/mockapitest"
	"github.com/odyssey-erp/sealion/internal/products"
	"github.com/odyssey-erp/sealion/internal/warehouse"
)

func TestListSkipsEmptyStock(t *testing.T) {
	env := mockapitest.LoggedIn(t)
	records, err := warehouse.NewService(env.Client).List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, records, 3)
	for _, r := range records {
		require.Positive(t, r.Quantity)
		require.NotEmpty(t, r.ProductCode)
	}
}

func TestStockFor(t *testing.T) {
	env := mockapitest.LoggedIn(t)
	ctx := context.Background()
	list, err := products.NewService(env.Client).List(ctx, "SL-BUOY-S")
	require.NoError(t, err)
	require.Len(t, list, 1)

	svc := warehouse.NewService(env.Client)
	stock, err := svc.StockFor(ctx, list[0].ID)
	require.NoError(t, err)
	require.Equal(t, 12, stock)

	stock, err = svc.StockFor(ctx, 424242)
	require.NoError(t, err)
	require.Zero(t, stock)
}

func TestLevels(t *testing.T) {
	levels := warehouse.Levels([]warehouse.Record{
		{Product: 1, Quantity: 2},
		{Product: 2, Quantity: 5},
		{Product: 1, Quantity: 3},
	})
	require.Equal(t, map[int64]int{1: 5, 2: 5}, levels)
}
