package view

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type row struct {
	ID   int
	Name string
}

var rowColumns = []Column[row]{
	{Header: "ID", Value: func(r row) string { return string(rune('0' + r.ID)) }},
	{Header: "NAME", Value: func(r row) string { return r.Name }},
}

func TestRefreshAppliesItems(t *testing.T) {
	var searches []string
	list := NewList(func(ctx context.Context, search string) ([]row, error) {
		searches = append(searches, search)
		return []row{{ID: 1, Name: "Widget"}}, nil
	})
	require.False(t, list.Loaded())
	require.NoError(t, list.Refresh(context.Background()))
	require.True(t, list.Loaded())
	require.Equal(t, []row{{ID: 1, Name: "Widget"}}, list.Items())

	require.NoError(t, list.Search(context.Background(), "  wid "))
	require.Equal(t, "wid", list.Term())
	require.Equal(t, []string{"", "wid"}, searches)
}

func TestRefreshErrorKeepsPreviousItems(t *testing.T) {
	fail := false
	list := NewList(func(ctx context.Context, search string) ([]row, error) {
		if fail {
			return nil, errors.New("boom")
		}
		return []row{{ID: 1}}, nil
	})
	require.NoError(t, list.Refresh(context.Background()))
	fail = true
	require.EqualError(t, list.Refresh(context.Background()), "boom")
	require.EqualError(t, list.Err(), "boom")
	require.Len(t, list.Items(), 1)
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var calls int
	var mu sync.Mutex
	list := NewList(func(ctx context.Context, search string) ([]row, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(started)
			<-release
			return []row{{ID: 1, Name: "old"}}, nil
		}
		return []row{{ID: 2, Name: "new"}}, nil
	})

	errs := make(chan error, 1)
	go func() { errs <- list.Refresh(context.Background()) }()
	<-started

	require.NoError(t, list.Search(context.Background(), "new"))
	close(release)
	require.ErrorIs(t, <-errs, ErrStale)
	require.Equal(t, []row{{ID: 2, Name: "new"}}, list.Items())
}

func TestDismissDiscardsInFlightFetch(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	list := NewList(func(ctx context.Context, search string) ([]row, error) {
		close(started)
		<-release
		return []row{{ID: 1}}, nil
	})

	errs := make(chan error, 1)
	go func() { errs <- list.Refresh(context.Background()) }()
	<-started
	list.Dismiss()
	close(release)

	require.ErrorIs(t, <-errs, ErrStale)
	require.Empty(t, list.Items())
	require.False(t, list.Loaded())
}

func TestMutateAlwaysRefetchesAfterAction(t *testing.T) {
	var events []string
	list := NewList(func(ctx context.Context, search string) ([]row, error) {
		events = append(events, "fetch")
		return nil, nil
	})

	err := list.Mutate(context.Background(), func(ctx context.Context) error {
		events = append(events, "delete")
		return nil
	})
	require.NoError(t, err)

	err = list.Mutate(context.Background(), func(ctx context.Context) error {
		events = append(events, "receive")
		return errors.New("already received")
	})
	require.EqualError(t, err, "already received")
	require.Equal(t, []string{"delete", "fetch", "receive", "fetch"}, events)
}

func TestRefetchWithoutMutationRendersIdentically(t *testing.T) {
	list := NewList(func(ctx context.Context, search string) ([]row, error) {
		return []row{{ID: 1, Name: "Widget"}, {ID: 2, Name: "Gadget\tPro"}}, nil
	})

	render := func() string {
		require.NoError(t, list.Refresh(context.Background()))
		var buf bytes.Buffer
		require.NoError(t, RenderList(&buf, list, rowColumns, "no rows"))
		return buf.String()
	}
	first := render()
	require.Equal(t, first, render())
	require.Equal(t, "ID  NAME\n1   Widget\n2   Gadget Pro\n", first)
}

func TestRenderListEmpty(t *testing.T) {
	list := NewList(func(ctx context.Context, search string) ([]row, error) { return nil, nil })
	var buf bytes.Buffer
	require.NoError(t, RenderList(&buf, list, rowColumns, "No products found."))
	require.Equal(t, "No products found.\n", buf.String())
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "abc", Truncate("abc", 5))
	require.Equal(t, "ab…", Truncate("abcdef", 3))
}
