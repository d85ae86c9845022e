// Package view holds list view state and plain text table rendering.
package view

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrStale is returned by a fetch whose result was discarded because a
// newer fetch was issued or the view was dismissed meanwhile.
var ErrStale = errors.New("view: stale response discarded")

// Fetcher loads a collection narrowed by search.
type Fetcher[T any] func(ctx context.Context, search string) ([]T, error)

// List is the state of one entity list view. Each fetch is tagged with a
// generation number; only the response for the latest generation is
// applied.
type List[T any] struct {
	fetch Fetcher[T]

	mu         sync.Mutex
	generation uint64
	search     string
	items      []T
	err        error
	loaded     bool
}

// NewList returns an empty list view backed by fetch.
func NewList[T any](fetch Fetcher[T]) *List[T] {
	return &List[T]{fetch: fetch}
}

// Refresh refetches the collection with the current search term.
func (l *List[T]) Refresh(ctx context.Context) error {
	l.mu.Lock()
	l.generation++
	gen := l.generation
	search := l.search
	l.mu.Unlock()

	items, err := l.fetch(ctx, search)

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.generation {
		return ErrStale
	}
	if err != nil {
		l.err = err
		return err
	}
	l.items = items
	l.err = nil
	l.loaded = true
	return nil
}

// Search replaces the search term and refetches.
func (l *List[T]) Search(ctx context.Context, term string) error {
	l.mu.Lock()
	l.search = strings.TrimSpace(term)
	l.mu.Unlock()
	return l.Refresh(ctx)
}

// Mutate runs a mutating action and then refetches the whole collection,
// whatever the action's outcome. The refetch starts only after the action
// has returned. The action's error takes precedence.
func (l *List[T]) Mutate(ctx context.Context, action func(ctx context.Context) error) error {
	actionErr := action(ctx)
	refreshErr := l.Refresh(ctx)
	if actionErr != nil {
		return actionErr
	}
	if errors.Is(refreshErr, ErrStale) {
		return nil
	}
	return refreshErr
}

// Dismiss invalidates every in-flight fetch.
func (l *List[T]) Dismiss() {
	l.mu.Lock()
	l.generation++
	l.mu.Unlock()
}

// Items returns a copy of the last applied collection.
func (l *List[T]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]T(nil), l.items...)
}

// Err returns the error of the last applied fetch.
func (l *List[T]) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Term returns the active search term.
func (l *List[T]) Term() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.search
}

// Loaded reports whether a fetch has been applied.
func (l *List[T]) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}
