// Package shell decides which view is visible given the auth state.
package shell

import (
	"errors"
	"sync"

	"github.com/odyssey-erp/sealion/internal/auth"
)

// View names a screen of the client.
type View string

const (
	ViewLogin          View = "login"
	ViewRegister       View = "register"
	ViewProducts       View = "products"
	ViewWarehouse      View = "warehouse"
	ViewPurchaseOrders View = "purchase-orders"
	ViewSalesOrders    View = "sales-orders"
)

var (
	// ErrLoginRequired is returned when a protected view is requested while
	// anonymous. The shell lands on the login view instead.
	ErrLoginRequired = errors.New("shell: login required")
	// ErrUnknownView is returned for names that are not views.
	ErrUnknownView = errors.New("shell: unknown view")
)

var (
	publicViews    = []View{ViewLogin, ViewRegister}
	protectedViews = []View{ViewProducts, ViewWarehouse, ViewPurchaseOrders, ViewSalesOrders}
)

// Protected reports whether v needs an authenticated session.
func (v View) Protected() bool {
	for _, p := range protectedViews {
		if v == p {
			return true
		}
	}
	return false
}

// ParseView maps a name, including the short aliases "po" and "so", to a View.
func ParseView(name string) (View, error) {
	switch name {
	case "po":
		return ViewPurchaseOrders, nil
	case "so":
		return ViewSalesOrders, nil
	}
	v := View(name)
	if v.Protected() {
		return v, nil
	}
	for _, p := range publicViews {
		if v == p {
			return v, nil
		}
	}
	return "", ErrUnknownView
}

// Session is the auth state the shell follows.
type Session interface {
	State() auth.State
	OnChange(fn auth.Listener)
}

// Shell tracks the current view.
type Shell struct {
	session Session

	mu      sync.Mutex
	current View
}

// New returns a shell on the products view when authenticated, on login
// otherwise. It follows later auth transitions.
func New(session Session) *Shell {
	s := &Shell{session: session, current: ViewLogin}
	if session.State() == auth.Authenticated {
		s.current = ViewProducts
	}
	session.OnChange(s.onAuthChange)
	return s
}

func (s *Shell) onAuthChange(from, to auth.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch to {
	case auth.Anonymous:
		s.current = ViewLogin
	case auth.Authenticated:
		if !s.current.Protected() {
			s.current = ViewProducts
		}
	}
}

// Current returns the visible view.
func (s *Shell) Current() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Navigate switches to v. Protected views need an authenticated session.
func (s *Shell) Navigate(v View) error {
	v, err := ParseView(string(v))
	if err != nil {
		return err
	}
	authenticated := s.session.State() == auth.Authenticated

	s.mu.Lock()
	defer s.mu.Unlock()
	if v.Protected() && !authenticated {
		s.current = ViewLogin
		return ErrLoginRequired
	}
	s.current = v
	return nil
}

// Views lists the views reachable in the current state.
func (s *Shell) Views() []View {
	if s.session.State() == auth.Authenticated {
		return append([]View(nil), protectedViews...)
	}
	return append([]View(nil), publicViews...)
}
