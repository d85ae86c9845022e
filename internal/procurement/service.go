// Package procurement wraps the /purchase-orders/ endpoints.
package procurement

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/odyssey-erp/sealion/internal/api"
	"github.com/odyssey-erp/sealion/internal/platform/validate"
)

// BasePath is the collection path; composed order forms post to it too.
const BasePath = "/purchase-orders/"

// Service performs purchase order operations.
type Service struct {
	client api.Requester
}

// NewService constructs a Service.
func NewService(client api.Requester) *Service {
	return &Service{client: client}
}

// List returns purchase orders, newest first, narrowed by search.
func (s *Service) List(ctx context.Context, search string) ([]PurchaseOrder, error) {
	var out []PurchaseOrder
	if err := s.client.Get(ctx, BasePath, api.SearchQuery(search), &out); err != nil {
		return nil, fmt.Errorf("procurement: list: %w", err)
	}
	return out, nil
}

// Get returns one purchase order.
func (s *Service) Get(ctx context.Context, id int64) (PurchaseOrder, error) {
	if id <= 0 {
		return PurchaseOrder{}, ErrInvalidID
	}
	var out PurchaseOrder
	if err := s.client.Get(ctx, itemPath(id), nil, &out); err != nil {
		return PurchaseOrder{}, fmt.Errorf("procurement: get %d: %w", id, err)
	}
	return out, nil
}

// Create submits a single purchase order.
func (s *Service) Create(ctx context.Context, in CreateInput) (PurchaseOrder, error) {
	in.Supplier = strings.TrimSpace(in.Supplier)
	if err := validate.Struct(in); err != nil {
		return PurchaseOrder{}, fmt.Errorf("procurement: create: %w", err)
	}
	var out PurchaseOrder
	if err := s.client.Post(ctx, BasePath, in, &out); err != nil {
		return PurchaseOrder{}, fmt.Errorf("procurement: create: %w", err)
	}
	return out, nil
}

// Receive marks the order received. The server adds the quantity to
// warehouse stock and returns a confirmation message.
func (s *Service) Receive(ctx context.Context, id int64) (string, error) {
	if id <= 0 {
		return "", ErrInvalidID
	}
	var out receiveResponse
	if err := s.client.Post(ctx, itemPath(id)+"receive/", nil, &out); err != nil {
		return "", fmt.Errorf("procurement: receive %d: %w", id, err)
	}
	return out.Status, nil
}

// Delete removes a purchase order.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}
	if err := s.client.Delete(ctx, itemPath(id)); err != nil {
		return fmt.Errorf("procurement: delete %d: %w", id, err)
	}
	return nil
}

func itemPath(id int64) string {
	return BasePath + strconv.FormatInt(id, 10) + "/"
}
