// Package sales wraps the /sales-orders/ endpoints.
package sales

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/odyssey-erp/sealion/internal/api"
	"github.com/odyssey-erp/sealion/internal/platform/validate"
)

// BasePath is the collection path; composed order forms post to it too.
const BasePath = "/sales-orders/"

// Service performs sales order operations.
type Service struct {
	client api.Requester
}

// NewService constructs a Service.
func NewService(client api.Requester) *Service {
	return &Service{client: client}
}

// List returns sales orders, newest first, narrowed by search.
func (s *Service) List(ctx context.Context, search string) ([]SalesOrder, error) {
	var out []SalesOrder
	if err := s.client.Get(ctx, BasePath, api.SearchQuery(search), &out); err != nil {
		return nil, fmt.Errorf("sales: list: %w", err)
	}
	return out, nil
}

// Get returns one sales order with its lines.
func (s *Service) Get(ctx context.Context, id int64) (SalesOrder, error) {
	if id <= 0 {
		return SalesOrder{}, ErrInvalidID
	}
	var out SalesOrder
	if err := s.client.Get(ctx, BasePath+strconv.FormatInt(id, 10)+"/", nil, &out); err != nil {
		return SalesOrder{}, fmt.Errorf("sales: get %d: %w", id, err)
	}
	return out, nil
}

// Create places a sales order. Stock sufficiency is checked by the server.
func (s *Service) Create(ctx context.Context, in CreateInput) (SalesOrder, error) {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	if err := validate.Struct(in); err != nil {
		return SalesOrder{}, fmt.Errorf("sales: create: %w", err)
	}
	var out SalesOrder
	if err := s.client.Post(ctx, BasePath, in, &out); err != nil {
		return SalesOrder{}, fmt.Errorf("sales: create: %w", err)
	}
	return out, nil
}
