// Package warehouse reads on-hand stock from the /warehouse/ endpoint.
package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/odyssey-erp/sealion/internal/api"
)

const basePath = "/warehouse/"

// Record is one stock line held in the warehouse. Quantity only moves on
// the server: purchase order receipt adds to it, sales orders take from it.
type Record struct {
	ID          int64     `json:"id"`
	Product     int64     `json:"product"`
	ProductName string    `json:"product_name"`
	ProductCode string    `json:"product_code"`
	Quantity    int       `json:"quantity"`
	AddedAt     time.Time `json:"added_at"`
}

// Service lists warehouse stock.
type Service struct {
	client api.Requester
}

// NewService constructs a Service.
func NewService(client api.Requester) *Service {
	return &Service{client: client}
}

// List returns stock records matching search.
func (s *Service) List(ctx context.Context, search string) ([]Record, error) {
	var out []Record
	if err := s.client.Get(ctx, basePath, api.SearchQuery(search), &out); err != nil {
		return nil, fmt.Errorf("warehouse: list: %w", err)
	}
	return out, nil
}

// StockFor returns the on-hand quantity for productID as currently known
// by the server. A product with no record has zero stock.
func (s *Service) StockFor(ctx context.Context, productID int64) (int, error) {
	records, err := s.List(ctx, "")
	if err != nil {
		return 0, err
	}
	return Levels(records)[productID], nil
}

// Levels sums quantities per product.
func Levels(records []Record) map[int64]int {
	levels := make(map[int64]int, len(records))
	for _, r := range records {
		levels[r.Product] += r.Quantity
	}
	return levels
}
