package mockapi

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/sealion/internal/products"
)

// Demo credentials created by Seed.
const (
	SeedUsername = "admin"
	SeedPassword = "sealion-admin"
)

var seedProducts = []struct {
	code, name, description, price string
	stock                          int
}{
	{"SL-ROPE-12", "Mooring Rope 12mm", "Braided polyester, sold per 50 m coil.", "42.50", 30},
	{"SL-BUOY-S", "Marker Buoy Small", "PVC marker buoy, orange.", "18.00", 12},
	{"SL-NET-20", "Fishing Net 20m", "Monofilament gill net.", "120.00", 4},
	{"SL-HOOK-6", "Hook Set #6", "Box of 100 forged hooks.", "9.75", 0},
}

// Seed loads a demo user, products with stock and one pending purchase
// order. It expects an empty store.
func (s *Server) Seed() error {
	if _, err := s.store.CreateUser(SeedUsername, SeedPassword); err != nil {
		return fmt.Errorf("mockapi: seed user: %w", err)
	}
	var lastID int64
	for _, sp := range seedProducts {
		p, err := s.store.CreateProduct(products.Product{
			Code:        sp.code,
			Name:        sp.name,
			Description: sp.description,
			Price:       decimal.RequireFromString(sp.price),
			Stock:       sp.stock,
		})
		if err != nil {
			return fmt.Errorf("mockapi: seed product %s: %w", sp.code, err)
		}
		lastID = p.ID
	}
	if _, err := s.store.CreatePurchaseOrders("Harbour Supply Co.", []POLine{{Product: lastID, Quantity: 200}}); err != nil {
		return fmt.Errorf("mockapi: seed purchase order: %w", err)
	}
	s.logger.Info("mock data seeded", "username", SeedUsername, "products", len(seedProducts))
	return nil
}
