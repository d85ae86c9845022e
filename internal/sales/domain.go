package sales

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidID is returned for non-positive ids.
var ErrInvalidID = errors.New("sales: invalid id")

// Item is a sales order line. Price is the product price captured by the
// server when the order was placed.
type Item struct {
	ID          int64           `json:"id"`
	Product     int64           `json:"product"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// Subtotal is quantity times price.
func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// SalesOrder is a customer order.
type SalesOrder struct {
	ID           int64           `json:"id"`
	Number       string          `json:"so_number"`
	CustomerName string          `json:"customer_name"`
	OrderDate    time.Time       `json:"order_date"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Items        []Item          `json:"items"`
}

// ComputedTotal sums the line subtotals. It matches TotalAmount for any
// order the server produced.
func (o SalesOrder) ComputedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Units is the number of units across all lines.
func (o SalesOrder) Units() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

// LineInput is one requested line of a new order.
type LineInput struct {
	Product  int64 `json:"product" validate:"required,gt=0"`
	Quantity int   `json:"quantity" validate:"gt=0"`
}

// CreateInput is the body of a new sales order.
type CreateInput struct {
	CustomerName string      `json:"customer_name" validate:"required,max=255"`
	Items        []LineInput `json:"items" validate:"min=1,dive"`
}
