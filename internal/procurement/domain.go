package procurement

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the purchase order lifecycle state.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusReceived Status = "RECEIVED"
)

var (
	// ErrInvalidID is returned for non-positive ids.
	ErrInvalidID = errors.New("procurement: invalid id")
	// ErrAlreadyReceived is returned before calling receive on a received order.
	ErrAlreadyReceived = errors.New("procurement: purchase order already received")
)

// PurchaseOrder is a supplier order for a single product.
type PurchaseOrder struct {
	ID          int64           `json:"id"`
	Number      string          `json:"po_number"`
	Product     int64           `json:"product"`
	ProductName string          `json:"product_name"`
	Supplier    string          `json:"supplier"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Status      Status          `json:"status"`
	OrderDate   time.Time       `json:"order_date"`
}

// Total is quantity times unit price.
func (po PurchaseOrder) Total() decimal.Decimal {
	return po.UnitPrice.Mul(decimal.NewFromInt(int64(po.Quantity)))
}

// Receivable reports whether the receive action applies.
func (po PurchaseOrder) Receivable() bool {
	return po.Status != StatusReceived
}

// CreateInput is the body of a single purchase order.
type CreateInput struct {
	Product   int64           `json:"product" validate:"required,gt=0"`
	Supplier  string          `json:"supplier" validate:"required,max=255"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"gte=0"`
}

type receiveResponse struct {
	Status string `json:"status"`
}
