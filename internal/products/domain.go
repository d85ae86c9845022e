package products

import (
	"errors"
	"io"

	"github.com/shopspring/decimal"
)

// ErrInvalidID is returned for non-positive product ids.
var ErrInvalidID = errors.New("products: invalid id")

// Product is the server's product record.
type Product struct {
	ID          int64           `json:"id"`
	Code        string          `json:"product_code"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Image       string          `json:"image,omitempty"`
}

// Image is a file to upload with a product form.
type Image struct {
	Filename string
	Content  io.Reader
}

// CreateInput carries the fields of a new product.
type CreateInput struct {
	Code        string          `json:"product_code" validate:"max=50"`
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Image       *Image          `json:"-"`
}

// UpdateInput carries a partial update; nil fields are left untouched.
type UpdateInput struct {
	Code        *string          `json:"product_code" validate:"omitempty,max=50"`
	Name        *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price" validate:"omitempty,gte=0"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
	Image       *Image           `json:"-"`
}

// Empty reports whether the update changes nothing.
func (u UpdateInput) Empty() bool {
	return u.Code == nil && u.Name == nil && u.Description == nil &&
		u.Price == nil && u.Stock == nil && u.Image == nil
}
