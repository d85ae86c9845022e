// Package products wraps the /products/ endpoints.
package products

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/odyssey-erp/sealion/internal/api"
	"github.com/odyssey-erp/sealion/internal/platform/validate"
)

const basePath = "/products/"

// Service performs product operations against the API.
type Service struct {
	client api.Requester
}

// NewService constructs a Service.
func NewService(client api.Requester) *Service {
	return &Service{client: client}
}

// List returns products, narrowed by search when it is not blank.
func (s *Service) List(ctx context.Context, search string) ([]Product, error) {
	var out []Product
	if err := s.client.Get(ctx, basePath, api.SearchQuery(search), &out); err != nil {
		return nil, fmt.Errorf("products: list: %w", err)
	}
	return out, nil
}

// Get returns a single product.
func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, ErrInvalidID
	}
	var out Product
	if err := s.client.Get(ctx, itemPath(id), nil, &out); err != nil {
		return Product{}, fmt.Errorf("products: get %d: %w", id, err)
	}
	return out, nil
}

// Create uploads a new product as multipart form data.
func (s *Service) Create(ctx context.Context, in CreateInput) (Product, error) {
	if err := validate.Struct(in); err != nil {
		return Product{}, fmt.Errorf("products: create: %w", err)
	}
	form := api.NewMultipart().
		Field("name", strings.TrimSpace(in.Name)).
		Field("description", in.Description).
		Field("price", in.Price.StringFixed(2)).
		Field("stock", strconv.Itoa(in.Stock))
	if code := strings.TrimSpace(in.Code); code != "" {
		form.Field("product_code", code)
	}
	if err := attachImage(form, in.Image); err != nil {
		return Product{}, fmt.Errorf("products: create: %w", err)
	}

	var out Product
	if err := s.client.Post(ctx, basePath, form, &out); err != nil {
		return Product{}, fmt.Errorf("products: create: %w", err)
	}
	return out, nil
}

// Update patches the fields set in in.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (Product, error) {
	if id <= 0 {
		return Product{}, ErrInvalidID
	}
	if err := validate.Struct(in); err != nil {
		return Product{}, fmt.Errorf("products: update %d: %w", id, err)
	}
	form := api.NewMultipart()
	if in.Code != nil {
		form.Field("product_code", strings.TrimSpace(*in.Code))
	}
	if in.Name != nil {
		form.Field("name", strings.TrimSpace(*in.Name))
	}
	if in.Description != nil {
		form.Field("description", *in.Description)
	}
	if in.Price != nil {
		form.Field("price", in.Price.StringFixed(2))
	}
	if in.Stock != nil {
		form.Field("stock", strconv.Itoa(*in.Stock))
	}
	if err := attachImage(form, in.Image); err != nil {
		return Product{}, fmt.Errorf("products: update %d: %w", id, err)
	}

	var out Product
	if err := s.client.Patch(ctx, itemPath(id), form, &out); err != nil {
		return Product{}, fmt.Errorf("products: update %d: %w", id, err)
	}
	return out, nil
}

// Delete removes a product.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}
	if err := s.client.Delete(ctx, itemPath(id)); err != nil {
		return fmt.Errorf("products: delete %d: %w", id, err)
	}
	return nil
}

func attachImage(form *api.Multipart, img *Image) error {
	if img == nil || img.Content == nil {
		return nil
	}
	name := img.Filename
	if name == "" {
		name = "image"
	}
	return form.File("image", name, img.Content)
}

func itemPath(id int64) string {
	return basePath + strconv.FormatInt(id, 10) + "/"
}
