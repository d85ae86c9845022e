package mockapi

import (
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/sealion/internal/platform/httpx"
	"github.com/odyssey-erp/sealion/internal/platform/validate"
	"github.com/odyssey-erp/sealion/internal/products"
)

const maxFormMemory = 10 << 20

type productForm struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Code        string          `json:"product_code" validate:"max=50"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
	Stock       int             `json:"stock" validate:"gte=0"`
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, s.store.ListProducts(r.URL.Query().Get("search")))
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.store.GetProduct(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	if !s.parseForm(w, r) {
		return
	}
	form, fields := readProductForm(r, true)
	if len(fields) > 0 {
		s.fail(w, r, fields)
		return
	}
	if err := validate.Struct(form); err != nil {
		s.fail(w, r, err)
		return
	}
	image, err := readImage(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.store.CreateProduct(products.Product{
		Code:        form.Code,
		Name:        form.Name,
		Description: form.Description,
		Price:       form.Price,
		Stock:       form.Stock,
		Image:       image,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	current, err := s.store.GetProduct(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !s.parseForm(w, r) {
		return
	}
	form, fields := readProductForm(r, false)
	if len(fields) > 0 {
		s.fail(w, r, fields)
		return
	}
	present := func(key string) bool {
		_, ok := r.MultipartForm.Value[key]
		return ok
	}
	merged := productForm{
		Name:        pick(present("name"), form.Name, current.Name),
		Code:        pick(present("product_code") && form.Code != "", form.Code, current.Code),
		Description: pick(present("description"), form.Description, current.Description),
		Price:       pick(present("price"), form.Price, current.Price),
		Stock:       pick(present("stock"), form.Stock, current.Stock),
	}
	if err := validate.Struct(merged); err != nil {
		s.fail(w, r, err)
		return
	}
	image, err := readImage(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.store.UpdateProduct(id, func(p *products.Product) {
		p.Name = merged.Name
		p.Code = merged.Code
		p.Description = merged.Description
		p.Price = merged.Price
		p.Stock = merged.Stock
		if image != "" {
			p.Image = image
		}
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.DeleteProduct(id); err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.NoContent(w)
}

// parseForm accepts multipart bodies only, like the MultiPartParser the
// product endpoints are configured with.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		httpx.Detail(w, http.StatusUnsupportedMediaType,
			"Unsupported media type \""+r.Header.Get("Content-Type")+"\" in request.")
		return false
	}
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		httpx.Detail(w, http.StatusBadRequest, "Multipart form parse error - "+err.Error())
		return false
	}
	return true
}

func readProductForm(r *http.Request, requireAll bool) (productForm, validate.FieldErrors) {
	form := productForm{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Code:        strings.TrimSpace(r.FormValue("product_code")),
		Description: r.FormValue("description"),
	}
	fields := validate.FieldErrors{}
	if raw := strings.TrimSpace(r.FormValue("price")); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			fields.Add("price", "A valid number is required.")
		} else {
			form.Price = price
		}
	} else if requireAll {
		fields.Add("price", "This field is required.")
	}
	if raw := strings.TrimSpace(r.FormValue("stock")); raw != "" {
		stock, err := strconv.Atoi(raw)
		if err != nil {
			fields.Add("stock", "A valid integer is required.")
		} else {
			form.Stock = stock
		}
	}
	return form, fields
}

func readImage(r *http.Request) (string, error) {
	file, header, err := r.FormFile("image")
	if err != nil {
		if err == http.ErrMissingFile {
			return "", nil
		}
		return "", validate.FieldErrors{"image": {"The submitted data was not a file."}}
	}
	defer func() {
		_ = file.Close()
	}()
	if _, err := io.Copy(io.Discard, file); err != nil {
		return "", err
	}
	return "/media/products/" + path.Base(header.Filename), nil
}

func pick[T any](ok bool, value, fallback T) T {
	if ok {
		return value
	}
	return fallback
}
