package mockapi

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/sealion/internal/auth"
	"github.com/odyssey-erp/sealion/internal/platform/httpx"
	"github.com/odyssey-erp/sealion/internal/platform/validate"
	"github.com/odyssey-erp/sealion/internal/procurement"
	"github.com/odyssey-erp/sealion/internal/products"
	"github.com/odyssey-erp/sealion/internal/sales"
	"github.com/odyssey-erp/sealion/internal/warehouse"
)

var (
	// ErrInvalidCredentials is returned by Authenticate.
	ErrInvalidCredentials = errors.New("mockapi: invalid credentials")
	// ErrAlreadyReceived is returned when receiving a received order.
	ErrAlreadyReceived = errors.New("mockapi: order already received")
)

type account struct {
	ID       int64
	Username string
	Hash     []byte
	Active   bool
}

// POLine is one requested line of a purchase order document.
type POLine struct {
	Product   int64
	Quantity  int
	UnitPrice *decimal.Decimal
}

// Store keeps every entity in memory. Product.Stock always mirrors the
// warehouse quantity of that product.
type Store struct {
	mu     sync.Mutex
	now    func() time.Time
	nextID int64

	accounts map[string]*account
	products map[int64]*products.Product
	stock    map[int64]*warehouse.Record
	pos      map[int64]*procurement.PurchaseOrder
	sos      map[int64]*sales.SalesOrder
}

// NewStore returns an empty store using now as its clock.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		now:      now,
		accounts: make(map[string]*account),
		products: make(map[int64]*products.Product),
		stock:    make(map[int64]*warehouse.Record),
		pos:      make(map[int64]*procurement.PurchaseOrder),
		sos:      make(map[int64]*sales.SalesOrder),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func number(prefix string) string {
	return prefix + "-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func matches(search string, fields ...string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// CreateUser registers an account with a bcrypt hashed password.
func (s *Store) CreateUser(username, password string) (auth.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return auth.User{}, fmt.Errorf("mockapi: hash password: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[username]; ok {
		return auth.User{}, validate.FieldErrors{"username": {"A user with that username already exists."}}
	}
	acc := &account{ID: s.id(), Username: username, Hash: hash, Active: true}
	s.accounts[username] = acc
	return auth.User{ID: acc.ID, Username: acc.Username}, nil
}

// Authenticate checks a username/password pair.
func (s *Store) Authenticate(username, password string) (auth.User, error) {
	s.mu.Lock()
	acc, ok := s.accounts[username]
	s.mu.Unlock()
	if !ok || !acc.Active {
		return auth.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.Hash, []byte(password)); err != nil {
		return auth.User{}, ErrInvalidCredentials
	}
	return auth.User{ID: acc.ID, Username: acc.Username}, nil
}

// UserActive reports whether the account behind a token still exists.
func (s *Store) UserActive(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[username]
	return ok && acc.Active
}

// ListProducts returns products ordered by name.
func (s *Store) ListProducts(search string) []products.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]products.Product, 0, len(s.products))
	for _, p := range s.products {
		if matches(search, p.Name, p.Code, p.Description) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// GetProduct returns one product.
func (s *Store) GetProduct(id int64) (products.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return products.Product{}, httpx.ErrNotFound
	}
	return *p, nil
}

// CreateProduct stores p and opens a warehouse record for its stock.
func (s *Store) CreateProduct(p products.Product) (products.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id()
	if p.Code == "" {
		p.Code = fmt.Sprintf("PRD-%04d", p.ID)
	}
	for _, existing := range s.products {
		if strings.EqualFold(existing.Code, p.Code) {
			return products.Product{}, validate.FieldErrors{"product_code": {"product with this product code already exists."}}
		}
	}
	s.products[p.ID] = &p
	if p.Stock > 0 {
		s.setStockLocked(p.ID, p.Stock)
	}
	return p, nil
}

// UpdateProduct applies fn to the stored product. A stock change is
// written through to the warehouse.
func (s *Store) UpdateProduct(id int64, fn func(*products.Product)) (products.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return products.Product{}, httpx.ErrNotFound
	}
	next := *p
	fn(&next)
	next.ID = id
	if next.Code != p.Code {
		for otherID, existing := range s.products {
			if otherID != id && strings.EqualFold(existing.Code, next.Code) {
				return products.Product{}, validate.FieldErrors{"product_code": {"product with this product code already exists."}}
			}
		}
	}
	if next.Stock != p.Stock {
		s.setStockLocked(id, next.Stock)
	}
	*p = next
	if rec, ok := s.stock[id]; ok {
		rec.ProductName = next.Name
		rec.ProductCode = next.Code
	}
	return next, nil
}

// DeleteProduct removes a product with its stock record and purchase orders.
func (s *Store) DeleteProduct(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(s.products, id)
	delete(s.stock, id)
	for poID, po := range s.pos {
		if po.Product == id {
			delete(s.pos, poID)
		}
	}
	return nil
}

func (s *Store) setStockLocked(productID int64, qty int) {
	p := s.products[productID]
	rec, ok := s.stock[productID]
	if !ok {
		rec = &warehouse.Record{ID: s.id(), Product: productID, AddedAt: s.now()}
		s.stock[productID] = rec
	}
	rec.Quantity = qty
	if p != nil {
		rec.ProductName = p.Name
		rec.ProductCode = p.Code
		p.Stock = qty
	}
}

// ListWarehouse returns records with stock on hand, newest first.
func (s *Store) ListWarehouse(search string) []warehouse.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]warehouse.Record, 0, len(s.stock))
	for _, rec := range s.stock {
		if rec.Quantity <= 0 {
			continue
		}
		r := *rec
		if p, ok := s.products[r.Product]; ok {
			r.ProductName, r.ProductCode = p.Name, p.Code
		}
		if matches(search, r.ProductName, r.ProductCode) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].AddedAt.After(out[j].AddedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// ListPurchaseOrders returns orders newest first.
func (s *Store) ListPurchaseOrders(search string) []procurement.PurchaseOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]procurement.PurchaseOrder, 0, len(s.pos))
	for _, po := range s.pos {
		if matches(search, po.Number, po.Supplier, po.ProductName, string(po.Status)) {
			out = append(out, *po)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OrderDate.Equal(out[j].OrderDate) {
			return out[i].OrderDate.After(out[j].OrderDate)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// GetPurchaseOrder returns one order.
func (s *Store) GetPurchaseOrder(id int64) (procurement.PurchaseOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	po, ok := s.pos[id]
	if !ok {
		return procurement.PurchaseOrder{}, httpx.ErrNotFound
	}
	return *po, nil
}

// CreatePurchaseOrders creates one pending order per line. Either every
// line is created or none is.
func (s *Store) CreatePurchaseOrders(supplier string, lines []POLine) ([]procurement.PurchaseOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields := validate.FieldErrors{}
	for i, line := range lines {
		if _, ok := s.products[line.Product]; !ok {
			fields.Add(lineField(len(lines), i, "product"), fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", line.Product))
		}
	}
	if len(fields) > 0 {
		return nil, fields
	}

	now := s.now()
	out := make([]procurement.PurchaseOrder, 0, len(lines))
	for _, line := range lines {
		p := s.products[line.Product]
		price := p.Price
		if line.UnitPrice != nil {
			price = *line.UnitPrice
		}
		po := &procurement.PurchaseOrder{
			ID:          s.id(),
			Number:      number("PO"),
			Product:     p.ID,
			ProductName: p.Name,
			Supplier:    supplier,
			Quantity:    line.Quantity,
			UnitPrice:   price,
			Status:      procurement.StatusPending,
			OrderDate:   now,
		}
		s.pos[po.ID] = po
		out = append(out, *po)
	}
	return out, nil
}

func lineField(n, i int, field string) string {
	if n == 1 {
		return field
	}
	return fmt.Sprintf("items[%d].%s", i, field)
}

// ReceivePurchaseOrder marks the order received and adds its quantity to
// the product's warehouse stock.
func (s *Store) ReceivePurchaseOrder(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	po, ok := s.pos[id]
	if !ok {
		return httpx.ErrNotFound
	}
	if po.Status == procurement.StatusReceived {
		return ErrAlreadyReceived
	}
	if _, ok := s.products[po.Product]; !ok {
		return httpx.ErrNotFound
	}
	po.Status = procurement.StatusReceived
	current := 0
	if rec, ok := s.stock[po.Product]; ok {
		current = rec.Quantity
		rec.AddedAt = s.now()
	}
	s.setStockLocked(po.Product, current+po.Quantity)
	return nil
}

// DeletePurchaseOrder removes an order. Received stock stays in place.
func (s *Store) DeletePurchaseOrder(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pos[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(s.pos, id)
	return nil
}

// ListSalesOrders returns orders newest first.
func (s *Store) ListSalesOrders(search string) []sales.SalesOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sales.SalesOrder, 0, len(s.sos))
	for _, so := range s.sos {
		if matches(search, so.Number, so.CustomerName) {
			out = append(out, cloneSalesOrder(so))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OrderDate.Equal(out[j].OrderDate) {
			return out[i].OrderDate.After(out[j].OrderDate)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// GetSalesOrder returns one order with its lines.
func (s *Store) GetSalesOrder(id int64) (sales.SalesOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	so, ok := s.sos[id]
	if !ok {
		return sales.SalesOrder{}, httpx.ErrNotFound
	}
	return cloneSalesOrder(so), nil
}

// CreateSalesOrder checks stock for every line, then takes it out of the
// warehouse and records the order with a price snapshot per line.
func (s *Store) CreateSalesOrder(in sales.CreateInput) (sales.SalesOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	requested := make(map[int64]int)
	order := make([]int64, 0, len(in.Items))
	fields := validate.FieldErrors{}
	for _, line := range in.Items {
		if _, ok := s.products[line.Product]; !ok {
			fields.Add("items", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", line.Product))
			continue
		}
		if _, seen := requested[line.Product]; !seen {
			order = append(order, line.Product)
		}
		requested[line.Product] += line.Quantity
	}
	for _, productID := range order {
		available := 0
		if rec, ok := s.stock[productID]; ok {
			available = rec.Quantity
		}
		if want := requested[productID]; want > available {
			fields.Add("items", fmt.Sprintf("Insufficient stock for %s: requested %d, available %d.",
				s.products[productID].Name, want, available))
		}
	}
	if len(fields) > 0 {
		return sales.SalesOrder{}, fields
	}

	so := &sales.SalesOrder{
		ID:           s.id(),
		Number:       number("SO"),
		CustomerName: in.CustomerName,
		OrderDate:    s.now(),
		Items:        make([]sales.Item, 0, len(in.Items)),
	}
	for _, line := range in.Items {
		p := s.products[line.Product]
		so.Items = append(so.Items, sales.Item{
			ID:          s.id(),
			Product:     p.ID,
			ProductName: p.Name,
			Quantity:    line.Quantity,
			Price:       p.Price,
		})
	}
	for _, productID := range order {
		s.setStockLocked(productID, s.stock[productID].Quantity-requested[productID])
	}
	so.TotalAmount = so.ComputedTotal()
	s.sos[so.ID] = so
	return cloneSalesOrder(so), nil
}

func cloneSalesOrder(so *sales.SalesOrder) sales.SalesOrder {
	out := *so
	out.Items = append([]sales.Item(nil), so.Items...)
	return out
}
