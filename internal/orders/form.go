// Package orders holds the state of an order composition form: a party
// identity plus a variable list of (product, quantity) lines.
package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/odyssey-erp/sealion/internal/api"
	"github.com/odyssey-erp/sealion/internal/platform/validate"
)

// Kind selects the order flavour.
type Kind int

const (
	// Purchase orders name a supplier.
	Purchase Kind = iota + 1
	// Sales orders name a customer and clamp quantities to known stock.
	Sales
)

func (k Kind) String() string {
	switch k {
	case Purchase:
		return "purchase"
	case Sales:
		return "sales"
	}
	return "unknown"
}

// IdentityLabel is the prompt for the identity field.
func (k Kind) IdentityLabel() string {
	if k == Sales {
		return "Customer name"
	}
	return "Supplier"
}

var (
	// ErrNoValidItems is returned by Submit when no line has both a product
	// and a positive quantity. No request is sent.
	ErrNoValidItems = fmt.Errorf("orders: add at least one item with a product and quantity: %w", validate.ErrInvalid)
	// ErrItemIndex is returned for positions outside the item list.
	ErrItemIndex = errors.New("orders: item index out of range")
	// ErrSubmitting is returned when Submit is called while a submit is in flight.
	ErrSubmitting = errors.New("orders: submit already in progress")
)

// LineItem is a line in form state. Product zero means not chosen yet.
type LineItem struct {
	Product  int64
	Quantity int
	// Stock is the on-hand quantity read when the product was selected.
	// Only sales forms fill it.
	Stock    int
	HasStock bool
}

// Valid reports whether the line survives submission filtering.
func (l LineItem) Valid() bool {
	return l.Product > 0 && l.Quantity > 0
}

// DocumentItem is a line of the submitted document.
type DocumentItem struct {
	Product  int64 `json:"product" validate:"required,gt=0"`
	Quantity int   `json:"quantity" validate:"gt=0"`
}

// Document is the composed order sent to the API. Only one of the identity
// fields is set, according to the form kind.
type Document struct {
	Supplier     string         `json:"supplier,omitempty"`
	CustomerName string         `json:"customer_name,omitempty"`
	Items        []DocumentItem `json:"items" validate:"min=1,dive"`
}

// Identity returns whichever identity field is set.
func (d Document) Identity() string {
	if d.CustomerName != "" {
		return d.CustomerName
	}
	return d.Supplier
}

// StockLookup reports on-hand stock for a product.
type StockLookup interface {
	StockFor(ctx context.Context, productID int64) (int, error)
}

// Poster sends the composed document.
type Poster interface {
	Post(ctx context.Context, path string, body, out any, opts ...api.RequestOption) error
}

// Option configures a Form.
type Option func(*Form)

// WithStockLookup enables quantity clamping for sales forms.
func WithStockLookup(lookup StockLookup) Option {
	return func(f *Form) {
		f.stock = lookup
	}
}

// WithOnSubmitted registers the callback run after a successful submit;
// parents use it to refetch their list and close the form.
func WithOnSubmitted(fn func(ctx context.Context)) Option {
	return func(f *Form) {
		f.onSubmitted = fn
	}
}

// Form is the state of one order composition form.
type Form struct {
	kind        Kind
	path        string
	poster      Poster
	stock       StockLookup
	onSubmitted func(ctx context.Context)

	mu         sync.Mutex
	identity   string
	items      []LineItem
	keys       []uint64 // keys[i] identifies items[i] across removals
	nextKey    uint64
	errMsg     string
	submitting bool
}

// NewForm returns a form that posts to path. It starts with one blank line.
func NewForm(kind Kind, path string, poster Poster, opts ...Option) *Form {
	f := &Form{kind: kind, path: path, poster: poster}
	for _, opt := range opts {
		opt(f)
	}
	f.resetLocked()
	return f
}

func (f *Form) resetLocked() {
	f.items = []LineItem{blankItem()}
	f.keys = []uint64{f.newKeyLocked()}
}

func (f *Form) newKeyLocked() uint64 {
	f.nextKey++
	return f.nextKey
}

// indexOfLocked returns the current position of the line with key, or -1.
func (f *Form) indexOfLocked(key uint64) int {
	for i, k := range f.keys {
		if k == key {
			return i
		}
	}
	return -1
}

func blankItem() LineItem {
	return LineItem{Quantity: 1}
}

// Kind returns the form kind.
func (f *Form) Kind() Kind {
	return f.kind
}

// SetIdentity sets the supplier or customer name.
func (f *Form) SetIdentity(value string) {
	f.mu.Lock()
	f.identity = value
	f.mu.Unlock()
}

// Identity returns the supplier or customer name.
func (f *Form) Identity() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.identity
}

// Items returns a copy of the current lines.
func (f *Form) Items() []LineItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]LineItem(nil), f.items...)
}

// Error returns the message of the last failed submit.
func (f *Form) Error() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errMsg
}

// AddItem appends a blank line and returns its index.
func (f *Form) AddItem() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, blankItem())
	f.keys = append(f.keys, f.newKeyLocked())
	return len(f.items) - 1
}

// RemoveItem deletes the line at i. The list may become empty.
func (f *Form) RemoveItem(i int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i < 0 || i >= len(f.items) {
		return ErrItemIndex
	}
	f.items = append(f.items[:i], f.items[i+1:]...)
	f.keys = append(f.keys[:i], f.keys[i+1:]...)
	return nil
}

// SetProduct selects the product of line i. Sales forms read the stock for
// the product now and clamp the line's quantity to it. The line is pinned
// before the lookup, so lines added or removed meanwhile do not move the
// selection to another line.
func (f *Form) SetProduct(ctx context.Context, i int, productID int64) error {
	f.mu.Lock()
	if i < 0 || i >= len(f.items) {
		f.mu.Unlock()
		return ErrItemIndex
	}
	key := f.keys[i]
	f.mu.Unlock()

	stock, hasStock := 0, false
	if f.kind == Sales && f.stock != nil && productID > 0 {
		level, err := f.stock.StockFor(ctx, productID)
		if err != nil {
			return fmt.Errorf("orders: stock for product %d: %w", productID, err)
		}
		stock, hasStock = level, true
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	i = f.indexOfLocked(key)
	if i < 0 {
		return fmt.Errorf("orders: line removed while selecting product %d: %w", productID, ErrItemIndex)
	}
	item := &f.items[i]
	item.Product = productID
	item.Stock, item.HasStock = stock, hasStock
	item.Quantity = item.clamp(item.Quantity)
	return nil
}

// SetQuantity sets the quantity of line i, clamped to known stock on sales
// forms. The stored value is returned. Clamping is a convenience; the
// server re-checks stock on submit.
func (f *Form) SetQuantity(i, qty int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i < 0 || i >= len(f.items) {
		return 0, ErrItemIndex
	}
	item := &f.items[i]
	item.Quantity = item.clamp(qty)
	return item.Quantity, nil
}

func (l *LineItem) clamp(qty int) int {
	if l.HasStock && qty > l.Stock {
		return l.Stock
	}
	return qty
}

// Document composes the submission: lines without a product or with a
// non-positive quantity are dropped. It fails with ErrNoValidItems when
// nothing is left.
func (f *Form) Document() (Document, error) {
	f.mu.Lock()
	identity := strings.TrimSpace(f.identity)
	items := append([]LineItem(nil), f.items...)
	f.mu.Unlock()
	return compose(f.kind, identity, items)
}

func compose(kind Kind, identity string, items []LineItem) (Document, error) {
	doc := Document{Items: make([]DocumentItem, 0, len(items))}
	for _, item := range items {
		if !item.Valid() {
			continue
		}
		doc.Items = append(doc.Items, DocumentItem{Product: item.Product, Quantity: item.Quantity})
	}
	if len(doc.Items) == 0 {
		return Document{}, ErrNoValidItems
	}

	fields := validate.FieldErrors{}
	if identity == "" {
		fields.Add(identityField(kind), "This field is required.")
	}
	if kind == Sales {
		doc.CustomerName = identity
	} else {
		doc.Supplier = identity
	}
	if err := validate.Struct(doc); err != nil {
		var verrs validate.FieldErrors
		if !errors.As(err, &verrs) {
			return Document{}, err
		}
		for k, msgs := range verrs {
			for _, msg := range msgs {
				fields.Add(k, msg)
			}
		}
	}
	if len(fields) > 0 {
		return Document{}, fields
	}
	return doc, nil
}

func identityField(kind Kind) string {
	if kind == Sales {
		return "customer_name"
	}
	return "supplier"
}

// Submit validates locally and posts the document. On success the form is
// reset and the OnSubmitted callback runs. On failure the message is kept
// in Error and the lines are left as they were.
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return ErrSubmitting
	}
	identity := strings.TrimSpace(f.identity)
	items := append([]LineItem(nil), f.items...)
	f.submitting = true
	f.mu.Unlock()

	err := f.submit(ctx, identity, items)

	f.mu.Lock()
	f.submitting = false
	if err != nil {
		f.errMsg = displayMessage(err)
		f.mu.Unlock()
		return err
	}
	f.identity = ""
	f.resetLocked()
	f.errMsg = ""
	f.mu.Unlock()

	if f.onSubmitted != nil {
		f.onSubmitted(ctx)
	}
	return nil
}

func (f *Form) submit(ctx context.Context, identity string, items []LineItem) error {
	doc, err := compose(f.kind, identity, items)
	if err != nil {
		return err
	}
	if err := f.poster.Post(ctx, f.path, doc, nil); err != nil {
		return fmt.Errorf("orders: submit %s order: %w", f.kind, err)
	}
	return nil
}

func displayMessage(err error) string {
	if errors.Is(err, ErrNoValidItems) {
		return "Please add at least one item with a product and a quantity."
	}
	var fields validate.FieldErrors
	if errors.As(err, &fields) {
		parts := make([]string, 0, len(fields))
		for _, k := range sortedKeys(fields) {
			parts = append(parts, api.FieldLabel(k)+": "+strings.Join(fields[k], ", "))
		}
		return strings.Join(parts, " ")
	}
	return api.Message(err)
}

func sortedKeys(fields validate.FieldErrors) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
