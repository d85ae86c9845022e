package mockapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/sealion/internal/platform/httpx"
	"github.com/odyssey-erp/sealion/internal/platform/validate"
	"github.com/odyssey-erp/sealion/internal/sales"
)

const receivedStatus = "Order received and stock updated."

type poItem struct {
	Product   int64            `json:"product" validate:"required,gt=0"`
	Quantity  int              `json:"quantity" validate:"gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

// poRequest accepts either a single order or a composed document with a
// supplier and several items.
type poRequest struct {
	Supplier  string           `json:"supplier" validate:"required,max=255"`
	Product   int64            `json:"product" validate:"required,gt=0"`
	Quantity  int              `json:"quantity" validate:"gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	Items     []poItem         `json:"items"`
}

type poDocument struct {
	Supplier string   `json:"supplier" validate:"required,max=255"`
	Items    []poItem `json:"items" validate:"min=1,dive"`
}

func (s *Server) listWarehouse(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, s.store.ListWarehouse(r.URL.Query().Get("search")))
}

func (s *Server) listPurchaseOrders(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, s.store.ListPurchaseOrders(r.URL.Query().Get("search")))
}

func (s *Server) getPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	po, err := s.store.GetPurchaseOrder(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, po)
}

func (s *Server) createPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	var req poRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		s.fail(w, r, errMalformedJSON)
		return
	}
	req.Supplier = strings.TrimSpace(req.Supplier)

	if req.Items != nil {
		doc := poDocument{Supplier: req.Supplier, Items: req.Items}
		if err := validatePurchase(doc, doc.Items); err != nil {
			s.fail(w, r, err)
			return
		}
		lines := make([]POLine, 0, len(doc.Items))
		for _, item := range doc.Items {
			lines = append(lines, POLine{Product: item.Product, Quantity: item.Quantity, UnitPrice: item.UnitPrice})
		}
		created, err := s.store.CreatePurchaseOrders(doc.Supplier, lines)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.logCreated(r, "purchase orders created", slog.Int("count", len(created)))
		httpx.JSON(w, http.StatusCreated, created)
		return
	}

	if err := validatePurchase(req, []poItem{{Product: req.Product, Quantity: req.Quantity, UnitPrice: req.UnitPrice}}); err != nil {
		s.fail(w, r, err)
		return
	}
	created, err := s.store.CreatePurchaseOrders(req.Supplier, []POLine{{
		Product:   req.Product,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
	}})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.logCreated(r, "purchase order created", slog.String("po_number", created[0].Number))
	httpx.JSON(w, http.StatusCreated, created[0])
}

// validatePurchase runs the tag rules on v, then rejects negative unit
// prices, which the optional pointer field cannot express as a tag.
func validatePurchase(v any, items []poItem) error {
	fields := validate.FieldErrors{}
	if err := validate.Struct(v); err != nil {
		if !errors.As(err, &fields) {
			return err
		}
	}
	for i, item := range items {
		if item.UnitPrice != nil && item.UnitPrice.IsNegative() {
			fields.Add(lineField(len(items), i, "unit_price"), "Ensure this value is greater than or equal to 0.")
		}
	}
	if len(fields) > 0 {
		return fields
	}
	return nil
}

func (s *Server) deletePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.DeletePurchaseOrder(id); err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.NoContent(w)
}

func (s *Server) receivePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.ReceivePurchaseOrder(id); err != nil {
		if errors.Is(err, ErrAlreadyReceived) {
			httpx.JSON(w, http.StatusBadRequest, map[string]string{"error": "This order has already been received."})
			return
		}
		s.fail(w, r, err)
		return
	}
	s.logCreated(r, "purchase order received", slog.Int64("id", id))
	httpx.JSON(w, http.StatusOK, map[string]string{"status": receivedStatus})
}

func (s *Server) listSalesOrders(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, s.store.ListSalesOrders(r.URL.Query().Get("search")))
}

func (s *Server) getSalesOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	so, err := s.store.GetSalesOrder(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, so)
}

func (s *Server) createSalesOrder(w http.ResponseWriter, r *http.Request) {
	var in sales.CreateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		s.fail(w, r, errMalformedJSON)
		return
	}
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	if err := validate.Struct(in); err != nil {
		s.fail(w, r, err)
		return
	}
	so, err := s.store.CreateSalesOrder(in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.logCreated(r, "sales order created", slog.String("so_number", so.Number), slog.String("total", so.TotalAmount.StringFixed(2)))
	httpx.JSON(w, http.StatusCreated, so)
}

func (s *Server) logCreated(r *http.Request, msg string, attrs ...any) {
	if user, ok := userFromContext(r.Context()); ok {
		attrs = append(attrs, slog.String("user", user.Username))
	}
	s.logger.Info(msg, attrs...)
}
