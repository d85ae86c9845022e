package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/sealion/internal/orders"
	"github.com/odyssey-erp/sealion/internal/procurement"
	"github.com/odyssey-erp/sealion/internal/sales"
	"github.com/odyssey-erp/sealion/internal/view"
)

func (a *App) warehouseCmd(ctx context.Context, t *term, args []string) int {
	if len(args) == 0 || args[0] != "list" {
		return t.usage("warehouse", "expected list")
	}
	fs := newFlags(t, "warehouse list")
	search := fs.String("search", "", "filter by product name or code")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args[1:]); err != nil {
		return ExitUsage
	}
	list := view.NewList(a.warehouse.List)
	if err := list.Search(ctx, *search); err != nil {
		return t.fail("warehouse list", err)
	}
	if *asJSON {
		return t.writeJSON("warehouse list", list.Items())
	}
	if err := view.RenderList(t.out, list, stockColumns, "The warehouse is empty."); err != nil {
		return t.fail("warehouse list", err)
	}
	return ExitOK
}

func (a *App) purchaseCmd(ctx context.Context, t *term, args []string) int {
	if len(args) == 0 {
		return t.usage("po", "expected list, show, create, compose, receive or delete")
	}
	rest := args[1:]
	switch args[0] {
	case "list":
		return a.purchaseList(ctx, t, rest)
	case "show":
		return a.purchaseShow(ctx, t, rest)
	case "create":
		return a.purchaseCreate(ctx, t, rest)
	case "compose":
		return a.compose(ctx, t, orders.Purchase, rest)
	case "receive":
		return a.purchaseReceive(ctx, t, rest)
	case "delete":
		return a.purchaseDelete(ctx, t, rest)
	default:
		return t.usage("po", "unknown action %q", args[0])
	}
}

func (a *App) purchaseList(ctx context.Context, t *term, args []string) int {
	fs := newFlags(t, "po list")
	search := fs.String("search", "", "filter by number, supplier or product")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	list := view.NewList(a.procurement.List)
	if err := list.Search(ctx, *search); err != nil {
		return t.fail("po list", err)
	}
	if *asJSON {
		return t.writeJSON("po list", list.Items())
	}
	if err := view.RenderList(t.out, list, purchaseColumns, "No purchase orders found."); err != nil {
		return t.fail("po list", err)
	}
	return ExitOK
}

func (a *App) purchaseShow(ctx context.Context, t *term, args []string) int {
	fs := newFlags(t, "po show")
	asJSON := fs.Bool("json", false, "print JSON")
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return ExitUsage
	}
	if len(positional) != 1 {
		return t.usage("po show", "expected one purchase order id")
	}
	poID, err := parseID(positional[0])
	if err != nil {
		return t.usage("po show", "%v", err)
	}
	po, err := a.procurement.Get(ctx, poID)
	if err != nil {
		return t.fail("po show", err)
	}
	if *asJSON {
		return t.writeJSON("po show", po)
	}
	printPurchaseOrder(t, po)
	return ExitOK
}

func printPurchaseOrder(t *term, po procurement.PurchaseOrder) {
	t.printf("Number:     %s\n", po.Number)
	t.printf("Product:    %s (id %d)\n", po.ProductName, po.Product)
	t.printf("Supplier:   %s\n", po.Supplier)
	t.printf("Quantity:   %d\n", po.Quantity)
	t.printf("Unit price: %s\n", po.UnitPrice.StringFixed(2))
	t.printf("Total:      %s\n", po.Total().StringFixed(2))
	t.printf("Status:     %s\n", po.Status)
	t.printf("Ordered:    %s\n", view.FormatDate(po.OrderDate))
}

func (a *App) purchaseCreate(ctx context.Context, t *term, args []string) int {
	fs := newFlags(t, "po create")
	product := fs.Int64("product", 0, "product id")
	supplier := fs.String("supplier", "", "supplier name")
	quantity := fs.Int("quantity", 0, "quantity to order")
	unitPrice := fs.String("unit-price", "0", "price per unit")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	price, err := decimal.NewFromString(*unitPrice)
	if err != nil {
		return t.usage("po create", "--unit-price must be a number")
	}
	po, err := a.procurement.Create(ctx, procurement.CreateInput{
		Product:   *product,
		Supplier:  *supplier,
		Quantity:  *quantity,
		UnitPrice: price,
	})
	if err != nil {
		return t.fail("po create", err)
	}
	t.printf("Created purchase order %s (id %d).\n", po.Number, po.ID)
	return ExitOK
}

func (a *App) purchaseReceive(ctx context.Context, t *term, args []string) int {
	if len(args) != 1 {
		return t.usage("po receive", "expected one purchase order id")
	}
	poID, err := parseID(args[0])
	if err != nil {
		return t.usage("po receive", "%v", err)
	}
	status, err := a.receive(ctx, view.NewList(a.procurement.List), poID)
	if err != nil {
		return t.fail("po receive", err)
	}
	t.println(status)
	return ExitOK
}

// receive checks the order locally before asking the server, then
// refreshes list whatever the outcome.
func (a *App) receive(ctx context.Context, list *view.List[procurement.PurchaseOrder], poID int64) (string, error) {
	var status string
	err := list.Mutate(ctx, func(ctx context.Context) error {
		po, err := a.procurement.Get(ctx, poID)
		if err != nil {
			return err
		}
		if !po.Receivable() {
			return fmt.Errorf("%s: %w", po.Number, procurement.ErrAlreadyReceived)
		}
		status, err = a.procurement.Receive(ctx, poID)
		return err
	})
	return status, err
}

func (a *App) purchaseDelete(ctx context.Context, t *term, args []string) int {
	if len(args) != 1 {
		return t.usage("po delete", "expected one purchase order id")
	}
	poID, err := parseID(args[0])
	if err != nil {
		return t.usage("po delete", "%v", err)
	}
	list := view.NewList(a.procurement.List)
	if err := list.Mutate(ctx, func(ctx context.Context) error {
		return a.procurement.Delete(ctx, poID)
	}); err != nil {
		return t.fail("po delete", err)
	}
	t.printf("Deleted purchase order %d.\n", poID)
	if err := view.RenderList(t.out, list, purchaseColumns, "No purchase orders left."); err != nil {
		return t.fail("po delete", err)
	}
	return ExitOK
}

func (a *App) salesCmd(ctx context.Context, t *term, args []string) int {
	if len(args) == 0 {
		return t.usage("so", "expected list, show or compose")
	}
	rest := args[1:]
	switch args[0] {
	case "list":
		return a.salesList(ctx, t, rest)
	case "show":
		return a.salesShow(ctx, t, rest)
	case "compose":
		return a.compose(ctx, t, orders.Sales, rest)
	default:
		return t.usage("so", "unknown action %q", args[0])
	}
}

func (a *App) salesList(ctx context.Context, t *term, args []string) int {
	fs := newFlags(t, "so list")
	search := fs.String("search", "", "filter by number or customer")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	list := view.NewList(a.sales.List)
	if err := list.Search(ctx, *search); err != nil {
		return t.fail("so list", err)
	}
	if *asJSON {
		return t.writeJSON("so list", list.Items())
	}
	if err := view.RenderList(t.out, list, salesColumns, "No sales orders found."); err != nil {
		return t.fail("so list", err)
	}
	return ExitOK
}

func (a *App) salesShow(ctx context.Context, t *term, args []string) int {
	fs := newFlags(t, "so show")
	asJSON := fs.Bool("json", false, "print JSON")
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return ExitUsage
	}
	if len(positional) != 1 {
		return t.usage("so show", "expected one sales order id")
	}
	soID, err := parseID(positional[0])
	if err != nil {
		return t.usage("so show", "%v", err)
	}
	so, err := a.sales.Get(ctx, soID)
	if err != nil {
		return t.fail("so show", err)
	}
	if *asJSON {
		return t.writeJSON("so show", so)
	}
	printSalesOrder(t, so)
	return ExitOK
}

func printSalesOrder(t *term, so sales.SalesOrder) {
	t.printf("Number:   %s\n", so.Number)
	t.printf("Customer: %s\n", so.CustomerName)
	t.printf("Ordered:  %s\n", view.FormatDate(so.OrderDate))
	t.println()
	_ = view.Render(t.out, salesItemColumns, so.Items)
	t.println()
	t.printf("Total:    %s\n", so.TotalAmount.StringFixed(2))
}

// newForm builds an order form posting through the shared client. Sales
// forms look stock up in the warehouse.
func (a *App) newForm(kind orders.Kind, onSubmitted func(ctx context.Context)) *orders.Form {
	opts := []orders.Option{orders.WithOnSubmitted(onSubmitted)}
	path := procurement.BasePath
	if kind == orders.Sales {
		path = sales.BasePath
		opts = append(opts, orders.WithStockLookup(a.warehouse))
	}
	return orders.NewForm(kind, path, a.client, opts...)
}

// fillLine selects product and quantity on line i and reports a clamp.
func fillLine(ctx context.Context, t *term, form *orders.Form, i int, product int64, qty int) error {
	if err := form.SetProduct(ctx, i, product); err != nil {
		return err
	}
	got, err := form.SetQuantity(i, qty)
	if err != nil {
		return err
	}
	if got != qty {
		t.printf("Quantity for product %d limited to %d (in stock).\n", product, got)
	}
	return nil
}

func (a *App) compose(ctx context.Context, t *term, kind orders.Kind, args []string) int {
	cmd := "po compose"
	identityFlag := "supplier"
	if kind == orders.Sales {
		cmd, identityFlag = "so compose", "customer"
	}
	fs := newFlags(t, cmd)
	identity := fs.String(identityFlag, "", kind.IdentityLabel())
	var items itemsFlag
	fs.Var(&items, "item", "PRODUCT:QTY, repeatable")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	submitted := false
	form := a.newForm(kind, func(context.Context) { submitted = true })
	form.SetIdentity(*identity)
	for n, item := range items {
		i := 0
		if n > 0 {
			i = form.AddItem()
		}
		if err := fillLine(ctx, t, form, i, item.product, item.quantity); err != nil {
			return t.fail(cmd, err)
		}
	}
	if err := form.Submit(ctx); err != nil {
		if errors.Is(err, orders.ErrSubmitting) {
			return t.fail(cmd, err)
		}
		_, _ = fmt.Fprintf(t.err, "%s: %s\n", cmd, form.Error())
		return ExitError
	}
	if submitted {
		t.printf("%s order submitted.\n", kindTitle(kind))
	}
	return ExitOK
}

func kindTitle(kind orders.Kind) string {
	if kind == orders.Sales {
		return "Sales"
	}
	return "Purchase"
}
