package cli

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/odyssey-erp/sealion/internal/api"
	"github.com/odyssey-erp/sealion/internal/auth"
	"github.com/odyssey-erp/sealion/internal/orders"
	"github.com/odyssey-erp/sealion/internal/procurement"
	"github.com/odyssey-erp/sealion/internal/products"
	"github.com/odyssey-erp/sealion/internal/sales"
	"github.com/odyssey-erp/sealion/internal/shell"
	"github.com/odyssey-erp/sealion/internal/view"
	"github.com/odyssey-erp/sealion/internal/warehouse"
)

// listView is the part of a table screen the shell drives.
type listView interface {
	refresh(ctx context.Context) error
	search(ctx context.Context, term string) error
	render(w io.Writer) error
	dismiss()
}

type tableView[T any] struct {
	list    *view.List[T]
	columns []view.Column[T]
	empty   string
}

func newTableView[T any](fetch view.Fetcher[T], columns []view.Column[T], empty string) *tableView[T] {
	return &tableView[T]{list: view.NewList(fetch), columns: columns, empty: empty}
}

func (v *tableView[T]) refresh(ctx context.Context) error { return v.list.Refresh(ctx) }
func (v *tableView[T]) search(ctx context.Context, term string) error {
	return v.list.Search(ctx, term)
}
func (v *tableView[T]) render(w io.Writer) error {
	return view.RenderList(w, v.list, v.columns, v.empty)
}
func (v *tableView[T]) dismiss() { v.list.Dismiss() }

type repl struct {
	app   *App
	t     *term
	shell *shell.Shell

	products  *tableView[products.Product]
	stock     *tableView[warehouse.Record]
	purchases *tableView[procurement.PurchaseOrder]
	sales     *tableView[sales.SalesOrder]
}

const replHelp = `commands:
  help                      this text
  views                     list reachable views
  go VIEW                   switch view (products, warehouse, po, so, login, register)
  login [USERNAME]          log in, prompting for missing values
  register [USERNAME]       create an account
  logout                    end the session
  status                    show the session state
  refresh                   refetch the current list
  search [TERM]             filter the current list, empty TERM clears it
  show ID                   order details (po, so)
  new                       compose an order (po, so)
  receive ID                receive a purchase order (po)
  delete ID                 delete a product or purchase order
  quit                      leave the shell
`

// Shell runs the interactive session until quit or end of input.
func (a *App) Shell(ctx context.Context, opts Options) int {
	t := newTerm(opts)
	r := &repl{
		app:       a,
		t:         t,
		shell:     shell.New(a.auth),
		products:  newTableView(view.Fetcher[products.Product](a.products.List), productColumns, "No products found."),
		stock:     newTableView(view.Fetcher[warehouse.Record](a.warehouse.List), stockColumns, "The warehouse is empty."),
		purchases: newTableView(view.Fetcher[procurement.PurchaseOrder](a.procurement.List), purchaseColumns, "No purchase orders found."),
		sales:     newTableView(view.Fetcher[sales.SalesOrder](a.sales.List), salesColumns, "No sales orders found."),
	}
	t.println("Sea Lion inventory shell. Type `help` for commands.")
	r.show(ctx)

	for {
		before, state := r.shell.Current(), a.auth.State()
		line, err := t.readLine("sealion:" + string(before) + "> ")
		if err != nil {
			t.println()
			return ExitOK
		}
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := strings.ToLower(fields[0]), fields[1:]
		if cmd == "quit" || cmd == "exit" {
			return ExitOK
		}
		if err := r.dispatch(ctx, cmd, args); err != nil {
			t.printf("error: %s\n", api.Message(err))
		}
		if after := r.shell.Current(); after != before {
			if state == auth.Authenticated && a.auth.State() == auth.Anonymous && cmd != "logout" {
				t.println("Your session has ended. Please log in again.")
			}
			r.current(before).dismiss()
			r.show(ctx)
		}
	}
}

func (r *repl) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help":
		r.t.printf("%s", replHelp)
	case "views":
		for _, v := range r.shell.Views() {
			r.t.println(" ", v)
		}
	case "go":
		if len(args) != 1 {
			return errors.New("usage: go VIEW")
		}
		return r.navigate(args[0])
	case "products", "warehouse", "purchase-orders", "sales-orders", "po", "so":
		return r.navigate(cmd)
	case "login":
		return r.login(ctx, args)
	case "register":
		return r.register(ctx, args)
	case "logout":
		return r.app.auth.Logout(ctx)
	case "status":
		r.app.status(ctx, r.t, nil)
	case "refresh":
		return r.refresh(ctx)
	case "search":
		return r.search(ctx, strings.Join(args, " "))
	case "show":
		return r.showOrder(ctx, args)
	case "new":
		return r.compose(ctx)
	case "receive":
		return r.receive(ctx, args)
	case "delete":
		return r.delete(ctx, args)
	default:
		return errors.New("unknown command " + strconv.Quote(cmd) + ", try `help`")
	}
	return nil
}

func (r *repl) navigate(name string) error {
	v, err := shell.ParseView(name)
	if err != nil {
		return err
	}
	if err := r.shell.Navigate(v); errors.Is(err, shell.ErrLoginRequired) {
		return errors.New("log in first")
	} else if err != nil {
		return err
	}
	return nil
}

func (r *repl) current(v shell.View) listView {
	switch v {
	case shell.ViewProducts:
		return r.products
	case shell.ViewWarehouse:
		return r.stock
	case shell.ViewPurchaseOrders:
		return r.purchases
	case shell.ViewSalesOrders:
		return r.sales
	}
	return noList{}
}

type noList struct{}

func (noList) refresh(context.Context) error        { return nil }
func (noList) search(context.Context, string) error { return nil }
func (noList) render(io.Writer) error               { return nil }
func (noList) dismiss()                             {}

// show prints the current screen, loading its list.
func (r *repl) show(ctx context.Context) {
	switch r.shell.Current() {
	case shell.ViewLogin:
		if msg := r.app.auth.LoginError(); msg != "" {
			r.t.printf("Login failed: %s\n", msg)
		}
		r.t.println("Log in with `login USERNAME` or create an account with `register USERNAME`.")
	case shell.ViewRegister:
		r.t.println("Create an account with `register USERNAME`, then `login`.")
	default:
		if err := r.refresh(ctx); err != nil {
			r.t.printf("error: %s\n", api.Message(err))
		}
	}
}

func (r *repl) refresh(ctx context.Context) error {
	lv := r.current(r.shell.Current())
	if err := lv.refresh(ctx); err != nil {
		if errors.Is(err, view.ErrStale) {
			return nil
		}
		return err
	}
	return lv.render(r.t.out)
}

func (r *repl) search(ctx context.Context, term string) error {
	lv := r.current(r.shell.Current())
	if err := lv.search(ctx, term); err != nil {
		if errors.Is(err, view.ErrStale) {
			return nil
		}
		return err
	}
	return lv.render(r.t.out)
}

func (r *repl) credentials(args []string) (string, string, error) {
	username := ""
	if len(args) > 0 {
		username = args[0]
	} else {
		line, err := r.t.readLine("Username: ")
		if err != nil {
			return "", "", err
		}
		username = line
	}
	password, err := r.t.readLine("Password: ")
	if err != nil {
		return "", "", err
	}
	return username, password, nil
}

func (r *repl) login(ctx context.Context, args []string) error {
	username, password, err := r.credentials(args)
	if err != nil {
		return err
	}
	if err := r.app.auth.Login(ctx, username, password); err != nil {
		msg := r.app.auth.LoginError()
		if msg == "" {
			return err
		}
		r.t.printf("Login failed: %s\n", msg)
		return nil
	}
	r.t.printf("Welcome, %s.\n", username)
	return nil
}

func (r *repl) register(ctx context.Context, args []string) error {
	if err := r.shell.Navigate(shell.ViewRegister); err != nil {
		return err
	}
	username, password, err := r.credentials(args)
	if err != nil {
		return err
	}
	user, err := r.app.auth.Register(ctx, username, password)
	if err != nil {
		return err
	}
	r.t.printf("Registered %s. Log in with `login %s`.\n", user.Username, user.Username)
	if r.app.auth.State() == auth.Authenticated {
		return nil
	}
	return r.shell.Navigate(shell.ViewLogin)
}

func (r *repl) showOrder(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: show ID")
	}
	orderID, err := parseID(args[0])
	if err != nil {
		return err
	}
	switch r.shell.Current() {
	case shell.ViewPurchaseOrders:
		po, err := r.app.procurement.Get(ctx, orderID)
		if err != nil {
			return err
		}
		printPurchaseOrder(r.t, po)
	case shell.ViewSalesOrders:
		so, err := r.app.sales.Get(ctx, orderID)
		if err != nil {
			return err
		}
		printSalesOrder(r.t, so)
	default:
		return errors.New("show works in the po and so views")
	}
	return nil
}

func (r *repl) receive(ctx context.Context, args []string) error {
	if r.shell.Current() != shell.ViewPurchaseOrders {
		return errors.New("receive works in the po view")
	}
	if len(args) != 1 {
		return errors.New("usage: receive ID")
	}
	poID, err := parseID(args[0])
	if err != nil {
		return err
	}
	status, err := r.app.receive(ctx, r.purchases.list, poID)
	if err != nil {
		return err
	}
	r.t.println(status)
	return r.purchases.render(r.t.out)
}

func (r *repl) delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: delete ID")
	}
	targetID, err := parseID(args[0])
	if err != nil {
		return err
	}
	switch r.shell.Current() {
	case shell.ViewProducts:
		if !r.confirm("Delete product " + args[0] + "? [y/N] ") {
			return nil
		}
		if err := r.products.list.Mutate(ctx, func(ctx context.Context) error {
			return r.app.products.Delete(ctx, targetID)
		}); err != nil {
			return err
		}
		return r.products.render(r.t.out)
	case shell.ViewPurchaseOrders:
		if !r.confirm("Delete purchase order " + args[0] + "? [y/N] ") {
			return nil
		}
		if err := r.purchases.list.Mutate(ctx, func(ctx context.Context) error {
			return r.app.procurement.Delete(ctx, targetID)
		}); err != nil {
			return err
		}
		return r.purchases.render(r.t.out)
	}
	return errors.New("delete works in the products and po views")
}

func (r *repl) confirm(prompt string) bool {
	answer, err := r.t.readLine(prompt)
	if err != nil {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}

// compose runs the order wizard. A failed submit keeps the form so lines
// can be fixed and submitted again.
func (r *repl) compose(ctx context.Context) error {
	var kind orders.Kind
	var target listView
	switch r.shell.Current() {
	case shell.ViewPurchaseOrders:
		kind, target = orders.Purchase, r.purchases
	case shell.ViewSalesOrders:
		kind, target = orders.Sales, r.sales
	default:
		return errors.New("new works in the po and so views")
	}

	done := false
	form := r.app.newForm(kind, func(ctx context.Context) {
		done = true
		if err := target.refresh(ctx); err != nil && !errors.Is(err, view.ErrStale) {
			r.t.printf("error: %s\n", api.Message(err))
		}
	})
	identity, err := r.t.readLine(kind.IdentityLabel() + ": ")
	if err != nil {
		return err
	}
	form.SetIdentity(identity)

	r.t.println("Enter lines as `PRODUCT-ID QUANTITY`. `done` submits and `cancel` aborts.")
	r.t.println("`remove N` drops line N and `name VALUE` changes the " + strings.ToLower(kind.IdentityLabel()) + ".")
	line := 0
	for !done {
		raw, err := r.t.readLine("  line " + strconv.Itoa(line+1) + ": ")
		if err != nil {
			return err
		}
		parts := strings.Fields(raw)
		switch {
		case len(parts) == 0:
			continue
		case parts[0] == "cancel":
			r.t.println("Order discarded.")
			return nil
		case parts[0] == "done":
			if err := form.Submit(ctx); err != nil {
				r.t.printf("Not submitted: %s\n", form.Error())
				continue
			}
		case parts[0] == "name" && len(parts) > 1:
			form.SetIdentity(strings.Join(parts[1:], " "))
		case parts[0] == "remove" && len(parts) == 2:
			n, err := strconv.Atoi(parts[1])
			if err != nil || form.RemoveItem(n-1) != nil {
				r.t.println("  no such line")
				continue
			}
			line = len(form.Items())
		case len(parts) == 2:
			product, perr := parseID(parts[0])
			qty, qerr := strconv.Atoi(parts[1])
			if perr != nil || qerr != nil {
				r.t.println("  expected PRODUCT-ID QUANTITY")
				continue
			}
			i := line
			if i >= len(form.Items()) {
				i = form.AddItem()
			}
			if err := fillLine(ctx, r.t, form, i, product, qty); err != nil {
				r.t.printf("  %s\n", api.Message(err))
				continue
			}
			line = i + 1
		default:
			r.t.println("  expected PRODUCT-ID QUANTITY")
		}
	}
	r.t.printf("%s order submitted.\n", kindTitle(kind))
	return target.render(r.t.out)
}
