package cli_test

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/sealion/cmd/sealion/cli"
	"github.com/odyssey-erp/sealion/internal/auth"
	"github.com/odyssey-erp/sealion/internal/mockapi/mockapitest"
	"github.com/odyssey-erp/sealion/internal/procurement"
	"github.com/odyssey-erp/sealion/internal/products"
	"github.com/odyssey-erp/sealion/internal/warehouse"
)

type result struct {
	code   int
	stdout string
	stderr string
}

func run(t *testing.T, env *mockapitest.Env, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := cli.New(env.Client, env.Auth, nil).Run(context.Background(), cli.Options{
		Args:   args,
		Stdin:  strings.NewReader(stdin),
		Stdout: &stdout,
		Stderr: &stderr,
	})
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func productID(t *testing.T, env *mockapitest.Env, code string) string {
	t.Helper()
	list, err := products.NewService(env.Client).List(context.Background(), code)
	require.NoError(t, err)
	require.Len(t, list, 1)
	return strconv.FormatInt(list[0].ID, 10)
}

func pendingOrderID(t *testing.T, env *mockapitest.Env) string {
	t.Helper()
	list, err := procurement.NewService(env.Client).List(context.Background(), "")
	require.NoError(t, err)
	for _, po := range list {
		if po.Receivable() {
			return strconv.FormatInt(po.ID, 10)
		}
	}
	t.Fatal("no pending purchase order")
	return ""
}

func TestRunWithoutArgsPrintsUsage(t *testing.T) {
	env := mockapitest.New(t)
	res := run(t, env, "")
	require.Equal(t, cli.ExitUsage, res.code)
	require.Contains(t, res.stderr, "usage: sealion")

	res = run(t, env, "", "frobnicate")
	require.Equal(t, cli.ExitUsage, res.code)
	require.Contains(t, res.stderr, `unknown command "frobnicate"`)
}

func TestProductsList(t *testing.T) {
	env := mockapitest.LoggedIn(t)

	res := run(t, env, "", "products", "list")
	require.Equal(t, cli.ExitOK, res.code, res.stderr)
	require.Contains(t, res.stdout, "SL-ROPE-12")
	require.Contains(t, res.stdout, "Mooring Rope 12mm")
	require.Contains(t, res.stdout, "42.50")

	res = run(t, env, "", "products", "list", "--search", "buoy", "--json")
	require.Equal(t, cli.ExitOK, res.code, res.stderr)
	require.Contains(t, res.stdout, "Marker Buoy Small")
	require.NotContains(t, res.stdout, "Mooring Rope")
}

func TestProtectedCommandNeedsLogin(t *testing.T) {
	env := mockapitest.New(t)
	res := run(t, env, "", "warehouse", "list")
	require.Equal(t, cli.ExitError, res.code)
	require.Contains(t, res.stderr, "(run `sealion login`)")
}

func TestLogin(t *testing.T) {
	env := mockapitest.New(t)

	res := run(t, env, "", "login", "--username", "admin", "--password", "wrong")
	require.Equal(t, cli.ExitError, res.code)
	require.True(t, strings.HasPrefix(res.stderr, "login: "), res.stderr)
	require.Equal(t, auth.Anonymous, env.Auth.State())

	res = run(t, env, "sealion-admin\n", "login", "--username", "admin")
	require.Equal(t, cli.ExitOK, res.code, res.stderr)
	require.Contains(t, res.stdout, "Password: ")
	require.Contains(t, res.stdout, "Logged in as admin.")
	require.Equal(t, auth.Authenticated, env.Auth.State())

	res = run(t, env, "", "status", "--json")
	require.Equal(t, cli.ExitOK, res.code, res.stderr)
	require.Contains(t, res.stdout, `"username": "admin"`)

	res = run(t, env, "", "logout")
	require.Equal(t, cli.ExitOK, res.code)
	require.Equal(t, auth.Anonymous, env.Auth.State())
}

func TestPurchaseReceiveTwice(t *testing.T) {
	env := mockapitest.LoggedIn(t)
	poID := pendingOrderID(t, env)

	res := run(t, env, "", "po", "receive", poID)
	require.Equal(t, cli.ExitOK, res.code, res.stderr)
	require.Contains(t, res.stdout, "Order received and stock updated.")

	res = run(t, env, "", "po", "receive", poID)
	require.Equal(t, cli.ExitError, res.code)
	require.Contains(t, res.stderr, "already received")

	res = run(t, env, "", "po", "show", poID, "--json")
	require.Equal(t, cli.ExitOK, res.code, res.stderr)
	require.Contains(t, res.stdout, `"status": "RECEIVED"`)
}

func TestPurchaseCompose(t *testing.T) {
	env := mockapitest.LoggedIn(t)
	rope := productID(t, env, "SL-ROPE-12")
	buoy := productID(t, env, "SL-BUOY-S")

	res := run(t, env, "", "po", "compose", "--supplier", "Dockside Traders",
		"--item", rope+":10", "--item", buoy+":5")
	require.Equal(t, cli.ExitOK, res.code, res.stderr)
	require.Contains(t, res.stdout, "Purchase order submitted.")

	list, err := procurement.NewService(env.Client).List(context.Background(), "Dockside")
	require.NoError(t, err)
	require.Len(t, list, 2)

	res = run(t, env, "", "po", "compose", "--supplier", "Dockside Traders")
	require.Equal(t, cli.ExitError, res.code)
	require.Contains(t, res.stderr, "Please add at least one item")
}

func TestSalesComposeClampsToStock(t *testing.T) {
	env := mockapitest.LoggedIn(t)
	net := productID(t, env, "SL-NET-20")

	res := run(t, env, "", "so", "compose", "--customer", "Coastal Fisheries", "--item", net+":9")
	require.Equal(t, cli.ExitOK, res.code, res.stderr)
	require.Contains(t, res.stdout, "limited to 4")
	require.Contains(t, res.stdout, "Sales order submitted.")

	id, err := strconv.ParseInt(net, 10, 64)
	require.NoError(t, err)
	stock, err := warehouse.NewService(env.Client).StockFor(context.Background(), id)
	require.NoError(t, err)
	require.Zero(t, stock)

	res = run(t, env, "", "so", "list", "--search", "coastal")
	require.Equal(t, cli.ExitOK, res.code, res.stderr)
	require.Contains(t, res.stdout, "Coastal Fisheries")
}

func TestProductsCreateUpdateDelete(t *testing.T) {
	env := mockapitest.LoggedIn(t)

	res := run(t, env, "", "products", "create", "--name", "Anchor Chain", "--price", "75.00", "--stock", "3", "--code", "SL-CHAIN")
	require.Equal(t, cli.ExitOK, res.code, res.stderr)
	require.Contains(t, res.stdout, "(SL-CHAIN)")
	chain := productID(t, env, "SL-CHAIN")

	res = run(t, env, "", "products", "update", chain, "--price", "80")
	require.Equal(t, cli.ExitOK, res.code, res.stderr)

	res = run(t, env, "", "products", "update", chain)
	require.Equal(t, cli.ExitUsage, res.code)
	require.Contains(t, res.stderr, "nothing to update")

	res = run(t, env, "", "products", "create", "--name", "Broken", "--price", "abc")
	require.Equal(t, cli.ExitUsage, res.code)

	res = run(t, env, "", "products", "delete", chain)
	require.Equal(t, cli.ExitOK, res.code, res.stderr)
	require.NotContains(t, res.stdout, "Anchor Chain")
}

func TestShellSession(t *testing.T) {
	env := mockapitest.New(t)
	seeded := env.Server.Store().ListPurchaseOrders("")
	require.Len(t, seeded, 1)
	script := strings.Join([]string{
		"go products",
		"login admin",
		"sealion-admin",
		"search buoy",
		"po",
		"receive " + strconv.FormatInt(seeded[0].ID, 10),
		"bogus",
		"quit",
	}, "\n") + "\n"

	res := run(t, env, script, "shell")
	require.Equal(t, cli.ExitOK, res.code, res.stderr)
	require.Contains(t, res.stdout, "error: log in first")
	require.Contains(t, res.stdout, "Welcome, admin.")
	require.Contains(t, res.stdout, "Marker Buoy Small")
	require.Contains(t, res.stdout, "Harbour Supply Co.")
	require.Contains(t, res.stdout, "Order received and stock updated.")
	require.Contains(t, res.stdout, `unknown command "bogus"`)
}

func TestShellComposeWizard(t *testing.T) {
	env := mockapitest.LoggedIn(t)
	net := productID(t, env, "SL-NET-20")
	script := strings.Join([]string{
		"so",
		"new",
		"",
		net + " 9",
		"done",
		"name Coastal Fisheries",
		"done",
		"quit",
	}, "\n") + "\n"

	res := run(t, env, script, "shell")
	require.Equal(t, cli.ExitOK, res.code, res.stderr)
	require.Contains(t, res.stdout, "limited to 4")
	require.Contains(t, res.stdout, "Not submitted: Customer Name: This field is required.")
	require.Contains(t, res.stdout, "Sales order submitted.")
	require.Contains(t, res.stdout, "Coastal Fisheries")
}

func TestShellEndsOnEOF(t *testing.T) {
	env := mockapitest.New(t)
	res := run(t, env, "views\n", "shell")
	require.Equal(t, cli.ExitOK, res.code)
	require.Contains(t, res.stdout, "login")
	require.Contains(t, res.stdout, "register")
}
