// Package cli implements the sealion subcommands on top of the client
// packages. Every command writes to the streams given in Options and
// returns a process exit code.
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/odyssey-erp/sealion/internal/api"
	"github.com/odyssey-erp/sealion/internal/auth"
	"github.com/odyssey-erp/sealion/internal/procurement"
	"github.com/odyssey-erp/sealion/internal/products"
	"github.com/odyssey-erp/sealion/internal/sales"
	"github.com/odyssey-erp/sealion/internal/warehouse"
)

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// Options carries the arguments and streams of one invocation.
type Options struct {
	Args   []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// App holds the services shared by all commands.
type App struct {
	client      *api.Client
	auth        *auth.Controller
	products    *products.Service
	warehouse   *warehouse.Service
	procurement *procurement.Service
	sales       *sales.Service
	logger      *slog.Logger
	now         func() time.Time
}

// New wires the entity services onto client. The auth controller must
// already be bound to the same client.
func New(client *api.Client, ctrl *auth.Controller, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &App{
		client:      client,
		auth:        ctrl,
		products:    products.NewService(client),
		warehouse:   warehouse.NewService(client),
		procurement: procurement.NewService(client),
		sales:       sales.NewService(client),
		logger:      logger,
		now:         time.Now,
	}
}

// term is the resolved set of streams of a command.
type term struct {
	in  *bufio.Reader
	out io.Writer
	err io.Writer
}

func (t *term) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(t.out, format, args...)
}

func (t *term) println(args ...any) {
	_, _ = fmt.Fprintln(t.out, args...)
}

// fail prints err in its user facing form and returns ExitError.
func (t *term) fail(cmd string, err error) int {
	msg := api.Message(err)
	if errors.Is(err, auth.ErrSessionExpired) || errors.Is(err, api.ErrUnauthorized) {
		msg += " (run `sealion login`)"
	}
	_, _ = fmt.Fprintf(t.err, "%s: %s\n", cmd, msg)
	return ExitError
}

func (t *term) usage(cmd, format string, args ...any) int {
	_, _ = fmt.Fprintf(t.err, "%s: %s\n", cmd, fmt.Sprintf(format, args...))
	return ExitUsage
}

func (t *term) writeJSON(cmd string, v any) int {
	enc := json.NewEncoder(t.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		_, _ = fmt.Fprintf(t.err, "%s: encode json: %v\n", cmd, err)
		return ExitError
	}
	return ExitOK
}

// readLine prompts and reads one trimmed line. io.EOF is returned only
// when nothing was read.
func (t *term) readLine(prompt string) (string, error) {
	if prompt != "" {
		t.printf("%s", prompt)
	}
	line, err := t.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Run dispatches opts.Args to a command.
func (a *App) Run(ctx context.Context, opts Options) int {
	t := newTerm(opts)
	if len(opts.Args) == 0 {
		printUsage(t.err)
		return ExitUsage
	}
	cmd, args := opts.Args[0], opts.Args[1:]
	switch cmd {
	case "login":
		return a.login(ctx, t, args)
	case "logout":
		return a.logout(ctx, t)
	case "register":
		return a.register(ctx, t, args)
	case "status":
		return a.status(ctx, t, args)
	case "products":
		return a.productsCmd(ctx, t, args)
	case "warehouse":
		return a.warehouseCmd(ctx, t, args)
	case "po":
		return a.purchaseCmd(ctx, t, args)
	case "so":
		return a.salesCmd(ctx, t, args)
	case "shell":
		return a.Shell(ctx, opts)
	case "help", "-h", "--help":
		printUsage(t.out)
		return ExitOK
	default:
		printUsage(t.err)
		return t.usage("sealion", "unknown command %q", cmd)
	}
}

func newTerm(opts Options) *term {
	stdin, stdout, stderr := opts.Stdin, opts.Stdout, opts.Stderr
	if stdin == nil {
		stdin = os.Stdin
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &term{in: bufio.NewReader(stdin), out: stdout, err: stderr}
}

func printUsage(w io.Writer) {
	_, _ = fmt.Fprint(w, `usage: sealion <command> [flags]

commands:
  login [--username U] [--password P]
  logout
  register --username U --password P
  status [--json]
  products list [--search T] [--json]
  products create --name N --price P [--stock S] [--code C] [--description D] [--image FILE]
  products update ID [--name N] [--price P] [--stock S] [--code C] [--description D] [--image FILE]
  products delete ID
  warehouse list [--search T] [--json]
  po list [--search T] [--json]
  po show ID [--json]
  po create --product ID --supplier S --quantity Q --unit-price P
  po compose --supplier S --item PRODUCT:QTY [--item ...]
  po receive ID
  po delete ID
  so list [--search T] [--json]
  so show ID [--json]
  so compose --customer C --item PRODUCT:QTY [--item ...]
  shell
`)
}

// newFlags returns a flag set that reports errors to t.err instead of
// exiting the process.
func newFlags(t *term, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(t.err)
	return fs
}

// parseInterspersed parses flags that may follow positional arguments,
// as in `po show 12 --json`.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// itemsFlag collects repeated --item PRODUCT:QTY values.
type itemsFlag []lineArg

type lineArg struct {
	product  int64
	quantity int
}

func (f *itemsFlag) String() string {
	parts := make([]string, len(*f))
	for i, l := range *f {
		parts[i] = fmt.Sprintf("%d:%d", l.product, l.quantity)
	}
	return strings.Join(parts, ",")
}

func (f *itemsFlag) Set(value string) error {
	product, qty, ok := strings.Cut(value, ":")
	if !ok {
		qty = "1"
	}
	id, err := strconv.ParseInt(strings.TrimSpace(product), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid product id %q", product)
	}
	n, err := strconv.Atoi(strings.TrimSpace(qty))
	if err != nil {
		return fmt.Errorf("invalid quantity %q", qty)
	}
	*f = append(*f, lineArg{product: id, quantity: n})
	return nil
}
