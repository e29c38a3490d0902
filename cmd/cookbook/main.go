// Command cookbook talks to the recipe backend from a terminal. The
// session and navigation state are kept in a local SQLite file so they
// survive between runs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sustc/cookbook/appview"
	"github.com/sustc/cookbook/appview/api"
	"github.com/sustc/cookbook/appview/auth"
	"github.com/sustc/cookbook/appview/db"
	"github.com/sustc/cookbook/appview/router"
	"github.com/sustc/cookbook/log"
)

const usage = `usage: cookbook [flags] <command> [args]

commands:
  login <author id> <password>
  register -name <name> -password <password> [-gender G] [-birthday YYYY-MM-DD]
  logout
  whoami
  get <path>
  post <path> <json>
  open [-envelope] <path>

flags:
`

var errUsage = errors.New("bad usage")

func main() {
	err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
	if err != nil {
		report(os.Stderr, err)
		os.Exit(1)
	}
}

// report prints err for the user. The bare errUsage is skipped since
// the usage text has already been printed by then.
func report(w io.Writer, err error) {
	if err == errUsage {
		return
	}
	fmt.Fprintln(w, "cookbook:", err)
}

// env is what every command runs against.
type env struct {
	store  *auth.Store
	db     *db.DB
	client *api.Client
	stdout io.Writer
	wait   router.Sleeper
}

// wait is how open holds a navigation; nil waits on a real timer.
var wait router.Sleeper

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := appview.LoadConfig(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	fs := flag.NewFlagSet("cookbook", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	dbPath := fs.String("db", defaultDBPath(), "path to the local storage database")
	apiBase := fs.String("api", cfg.APIBase, "backend base url")
	timeout := fs.Duration("timeout", cfg.APITimeout, "how long to wait for the backend")
	debug := fs.Bool("debug", cfg.Dev, "log at debug level")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	c, ok := commands[cmd]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		fs.Usage()
		return errUsage
	}

	l := log.NewWriter(stderr, "cookbook", *debug)
	ctx = log.IntoContext(ctx, l)

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(*dbPath), err)
	}
	database, err := db.Make(*dbPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", *dbPath, err)
	}
	defer database.Close()

	client := api.New(api.Config{BaseURL: *apiBase, Timeout: *timeout})
	store := auth.New(ctx, database, client)
	ctx = auth.IntoContext(ctx, store)
	ctx = api.WithCredentials(ctx, store)

	e := &env{
		store:  store,
		db:     database,
		client: client,
		stdout: stdout,
		wait:   wait,
	}

	return c(ctx, e, rest)
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".cookbook", "storage.db")
	}
	return filepath.Join(home, ".cookbook", "storage.db")
}
