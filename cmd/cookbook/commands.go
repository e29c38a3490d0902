package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/sustc/cookbook/appview/router"
	"github.com/sustc/cookbook/log"
	"github.com/tidwall/gjson"
)

type command func(ctx context.Context, e *env, args []string) error

var commands = map[string]command{
	"login":    login,
	"register": register,
	"logout":   logout,
	"whoami":   whoami,
	"get":      get,
	"post":     post,
	"open":     open,
}

var errRejected = errors.New("wrong author id or password")

func login(ctx context.Context, e *env, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: login <author id> <password>", errUsage)
	}

	ok, err := e.store.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if !ok {
		return errRejected
	}

	session, _ := e.store.Session()
	fmt.Fprintf(e.stdout, "logged in as %s\n", session.ID)
	return nil
}

func register(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	name := fs.String("name", "", "display name")
	password := fs.String("password", "", "password")
	gender := fs.String("gender", "", "MALE or FEMALE")
	birthday := fs.String("birthday", "", "YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if *name == "" || *password == "" {
		return fmt.Errorf("%w: register needs -name and -password", errUsage)
	}

	payload := map[string]string{"name": *name, "password": *password}
	if *gender != "" {
		payload["gender"] = *gender
	}
	if *birthday != "" {
		payload["birthday"] = *birthday
	}

	data, err := e.store.Register(ctx, payload)
	if err != nil {
		return err
	}
	return printJSON(e.stdout, data)
}

func logout(ctx context.Context, e *env, _ []string) error {
	e.store.Logout(ctx)
	fmt.Fprintln(e.stdout, "logged out")
	return nil
}

func whoami(_ context.Context, e *env, _ []string) error {
	session, ok := e.store.Session()
	if !ok {
		fmt.Fprintln(e.stdout, "not logged in")
		return nil
	}
	fmt.Fprintln(e.stdout, session.ID)
	return nil
}

func get(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: get <path>", errUsage)
	}

	resp, err := e.client.Get(ctx, args[0])
	if err != nil {
		return err
	}
	return printJSON(e.stdout, resp.Data)
}

func post(ctx context.Context, e *env, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: post <path> <json>", errUsage)
	}
	if !json.Valid([]byte(args[1])) {
		return fmt.Errorf("%w: body is not valid json", errUsage)
	}

	resp, err := e.client.Post(ctx, args[0], json.RawMessage(args[1]))
	if err != nil {
		return err
	}
	return printJSON(e.stdout, resp.Data)
}

// open runs a page navigation against the stored navigation state and
// prints where it ended up, following guard redirects.
func open(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("open", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	envelope := fs.Bool("envelope", false, "leave the recipe envelope hint set after arriving")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: open [-envelope] <path>", errUsage)
	}

	l := log.FromContext(ctx)
	r := router.NewDefault(e.wait)

	nav, err := router.LoadState(e.db)
	if err != nil {
		l.Warn("loading navigation state", "err", err)
	}

	var from *router.Location
	if nav.Last != "" {
		from, _ = r.Resolve(nav.Last)
	}

	loc, err := r.Navigate(ctx, router.Navigation{
		To:      fs.Arg(0),
		From:    from,
		Session: e.store,
		State:   nav,
	})
	if err != nil {
		return err
	}

	if *envelope {
		nav.SetHint(router.Hint{ShowEnvelope: true})
	}
	if err := router.SaveState(e.db, nav); err != nil {
		return err
	}

	if loc.RedirectedFrom != nil {
		fmt.Fprintf(e.stdout, "%s -> ", loc.RedirectedFrom.FullPath)
	}
	fmt.Fprintf(e.stdout, "%s (%s)\n", loc.FullPath, loc.Name())
	return nil
}

// printJSON pretty prints data when it is JSON and writes it verbatim
// otherwise.
func printJSON(w io.Writer, data []byte) error {
	out := string(data)
	if gjson.ValidBytes(data) {
		out = gjson.GetBytes(data, "@pretty").Raw
	}
	if len(out) == 0 || out[len(out)-1] != '\n' {
		out += "\n"
	}
	_, err := io.WriteString(w, out)
	return err
}
