package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/sustc/cookbook/appview"
	"github.com/sustc/cookbook/appview/state"
	"github.com/sustc/cookbook/log"
)

func main() {
	ctx := context.Background()

	c, err := appview.LoadConfig(ctx)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	l := log.New("appview", c.Dev)
	slog.SetDefault(l)

	if c.Dev {
		l.Info("running in dev mode, cookies are not marked secure")
	}

	s, err := state.Make(c, l)
	if err != nil {
		l.Error("failed to setup state", "error", err)
		os.Exit(1)
	}

	l.Info("starting server", "address", c.ListenAddr, "api", c.APIBase)
	l.Error("server error", "error", http.ListenAndServe(c.ListenAddr, s.Router()))
}
