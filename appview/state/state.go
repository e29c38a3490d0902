package state

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sustc/cookbook/appview"
	"github.com/sustc/cookbook/appview/api"
	"github.com/sustc/cookbook/appview/pages"
	"github.com/sustc/cookbook/appview/router"
	"github.com/sustc/cookbook/appview/storage"
)

type State struct {
	config  *appview.Config
	api     *api.Client
	cookies sessions.Store
	router  *router.Router
	pages   *pages.Pages
	logger  *slog.Logger
}

func Make(config *appview.Config, logger *slog.Logger) (*State, error) {
	client := api.New(api.Config{
		BaseURL: config.APIBase,
		Timeout: config.APITimeout,
	})

	cookies, err := storage.NewCookieStore(config.CookieSecret, config.Dev)
	if err != nil {
		return nil, fmt.Errorf("setting up cookie store: %w", err)
	}

	return &State{
		config:  config,
		api:     client,
		cookies: cookies,
		router:  router.NewDefault(nil),
		pages:   pages.NewPages(),
		logger:  logger,
	}, nil
}

func (s *State) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.SessionMiddleware)

		r.Handle("/api/*", http.HandlerFunc(s.Proxy))

		r.Post("/login", s.Login)
		r.Post("/register", s.Register)
		r.Post("/logout", s.Logout)
		r.Post("/nav/envelope", s.Envelope)

		handlers := map[string]http.HandlerFunc{
			router.Home:         s.Home,
			router.Login:        s.LoginPage,
			router.Register:     s.RegisterPage,
			router.RecipeDetail: s.RecipeDetail,
			router.Profile:      s.Profile,
			router.CreateRecipe: s.CreateRecipe,
		}

		r.Group(func(r chi.Router) {
			r.Use(s.Navigate)
			for _, route := range s.router.Routes() {
				h, ok := handlers[route.Name]
				if !ok {
					s.logger.Warn("route has no page handler", "route", route.Name)
					continue
				}
				for _, p := range route.Paths {
					r.Get(p, h)
				}
			}
		})
	})

	return r
}
