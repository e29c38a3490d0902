// Package router maps paths to pages and decides, before each
// navigation, whether it may proceed, must wait, or is sent elsewhere.
package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
)

// maxRedirects bounds guard redirect chains.
const maxRedirects = 10

var (
	ErrNotFound      = errors.New("no route matches path")
	ErrUnknownRoute  = errors.New("unknown route name")
	ErrRedirectLoop  = errors.New("too many navigation redirects")
	ErrMissingParams = errors.New("missing route params")
)

var paramPattern = regexp.MustCompile(`\{([^}:]+)(:[^}]*)?\}`)

// Location is a resolved path.
type Location struct {
	Route    *Route
	Path     string
	FullPath string
	Params   map[string]string
	Query    url.Values

	// RedirectedFrom is the location first asked for when guards sent the
	// navigation elsewhere.
	RedirectedFrom *Location
}

// Name is the route name, or "" for a nil location (the very first
// navigation has no origin).
func (l *Location) Name() string {
	if l == nil || l.Route == nil {
		return ""
	}
	return l.Route.Name
}

// Authenticator reports whether a user is signed in.
type Authenticator interface {
	IsAuthenticated() bool
}

// Transition is what guards and hooks see.
type Transition struct {
	To      *Location
	From    *Location
	Session Authenticator
	State   *State
}

func (t *Transition) authenticated() bool {
	return t.Session != nil && t.Session.IsAuthenticated()
}

// Redirect names where a guard sends a navigation instead.
type Redirect struct {
	Name   string
	Params map[string]string
	Query  url.Values
}

// Guard runs before a navigation. A nil Redirect and nil error let it
// proceed. Guards may block, as long as they honour ctx.
type Guard func(ctx context.Context, t *Transition) (*Redirect, error)

// AfterHook runs once a navigation has completed.
type AfterHook func(ctx context.Context, t *Transition)

type Router struct {
	routes    []Route
	byName    map[string]*Route
	byPattern map[string]*Route
	mux       *chi.Mux
	before    []Guard
	after     []AfterHook
}

func New(routes []Route) *Router {
	r := &Router{
		routes:    routes,
		byName:    make(map[string]*Route),
		byPattern: make(map[string]*Route),
		mux:       chi.NewRouter(),
	}

	for i := range r.routes {
		route := &r.routes[i]
		r.byName[route.Name] = route
		for _, p := range route.Paths {
			r.byPattern[p] = route
			r.mux.Get(p, func(http.ResponseWriter, *http.Request) {})
		}
	}

	return r
}

func (r *Router) BeforeEach(g Guard) {
	r.before = append(r.before, g)
}

func (r *Router) AfterEach(h AfterHook) {
	r.after = append(r.after, h)
}

func (r *Router) Routes() []Route {
	return r.routes
}

func (r *Router) Route(name string) (*Route, bool) {
	route, ok := r.byName[name]
	return route, ok
}

// Resolve matches fullPath, which may carry a query string, against the
// route table.
func (r *Router) Resolve(fullPath string) (*Location, error) {
	u, err := url.Parse(fullPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %s", ErrNotFound, fullPath, err)
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}

	rctx := chi.NewRouteContext()
	if !r.mux.Match(rctx, http.MethodGet, path) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, fullPath)
	}

	route, ok := r.byPattern[rctx.RoutePattern()]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, fullPath)
	}

	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, k := range rctx.URLParams.Keys {
		v, err := url.PathUnescape(rctx.URLParams.Values[i])
		if err != nil {
			v = rctx.URLParams.Values[i]
		}
		params[k] = v
	}

	full := path
	if u.RawQuery != "" {
		full += "?" + u.RawQuery
	}

	return &Location{
		Route:    route,
		Path:     path,
		FullPath: full,
		Params:   params,
		Query:    u.Query(),
	}, nil
}

// Href builds the path of the named route. The first of the route's
// patterns whose params are all given is used.
func (r *Router) Href(name string, params map[string]string, query url.Values) (string, error) {
	route, ok := r.byName[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownRoute, name)
	}

	for _, pattern := range route.Paths {
		path, ok := fill(pattern, params)
		if !ok {
			continue
		}
		if len(query) > 0 {
			path += "?" + query.Encode()
		}
		return path, nil
	}

	return "", fmt.Errorf("%w: %s", ErrMissingParams, name)
}

func fill(pattern string, params map[string]string) (string, bool) {
	ok := true
	path := paramPattern.ReplaceAllStringFunc(pattern, func(m string) string {
		key := paramPattern.FindStringSubmatch(m)[1]
		v, found := params[key]
		if !found || v == "" {
			ok = false
			return m
		}
		return url.PathEscape(v)
	})
	return path, ok
}

// Navigation asks to go to To from From.
type Navigation struct {
	To      string
	From    *Location
	Session Authenticator
	State   *State
}

// Navigate runs the guards for n and returns where the navigation ends
// up. A guard redirect starts a new navigation to the redirect target,
// with the guards run again. After hooks run only for the final,
// completed navigation.
func (r *Router) Navigate(ctx context.Context, n Navigation) (*Location, error) {
	if n.State == nil {
		n.State = &State{}
	}

	to, err := r.Resolve(n.To)
	if err != nil {
		return nil, err
	}

	for hops := 0; ; hops++ {
		if hops > maxRedirects {
			return nil, fmt.Errorf("%w: last target %s", ErrRedirectLoop, to.FullPath)
		}

		t := &Transition{To: to, From: n.From, Session: n.Session, State: n.State}
		redirect, err := r.runGuards(ctx, t)
		if err != nil {
			return nil, err
		}

		if redirect == nil {
			for _, h := range r.after {
				h(ctx, t)
			}
			return to, nil
		}

		href, err := r.Href(redirect.Name, redirect.Params, redirect.Query)
		if err != nil {
			return nil, err
		}
		next, err := r.Resolve(href)
		if err != nil {
			return nil, err
		}

		next.RedirectedFrom = to
		if to.RedirectedFrom != nil {
			next.RedirectedFrom = to.RedirectedFrom
		}
		to = next
	}
}

func (r *Router) runGuards(ctx context.Context, t *Transition) (*Redirect, error) {
	for _, g := range r.before {
		redirect, err := g(ctx, t)
		if err != nil {
			return nil, err
		}
		if redirect != nil {
			return redirect, nil
		}
	}
	return nil, nil
}
