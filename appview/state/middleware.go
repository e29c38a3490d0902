package state

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sustc/cookbook/appview/api"
	"github.com/sustc/cookbook/appview/auth"
	"github.com/sustc/cookbook/appview/router"
	"github.com/sustc/cookbook/appview/storage"
	"github.com/sustc/cookbook/log"
)

type Middleware func(http.Handler) http.Handler

// RequestLogger puts a per-request logger into the context and logs
// each request once it is served.
func RequestLogger(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			l := logger.With("request_id", uuid.NewString())
			ctx := log.IntoContext(r.Context(), l)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			l.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
			)
		})
	}
}

// SessionMiddleware loads the caller's session from its cookie and
// makes it available to handlers and to every backend call.
func (s *State) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		store := auth.New(ctx, storage.NewCookie(s.cookies, r, w), s.api)

		ctx = auth.IntoContext(ctx, store)
		ctx = api.WithCredentials(ctx, store)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Navigate runs the router's guards for a page load. Redirects are sent
// to the browser; everything else renders with the resolved location in
// the context.
func (s *State) Navigate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		l := log.FromContext(ctx)

		st := storage.NewCookie(s.cookies, r, w)
		nav, err := router.LoadState(st)
		if err != nil {
			l.Warn("loading navigation state", "err", err)
		}

		var from *router.Location
		if nav.Last != "" {
			from, _ = s.router.Resolve(nav.Last)
		}

		loc, err := s.router.Navigate(ctx, router.Navigation{
			To:      r.URL.RequestURI(),
			From:    from,
			Session: auth.FromContext(ctx),
			State:   nav,
		})
		if err != nil {
			switch {
			case errors.Is(err, router.ErrNotFound):
				http.NotFound(w, r)
			case ctx.Err() != nil:
				// client went away while the navigation was held
			default:
				l.Error("navigation failed", "to", r.URL.RequestURI(), "err", err)
				http.Error(w, "navigation failed", http.StatusInternalServerError)
			}
			return
		}

		if err := router.SaveState(st, nav); err != nil {
			l.Warn("saving navigation state", "err", err)
		}

		if loc.RedirectedFrom != nil {
			l.Debug("navigation redirected", "from", loc.RedirectedFrom.FullPath, "to", loc.FullPath)
			http.Redirect(w, r, loc.FullPath, http.StatusFound)
			return
		}

		next.ServeHTTP(w, r.WithContext(withLocation(ctx, loc)))
	})
}

type locationKey struct{}

func withLocation(ctx context.Context, loc *router.Location) context.Context {
	return context.WithValue(ctx, locationKey{}, loc)
}

func locationFromContext(ctx context.Context) *router.Location {
	loc, _ := ctx.Value(locationKey{}).(*router.Location)
	return loc
}
