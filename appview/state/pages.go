package state

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sustc/cookbook/appview"
	"github.com/sustc/cookbook/appview/api"
	"github.com/sustc/cookbook/appview/auth"
	"github.com/sustc/cookbook/appview/pages"
	"github.com/sustc/cookbook/log"
	"github.com/tidwall/gjson"
)

func (s *State) base(r *http.Request) pages.Base {
	var b pages.Base
	if session, ok := auth.FromContext(r.Context()).Session(); ok {
		b.LoggedInUser = &session
	}
	if loc := locationFromContext(r.Context()); loc != nil {
		b.Route = loc.Name()
	}
	return b
}

// render draws the view of the route being served.
func (s *State) render(w http.ResponseWriter, r *http.Request, status int, params any) {
	loc := locationFromContext(r.Context())
	if loc == nil {
		log.FromContext(r.Context()).Error("rendering outside a navigation")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.renderView(w, r, loc.Route.Component, status, params)
}

func (s *State) renderView(w http.ResponseWriter, r *http.Request, component string, status int, params any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.pages.Render(w, component, params); err != nil {
		log.FromContext(r.Context()).Error("rendering view", "view", component, "err", err)
	}
}

func (s *State) Home(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pages.HomeParams{Base: s.base(r)})
}

func (s *State) LoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pages.LoginParams{
		Base:     s.base(r),
		Redirect: r.URL.Query().Get(appview.RedirectParam),
	})
}

func (s *State) RegisterPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pages.RegisterParams{Base: s.base(r)})
}

func (s *State) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pages.CreateParams{Base: s.base(r)})
}

func (s *State) Profile(w http.ResponseWriter, r *http.Request) {
	params := pages.ProfileParams{
		Base:     s.base(r),
		AuthorId: chi.URLParam(r, "id"),
	}

	if user := params.LoggedInUser; user != nil {
		if params.AuthorId == "" {
			params.AuthorId = user.ID
		}
		params.Own = params.AuthorId == user.ID
	}

	s.render(w, r, http.StatusOK, params)
}

func (s *State) RecipeDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	params := pages.RecipeParams{
		Base:   s.base(r),
		Recipe: pages.Recipe{Id: id},
	}

	resp, err := s.api.Get(ctx, "/recipe/"+url.PathEscape(id))
	if err != nil {
		status := backendStatus(err)
		log.FromContext(ctx).Warn("fetching recipe", "id", id, "err", err)
		params.Error = http.StatusText(status)
		if status == http.StatusNotFound {
			params.Error = "no such recipe"
		}
		s.render(w, r, status, params)
		return
	}

	params.Recipe = recipeFromJSON(id, resp.Result())
	s.render(w, r, http.StatusOK, params)
}

// backendStatus picks the status to answer with when a backend call
// failed: the backend's own status if it sent one, 400 for a path outside
// the api, 504 on timeout, 502 otherwise.
func backendStatus(err error) int {
	switch {
	case errors.Is(err, api.ErrInvalidPath):
		return http.StatusBadRequest
	case api.StatusCode(err) != 0:
		return api.StatusCode(err)
	case api.IsTimeout(err):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

var publishedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func recipeFromJSON(id string, v gjson.Result) pages.Recipe {
	recipe := pages.Recipe{
		Id:          v.Get("recipeId").String(),
		Name:        v.Get("name").String(),
		AuthorId:    v.Get("authorId").String(),
		AuthorName:  v.Get("authorName").String(),
		Category:    v.Get("recipeCategory").String(),
		Description: v.Get("description").String(),
		Rating:      v.Get("aggregatedRating").Float(),
		Reviews:     v.Get("reviewCount").Int(),
	}
	if recipe.Id == "" {
		recipe.Id = id
	}

	for _, part := range v.Get("recipeIngredientParts").Array() {
		if s := strings.TrimSpace(part.String()); s != "" {
			recipe.Ingredients = append(recipe.Ingredients, s)
		}
	}

	published := v.Get("datePublished")
	switch published.Type {
	case gjson.Number:
		t := time.UnixMilli(published.Int())
		recipe.Published = &t
	case gjson.String:
		for _, layout := range publishedLayouts {
			if t, err := time.Parse(layout, published.String()); err == nil {
				recipe.Published = &t
				break
			}
		}
	}

	return recipe
}
