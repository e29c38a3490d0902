package state

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/sustc/cookbook/appview"
	"github.com/sustc/cookbook/appview/api"
	"github.com/sustc/cookbook/appview/auth"
	"github.com/sustc/cookbook/appview/pages"
	"github.com/sustc/cookbook/appview/router"
	"github.com/sustc/cookbook/log"
)

// maxForm bounds request bodies read by form handlers.
const maxForm = 1 << 20

// Login checks the posted credentials with the backend. Plain form posts
// get the login page back on failure; htmx posts get a notice swapped into
// the form.
func (s *State) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := log.FromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxForm)
	id := strings.TrimSpace(r.FormValue("authorId"))
	password := r.FormValue("password")
	redirect := r.FormValue(appview.RedirectParam)

	params := pages.LoginParams{
		Base:     s.base(r),
		AuthorId: id,
		Redirect: redirect,
	}
	params.Route = router.Login

	if id == "" || password == "" {
		params.Notice = "author id and password are required"
		s.loginFailed(w, r, http.StatusBadRequest, params)
		return
	}

	ok, err := auth.FromContext(ctx).Login(ctx, id, password)
	if err != nil {
		l.Warn("logging in", "author", id, "err", err)
		status := backendStatus(err)
		params.Notice = "could not reach the server, try again"
		if status < 500 {
			params.Notice = "login failed"
		}
		s.loginFailed(w, r, status, params)
		return
	}
	if !ok {
		params.Notice = "wrong author id or password"
		s.loginFailed(w, r, http.StatusUnauthorized, params)
		return
	}

	l.Info("logged in", "author", id)
	if pages.IsHtmx(r) {
		s.pages.HxRedirect(w, safeRedirect(redirect))
		return
	}
	http.Redirect(w, r, safeRedirect(redirect), http.StatusSeeOther)
}

func (s *State) loginFailed(w http.ResponseWriter, r *http.Request, status int, params pages.LoginParams) {
	if pages.IsHtmx(r) {
		s.pages.Notice(w, "login-msg", params.Notice)
		return
	}
	s.renderRoute(w, r, router.Login, status, params)
}

// Register forwards the registration payload and shows the backend's
// answer as is. JSON requests get the backend's body back verbatim.
func (s *State) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := log.FromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxForm)
	isJSON := isJSONRequest(r)

	payload, err := registrationPayload(r, isJSON)
	if err != nil {
		http.Error(w, "invalid registration payload", http.StatusBadRequest)
		return
	}

	status := http.StatusOK
	body, err := auth.FromContext(ctx).Register(ctx, payload)
	if err != nil {
		var rerr *api.ResponseError
		if !errors.As(err, &rerr) {
			l.Warn("registering", "err", err)
			http.Error(w, "could not reach the server", backendStatus(err))
			return
		}
		status, body = rerr.StatusCode, rerr.Body
	}

	if isJSON {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write(body)
		return
	}

	params := pages.RegisterParams{
		Base:     s.base(r),
		Response: string(body),
		Status:   status,
	}
	params.Route = router.Register
	s.renderRoute(w, r, router.Register, status, params)
}

func (s *State) Logout(w http.ResponseWriter, r *http.Request) {
	auth.FromContext(r.Context()).Logout(r.Context())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *State) renderRoute(w http.ResponseWriter, r *http.Request, name string, status int, params any) {
	route, ok := s.router.Route(name)
	if !ok {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.renderView(w, r, route.Component, status, params)
}

func isJSONRequest(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

func registrationPayload(r *http.Request, isJSON bool) (any, error) {
	if isJSON {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		if !json.Valid(data) {
			return nil, errors.New("body is not json")
		}
		return json.RawMessage(data), nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	payload := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		payload[k] = r.PostForm.Get(k)
	}
	return payload, nil
}

// safeRedirect keeps post-login redirects on this site.
func safeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") ||
		strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}

	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return target
}
