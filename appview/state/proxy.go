package state

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sustc/cookbook/appview/api"
	"github.com/sustc/cookbook/log"
)

// Proxy relays /api/* to the backend through the api client, so browser
// calls carry the session's credentials like every other backend call.
func (s *State) Proxy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	path := chi.URLParam(r, "*")

	resp, err := s.api.Forward(ctx, r.Method, path, r.URL.RawQuery, r.Header.Get("Content-Type"), r.Body)
	if err != nil {
		var rerr *api.ResponseError
		if errors.As(err, &rerr) {
			writeBackend(w, rerr.StatusCode, rerr.Header, rerr.Body)
			return
		}

		log.FromContext(ctx).Warn("proxying", "method", r.Method, "path", path, "err", err)
		http.Error(w, http.StatusText(backendStatus(err)), backendStatus(err))
		return
	}

	writeBackend(w, resp.StatusCode, resp.Header, resp.Data)
}

func writeBackend(w http.ResponseWriter, status int, header http.Header, body []byte) {
	if ct := header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(status)
	w.Write(body)
}
