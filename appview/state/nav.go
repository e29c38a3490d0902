package state

import (
	"net/http"
	"strconv"

	"github.com/sustc/cookbook/appview/router"
	"github.com/sustc/cookbook/appview/storage"
	"github.com/sustc/cookbook/log"
)

// Envelope lets the recipe page report whether its envelope animation
// is still playing, which the router consults before going back home.
func (s *State) Envelope(w http.ResponseWriter, r *http.Request) {
	l := log.FromContext(r.Context())

	show, err := strconv.ParseBool(r.FormValue("showEnvelope"))
	if err != nil {
		http.Error(w, "showEnvelope must be a boolean", http.StatusBadRequest)
		return
	}

	st := storage.NewCookie(s.cookies, r, w)
	nav, err := router.LoadState(st)
	if err != nil {
		l.Warn("loading navigation state", "err", err)
	}

	nav.SetHint(router.Hint{ShowEnvelope: show})
	if err := router.SaveState(st, nav); err != nil {
		l.Error("saving navigation state", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
