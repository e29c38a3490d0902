package pages

import (
	"fmt"
	"html/template"
	"net/http"
)

// IsHtmx reports whether r was sent by htmx rather than a plain form post.
func IsHtmx(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// Notice swaps msg into the element with the given id, out of band. It
// answers 200 since htmx does not swap error responses.
func (p *Pages) Notice(w http.ResponseWriter, id, msg string) {
	html := fmt.Sprintf(`<span id="%s" hx-swap-oob="innerHTML">%s</span>`,
		template.HTMLEscapeString(id), template.HTMLEscapeString(msg))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}

// HxRedirect is a full page reload with a new location.
func (p *Pages) HxRedirect(w http.ResponseWriter, location string) {
	w.Header().Set("HX-Redirect", location)
	w.WriteHeader(http.StatusOK)
}
