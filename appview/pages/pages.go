package pages

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"sync"
	"time"

	"github.com/sustc/cookbook/appview/auth"
)

//go:embed templates/*.html
var files embed.FS

// Pages renders views. A view is parsed the first time it is used and
// kept afterwards.
type Pages struct {
	mu    sync.Mutex
	cache map[string]*template.Template
}

func NewPages() *Pages {
	return &Pages{cache: make(map[string]*template.Template)}
}

func (p *Pages) parse(file string) (*template.Template, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if tmpl, found := p.cache[file]; found {
		return tmpl, nil
	}

	tmpl, err := template.New("layout.html").
		Funcs(funcMap()).
		ParseFS(files, "templates/layout.html", "templates/"+file)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", file, err)
	}

	p.cache[file] = tmpl
	return tmpl, nil
}

// Render executes the named view inside the layout.
func (p *Pages) Render(w io.Writer, file string, params any) error {
	tmpl, err := p.parse(file)
	if err != nil {
		return err
	}
	return tmpl.Execute(w, params)
}

// Base is embedded in every view's params.
type Base struct {
	LoggedInUser *auth.Session
	Route        string
	Notice       string
}

type HomeParams struct {
	Base
}

type LoginParams struct {
	Base
	AuthorId string
	Redirect string
}

type RegisterParams struct {
	Base
	// Response is the backend's answer, shown as is.
	Response string
	Status   int
}

type Recipe struct {
	Id          string
	Name        string
	AuthorId    string
	AuthorName  string
	Category    string
	Description string
	Published   *time.Time
	Rating      float64
	Reviews     int64
	Ingredients []string
}

type RecipeParams struct {
	Base
	Recipe Recipe
	// Error is set when the recipe could not be fetched.
	Error string
}

type ProfileParams struct {
	Base
	// AuthorId is empty when neither the path nor the session names one.
	AuthorId string
	Own      bool
}

type CreateParams struct {
	Base
}
