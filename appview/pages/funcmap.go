package pages

import (
	"html/template"
	"time"

	"github.com/dustin/go-humanize"
)

func funcMap() template.FuncMap {
	return template.FuncMap{
		"timeFmt": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return humanize.Time(*t)
		},
		"comma": humanize.Comma,
		"ftoa": func(f float64) string {
			return humanize.FtoaWithDigits(f, 1)
		},
		"cond": func(cond interface{}, a, b string) string {
			if boolean, ok := cond.(bool); boolean && ok {
				return a
			}
			return b
		},
		"markdown": func(text string) template.HTML {
			return template.HTML(renderMarkdown(text))
		},
	}
}
