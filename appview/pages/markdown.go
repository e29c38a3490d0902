package pages

import (
	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

// renderMarkdown turns user-written recipe text into sanitized html.
func renderMarkdown(source string) string {
	unsafe := blackfriday.Run(
		[]byte(source),
		blackfriday.WithExtensions(blackfriday.CommonExtensions),
	)
	return string(bluemonday.UGCPolicy().SanitizeBytes(unsafe))
}
