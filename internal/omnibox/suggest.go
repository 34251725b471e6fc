package omnibox

import (
	"strings"

	"github.com/BrainAxe/linkace-extension-modern/pkg/client"
)

// DefaultLimit caps the number of suggestions shown.
const DefaultLimit = 10

// Suggestion is one omnibox entry. Content is the raw URL used as the
// navigation target; Description is markup and must be escaped.
type Suggestion struct {
	Content     string `json:"content"`
	Description string `json:"description"`
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// EscapeXML replaces the five XML special characters with named entities.
func EscapeXML(s string) string {
	return xmlEscaper.Replace(s)
}

// Suggestions shapes at most limit links into omnibox entries.
func Suggestions(links []client.Link, limit int) []Suggestion {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(links) > limit {
		links = links[:limit]
	}
	out := make([]Suggestion, 0, len(links))
	for _, l := range links {
		out = append(out, Suggestion{
			Content:     l.URL,
			Description: EscapeXML(l.Title) + " - <url>" + EscapeXML(l.URL) + "</url>",
		})
	}
	return out
}
