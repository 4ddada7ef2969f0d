package content

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richPolicy   = newRichPolicy()
	strictPolicy = bluemonday.StrictPolicy()
)

// newRichPolicy permits user-generated-content markup plus the class
// attributes the theory styles key on (formula-box, key-point, ...).
func newRichPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).Globally()
	return p
}

// SanitizeHTML strips scripts, handlers and unknown markup from rich text.
func SanitizeHTML(s string) string {
	return strings.TrimSpace(richPolicy.Sanitize(s))
}

// plain strips all markup and returns unescaped text.
func plain(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

func sanitizePractical(p *Practical) {
	p.Title = plain(p.Title)
	p.Objective = plain(p.Objective)
	p.Theory = SanitizeHTML(p.Theory)
}

func sanitizeTopic(t *TutorTopic) {
	t.Title = plain(t.Title)
	t.Content = SanitizeHTML(t.Content)
}
