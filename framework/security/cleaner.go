package security

import (
	"html"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Cleaner makes a string safe for output.
type Cleaner interface {
	Clean(s string) string
}

// CleanerFunc adapts a function to Cleaner.
type CleanerFunc func(s string) string

// Clean implements Cleaner.
func (f CleanerFunc) Clean(s string) string { return f(s) }

// Htmlentities escapes HTML special characters, quotes included. Entities
// already present are not encoded twice.
type Htmlentities struct{}

// Clean implements Cleaner.
func (Htmlentities) Clean(s string) string {
	return html.EscapeString(html.UnescapeString(s))
}

var (
	strictPolicy *bluemonday.Policy
	safePolicy   *bluemonday.Policy
	initOnce     sync.Once
)

func initPolicies() {
	initOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()

		safePolicy = bluemonday.NewPolicy()
		safePolicy.AllowStandardURLs()
		safePolicy.AllowElements(
			"p", "br",
			"strong", "b", "em", "i",
			"ul", "ol", "li",
			"code", "pre", "blockquote",
		)
		safePolicy.AllowAttrs("href").OnElements("a")
		safePolicy.RequireNoFollowOnLinks(true)
	})
}

// Strip removes every HTML element and keeps the text.
type Strip struct{}

// Clean implements Cleaner.
func (Strip) Clean(s string) string {
	initPolicies()
	return strictPolicy.Sanitize(s)
}

// Safe keeps basic formatting (paragraphs, emphasis, lists, code, links)
// and drops scripts, event handlers and javascript: URLs.
type Safe struct{}

// Clean implements Cleaner.
func (Safe) Clean(s string) string {
	initPolicies()
	return safePolicy.Sanitize(s)
}

// Policy cleans with a custom bluemonday policy.
type Policy struct {
	*bluemonday.Policy
}

// Clean implements Cleaner. A nil policy returns s unchanged.
func (p Policy) Clean(s string) string {
	if p.Policy == nil {
		return s
	}
	return p.Sanitize(s)
}
