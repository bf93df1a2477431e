// Package sanitize strips unsafe markup from post bodies before they are
// stored. Bodies are rendered verbatim by the public site, so everything
// that reaches the database must already be safe.
package sanitize

import (
	"github.com/microcosm-cc/bluemonday"
)

// policy is the shared UGC policy. bluemonday policies are safe for
// concurrent use once configured.
var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	// Code blocks carry highlighter classes and inline styles.
	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code", "pre", "span", "div")
	p.AllowAttrs("style").OnElements("pre", "span")
	p.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowElements("figure", "figcaption")
	p.RequireNoReferrerOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// HTML returns body with scripts, event handlers and other unsafe markup removed.
func HTML(body string) string {
	return policy.Sanitize(body)
}
