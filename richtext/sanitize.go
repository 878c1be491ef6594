package richtext

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var defaultSanitizer = NewSanitizer()

// Sanitizer is the allow-list pass applied to rendered rich text.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer creates a Sanitizer allowing only the tags the renderer emits.
func NewSanitizer() *Sanitizer {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "h1", "h2", "h3", "h4", "h5", "h6", "em", "strong", "pre", "br")
	p.AllowLists()
	p.AllowImages()
	p.AllowStandardURLs()
	p.AllowAttrs("href").OnElements("a")
	// Links open in a new tab only when the CMS asked for it.
	p.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
	p.RequireNoFollowOnLinks(true)
	p.RequireNoReferrerOnLinks(true)

	return &Sanitizer{policy: p}
}

// Sanitize strips everything outside the allow-list from s.
func (s *Sanitizer) Sanitize(html string) string {
	return s.policy.Sanitize(html)
}
