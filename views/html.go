package views

import (
	"context"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/a-h/templ"
)

// htmlWriter keeps the first write error so components can emit markup
// without checking every call.
type htmlWriter struct {
	ctx context.Context
	w   io.Writer
	err error
}

func newWriter(ctx context.Context, w io.Writer) *htmlWriter {
	return &htmlWriter{ctx: ctx, w: w}
}

func (h *htmlWriter) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *htmlWriter) attr(name, value string) {
	h.raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

func (h *htmlWriter) render(c templ.Component) {
	if h.err == nil && c != nil {
		h.err = c.Render(h.ctx, h.w)
	}
}

// component adapts a write function to templ.Component.
func component(fn func(h *htmlWriter)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newWriter(ctx, w)
		fn(h)
		return h.err
	})
}

// buildURL joins path segments onto a base URL, ensuring a trailing slash.
func buildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// PostPath returns the site-relative link of a post.
func PostPath(uid string) string {
	return "/post/" + url.PathEscape(uid) + "/"
}

// Feather-style icons for the info rows.
const (
	iconCalendar = `<svg class="icon" aria-hidden="true" viewBox="0 0 24 24" width="20" height="20" fill="none" stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round"><rect x="3" y="4" width="18" height="18" rx="2" ry="2"></rect><line x1="16" y1="2" x2="16" y2="6"></line><line x1="8" y1="2" x2="8" y2="6"></line><line x1="3" y1="10" x2="21" y2="10"></line></svg>`
	iconUser     = `<svg class="icon" aria-hidden="true" viewBox="0 0 24 24" width="20" height="20" fill="none" stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round"><path d="M20 21v-2a4 4 0 0 0-4-4H8a4 4 0 0 0-4 4v2"></path><circle cx="12" cy="7" r="4"></circle></svg>`
	iconClock    = `<svg class="icon" aria-hidden="true" viewBox="0 0 24 24" width="20" height="20" fill="none" stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round"><circle cx="12" cy="12" r="10"></circle><polyline points="12 6 12 12 16 14"></polyline></svg>`
)
