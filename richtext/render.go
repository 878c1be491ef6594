package richtext

import (
	"bytes"
	"context"
	"html"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

// HTML returns a templ.Component that renders doc as sanitized HTML.
func HTML(doc Document) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, RenderString(doc))
		return err
	})
}

// RenderString renders doc and sanitizes the result.
func RenderString(doc Document) string {
	var buf bytes.Buffer
	Render(&buf, Parse(doc))
	return defaultSanitizer.Sanitize(buf.String())
}

// Render writes the HTML for nodes to buf. Text is escaped and only the node
// kinds in the closed set produce tags.
func Render(buf *bytes.Buffer, nodes []*Node) {
	var openList Kind = -1
	closeList := func() {
		switch openList {
		case KindListItem:
			buf.WriteString("</ul>")
		case KindOrderedListItem:
			buf.WriteString("</ol>")
		}
		openList = -1
	}
	for _, n := range nodes {
		if n.Kind != openList {
			closeList()
		}
		switch n.Kind {
		case KindListItem, KindOrderedListItem:
			if openList != n.Kind {
				if n.Kind == KindListItem {
					buf.WriteString("<ul>")
				} else {
					buf.WriteString("<ol>")
				}
				openList = n.Kind
			}
			buf.WriteString("<li>")
			renderInline(buf, n.Children)
			buf.WriteString("</li>")
		case KindHeading:
			tag := "h" + strconv.Itoa(n.Level)
			buf.WriteString("<" + tag + ">")
			renderInline(buf, n.Children)
			buf.WriteString("</" + tag + ">")
		case KindPreformatted:
			buf.WriteString("<pre>")
			buf.WriteString(html.EscapeString(n.Text))
			buf.WriteString("</pre>")
		case KindImage:
			src := SafeURL(n.URL)
			if src == "" {
				continue
			}
			buf.WriteString(`<img src="` + src + `" alt="` + html.EscapeString(n.Alt) + `"`)
			if n.Width > 0 && n.Height > 0 {
				buf.WriteString(` width="` + strconv.Itoa(n.Width) + `" height="` + strconv.Itoa(n.Height) + `"`)
			}
			buf.WriteString(`/>`)
		default:
			buf.WriteString("<p>")
			renderInline(buf, n.Children)
			buf.WriteString("</p>")
		}
	}
	closeList()
}

func renderInline(buf *bytes.Buffer, nodes []*Node) {
	for _, n := range nodes {
		switch n.Kind {
		case KindEmphasis:
			buf.WriteString("<em>")
			renderInline(buf, n.Children)
			buf.WriteString("</em>")
		case KindStrong:
			buf.WriteString("<strong>")
			renderInline(buf, n.Children)
			buf.WriteString("</strong>")
		case KindLink:
			href := SafeURL(n.URL)
			if href == "" {
				renderInline(buf, n.Children)
				continue
			}
			buf.WriteString(`<a href="` + href + `"`)
			if n.Target == "_blank" {
				buf.WriteString(` target="_blank" rel="noopener noreferrer"`)
			}
			buf.WriteString(">")
			renderInline(buf, n.Children)
			buf.WriteString("</a>")
		default:
			writeText(buf, n.Text)
		}
	}
}

// writeText escapes s and turns line breaks into <br/>.
func writeText(buf *bytes.Buffer, s string) {
	for i, line := range strings.Split(s, "\n") {
		if i > 0 {
			buf.WriteString("<br/>")
		}
		buf.WriteString(html.EscapeString(line))
	}
}

// SafeURL validates and sanitizes a URL for use in HTML attributes.
func SafeURL(raw string) string {
	val := strings.TrimSpace(raw)
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}
