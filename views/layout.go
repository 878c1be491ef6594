package views

import (
	"strconv"

	"github.com/a-h/templ"
)

// HTMXSrc is where the page loads htmx from.
const HTMXSrc = "https://unpkg.com/htmx.org@2.0.4/dist/htmx.min.js"

// Layout wraps body in the site chrome: head metadata, header and main.
func Layout(cfg SiteConfig, meta PageMeta, jsonLD string, body templ.Component) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<!DOCTYPE html><html lang="pt-BR"><head><meta charset="utf-8"/>`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1"/>`)
		if meta.Refresh > 0 {
			h.raw(`<meta http-equiv="refresh"`)
			h.attr("content", strconv.Itoa(meta.Refresh))
			h.raw(`/>`)
		}
		h.raw(`<title>`)
		h.text(meta.Title)
		h.raw(`</title>`)
		if meta.Description != "" {
			h.raw(`<meta name="description"`)
			h.attr("content", meta.Description)
			h.raw(`/>`)
		}
		if meta.URL != "" {
			h.raw(`<link rel="canonical"`)
			h.attr("href", meta.URL)
			h.raw(`/><meta property="og:url"`)
			h.attr("content", meta.URL)
			h.raw(`/>`)
		}
		h.raw(`<meta property="og:title"`)
		h.attr("content", meta.Title)
		h.raw(`/><meta property="og:site_name"`)
		h.attr("content", cfg.Name)
		h.raw(`/>`)
		if meta.OGType != "" {
			h.raw(`<meta property="og:type"`)
			h.attr("content", meta.OGType)
			h.raw(`/>`)
		}
		if meta.Image != "" {
			h.raw(`<meta property="og:image"`)
			h.attr("content", meta.Image)
			h.raw(`/>`)
		}
		h.raw(`<link rel="alternate" type="application/rss+xml"`)
		h.attr("title", cfg.Name)
		h.raw(` href="/feed.xml"/>`)
		h.raw(`<link rel="stylesheet" href="/public/style.css"/>`)
		h.raw(`<script defer`)
		h.attr("src", HTMXSrc)
		h.raw(`></script>`)
		if jsonLD != "" {
			h.raw(`<script type="application/ld+json">`)
			h.raw(jsonLD)
			h.raw(`</script>`)
		}
		h.raw(`</head><body><header class="header"><a href="/" class="logo">`)
		h.text(cfg.Name)
		h.raw(`<span>.</span></a></header>`)
		h.render(body)
		h.raw(`</body></html>`)
	})
}

// PageTitle formats a document title as "{name} | {site}.".
func PageTitle(cfg SiteConfig, name string) string {
	return name + " | " + cfg.Name + "."
}
