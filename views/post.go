package views

import (
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/spacetraveling/posts"
	"github.com/eringen/spacetraveling/richtext"
)

// Post renders the full detail page.
func Post(cfg SiteConfig, meta PageMeta, data PostData) templ.Component {
	return Layout(cfg, meta, BlogPostingJsonLD(cfg, data.Post), Article(data))
}

// Article renders the detail page body: banner, title, info rows and the
// content sections.
func Article(data PostData) templ.Component {
	p := data.Post
	banner := data.BannerSrc
	if banner == "" {
		banner = p.BannerURL
	}
	return component(func(h *htmlWriter) {
		h.raw(`<main class="container"><article class="post-detail">`)
		if banner != "" {
			h.raw(`<img class="banner"`)
			h.attr("src", banner)
			h.attr("alt", p.Title)
			h.raw(`/>`)
		}
		h.raw(`<div class="post-content"><h1>`)
		h.text(p.Title)
		h.raw(`</h1><div class="time-container"><div>`)
		h.raw(iconCalendar)
		h.raw(`<time`)
		h.attr("datetime", posts.ISODate(p.FirstPublicationDate))
		h.raw(`>`)
		h.text(posts.FormatDate(p.FirstPublicationDate))
		h.raw(`</time></div><div>`)
		h.raw(iconUser)
		h.raw(`<span>`)
		h.text(p.Author)
		h.raw(`</span></div><div>`)
		h.raw(iconClock)
		h.raw(`<span class="reading-time">`)
		h.text(strconv.Itoa(data.ReadingTime) + " min")
		h.raw(`</span></div></div>`)
		if edited := posts.FormatDate(p.LastPublicationDate); edited != "" && edited != posts.FormatDate(p.FirstPublicationDate) {
			h.raw(`<p class="edited">* editado em `)
			h.text(edited)
			h.raw(`</p>`)
		}
		for _, sec := range p.Content {
			h.raw(`<section class="section"><h2>`)
			h.text(sec.Heading)
			h.raw(`</h2><div class="body">`)
			h.render(richtext.HTML(sec.Body))
			h.raw(`</div></section>`)
		}
		h.raw(`</div></article></main>`)
	})
}

// Loading renders the placeholder shown while a page is being built. The
// page reloads itself every refresh seconds.
func Loading(cfg SiteConfig, uid string, refresh int) templ.Component {
	meta := PageMeta{
		Title:   PageTitle(cfg, "Carregando"),
		URL:     buildURL(cfg.URL, "post", uid),
		Refresh: refresh,
	}
	body := component(func(h *htmlWriter) {
		h.raw(`<main class="container"><div class="loading" aria-busy="true"`)
		h.attr("hx-get", PostPath(uid))
		h.attr("hx-trigger", "every "+strconv.Itoa(max(refresh, 1))+"s")
		h.raw(` hx-select="main" hx-target="closest main" hx-swap="outerHTML">`)
		h.raw(`<p>Carregando...</p></div></main>`)
	})
	return Layout(cfg, meta, "", body)
}
